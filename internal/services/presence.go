package services

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"chat-relay/internal/models"

	"github.com/google/uuid"
)

var (
	ErrInvalidName  = errors.New("name is required")
	ErrUserNotFound = errors.New("user not found")
)

// PresenceService tracks which users are logged in and when they were
// last heard from. Liveness is heartbeat-based, not connection-based:
// a user counts as online while now-lastSeen stays under the caller's
// threshold, so intermittent pollers survive disconnect churn. Stale
// users are reported offline but stay in the map until Unregister.
type PresenceService struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

func NewPresenceService() *PresenceService {
	return &PresenceService{users: make(map[string]*models.User)}
}

// Register creates a user with a fresh id. Duplicate names are allowed;
// only the id is unique.
func (s *PresenceService) Register(name string) (models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.User{}, ErrInvalidName
	}

	user := &models.User{
		ID:       "user_" + uuid.NewString(),
		Name:     name,
		LastSeen: time.Now().UnixMilli(),
	}

	s.mu.Lock()
	s.users[user.ID] = user
	s.mu.Unlock()

	return *user, nil
}

// Heartbeat refreshes lastSeen for a known user. Unknown ids get
// ErrUserNotFound and no user is created; the client is expected to
// treat that as a dead session and log in again.
func (s *PresenceService) Heartbeat(userID string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return models.User{}, ErrUserNotFound
	}

	// lastSeen only moves forward, even if the wall clock steps back.
	if now := time.Now().UnixMilli(); now > user.LastSeen {
		user.LastSeen = now
	}

	return *user, nil
}

// Unregister removes a user. Removing an unknown id is not an error.
func (s *PresenceService) Unregister(userID string) {
	s.mu.Lock()
	delete(s.users, userID)
	s.mu.Unlock()
}

// ListOnline returns users seen within the threshold, sorted by name
// (ids as tie-break) so independently polling clients converge on
// identical lists.
func (s *PresenceService) ListOnline(threshold time.Duration) []models.User {
	now := time.Now().UnixMilli()

	s.mu.RLock()
	online := make([]models.User, 0, len(s.users))
	for _, user := range s.users {
		if now-user.LastSeen < threshold.Milliseconds() {
			online = append(online, *user)
		}
	}
	s.mu.RUnlock()

	sortUsers(online)
	return online
}

// Stats returns aggregate counts without materializing the list.
func (s *PresenceService) Stats(threshold time.Duration) (total, online int) {
	now := time.Now().UnixMilli()

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if now-user.LastSeen < threshold.Milliseconds() {
			online++
		}
	}
	return len(s.users), online
}

// Total returns the number of tracked users, online or not.
func (s *PresenceService) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// Snapshot returns every tracked user regardless of liveness, sorted
// by name. Used by the debug endpoint.
func (s *PresenceService) Snapshot() []models.User {
	s.mu.RLock()
	all := make([]models.User, 0, len(s.users))
	for _, user := range s.users {
		all = append(all, *user)
	}
	s.mu.RUnlock()

	sortUsers(all)
	return all
}

func sortUsers(users []models.User) {
	sort.Slice(users, func(i, j int) bool {
		if users[i].Name != users[j].Name {
			return users[i].Name < users[j].Name
		}
		return users[i].ID < users[j].ID
	})
}
