package services

import (
	"errors"
	"strings"
	"sync"
	"time"

	"chat-relay/internal/models"

	"github.com/google/uuid"
)

const (
	// DefaultMessageCap bounds the in-memory log; oldest entries are
	// dropped first once exceeded.
	DefaultMessageCap = 200
	// DefaultTailLimit is how many messages a cursorless poll gets.
	DefaultTailLimit = 100
)

var (
	ErrEmptyContent   = errors.New("message content is required")
	ErrInvalidMessage = errors.New("message sender is required")
)

// MessageService is the append-only bounded chat log shared by both
// transports. Eviction is FIFO by arrival order, never by read
// frequency; reads never mutate.
type MessageService struct {
	mu       sync.RWMutex
	messages []models.Message
	cap      int
	lastTS   int64
}

func NewMessageService(capacity int) *MessageService {
	if capacity <= 0 {
		capacity = DefaultMessageCap
	}
	return &MessageService{cap: capacity}
}

// Append validates, stamps and stores a new message, trimming the
// oldest entries if the cap is exceeded.
func (s *MessageService) Append(userID, userName, content string) (models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Message{}, ErrEmptyContent
	}
	if userID == "" || userName == "" {
		return models.Message{}, ErrInvalidMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ts := time.Now().UnixMilli()
	if ts < s.lastTS {
		ts = s.lastTS
	}
	s.lastTS = ts

	msg := models.Message{
		ID:        "msg_" + uuid.NewString(),
		UserID:    userID,
		UserName:  userName,
		Content:   content,
		Timestamp: ts,
	}

	s.messages = append(s.messages, msg)
	if len(s.messages) > s.cap {
		s.messages = s.messages[len(s.messages)-s.cap:]
	}

	return msg, nil
}

// Tail returns the last n messages, oldest first. n <= 0 means all.
func (s *MessageService) Tail(n int) []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 || n > len(s.messages) {
		n = len(s.messages)
	}
	out := make([]models.Message, n)
	copy(out, s.messages[len(s.messages)-n:])
	return out
}

// Since returns every message strictly after the given id, oldest
// first. The second result reports whether the id was found: false
// means the cursor points at an evicted or never-seen message and the
// caller has to resynchronize from the tail.
func (s *MessageService) Since(messageID string) ([]models.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].ID == messageID {
			rest := s.messages[i+1:]
			out := make([]models.Message, len(rest))
			copy(out, rest)
			return out, true
		}
	}
	return nil, false
}

// Range returns a page of the buffer in insertion order plus the total
// count, for offset pagination on the history endpoint.
func (s *MessageService) Range(offset, limit int) ([]models.Message, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := len(s.messages)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []models.Message{}, total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}

	out := make([]models.Message, end-offset)
	copy(out, s.messages[offset:end])
	return out, total
}

// Count returns how many messages are currently buffered.
func (s *MessageService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}
