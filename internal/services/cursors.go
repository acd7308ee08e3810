package services

import (
	"sync"
	"time"
)

// DefaultCursorTTL bounds how long an idle polling client's bookmark
// is kept before it is swept.
const DefaultCursorTTL = 10 * time.Minute

// ClientCursor is a best-effort bookmark for one polling client. It is
// bookkeeping only: delta reads are driven by the lastMessageId the
// client itself supplies, so losing a cursor never loses messages.
type ClientCursor struct {
	ClientID      string `json:"clientId"`
	LastMessageID string `json:"lastMessageId,omitempty"`
	LastFetch     int64  `json:"lastFetch"`
}

// CursorRegistry tracks polling clients. Entries idle past the TTL are
// swept on write so clients that silently stop polling don't grow the
// map forever.
type CursorRegistry struct {
	mu      sync.Mutex
	cursors map[string]*ClientCursor
	ttl     time.Duration
}

func NewCursorRegistry(ttl time.Duration) *CursorRegistry {
	if ttl <= 0 {
		ttl = DefaultCursorTTL
	}
	return &CursorRegistry{
		cursors: make(map[string]*ClientCursor),
		ttl:     ttl,
	}
}

// Touch records a fetch from the given client.
func (r *CursorRegistry) Touch(clientID string) {
	if clientID == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UnixMilli()
	r.sweep(now)

	cursor, ok := r.cursors[clientID]
	if !ok {
		cursor = &ClientCursor{ClientID: clientID}
		r.cursors[clientID] = cursor
	}
	cursor.LastFetch = now
}

// Advance moves a client's bookmark to the given message id.
func (r *CursorRegistry) Advance(clientID, messageID string) {
	if clientID == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UnixMilli()
	r.sweep(now)

	cursor, ok := r.cursors[clientID]
	if !ok {
		cursor = &ClientCursor{ClientID: clientID}
		r.cursors[clientID] = cursor
	}
	cursor.LastMessageID = messageID
	cursor.LastFetch = now
}

// Len returns the number of tracked polling clients.
func (r *CursorRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cursors)
}

// Snapshot copies all cursors for the debug endpoint.
func (r *CursorRegistry) Snapshot() []ClientCursor {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]ClientCursor, 0, len(r.cursors))
	for _, cursor := range r.cursors {
		out = append(out, *cursor)
	}
	return out
}

// sweep drops entries idle past the TTL. Caller holds the lock.
func (r *CursorRegistry) sweep(now int64) {
	for id, cursor := range r.cursors {
		if now-cursor.LastFetch > r.ttl.Milliseconds() {
			delete(r.cursors, id)
		}
	}
}
