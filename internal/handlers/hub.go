package handlers

import (
	"sync"

	"chat-relay/internal/models"
	"chat-relay/internal/utils"

	"github.com/gofiber/websocket/v2"
)

// Hub tracks every live socket connection for the push transport.
// There is a single chat channel, so the registry is flat: connID ->
// connection plus the user bound to it once join-chat is accepted.
// Writes to a connection are serialized with a per-conn mutex because
// fiber's websocket conns are not safe for concurrent writes.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*socketConn
}

type socketConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	user    *models.User
}

func NewHub() *Hub {
	return &Hub{conns: make(map[string]*socketConn)}
}

// Add registers a raw connection that has not joined yet.
func (h *Hub) Add(connID string, c *websocket.Conn) {
	h.mu.Lock()
	h.conns[connID] = &socketConn{conn: c}
	h.mu.Unlock()
}

// BindIfNameFree binds the user to the connection unless another
// connection already holds the name. Check and bind happen under one
// lock so two concurrent joins with the same name cannot both pass.
func (h *Hub) BindIfNameFree(connID string, user models.User) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, sc := range h.conns {
		if id == connID {
			continue
		}
		if sc.user != nil && sc.user.Name == user.Name {
			return false
		}
	}
	if sc, ok := h.conns[connID]; ok {
		sc.user = &user
	}
	return true
}

// User returns the user bound to a connection, or nil before join.
func (h *Hub) User(connID string) *models.User {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if sc, ok := h.conns[connID]; ok {
		return sc.user
	}
	return nil
}

// Remove drops a connection and returns the user that was bound to it,
// if any, so the caller can clean up presence.
func (h *Hub) Remove(connID string) *models.User {
	h.mu.Lock()
	defer h.mu.Unlock()

	sc, ok := h.conns[connID]
	if !ok {
		return nil
	}
	delete(h.conns, connID)
	return sc.user
}

// Send writes one event to a single connection.
func (h *Hub) Send(connID string, payload interface{}) {
	h.mu.RLock()
	sc, ok := h.conns[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	sc.write(payload)
}

// Broadcast writes one event to every connection, joined or not. No
// acknowledgement, no retry: sockets that are gone miss the event and
// are expected to re-join for a fresh snapshot.
func (h *Hub) Broadcast(payload interface{}) {
	h.mu.RLock()
	conns := make([]*socketConn, 0, len(h.conns))
	for _, sc := range h.conns {
		conns = append(conns, sc)
	}
	h.mu.RUnlock()

	for _, sc := range conns {
		sc.write(payload)
	}
}

// Len returns the number of live connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (sc *socketConn) write(payload interface{}) {
	if sc.conn == nil {
		return
	}
	sc.writeMu.Lock()
	defer sc.writeMu.Unlock()
	if err := sc.conn.WriteJSON(payload); err != nil {
		// Let the read loop observe the broken conn and clean up.
		utils.LogError(err, "ws write")
	}
}
