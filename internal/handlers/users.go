package handlers

import (
	"errors"
	"log"
	"time"

	"chat-relay/internal/metrics"
	"chat-relay/internal/models"
	"chat-relay/internal/services"

	"github.com/gofiber/fiber/v2"
)

// LoginHandler registers a user by name and hands back the generated
// id. Duplicate names are allowed on this transport; only the socket
// path enforces uniqueness.
func LoginHandler(presence *services.PresenceService, hub *Hub, threshold time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
		}

		user, err := presence.Register(req.Name)
		if err != nil {
			if errors.Is(err, services.ErrInvalidName) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Name is required"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Login failed"})
		}

		log.Printf("User logged in: %s (%s)", user.Name, user.ID)
		metrics.Inc(metrics.Logins)
		broadcastOnline(hub, presence, threshold)

		return c.JSON(models.LoginResponse{UserID: user.ID, Name: user.Name})
	}
}

// LogoutHandler removes a user. Unknown or missing ids still succeed.
func LogoutHandler(presence *services.PresenceService, hub *Hub, threshold time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.LogoutRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
		}

		if req.UserID != "" {
			presence.Unregister(req.UserID)
			metrics.Inc(metrics.Logouts)
			broadcastOnline(hub, presence, threshold)
		}

		return c.JSON(fiber.Map{"success": true})
	}
}

// HeartbeatHandler refreshes a user's lastSeen. 404 means the session
// is gone and the client must log in again.
func HeartbeatHandler(presence *services.PresenceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.HeartbeatRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
		}
		if req.UserID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "User ID is required"})
		}

		user, err := presence.Heartbeat(req.UserID)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Heartbeat failed"})
		}

		metrics.Inc(metrics.Heartbeats)
		return c.JSON(fiber.Map{"success": true, "user": user})
	}
}

// OnlineUsersHandler lists users within the online threshold, sorted
// by name so every poller sees the same list.
func OnlineUsersHandler(presence *services.PresenceService, threshold time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		users := presence.ListOnline(threshold)
		total := presence.Total()
		metrics.SetPresence(total, len(users))

		return c.JSON(fiber.Map{
			"users":       users,
			"serverTime":  time.Now().UnixMilli(),
			"onlineCount": len(users),
			"totalUsers":  total,
		})
	}
}

// StatsHandler returns aggregate presence counts. It shares the same
// threshold as /users/online.
func StatsHandler(presence *services.PresenceService, threshold time.Duration, startedAt time.Time) fiber.Handler {
	return func(c *fiber.Ctx) error {
		total, online := presence.Stats(threshold)
		metrics.SetPresence(total, online)

		return c.JSON(fiber.Map{
			"totalUsers":  total,
			"onlineUsers": online,
			"serverTime":  time.Now().UnixMilli(),
			"uptime":      time.Since(startedAt).Seconds(),
		})
	}
}

// DebugUsersHandler dumps the full user set with lastSeen ages plus
// the polling-cursor table.
func DebugUsersHandler(presence *services.PresenceService, cursors *services.CursorRegistry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		now := time.Now().UnixMilli()

		users := presence.Snapshot()
		entries := make([]fiber.Map, 0, len(users))
		for _, user := range users {
			entries = append(entries, fiber.Map{
				"id":                user.ID,
				"name":              user.Name,
				"lastSeen":          user.LastSeen,
				"lastSeenAgo":       now - user.LastSeen,
				"lastSeenFormatted": time.UnixMilli(user.LastSeen).UTC().Format(time.RFC3339),
			})
		}

		return c.JSON(fiber.Map{
			"totalUsers":          len(users),
			"users":               entries,
			"pollClients":         cursors.Snapshot(),
			"serverTime":          now,
			"serverTimeFormatted": time.UnixMilli(now).UTC().Format(time.RFC3339),
		})
	}
}

func broadcastOnline(hub *Hub, presence *services.PresenceService, threshold time.Duration) {
	if hub == nil {
		return
	}
	online := presence.ListOnline(threshold)
	metrics.SetPresence(presence.Total(), len(online))
	hub.Broadcast(models.WSEvent{Event: "users-updated", Users: online})
}
