package handlers

import (
	"errors"
	"time"

	"chat-relay/internal/metrics"
	"chat-relay/internal/models"
	"chat-relay/internal/services"

	"github.com/gofiber/fiber/v2"
)

// GetMessagesHandler serves polling delta reads. With a lastMessageId
// cursor the response is everything strictly after it; without one, or
// when the cursor has been evicted from the buffer, it is the tail —
// in the evicted case the response carries resync=true so the client
// can tell it may have missed a gap.
func GetMessagesHandler(messages *services.MessageService, cursors *services.CursorRegistry, tailLimit int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		clientID := c.Query("clientId", "anonymous")
		lastMessageID := c.Query("lastMessageId")

		cursors.Touch(clientID)
		metrics.Inc(metrics.PollRequests)
		metrics.SetPollClients(cursors.Len())

		var out []models.Message
		resync := false
		if lastMessageID != "" {
			var ok bool
			out, ok = messages.Since(lastMessageID)
			if !ok {
				out = messages.Tail(tailLimit)
				resync = true
				metrics.Inc(metrics.PollResyncs)
			}
		} else {
			out = messages.Tail(tailLimit)
		}
		if out == nil {
			out = []models.Message{}
		}

		resp := fiber.Map{
			"messages":      out,
			"totalMessages": messages.Count(),
			"serverTime":    time.Now().UnixMilli(),
		}
		if resync {
			resp["resync"] = true
		}
		return c.JSON(resp)
	}
}

// PostMessageHandler appends a message and pushes it to any connected
// sockets so both transports observe the same log.
func PostMessageHandler(messages *services.MessageService, cursors *services.CursorRegistry, hub *Hub) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.SendMessageRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
		}

		msg, err := messages.Append(req.UserID, req.UserName, req.Content)
		if err != nil {
			if errors.Is(err, services.ErrEmptyContent) || errors.Is(err, services.ErrInvalidMessage) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid message data"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to send message"})
		}

		if req.ClientID != "" {
			cursors.Advance(req.ClientID, msg.ID)
		}
		metrics.Inc(metrics.MessagesAppended)
		metrics.SetBufferSize(messages.Count())

		if hub != nil {
			hub.Broadcast(models.WSEvent{Event: "new-message", Message: &msg})
		}

		return c.JSON(fiber.Map{
			"message":       msg,
			"totalMessages": messages.Count(),
		})
	}
}

// MessageHistoryHandler pages through the buffer oldest-first.
func MessageHistoryHandler(messages *services.MessageService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 50)
		offset := c.QueryInt("offset", 0)
		if limit <= 0 {
			limit = 50
		}
		if offset < 0 {
			offset = 0
		}

		page, total := messages.Range(offset, limit)

		return c.JSON(fiber.Map{
			"messages": page,
			"total":    total,
			"limit":    limit,
			"offset":   offset,
			"hasMore":  offset+limit < total,
		})
	}
}
