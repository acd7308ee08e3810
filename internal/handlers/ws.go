package handlers

import (
	"log"
	"time"

	"chat-relay/internal/metrics"
	"chat-relay/internal/models"
	"chat-relay/internal/services"
	"chat-relay/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// WebSocketUpgrade gates /ws to real upgrade requests.
func WebSocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		c.Locals("allowed", true)
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// WebSocketHandler runs the push transport. Each connection joins with
// join-chat, then exchanges send-message/new-message events until it
// drops. Delivery is at-most-once: events emitted while a client is
// disconnected are lost, and a reconnecting client gets a fresh
// message-history snapshot on its next join.
func WebSocketHandler(hub *Hub, presence *services.PresenceService, messages *services.MessageService, threshold time.Duration, tailLimit int) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		connID := uuid.NewString()
		hub.Add(connID, c)
		metrics.Inc(metrics.SocketConnects)
		metrics.SetActiveSockets(hub.Len())

		defer func() {
			if user := hub.Remove(connID); user != nil {
				presence.Unregister(user.ID)
				hub.Broadcast(models.WSEvent{
					Event: "users-updated",
					Users: presence.ListOnline(threshold),
				})
			}
			metrics.SetActiveSockets(hub.Len())
			c.Close()
		}()

		for {
			msgType, raw, err := c.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("error: %v", err)
				}
				break
			}
			if msgType != websocket.TextMessage {
				continue
			}

			var ev models.WSEvent
			if err := utils.SafeJSONParse(raw, &ev); err != nil {
				utils.LogError(err, "ws parse")
				continue
			}

			switch ev.Event {
			case "join-chat":
				handleJoinChat(hub, presence, messages, threshold, tailLimit, connID, &ev)
			case "send-message":
				handleSendMessage(hub, presence, messages, connID, &ev)
			default:
				log.Printf("Unknown event: %s", ev.Event)
			}
		}
	})
}

func handleJoinChat(hub *Hub, presence *services.PresenceService, messages *services.MessageService, threshold time.Duration, tailLimit int, connID string, ev *models.WSEvent) {
	name := ev.Name
	if name == "" && ev.User != nil {
		name = ev.User.Name
	}

	// A re-join on the same connection just refreshes the snapshot.
	if current := hub.User(connID); current != nil {
		hub.Send(connID, models.WSEvent{Event: "joined", User: current})
		hub.Send(connID, models.WSEvent{Event: "message-history", Messages: messages.Tail(tailLimit)})
		return
	}

	user, err := presence.Register(name)
	if err != nil {
		hub.Send(connID, models.WSEvent{Event: "error", Error: "Name is required"})
		return
	}

	// Name check and bind are one atomic hub operation; on rejection
	// the registration is rolled back before anyone observed it.
	if !hub.BindIfNameFree(connID, user) {
		presence.Unregister(user.ID)
		metrics.Inc(metrics.SocketRejects)
		hub.Send(connID, models.WSEvent{Event: "username-taken"})
		return
	}
	metrics.Inc(metrics.Logins)

	hub.Send(connID, models.WSEvent{Event: "joined", User: &user})
	hub.Send(connID, models.WSEvent{Event: "message-history", Messages: messages.Tail(tailLimit)})

	online := presence.ListOnline(threshold)
	metrics.SetPresence(presence.Total(), len(online))
	hub.Broadcast(models.WSEvent{Event: "users-updated", Users: online})
}

func handleSendMessage(hub *Hub, presence *services.PresenceService, messages *services.MessageService, connID string, ev *models.WSEvent) {
	user := hub.User(connID)
	if user == nil {
		hub.Send(connID, models.WSEvent{Event: "error", Error: "Join the chat before sending messages"})
		return
	}

	msg, err := messages.Append(user.ID, user.Name, ev.Content)
	if err != nil {
		hub.Send(connID, models.WSEvent{Event: "error", Error: "Invalid message data"})
		return
	}

	// Socket activity counts as liveness.
	if _, err := presence.Heartbeat(user.ID); err != nil {
		utils.LogError(err, "ws heartbeat")
	}

	metrics.Inc(metrics.MessagesAppended)
	metrics.SetBufferSize(messages.Count())
	hub.Broadcast(models.WSEvent{Event: "new-message", Message: &msg})
}
