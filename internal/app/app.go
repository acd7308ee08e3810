package app

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-relay/internal/handlers"
	"chat-relay/internal/metrics"
	"chat-relay/internal/services"
	"chat-relay/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Run() {
	// Load Env
	if err := utils.LoadEnv(); err != nil {
		log.Println("Warning: .env file not found")
	}

	metrics.Init()

	// One threshold shared by every presence read.
	threshold := utils.GetEnvDuration("ONLINE_THRESHOLD_MS", 30*time.Second)
	messageCap := utils.GetEnvInt("MESSAGE_CAP", services.DefaultMessageCap)
	tailLimit := utils.GetEnvInt("POLL_TAIL_LIMIT", services.DefaultTailLimit)
	cursorTTL := utils.GetEnvDuration("CURSOR_TTL_MS", services.DefaultCursorTTL)

	// Services
	presence := services.NewPresenceService()
	messages := services.NewMessageService(messageCap)
	cursors := services.NewCursorRegistry(cursorTTL)
	hub := handlers.NewHub()
	startedAt := time.Now()

	// Fiber App
	app := fiber.New()

	// Middleware
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	// Routes
	api := app.Group("/api")

	api.Post("/auth/login", handlers.LoginHandler(presence, hub, threshold))
	api.Post("/auth/logout", handlers.LogoutHandler(presence, hub, threshold))

	api.Post("/users/heartbeat", handlers.HeartbeatHandler(presence))
	api.Get("/users/online", handlers.OnlineUsersHandler(presence, threshold))
	api.Get("/users/stats", handlers.StatsHandler(presence, threshold, startedAt))

	api.Get("/messages", handlers.GetMessagesHandler(messages, cursors, tailLimit))
	api.Post("/messages", handlers.PostMessageHandler(messages, cursors, hub))
	api.Get("/messages/history", handlers.MessageHistoryHandler(messages))

	api.Get("/debug/users", handlers.DebugUsersHandler(presence, cursors))

	// Health Check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Prometheus
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// WebSocket Route
	app.Use("/ws", handlers.WebSocketUpgrade)
	app.Get("/ws", handlers.WebSocketHandler(hub, presence, messages, threshold, tailLimit))

	// Start Server
	port := utils.GetEnv("PORT", "3000")
	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	// Graceful Shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c // Block until signal
	log.Println("Gracefully shutting down...")
	_ = app.Shutdown()
	log.Println("Server shutdown complete")
}
