package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IlyaM70/JustMessanger/internal/authclient"
	"github.com/IlyaM70/JustMessanger/internal/config"
	"github.com/IlyaM70/JustMessanger/internal/database"
	"github.com/IlyaM70/JustMessanger/internal/handler"
	"github.com/IlyaM70/JustMessanger/internal/middleware"
	"github.com/IlyaM70/JustMessanger/internal/repository"
	"github.com/IlyaM70/JustMessanger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg := config.Load()

	// Database
	db, err := database.NewPool(context.Background(), cfg.MessageDatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(context.Background(), db, "message"); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations applied successfully")

	// Wiring: store, hub, authorization client, relay
	messageRepo := repository.NewMessageRepository(db)
	wsHub := service.NewWSHub()
	authClient := authclient.New(cfg.AuthServiceURL)
	relay := service.NewRelay(messageRepo, authClient, wsHub)

	// Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
		BodyLimit:    1 * 1024 * 1024, // 1MB
	})

	app.Use(recover.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS())

	// Health
	healthH := handler.NewHealthHandler(db)
	app.Get("/health", healthH.Health)
	app.Get("/ready", healthH.Ready)

	// Message API (JWT-protected)
	messageH := handler.NewMessageHandler(relay)
	messages := app.Group("/api/message", middleware.Auth(cfg.JWTSecret))
	messages.Post("/send", messageH.Send)
	messages.Get("/history", messageH.GetHistory)
	messages.Get("/contacts", messageH.GetContacts)

	// WebSocket
	wsH := handler.NewWSHandler(wsHub, cfg.JWTSecret)
	app.Get("/ws", wsH.Upgrade)

	// Start hub
	go wsHub.Run()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(":" + cfg.MessagePort); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Printf("Message service running on :%s (%s)", cfg.MessagePort, cfg.Env)

	<-quit
	log.Println("Shutting down...")
	_ = app.ShutdownWithTimeout(5 * time.Second)
	wsHub.Shutdown()
	log.Println("Server stopped")
}
