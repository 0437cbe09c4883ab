package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IlyaM70/JustMessanger/internal/config"
	"github.com/IlyaM70/JustMessanger/internal/database"
	"github.com/IlyaM70/JustMessanger/internal/handler"
	"github.com/IlyaM70/JustMessanger/internal/mailer"
	"github.com/IlyaM70/JustMessanger/internal/middleware"
	"github.com/IlyaM70/JustMessanger/internal/repository"
	"github.com/IlyaM70/JustMessanger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg := config.Load()

	// Database
	db, err := database.NewPool(context.Background(), cfg.AuthDatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(context.Background(), db, "auth"); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations applied successfully")

	// Repositories
	userRepo := repository.NewUserRepository(db)
	confirmationRepo := repository.NewConfirmationRepository(db)

	// Services
	authSvc := service.NewAuthService(userRepo, confirmationRepo, mailer.NewLogMailer(),
		cfg.JWTSecret, cfg.TokenTTL, cfg.RequireConfirmedEmail)

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

	// Auth API
	authH := handler.NewAuthHandler(authSvc)
	auth := app.Group("/api/auth")
	auth.Post("/register", middleware.RateLimit(5, time.Minute), authH.Register)
	auth.Post("/login", middleware.RateLimit(10, time.Minute), authH.Login)
	auth.Get("/confirmemail", authH.ConfirmEmail)
	auth.Get("/userexist/:userId", authH.UserExist)
	auth.Post("/fillcontacts", authH.FillContacts)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(":" + cfg.AuthPort); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Printf("Auth service running on :%s (%s)", cfg.AuthPort, cfg.Env)

	<-quit
	log.Println("Shutting down...")
	_ = app.ShutdownWithTimeout(5 * time.Second)
	log.Println("Server stopped")
}
