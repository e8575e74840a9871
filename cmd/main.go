package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	authconfig "github.com/lanyu617/next-chat/internal/auth/config"
	chatconfig "github.com/lanyu617/next-chat/internal/chat/config"
	"github.com/lanyu617/next-chat/internal/di"
	sharederrors "github.com/lanyu617/next-chat/internal/shared/errors"
	"github.com/lanyu617/next-chat/internal/shared/logger"
)

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string   `env:"SERVER_HOST" envDefault:"localhost"`
	Port           string   `env:"SERVER_PORT" envDefault:"8080"`
	DatabaseURL    string   `env:"DATABASE_URL,required"`
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	serverCfg := &ServerConfig{}
	if err := env.Parse(serverCfg); err != nil {
		log.Fatalf("Failed to load server configuration: %v", err)
	}

	appLogger := logger.NewLogger()
	appLogger.Info("Application configuration loaded successfully")

	container := di.NewContainer(appLogger)
	defer func() {
		if err := container.Close(); err != nil {
			appLogger.Errorf("Failed to close container: %v", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := container.InitializeDatabase(ctx, serverCfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	appLogger.Info("Database connection established and migrations applied")

	authCfg, err := authconfig.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load auth configuration: %v", err)
	}
	if err := container.InitializeAuth(authCfg); err != nil {
		log.Fatalf("Failed to initialize auth module: %v", err)
	}
	appLogger.Info("Auth module initialized successfully")

	chatCfg, err := chatconfig.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load chat configuration: %v", err)
	}
	if err := container.InitializeChat(chatCfg); err != nil {
		log.Fatalf("Failed to initialize chat module: %v", err)
	}
	appLogger.Info("Chat module initialized successfully")

	app := fiber.New(fiber.Config{
		AppName:                 "Next Chat API v1.0",
		ReadTimeout:             30 * time.Second,
		IdleTimeout:             60 * time.Second,
		EnableTrustedProxyCheck: len(serverCfg.TrustedProxies) > 0,
		TrustedProxies:          serverCfg.TrustedProxies,
		ErrorHandler:            sharederrors.ErrorHandler,
	})

	authModule := container.GetAuthModule()
	chatModule := container.GetChatModule()
	middleware := authModule.GetMiddleware()

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.CORS())
	app.Use(middleware.SecurityHeaders())

	app.Get("/health", func(c *fiber.Ctx) error {
		healthCtx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
		defer cancel()

		if err := container.HealthCheck(healthCtx); err != nil {
			appLogger.Errorf("Health check failed: %v", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "UNHEALTHY",
				"error":  err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"status":    "HEALTHY",
			"timestamp": time.Now().UTC(),
		})
	})

	// Public auth endpoints, rate limited per client IP
	authGroup := app.Group("/api/auth", middleware.RateLimiter())
	authModule.RegisterRoutes(authGroup)

	// Everything else under /api requires an authenticated identity
	apiGroup := app.Group("/api", middleware.Protect())
	chatModule.RegisterRoutes(apiGroup)

	if err := chatModule.StartReconciler(); err != nil {
		log.Fatalf("Failed to start reconciler: %v", err)
	}

	serverAddr := fmt.Sprintf("%s:%s", serverCfg.Host, serverCfg.Port)
	appLogger.Infof("All modules initialized. Starting HTTP server on %s", serverAddr)

	serverShutdown := make(chan error, 1)
	go func() {
		serverShutdown <- app.Listen(serverAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverShutdown:
		if err != nil {
			appLogger.Errorf("Server failed to start: %v", err)
			log.Fatalf("Server startup failed: %v", err)
		}
	case sig := <-quit:
		appLogger.Infof("Received shutdown signal: %v", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			appLogger.Errorf("Server forced to shutdown: %v", err)
		}

		appLogger.Info("HTTP server stopped")
	}
}
