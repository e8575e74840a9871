package di

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/lanyu617/next-chat/internal/auth"
	authconfig "github.com/lanyu617/next-chat/internal/auth/config"
	"github.com/lanyu617/next-chat/internal/chat"
	chatconfig "github.com/lanyu617/next-chat/internal/chat/config"
	"github.com/lanyu617/next-chat/internal/shared/database"
	"github.com/lanyu617/next-chat/internal/shared/logger"
)

// Container represents a dependency injection container with proper lifecycle management
type Container struct {
	mu        sync.RWMutex
	services  map[reflect.Type]interface{}
	factories map[reflect.Type]func() (interface{}, error)
	// Module instances
	AuthModule *auth.AuthModule
	ChatModule *chat.ChatModule
	// Infrastructure
	Postgres *database.Postgres
	Redis    *redis.Client
	// Configuration
	AuthConfig *authconfig.Config
	ChatConfig *chatconfig.Config
	// Logger
	Logger logger.Logger
}

// NewContainer creates a new DI container
func NewContainer(log logger.Logger) *Container {
	return &Container{
		services:  make(map[reflect.Type]interface{}),
		factories: make(map[reflect.Type]func() (interface{}, error)),
		Logger:    log,
	}
}

// InitializeDatabase opens the connection pool and applies pending migrations.
func (c *Container) InitializeDatabase(ctx context.Context, dsn string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	pg, err := database.NewPostgres(ctx, dsn, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pg.RunMigrations(ctx); err != nil {
		pg.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	c.Postgres = pg
	return nil
}

// InitializeAuth initializes the authentication module
func (c *Container) InitializeAuth(cfg *authconfig.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Postgres == nil {
		return fmt.Errorf("database must be initialized before auth module")
	}

	c.AuthConfig = cfg

	authModule, err := auth.NewAuthModule(c.Postgres.Conn(), cfg, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to create auth module: %w", err)
	}

	c.AuthModule = authModule
	return nil
}

// InitializeChat initializes the chat module with session cache support
func (c *Container) InitializeChat(cfg *chatconfig.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Postgres == nil {
		return fmt.Errorf("database must be initialized before chat module")
	}
	if c.AuthModule == nil {
		return fmt.Errorf("auth module must be initialized before chat module")
	}

	c.ChatConfig = cfg
	c.Redis = chatconfig.NewRedisClient(cfg)

	c.ChatModule = chat.NewChatModule(c.Postgres.Conn(), c.Redis, cfg, c.Logger)
	return nil
}

// Register registers a service instance
func (c *Container) Register(service interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	serviceType := reflect.TypeOf(service)
	if serviceType.Kind() == reflect.Ptr {
		serviceType = serviceType.Elem()
	}

	c.services[serviceType] = service
	return nil
}

// Resolve resolves a service by type
func (c *Container) Resolve(serviceType reflect.Type) (interface{}, error) {
	c.mu.RLock()

	if service, exists := c.services[serviceType]; exists {
		c.mu.RUnlock()
		return service, nil
	}

	if factory, exists := c.factories[serviceType]; exists {
		c.mu.RUnlock()

		service, err := factory()
		if err != nil {
			return nil, fmt.Errorf("failed to create service: %w", err)
		}

		c.mu.Lock()
		c.services[serviceType] = service
		c.mu.Unlock()

		return service, nil
	}

	c.mu.RUnlock()
	return nil, fmt.Errorf("service of type %v not registered", serviceType)
}

// GetService is a generic helper for resolving services
func GetService[T any](c *Container) (T, error) {
	var zero T
	serviceType := reflect.TypeOf(zero)

	service, err := c.Resolve(serviceType)
	if err != nil {
		return zero, err
	}

	if typedService, ok := service.(T); ok {
		return typedService, nil
	}

	return zero, fmt.Errorf("service is not of expected type %T", zero)
}

// GetAuthModule returns the auth module instance
func (c *Container) GetAuthModule() *auth.AuthModule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.AuthModule
}

// GetChatModule returns the chat module instance
func (c *Container) GetChatModule() *chat.ChatModule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ChatModule
}

// HealthCheck performs health check on the container's infrastructure
func (c *Container) HealthCheck(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.Postgres != nil {
		if err := c.Postgres.HealthCheck(ctx); err != nil {
			return fmt.Errorf("postgres health check failed: %w", err)
		}
	}

	// Redis is an optional cache; an unreachable Redis degrades performance
	// but does not make the service unhealthy.
	if c.Redis != nil {
		if err := c.Redis.Ping(ctx).Err(); err != nil {
			c.Logger.WithError(err).Warn("Redis unreachable, session cache degraded")
		}
	}

	return nil
}

// Close tears down the container's resources in reverse dependency order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ChatModule != nil {
		c.ChatModule.StopReconciler()
	}

	var firstErr error
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close redis client: %w", err)
		}
	}
	if c.Postgres != nil {
		if err := c.Postgres.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close database: %w", err)
		}
	}
	return firstErr
}
