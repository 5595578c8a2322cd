package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-monolith/mono"
	"github.com/redis/go-redis/v9"
)

// Config holds the Redis connection and cache settings.
type Config struct {
	RedisAddr     string
	RedisPassword string
	Prefix        string
	TTL           time.Duration
}

// Module owns the Redis client shared by the cache and the rate limiter.
type Module struct {
	config Config
	client *redis.Client
	cache  *Cache
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates the Redis client. No connection is made until Start.
func NewModule(config Config) *Module {
	client := redis.NewClient(&redis.Options{
		Addr:         config.RedisAddr,
		Password:     config.RedisPassword,
		PoolSize:     50,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return &Module{
		config: config,
		client: client,
		cache:  New(client, config.Prefix, config.TTL),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "cache"
}

// Start verifies the Redis connection.
func (m *Module) Start(ctx context.Context) error {
	if err := m.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis at %s: %w", m.config.RedisAddr, err)
	}
	log.Printf("[cache] Connected to Redis at %s (prefix: %s, TTL: %s)", m.config.RedisAddr, m.config.Prefix, m.config.TTL)
	return nil
}

// Stop closes the Redis connection.
func (m *Module) Stop(_ context.Context) error {
	if err := m.client.Close(); err != nil {
		log.Printf("[cache] Error closing Redis connection: %v", err)
		return fmt.Errorf("failed to close Redis connection: %w", err)
	}
	log.Println("[cache] Module stopped")
	return nil
}

// Health reports Redis reachability and cache counters.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if err := m.cache.Ping(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("redis ping failed: %v", err),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"redis": m.config.RedisAddr,
			"stats": m.cache.GetStats(),
		},
	}
}

// Cache returns the cache instance.
func (m *Module) Cache() *Cache {
	return m.cache
}

// Client returns the underlying Redis client.
func (m *Module) Client() *redis.Client {
	return m.client
}
