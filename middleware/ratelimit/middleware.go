package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// maxClientIDLength limits client ID length in Redis keys.
const maxClientIDLength = 128

// Middleware owns the Redis connection used for rate limiting and produces
// Fiber handlers that enforce per-client, per-route limits.
type Middleware struct {
	name    string
	config  Config
	client  *redis.Client
	limiter atomic.Pointer[Limiter]
	logger  *slog.Logger
}

// Compile-time interface checks
var _ mono.Module = (*Middleware)(nil)
var _ mono.HealthCheckableModule = (*Middleware)(nil)

// RateLimitError is the body of a 429 response.
type RateLimitError struct {
	Message   string    `json:"error"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
	Limit     int       `json:"limit"`
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// New creates a new rate limiting middleware.
func New(opts ...Option) *Middleware {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	return &Middleware{
		name:   "rate-limit",
		config: config,
		logger: slog.Default(),
	}
}

// Name returns the middleware name.
func (m *Middleware) Name() string {
	return m.name
}

// Start initializes the Redis connection.
func (m *Middleware) Start(ctx context.Context) error {
	m.client = redis.NewClient(&redis.Options{
		Addr:         m.config.RedisAddr,
		Password:     m.config.RedisPassword,
		DB:           m.config.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	if err := m.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis at %s: %w", m.config.RedisAddr, err)
	}

	m.limiter.Store(NewLimiter(m.client, m.config.KeyPrefix))
	m.logger.Info("Rate limiting middleware started",
		"redis", m.config.RedisAddr,
		"default_limit", m.config.DefaultLimit,
		"default_window", m.config.DefaultWindow)

	return nil
}

// Stop closes the Redis connection.
func (m *Middleware) Stop(_ context.Context) error {
	m.limiter.Store(nil)
	if m.client != nil {
		if err := m.client.Close(); err != nil {
			m.logger.Error("Failed to close Redis connection", "error", err)
			return err
		}
	}
	m.logger.Info("Rate limiting middleware stopped")
	return nil
}

// Health reports whether Redis answers.
func (m *Middleware) Health(ctx context.Context) mono.HealthStatus {
	if m.client == nil {
		return mono.HealthStatus{Healthy: false, Message: "redis client not initialized"}
	}
	if err := m.client.Ping(ctx).Err(); err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("redis ping failed: %v", err)}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"default_limit":  m.config.DefaultLimit,
			"default_window": m.config.DefaultWindow.String(),
		},
	}
}

// Limiter returns the active limiter, or nil before Start.
func (m *Middleware) Limiter() *Limiter {
	return m.limiter.Load()
}

// Handler enforces the limit configured for route, keyed by client IP.
// Requests pass through when Redis is unavailable.
func (m *Middleware) Handler(route string) fiber.Handler {
	limit, window := m.limitFor(route)

	return func(c *fiber.Ctx) error {
		limiter := m.limiter.Load()
		if limiter == nil {
			return c.Next()
		}

		clientID := m.clientID(c)
		key := route + ":" + clientID

		result, err := limiter.Allow(c.UserContext(), key, limit, window)
		if err != nil {
			m.logger.Error("Rate limit check failed",
				"route", route,
				"client_id", clientID,
				"error", err)
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			m.logger.Warn("Rate limit exceeded",
				"route", route,
				"client_id", clientID,
				"limit", result.Limit,
				"reset_at", result.ResetAt)

			retryAfter := int(time.Until(result.ResetAt).Seconds()) + 1
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
			return c.Status(fiber.StatusTooManyRequests).JSON(&RateLimitError{
				Message:   fmt.Sprintf("rate limit exceeded for %s", route),
				Remaining: result.Remaining,
				ResetAt:   result.ResetAt,
				Limit:     result.Limit,
			})
		}

		return c.Next()
	}
}

func (m *Middleware) limitFor(route string) (int, time.Duration) {
	if routeLimit, ok := m.config.RouteLimits[route]; ok {
		return routeLimit.Limit, routeLimit.Window
	}
	return m.config.DefaultLimit, m.config.DefaultWindow
}

func (m *Middleware) clientID(c *fiber.Ctx) string {
	clientID := c.IP()
	if clientID == "" {
		return m.config.FallbackClientID
	}
	if len(clientID) > maxClientIDLength {
		clientID = clientID[:maxClientIDLength]
	}
	return clientID
}
