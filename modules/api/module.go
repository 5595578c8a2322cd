package api

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/example/realtime-chat/middleware/ratelimit"
	"github.com/example/realtime-chat/modules/auth"
	"github.com/example/realtime-chat/modules/chat"
	"github.com/example/realtime-chat/modules/realtime"
	"github.com/go-monolith/mono"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Route names used for rate limiting.
const (
	RouteRegister = "register"
	RouteLogin    = "login"
)

// Config holds the HTTP server settings.
type Config struct {
	Port               string
	Production         bool
	CORSAllowedOrigins string
	WSRequireAuth      bool
}

// APIModule is the REST gateway and websocket transport.
type APIModule struct {
	config      Config
	app         *fiber.App
	authAdapter auth.AuthPort
	chatAdapter chat.ChatPort
	hub         *realtime.Hub
	rateLimiter *ratelimit.Middleware
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule.
func NewModule(config Config) *APIModule {
	if config.Port == "" {
		config.Port = "3000"
	}
	return &APIModule{
		config: config,
	}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"auth", "chat"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.authAdapter = auth.NewAuthAdapter(container)
	case "chat":
		m.chatAdapter = chat.NewChatAdapter(container)
	}
}

// SetHub sets the realtime hub (called from main.go).
func (m *APIModule) SetHub(hub *realtime.Hub) {
	m.hub = hub
}

// SetRateLimiter enables rate limiting of register and login (called from main.go).
func (m *APIModule) SetRateLimiter(rl *ratelimit.Middleware) {
	m.rateLimiter = rl
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	if m.authAdapter == nil {
		return fmt.Errorf("auth dependency not set")
	}
	if m.chatAdapter == nil {
		return fmt.Errorf("chat dependency not set")
	}
	if m.hub == nil {
		return fmt.Errorf("realtime hub dependency not set")
	}

	m.app = m.newApp()

	go func() {
		if err := m.app.Listen(":" + m.config.Port); err != nil {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()

	log.Printf("[api] HTTP server started on :%s (websocket auth required: %v)", m.config.Port, m.config.WSRequireAuth)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(_ context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	return m.app.Shutdown()
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	details := map[string]any{
		"port":         m.config.Port,
		"rate_limited": m.rateLimiter != nil,
	}
	if m.hub != nil {
		details["connected_clients"] = m.hub.ClientCount()
	}
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: details,
	}
}

// newApp builds the Fiber app with middleware and routes.
func (m *APIModule) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          60 * time.Second,
		IdleTimeout:           120 * time.Second,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
		Next: func(c *fiber.Ctx) bool {
			return websocket.IsWebSocketUpgrade(c)
		},
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: m.allowedOrigins(),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	m.setupRoutes(app)
	return app
}

// setupRoutes configures all routes.
func (m *APIModule) setupRoutes(app *fiber.App) {
	handlers := NewHandlers(m.authAdapter, m.chatAdapter, m.config.Production)
	ws := NewWebSocketHandler(m.hub)

	app.Get("/health", m.healthHandler)

	app.Use("/ws", WebSocketAuth(m.authAdapter, m.config.WSRequireAuth))
	app.Get("/ws", websocket.New(ws.Handle))

	v1 := app.Group("/api/v1")

	// Public routes
	v1.Post("/users", m.limit(RouteRegister), handlers.Register)
	v1.Post("/users/login", m.limit(RouteLogin), handlers.Login)
	v1.Post("/users/refresh", handlers.Refresh)

	// Protected routes
	protected := v1.Group("", AuthMiddleware(m.authAdapter))
	protected.Get("/users", handlers.SearchUsers)

	protected.Post("/chats", handlers.AccessChat)
	protected.Get("/chats", handlers.ListChats)
	protected.Post("/chats/group", handlers.CreateGroup)
	protected.Put("/chats/rename", handlers.RenameChat)
	protected.Put("/chats/add", handlers.AddMember)
	protected.Put("/chats/remove", handlers.RemoveMember)

	protected.Post("/messages", handlers.SendMessage)
	protected.Get("/messages/:chatId", handlers.ListMessages)

	app.Use(notFound)
}

// limit returns the rate limit handler for route, or a pass-through when
// rate limiting is disabled.
func (m *APIModule) limit(route string) fiber.Handler {
	if m.rateLimiter == nil {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return m.rateLimiter.Handler(route)
}

func (m *APIModule) allowedOrigins() string {
	origins := strings.TrimSpace(m.config.CORSAllowedOrigins)
	if origins == "" {
		return "*"
	}
	return origins
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module":            "api",
			"connected_clients": m.hub.ClientCount(),
			"active_rooms":      m.hub.RoomCount(),
		},
	})
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
		Error:   "not_found",
		Message: "Not Found - " + c.OriginalURL(),
	})
}

// customErrorHandler handles Fiber errors.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}
