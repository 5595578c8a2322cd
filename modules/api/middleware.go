package api

import (
	"strings"

	domain "github.com/example/realtime-chat/domain/user"
	"github.com/example/realtime-chat/modules/auth"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

const (
	// UserContextKey is the key used to store user claims in the Fiber context.
	UserContextKey = "user"
)

// AuthMiddleware creates a middleware that validates bearer tokens.
func AuthMiddleware(authAdapter auth.AuthPort) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return unauthorized(c, "Authorization header is required")
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return unauthorized(c, "Invalid authorization header format. Use: Bearer <token>")
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" {
			return unauthorized(c, "Token is required")
		}

		claims, err := authAdapter.ValidateToken(c.UserContext(), token)
		if err != nil {
			return unauthorized(c, "Not authorized, token failed")
		}

		c.Locals(UserContextKey, claims)
		return c.Next()
	}
}

// WebSocketAuth guards the websocket upgrade. When requireAuth is set the
// upgrade must carry a valid access token in the token query parameter.
func WebSocketAuth(authAdapter auth.AuthPort, requireAuth bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		if !requireAuth {
			return c.Next()
		}

		token := c.Query("token")
		if token == "" {
			return unauthorized(c, "Token is required")
		}
		claims, err := authAdapter.ValidateToken(c.UserContext(), token)
		if err != nil {
			return unauthorized(c, "Not authorized, token failed")
		}

		c.Locals(UserContextKey, claims)
		return c.Next()
	}
}

// currentUser returns the claims stored by AuthMiddleware.
func currentUser(c *fiber.Ctx) (*domain.Claims, bool) {
	claims, ok := c.Locals(UserContextKey).(*domain.Claims)
	return claims, ok && claims != nil
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
		Error:   "unauthorized",
		Message: message,
	})
}
