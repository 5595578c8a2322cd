package api

import (
	"github.com/example/realtime-chat/modules/auth"
	"github.com/example/realtime-chat/modules/chat"
	"github.com/gofiber/fiber/v2"
)

// defaultSearchLimit caps GET /users results.
const defaultSearchLimit = 50

// Handlers contains the REST handlers.
type Handlers struct {
	authAdapter auth.AuthPort
	chatAdapter chat.ChatPort
	production  bool
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(authAdapter auth.AuthPort, chatAdapter chat.ChatPort, production bool) *Handlers {
	return &Handlers{
		authAdapter: authAdapter,
		chatAdapter: chatAdapter,
		production:  production,
	}
}

// Register handles POST /users.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	session, err := h.authAdapter.Register(c.UserContext(), auth.RegisterRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Pic:      req.Pic,
	})
	if err != nil {
		return h.handleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(authResponse(session))
}

// Login handles POST /users/login.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	session, err := h.authAdapter.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(authResponse(session))
}

// Refresh handles POST /users/refresh.
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.RefreshToken == "" {
		return badRequest(c, "Refresh token is required")
	}

	tokens, err := h.authAdapter.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return unauthorized(c, "Invalid or expired refresh token")
	}

	return c.JSON(TokenResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
		TokenType:    tokens.TokenType,
	})
}

// SearchUsers handles GET /users?search=. An empty query lists everyone but
// the caller.
func (h *Handlers) SearchUsers(c *fiber.Ctx) error {
	claims, ok := currentUser(c)
	if !ok {
		return unauthorized(c, "User not authenticated")
	}

	users, err := h.authAdapter.SearchUsers(c.UserContext(), claims.UserID, c.Query("search"), c.QueryInt("limit", defaultSearchLimit))
	if err != nil {
		return h.handleError(c, err)
	}
	return c.JSON(users)
}

func authResponse(session *auth.SessionResponse) AuthResponse {
	return AuthResponse{
		ID:           session.User.ID,
		Name:         session.User.Name,
		Email:        session.User.Email,
		Pic:          session.User.Pic,
		Token:        session.Tokens.AccessToken,
		RefreshToken: session.Tokens.RefreshToken,
		ExpiresIn:    session.Tokens.ExpiresIn,
		TokenType:    session.Tokens.TokenType,
	}
}
