package api

import (
	"github.com/gofiber/fiber/v2"
)

// AccessChat handles POST /chats.
func (h *Handlers) AccessChat(c *fiber.Ctx) error {
	claims, ok := currentUser(c)
	if !ok {
		return unauthorized(c, "User not authenticated")
	}
	var req AccessChatRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	view, err := h.chatAdapter.AccessChat(c.UserContext(), claims.UserID, req.target())
	if err != nil {
		return h.handleError(c, err)
	}
	return c.JSON(view)
}

// ListChats handles GET /chats.
func (h *Handlers) ListChats(c *fiber.Ctx) error {
	claims, ok := currentUser(c)
	if !ok {
		return unauthorized(c, "User not authenticated")
	}

	views, err := h.chatAdapter.ListChats(c.UserContext(), claims.UserID)
	if err != nil {
		return h.handleError(c, err)
	}
	return c.JSON(views)
}

// CreateGroup handles POST /chats/group.
func (h *Handlers) CreateGroup(c *fiber.Ctx) error {
	claims, ok := currentUser(c)
	if !ok {
		return unauthorized(c, "User not authenticated")
	}
	var req CreateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	members, err := req.members()
	if err != nil {
		return badRequest(c, err.Error())
	}

	view, err := h.chatAdapter.CreateGroup(c.UserContext(), claims.UserID, req.Name, members)
	if err != nil {
		return h.handleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(view)
}

// RenameChat handles PUT /chats/rename.
func (h *Handlers) RenameChat(c *fiber.Ctx) error {
	claims, ok := currentUser(c)
	if !ok {
		return unauthorized(c, "User not authenticated")
	}
	var req RenameChatRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	view, err := h.chatAdapter.RenameChat(c.UserContext(), claims.UserID, req.ChatID, req.name())
	if err != nil {
		return h.handleError(c, err)
	}
	return c.JSON(view)
}

// AddMember handles PUT /chats/add.
func (h *Handlers) AddMember(c *fiber.Ctx) error {
	claims, ok := currentUser(c)
	if !ok {
		return unauthorized(c, "User not authenticated")
	}
	var req MemberRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	view, err := h.chatAdapter.AddMember(c.UserContext(), claims.UserID, req.ChatID, req.UserID)
	if err != nil {
		return h.handleError(c, err)
	}
	return c.JSON(view)
}

// RemoveMember handles PUT /chats/remove.
func (h *Handlers) RemoveMember(c *fiber.Ctx) error {
	claims, ok := currentUser(c)
	if !ok {
		return unauthorized(c, "User not authenticated")
	}
	var req MemberRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	view, err := h.chatAdapter.RemoveMember(c.UserContext(), claims.UserID, req.ChatID, req.UserID)
	if err != nil {
		return h.handleError(c, err)
	}
	return c.JSON(view)
}

// SendMessage handles POST /messages. Realtime delivery is left to the
// sending client.
func (h *Handlers) SendMessage(c *fiber.Ctx) error {
	claims, ok := currentUser(c)
	if !ok {
		return unauthorized(c, "User not authenticated")
	}
	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	view, err := h.chatAdapter.SendMessage(c.UserContext(), claims.UserID, req.ChatID, req.Content)
	if err != nil {
		return h.handleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(view)
}

// ListMessages handles GET /messages/:chatId.
func (h *Handlers) ListMessages(c *fiber.Ctx) error {
	claims, ok := currentUser(c)
	if !ok {
		return unauthorized(c, "User not authenticated")
	}

	views, err := h.chatAdapter.ListMessages(c.UserContext(), claims.UserID, c.Params("chatId"))
	if err != nil {
		return h.handleError(c, err)
	}
	return c.JSON(views)
}
