package api

import (
	"errors"
	"log"

	"github.com/example/realtime-chat/modules/auth"
	"github.com/example/realtime-chat/modules/chat"
	"github.com/gofiber/fiber/v2"
)

type errorRule struct {
	err    error
	status int
	code   string
}

// errorRules maps domain errors to responses. The adapters restore sentinel
// errors from replies, so rules match with errors.Is only. More specific rules
// come first; the bare ErrForbidden rule is checked last.
var errorRules = []errorRule{
	{auth.ErrInvalidCredentials, fiber.StatusUnauthorized, "unauthorized"},
	{auth.ErrExpiredToken, fiber.StatusUnauthorized, "unauthorized"},
	{auth.ErrInvalidToken, fiber.StatusUnauthorized, "unauthorized"},

	{auth.ErrUserExists, fiber.StatusBadRequest, "conflict"},

	{auth.ErrMissingFields, fiber.StatusBadRequest, "validation_error"},
	{auth.ErrInvalidEmail, fiber.StatusBadRequest, "validation_error"},
	{auth.ErrWeakPassword, fiber.StatusBadRequest, "validation_error"},
	{auth.ErrPasswordTooLong, fiber.StatusBadRequest, "validation_error"},
	{chat.ErrMissingFields, fiber.StatusBadRequest, "validation_error"},
	{chat.ErrSelfChat, fiber.StatusBadRequest, "validation_error"},
	{chat.ErrGroupTooSmall, fiber.StatusBadRequest, "validation_error"},
	{chat.ErrChatNameTooLong, fiber.StatusBadRequest, "validation_error"},
	{chat.ErrMessageTooLong, fiber.StatusBadRequest, "validation_error"},
	{chat.ErrMessageInvalid, fiber.StatusBadRequest, "validation_error"},
	{chat.ErrNotGroupChat, fiber.StatusBadRequest, "validation_error"},

	{chat.ErrNotMember, fiber.StatusForbidden, "forbidden"},
	{chat.ErrNotAdmin, fiber.StatusForbidden, "forbidden"},
	{chat.ErrRemoveNotAllowed, fiber.StatusForbidden, "forbidden"},

	{chat.ErrChatNotFound, fiber.StatusNotFound, "not_found"},
	{chat.ErrUserNotFound, fiber.StatusNotFound, "not_found"},
	{auth.ErrUserNotFound, fiber.StatusNotFound, "not_found"},

	{chat.ErrForbidden, fiber.StatusForbidden, "forbidden"},
}

// classify returns the rule matching err, or nil for internal errors.
func classify(err error) *errorRule {
	for i := range errorRules {
		rule := &errorRules[i]
		if errors.Is(err, rule.err) {
			return rule
		}
	}
	return nil
}

// handleError writes the response for a failed operation. Internal errors
// are logged and answered with a generic message.
func (h *Handlers) handleError(c *fiber.Ctx, err error) error {
	resp := ErrorResponse{}
	if !h.production {
		resp.Stack = err.Error()
	}

	rule := classify(err)
	if rule == nil {
		log.Printf("[api] Internal error: %v", err)
		resp.Error = "internal_error"
		resp.Message = "An internal error occurred"
		return c.Status(fiber.StatusInternalServerError).JSON(resp)
	}

	resp.Error = rule.code
	resp.Message = rule.err.Error()
	return c.Status(rule.status).JSON(resp)
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "bad_request",
		Message: message,
	})
}
