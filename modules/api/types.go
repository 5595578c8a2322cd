package api

import (
	"encoding/json"
	"fmt"
)

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Pic      string `json:"pic"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// AccessChatRequest asks for the 1:1 chat with another user. UserID is
// accepted as an alias of TargetUserID.
type AccessChatRequest struct {
	TargetUserID string `json:"targetUserId"`
	UserID       string `json:"userId"`
}

func (r AccessChatRequest) target() string {
	if r.TargetUserID != "" {
		return r.TargetUserID
	}
	return r.UserID
}

// CreateGroupRequest creates a group chat. Users may be a JSON array of IDs
// or a string holding one.
type CreateGroupRequest struct {
	Name    string          `json:"name"`
	UserIDs []string        `json:"userIds"`
	Users   json.RawMessage `json:"users"`
}

func (r CreateGroupRequest) members() ([]string, error) {
	if len(r.UserIDs) > 0 || len(r.Users) == 0 {
		return r.UserIDs, nil
	}

	var ids []string
	if err := json.Unmarshal(r.Users, &ids); err == nil {
		return ids, nil
	}
	var encoded string
	if err := json.Unmarshal(r.Users, &encoded); err != nil {
		return nil, fmt.Errorf("users must be an array of ids")
	}
	if err := json.Unmarshal([]byte(encoded), &ids); err != nil {
		return nil, fmt.Errorf("users must be an array of ids")
	}
	return ids, nil
}

// RenameChatRequest renames a chat. ChatName is accepted as an alias of NewName.
type RenameChatRequest struct {
	ChatID   string `json:"chatId"`
	NewName  string `json:"newName"`
	ChatName string `json:"chatName"`
}

func (r RenameChatRequest) name() string {
	if r.NewName != "" {
		return r.NewName
	}
	return r.ChatName
}

// MemberRequest adds or removes a group member.
type MemberRequest struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}

// SendMessageRequest stores a message.
type SendMessageRequest struct {
	ChatID  string `json:"chatId"`
	Content string `json:"content"`
}

// AuthResponse is the user record returned by register and login.
type AuthResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Pic          string `json:"pic"`
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// TokenResponse represents an authentication token response.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorResponse represents an error response. Stack is omitted in production.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}
