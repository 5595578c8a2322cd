package auth

import (
	domain "github.com/example/realtime-chat/domain/user"
)

// Service names registered by the auth module.
const (
	ServiceRegister      = "register"
	ServiceLogin         = "login"
	ServiceRefreshToken  = "refresh-token"
	ServiceValidateToken = "validate-token"
	ServiceGetUser       = "get-user"
	ServiceGetUsers      = "get-users"
	ServiceSearchUsers   = "search-users"
)

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Pic      string `json:"pic,omitempty"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is returned by register and login: the profile plus tokens.
type SessionResponse struct {
	User   domain.Profile   `json:"user"`
	Tokens domain.TokenPair `json:"tokens"`
	Error  string           `json:"error,omitempty"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshResponse represents a token refresh response.
type RefreshResponse struct {
	Tokens domain.TokenPair `json:"tokens"`
	Error  string           `json:"error,omitempty"`
}

// ValidateTokenRequest represents a token validation request.
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateTokenResponse represents a token validation response.
type ValidateTokenResponse struct {
	Valid  bool   `json:"valid"`
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	Error  string `json:"error,omitempty"`
}

// GetUserRequest represents a get user request.
type GetUserRequest struct {
	UserID string `json:"user_id"`
}

// GetUserResponse represents a get user response.
type GetUserResponse struct {
	User  domain.Profile `json:"user"`
	Error string         `json:"error,omitempty"`
}

// GetUsersRequest asks for the profiles of several users.
type GetUsersRequest struct {
	UserIDs []string `json:"user_ids"`
}

// GetUsersResponse holds the profiles that were found.
type GetUsersResponse struct {
	Users []domain.Profile `json:"users"`
	Error string           `json:"error,omitempty"`
}

// SearchUsersRequest represents a user search by name or email.
type SearchUsersRequest struct {
	CallerID string `json:"caller_id"`
	Query    string `json:"query"`
	Limit    int    `json:"limit,omitempty"`
}

// SearchUsersResponse holds the matching profiles.
type SearchUsersResponse struct {
	Users []domain.Profile `json:"users"`
	Error string           `json:"error,omitempty"`
}
