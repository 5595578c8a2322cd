package auth

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/realtime-chat/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AuthPort defines the identity operations other modules depend on.
type AuthPort interface {
	Register(ctx context.Context, req RegisterRequest) (*SessionResponse, error)
	Login(ctx context.Context, email, password string) (*SessionResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	ValidateToken(ctx context.Context, token string) (*domain.Claims, error)
	GetUser(ctx context.Context, userID string) (*domain.Profile, error)
	GetUsers(ctx context.Context, userIDs []string) ([]domain.Profile, error)
	SearchUsers(ctx context.Context, callerID, query string, limit int) ([]domain.Profile, error)
}

// AuthAdapter implements AuthPort using the service container.
type AuthAdapter struct {
	container mono.ServiceContainer
}

var _ AuthPort = (*AuthAdapter)(nil)

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	if container == nil {
		panic("auth: ServiceContainer is nil")
	}
	return &AuthAdapter{
		container: container,
	}
}

// Register creates an account.
func (a *AuthAdapter) Register(ctx context.Context, req RegisterRequest) (*SessionResponse, error) {
	var resp SessionResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceRegister,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s request failed: %w", ServiceRegister, err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%s request failed: %w", ServiceRegister, remoteError(resp.Error))
	}
	return &resp, nil
}

// Login authenticates with email and password.
func (a *AuthAdapter) Login(ctx context.Context, email, password string) (*SessionResponse, error) {
	req := LoginRequest{Email: email, Password: password}
	var resp SessionResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceLogin,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s request failed: %w", ServiceLogin, err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%s request failed: %w", ServiceLogin, remoteError(resp.Error))
	}
	return &resp, nil
}

// Refresh exchanges a refresh token for a new pair.
func (a *AuthAdapter) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	req := RefreshRequest{RefreshToken: refreshToken}
	var resp RefreshResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceRefreshToken,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s request failed: %w", ServiceRefreshToken, err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%s request failed: %w", ServiceRefreshToken, remoteError(resp.Error))
	}
	return &resp.Tokens, nil
}

// ValidateToken validates an access token and returns claims.
func (a *AuthAdapter) ValidateToken(ctx context.Context, token string) (*domain.Claims, error) {
	req := ValidateTokenRequest{Token: token}
	var resp ValidateTokenResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceValidateToken,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s request failed: %w", ServiceValidateToken, err)
	}
	if !resp.Valid {
		return nil, fmt.Errorf("token validation failed: %w", remoteError(resp.Error))
	}
	return &domain.Claims{
		UserID: resp.UserID,
		Email:  resp.Email,
		Name:   resp.Name,
	}, nil
}

// GetUser retrieves a profile by ID.
func (a *AuthAdapter) GetUser(ctx context.Context, userID string) (*domain.Profile, error) {
	req := GetUserRequest{UserID: userID}
	var resp GetUserResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGetUser,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s request failed: %w", ServiceGetUser, err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%s request failed: %w", ServiceGetUser, remoteError(resp.Error))
	}
	return &resp.User, nil
}

// GetUsers retrieves the profiles of the known ids.
func (a *AuthAdapter) GetUsers(ctx context.Context, userIDs []string) ([]domain.Profile, error) {
	req := GetUsersRequest{UserIDs: userIDs}
	var resp GetUsersResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGetUsers,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s request failed: %w", ServiceGetUsers, err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%s request failed: %w", ServiceGetUsers, remoteError(resp.Error))
	}
	return resp.Users, nil
}

// SearchUsers finds users by name or email.
func (a *AuthAdapter) SearchUsers(ctx context.Context, callerID, query string, limit int) ([]domain.Profile, error) {
	req := SearchUsersRequest{CallerID: callerID, Query: query, Limit: limit}
	var resp SearchUsersResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceSearchUsers,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s request failed: %w", ServiceSearchUsers, err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%s request failed: %w", ServiceSearchUsers, remoteError(resp.Error))
	}
	return resp.Users, nil
}
