package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplyErrorRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"user exists", fmt.Errorf("failed to create user: %w", ErrUserExists), ErrUserExists},
		{"invalid credentials", ErrInvalidCredentials, ErrInvalidCredentials},
		{"refresh rejected", fmt.Errorf("invalid refresh token: %w", ErrExpiredToken), ErrExpiredToken},
		{"weak password", ErrWeakPassword, ErrWeakPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := remoteError(replyError("test", tt.err))
			assert.True(t, errors.Is(got, tt.want), "got %v, want %v", got, tt.want)
		})
	}

	internal := remoteError(replyError("test", errors.New("disk I/O error")))
	assert.Equal(t, "disk I/O error", internal.Error())
}

func TestHandlersReplyWithErrors(t *testing.T) {
	m := &AuthModule{service: newTestService(t, nil)}
	ctx := context.Background()

	req := RegisterRequest{Name: "Alice", Email: "alice@example.com", Password: "password123"}
	resp, err := m.handleRegister(ctx, req, nil)
	require.NoError(t, err)
	require.Empty(t, resp.Error)
	assert.NotEmpty(t, resp.Tokens.AccessToken)

	resp, err = m.handleRegister(ctx, req, nil)
	require.NoError(t, err)
	assert.Equal(t, ErrUserExists.Error(), resp.Error)

	resp, err = m.handleLogin(ctx, LoginRequest{Email: "alice@example.com", Password: "wrong-password"}, nil)
	require.NoError(t, err)
	assert.Equal(t, ErrInvalidCredentials.Error(), resp.Error)

	user, err := m.handleGetUser(ctx, GetUserRequest{UserID: "missing"}, nil)
	require.NoError(t, err)
	assert.Equal(t, ErrUserNotFound.Error(), user.Error)

	validation, err := m.handleValidateToken(ctx, ValidateTokenRequest{Token: "garbage"}, nil)
	require.NoError(t, err)
	assert.False(t, validation.Valid)
	assert.True(t, errors.Is(remoteError(validation.Error), ErrInvalidToken))
}
