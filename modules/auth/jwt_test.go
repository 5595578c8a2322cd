package auth

import (
	"errors"
	"testing"
	"time"
)

func testJWTConfig() JWTConfig {
	return JWTConfig{
		SecretKey:            "test-secret-key",
		AccessTokenDuration:  15 * time.Minute,
		RefreshTokenDuration: 7 * 24 * time.Hour,
		Issuer:               "test-issuer",
	}
}

func TestJWTManager_GenerateAndValidateAccessToken(t *testing.T) {
	manager := NewJWTManager(testJWTConfig())

	token, err := manager.GenerateAccessToken("user-123", "test@example.com", "Test User")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if token == "" {
		t.Fatal("GenerateAccessToken() returned empty token")
	}

	claims, err := manager.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken() error = %v", err)
	}
	if claims.UserID != "user-123" {
		t.Errorf("claims.UserID = %v, want %v", claims.UserID, "user-123")
	}
	if claims.Email != "test@example.com" {
		t.Errorf("claims.Email = %v, want %v", claims.Email, "test@example.com")
	}
	if claims.Name != "Test User" {
		t.Errorf("claims.Name = %v, want %v", claims.Name, "Test User")
	}
	if claims.TokenType != tokenTypeAccess {
		t.Errorf("claims.TokenType = %v, want %v", claims.TokenType, tokenTypeAccess)
	}
	if claims.Issuer != "test-issuer" {
		t.Errorf("claims.Issuer = %v, want %v", claims.Issuer, "test-issuer")
	}
}

func TestJWTManager_TokenTypesAreNotInterchangeable(t *testing.T) {
	manager := NewJWTManager(testJWTConfig())

	access, err := manager.GenerateAccessToken("user-123", "a@example.com", "A")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	refresh, err := manager.GenerateRefreshToken("user-123", "a@example.com", "A")
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}

	if _, err := manager.ValidateRefreshToken(access); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateRefreshToken(access) error = %v, want %v", err, ErrInvalidToken)
	}
	if _, err := manager.ValidateAccessToken(refresh); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateAccessToken(refresh) error = %v, want %v", err, ErrInvalidToken)
	}
	if _, err := manager.ValidateRefreshToken(refresh); err != nil {
		t.Errorf("ValidateRefreshToken(refresh) error = %v", err)
	}
}

func TestJWTManager_ExpiredToken(t *testing.T) {
	config := testJWTConfig()
	config.AccessTokenDuration = -time.Minute
	manager := NewJWTManager(config)

	token, err := manager.GenerateAccessToken("user-123", "a@example.com", "A")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	if _, err := manager.ValidateAccessToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("ValidateAccessToken() error = %v, want %v", err, ErrExpiredToken)
	}
}

func TestJWTManager_RejectsForeignTokens(t *testing.T) {
	manager := NewJWTManager(testJWTConfig())

	otherSecret := testJWTConfig()
	otherSecret.SecretKey = "another-secret"
	forged, _ := NewJWTManager(otherSecret).GenerateAccessToken("user-123", "a@example.com", "A")

	otherIssuer := testJWTConfig()
	otherIssuer.Issuer = "someone-else"
	foreign, _ := NewJWTManager(otherIssuer).GenerateAccessToken("user-123", "a@example.com", "A")

	tests := []struct {
		name  string
		token string
	}{
		{name: "wrong secret", token: forged},
		{name: "wrong issuer", token: foreign},
		{name: "garbage", token: "not.a.token"},
		{name: "empty", token: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := manager.ValidateAccessToken(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("ValidateAccessToken() error = %v, want %v", err, ErrInvalidToken)
			}
		})
	}
}

func TestJWTManager_AccessTokenDuration(t *testing.T) {
	manager := NewJWTManager(testJWTConfig())
	if got := manager.AccessTokenDuration(); got != 900 {
		t.Errorf("AccessTokenDuration() = %v, want %v", got, 900)
	}
}
