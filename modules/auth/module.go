package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	domain "github.com/example/realtime-chat/domain/user"
	"github.com/example/realtime-chat/modules/cache"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds the auth module settings.
type Config struct {
	DBPath     string
	DBDebug    bool
	BcryptCost int
	JWT        JWTConfig
}

// AuthModule provides identity and session services.
type AuthModule struct {
	config  Config
	db      *gorm.DB
	cache   cache.CacheService
	service *AuthService
}

// Compile-time interface checks.
var _ mono.Module = (*AuthModule)(nil)
var _ mono.ServiceProviderModule = (*AuthModule)(nil)
var _ mono.HealthCheckableModule = (*AuthModule)(nil)

// NewModule creates a new AuthModule.
func NewModule(config Config) *AuthModule {
	if config.DBPath == "" {
		config.DBPath = "auth.db"
	}
	return &AuthModule{
		config: config,
	}
}

// Name returns the module name.
func (m *AuthModule) Name() string {
	return "auth"
}

// SetCache enables cache-aside profile lookups. Must be called before Start.
func (m *AuthModule) SetCache(c cache.CacheService) {
	m.cache = c
}

// Start opens the users database and builds the service.
func (m *AuthModule) Start(_ context.Context) error {
	logLevel := logger.Silent
	if m.config.DBDebug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(m.config.DBPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := db.AutoMigrate(&domain.User{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	m.service = NewAuthService(
		NewUserRepository(db),
		NewPasswordHasher(m.config.BcryptCost),
		NewJWTManager(m.config.JWT),
		m.cache,
	)

	log.Printf("[auth] Module started (database: %s, cache: %v)", m.config.DBPath, m.cache != nil)
	return nil
}

// Stop closes the database.
func (m *AuthModule) Stop(_ context.Context) error {
	if m.db != nil {
		if sqlDB, err := m.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	log.Println("[auth] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *AuthModule) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get database connection: %v", err),
		}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"database": m.config.DBPath,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *AuthModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceRegister, json.Unmarshal, json.Marshal, m.handleRegister,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRegister, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceLogin, json.Unmarshal, json.Marshal, m.handleLogin,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceLogin, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceRefreshToken, json.Unmarshal, json.Marshal, m.handleRefresh,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRefreshToken, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceValidateToken, json.Unmarshal, json.Marshal, m.handleValidateToken,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceValidateToken, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetUser, json.Unmarshal, json.Marshal, m.handleGetUser,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetUser, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetUsers, json.Unmarshal, json.Marshal, m.handleGetUsers,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetUsers, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceSearchUsers, json.Unmarshal, json.Marshal, m.handleSearchUsers,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceSearchUsers, err)
	}

	log.Printf("[auth] Registered services: register, login, refresh-token, validate-token, get-user, get-users, search-users")
	return nil
}

func (m *AuthModule) handleRegister(ctx context.Context, req RegisterRequest, _ *mono.Msg) (SessionResponse, error) {
	user, tokens, err := m.service.Register(ctx, req.Name, req.Email, req.Password, req.Pic)
	if err != nil {
		return SessionResponse{Error: replyError(ServiceRegister, err)}, nil
	}
	log.Printf("[auth] Registered user %s", user.ID)
	return SessionResponse{User: user.Profile(), Tokens: *tokens}, nil
}

func (m *AuthModule) handleLogin(ctx context.Context, req LoginRequest, _ *mono.Msg) (SessionResponse, error) {
	user, tokens, err := m.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		return SessionResponse{Error: replyError(ServiceLogin, err)}, nil
	}
	return SessionResponse{User: user.Profile(), Tokens: *tokens}, nil
}

func (m *AuthModule) handleRefresh(ctx context.Context, req RefreshRequest, _ *mono.Msg) (RefreshResponse, error) {
	tokens, err := m.service.RefreshTokens(ctx, req.RefreshToken)
	if err != nil {
		return RefreshResponse{Error: replyError(ServiceRefreshToken, err)}, nil
	}
	return RefreshResponse{Tokens: *tokens}, nil
}

// handleValidateToken reports validation failures in the response body, not as errors.
func (m *AuthModule) handleValidateToken(ctx context.Context, req ValidateTokenRequest, _ *mono.Msg) (ValidateTokenResponse, error) {
	claims, err := m.service.ValidateToken(ctx, req.Token)
	if err != nil {
		errMsg := ErrInvalidToken.Error()
		if errors.Is(err, ErrExpiredToken) {
			errMsg = ErrExpiredToken.Error()
		}
		return ValidateTokenResponse{Valid: false, Error: errMsg}, nil
	}

	return ValidateTokenResponse{
		Valid:  true,
		UserID: claims.UserID,
		Email:  claims.Email,
		Name:   claims.Name,
	}, nil
}

func (m *AuthModule) handleGetUser(ctx context.Context, req GetUserRequest, _ *mono.Msg) (GetUserResponse, error) {
	profile, err := m.service.GetUser(ctx, req.UserID)
	if err != nil {
		return GetUserResponse{Error: replyError(ServiceGetUser, err)}, nil
	}
	return GetUserResponse{User: *profile}, nil
}

func (m *AuthModule) handleGetUsers(ctx context.Context, req GetUsersRequest, _ *mono.Msg) (GetUsersResponse, error) {
	profiles, err := m.service.GetUsers(ctx, req.UserIDs)
	if err != nil {
		return GetUsersResponse{Error: replyError(ServiceGetUsers, err)}, nil
	}
	return GetUsersResponse{Users: profiles}, nil
}

func (m *AuthModule) handleSearchUsers(ctx context.Context, req SearchUsersRequest, _ *mono.Msg) (SearchUsersResponse, error) {
	profiles, err := m.service.SearchUsers(ctx, req.CallerID, req.Query, req.Limit)
	if err != nil {
		return SearchUsersResponse{Error: replyError(ServiceSearchUsers, err)}, nil
	}
	return SearchUsersResponse{Users: profiles}, nil
}
