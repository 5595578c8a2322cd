package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	domain "github.com/example/realtime-chat/domain/user"
	"github.com/example/realtime-chat/modules/cache"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const (
	minPasswordLength  = 8
	maxPasswordLength  = 72
	defaultSearchLimit = 50
	maxSearchLimit     = 200
)

var (
	// ErrMissingFields is returned when registration or login fields are empty.
	ErrMissingFields = errors.New("please enter all the fields")
	// ErrInvalidCredentials is returned when login credentials are invalid.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidEmail is returned when email format is invalid.
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrWeakPassword is returned when password is too short.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
	// ErrPasswordTooLong is returned when password exceeds bcrypt's 72-byte limit.
	ErrPasswordTooLong = errors.New("password must be at most 72 characters")
)

// AuthService handles registration, login and user lookups.
type AuthService struct {
	repo    *UserRepository
	hasher  *PasswordHasher
	jwt     *JWTManager
	cache   cache.CacheService
	sfGroup singleflight.Group
}

// NewAuthService creates a new AuthService. c may be nil to disable caching.
func NewAuthService(repo *UserRepository, hasher *PasswordHasher, jwt *JWTManager, c cache.CacheService) *AuthService {
	return &AuthService{
		repo:   repo,
		hasher: hasher,
		jwt:    jwt,
		cache:  c,
	}
}

// Register creates a new account and signs the user in.
func (s *AuthService) Register(ctx context.Context, name, email, password, pic string) (*domain.User, *domain.TokenPair, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, nil, ErrMissingFields
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return nil, nil, ErrWeakPassword
	}
	if len(password) > maxPasswordLength {
		return nil, nil, ErrPasswordTooLong
	}

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return nil, nil, ErrUserExists
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if strings.TrimSpace(pic) == "" {
		pic = domain.DefaultPic
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		Pic:          pic,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	tokens, err := s.generateTokenPair(user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// Login authenticates a user and returns tokens.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *domain.TokenPair, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, nil, ErrMissingFields
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.generateTokenPair(user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// RefreshTokens exchanges a refresh token for a new token pair.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return s.generateTokenPair(user)
}

// ValidateToken validates an access token and returns its identity.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*domain.Claims, error) {
	claims, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}
	return &domain.Claims{
		UserID: claims.UserID,
		Email:  claims.Email,
		Name:   claims.Name,
	}, nil
}

// GetUser returns the profile of one user.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.Profile, error) {
	profile, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrUserNotFound
	}
	return profile, nil
}

// GetUsers returns profiles for the distinct known ids, in first-seen order.
func (s *AuthService) GetUsers(ctx context.Context, userIDs []string) ([]domain.Profile, error) {
	seen := make(map[string]struct{}, len(userIDs))
	profiles := make([]domain.Profile, 0, len(userIDs))
	for _, id := range userIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		profile, err := s.profile(ctx, id)
		if err != nil {
			return nil, err
		}
		if profile != nil {
			profiles = append(profiles, *profile)
		}
	}
	return profiles, nil
}

// SearchUsers finds users by name or email, never returning the caller.
func (s *AuthService) SearchUsers(ctx context.Context, callerID, query string, limit int) ([]domain.Profile, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	users, err := s.repo.Search(ctx, strings.TrimSpace(query), callerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}

	profiles := make([]domain.Profile, 0, len(users))
	for i := range users {
		profiles = append(profiles, users[i].Profile())
	}
	return profiles, nil
}

// profile loads a profile cache-aside. It returns nil, nil for unknown ids.
// Profiles never change after registration, so entries are not invalidated.
func (s *AuthService) profile(ctx context.Context, userID string) (*domain.Profile, error) {
	key := "profile:" + userID

	if s.cache != nil {
		var cached domain.Profile
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			log.Printf("[auth] Cache error for %s: %v", key, err)
		}
		if found {
			return &cached, nil
		}
	}

	val, err, _ := s.sfGroup.Do(key, func() (any, error) {
		return s.repo.FindByID(ctx, userID)
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load user %s: %w", userID, err)
	}

	user, ok := val.(*domain.User)
	if !ok || user == nil {
		return nil, nil
	}
	profile := user.Profile()

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, profile); err != nil {
			log.Printf("[auth] Warning: failed to cache %s: %v", key, err)
		}
	}
	return &profile, nil
}

func (s *AuthService) generateTokenPair(user *domain.User) (*domain.TokenPair, error) {
	accessToken, err := s.jwt.GenerateAccessToken(user.ID, user.Email, user.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwt.GenerateRefreshToken(user.ID, user.Email, user.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.jwt.AccessTokenDuration(),
		TokenType:    "Bearer",
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
