// Package service holds the library's business logic between the GraphQL
// resolvers and the store.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/listenupapp/library-server/internal/auth"
	"github.com/listenupapp/library-server/internal/domain"
	apperrors "github.com/listenupapp/library-server/internal/errors"
	"github.com/listenupapp/library-server/internal/id"
	"github.com/listenupapp/library-server/internal/ratelimit"
	"github.com/listenupapp/library-server/internal/store"
	"github.com/listenupapp/library-server/internal/validation"
)

const (
	msgInvalidCredentials = "Invalid credentials"
	msgNotAuthenticated   = "Not authenticated"
)

// bearerPrefix is matched case-insensitively.
const bearerPrefix = "bearer "

// AuthService handles users, login and token verification.
//
// Every user shares one login secret. Only its argon2id hash is kept in
// memory; it is still a single credential for all accounts.
type AuthService struct {
	repo         store.Repository
	tokenService *auth.TokenService
	limiter      *ratelimit.KeyedRateLimiter
	validator    *validation.Validator
	logger       *slog.Logger
	secretHash   string
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	repo store.Repository,
	tokenService *auth.TokenService,
	loginSecret string,
	limiter *ratelimit.KeyedRateLimiter,
	logger *slog.Logger,
) (*AuthService, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if loginSecret == "" {
		return nil, errors.New("login secret is required")
	}

	hash, err := auth.HashPassword(loginSecret)
	if err != nil {
		return nil, fmt.Errorf("hash login secret: %w", err)
	}

	return &AuthService{
		repo:         repo,
		tokenService: tokenService,
		limiter:      limiter,
		validator:    validation.New(),
		logger:       logger,
		secretHash:   hash,
	}, nil
}

// CreateUserRequest contains the data for a new account.
type CreateUserRequest struct {
	Username      string `json:"username" label:"Username" validate:"notblank,max=64"`
	FavoriteGenre string `json:"favoriteGenre" label:"Favorite genre" validate:"max=64"`
}

// CreateUser registers a new user. Usernames are unique.
func (s *AuthService) CreateUser(ctx context.Context, req CreateUserRequest) (*domain.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.FavoriteGenre = strings.TrimSpace(req.FavoriteGenre)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, internalError(ctx, s.logger, "generate user id", err)
	}

	user := &domain.User{
		Username:      req.Username,
		FavoriteGenre: req.FavoriteGenre,
	}
	user.ID = userID
	user.InitTimestamps()

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, apperrors.BadUserInputf("Username %q is already taken", req.Username).WithCause(err)
		}
		return nil, internalError(ctx, s.logger, "create user", err)
	}

	s.logger.Info("user created", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Login checks the credentials and issues a token for username.
// An unknown username and a wrong password fail identically.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)

	if s.limiter != nil && !s.limiter.Allow(strings.ToLower(username)) {
		s.logger.Warn("login rate limited", "username", username)
		return "", apperrors.TooManyRequests("Too many login attempts, try again later")
	}

	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", internalError(ctx, s.logger, "lookup user", err)
	}

	// Verify even for unknown users so both failures take the same time.
	secretOK := auth.VerifyPassword(s.secretHash, password)
	if user == nil || !secretOK {
		s.logger.Info("login failed", "username", username)
		return "", apperrors.Unauthenticated(msgInvalidCredentials)
	}

	token, err := s.tokenService.Generate(user)
	if err != nil {
		return "", internalError(ctx, s.logger, "generate token", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return token, nil
}

// Authenticate resolves an Authorization header value to the current user.
//
// A missing header or a scheme other than bearer yields (nil, nil). A token
// that fails verification is an UNAUTHENTICATED error. A valid token whose
// user no longer exists yields (nil, nil).
func (s *AuthService) Authenticate(ctx context.Context, header string) (*domain.User, error) {
	header = strings.TrimSpace(header)
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return nil, nil
	}

	token := strings.TrimSpace(header[len(bearerPrefix):])
	claims, err := s.tokenService.Verify(token)
	if err != nil {
		s.logger.DebugContext(ctx, "token rejected", "error", err)
		return nil, apperrors.Unauthenticated("Invalid or expired token").WithCause(err)
	}

	user, err := s.repo.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, internalError(ctx, s.logger, "load current user", err)
	}
	return user, nil
}

// RequireUser returns UNAUTHENTICATED when ctx carries no current user.
func RequireUser(ctx context.Context) (*domain.User, error) {
	user := auth.CurrentUser(ctx)
	if user == nil {
		return nil, apperrors.Unauthenticated(msgNotAuthenticated)
	}
	return user, nil
}
