package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/daylistapp/daylist-server/internal/auth"
	"github.com/daylistapp/daylist-server/internal/color"
	"github.com/daylistapp/daylist-server/internal/domain"
	"github.com/daylistapp/daylist-server/internal/errors"
	"github.com/daylistapp/daylist-server/internal/id"
	"github.com/daylistapp/daylist-server/internal/ratelimit"
	"github.com/daylistapp/daylist-server/internal/session"
	"github.com/daylistapp/daylist-server/internal/store"
)

// AuthService handles account creation and authentication. Session
// lifecycle is delegated to SessionService.
type AuthService struct {
	store          *store.Store
	tokenService   *auth.TokenService
	sessionService *SessionService
	loginLimiter   *ratelimit.KeyedRateLimiter
	names          *session.NameCache
	logger         *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	st *store.Store,
	tokenService *auth.TokenService,
	sessionService *SessionService,
	loginLimiter *ratelimit.KeyedRateLimiter,
	names *session.NameCache,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:          st,
		tokenService:   tokenService,
		sessionService: sessionService,
		loginLimiter:   loginLimiter,
		names:          names,
		logger:         logger,
	}
}

// SetupRequest contains the initial root user creation data.
type SetupRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=1024"`
	DisplayName string `json:"display_name" validate:"required"`
}

// RegisterRequest contains user registration data.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=1024"`
	DisplayName string `json:"display_name" validate:"required"`
}

// LoginRequest contains user credentials and client information.
type LoginRequest struct {
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password" validate:"required"`
	Client   auth.ClientInfo `json:"client"`
}

// RefreshRequest contains the refresh token to rotate.
type RefreshRequest struct {
	RefreshToken string          `json:"refresh_token" validate:"required"`
	Client       auth.ClientInfo `json:"client"`
}

// AuthResponse contains authentication tokens and user data.
type AuthResponse struct {
	User *domain.User `json:"user"`
	SessionResponse
}

// Setup creates the first user (root). Usable exactly once, before any
// user exists.
func (s *AuthService) Setup(ctx context.Context, req SetupRequest) (*AuthResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	hasUsers, err := s.store.HasUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("check setup status: %w", err)
	}
	if hasUsers {
		return nil, errors.AlreadyConfigured("server is already configured")
	}

	user, err := s.createUser(ctx, req.Email, req.Password, req.DisplayName, true)
	if err != nil {
		return nil, err
	}

	sessionResp, err := s.sessionService.CreateSession(ctx, user, auth.ClientInfo{ClientName: "DayList Web"})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.cacheDisplayName(user)
	s.logger.Info("Server setup complete", "user_id", user.ID, "email", user.Email)

	return &AuthResponse{User: user, SessionResponse: *sessionResp}, nil
}

// Register creates a new user account. Registration is open; the first
// account must still come through Setup so root is well defined.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	hasUsers, err := s.store.HasUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("check setup status: %w", err)
	}
	if !hasUsers {
		return nil, errors.Validation("server is not set up yet")
	}

	user, err := s.createUser(ctx, req.Email, req.Password, req.DisplayName, false)
	if err != nil {
		return nil, err
	}

	sessionResp, err := s.sessionService.CreateSession(ctx, user, auth.ClientInfo{})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.cacheDisplayName(user)
	s.logger.Info("User registered", "user_id", user.ID, "email", user.Email)

	return &AuthResponse{User: user, SessionResponse: *sessionResp}, nil
}

func (s *AuthService) createUser(ctx context.Context, email, password, displayName string, isRoot bool) (*domain.User, error) {
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           userID,
		Email:        email,
		PasswordHash: passwordHash,
		DisplayName:  displayName,
		AvatarColor:  color.ForUser(userID),
		IsRoot:       isRoot,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastLoginAt:  now,
	}

	if err := s.store.Users.Create(ctx, user.ID, user); err != nil {
		if errors.Is(err, errors.ErrAlreadyExists) {
			return nil, errors.AlreadyExists("email already in use")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login authenticates a user and creates a new session. Attempts are
// rate limited per email to slow credential guessing.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	if !s.loginLimiter.Allow(req.Email) {
		return nil, errors.Unavailable("too many login attempts, try again later")
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			// Same answer whether the email exists or not.
			return nil, errors.InvalidCredentials("invalid email or password")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	valid, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, errors.InvalidCredentials("invalid email or password")
	}

	user.LastLoginAt = time.Now().UTC()
	user.UpdatedAt = user.LastLoginAt
	if err := s.store.Users.Update(ctx, user.ID, user); err != nil {
		// Login still succeeds; the timestamp is cosmetic.
		s.logger.Warn("Failed to update last login time", "user_id", user.ID, "error", err)
	}

	sessionResp, err := s.sessionService.CreateSession(ctx, user, req.Client)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.cacheDisplayName(user)
	s.logger.Info("User logged in", "user_id", user.ID)

	return &AuthResponse{User: user, SessionResponse: *sessionResp}, nil
}

// cacheDisplayName persists the name for the pre-auth greeting.
// Best-effort: the cache is a hint, never part of authentication.
func (s *AuthService) cacheDisplayName(user *domain.User) {
	if err := s.names.Put(user.Name()); err != nil {
		s.logger.Warn("Failed to cache display name", "user_id", user.ID, "error", err)
	}
}

// GreetingName returns the display name of the last signed-in user, or
// "" when no one has signed in since the last logout.
func (s *AuthService) GreetingName() string {
	return s.names.Get()
}

// RefreshTokens generates new tokens using a refresh token. The old
// refresh token is invalidated.
func (s *AuthService) RefreshTokens(ctx context.Context, req RefreshRequest) (*AuthResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	sessionResp, user, err := s.sessionService.RefreshSession(ctx, req.RefreshToken, req.Client)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{User: user, SessionResponse: *sessionResp}, nil
}

// Logout revokes a session, invalidating its refresh token, and clears
// the greeting name cache.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessionService.DeleteSession(ctx, sessionID); err != nil {
		return err
	}
	if err := s.names.Clear(); err != nil {
		s.logger.Warn("Failed to clear display name cache", "error", err)
	}
	return nil
}

// VerifyAccessToken validates a token and returns the associated user.
// Used by the authentication middleware.
func (s *AuthService) VerifyAccessToken(ctx context.Context, tokenString string) (*domain.User, *auth.AccessClaims, error) {
	claims, err := s.tokenService.VerifyAccessToken(tokenString)
	if err != nil {
		return nil, nil, errors.Unauthorized("invalid token").WithCause(err)
	}

	user, err := s.store.Users.Get(ctx, claims.UserID)
	if err != nil {
		return nil, nil, errors.Unauthorized("unknown user").WithCause(err)
	}

	return user, claims, nil
}
