package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/daylistapp/daylist-server/internal/auth"
	"github.com/daylistapp/daylist-server/internal/domain"
	"github.com/daylistapp/daylist-server/internal/errors"
	"github.com/daylistapp/daylist-server/internal/id"
	"github.com/daylistapp/daylist-server/internal/session"
	"github.com/daylistapp/daylist-server/internal/store"
)

// SessionService manages session lifecycle: token issuance, rotation,
// and revocation. Revoking a session also signs out its gate, which
// closes every live view opened under it.
type SessionService struct {
	store        *store.Store
	tokenService *auth.TokenService
	gates        *session.Manager
	logger       *slog.Logger
	revoked      func(userID string)
}

// OnRevoke registers a callback fired after a session is revoked,
// with the user the session belonged to. Used to drop that user's
// event streams.
func (s *SessionService) OnRevoke(fn func(userID string)) {
	s.revoked = fn
}

// NewSessionService creates a new session management service.
func NewSessionService(
	st *store.Store,
	tokenService *auth.TokenService,
	gates *session.Manager,
	logger *slog.Logger,
) *SessionService {
	return &SessionService{
		store:        st,
		tokenService: tokenService,
		gates:        gates,
		logger:       logger,
	}
}

// SessionResponse contains session tokens and metadata.
type SessionResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"` // Seconds until the access token expires
	SessionID    string `json:"session_id"`
}

// Gates returns the per-session gate registry, so transports can bind
// long-lived resources to the session that opened them.
func (s *SessionService) Gates() *session.Manager {
	return s.gates
}

// CreateSession generates tokens and creates a session for a user.
func (s *SessionService) CreateSession(
	ctx context.Context,
	user *domain.User,
	client auth.ClientInfo,
) (*SessionResponse, error) {
	sessionID, err := id.Generate("sess")
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}

	accessToken, err := s.tokenService.GenerateAccessToken(user, sessionID)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := s.tokenService.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	now := time.Now().UTC()
	sess := &domain.Session{
		ID:               sessionID,
		UserID:           user.ID,
		RefreshTokenHash: auth.HashRefreshToken(refreshToken),
		ExpiresAt:        now.Add(s.tokenService.RefreshTokenDuration()),
		CreatedAt:        now,
		LastSeenAt:       now,
		IPAddress:        client.IPAddress,
		ClientName:       client.ClientName,
	}

	if err := s.store.Sessions.Create(ctx, sess.ID, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.gates.Attach(sessionID, session.Principal{
		ID:          user.ID,
		DisplayName: user.Name(),
		AvatarURL:   user.AvatarURL,
	})

	return &SessionResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.tokenService.AccessTokenDuration().Seconds()),
		SessionID:    sessionID,
	}, nil
}

// RefreshSession rotates tokens for an existing session. The old
// refresh token is invalidated.
func (s *SessionService) RefreshSession(
	ctx context.Context,
	refreshToken string,
	client auth.ClientInfo,
) (*SessionResponse, *domain.User, error) {
	tokenHash := auth.HashRefreshToken(refreshToken)
	sess, err := s.store.GetSessionByRefreshToken(ctx, tokenHash)
	if err != nil {
		return nil, nil, errors.TokenExpired("invalid or expired refresh token").WithCause(err)
	}
	if sess.IsExpired() {
		_ = s.store.Sessions.Delete(ctx, sess.ID)
		s.gates.SignOut(sess.ID)
		return nil, nil, errors.TokenExpired("invalid or expired refresh token")
	}

	user, err := s.store.Users.Get(ctx, sess.UserID)
	if err != nil {
		// User gone; the session is dead weight.
		_ = s.store.Sessions.Delete(ctx, sess.ID)
		s.gates.SignOut(sess.ID)
		return nil, nil, errors.NotFound("user not found").WithCause(err)
	}

	accessToken, err := s.tokenService.GenerateAccessToken(user, sess.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("generate access token: %w", err)
	}

	newRefreshToken, err := s.tokenService.GenerateRefreshToken()
	if err != nil {
		return nil, nil, fmt.Errorf("generate refresh token: %w", err)
	}

	sess.RefreshTokenHash = auth.HashRefreshToken(newRefreshToken)
	sess.Touch()
	if client.IPAddress != "" {
		sess.IPAddress = client.IPAddress
	}
	if client.ClientName != "" {
		sess.ClientName = client.ClientName
	}

	if err := s.store.Sessions.Update(ctx, sess.ID, sess); err != nil {
		return nil, nil, fmt.Errorf("update session: %w", err)
	}

	s.gates.Attach(sess.ID, session.Principal{
		ID:          user.ID,
		DisplayName: user.Name(),
		AvatarURL:   user.AvatarURL,
	})

	return &SessionResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.tokenService.AccessTokenDuration().Seconds()),
		SessionID:    sess.ID,
	}, user, nil
}

// DeleteSession revokes a session (logout) and closes every live view
// opened under it.
func (s *SessionService) DeleteSession(ctx context.Context, sessionID string) error {
	sess, err := s.store.Sessions.Get(ctx, sessionID)
	if err != nil && !errors.Is(err, errors.ErrNotFound) {
		return fmt.Errorf("get session: %w", err)
	}

	if err := s.store.Sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.gates.SignOut(sessionID)

	if sess != nil && s.revoked != nil {
		s.revoked(sess.UserID)
	}

	s.logger.Info("Session revoked", "session_id", sessionID)
	return nil
}

// ListUserSessions returns all active sessions for a user.
func (s *SessionService) ListUserSessions(ctx context.Context, userID string) ([]*domain.Session, error) {
	return s.store.SessionsForUser(ctx, userID)
}

// DeleteExpiredSessions removes expired sessions. Run periodically.
func (s *SessionService) DeleteExpiredSessions(ctx context.Context) (int, error) {
	count, err := s.store.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	if count > 0 {
		s.logger.Info("Deleted expired sessions", "count", count)
	}
	return count, nil
}
