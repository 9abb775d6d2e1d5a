package store

import (
	"context"
	"strings"

	"github.com/daylistapp/daylist-server/internal/domain"
)

// normalizeEmail lowercases and trims an email for case-insensitive
// index lookups. Stored documents keep the email as entered.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GetUserByEmail retrieves a user by email, case-insensitively.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.Users.GetByIndex(ctx, "email", email)
}

// GetSessionByRefreshToken retrieves a session by its refresh token hash.
func (s *Store) GetSessionByRefreshToken(ctx context.Context, tokenHash string) (*domain.Session, error) {
	return s.Sessions.GetByIndex(ctx, "token", tokenHash)
}

// SessionsForUser returns every active session belonging to a user.
func (s *Store) SessionsForUser(ctx context.Context, userID string) ([]*domain.Session, error) {
	return s.Sessions.FindByMultiIndex(ctx, "user", userID)
}

// DeleteSessionsForUser removes all of a user's sessions. Used when a
// credential change should sign the user out everywhere.
func (s *Store) DeleteSessionsForUser(ctx context.Context, userID string) error {
	sessions, err := s.SessionsForUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, sess := range sessions {
		if err := s.Sessions.Delete(ctx, sess.ID); err != nil {
			return err
		}
	}
	return nil
}

// DeleteExpiredSessions removes sessions past their expiry. Run
// periodically as a cleanup job.
func (s *Store) DeleteExpiredSessions(ctx context.Context) (int, error) {
	var expired []string
	for sess, err := range s.Sessions.All(ctx) {
		if err != nil {
			return 0, err
		}
		if sess.IsExpired() {
			expired = append(expired, sess.ID)
		}
	}
	for _, id := range expired {
		if err := s.Sessions.Delete(ctx, id); err != nil {
			return 0, err
		}
	}
	return len(expired), nil
}

// HasUsers reports whether any user account exists. Gates the one-time
// setup endpoint.
func (s *Store) HasUsers(ctx context.Context) (bool, error) {
	for _, err := range s.Users.All(ctx) {
		if err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}
