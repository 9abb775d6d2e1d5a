package domain

import (
	"strings"
	"time"
)

// User represents an authenticated principal in the system.
// The ID is the stable principal identifier referenced by list
// collaborator sets and item created_by fields.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash,omitempty"` // Stored hashed, filter from API responses
	DisplayName  string    `json:"display_name"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	AvatarColor  string    `json:"avatar_color,omitempty"` // Deterministic fallback when no avatar is set
	IsRoot       bool      `json:"is_root"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	LastLoginAt  time.Time `json:"last_login_at"`
}

// Name returns the best available name to display for the user.
// Prefers DisplayName, falls back to the local part of the email.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if at := strings.IndexByte(u.Email, '@'); at > 0 {
		return u.Email[:at]
	}
	return u.Email
}

// Validate checks the invariants a decoded user record must satisfy.
// Store reads run this before handing the record to callers; a raw
// document that fails here is treated as a decode error, never trusted.
func (u *User) Validate() error {
	if u.ID == "" {
		return ErrMissingID
	}
	if u.Email == "" {
		return ErrMissingField("email")
	}
	return nil
}

// Session represents an active user session with refresh token.
// Each signed-in device gets its own session.
type Session struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	RefreshTokenHash string    `json:"refresh_token_hash,omitempty"` // Stored hashed, filter from API responses
	ExpiresAt        time.Time `json:"expires_at"`
	CreatedAt        time.Time `json:"created_at"`
	LastSeenAt       time.Time `json:"last_seen_at"`
	IPAddress        string    `json:"ip_address,omitempty"`
	ClientName       string    `json:"client_name,omitempty"`
}

// Touch updates the session's last seen timestamp.
func (s *Session) Touch() {
	s.LastSeenAt = time.Now()
}

// IsExpired checks if the session has passed its expiration time.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Validate checks the invariants a decoded session record must satisfy.
func (s *Session) Validate() error {
	if s.ID == "" {
		return ErrMissingID
	}
	if s.UserID == "" {
		return ErrMissingField("user_id")
	}
	return nil
}
