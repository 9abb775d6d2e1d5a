package auth

import "time"

// AccessClaims represents the claims stored in a PASETO access token.
// v4.local tokens are encrypted, so claims are not readable without
// the server key.
type AccessClaims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	IsRoot    bool   `json:"is_root"`
	SessionID string `json:"session_id"`

	// Standard PASETO claims
	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}

// ClientInfo describes the client a session belongs to. Stored on the
// session record and shown when listing active sessions.
type ClientInfo struct {
	ClientName string `json:"client_name"` // DayList Web, DayList Mobile
	IPAddress  string `json:"ip_address"`
}
