package api

import (
	"net/http"
	"time"

	"github.com/daylistapp/daylist-server/internal/auth"
	"github.com/daylistapp/daylist-server/internal/domain"
	"github.com/daylistapp/daylist-server/internal/http/response"
	"github.com/daylistapp/daylist-server/internal/service"
)

// UserResponse is the public shape of a user. The password hash never
// leaves the server.
type UserResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	AvatarColor string    `json:"avatar_color,omitempty"`
	IsRoot      bool      `json:"is_root"`
	CreatedAt   time.Time `json:"created_at"`
	LastLoginAt time.Time `json:"last_login_at"`
}

// AuthResponse contains authentication tokens and user info.
type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	SessionID    string       `json:"session_id"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"`
	User         UserResponse `json:"user"`
}

func mapUser(user *domain.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.Name(),
		AvatarURL:   user.AvatarURL,
		AvatarColor: user.AvatarColor,
		IsRoot:      user.IsRoot,
		CreatedAt:   user.CreatedAt,
		LastLoginAt: user.LastLoginAt,
	}
}

func mapAuthResponse(resp *service.AuthResponse) AuthResponse {
	return AuthResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		SessionID:    resp.SessionID,
		TokenType:    resp.TokenType,
		ExpiresIn:    resp.ExpiresIn,
		User:         mapUser(resp.User),
	}
}

// handleAuthStatus reports whether the server has been set up and the
// last signed-in display name, so clients can greet a returning user
// before any credentials are presented.
func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	configured, err := s.store.HasUsers(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, map[string]any{
		"configured":    configured,
		"greeting_name": s.authService.GreetingName(),
	}, s.logger)
}

// handleSetup creates the first (root) user. Usable exactly once.
func (s *Server) handleSetup(w http.ResponseWriter, r *http.Request) {
	var req service.SetupRequest
	if err := decodeBody(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	resp, err := s.authService.Setup(r.Context(), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, mapAuthResponse(resp), s.logger)
}

// handleRegister creates a new user account.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	resp, err := s.authService.Register(r.Context(), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, mapAuthResponse(resp), s.logger)
}

type loginBody struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	ClientName string `json:"client_name,omitempty"`
}

// handleLogin authenticates a user and returns tokens.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	if err := decodeBody(r, &body); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	resp, err := s.authService.Login(r.Context(), service.LoginRequest{
		Email:    body.Email,
		Password: body.Password,
		Client: auth.ClientInfo{
			ClientName: body.ClientName,
			IPAddress:  clientIP(r),
		},
	})
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, mapAuthResponse(resp), s.logger)
}

type refreshBody struct {
	RefreshToken string `json:"refresh_token"`
	ClientName   string `json:"client_name,omitempty"`
}

// handleRefresh exchanges a refresh token for fresh tokens.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body refreshBody
	if err := decodeBody(r, &body); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	resp, err := s.authService.RefreshTokens(r.Context(), service.RefreshRequest{
		RefreshToken: body.RefreshToken,
		Client: auth.ClientInfo{
			ClientName: body.ClientName,
			IPAddress:  clientIP(r),
		},
	})
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, mapAuthResponse(resp), s.logger)
}

type logoutBody struct {
	SessionID string `json:"session_id"`
}

// handleLogout revokes the given session.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var body logoutBody
	if err := decodeBody(r, &body); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	if body.SessionID == "" {
		response.BadRequest(w, "session_id is required", s.logger)
		return
	}

	if err := s.authService.Logout(r.Context(), body.SessionID); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, map[string]string{"message": "Logged out successfully"}, s.logger)
}
