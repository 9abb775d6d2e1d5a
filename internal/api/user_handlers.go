package api

import (
	"net/http"
	"time"

	"github.com/daylistapp/daylist-server/internal/domain"
	"github.com/daylistapp/daylist-server/internal/http/response"
)

// CollaboratorResponse is the minimal user shape shown when picking
// list collaborators.
type CollaboratorResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	AvatarColor string `json:"avatar_color,omitempty"`
}

// handleGetCurrentUser returns the authenticated user's profile.
func (s *Server) handleGetCurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	user, err := s.store.Users.Get(ctx, userID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, mapUser(user), s.logger)
}

// handleListUsers returns every account on the server in collaborator
// form. A personal server has a handful of users, so no pagination.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var users []CollaboratorResponse
	for user, err := range s.store.Users.All(ctx) {
		if err != nil {
			response.HandleError(w, err, s.logger)
			return
		}
		users = append(users, CollaboratorResponse{
			ID:          user.ID,
			DisplayName: user.Name(),
			AvatarURL:   user.AvatarURL,
			AvatarColor: user.AvatarColor,
		})
	}

	response.Success(w, users, s.logger)
}

// SessionInfoResponse describes one active session.
type SessionInfoResponse struct {
	ID         string `json:"id"`
	ClientName string `json:"client_name,omitempty"`
	IPAddress  string `json:"ip_address,omitempty"`
	CreatedAt  string `json:"created_at"`
	LastSeenAt string `json:"last_seen_at"`
}

// handleListSessions returns the caller's active sessions.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	sessions, err := s.sessionService.ListUserSessions(ctx, userID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	out := make([]SessionInfoResponse, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, mapSession(sess))
	}

	response.Success(w, out, s.logger)
}

func mapSession(sess *domain.Session) SessionInfoResponse {
	return SessionInfoResponse{
		ID:         sess.ID,
		ClientName: sess.ClientName,
		IPAddress:  sess.IPAddress,
		CreatedAt:  sess.CreatedAt.Format(time.RFC3339),
		LastSeenAt: sess.LastSeenAt.Format(time.RFC3339),
	}
}
