package api

import (
	"net/http"
	"time"

	"github.com/daylistapp/daylist-server/internal/http/response"
)

// handleActivityFeed returns the activity feed visible to the caller,
// newest first. Cursor pagination: pass before (RFC3339) and before_id
// from the last entry of the previous page.
func (s *Server) handleActivityFeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)
	limit := queryInt(r, "limit", 50, 200)

	var before *time.Time
	if raw := r.URL.Query().Get("before"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			response.BadRequest(w, "before must be an RFC3339 timestamp", s.logger)
			return
		}
		before = &parsed
	}
	beforeID := int64(queryInt(r, "before_id", 0, int(^uint(0)>>1)))

	feed, err := s.activityService.Feed(ctx, userID, limit, before, beforeID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, feed, s.logger)
}

// handleMyActivity returns the caller's own recent actions.
func (s *Server) handleMyActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)
	limit := queryInt(r, "limit", 50, 200)

	feed, err := s.activityService.FeedForActor(ctx, userID, limit)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, feed, s.logger)
}
