package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/daylistapp/daylist-server/internal/http/response"
	"github.com/daylistapp/daylist-server/internal/service"
)

// handleCreateList creates a shared list owned by the caller.
func (s *Server) handleCreateList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	var req service.CreateListRequest
	if err := decodeBody(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	list, err := s.listService.CreateList(ctx, userID, req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, list, s.logger)
}

// handleListLists returns every list the caller collaborates on.
func (s *Server) handleListLists(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	lists, err := s.listService.ListsFor(ctx, userID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, lists, s.logger)
}

// handleGetList returns one list if the caller may read it.
func (s *Server) handleGetList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)
	listID := chi.URLParam(r, "id")

	list, err := s.listService.GetList(ctx, userID, listID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, list, s.logger)
}

// handleDeleteList deletes a list. Deletion is destructive, so the
// caller must pass ?confirm=true.
func (s *Server) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)
	listID := chi.URLParam(r, "id")
	confirm := r.URL.Query().Get("confirm") == "true"

	if err := s.listService.DeleteList(ctx, userID, listID, confirm); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}

// handleListActivity returns the activity feed for one list.
func (s *Server) handleListActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)
	listID := chi.URLParam(r, "id")
	limit := queryInt(r, "limit", 50, 200)

	// The feed is only visible to collaborators.
	if _, err := s.listService.GetList(ctx, userID, listID); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	feed, err := s.activityService.FeedForList(ctx, listID, limit)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, feed, s.logger)
}
