package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/daylistapp/daylist-server/internal/http/response"
	"github.com/daylistapp/daylist-server/internal/view"
)

// handleListTodos returns a list's todos in the requested ordering.
// Query parameters: ordering (nameAsc, nameDesc, createdAsc,
// createdDesc) and filter (all, pending, completed).
func (s *Server) handleListTodos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)
	listID := chi.URLParam(r, "id")

	ordering, err := view.ParseOrdering(r.URL.Query().Get("ordering"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	filter, err := view.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	todos, err := s.todoService.ListTodos(ctx, userID, listID, ordering, filter)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, todos, s.logger)
}

type addTodoBody struct {
	Text string `json:"text"`
}

// handleAddTodo appends a todo to a list.
func (s *Server) handleAddTodo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)
	listID := chi.URLParam(r, "id")

	var body addTodoBody
	if err := decodeBody(r, &body); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	todo, err := s.todoService.AddTodo(ctx, userID, listID, body.Text)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, todo, s.logger)
}

// handleToggleTodo flips a todo's completed flag.
func (s *Server) handleToggleTodo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)
	listID := chi.URLParam(r, "id")
	todoID := chi.URLParam(r, "todoID")

	todo, err := s.todoService.ToggleTodo(ctx, userID, listID, todoID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, todo, s.logger)
}

// handleDeleteTodo removes a todo. Deleting an absent id succeeds.
func (s *Server) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)
	listID := chi.URLParam(r, "id")
	todoID := chi.URLParam(r, "todoID")

	if err := s.todoService.DeleteTodo(ctx, userID, listID, todoID); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}
