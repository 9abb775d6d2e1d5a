package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/daylistapp/daylist-server/internal/http/response"
	"github.com/daylistapp/daylist-server/internal/view"
)

type contactBody struct {
	Name     string   `json:"name"`
	Email    string   `json:"email,omitempty"`
	Phones   []string `json:"phones,omitempty"`
	Birthday string   `json:"birthday,omitempty"`
	Company  string   `json:"company,omitempty"`
}

// handleAddContact creates a contact in the caller's address book.
func (s *Server) handleAddContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	var body contactBody
	if err := decodeBody(r, &body); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	contact, err := s.contactService.AddContact(ctx, userID, view.ContactInput{
		Name:     body.Name,
		Email:    body.Email,
		Phones:   body.Phones,
		Birthday: body.Birthday,
		Company:  body.Company,
	})
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, contact, s.logger)
}

// handleListContacts returns the caller's contacts in the requested
// ordering.
func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	ordering, err := view.ParseOrdering(r.URL.Query().Get("ordering"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	contacts, err := s.contactService.ListContacts(ctx, userID, ordering)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, contacts, s.logger)
}

// handleSearchContacts runs a full-text search over the caller's
// contacts. Query parameters: q (required) and limit.
func (s *Server) handleSearchContacts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)
	query := r.URL.Query().Get("q")
	limit := queryInt(r, "limit", 20, 100)

	hits, err := s.contactService.SearchContacts(ctx, userID, query, limit)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, hits, s.logger)
}

// handleDeleteContact removes one of the caller's contacts.
func (s *Server) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)
	contactID := chi.URLParam(r, "id")

	if err := s.contactService.DeleteContact(ctx, userID, contactID); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}
