package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/daylistapp/daylist-server/internal/domain"
	"github.com/daylistapp/daylist-server/internal/errors"
	"github.com/daylistapp/daylist-server/internal/search"
	"github.com/daylistapp/daylist-server/internal/store"
	"github.com/daylistapp/daylist-server/internal/view"
)

// ContactService serves one-shot contact operations. Streaming clients
// use a ContactView; both paths share the same sanitize-then-write
// semantics.
type ContactService struct {
	store    *store.Store
	index    *search.ContactIndex
	activity *ActivityService
	logger   *slog.Logger
}

// NewContactService creates a new contact service.
func NewContactService(st *store.Store, index *search.ContactIndex, activity *ActivityService, logger *slog.Logger) *ContactService {
	return &ContactService{
		store:    st,
		index:    index,
		activity: activity,
		logger:   logger,
	}
}

// ListContacts returns the principal's contacts with the requested
// ordering.
func (s *ContactService) ListContacts(ctx context.Context, principalID string, ordering view.Ordering) ([]*domain.Contact, error) {
	v, err := view.OpenContactView(ctx, s.store, principalID, ordering)
	if err != nil {
		return nil, err
	}
	defer v.Close()

	return v.Current(), nil
}

// AddContact sanitizes and creates a contact for the principal. The
// search index is updated through the store's write hook.
func (s *ContactService) AddContact(ctx context.Context, principalID string, in view.ContactInput) (*domain.Contact, error) {
	contact, err := view.CreateContact(ctx, s.store, principalID, in)
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, &domain.Activity{
		ActorID: principalID,
		Verb:    domain.VerbContactAdded,
		ItemID:  contact.ID,
		Summary: fmt.Sprintf("added contact %q", contact.Name),
	})

	return contact, nil
}

// DeleteContact removes one of the principal's contacts. Absent ids
// are a no-op.
func (s *ContactService) DeleteContact(ctx context.Context, principalID, contactID string) error {
	if err := view.DeleteContact(ctx, s.store, principalID, contactID); err != nil {
		return err
	}

	s.activity.Record(ctx, &domain.Activity{
		ActorID: principalID,
		Verb:    domain.VerbContactDeleted,
		ItemID:  contactID,
		Summary: "removed a contact",
	})

	return nil
}

// SearchContacts finds the principal's contacts matching the query.
func (s *ContactService) SearchContacts(ctx context.Context, principalID, query string, limit int) ([]search.Hit, error) {
	if principalID == "" {
		return nil, errors.Forbidden("not signed in")
	}
	if query == "" {
		return nil, errors.Validation("search query cannot be empty")
	}
	return s.index.Search(ctx, principalID, query, limit)
}

// RebuildIndex re-indexes every contact. Run at startup when the index
// was recreated.
func (s *ContactService) RebuildIndex(ctx context.Context) error {
	contacts, err := s.store.Contacts.Find(ctx, store.Query[domain.Contact]{})
	if err != nil {
		return fmt.Errorf("load contacts: %w", err)
	}
	return s.index.Rebuild(contacts)
}
