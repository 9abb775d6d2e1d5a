package view

import (
	"context"
	"sync"
	"time"

	"github.com/daylistapp/daylist-server/internal/domain"
	"github.com/daylistapp/daylist-server/internal/errors"
	"github.com/daylistapp/daylist-server/internal/id"
	"github.com/daylistapp/daylist-server/internal/store"
)

// ContactView is a live projection of one principal's contacts.
// Contacts are user-scoped: the filter is ownership, not list
// membership, so opening the view needs a session but no per-resource
// authorization.
type ContactView struct {
	*liveView[domain.Contact]

	st          *store.Store
	principalID string

	optMu    sync.Mutex
	ordering Ordering
}

// OpenContactView opens a live view of the principal's contacts. An
// absent principal is Forbidden.
func OpenContactView(ctx context.Context, s *store.Store, principalID string, ordering Ordering) (*ContactView, error) {
	if principalID == "" {
		return nil, errors.Forbidden("not signed in")
	}

	v := &ContactView{
		st:          s,
		principalID: principalID,
		ordering:    ordering,
	}
	v.liveView = newLiveView(s.Contacts, v.buildQuery)

	if err := v.open(ctx); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *ContactView) buildQuery() store.Query[domain.Contact] {
	v.optMu.Lock()
	ordering := v.ordering
	v.optMu.Unlock()

	col := newCollator()

	var less func(a, b *domain.Contact) bool
	switch ordering {
	case OrderNameAsc:
		less = func(a, b *domain.Contact) bool { return col.CompareString(a.Name, b.Name) < 0 }
	case OrderNameDesc:
		less = func(a, b *domain.Contact) bool { return col.CompareString(a.Name, b.Name) > 0 }
	case OrderCreatedDesc:
		less = func(a, b *domain.Contact) bool { return a.CreatedAt.After(b.CreatedAt) }
	default:
		less = func(a, b *domain.Contact) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}

	return store.Query[domain.Contact]{
		Match: store.Eq(func(c *domain.Contact) string { return c.CreatedBy }, v.principalID),
		Less:  less,
	}
}

// Ordering returns the active ordering.
func (v *ContactView) Ordering() Ordering {
	v.optMu.Lock()
	defer v.optMu.Unlock()
	return v.ordering
}

// ContactInput carries the fields for a new contact. Only Name is
// required; empty optional fields are stripped before the write.
type ContactInput struct {
	Name     string
	Email    string
	Phones   []string
	Birthday string
	Company  string
}

// AddItem validates and writes a new contact. As with todos, the local
// snapshot is not updated; the subscription delivers the new state.
func (v *ContactView) AddItem(ctx context.Context, in ContactInput) (*domain.Contact, error) {
	return CreateContact(ctx, v.st, v.principalID, in)
}

// DeleteItem deletes by identifier; deleting an absent id is a no-op,
// and deleting another principal's contact is Forbidden.
func (v *ContactView) DeleteItem(ctx context.Context, contactID string) error {
	return DeleteContact(ctx, v.st, v.principalID, contactID)
}

// CreateContact is the write path shared by the live view and the
// one-shot API: sanitize, validate, write through.
func CreateContact(ctx context.Context, s *store.Store, principalID string, in ContactInput) (*domain.Contact, error) {
	if principalID == "" {
		return nil, errors.Forbidden("not signed in")
	}

	contactID, err := id.Generate("contact")
	if err != nil {
		return nil, errors.Internal("generate id").WithCause(err)
	}

	now := time.Now().UTC()
	contact := &domain.Contact{
		ID:        contactID,
		Name:      in.Name,
		Email:     in.Email,
		Phones:    in.Phones,
		Birthday:  in.Birthday,
		Company:   in.Company,
		CreatedBy: principalID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	contact.Sanitize()
	if contact.Name == "" {
		return nil, errors.Validation("contact name cannot be empty")
	}
	if err := contact.Validate(); err != nil {
		return nil, errors.Validation(err.Error())
	}

	if err := s.Contacts.Create(ctx, contact.ID, contact); err != nil {
		return nil, mapStoreErr(err)
	}
	return contact, nil
}

// DeleteContact deletes one of the principal's contacts; an absent id
// is a no-op and a foreign contact is Forbidden.
func DeleteContact(ctx context.Context, s *store.Store, principalID, contactID string) error {
	if principalID == "" {
		return errors.Forbidden("not signed in")
	}

	existing, err := s.Contacts.Get(ctx, contactID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil
		}
		return mapStoreErr(err)
	}
	if existing.CreatedBy != principalID {
		return errors.Forbidden("not your contact")
	}

	if err := s.Contacts.Delete(ctx, contactID); err != nil {
		return mapStoreErr(err)
	}
	return nil
}

// ChangeOrdering tears down the subscription and reopens it with the
// new ordering.
func (v *ContactView) ChangeOrdering(ctx context.Context, ordering Ordering) error {
	v.optMu.Lock()
	v.ordering = ordering
	v.optMu.Unlock()
	return v.resubscribe(ctx)
}
