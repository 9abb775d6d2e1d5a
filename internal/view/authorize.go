// Package view implements the authorization-and-sync core: gate a
// principal's access to a shared list, then keep an ordered projection
// of its items live until the view is closed.
package view

import (
	"context"

	"github.com/daylistapp/daylist-server/internal/domain"
	"github.com/daylistapp/daylist-server/internal/errors"
	"github.com/daylistapp/daylist-server/internal/store"
)

// Authorizer decides whether a principal may read and write a list.
type Authorizer struct {
	store *store.Store
}

// NewAuthorizer creates an authorizer over the given store.
func NewAuthorizer(s *store.Store) *Authorizer {
	return &Authorizer{store: s}
}

// Authorize fetches the list once and tests collaborator membership.
// On success it returns the list itself, so callers get the display
// name without a second fetch.
//
// The result is advisory at call time, never a capability: collaborator
// lists change, so every mutation re-runs this check instead of caching
// an earlier answer.
//
// An absent principal is always Forbidden, never NotFound, so an
// unauthenticated caller cannot probe which lists exist.
func (a *Authorizer) Authorize(ctx context.Context, listID, principalID string) (*domain.List, error) {
	if principalID == "" {
		return nil, errors.Forbidden("not signed in")
	}

	list, err := a.store.Lists.Get(ctx, listID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.NotFound("list not found")
		}
		return nil, mapStoreErr(err)
	}

	if !list.HasCollaborator(principalID) {
		return nil, errors.Forbidden("not a collaborator on this list")
	}

	return list, nil
}

// mapStoreErr converts raw storage failures into the unavailable
// error surfaced to users as retry-later. Already-coded errors pass
// through unchanged.
func mapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	var coded *errors.Error
	if errors.As(err, &coded) {
		return err
	}
	return errors.Unavailable("store unavailable").WithCause(err)
}
