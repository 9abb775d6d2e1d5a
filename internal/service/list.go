package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/daylistapp/daylist-server/internal/domain"
	"github.com/daylistapp/daylist-server/internal/errors"
	"github.com/daylistapp/daylist-server/internal/id"
	"github.com/daylistapp/daylist-server/internal/store"
	"github.com/daylistapp/daylist-server/internal/view"
)

// ListService manages list lifecycle and membership.
type ListService struct {
	store      *store.Store
	authorizer *view.Authorizer
	activity   *ActivityService
	logger     *slog.Logger
}

// NewListService creates a new list service.
func NewListService(st *store.Store, authorizer *view.Authorizer, activity *ActivityService, logger *slog.Logger) *ListService {
	return &ListService{
		store:      st,
		authorizer: authorizer,
		activity:   activity,
		logger:     logger,
	}
}

// CreateListRequest contains the fields for a new list.
type CreateListRequest struct {
	Name          string   `json:"name" validate:"required"`
	Collaborators []string `json:"collaborators"`
}

// CreateList creates a list owned by the principal. The creator is
// always a collaborator, deduplicated against the input, so the
// created-by-is-collaborator invariant holds from the first write.
func (s *ListService) CreateList(ctx context.Context, principalID string, req CreateListRequest) (*domain.List, error) {
	if principalID == "" {
		return nil, errors.Validation("not signed in")
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	// Unknown collaborator ids would make the list undeleteable noise;
	// reject them up front.
	for _, collaboratorID := range req.Collaborators {
		if strings.TrimSpace(collaboratorID) == "" {
			continue
		}
		if _, err := s.store.Users.Get(ctx, collaboratorID); err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				return nil, errors.Validationf("unknown collaborator %q", collaboratorID)
			}
			return nil, fmt.Errorf("check collaborator: %w", err)
		}
	}

	listID, err := id.Generate("list")
	if err != nil {
		return nil, fmt.Errorf("generate list ID: %w", err)
	}

	list := domain.NewList(listID, req.Name, principalID, req.Collaborators)
	if err := s.store.Lists.Create(ctx, list.ID, list); err != nil {
		return nil, fmt.Errorf("create list: %w", err)
	}

	s.activity.Record(ctx, &domain.Activity{
		ActorID: principalID,
		Verb:    domain.VerbListCreated,
		ListID:  list.ID,
		Summary: fmt.Sprintf("created list %q", list.Name),
	})

	s.logger.Info("List created", "list_id", list.ID, "created_by", principalID)
	return list, nil
}

// GetList returns a list the principal is authorized to read.
func (s *ListService) GetList(ctx context.Context, principalID, listID string) (*domain.List, error) {
	return s.authorizer.Authorize(ctx, listID, principalID)
}

// ListsFor returns every list the principal collaborates on, sorted by
// creation time descending.
func (s *ListService) ListsFor(ctx context.Context, principalID string) ([]*domain.List, error) {
	if principalID == "" {
		return nil, errors.Forbidden("not signed in")
	}

	return s.store.Lists.Find(ctx, store.Query[domain.List]{
		Match: store.Contains(func(l *domain.List) []string { return l.Collaborators }, principalID),
		Less:  func(a, b *domain.List) bool { return a.CreatedAt.After(b.CreatedAt) },
	})
}

// DeleteList removes a list. Only the creator may delete, and the
// caller must pass confirm=true: deletion is destructive and
// irreversible. Todos under the list are not cascaded; they become
// unreachable through any authorized view and are reclaimed by the
// janitor sweep.
func (s *ListService) DeleteList(ctx context.Context, principalID, listID string, confirm bool) error {
	list, err := s.authorizer.Authorize(ctx, listID, principalID)
	if err != nil {
		return err
	}
	if list.CreatedBy != principalID {
		return errors.Forbidden("only the list creator can delete it")
	}
	if !confirm {
		return errors.Validation("deletion must be confirmed")
	}

	if err := s.store.Lists.Delete(ctx, listID); err != nil {
		return fmt.Errorf("delete list: %w", err)
	}

	s.activity.Record(ctx, &domain.Activity{
		ActorID: principalID,
		Verb:    domain.VerbListDeleted,
		ListID:  listID,
		Summary: fmt.Sprintf("deleted list %q", list.Name),
	})

	s.logger.Info("List deleted", "list_id", listID, "deleted_by", principalID)
	return nil
}
