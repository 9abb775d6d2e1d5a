package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/daylistapp/daylist-server/internal/activity"
	"github.com/daylistapp/daylist-server/internal/domain"
	"github.com/daylistapp/daylist-server/internal/errors"
	"github.com/daylistapp/daylist-server/internal/store"
)

// ActivityService records and serves the mutation audit feed.
type ActivityService struct {
	log    *activity.Log
	store  *store.Store
	logger *slog.Logger
}

// NewActivityService creates a new activity service.
func NewActivityService(log *activity.Log, s *store.Store, logger *slog.Logger) *ActivityService {
	return &ActivityService{log: log, store: s, logger: logger}
}

// Record appends an activity entry. Best-effort: a failed audit write
// is logged and swallowed so it never fails the mutation it records.
func (s *ActivityService) Record(ctx context.Context, a *domain.Activity) {
	if err := s.log.Record(ctx, a); err != nil {
		s.logger.Warn("Failed to record activity",
			"verb", string(a.Verb),
			"actor_id", a.ActorID,
			"error", err,
		)
	}
}

// Feed returns the feed visible to the principal, newest first, with
// cursor pagination. Visibility follows list membership: activity on
// lists the principal collaborates on, plus their own contact
// activity. Lists the principal cannot read never appear, not even by
// name.
func (s *ActivityService) Feed(ctx context.Context, principalID string, limit int, before *time.Time, beforeID int64) ([]*domain.Activity, error) {
	if principalID == "" {
		return nil, errors.Forbidden("not signed in")
	}

	lists, err := s.store.Lists.Find(ctx, store.Query[domain.List]{
		Match: store.Contains(func(l *domain.List) []string { return l.Collaborators }, principalID),
	})
	if err != nil {
		return nil, err
	}
	listIDs := make([]string, len(lists))
	for i, l := range lists {
		listIDs[i] = l.ID
	}

	return s.log.FeedFor(ctx, principalID, listIDs, limit, before, beforeID)
}

// FeedForList returns the feed scoped to one list. The caller is
// expected to have authorized the principal against the list already.
func (s *ActivityService) FeedForList(ctx context.Context, listID string, limit int) ([]*domain.Activity, error) {
	return s.log.FeedForList(ctx, listID, limit)
}

// FeedForActor returns the principal's own activity.
func (s *ActivityService) FeedForActor(ctx context.Context, principalID string, limit int) ([]*domain.Activity, error) {
	if principalID == "" {
		return nil, errors.Forbidden("not signed in")
	}
	return s.log.FeedForActor(ctx, principalID, limit)
}
