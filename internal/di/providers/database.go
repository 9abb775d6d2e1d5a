package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/daylistapp/daylist-server/internal/activity"
	"github.com/daylistapp/daylist-server/internal/config"
	"github.com/daylistapp/daylist-server/internal/logger"
	"github.com/daylistapp/daylist-server/internal/sse"
	"github.com/daylistapp/daylist-server/internal/store"
	"github.com/daylistapp/daylist-server/internal/view"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Logger)

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the document store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	dbPath := cfg.Data.StorePath()
	db, err := store.New(dbPath, log.Logger, sseHandle.Manager)
	if err != nil {
		return nil, err
	}

	log.Info("Document store initialized", "path", dbPath)

	// Todo events are filtered per-client based on list membership.
	authorizer := view.NewAuthorizer(db)
	sseHandle.SetListAccessChecker(func(ctx context.Context, userID, listID string) bool {
		if _, err := authorizer.Authorize(ctx, listID, userID); err != nil {
			return false
		}
		return true
	})

	return &StoreHandle{Store: db}, nil
}

// ActivityLogHandle wraps the activity log with shutdown capability.
type ActivityLogHandle struct {
	*activity.Log
}

// Shutdown implements do.Shutdownable.
func (h *ActivityLogHandle) Shutdown() error {
	return h.Close()
}

// ProvideActivityLog provides the SQLite-backed activity log.
func ProvideActivityLog(i do.Injector) (*ActivityLogHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	activityLog, err := activity.Open(cfg.Data.ActivityPath(), log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Activity log opened", "path", cfg.Data.ActivityPath())

	return &ActivityLogHandle{Log: activityLog}, nil
}
