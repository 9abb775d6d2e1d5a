package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/daylistapp/daylist-server/internal/config"
	"github.com/daylistapp/daylist-server/internal/domain"
	"github.com/daylistapp/daylist-server/internal/logger"
	"github.com/daylistapp/daylist-server/internal/search"
)

// ContactIndexHandle wraps the search index with shutdown capability.
type ContactIndexHandle struct {
	*search.ContactIndex
}

// Shutdown implements do.Shutdownable.
func (h *ContactIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideContactIndex provides the Bleve contact search index and wires
// it to the store so writes are indexed automatically.
func ProvideContactIndex(i do.Injector) (*ContactIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	index, err := search.Open(cfg.Data.SearchPath(), log.Logger)
	if err != nil {
		return nil, err
	}

	storeHandle.SetContactIndexer(index)

	docCount, _ := index.DocumentCount()
	log.Info("Contact search index initialized", "documents", docCount)

	return &ContactIndexHandle{ContactIndex: index}, nil
}

// TriggerContactReindexIfNeeded rebuilds the search index from the
// store when the index is empty but contacts exist, which happens after
// a mapping version bump. Should be called after all services are wired.
func TriggerContactReindexIfNeeded(i do.Injector) {
	indexHandle := do.MustInvoke[*ContactIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	docCount, _ := indexHandle.DocumentCount()
	if docCount > 0 {
		return
	}

	ctx := context.Background()
	var contacts []*domain.Contact
	for contact, err := range storeHandle.Contacts.All(ctx) {
		if err != nil {
			log.Warn("Contact scan failed, skipping reindex", "error", err)
			return
		}
		contacts = append(contacts, contact)
	}
	if len(contacts) == 0 {
		return
	}

	log.Info("Search index is empty but contacts exist, triggering reindex",
		"contact_count", len(contacts),
	)

	go func() {
		if err := indexHandle.Rebuild(contacts); err != nil {
			log.Error("Contact reindex failed", "error", err)
		} else {
			count, _ := indexHandle.DocumentCount()
			log.Info("Contact reindex completed", "documents", count)
		}
	}()
}
