package backup

import (
	"archive/zip"
	"context"
	"fmt"

	"encoding/json/v2"

	"github.com/daylistapp/daylist-server/internal/activity"
	"github.com/daylistapp/daylist-server/internal/domain"
	"github.com/daylistapp/daylist-server/internal/errors"
	"github.com/daylistapp/daylist-server/internal/store"
)

// RestoreOptions configures a restore operation.
type RestoreOptions struct {
	// Force restores into a store that already has users. Existing
	// documents with colliding ids fail the restore.
	Force bool
}

// Importer restores backup archives into the document store and the
// activity log.
type Importer struct {
	store       *store.Store
	activityLog *activity.Log
}

// NewImporter creates an Importer. The activity log may be nil, in
// which case activity rows in the archive are skipped.
func NewImporter(s *store.Store, log *activity.Log) *Importer {
	return &Importer{store: s, activityLog: log}
}

// Restore reads a backup archive and writes its documents into the
// store. Sessions are never backed up; every user signs in again after
// a restore.
func (im *Importer) Restore(ctx context.Context, archivePath string, opts RestoreOptions) (*EntityCounts, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open backup: %w", err)
	}
	defer zr.Close()

	manifest, err := readManifest(zr)
	if err != nil {
		return nil, err
	}
	if manifest.FormatVersion != FormatVersion {
		return nil, errors.Validationf("unsupported backup format %q", manifest.FormatVersion)
	}

	if !opts.Force {
		hasUsers, err := im.store.HasUsers(ctx)
		if err != nil {
			return nil, err
		}
		if hasUsers {
			return nil, errors.Conflict("store already has users, pass force to restore anyway")
		}
	}

	var counts EntityCounts

	counts.Users, err = restoreDocs[domain.User](ctx, zr, usersPath, func(u *domain.User) error {
		return im.store.Users.Create(ctx, u.ID, u)
	})
	if err != nil {
		return nil, fmt.Errorf("restore users: %w", err)
	}

	counts.Lists, err = restoreDocs[domain.List](ctx, zr, listsPath, func(l *domain.List) error {
		return im.store.Lists.Create(ctx, l.ID, l)
	})
	if err != nil {
		return nil, fmt.Errorf("restore lists: %w", err)
	}

	counts.Todos, err = restoreDocs[domain.Todo](ctx, zr, todosPath, func(t *domain.Todo) error {
		return im.store.Todos.Create(ctx, t.ID, t)
	})
	if err != nil {
		return nil, fmt.Errorf("restore todos: %w", err)
	}

	counts.Contacts, err = restoreDocs[domain.Contact](ctx, zr, contactsPath, func(c *domain.Contact) error {
		return im.store.Contacts.Create(ctx, c.ID, c)
	})
	if err != nil {
		return nil, fmt.Errorf("restore contacts: %w", err)
	}

	if manifest.IncludesActivity && im.activityLog != nil {
		counts.Activities, err = restoreDocs[domain.Activity](ctx, zr, activitiesPath, func(a *domain.Activity) error {
			// The log reassigns ids; ordering is preserved by created_at.
			a.ID = 0
			return im.activityLog.Record(ctx, a)
		})
		if err != nil {
			return nil, fmt.Errorf("restore activities: %w", err)
		}
	}

	return &counts, nil
}

// restoreDocs streams one JSONL member and writes each decoded entity.
// A missing member counts as zero entities, so newer servers read older
// archives.
func restoreDocs[T any](ctx context.Context, zr *zip.ReadCloser, path string, create func(*T) error) (int, error) {
	seq, err := readJSONL[T](zr, path)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}

	count := 0
	for entity, err := range seq {
		if err != nil {
			return count, err
		}
		if ctx.Err() != nil {
			return count, ctx.Err()
		}
		if err := create(&entity); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func readManifest(zr *zip.ReadCloser) (*Manifest, error) {
	rc, err := openFile(zr, manifestPath)
	if err != nil {
		return nil, errors.Validation("backup has no manifest").WithCause(err)
	}
	defer rc.Close()

	var manifest Manifest
	if err := json.UnmarshalRead(rc, &manifest); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &manifest, nil
}
