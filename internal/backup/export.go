package backup

import (
	"archive/zip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"encoding/json/v2"

	"github.com/daylistapp/daylist-server/internal/activity"
	"github.com/daylistapp/daylist-server/internal/store"
)

// ExportOptions configures backup creation.
type ExportOptions struct {
	// IncludeActivity also exports the activity feed rows.
	IncludeActivity bool
	OutputPath      string
}

// Result contains the outcome of a backup operation.
type Result struct {
	Path     string
	Size     int64
	Counts   EntityCounts
	Duration time.Duration
	Checksum string
}

// Exporter creates backup archives from the document store and the
// activity log.
type Exporter struct {
	store       *store.Store
	activityLog *activity.Log
	serverName  string
	version     string
}

// NewExporter creates an Exporter. The activity log may be nil, in
// which case activity export is skipped regardless of options.
func NewExporter(s *store.Store, log *activity.Log, serverName, version string) *Exporter {
	return &Exporter{store: s, activityLog: log, serverName: serverName, version: version}
}

// Export creates a backup archive.
func (e *Exporter) Export(ctx context.Context, opts ExportOptions) (*Result, error) {
	start := time.Now()

	// Write to temp file, rename on success (atomic)
	tmpPath := opts.OutputPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("create backup file: %w", err)
	}
	defer os.Remove(tmpPath) // Clean up on failure
	defer f.Close()

	// Tee to SHA-256 hasher
	hash := sha256.New()
	mw := io.MultiWriter(f, hash)
	zw := zip.NewWriter(mw)

	manifest := &Manifest{
		FormatVersion:    FormatVersion,
		CreatedAt:        time.Now().UTC(),
		ServerName:       e.serverName,
		ServerVersion:    e.version,
		IncludesActivity: opts.IncludeActivity && e.activityLog != nil,
	}
	counts := &manifest.Counts

	exportSteps := []struct {
		name string
		fn   func(context.Context, *zip.Writer) (int, error)
		dest *int
	}{
		{"users", e.exportUsers, &counts.Users},
		{"lists", e.exportLists, &counts.Lists},
		{"todos", e.exportTodos, &counts.Todos},
		{"contacts", e.exportContacts, &counts.Contacts},
	}

	for _, step := range exportSteps {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		n, err := step.fn(ctx, zw)
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", step.name, err)
		}
		*step.dest = n
	}

	if manifest.IncludesActivity {
		n, err := e.exportActivities(ctx, zw)
		if err != nil {
			return nil, fmt.Errorf("export activities: %w", err)
		}
		counts.Activities = n
	}

	// Write manifest last (has final counts)
	if err := writeManifest(zw, manifest); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, opts.OutputPath); err != nil {
		return nil, fmt.Errorf("rename backup: %w", err)
	}

	info, err := os.Stat(opts.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("stat backup: %w", err)
	}

	return &Result{
		Path:     opts.OutputPath,
		Size:     info.Size(),
		Counts:   *counts,
		Duration: time.Since(start),
		Checksum: hex.EncodeToString(hash.Sum(nil)),
	}, nil
}

func (e *Exporter) exportUsers(ctx context.Context, zw *zip.Writer) (int, error) {
	w, err := newJSONLWriter(zw, usersPath)
	if err != nil {
		return 0, err
	}
	for user, err := range e.store.Users.All(ctx) {
		if err != nil {
			return 0, err
		}
		if err := w.write(user); err != nil {
			return 0, err
		}
	}
	return w.count, nil
}

func (e *Exporter) exportLists(ctx context.Context, zw *zip.Writer) (int, error) {
	w, err := newJSONLWriter(zw, listsPath)
	if err != nil {
		return 0, err
	}
	for list, err := range e.store.Lists.All(ctx) {
		if err != nil {
			return 0, err
		}
		if err := w.write(list); err != nil {
			return 0, err
		}
	}
	return w.count, nil
}

func (e *Exporter) exportTodos(ctx context.Context, zw *zip.Writer) (int, error) {
	w, err := newJSONLWriter(zw, todosPath)
	if err != nil {
		return 0, err
	}
	for todo, err := range e.store.Todos.All(ctx) {
		if err != nil {
			return 0, err
		}
		if err := w.write(todo); err != nil {
			return 0, err
		}
	}
	return w.count, nil
}

func (e *Exporter) exportContacts(ctx context.Context, zw *zip.Writer) (int, error) {
	w, err := newJSONLWriter(zw, contactsPath)
	if err != nil {
		return 0, err
	}
	for contact, err := range e.store.Contacts.All(ctx) {
		if err != nil {
			return 0, err
		}
		if err := w.write(contact); err != nil {
			return 0, err
		}
	}
	return w.count, nil
}

func (e *Exporter) exportActivities(ctx context.Context, zw *zip.Writer) (int, error) {
	w, err := newJSONLWriter(zw, activitiesPath)
	if err != nil {
		return 0, err
	}
	activities, err := e.activityLog.All(ctx)
	if err != nil {
		return 0, err
	}
	for _, a := range activities {
		if err := w.write(a); err != nil {
			return 0, err
		}
	}
	return w.count, nil
}

func writeManifest(zw *zip.Writer, manifest *Manifest) error {
	w, err := zw.Create(manifestPath)
	if err != nil {
		return err
	}
	return json.MarshalWrite(w, manifest)
}
