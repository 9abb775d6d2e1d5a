// Package backup creates and restores archives of the DayList data
// set. An archive is a zip of JSONL members, one per document kind,
// plus a manifest with counts and a format version. Sessions are never
// included; they are credentials, not data.
package backup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/daylistapp/daylist-server/internal/activity"
	"github.com/daylistapp/daylist-server/internal/errors"
	"github.com/daylistapp/daylist-server/internal/store"
)

// archiveSuffix names backup files on disk.
const archiveSuffix = ".daylist.zip"

// Info describes one backup on disk.
type Info struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Service manages backup creation, listing and restore against one
// backup directory.
type Service struct {
	exporter  *Exporter
	importer  *Importer
	backupDir string
	logger    *slog.Logger
}

// NewService creates a Service.
func NewService(s *store.Store, log *activity.Log, backupDir, serverName, version string, logger *slog.Logger) *Service {
	return &Service{
		exporter:  NewExporter(s, log, serverName, version),
		importer:  NewImporter(s, log),
		backupDir: backupDir,
		logger:    logger,
	}
}

// Create creates a new backup in the backup directory.
func (s *Service) Create(ctx context.Context, opts ExportOptions) (*Result, error) {
	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}

	if opts.OutputPath == "" {
		timestamp := time.Now().Format("2006-01-02-150405")
		opts.OutputPath = filepath.Join(s.backupDir, "backup-"+timestamp+archiveSuffix)
	}

	s.logger.Info("creating backup",
		"output", opts.OutputPath,
		"include_activity", opts.IncludeActivity)

	result, err := s.exporter.Export(ctx, opts)
	if err != nil {
		return nil, err
	}

	s.logger.Info("backup complete",
		"path", result.Path,
		"size", result.Size,
		"duration", result.Duration,
		"checksum", result.Checksum)

	return result, nil
}

// Restore loads a backup by ID into the store.
func (s *Service) Restore(ctx context.Context, id string, opts RestoreOptions) (*EntityCounts, error) {
	info, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("restoring backup", "path", info.Path, "force", opts.Force)

	counts, err := s.importer.Restore(ctx, info.Path, opts)
	if err != nil {
		return nil, err
	}

	s.logger.Info("restore complete",
		"users", counts.Users,
		"lists", counts.Lists,
		"todos", counts.Todos,
		"contacts", counts.Contacts,
		"activities", counts.Activities)

	return counts, nil
}

// List returns all available backups, newest first.
func (s *Service) List(ctx context.Context) ([]Info, error) {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var backups []Info
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), archiveSuffix) {
			continue
		}

		fi, err := entry.Info()
		if err != nil {
			continue
		}

		backups = append(backups, Info{
			ID:        strings.TrimSuffix(entry.Name(), archiveSuffix),
			Path:      filepath.Join(s.backupDir, entry.Name()),
			Size:      fi.Size(),
			CreatedAt: fi.ModTime(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})

	return backups, nil
}

// Get returns a backup by ID.
func (s *Service) Get(_ context.Context, id string) (*Info, error) {
	path := filepath.Join(s.backupDir, id+archiveSuffix)

	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundf("backup %q not found", id)
		}
		return nil, err
	}

	return &Info{
		ID:        id,
		Path:      path,
		Size:      fi.Size(),
		CreatedAt: fi.ModTime(),
	}, nil
}

// Delete removes a backup.
func (s *Service) Delete(ctx context.Context, id string) error {
	info, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return os.Remove(info.Path)
}
