// Package main provides an offline backup tool for the DayList data
// directory. Run it while the server is stopped; the document store is
// opened exclusively.
//
// Usage:
//
//	DATA_PATH=~/DayList/data go run ./cmd/backup -create
//	DATA_PATH=~/DayList/data go run ./cmd/backup -list
//	DATA_PATH=~/DayList/data go run ./cmd/backup -restore backup-2026-08-31-120000
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/daylistapp/daylist-server/internal/activity"
	"github.com/daylistapp/daylist-server/internal/backup"
	"github.com/daylistapp/daylist-server/internal/store"
)

var (
	create       = flag.Bool("create", false, "Create a new backup")
	list         = flag.Bool("list", false, "List available backups")
	restore      = flag.String("restore", "", "Restore the backup with this ID")
	force        = flag.Bool("force", false, "Restore even if the store already has users")
	skipActivity = flag.Bool("skip-activity", false, "Exclude the activity feed from the backup")
)

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/DayList/data")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	s, err := store.New(filepath.Join(dataPath, "store"), logger, store.NoopEmitter{})
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer s.Close()

	activityLog, err := activity.Open(filepath.Join(dataPath, "activity.db"), logger)
	if err != nil {
		log.Fatalf("Failed to open activity log: %v", err)
	}
	defer activityLog.Close()

	svc := backup.NewService(s, activityLog, filepath.Join(dataPath, "backups"), "DayList Server", "dev", logger)
	ctx := context.Background()

	switch {
	case *create:
		result, err := svc.Create(ctx, backup.ExportOptions{IncludeActivity: !*skipActivity})
		if err != nil {
			log.Fatalf("Backup failed: %v", err)
		}
		fmt.Printf("Backup written to %s (%d bytes, sha256 %s)\n", result.Path, result.Size, result.Checksum)
		fmt.Printf("  users=%d lists=%d todos=%d contacts=%d activities=%d\n",
			result.Counts.Users, result.Counts.Lists, result.Counts.Todos,
			result.Counts.Contacts, result.Counts.Activities)

	case *list:
		backups, err := svc.List(ctx)
		if err != nil {
			log.Fatalf("Failed to list backups: %v", err)
		}
		if len(backups) == 0 {
			fmt.Println("No backups found")
			return
		}
		for _, b := range backups {
			fmt.Printf("%s  %d bytes  %s\n", b.ID, b.Size, b.CreatedAt.Format("2006-01-02 15:04:05"))
		}

	case *restore != "":
		counts, err := svc.Restore(ctx, *restore, backup.RestoreOptions{Force: *force})
		if err != nil {
			log.Fatalf("Restore failed: %v", err)
		}
		fmt.Printf("Restored users=%d lists=%d todos=%d contacts=%d activities=%d\n",
			counts.Users, counts.Lists, counts.Todos, counts.Contacts, counts.Activities)
		fmt.Println("Note: the contact search index rebuilds on next server start")

	default:
		flag.Usage()
		os.Exit(2)
	}
}
