// Package main provides an offline maintenance tool for the DayList
// data directory.
//
// Deleting a list intentionally leaves its todos and activity rows in
// place so the operation stays cheap and reversible from backups. This
// tool sweeps those orphans and drops expired sessions. Run it while
// the server is stopped.
//
// Usage:
//
//	DATA_PATH=~/DayList/data go run ./cmd/janitor
//	DATA_PATH=~/DayList/data go run ./cmd/janitor --dry-run
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
	"github.com/daylistapp/daylist-server/internal/store"
)

var dryRun = flag.Bool("dry-run", false, "Report what would be deleted without deleting")

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/DayList/data")
	}

	logger := slog.New(slog.DiscardHandler)

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

	ctx := context.Background()

	// Collect live list ids.
	listIDs := map[string]bool{}
	for list, err := range s.Lists.All(ctx) {
		if err != nil {
			log.Fatalf("Failed to scan lists: %v", err)
		}
		listIDs[list.ID] = true
	}

	// Find todos whose list no longer exists.
	orphans := map[string][]string{}
	for todo, err := range s.Todos.All(ctx) {
		if err != nil {
			log.Fatalf("Failed to scan todos: %v", err)
		}
		if !listIDs[todo.ListID] {
			orphans[todo.ListID] = append(orphans[todo.ListID], todo.ID)
		}
	}

	swept := 0
	for listID, todoIDs := range orphans {
		fmt.Printf("List %s is gone, %d orphaned todos\n", listID, len(todoIDs))
		if *dryRun {
			continue
		}
		for _, todoID := range todoIDs {
			if err := s.Todos.Delete(ctx, todoID); err != nil {
				log.Fatalf("Failed to delete todo %s: %v", todoID, err)
			}
			swept++
		}
		purged, err := activityLog.PurgeForList(ctx, listID)
		if err != nil {
			log.Fatalf("Failed to purge activity for %s: %v", listID, err)
		}
		fmt.Printf("  purged %d activity rows\n", purged)
	}

	expired := 0
	if !*dryRun {
		expired, err = s.DeleteExpiredSessions(ctx)
		if err != nil {
			log.Fatalf("Failed to delete expired sessions: %v", err)
		}
	}

	if *dryRun {
		fmt.Println("Dry run, nothing deleted")
		return
	}
	fmt.Printf("Done: %d todos swept, %d sessions expired\n", swept, expired)
}
