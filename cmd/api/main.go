// Package main provides the entry point for the DayList server application.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/daylistapp/daylist-server/internal/di"
	"github.com/daylistapp/daylist-server/internal/di/providers"
	"github.com/daylistapp/daylist-server/internal/logger"
)

func main() {
	// Create DI container
	injector := di.NewContainer()

	// Bootstrap all services
	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap server: %v\n", err)
		os.Exit(1)
	}

	// Get logger for shutdown messages
	log := do.MustInvoke[*logger.Logger](injector)

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	// Shutdown all services in reverse order
	// The DI container handles shutdown order automatically
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}

	// The store, activity log and search index use wrapper types, so
	// close them explicitly after the container unwinds.
	if storeHandle, err := do.Invoke[*providers.StoreHandle](injector); err == nil {
		log.Info("Closing document store...")
		if err := storeHandle.Shutdown(); err != nil {
			log.Error("Failed to close document store", "error", err)
		}
	}

	if logHandle, err := do.Invoke[*providers.ActivityLogHandle](injector); err == nil {
		log.Info("Closing activity log...")
		if err := logHandle.Shutdown(); err != nil {
			log.Error("Failed to close activity log", "error", err)
		}
	}

	if indexHandle, err := do.Invoke[*providers.ContactIndexHandle](injector); err == nil {
		log.Info("Closing search index...")
		if err := indexHandle.Shutdown(); err != nil {
			log.Error("Failed to close search index", "error", err)
		}
	}

	log.Info("Goodbye")
}
