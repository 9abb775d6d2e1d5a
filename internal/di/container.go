// Package di provides dependency injection configuration for the DayList server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/daylistapp/daylist-server/internal/auth"
	"github.com/daylistapp/daylist-server/internal/config"
	"github.com/daylistapp/daylist-server/internal/di/providers"
	"github.com/daylistapp/daylist-server/internal/logger"
	"github.com/daylistapp/daylist-server/internal/service"
	"github.com/daylistapp/daylist-server/internal/session"
	"github.com/daylistapp/daylist-server/internal/view"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Storage layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideActivityLog)
	do.Provide(injector, providers.ProvideContactIndex)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvideLoginLimiter)
	do.Provide(injector, providers.ProvideSessionGates)
	do.Provide(injector, providers.ProvideNameCache)

	// Business services
	do.Provide(injector, providers.ProvideAuthorizer)
	do.Provide(injector, providers.ProvideSessionService)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideActivityService)
	do.Provide(injector, providers.ProvideListService)
	do.Provide(injector, providers.ProvideTodoService)
	do.Provide(injector, providers.ProvideContactService)

	// Workers
	do.Provide(injector, providers.ProvideSessionCleanupJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)
	do.Provide(injector, providers.ProvideMDNSService)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.ActivityLogHandle](injector)
	_ = do.MustInvoke[*providers.ContactIndexHandle](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)
	_ = do.MustInvoke[*providers.LoginLimiterHandle](injector)
	_ = do.MustInvoke[*session.Manager](injector)

	// Business services
	_ = do.MustInvoke[*view.Authorizer](injector)
	_ = do.MustInvoke[*service.SessionService](injector)
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.ActivityService](injector)
	_ = do.MustInvoke[*service.ListService](injector)
	_ = do.MustInvoke[*service.TodoService](injector)
	_ = do.MustInvoke[*service.ContactService](injector)

	// Workers
	_ = do.MustInvoke[*providers.SessionCleanupJob](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)
	_ = do.MustInvoke[*providers.MDNSServiceHandle](injector)

	// Rebuild the contact index if a mapping bump emptied it
	providers.TriggerContactReindexIfNeeded(injector)

	return nil
}
