package providers

import (
	"github.com/samber/do/v2"

	"github.com/daylistapp/daylist-server/internal/auth"
	"github.com/daylistapp/daylist-server/internal/config"
	"github.com/daylistapp/daylist-server/internal/logger"
	"github.com/daylistapp/daylist-server/internal/service"
	"github.com/daylistapp/daylist-server/internal/session"
	"github.com/daylistapp/daylist-server/internal/view"
)

// ProvideSessionGates provides the registry of per-user session gates.
func ProvideSessionGates(i do.Injector) (*session.Manager, error) {
	return session.NewManager(), nil
}

// ProvideNameCache provides the persisted greeting-name cache.
func ProvideNameCache(i do.Injector) (*session.NameCache, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return session.NewNameCache(cfg.Data.BasePath), nil
}

// ProvideAuthorizer provides the list access authorizer.
func ProvideAuthorizer(i do.Injector) (*view.Authorizer, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	return view.NewAuthorizer(storeHandle.Store), nil
}

// ProvideSessionService provides the session service.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	gates := do.MustInvoke[*session.Manager](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewSessionService(storeHandle.Store, tokenService, gates, log.Logger)

	// Revoked sessions drop the user's event streams.
	svc.OnRevoke(sseHandle.DisconnectUser)

	return svc, nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	limiterHandle := do.MustInvoke[*LoginLimiterHandle](i)
	names := do.MustInvoke[*session.NameCache](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(
		storeHandle.Store,
		tokenService,
		sessionService,
		limiterHandle.KeyedRateLimiter,
		names,
		log.Logger,
	), nil
}

// ProvideActivityService provides the activity feed service.
func ProvideActivityService(i do.Injector) (*service.ActivityService, error) {
	logHandle := do.MustInvoke[*ActivityLogHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewActivityService(logHandle.Log, storeHandle.Store, log.Logger), nil
}

// ProvideListService provides the shared list service.
func ProvideListService(i do.Injector) (*service.ListService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	authorizer := do.MustInvoke[*view.Authorizer](i)
	activityService := do.MustInvoke[*service.ActivityService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewListService(storeHandle.Store, authorizer, activityService, log.Logger), nil
}

// ProvideTodoService provides the todo item service.
func ProvideTodoService(i do.Injector) (*service.TodoService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	authorizer := do.MustInvoke[*view.Authorizer](i)
	activityService := do.MustInvoke[*service.ActivityService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTodoService(storeHandle.Store, authorizer, activityService, log.Logger), nil
}

// ProvideContactService provides the contact book service.
func ProvideContactService(i do.Injector) (*service.ContactService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*ContactIndexHandle](i)
	activityService := do.MustInvoke[*service.ActivityService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewContactService(storeHandle.Store, indexHandle.ContactIndex, activityService, log.Logger), nil
}
