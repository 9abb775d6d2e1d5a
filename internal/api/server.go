// Package api provides the HTTP API server and handlers for the DayList application.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/daylistapp/daylist-server/internal/http/response"
	"github.com/daylistapp/daylist-server/internal/service"
	"github.com/daylistapp/daylist-server/internal/sse"
	"github.com/daylistapp/daylist-server/internal/store"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           *store.Store
	authService     *service.AuthService
	sessionService  *service.SessionService
	listService     *service.ListService
	todoService     *service.TodoService
	contactService  *service.ContactService
	activityService *service.ActivityService
	sseManager      *sse.Manager
	sseHandler      *sse.Handler
	router          *chi.Mux
	logger          *slog.Logger
}

// Services bundles everything the HTTP layer depends on.
type Services struct {
	Auth     *service.AuthService
	Sessions *service.SessionService
	Lists    *service.ListService
	Todos    *service.TodoService
	Contacts *service.ContactService
	Activity *service.ActivityService
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st *store.Store, services Services, sseManager *sse.Manager, logger *slog.Logger) *Server {
	s := &Server{
		store:           st,
		authService:     services.Auth,
		sessionService:  services.Sessions,
		listService:     services.Lists,
		todoService:     services.Todos,
		contactService:  services.Contacts,
		activityService: services.Activity,
		sseManager:      sseManager,
		sseHandler:      sse.NewHandler(sseManager, logger),
		router:          chi.NewRouter(),
		logger:          logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check.
	s.router.Get("/health", s.handleHealthCheck)

	// API v1.
	s.router.Route("/api/v1", func(r chi.Router) {
		// Auth endpoints (public).
		r.Route("/auth", func(r chi.Router) {
			r.Get("/status", s.handleAuthStatus)
			r.Post("/setup", s.handleSetup)
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.Post("/refresh", s.handleRefresh)
			r.Post("/logout", s.handleLogout)
		})

		// Protected user endpoints.
		r.Route("/users", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/", s.handleListUsers)
			r.Get("/me", s.handleGetCurrentUser)
			r.Get("/me/sessions", s.handleListSessions)
		})

		// Lists (require auth for ACL).
		r.Route("/lists", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/", s.handleCreateList)
			r.Get("/", s.handleListLists)
			r.Get("/{id}", s.handleGetList)
			r.Delete("/{id}", s.handleDeleteList)
			r.Get("/{id}/activity", s.handleListActivity)

			r.Route("/{id}/todos", func(r chi.Router) {
				r.Get("/", s.handleListTodos)
				r.Post("/", s.handleAddTodo)
				r.Post("/{todoID}/toggle", s.handleToggleTodo)
				r.Delete("/{todoID}", s.handleDeleteTodo)
			})
		})

		// Contacts (require auth, always scoped to the caller).
		r.Route("/contacts", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/", s.handleAddContact)
			r.Get("/", s.handleListContacts)
			r.Get("/search", s.handleSearchContacts)
			r.Delete("/{id}", s.handleDeleteContact)
		})

		// Activity feed (require auth).
		r.Route("/activity", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/", s.handleActivityFeed)
			r.Get("/mine", s.handleMyActivity)
		})

		// Event stream (require auth).
		r.With(s.requireAuth).Get("/stream", s.handleStream)
	})
}

// handleHealthCheck returns server health status.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"status": "healthy",
	}, s.logger)
}

// handleStream upgrades the request to a server-sent event stream for
// the authenticated user.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	// Bind the stream to its session: revoking the session cancels the
	// stream even while the user has other sessions open.
	if sessionID := getSessionID(r.Context()); sessionID != "" {
		if reg := s.sessionService.Gates().Registry(sessionID); reg != nil {
			streamCtx, cancel := context.WithCancel(r.Context())
			defer cancel()
			release := reg.Add(cancel)
			defer release()
			r = r.WithContext(streamCtx)
		}
	}

	s.sseHandler.Serve(w, r, userID)
}
