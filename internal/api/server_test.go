package api

import (
	"bytes"
	"encoding/hex"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daylistapp/daylist-server/internal/activity"
	"github.com/daylistapp/daylist-server/internal/auth"
	"github.com/daylistapp/daylist-server/internal/http/response"
	"github.com/daylistapp/daylist-server/internal/ratelimit"
	"github.com/daylistapp/daylist-server/internal/search"
	"github.com/daylistapp/daylist-server/internal/service"
	"github.com/daylistapp/daylist-server/internal/session"
	"github.com/daylistapp/daylist-server/internal/sse"
	"github.com/daylistapp/daylist-server/internal/store"
	"github.com/daylistapp/daylist-server/internal/view"
)

type apiFixture struct {
	server *Server
	store  *store.Store
}

func setupAPITest(t *testing.T) *apiFixture {
	t.Helper()

	dir := t.TempDir()
	logger := slog.New(slog.DiscardHandler)

	sseManager := sse.NewManager(logger)

	s, err := store.New(filepath.Join(dir, "db"), logger, sseManager)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	index, err := search.Open(filepath.Join(dir, "search"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	s.SetContactIndexer(index)

	log, err := activity.Open(filepath.Join(dir, "activity.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = log.Close() })

	authKey, err := auth.LoadOrGenerateKey(dir)
	require.NoError(t, err)
	tokenService, err := auth.NewTokenService(hex.EncodeToString(authKey), 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	limiter := ratelimit.New(100, 100)
	t.Cleanup(limiter.Stop)

	gates := session.NewManager()
	authorizer := view.NewAuthorizer(s)

	sessionService := service.NewSessionService(s, tokenService, gates, logger)
	sessionService.OnRevoke(sseManager.DisconnectUser)
	authService := service.NewAuthService(s, tokenService, sessionService, limiter, session.NewNameCache(dir), logger)
	activityService := service.NewActivityService(log, s, logger)
	listService := service.NewListService(s, authorizer, activityService, logger)
	todoService := service.NewTodoService(s, authorizer, activityService, logger)
	contactService := service.NewContactService(s, index, activityService, logger)

	server := NewServer(s, Services{
		Auth:     authService,
		Sessions: sessionService,
		Lists:    listService,
		Todos:    todoService,
		Contacts: contactService,
		Activity: activityService,
	}, sseManager, logger)

	return &apiFixture{server: server, store: s}
}

// doJSON performs a request with an optional body and bearer token and
// decodes the response envelope.
func (f *apiFixture) doJSON(t *testing.T, method, path, token string, body any) (int, response.Envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, req)

	var envelope response.Envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), "body: %s", w.Body.String())
	}
	return w.Code, envelope
}

// setupAccount runs initial setup and returns the auth payload.
func (f *apiFixture) setupAccount(t *testing.T) map[string]any {
	t.Helper()
	code, envelope := f.doJSON(t, http.MethodPost, "/api/v1/auth/setup", "", map[string]string{
		"email":        "alice@example.com",
		"password":     "correct-horse-battery",
		"display_name": "Alice",
	})
	require.Equal(t, http.StatusCreated, code)
	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok)
	return data
}

// registerAccount creates an additional user and returns its auth payload.
func (f *apiFixture) registerAccount(t *testing.T, email, name string) map[string]any {
	t.Helper()
	code, envelope := f.doJSON(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":        email,
		"password":     "another-long-password",
		"display_name": name,
	})
	require.Equal(t, http.StatusCreated, code)
	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok)
	return data
}

func token(data map[string]any) string {
	return data["access_token"].(string)
}

func userID(data map[string]any) string {
	return data["user"].(map[string]any)["id"].(string)
}

func TestHealthCheck(t *testing.T) {
	f := setupAPITest(t)

	code, envelope := f.doJSON(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, envelope.Success)
}

func TestAuthStatus(t *testing.T) {
	f := setupAPITest(t)

	code, envelope := f.doJSON(t, http.MethodGet, "/api/v1/auth/status", "", nil)
	require.Equal(t, http.StatusOK, code)
	data := envelope.Data.(map[string]any)
	assert.False(t, data["configured"].(bool))
	assert.Empty(t, data["greeting_name"])

	f.setupAccount(t)

	code, envelope = f.doJSON(t, http.MethodGet, "/api/v1/auth/status", "", nil)
	require.Equal(t, http.StatusOK, code)
	data = envelope.Data.(map[string]any)
	assert.True(t, data["configured"].(bool))
	assert.Equal(t, "Alice", data["greeting_name"])
}

func TestAuthFlow(t *testing.T) {
	f := setupAPITest(t)

	setup := f.setupAccount(t)
	assert.NotEmpty(t, token(setup))
	assert.NotEmpty(t, setup["refresh_token"])
	assert.Equal(t, true, setup["user"].(map[string]any)["is_root"])

	t.Run("second setup conflicts", func(t *testing.T) {
		code, envelope := f.doJSON(t, http.MethodPost, "/api/v1/auth/setup", "", map[string]string{
			"email":        "eve@example.com",
			"password":     "whatever-password",
			"display_name": "Eve",
		})
		assert.Equal(t, http.StatusConflict, code)
		assert.Equal(t, "ALREADY_CONFIGURED", envelope.Code)
	})

	t.Run("login with wrong password is 401", func(t *testing.T) {
		code, envelope := f.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"email":    "alice@example.com",
			"password": "wrong-password",
		})
		assert.Equal(t, http.StatusUnauthorized, code)
		assert.Equal(t, "INVALID_CREDENTIALS", envelope.Code)
	})

	t.Run("login succeeds", func(t *testing.T) {
		code, envelope := f.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"email":    "alice@example.com",
			"password": "correct-horse-battery",
		})
		assert.Equal(t, http.StatusOK, code)
		data := envelope.Data.(map[string]any)
		assert.NotEmpty(t, data["access_token"])

		// The password hash never appears in responses.
		_, leaked := data["user"].(map[string]any)["password_hash"]
		assert.False(t, leaked)
	})

	t.Run("refresh rotates tokens", func(t *testing.T) {
		code, envelope := f.doJSON(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{
			"refresh_token": setup["refresh_token"].(string),
		})
		require.Equal(t, http.StatusOK, code)
		fresh := envelope.Data.(map[string]any)
		assert.NotEqual(t, setup["refresh_token"], fresh["refresh_token"])

		// The old refresh token is dead.
		code, envelope = f.doJSON(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{
			"refresh_token": setup["refresh_token"].(string),
		})
		assert.Equal(t, http.StatusUnauthorized, code)
		assert.Equal(t, "TOKEN_EXPIRED", envelope.Code)
	})
}

func TestRequireAuth(t *testing.T) {
	f := setupAPITest(t)
	f.setupAccount(t)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"malformed header", "garbage"},
		{"bad token", "Bearer not-a-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/lists/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			f.server.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestListEndpoints(t *testing.T) {
	f := setupAPITest(t)
	alice := f.setupAccount(t)
	bob := f.registerAccount(t, "bob@example.com", "Bob")
	mallory := f.registerAccount(t, "mallory@example.com", "Mallory")

	var listID string

	t.Run("create with deduplicated collaborators", func(t *testing.T) {
		code, envelope := f.doJSON(t, http.MethodPost, "/api/v1/lists/", token(alice), map[string]any{
			"name":          "Groceries",
			"collaborators": []string{userID(bob), userID(alice)},
		})
		require.Equal(t, http.StatusCreated, code)
		list := envelope.Data.(map[string]any)
		listID = list["id"].(string)

		collaborators := list["collaborators"].([]any)
		assert.Equal(t, []any{userID(alice), userID(bob)}, collaborators)
	})

	t.Run("blank name rejected", func(t *testing.T) {
		code, envelope := f.doJSON(t, http.MethodPost, "/api/v1/lists/", token(alice), map[string]any{
			"name": "   ",
		})
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "VALIDATION", envelope.Code)
	})

	t.Run("collaborator can read, outsider cannot", func(t *testing.T) {
		code, _ := f.doJSON(t, http.MethodGet, "/api/v1/lists/"+listID, token(bob), nil)
		assert.Equal(t, http.StatusOK, code)

		code, envelope := f.doJSON(t, http.MethodGet, "/api/v1/lists/"+listID, token(mallory), nil)
		assert.Equal(t, http.StatusForbidden, code)
		assert.Equal(t, "FORBIDDEN", envelope.Code)
	})

	t.Run("unknown list is 404", func(t *testing.T) {
		code, _ := f.doJSON(t, http.MethodGet, "/api/v1/lists/list_missing", token(alice), nil)
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("delete needs confirmation and ownership", func(t *testing.T) {
		code, _ := f.doJSON(t, http.MethodDelete, "/api/v1/lists/"+listID, token(bob), nil)
		assert.Equal(t, http.StatusForbidden, code, "collaborator is not the creator")

		code, _ = f.doJSON(t, http.MethodDelete, "/api/v1/lists/"+listID, token(alice), nil)
		assert.Equal(t, http.StatusBadRequest, code, "missing confirm flag")

		code, _ = f.doJSON(t, http.MethodDelete, "/api/v1/lists/"+listID+"?confirm=true", token(alice), nil)
		assert.Equal(t, http.StatusNoContent, code)
	})
}

func TestTodoEndpoints(t *testing.T) {
	f := setupAPITest(t)
	alice := f.setupAccount(t)

	code, envelope := f.doJSON(t, http.MethodPost, "/api/v1/lists/", token(alice), map[string]any{"name": "Groceries"})
	require.Equal(t, http.StatusCreated, code)
	listID := envelope.Data.(map[string]any)["id"].(string)
	base := "/api/v1/lists/" + listID + "/todos/"

	var todoID string

	t.Run("add", func(t *testing.T) {
		code, envelope := f.doJSON(t, http.MethodPost, base, token(alice), map[string]string{"text": "Milk"})
		require.Equal(t, http.StatusCreated, code)
		todo := envelope.Data.(map[string]any)
		todoID = todo["id"].(string)
		assert.Equal(t, "Milk", todo["text"])
		assert.Equal(t, false, todo["completed"])
	})

	t.Run("empty text rejected", func(t *testing.T) {
		code, _ := f.doJSON(t, http.MethodPost, base, token(alice), map[string]string{"text": "  "})
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("toggle", func(t *testing.T) {
		code, envelope := f.doJSON(t, http.MethodPost, base+todoID+"/toggle", token(alice), nil)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, true, envelope.Data.(map[string]any)["completed"])
	})

	t.Run("list with ordering and filter", func(t *testing.T) {
		_, _ = f.doJSON(t, http.MethodPost, base, token(alice), map[string]string{"text": "Apples"})

		code, envelope := f.doJSON(t, http.MethodGet, base+"?ordering=nameAsc&filter=pending", token(alice), nil)
		require.Equal(t, http.StatusOK, code)
		todos := envelope.Data.([]any)
		require.Len(t, todos, 1)
		assert.Equal(t, "Apples", todos[0].(map[string]any)["text"])
	})

	t.Run("bad ordering rejected", func(t *testing.T) {
		code, _ := f.doJSON(t, http.MethodGet, base+"?ordering=sideways", token(alice), nil)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		code, _ := f.doJSON(t, http.MethodDelete, base+todoID, token(alice), nil)
		assert.Equal(t, http.StatusNoContent, code)
		code, _ = f.doJSON(t, http.MethodDelete, base+todoID, token(alice), nil)
		assert.Equal(t, http.StatusNoContent, code)
	})
}

func TestContactEndpoints(t *testing.T) {
	f := setupAPITest(t)
	alice := f.setupAccount(t)
	bob := f.registerAccount(t, "bob@example.com", "Bob")

	var contactID string

	t.Run("add strips empty optional fields", func(t *testing.T) {
		code, envelope := f.doJSON(t, http.MethodPost, "/api/v1/contacts/", token(alice), map[string]any{
			"name":  "  Margaret Hamilton  ",
			"email": "",
		})
		require.Equal(t, http.StatusCreated, code)
		contact := envelope.Data.(map[string]any)
		contactID = contact["id"].(string)
		assert.Equal(t, "Margaret Hamilton", contact["name"])
		_, hasEmail := contact["email"]
		assert.False(t, hasEmail)
	})

	t.Run("search finds by prefix", func(t *testing.T) {
		code, envelope := f.doJSON(t, http.MethodGet, "/api/v1/contacts/search?q=marg", token(alice), nil)
		require.Equal(t, http.StatusOK, code)
		hits := envelope.Data.([]any)
		require.Len(t, hits, 1)
		assert.Equal(t, contactID, hits[0].(map[string]any)["id"])
	})

	t.Run("contacts are private per user", func(t *testing.T) {
		code, envelope := f.doJSON(t, http.MethodGet, "/api/v1/contacts/", token(bob), nil)
		require.Equal(t, http.StatusOK, code)
		assert.Empty(t, envelope.Data)

		code, _ = f.doJSON(t, http.MethodDelete, "/api/v1/contacts/"+contactID, token(bob), nil)
		assert.Equal(t, http.StatusForbidden, code)
	})

	t.Run("owner delete succeeds", func(t *testing.T) {
		code, _ := f.doJSON(t, http.MethodDelete, "/api/v1/contacts/"+contactID, token(alice), nil)
		assert.Equal(t, http.StatusNoContent, code)
	})
}

func TestActivityFeed(t *testing.T) {
	f := setupAPITest(t)
	alice := f.setupAccount(t)

	code, envelope := f.doJSON(t, http.MethodPost, "/api/v1/lists/", token(alice), map[string]any{"name": "Groceries"})
	require.Equal(t, http.StatusCreated, code)
	listID := envelope.Data.(map[string]any)["id"].(string)

	for i := 0; i < 3; i++ {
		code, _ = f.doJSON(t, http.MethodPost, "/api/v1/lists/"+listID+"/todos/", token(alice), map[string]string{
			"text": fmt.Sprintf("item %d", i),
		})
		require.Equal(t, http.StatusCreated, code)
	}

	t.Run("feed", func(t *testing.T) {
		code, envelope := f.doJSON(t, http.MethodGet, "/api/v1/activity/?limit=2", token(alice), nil)
		require.Equal(t, http.StatusOK, code)
		assert.Len(t, envelope.Data.([]any), 2)
	})

	t.Run("list feed", func(t *testing.T) {
		code, envelope := f.doJSON(t, http.MethodGet, "/api/v1/lists/"+listID+"/activity", token(alice), nil)
		require.Equal(t, http.StatusOK, code)
		feed := envelope.Data.([]any)
		// Three todo additions plus the list creation.
		assert.Len(t, feed, 4)
	})

	t.Run("my activity", func(t *testing.T) {
		code, envelope := f.doJSON(t, http.MethodGet, "/api/v1/activity/mine", token(alice), nil)
		require.Equal(t, http.StatusOK, code)
		assert.NotEmpty(t, envelope.Data)
	})
}

func TestUsersEndpoints(t *testing.T) {
	f := setupAPITest(t)
	alice := f.setupAccount(t)
	f.registerAccount(t, "bob@example.com", "Bob")

	t.Run("me", func(t *testing.T) {
		code, envelope := f.doJSON(t, http.MethodGet, "/api/v1/users/me", token(alice), nil)
		require.Equal(t, http.StatusOK, code)
		me := envelope.Data.(map[string]any)
		assert.Equal(t, "alice@example.com", me["email"])
		assert.NotEmpty(t, me["avatar_color"])
	})

	t.Run("collaborator listing", func(t *testing.T) {
		code, envelope := f.doJSON(t, http.MethodGet, "/api/v1/users/", token(alice), nil)
		require.Equal(t, http.StatusOK, code)
		users := envelope.Data.([]any)
		assert.Len(t, users, 2)
	})

	t.Run("sessions", func(t *testing.T) {
		code, envelope := f.doJSON(t, http.MethodGet, "/api/v1/users/me/sessions", token(alice), nil)
		require.Equal(t, http.StatusOK, code)
		assert.NotEmpty(t, envelope.Data)
	})
}

func TestLogoutCancelsEventStream(t *testing.T) {
	f := setupAPITest(t)
	alice := f.setupAccount(t)
	sessionID := alice["session_id"].(string)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stream", nil)
	req.Header.Set("Authorization", "Bearer "+token(alice))
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		f.server.ServeHTTP(rec, req)
		close(done)
	}()

	// The stream registers itself under the session before blocking.
	require.Eventually(t, func() bool {
		reg := f.server.sessionService.Gates().Registry(sessionID)
		return reg != nil && reg.Len() > 0
	}, 2*time.Second, 10*time.Millisecond)

	code, _ := f.doJSON(t, http.MethodPost, "/api/v1/auth/logout", "", map[string]string{
		"session_id": sessionID,
	})
	require.Equal(t, http.StatusOK, code)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream still open after its session was revoked")
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	f := setupAPITest(t)
	alice := f.setupAccount(t)
	sessionID := alice["session_id"].(string)

	code, _ := f.doJSON(t, http.MethodPost, "/api/v1/auth/logout", "", map[string]string{
		"session_id": sessionID,
	})
	require.Equal(t, http.StatusOK, code)

	// The refresh token from the revoked session no longer works.
	code, envelope := f.doJSON(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{
		"refresh_token": alice["refresh_token"].(string),
	})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "TOKEN_EXPIRED", envelope.Code)
}
