package service

import (
	"context"
	"encoding/hex"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daylistapp/daylist-server/internal/auth"
	"github.com/daylistapp/daylist-server/internal/errors"
	"github.com/daylistapp/daylist-server/internal/ratelimit"
	"github.com/daylistapp/daylist-server/internal/session"
	"github.com/daylistapp/daylist-server/internal/store"
)

type authFixture struct {
	auth     *AuthService
	sessions *SessionService
	gates    *session.Manager
	names    *session.NameCache
	store    *store.Store
}

// setupAuthTest creates services backed by temporary storage.
func setupAuthTest(t *testing.T) *authFixture {
	t.Helper()

	dir := t.TempDir()
	logger := slog.New(slog.DiscardHandler)

	s, err := store.New(filepath.Join(dir, "db"), logger, store.NoopEmitter{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	authKey, err := auth.LoadOrGenerateKey(dir)
	require.NoError(t, err)
	tokenService, err := auth.NewTokenService(hex.EncodeToString(authKey), 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	limiter := ratelimit.New(100, 100)
	t.Cleanup(limiter.Stop)

	gates := session.NewManager()
	names := session.NewNameCache(dir)
	sessionService := NewSessionService(s, tokenService, gates, logger)
	authService := NewAuthService(s, tokenService, sessionService, limiter, names, logger)

	return &authFixture{
		auth:     authService,
		sessions: sessionService,
		gates:    gates,
		names:    names,
		store:    s,
	}
}

func setupRoot(t *testing.T, f *authFixture) *AuthResponse {
	t.Helper()
	resp, err := f.auth.Setup(context.Background(), SetupRequest{
		Email:       "root@example.com",
		Password:    "correct horse battery",
		DisplayName: "Root",
	})
	require.NoError(t, err)
	return resp
}

func TestAuthService_Setup(t *testing.T) {
	f := setupAuthTest(t)

	resp := setupRoot(t, f)
	assert.True(t, resp.User.IsRoot)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.NotEmpty(t, resp.User.AvatarColor)

	// The session gate is signed in for the new session.
	state := f.gates.State(resp.SessionID)
	require.True(t, state.Known)
	assert.Equal(t, resp.User.ID, state.Principal.ID)

	// Setup is one-shot.
	_, err := f.auth.Setup(context.Background(), SetupRequest{
		Email:       "second@example.com",
		Password:    "correct horse battery",
		DisplayName: "Second",
	})
	assert.ErrorIs(t, err, errors.ErrAlreadyConfigured)
}

func TestAuthService_RegisterRequiresSetup(t *testing.T) {
	f := setupAuthTest(t)

	_, err := f.auth.Register(context.Background(), RegisterRequest{
		Email:       "jane@example.com",
		Password:    "correct horse battery",
		DisplayName: "Jane",
	})
	assert.ErrorIs(t, err, errors.ErrValidation)

	setupRoot(t, f)
	resp, err := f.auth.Register(context.Background(), RegisterRequest{
		Email:       "jane@example.com",
		Password:    "correct horse battery",
		DisplayName: "Jane",
	})
	require.NoError(t, err)
	assert.False(t, resp.User.IsRoot)

	// Duplicate email, any casing.
	_, err = f.auth.Register(context.Background(), RegisterRequest{
		Email:       "Jane@Example.com",
		Password:    "correct horse battery",
		DisplayName: "Jane Again",
	})
	assert.ErrorIs(t, err, errors.ErrAlreadyExists)
}

func TestAuthService_Login(t *testing.T) {
	f := setupAuthTest(t)
	ctx := context.Background()
	setupRoot(t, f)

	resp, err := f.auth.Login(ctx, LoginRequest{
		Email:    "root@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)

	// Wrong password and unknown email read the same.
	_, err = f.auth.Login(ctx, LoginRequest{Email: "root@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, errors.ErrInvalidCredentials)
	_, err = f.auth.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, errors.ErrInvalidCredentials)
}

func TestAuthService_LoginRateLimited(t *testing.T) {
	f := setupAuthTest(t)
	ctx := context.Background()
	setupRoot(t, f)

	// A tight limiter trips after the burst.
	limiter := ratelimit.New(0.1, 2)
	t.Cleanup(limiter.Stop)
	f.auth.loginLimiter = limiter

	for range 2 {
		_, err := f.auth.Login(ctx, LoginRequest{Email: "root@example.com", Password: "wrong"})
		assert.ErrorIs(t, err, errors.ErrInvalidCredentials)
	}
	_, err := f.auth.Login(ctx, LoginRequest{Email: "root@example.com", Password: "correct horse battery"})
	assert.ErrorIs(t, err, errors.ErrUnavailable)
}

func TestAuthService_RefreshRotatesTokens(t *testing.T) {
	f := setupAuthTest(t)
	ctx := context.Background()
	first := setupRoot(t, f)

	refreshed, err := f.auth.RefreshTokens(ctx, RefreshRequest{RefreshToken: first.RefreshToken})
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, refreshed.SessionID)
	assert.NotEqual(t, first.RefreshToken, refreshed.RefreshToken)

	// The old refresh token is dead.
	_, err = f.auth.RefreshTokens(ctx, RefreshRequest{RefreshToken: first.RefreshToken})
	assert.ErrorIs(t, err, errors.ErrTokenExpired)
}

func TestAuthService_LogoutRevokesSessionAndViews(t *testing.T) {
	f := setupAuthTest(t)
	ctx := context.Background()
	resp := setupRoot(t, f)

	var closed bool
	f.gates.Registry(resp.SessionID).Add(func() { closed = true })

	require.NoError(t, f.auth.Logout(ctx, resp.SessionID))
	assert.True(t, closed)
	assert.False(t, f.gates.State(resp.SessionID).Known)

	_, err := f.auth.RefreshTokens(ctx, RefreshRequest{RefreshToken: resp.RefreshToken})
	assert.ErrorIs(t, err, errors.ErrTokenExpired)
}

func TestAuthService_GreetingNameLifecycle(t *testing.T) {
	f := setupAuthTest(t)
	ctx := context.Background()

	assert.Empty(t, f.auth.GreetingName())

	setupRoot(t, f)
	assert.Equal(t, "Root", f.auth.GreetingName())

	// Each sign-in overwrites the greeting with the latest name.
	login, err := f.auth.Login(ctx, LoginRequest{
		Email:    "root@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	assert.Equal(t, "Root", f.names.Get())

	// Sign-out clears the greeting along with the session.
	require.NoError(t, f.auth.Logout(ctx, login.SessionID))
	assert.Empty(t, f.auth.GreetingName())
}

func TestAuthService_VerifyAccessToken(t *testing.T) {
	f := setupAuthTest(t)
	ctx := context.Background()
	resp := setupRoot(t, f)

	user, claims, err := f.auth.VerifyAccessToken(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, user.ID)
	assert.Equal(t, resp.User.ID, claims.UserID)

	_, _, err = f.auth.VerifyAccessToken(ctx, "v4.local.garbage")
	assert.ErrorIs(t, err, errors.ErrUnauthorized)
}
