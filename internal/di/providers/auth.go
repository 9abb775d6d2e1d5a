package providers

import (
	"encoding/hex"

	"github.com/samber/do/v2"

	"github.com/daylistapp/daylist-server/internal/auth"
	"github.com/daylistapp/daylist-server/internal/config"
	"github.com/daylistapp/daylist-server/internal/logger"
	"github.com/daylistapp/daylist-server/internal/ratelimit"
)

// AuthKey wraps the authentication key bytes.
type AuthKey []byte

// ProvideAuthKey loads or generates the token signing key.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, err := auth.LoadOrGenerateKey(cfg.Data.BasePath)
	if err != nil {
		return nil, err
	}

	cfg.Auth.AccessTokenKey = key

	log.Info("Authentication key loaded",
		"access_token_duration", cfg.Auth.AccessTokenDuration,
		"refresh_token_duration", cfg.Auth.RefreshTokenDuration,
	)

	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authKey := do.MustInvoke[AuthKey](i)

	keyHex := hex.EncodeToString([]byte(authKey))
	return auth.NewTokenService(keyHex, cfg.Auth.AccessTokenDuration, cfg.Auth.RefreshTokenDuration)
}

// LoginLimiterHandle wraps the keyed login limiter with shutdown capability.
type LoginLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *LoginLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideLoginLimiter provides the per-email login throttle.
func ProvideLoginLimiter(i do.Injector) (*LoginLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	rps := float64(cfg.Login.RatePerMinute) / 60.0
	limiter := ratelimit.New(rps, cfg.Login.Burst)

	return &LoginLimiterHandle{KeyedRateLimiter: limiter}, nil
}
