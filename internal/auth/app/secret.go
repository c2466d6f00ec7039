package app

import (
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/sessiond/pkg/cryptox"
	"github.com/aussiebroadwan/sessiond/pkg/jwtx"
)

// loadJWTSecret returns the configured HS256 secret. In dev an unset secret
// is replaced by a random one, so tokens do not survive a restart.
func loadJWTSecret(cfg Config, logger *slog.Logger) ([]byte, error) {
	if cfg.JWTSecret != "" {
		if len(cfg.JWTSecret) < jwtx.MinSecretLength {
			return nil, jwtx.ErrWeakSecret
		}
		return []byte(cfg.JWTSecret), nil
	}
	if !cfg.IsDev() {
		return nil, fmt.Errorf("AUTH_JWT_SECRET is required in %s", cfg.Env)
	}

	secret, err := cryptox.GenerateToken(jwtx.MinSecretLength)
	if err != nil {
		return nil, fmt.Errorf("generate ephemeral jwt secret: %w", err)
	}
	logger.Warn("AUTH_JWT_SECRET not set, using an ephemeral secret")
	return []byte(secret), nil
}
