package app

import (
	"os"
	"strings"
	"time"

	"github.com/bdp-api/helper/internal/config"
	jwtpkg "github.com/bdp-api/helper/internal/pkg/jwt"
	"github.com/bdp-api/helper/internal/pkg/nativelog"
	"go.uber.org/zap"
)

// applyRuntimeSettings pushes process-wide settings (log dir, signing key, zone)
// before anything that depends on them starts.
func applyRuntimeSettings(cfg *config.AppConfig, logger *zap.Logger) error {
	_ = os.Setenv(nativelog.EnvLogDir, cfg.LogDir())

	if secret := strings.TrimSpace(cfg.JWTSecret); secret != "" {
		jwtpkg.SetSecret(secret)
	} else {
		logger.Warn("jwt_secret is empty, using built-in default secret")
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	if loc != time.Local {
		time.Local = loc
		_ = os.Setenv("TZ", cfg.Timezone)
	}
	return nil
}
