//go:build prod

package database

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"eventdesk/internal/logging"
)

// GetDefaultDBPath places the database under the user's config directory.
// When that directory cannot be resolved or created it falls back to the
// working directory and logs why.
func GetDefaultDBPath(logger *zap.Logger) string {
	log := logging.OrNop(logger).Named("database")

	configDir, err := os.UserConfigDir()
	if err != nil {
		log.Warn("user config dir unavailable, using working directory", zap.Error(err))
		return dbFileName
	}

	appDir := filepath.Join(configDir, "eventdesk")
	if err := os.MkdirAll(appDir, 0o755); err != nil {
		log.Warn("create app config dir failed, using working directory",
			zap.String("dir", appDir), zap.Error(err))
		return dbFileName
	}
	return filepath.Join(appDir, dbFileName)
}

func IsDevelopment() bool {
	return false
}
