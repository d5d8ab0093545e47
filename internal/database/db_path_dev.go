//go:build !prod

package database

import "go.uber.org/zap"

// GetDefaultDBPath returns the database path for development mode.
// In dev mode, the database lives in the working directory for easy inspection.
func GetDefaultDBPath(*zap.Logger) string {
	return dbFileName
}

func IsDevelopment() bool {
	return true
}
