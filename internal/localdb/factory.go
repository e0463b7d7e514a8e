package localdb

import (
	"fmt"
	"os"
	"path/filepath"

	"syncwell/internal/config"
)

// NewFromConfig creates the local database described by the database config.
func NewFromConfig(cfg config.DatabaseConfig) (*DB, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
		return New(filepath.Join(cfg.DataDir, "syncwell.db"))
	case "memory":
		return New(":memory:")
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
