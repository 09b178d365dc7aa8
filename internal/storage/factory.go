// internal/storage/factory.go
package storage

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/OCAP2/boatsync/internal/config"
	"github.com/OCAP2/boatsync/internal/database"
	"github.com/OCAP2/boatsync/internal/logging"
	"github.com/OCAP2/boatsync/internal/storage/memory"
	"github.com/OCAP2/boatsync/internal/storage/sqlstore"
)

// Dependencies holds what the backends need besides configuration.
type Dependencies struct {
	Logger   logging.Logger
	DBLogger zerolog.Logger
}

// NewBackend creates a storage backend based on configuration
func NewBackend(cfg config.StorageConfig, deps Dependencies) (Backend, error) {
	switch cfg.Type {
	case "postgres", "sqlite":
		mgr := database.NewManager(deps.DBLogger)
		if err := mgr.Connect(cfg); err != nil {
			return nil, fmt.Errorf("failed to connect %s backend: %w", cfg.Type, err)
		}
		return sqlstore.New(sqlstore.Dependencies{
			Manager: mgr,
			Logger:  deps.Logger,
		}), nil
	case "memory":
		return memory.New(deps.Logger), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
