package core

import (
	"context"
	"fmt"

	"pidcore/internal/infra/persistence/memory"
	"pidcore/internal/infra/persistence/postgres"
	"pidcore/internal/infra/persistence/sqlite"
	"pidcore/pkg/domain"
)

// StorageDriver identifies a concrete diagram repository implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenRepository selects a diagram repository by cfg.Storage. An empty driver
// selects sqlite.
func OpenRepository(ctx context.Context, cfg Config) (domain.DiagramRepository, error) {
	driver := cfg.Storage
	if driver == "" {
		driver = StorageSQLite
	}
	switch driver {
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite:
		store, err := sqlite.NewStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case StoragePostgres:
		store, err := postgres.NewStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
