package store

import (
	"context"
	"fmt"

	coreconfig "github.com/m3rciful/rosterbot/core/config"
	"github.com/m3rciful/rosterbot/core/database"
)

// MigrationsDir is where the postgres driver looks for schema files.
var MigrationsDir = "migrations"

// Open builds the repository for the configured driver.
func Open(ctx context.Context, cfg coreconfig.StorageConfig) (*Repository, error) {
	switch cfg.Driver {
	case coreconfig.StorageRedis:
		return NewRepository(OpenRedis(ctx, cfg.Redis)), nil
	case coreconfig.StorageBadger:
		kv, err := OpenBadger(cfg.Badger)
		if err != nil {
			return nil, err
		}
		return NewRepository(kv), nil
	case coreconfig.StoragePostgres:
		if err := database.RunMigrations(cfg.Postgres, MigrationsDir); err != nil {
			return nil, err
		}
		db, err := database.Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		return NewRepository(NewPostgresKV(db)), nil
	case coreconfig.StorageMemory:
		return NewRepository(NewMemoryKV()), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
