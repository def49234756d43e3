package app

import (
	"context"
	"fmt"

	"github.com/MikhailRaia/pyth/internal/config"
	"github.com/MikhailRaia/pyth/internal/storage"
	"github.com/MikhailRaia/pyth/internal/storage/cache"
	"github.com/MikhailRaia/pyth/internal/storage/file"
	"github.com/MikhailRaia/pyth/internal/storage/memory"
	"github.com/MikhailRaia/pyth/internal/storage/postgres"
	"github.com/MikhailRaia/pyth/internal/storage/sqlite"
	"github.com/rs/zerolog/log"
)

// Migrator is implemented by backends with a schema.
type Migrator interface {
	Migrate(ctx context.Context) error
}

// OpenStorage opens the backend selected by cfg and, when a Redis
// address is configured, wraps it with the read cache.
func OpenStorage(ctx context.Context, cfg *config.Config) (storage.LinkStorage, error) {
	var (
		store storage.LinkStorage
		err   error
	)

	kind := cfg.Storage()
	switch kind {
	case config.StoragePostgres:
		store, err = postgres.NewStorage(ctx, cfg.DatabaseDSN)
	case config.StorageFile:
		store, err = file.NewStorage(cfg.FileStoragePath)
	case config.StorageSQLite:
		store, err = sqlite.NewStorage(cfg.SQLitePath)
	default:
		store = memory.NewStorage()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", kind, err)
	}
	log.Info().Str("storage", string(kind)).Msg("Storage opened")

	if cfg.RedisAddr == "" {
		return store, nil
	}

	client, err := cache.NewRedisClient(ctx, cfg.RedisAddr)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Info().Str("addr", cfg.RedisAddr).Dur("ttl", cfg.CacheTTL).Msg("Redis cache enabled")

	return cache.NewStorage(store, client, cfg.CacheTTL), nil
}

// Migrate runs the schema migration of store, if it has one.
func Migrate(ctx context.Context, store storage.LinkStorage) (bool, error) {
	m, ok := store.(Migrator)
	if !ok {
		return false, nil
	}
	if err := m.Migrate(ctx); err != nil {
		return true, err
	}
	return true, nil
}
