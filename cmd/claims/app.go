package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/cache"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/config"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/database"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/log"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/storage"
	"github.com/erikstalman/med-claim-navigator-sub000/internal/store"
)

// app holds the backing services shared by every command.
type app struct {
	cfg     *config.AppConfig
	log     zerolog.Logger
	pool    *pgxpool.Pool
	redis   *redis.Client
	objects *storage.ObjectStore
	store   *store.Store
}

func bootstrap(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log.New(cfg.Environment)}

	if cfg.Postgres.Enabled {
		a.pool, err = database.NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
	}

	if cfg.Redis.Enabled {
		a.redis, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
	}

	if cfg.Storage.Enabled {
		a.objects, err = storage.NewObjectStore(cfg.Storage)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("init object store: %w", err)
		}
		if err := a.objects.EnsureBuckets(ctx); err != nil {
			a.log.Warn().Err(err).Msg("ensure buckets failed")
		}
	}

	primary, err := a.slot(ctx, cfg.Store.Primary)
	if err != nil {
		a.close()
		return nil, err
	}
	backup, err := a.slot(ctx, cfg.Store.Backup)
	if err != nil {
		a.close()
		return nil, err
	}

	a.store = store.New(ctx, primary, backup, a.log,
		store.WithRetention(cfg.Store.MaxActivityLogs, cfg.Store.MaxChatMessages))
	return a, nil
}

// slot builds the storage slot a config entry names. Drivers backed by an
// external service need that service enabled.
func (a *app) slot(ctx context.Context, sc config.SlotConfig) (storage.Slot, error) {
	switch sc.Driver {
	case "file":
		slot, err := storage.NewFileSlot(a.cfg.Store.Dir, sc.Name)
		if err != nil {
			return nil, fmt.Errorf("store slot %q: %w", sc.Name, err)
		}
		return slot, nil
	case "memory":
		return storage.NewMemorySlot(sc.Name, a.cfg.Store.MemoryQuota), nil
	case "redis":
		if a.redis == nil {
			return nil, fmt.Errorf("store slot %q: redis is disabled", sc.Name)
		}
		return storage.NewRedisSlot(a.redis, sc.Name), nil
	case "object":
		if a.objects == nil {
			return nil, fmt.Errorf("store slot %q: object storage is disabled", sc.Name)
		}
		return a.objects.Slot(sc.Name), nil
	case "postgres":
		if a.pool == nil {
			return nil, fmt.Errorf("store slot %q: postgres is disabled", sc.Name)
		}
		slot := storage.NewPostgresSlot(a.pool, sc.Name)
		if err := slot.EnsureTable(ctx); err != nil {
			return nil, fmt.Errorf("store slot %q: %w", sc.Name, err)
		}
		return slot, nil
	}
	return nil, fmt.Errorf("store slot %q: unknown driver %q", sc.Name, sc.Driver)
}

func (a *app) close() {
	if a.pool != nil {
		a.pool.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Error().Err(err).Msg("redis close error")
		}
	}
}
