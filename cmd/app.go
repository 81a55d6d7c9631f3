package cmd

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"

	"toolbox_back/cache"
	"toolbox_back/catalog"
	"toolbox_back/config"
	"toolbox_back/database"
	"toolbox_back/logging"
	"toolbox_back/storage"
)

// app holds the dependencies a subcommand opened. Fields a command did not ask for stay nil.
type app struct {
	cfg   *config.Config
	log   *logging.Logger
	store *catalog.Store
	blobs storage.BlobStore
	redis *redis.Client

	closers []func()
}

type needs struct {
	blobs bool
	redis bool
}

func bootstrap(ctx context.Context, v *viper.Viper, n needs) (*app, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &app{cfg: cfg, log: log}
	a.closers = append(a.closers, log.Sync)

	db, err := database.Open(cfg.Database)
	if err != nil {
		a.close()
		return nil, err
	}
	a.closers = append(a.closers, func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	a.store = catalog.NewStore(db)
	if err := a.store.AutoMigrate(); err != nil {
		a.close()
		return nil, err
	}

	if n.blobs {
		a.blobs, err = storage.NewFromConfig(ctx, cfg)
		if err != nil {
			a.close()
			return nil, err
		}
	}

	if n.redis {
		client, err := cache.Connect(ctx, cfg.Redis)
		switch {
		case err != nil:
			log.Warn("redis unavailable, component cache disabled", "error", err)
		case client != nil:
			a.redis = client
			a.closers = append(a.closers, func() { _ = client.Close() })
		}
	}

	return a, nil
}

// close runs closers in reverse order.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
