package storage

import (
	"context"
	"fmt"

	"arb_gateway/internal/modules/config"
	"arb_gateway/internal/modules/postgres"
	"arb_gateway/internal/storage"
	"arb_gateway/internal/storage/memory"
	"arb_gateway/internal/storage/pg"
	"arb_gateway/internal/storage/sqlite"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type migrator interface {
	Migrate(ctx context.Context) error
}

// Open выбирает бэкенд по storage.driver и при необходимости прогоняет миграции.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.Store, error) {
	var (
		st  storage.Store
		err error
	)

	switch cfg.Storage.Driver {
	case "postgres":
		txm, e := postgres.NewTxManager(ctx, cfg.Storage.DSN)
		if e != nil {
			return nil, fmt.Errorf("connect postgres: %w", e)
		}
		st = pg.New(txm)
	case "sqlite":
		st, err = sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.Storage.SQLitePath, err)
		}
	case "memory":
		mem := memory.New()
		if cfg.Storage.Fixtures != "" {
			if err := mem.LoadFixtures(cfg.Storage.Fixtures); err != nil {
				return nil, err
			}
		}
		st = mem
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if m, ok := st.(migrator); ok && cfg.Storage.AutoMigrate {
		if err := m.Migrate(ctx); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	log.Info("storage opened", zap.String("driver", cfg.Storage.Driver))
	return st, nil
}

func newStore(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (storage.Store, error) {
	st, err := Open(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return st.Close()
		},
	})
	return st, nil
}

func Module() fx.Option {
	return fx.Module("storage",
		fx.Provide(
			newStore,
			func(s storage.Store) storage.ConfigStore { return s },
			func(s storage.Store) storage.StatusStore { return s },
			func(s storage.Store) storage.TransactionStore { return s },
			func(s storage.Store) storage.NotificationLog { return s },
		),
	)
}
