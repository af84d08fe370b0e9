package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/heartmarshall/pms-backend/internal/adapter/memory"
	"github.com/heartmarshall/pms-backend/internal/adapter/postgres"
	"github.com/heartmarshall/pms-backend/internal/adapter/postgres/store"
	"github.com/heartmarshall/pms-backend/internal/app/seeder"
	"github.com/heartmarshall/pms-backend/internal/config"
	"github.com/heartmarshall/pms-backend/internal/service/ari"
)

// Storage is an opened ARI backend.
type Storage struct {
	Driver string
	Runner ari.TxRunner
	Pinger interface {
		Ping(ctx context.Context) error
	}
	close func()
}

// Close releases the backend's resources.
func (s *Storage) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStorage connects the configured storage driver.
func OpenStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		return &Storage{Driver: cfg.Storage.Driver, Runner: store.New(pool), Pinger: pool, close: pool.Close}, nil

	case config.DriverMemory:
		st := memory.New()
		if cfg.Storage.SeedDemo {
			prop, err := seeder.Seed(ctx, logger, seeder.NewMemoryRepo(st), seeder.DefaultConfig(), time.Now())
			if err != nil {
				return nil, fmt.Errorf("seed demo property: %w", err)
			}
			logger.Info("demo property loaded", slog.String("property_id", prop.ID.String()))
		}
		return &Storage{Driver: cfg.Storage.Driver, Runner: st, Pinger: st}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

// ARIConfig converts the engine limits from the application config.
func ARIConfig(cfg config.ARIConfig) ari.Config {
	return ari.Config{
		MaxRangeDays:       cfg.MaxRangeDays,
		MaxDerivationDepth: cfg.MaxDerivationDepth,
		EventIDPrefix:      cfg.EventIDPrefix,
	}
}
