// Command seeder loads a demo property (room types, rooms, rate plans and
// BAR prices) into PostgreSQL. It is intended to be run once against a
// freshly migrated database.
//
// Flags:
//
//	--dry-run        build the property without writing to DB
//	--seeder-config  path to seeder YAML config file
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/heartmarshall/pms-backend/internal/adapter/postgres"
	"github.com/heartmarshall/pms-backend/internal/app"
	"github.com/heartmarshall/pms-backend/internal/app/seeder"
	"github.com/heartmarshall/pms-backend/internal/config"
)

// Compile-time interface assertion.
var _ seeder.Repo = (*seeder.PostgresRepo)(nil)

func main() {
	dryRunFlag := flag.Bool("dry-run", false, "build the property without writing to DB")
	seederConfigFlag := flag.String("seeder-config", "", "path to seeder YAML config file")
	flag.Parse()

	// Load app config (for DB connection).
	appCfg, err := config.Load()
	if err != nil {
		log.Fatalf("load app config: %v", err)
	}

	logger := app.NewLogger(appCfg.Log)

	seederCfg, err := seeder.LoadConfig(*seederConfigFlag)
	if err != nil {
		logger.Error("load seeder config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// CLI flags override config.
	if *dryRunFlag {
		seederCfg.DryRun = true
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, appCfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// One transaction: a failed phase leaves no partial property behind.
	var prop *seeder.Property
	err = postgres.NewTxManager(pool).RunInTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		prop, err = seeder.Seed(ctx, logger, seeder.NewPostgresRepo(tx), *seederCfg, time.Now())
		return err
	})
	if err != nil {
		logger.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("seeding completed",
		slog.String("property_id", prop.ID.String()),
		slog.Int("room_types", len(prop.RoomTypes)),
		slog.Int("rate_plans", len(prop.RatePlans)),
		slog.Bool("dry_run", seederCfg.DryRun),
	)
}
