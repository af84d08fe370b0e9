// Command aricli is an operator CLI over the ARI engine: it inspects the
// audit log, resolves prices and undoes events directly against PostgreSQL.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/heartmarshall/pms-backend/internal/adapter/postgres"
	"github.com/heartmarshall/pms-backend/internal/adapter/postgres/store"
	"github.com/heartmarshall/pms-backend/internal/app"
	"github.com/heartmarshall/pms-backend/internal/config"
	"github.com/heartmarshall/pms-backend/internal/service/ari"
	"github.com/heartmarshall/pms-backend/internal/service/channel"
)

// --- Global Command Variables ---
var (
	propertyFlag string

	rootCmd = &cobra.Command{
		Use:           "aricli",
		Short:         "Inspect and repair hotel ARI data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// runtime is the wired engine shared by every subcommand.
type runtime struct {
	pool       *pgxpool.Pool
	engine     *ari.Service
	channels   *channel.Service
	propertyID uuid.UUID
}

func newRuntime(ctx context.Context) (*runtime, error) {
	propertyID, err := uuid.Parse(propertyFlag)
	if err != nil {
		return nil, fmt.Errorf("--property: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	// Keep stdout for command output.
	cfg.Log.Level = "warn"
	logger := app.NewLogger(cfg.Log)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	st := store.New(pool)
	engine := ari.NewService(logger, st, app.ARIConfig(cfg.ARI))
	return &runtime{
		pool:       pool,
		engine:     engine,
		channels:   channel.NewService(logger, st, engine),
		propertyID: propertyID,
	}, nil
}

func (r *runtime) Close() { r.pool.Close() }

func main() {
	rootCmd.PersistentFlags().StringVarP(&propertyFlag, "property", "p", "", "property id (required)")
	_ = rootCmd.MarkPersistentFlagRequired("property")

	rootCmd.AddCommand(undoCmd(), priceCmd(), eventsCmd(), applyCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		slog.Error("aricli failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
