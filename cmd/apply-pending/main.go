// Command apply-pending applies deferred channel events in arrival order.
// It is intended to be invoked by an external cron job, not as an
// in-process goroutine. Events that no longer validate are marked ERROR and
// do not stop the run.
//
// Flags:
//
//	--property  restrict to one property (default: all)
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/pms-backend/internal/adapter/postgres"
	"github.com/heartmarshall/pms-backend/internal/adapter/postgres/store"
	"github.com/heartmarshall/pms-backend/internal/app"
	"github.com/heartmarshall/pms-backend/internal/config"
	"github.com/heartmarshall/pms-backend/internal/domain"
	"github.com/heartmarshall/pms-backend/internal/service/ari"
	"github.com/heartmarshall/pms-backend/internal/service/channel"
)

func main() {
	propertyFlag := flag.String("property", "", "property id (default: all properties)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	var propertyID uuid.UUID
	if *propertyFlag != "" {
		if propertyID, err = uuid.Parse(*propertyFlag); err != nil {
			logger.Error("invalid --property", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	st := store.New(pool)
	engine := ari.NewService(logger, st, app.ARIConfig(cfg.ARI))
	channels := channel.NewService(logger, st, engine)

	pending, err := channels.ListPending(ctx, propertyID, cfg.ARI.PendingBatchSize)
	if err != nil {
		logger.Error("list pending events", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var applied, failed int
	for _, ev := range pending {
		_, err := channels.ApplyPending(ctx, ev.PropertyID, ev.EventID)
		switch {
		case err == nil:
			applied++
		case errors.Is(err, domain.ErrValidation):
			failed++
		default:
			logger.Error("apply pending event",
				slog.String("property_id", ev.PropertyID.String()),
				slog.String("event_id", ev.EventID),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	logger.Info("pending events processed",
		slog.Int("found", len(pending)),
		slog.Int("applied", applied),
		slog.Int("failed", failed),
	)
}
