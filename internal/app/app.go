package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/heartmarshall/pms-backend/internal/config"
	"github.com/heartmarshall/pms-backend/internal/metrics"
	"github.com/heartmarshall/pms-backend/internal/service/ari"
	"github.com/heartmarshall/pms-backend/internal/service/channel"
	"github.com/heartmarshall/pms-backend/internal/transport/rest"
)

// Run is the application entry point. It loads configuration, opens the
// storage backend, wires the ARI services into the HTTP router and serves
// until ctx is canceled, then shuts the server down gracefully.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
		slog.String("storage", cfg.Storage.Driver),
	)

	storage, err := OpenStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer storage.Close()

	m := metrics.New()
	engine := ari.NewService(logger, storage.Runner, ARIConfig(cfg.ARI), ari.WithMetrics(m))
	channels := channel.NewService(logger, storage.Runner, engine, channel.WithMetrics(m))

	router := rest.NewRouter(rest.RouterDeps{
		Log:          logger,
		CORS:         cfg.CORS,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Health:       rest.NewHealthHandler(storage.Pinger, storage.Driver, Version),
		ARI:          rest.NewARIHandler(engine, channels, logger),
		Metrics:      m,
	})

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", slog.Duration("timeout", cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
