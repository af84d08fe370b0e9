// Package channel ingests ARI events pushed by distribution channels and
// applies each external event id at most once per property.
package channel

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/pms-backend/internal/domain"
	"github.com/heartmarshall/pms-backend/internal/service/ari"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type engine interface {
	ApplyInTx(ctx context.Context, tx ari.Tx, propertyID uuid.UUID, input ari.BulkInput, opts ari.ApplyOptions) (*ari.BulkResult, error)
	RecordEvent(ctx context.Context, tx ari.Tx, event *domain.AriEvent) error
	Config() ari.Config
}

type metricsRecorder interface {
	CountIngest(status domain.AriEventStatus)
}

type nopMetrics struct{}

func (nopMetrics) CountIngest(domain.AriEventStatus) {}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements channel event ingestion.
type Service struct {
	log     *slog.Logger
	tx      ari.TxRunner
	engine  engine
	metrics metricsRecorder
}

// Option customizes a Service.
type Option func(*Service)

// WithMetrics plugs a metrics recorder into the service.
func WithMetrics(m metricsRecorder) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a new channel ingestion service.
func NewService(log *slog.Logger, tx ari.TxRunner, engine engine, opts ...Option) *Service {
	s := &Service{
		log:     log.With("service", "channel"),
		tx:      tx,
		engine:  engine,
		metrics: nopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
