package ari

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type metricsRecorder interface {
	ObserveOperation(operation string, err error, took time.Duration)
	CountClamp(roomTypeCode string)
	CountCascade(ratePlanCode string, rows int64)
}

type nopMetrics struct{}

func (nopMetrics) ObserveOperation(string, error, time.Duration) {}
func (nopMetrics) CountClamp(string)                             {}
func (nopMetrics) CountCascade(string, int64)                    {}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Config holds the limits of the ARI engine.
type Config struct {
	MaxRangeDays       int
	MaxDerivationDepth int
	EventIDPrefix      string
}

// DefaultConfig returns the limits used when none are configured.
func DefaultConfig() Config {
	return Config{
		MaxRangeDays:       731,
		MaxDerivationDepth: 8,
		EventIDPrefix:      "ari_",
	}
}

// Service implements bulk ARI mutation, price resolution and audit/undo.
type Service struct {
	tx      TxRunner
	log     *slog.Logger
	cfg     Config
	metrics metricsRecorder
	now     func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithMetrics plugs a metrics recorder into the service.
func WithMetrics(m metricsRecorder) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new ARI service.
func NewService(log *slog.Logger, tx TxRunner, cfg Config, opts ...Option) *Service {
	def := DefaultConfig()
	if cfg.MaxRangeDays <= 0 {
		cfg.MaxRangeDays = def.MaxRangeDays
	}
	if cfg.MaxDerivationDepth <= 0 {
		cfg.MaxDerivationDepth = def.MaxDerivationDepth
	}
	if cfg.EventIDPrefix == "" {
		cfg.EventIDPrefix = def.EventIDPrefix
	}

	s := &Service{
		tx:      tx,
		log:     log.With("service", "ari"),
		cfg:     cfg,
		metrics: nopMetrics{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the effective engine limits.
func (s *Service) Config() Config { return s.cfg }

// NewEventID returns a fresh event identifier: the prefix followed by 32
// hex characters of a random (v4) UUID.
func NewEventID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (s *Service) newEventID() string {
	return NewEventID(s.cfg.EventIDPrefix)
}
