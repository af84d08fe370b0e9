package seeder

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// allPhases defines the canonical execution order. Later phases reference
// rows written by earlier ones.
var allPhases = []string{"room_types", "rooms", "rate_plans", "rates"}

// PhaseResult holds the outcome of a single pipeline phase.
type PhaseResult struct {
	Inserted int
	Skipped  int
	Duration time.Duration
	Err      error
}

// Pipeline writes a demo property phase by phase.
type Pipeline struct {
	log     *slog.Logger
	repo    Repo
	cfg     Config
	results map[string]PhaseResult
}

// NewPipeline creates a new Pipeline.
func NewPipeline(log *slog.Logger, repo Repo, cfg Config) *Pipeline {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	return &Pipeline{
		log:     log.With("component", "seeder"),
		repo:    repo,
		cfg:     cfg,
		results: make(map[string]PhaseResult),
	}
}

// Results returns phase results after Run completes.
func (p *Pipeline) Results() map[string]PhaseResult {
	return p.results
}

// HasErrors returns true if any phase recorded errors.
func (p *Pipeline) HasErrors() bool {
	for _, r := range p.results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// Run writes the property. A failed phase stops the run, since every later
// phase depends on it.
func (p *Pipeline) Run(ctx context.Context, prop *Property) error {
	for _, phase := range allPhases {
		start := time.Now()

		var result PhaseResult
		switch phase {
		case "room_types":
			result = runPhase(ctx, p, prop.RoomTypes, p.repo.InsertRoomTypes)
		case "rooms":
			result = runPhase(ctx, p, prop.Rooms, p.repo.InsertRooms)
		case "rate_plans":
			result = runPhase(ctx, p, prop.RatePlans, p.repo.InsertRatePlans)
		case "rates":
			result = runPhase(ctx, p, prop.Rates, p.repo.PutRates)
		}
		result.Duration = time.Since(start)
		p.results[phase] = result

		if result.Err != nil {
			p.log.Warn("phase failed",
				slog.String("phase", phase),
				slog.String("error", result.Err.Error()),
				slog.Duration("duration", result.Duration),
			)
			return fmt.Errorf("seed %s: %w", phase, result.Err)
		}
		p.log.Info("phase completed",
			slog.String("phase", phase),
			slog.Int("inserted", result.Inserted),
			slog.Int("skipped", result.Skipped),
			slog.Duration("duration", result.Duration),
		)
	}

	p.log.Info("pipeline completed",
		slog.String("property_id", prop.ID.String()),
		slog.Bool("dry_run", p.cfg.DryRun),
	)
	return nil
}

func runPhase[T any](ctx context.Context, p *Pipeline, items []T, insert func(context.Context, []T) (int, error)) PhaseResult {
	if p.cfg.DryRun {
		return PhaseResult{Skipped: len(items)}
	}
	inserted, err := batchProcess(items, p.cfg.BatchSize, func(batch []T) (int, error) {
		return insert(ctx, batch)
	})
	return PhaseResult{Inserted: inserted, Err: err}
}

// batchProcess splits items into batches and calls fn for each batch.
func batchProcess[T any](items []T, batchSize int, fn func([]T) (int, error)) (int, error) {
	total := 0
	for i := 0; i < len(items); i += batchSize {
		end := min(i+batchSize, len(items))
		n, err := fn(items[i:end])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Seed builds the demo property from cfg and writes it through repo.
func Seed(ctx context.Context, log *slog.Logger, repo Repo, cfg Config, today time.Time) (*Property, error) {
	prop, err := BuildDemo(cfg, today)
	if err != nil {
		return nil, err
	}
	if err := NewPipeline(log, repo, cfg).Run(ctx, prop); err != nil {
		return nil, err
	}
	return prop, nil
}
