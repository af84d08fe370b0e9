package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/pms-backend/internal/domain"
	"github.com/heartmarshall/pms-backend/internal/service/ari"
)

const defaultPendingLimit = 100

// ---------------------------------------------------------------------------
// 2. ApplyPending
// ---------------------------------------------------------------------------

// ApplyPending applies a deferred channel event. The mutation is recorded as
// new events linked to the pending one, which is then marked APPLIED. When the
// event no longer validates it is marked ERROR instead.
func (s *Service) ApplyPending(ctx context.Context, propertyID uuid.UUID, eventID string) (*IngestResult, error) {
	result := &IngestResult{EventID: eventID}

	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx ari.Tx) error {
		event, err := tx.GetEvent(ctx, propertyID, eventID)
		if err != nil {
			return fmt.Errorf("get event %s: %w", eventID, err)
		}
		if event.Status != domain.AriEventPending || event.IsUndone() || event.Payload.Source != domain.EventSourceChannel {
			return fmt.Errorf("event %s is not a pending channel event: %w", eventID, domain.ErrConflict)
		}
		if event.RoomTypeID == nil {
			return domain.NewValidationError("roomTypeId", "pending event has no room type")
		}

		applied, err := s.engine.ApplyInTx(ctx, tx, propertyID, ari.BulkInput{
			DateFrom:     event.DateFrom,
			DateTo:       event.DateTo,
			RoomTypeIDs:  []uuid.UUID{*event.RoomTypeID},
			RatePlanCode: event.RatePlanCode,
			Changes:      event.Payload.Fields.Changes(),
		}, ari.ApplyOptions{Source: domain.EventSourceChannel, ParentID: eventID})
		if err != nil {
			return err
		}

		if err := tx.UpdateEvent(ctx, propertyID, eventID, domain.EventUpdate{
			Status:    domain.AriEventApplied,
			UpdatedAt: time.Now().UTC(),
		}); err != nil {
			return fmt.Errorf("mark event applied: %w", err)
		}

		result.Status = domain.AriEventApplied
		result.Warnings = applied.Warnings
		result.AppliedEventIDs = append(applied.EventIDs, applied.CascadeEventIDs...)
		return nil
	})

	if errors.Is(err, domain.ErrValidation) {
		if markErr := s.markError(ctx, propertyID, eventID, err); markErr != nil {
			return nil, errors.Join(err, markErr)
		}
		s.metrics.CountIngest(domain.AriEventError)
		return &IngestResult{EventID: eventID, Status: domain.AriEventError}, err
	}
	if err != nil {
		return nil, err
	}

	s.metrics.CountIngest(domain.AriEventApplied)
	s.log.InfoContext(ctx, "pending channel event applied",
		slog.String("property_id", propertyID.String()),
		slog.String("event_id", eventID),
		slog.Int("warnings", len(result.Warnings)),
	)

	return result, nil
}

// markError records a failed apply in its own transaction, since the apply
// transaction has been rolled back.
func (s *Service) markError(ctx context.Context, propertyID uuid.UUID, eventID string, cause error) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context, tx ari.Tx) error {
		return tx.UpdateEvent(ctx, propertyID, eventID, domain.EventUpdate{
			Status:    domain.AriEventError,
			Error:     cause.Error(),
			UpdatedAt: time.Now().UTC(),
		})
	})
}

// ---------------------------------------------------------------------------
// 3. ListPending
// ---------------------------------------------------------------------------

// ListPending returns deferred channel events in arrival order. A zero
// propertyID lists every property.
func (s *Service) ListPending(ctx context.Context, propertyID uuid.UUID, limit int) ([]domain.AriEvent, error) {
	if limit <= 0 {
		limit = defaultPendingLimit
	}

	status := domain.AriEventPending
	var events []domain.AriEvent
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx ari.Tx) error {
		var err error
		events, err = tx.ListEvents(ctx, domain.EventFilter{
			PropertyID: propertyID,
			Status:     &status,
			OnlyActive: true,
			Oldest:     true,
			Limit:      limit,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list pending events: %w", err)
	}

	out := events[:0]
	for _, ev := range events {
		if ev.Payload.Source == domain.EventSourceChannel {
			out = append(out, ev)
		}
	}
	return out, nil
}
