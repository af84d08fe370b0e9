package ari

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/pms-backend/internal/domain"
)

const defaultEventsLimit = 50

// ---------------------------------------------------------------------------
// 4. RecordEvent
// ---------------------------------------------------------------------------

// RecordEvent appends an audit event within tx. A second event with the same
// (property, event id) fails with domain.ErrAlreadyExists.
func (s *Service) RecordEvent(ctx context.Context, tx Tx, event *domain.AriEvent) error {
	var errs []domain.FieldError
	if event.EventID == "" {
		errs = append(errs, domain.FieldError{Field: "event_id", Message: "required"})
	}
	if event.PropertyID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "property_id", Message: "required"})
	}
	if !event.Type.IsValid() {
		errs = append(errs, domain.FieldError{Field: "type", Message: "invalid event type"})
	}
	if !event.Status.IsValid() {
		errs = append(errs, domain.FieldError{Field: "status", Message: "invalid event status"})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		now := s.now().UTC()
		event.CreatedAt, event.UpdatedAt = now, now
	}

	if err := tx.CreateEvent(ctx, event); err != nil {
		return fmt.Errorf("record event %s: %w", event.EventID, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// 5. Undo
// ---------------------------------------------------------------------------

// Undo reverts the mutation recorded by an event by restoring its snapshot.
// Undoing an event twice re-applies the same snapshot.
func (s *Service) Undo(ctx context.Context, propertyID uuid.UUID, eventID string) (*UndoResult, error) {
	start := time.Now()
	if eventID == "" {
		return nil, domain.NewValidationError("event_id", "required")
	}

	result := &UndoResult{EventID: eventID}
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		event, err := tx.GetEvent(ctx, propertyID, eventID)
		if err != nil {
			return fmt.Errorf("get event %s: %w", eventID, err)
		}
		result.AlreadyUndone = event.IsUndone()

		if snap := event.Snapshot; !snap.Empty() {
			if len(snap.Inventories) > 0 {
				if err := tx.RestoreInventoryDays(ctx, snap.Inventories); err != nil {
					return fmt.Errorf("restore inventory days: %w", err)
				}
			}
			if len(snap.Rates) > 0 {
				if err := tx.RestoreRateDays(ctx, snap.Rates); err != nil {
					return fmt.Errorf("restore rate days: %w", err)
				}
			}
			result.RestoredInventories = len(snap.Inventories)
			result.RestoredRates = len(snap.Rates)
		}

		now := s.now().UTC()
		if err := tx.UpdateEvent(ctx, propertyID, eventID, domain.EventUpdate{
			Status:    domain.AriEventPending,
			Error:     event.Error,
			UndoneAt:  &now,
			UpdatedAt: now,
		}); err != nil {
			return fmt.Errorf("mark event undone: %w", err)
		}
		return nil
	})
	s.metrics.ObserveOperation("undo", err, time.Since(start))
	if err != nil {
		return nil, err
	}

	result.Message = fmt.Sprintf("event %s undone: restored %d inventory and %d rate rows",
		eventID, result.RestoredInventories, result.RestoredRates)

	s.log.InfoContext(ctx, "ari event undone",
		slog.String("property_id", propertyID.String()),
		slog.String("event_id", eventID),
		slog.Bool("already_undone", result.AlreadyUndone),
	)

	return result, nil
}

// ---------------------------------------------------------------------------
// 6. GetEvent / ListEvents
// ---------------------------------------------------------------------------

// GetEvent returns one audit event of the property.
func (s *Service) GetEvent(ctx context.Context, propertyID uuid.UUID, eventID string) (*domain.AriEvent, error) {
	var event *domain.AriEvent
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		event, err = tx.GetEvent(ctx, propertyID, eventID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get event %s: %w", eventID, err)
	}
	return event, nil
}

// ListEvents returns the property's audit history, newest first.
func (s *Service) ListEvents(ctx context.Context, propertyID uuid.UUID, input ListEventsInput) ([]domain.AriEvent, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	limit := input.Limit
	if limit == 0 {
		limit = defaultEventsLimit
	}

	var events []domain.AriEvent
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		events, err = tx.ListEvents(ctx, domain.EventFilter{
			PropertyID: propertyID,
			Status:     input.Status,
			Limit:      limit,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}
