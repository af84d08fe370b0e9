package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/pms-backend/internal/domain"
	"github.com/heartmarshall/pms-backend/internal/service/ari"
)

// ---------------------------------------------------------------------------
// 1. Ingest
// ---------------------------------------------------------------------------

// Ingest applies a channel event at most once per (property, event id).
// A repeated id returns a DEDUPED result together with a *DuplicateEventError.
func (s *Service) Ingest(ctx context.Context, propertyID uuid.UUID, in InboundEvent) (*IngestResult, error) {
	change, err := in.Validate()
	if err != nil {
		return nil, err
	}

	eventID := in.EventID
	if eventID == "" {
		eventID = ari.NewEventID(s.engine.Config().EventIDPrefix)
	}

	result := &IngestResult{EventID: eventID}
	err = s.tx.RunInTx(ctx, func(ctx context.Context, tx ari.Tx) error {
		_, err := tx.GetEvent(ctx, propertyID, eventID)
		if err == nil {
			return &DuplicateEventError{EventID: eventID}
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("lookup event: %w", err)
		}

		rt, err := tx.GetRoomTypeByCode(ctx, propertyID, in.RoomTypeCode)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewValidationError("roomTypeCode", "unknown room type "+in.RoomTypeCode)
		}
		if err != nil {
			return fmt.Errorf("get room type: %w", err)
		}

		if in.Defer {
			result.Status = domain.AriEventPending
			return s.engine.RecordEvent(ctx, tx, pendingEvent(propertyID, eventID, rt, in, change))
		}

		applied, err := s.engine.ApplyInTx(ctx, tx, propertyID, ari.BulkInput{
			DateFrom:     in.DateFrom,
			DateTo:       in.DateTo,
			RoomTypeIDs:  []uuid.UUID{rt.ID},
			RatePlanCode: in.RatePlanCode,
			Changes:      []domain.Change{change},
		}, ari.ApplyOptions{EventID: eventID, Source: domain.EventSourceChannel})
		if err != nil {
			return err
		}
		result.Status = domain.AriEventApplied
		result.Warnings = applied.Warnings
		result.AppliedEventIDs = append(applied.EventIDs, applied.CascadeEventIDs...)
		return nil
	})

	// A concurrent ingest of the same id that committed first surfaces as a
	// unique violation on the event log, or, under serializable isolation, as
	// an aborted transaction. An abort is only a duplicate if the event is now
	// recorded; otherwise it is returned for the caller to retry.
	if errors.Is(err, domain.ErrTxAborted) {
		recorded, lookupErr := s.eventRecorded(ctx, propertyID, eventID)
		if lookupErr != nil {
			return nil, errors.Join(err, lookupErr)
		}
		if recorded {
			err = &DuplicateEventError{EventID: eventID}
		}
	}

	var dup *DuplicateEventError
	if errors.As(err, &dup) || errors.Is(err, domain.ErrAlreadyExists) {
		s.metrics.CountIngest(domain.AriEventDeduped)
		s.log.InfoContext(ctx, "channel event deduplicated",
			slog.String("property_id", propertyID.String()),
			slog.String("event_id", eventID),
		)
		return &IngestResult{EventID: eventID, Status: domain.AriEventDeduped}, &DuplicateEventError{EventID: eventID}
	}
	if err != nil {
		return nil, err
	}

	s.metrics.CountIngest(result.Status)
	s.log.InfoContext(ctx, "channel event ingested",
		slog.String("property_id", propertyID.String()),
		slog.String("event_id", eventID),
		slog.String("status", result.Status.String()),
		slog.Int("warnings", len(result.Warnings)),
	)

	return result, nil
}

// eventRecorded reports whether the event id is already in the event log.
func (s *Service) eventRecorded(ctx context.Context, propertyID uuid.UUID, eventID string) (bool, error) {
	var recorded bool
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx ari.Tx) error {
		_, err := tx.GetEvent(ctx, propertyID, eventID)
		switch {
		case err == nil:
			recorded = true
			return nil
		case errors.Is(err, domain.ErrNotFound):
			return nil
		default:
			return fmt.Errorf("lookup event: %w", err)
		}
	})
	return recorded, err
}

func pendingEvent(propertyID uuid.UUID, eventID string, rt *domain.RoomType, in InboundEvent, change domain.Change) *domain.AriEvent {
	rtID := rt.ID
	return &domain.AriEvent{
		EventID:      eventID,
		PropertyID:   propertyID,
		RoomTypeID:   &rtID,
		RoomTypeCode: rt.Code,
		RatePlanCode: in.RatePlanCode,
		Type:         in.EventType,
		DateFrom:     domain.NormalizeDate(in.DateFrom),
		DateTo:       domain.NormalizeDate(in.DateTo),
		Payload: domain.AriEventPayload{
			Source: domain.EventSourceChannel,
			Fields: domain.FieldsFromChanges([]domain.Change{change}),
		},
		Status: domain.AriEventPending,
	}
}
