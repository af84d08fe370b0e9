package ari

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/heartmarshall/pms-backend/internal/domain"
	"github.com/heartmarshall/pms-backend/internal/service/ari/pricing"
)

// ---------------------------------------------------------------------------
// 1. ApplyBulk
// ---------------------------------------------------------------------------

// ApplyBulk applies a bulk ARI mutation in a single transaction. Requests
// exceeding physical capacity are capped and reported in Warnings.
func (s *Service) ApplyBulk(ctx context.Context, propertyID uuid.UUID, input BulkInput) (*BulkResult, error) {
	start := time.Now()

	if err := input.Validate(s.cfg); err != nil {
		s.metrics.ObserveOperation("apply_bulk", err, time.Since(start))
		return nil, err
	}

	var result *BulkResult
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		var applyErr error
		result, applyErr = s.ApplyInTx(ctx, tx, propertyID, input, ApplyOptions{Source: domain.EventSourceBulk})
		return applyErr
	})
	s.metrics.ObserveOperation("apply_bulk", err, time.Since(start))
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "bulk ari mutation applied",
		slog.String("property_id", propertyID.String()),
		slog.Int("room_types", len(input.RoomTypeIDs)),
		slog.Int("events", len(result.EventIDs)+len(result.CascadeEventIDs)),
		slog.Int("warnings", len(result.Warnings)),
	)

	return result, nil
}

// ---------------------------------------------------------------------------
// 2. ApplyInTx
// ---------------------------------------------------------------------------

// ApplyInTx runs the bulk mutation on an existing unit of work. It does not
// commit; the caller owns tx.
func (s *Service) ApplyInTx(ctx context.Context, tx Tx, propertyID uuid.UUID, input BulkInput, opts ApplyOptions) (*BulkResult, error) {
	if err := input.Validate(s.cfg); err != nil {
		return nil, err
	}
	if opts.Source == "" {
		opts.Source = domain.EventSourceBulk
	}

	// 1. Dates.
	dates := domain.ExpandDates(input.DateFrom, input.DateTo, input.DaysOfWeek)

	// 2. Room types and capacity.
	roomTypes, err := s.loadRoomTypes(ctx, tx, propertyID, input.RoomTypeIDs)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(roomTypes))
	for i, rt := range roomTypes {
		ids[i] = rt.ID
	}

	// The plan is only resolved for the groups that write per-plan rows; an
	// availability-only change ignores the code.
	_, hasRate := findChange[domain.RateChange](input.Changes)
	_, hasRestriction := findChange[domain.RestrictionChange](input.Changes)
	var plan *domain.RatePlan
	if hasRate || hasRestriction {
		plan, err = tx.GetRatePlanByCode(ctx, propertyID, input.RatePlanCode)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewValidationError("rate_plan_code", "unknown rate plan "+input.RatePlanCode)
		}
		if err != nil {
			return nil, fmt.Errorf("get rate plan: %w", err)
		}
	}

	scope := domain.DayScope{PropertyID: propertyID, RoomTypeIDs: ids, Dates: dates}

	// 3. Baseline rows.
	if err := tx.EnsureInventoryDays(ctx, scope); err != nil {
		return nil, fmt.Errorf("ensure inventory days: %w", err)
	}
	if plan != nil {
		if err := tx.EnsureRateDays(ctx, scope, plan.Code); err != nil {
			return nil, fmt.Errorf("ensure rate days: %w", err)
		}
		if err := tx.EnsureRestrictionDays(ctx, scope, plan.Code); err != nil {
			return nil, fmt.Errorf("ensure restriction days: %w", err)
		}
	}

	m := &mutation{
		snapshots: make(map[uuid.UUID]*domain.AriSnapshot, len(roomTypes)),
		clamps:    make(map[uuid.UUID]*domain.ClampInfo),
		eventIDs:  make(map[uuid.UUID]string, len(roomTypes)),
	}
	for i, rt := range roomTypes {
		m.snapshots[rt.ID] = &domain.AriSnapshot{}
		if i == 0 && opts.EventID != "" {
			m.eventIDs[rt.ID] = opts.EventID
		} else {
			m.eventIDs[rt.ID] = s.newEventID()
		}
	}

	// 4-6. Field groups in fixed order.
	if c, ok := findChange[domain.AvailabilityChange](input.Changes); ok {
		if err := s.applyAvailability(ctx, tx, scope, roomTypes, c, m); err != nil {
			return nil, err
		}
	}
	if c, ok := findChange[domain.RateChange](input.Changes); ok {
		if err := s.applyRate(ctx, tx, scope, roomTypes, plan, c, input.OverrideManual, m); err != nil {
			return nil, err
		}
	}
	if c, ok := findChange[domain.RestrictionChange](input.Changes); ok {
		if _, err := tx.UpdateRestrictions(ctx, scope, plan.Code, c); err != nil {
			return nil, fmt.Errorf("update restrictions: %w", err)
		}
	}

	// 7. Audit events: one per room type, then the cascades.
	now := s.now().UTC()
	var planCode string
	if plan != nil {
		planCode = plan.Code
	}
	fields := domain.FieldsFromChanges(input.Changes)
	eventType := orderedChanges(input.Changes)[0].EventType()

	result := &BulkResult{Applied: true}
	for _, rt := range roomTypes {
		rtID := rt.ID
		event := &domain.AriEvent{
			ID:           uuid.New(),
			EventID:      m.eventIDs[rt.ID],
			PropertyID:   propertyID,
			RoomTypeID:   &rtID,
			RoomTypeCode: rt.Code,
			RatePlanCode: planCode,
			Type:         eventType,
			DateFrom:     domain.NormalizeDate(input.DateFrom),
			DateTo:       domain.NormalizeDate(input.DateTo),
			Payload: domain.AriEventPayload{
				Source:     opts.Source,
				Fields:     fields,
				DaysOfWeek: weekdaysToInts(input.DaysOfWeek),
				Clamp:      m.clamps[rt.ID],
				ParentID:   opts.ParentID,
			},
			Snapshot:  nonEmpty(m.snapshots[rt.ID]),
			Status:    domain.AriEventApplied,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.RecordEvent(ctx, tx, event); err != nil {
			return nil, err
		}
		result.EventIDs = append(result.EventIDs, event.EventID)
	}

	for _, event := range m.cascades {
		event.CreatedAt, event.UpdatedAt = now, now
		if err := s.RecordEvent(ctx, tx, event); err != nil {
			return nil, err
		}
		result.CascadeEventIDs = append(result.CascadeEventIDs, event.EventID)
	}

	result.Warnings = m.warnings.list()
	return result, nil
}

// mutation accumulates per-room-type state across the steps of one bulk apply.
type mutation struct {
	snapshots map[uuid.UUID]*domain.AriSnapshot
	clamps    map[uuid.UUID]*domain.ClampInfo
	eventIDs  map[uuid.UUID]string
	cascades  []*domain.AriEvent
	warnings  warningSet
}

// loadRoomTypes returns the requested room types in request order,
// duplicates removed. Any id not owned by the property is a validation error.
func (s *Service) loadRoomTypes(ctx context.Context, tx Tx, propertyID uuid.UUID, ids []uuid.UUID) ([]domain.RoomType, error) {
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	found, err := tx.ListRoomTypes(ctx, propertyID, unique)
	if err != nil {
		return nil, fmt.Errorf("list room types: %w", err)
	}
	byID := make(map[uuid.UUID]domain.RoomType, len(found))
	for _, rt := range found {
		byID[rt.ID] = rt
	}

	out := make([]domain.RoomType, 0, len(unique))
	for _, id := range unique {
		rt, ok := byID[id]
		if !ok {
			return nil, domain.NewValidationError("room_type_ids", "unknown room type "+id.String())
		}
		out = append(out, rt)
	}
	return out, nil
}

func (s *Service) applyAvailability(
	ctx context.Context, tx Tx, scope domain.DayScope,
	roomTypes []domain.RoomType, change domain.AvailabilityChange, m *mutation,
) error {
	capacity, err := tx.CountSellableRooms(ctx, scope.RoomTypeIDs)
	if err != nil {
		return fmt.Errorf("count sellable rooms: %w", err)
	}

	prev, err := tx.ListInventoryDays(ctx, scope)
	if err != nil {
		return fmt.Errorf("snapshot inventory days: %w", err)
	}
	for _, row := range prev {
		if snap, ok := m.snapshots[row.RoomTypeID]; ok {
			snap.Inventories = append(snap.Inventories, row)
		}
	}

	for _, rt := range roomTypes {
		capa := capacity[rt.ID]
		applied, warning := Clamp(rt.Code, change.Available, capa)
		if warning != "" {
			m.warnings.add(warning)
			m.clamps[rt.ID] = &domain.ClampInfo{Requested: change.Available, Applied: applied, Capacity: capa}
			s.metrics.CountClamp(rt.Code)
		}
		if _, err := tx.SetInventory(ctx, scope.ForRoomType(rt.ID), applied, capa); err != nil {
			return fmt.Errorf("set inventory %s: %w", rt.Code, err)
		}
	}
	return nil
}

func (s *Service) applyRate(
	ctx context.Context, tx Tx, scope domain.DayScope, roomTypes []domain.RoomType,
	plan *domain.RatePlan, change domain.RateChange, overrideManual bool, m *mutation,
) error {
	prev, err := tx.ListRateDays(ctx, scope, plan.Code)
	if err != nil {
		return fmt.Errorf("snapshot rate days: %w", err)
	}
	for _, row := range prev {
		if snap, ok := m.snapshots[row.RoomTypeID]; ok {
			snap.Rates = append(snap.Rates, row)
		}
	}

	if _, err := tx.SetRate(ctx, scope, plan.Code, change.Price); err != nil {
		return fmt.Errorf("set rate: %w", err)
	}

	return s.cascade(ctx, tx, scope, roomTypes, plan, change.Price, overrideManual, m)
}

// cascade recomputes the direct children of plan from the new parent price.
// Child rows flagged as manual overrides are left alone unless overrideManual.
func (s *Service) cascade(
	ctx context.Context, tx Tx, scope domain.DayScope, roomTypes []domain.RoomType,
	plan *domain.RatePlan, price decimal.Decimal, overrideManual bool, m *mutation,
) error {
	children, err := tx.ListChildRatePlans(ctx, scope.PropertyID, plan.ID)
	if err != nil {
		return fmt.Errorf("list child rate plans: %w", err)
	}

	for _, child := range children {
		if child.ID == plan.ID {
			continue
		}

		if err := tx.EnsureRateDays(ctx, scope, child.Code); err != nil {
			return fmt.Errorf("ensure rate days %s: %w", child.Code, err)
		}
		prev, err := tx.ListRateDays(ctx, scope, child.Code)
		if err != nil {
			return fmt.Errorf("snapshot rate days %s: %w", child.Code, err)
		}

		amount := pricing.DeriveNonNegative(price, child)
		n, err := tx.SetDerivedRate(ctx, scope, child.Code, amount, overrideManual)
		if err != nil {
			return fmt.Errorf("set derived rate %s: %w", child.Code, err)
		}
		s.metrics.CountCascade(child.Code, n)

		touched := make(map[uuid.UUID][]domain.RateDay, len(roomTypes))
		for _, row := range prev {
			if row.IsManualOverride && !overrideManual {
				continue
			}
			touched[row.RoomTypeID] = append(touched[row.RoomTypeID], row)
		}

		derivation := &domain.DerivationInfo{
			ParentRatePlanCode: plan.Code,
			ParentPrice:        price,
			DerivedType:        child.DerivedType,
			DerivedValue:       child.DerivedValue,
			RoundingRule:       child.RoundingRule,
			Result:             amount,
			Formula:            pricing.Formula(price, child, amount),
		}

		for _, rt := range roomTypes {
			rtID := rt.ID
			var snap *domain.AriSnapshot
			if rows := touched[rt.ID]; len(rows) > 0 {
				snap = &domain.AriSnapshot{Rates: rows}
			}
			m.cascades = append(m.cascades, &domain.AriEvent{
				ID:           uuid.New(),
				EventID:      s.newEventID(),
				PropertyID:   scope.PropertyID,
				RoomTypeID:   &rtID,
				RoomTypeCode: rt.Code,
				RatePlanCode: child.Code,
				Type:         domain.AriEventRate,
				DateFrom:     scope.Dates[0],
				DateTo:       scope.Dates[len(scope.Dates)-1],
				Payload: domain.AriEventPayload{
					Source:     domain.EventSourceCascade,
					Fields:     domain.ChangeFields{Price: &amount},
					Derivation: derivation,
					ParentID:   m.eventIDs[rt.ID],
				},
				Snapshot: snap,
				Status:   domain.AriEventApplied,
			})
		}
	}
	return nil
}

// findChange returns the first change of type T.
func findChange[T domain.Change](changes []domain.Change) (T, bool) {
	for _, ch := range changes {
		if c, ok := ch.(T); ok {
			return c, true
		}
	}
	var zero T
	return zero, false
}

// orderedChanges sorts changes into availability, rate, restriction order.
func orderedChanges(changes []domain.Change) []domain.Change {
	return domain.FieldsFromChanges(changes).Changes()
}

func weekdaysToInts(days []time.Weekday) []int {
	if len(days) == 0 {
		return nil
	}
	out := make([]int, len(days))
	for i, d := range days {
		out[i] = int(d)
	}
	return out
}

func nonEmpty(s *domain.AriSnapshot) *domain.AriSnapshot {
	if s.Empty() {
		return nil
	}
	return s
}
