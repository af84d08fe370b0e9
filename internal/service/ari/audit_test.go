package ari_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/heartmarshall/pms-backend/internal/domain"
	"github.com/heartmarshall/pms-backend/internal/service/ari"
)

func TestUndo_RestoresSnapshotExactly(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	base := ari.BulkInput{
		DateFrom:     day(t, "2026-03-02"),
		DateTo:       day(t, "2026-03-03"),
		RoomTypeIDs:  []uuid.UUID{f.deluxe.ID},
		RatePlanCode: "BAR",
		Changes: []domain.Change{
			domain.AvailabilityChange{Available: 5},
			domain.RateChange{Price: dec("100")},
		},
	}
	if _, err := f.svc.ApplyBulk(ctx, f.propertyID, base); err != nil {
		t.Fatalf("first apply: %v", err)
	}

	second := base
	second.Changes = []domain.Change{
		domain.AvailabilityChange{Available: 8},
		domain.RateChange{Price: dec("140")},
	}
	res, err := f.svc.ApplyBulk(ctx, f.propertyID, second)
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}

	undo, err := f.svc.Undo(ctx, f.propertyID, res.EventIDs[0])
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if undo.RestoredInventories != 2 || undo.RestoredRates != 2 {
		t.Errorf("expected 2+2 restored rows, got %d+%d", undo.RestoredInventories, undo.RestoredRates)
	}
	if undo.AlreadyUndone {
		t.Error("first undo must not report already undone")
	}
	if undo.Message == "" {
		t.Error("expected a confirmation message")
	}

	for _, d := range []string{"2026-03-02", "2026-03-03"} {
		if got := f.inventory(t, f.deluxe, d); got.Available != 5 || got.Total != 15 {
			t.Errorf("%s: expected 5/15, got %d/%d", d, got.Available, got.Total)
		}
		bar := f.rate(t, f.deluxe, "BAR", d)
		assertAmount(t, bar, "100")
		if !bar.IsManualOverride {
			t.Error("manual flag must be restored")
		}
	}

	ev, err := f.svc.GetEvent(ctx, f.propertyID, res.EventIDs[0])
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if ev.Status != domain.AriEventPending || ev.UndoneAt == nil {
		t.Errorf("expected PENDING with undone_at, got %s %v", ev.Status, ev.UndoneAt)
	}
}

func TestUndo_SecondCallReappliesSameSnapshot(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.ApplyBulk(ctx, f.propertyID, ari.BulkInput{
		DateFrom:    day(t, "2026-03-02"),
		DateTo:      day(t, "2026-03-02"),
		RoomTypeIDs: []uuid.UUID{f.standard.ID},
		Changes:     []domain.Change{domain.AvailabilityChange{Available: 7}},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if _, err := f.svc.Undo(ctx, f.propertyID, res.EventIDs[0]); err != nil {
		t.Fatalf("first undo: %v", err)
	}
	again, err := f.svc.Undo(ctx, f.propertyID, res.EventIDs[0])
	if err != nil {
		t.Fatalf("second undo must not fail: %v", err)
	}
	if !again.AlreadyUndone {
		t.Error("second undo should report already undone")
	}
	// Baseline row was created empty by the mutation.
	if got := f.inventory(t, f.standard, "2026-03-02"); got.Available != 0 || got.Total != 0 {
		t.Errorf("expected baseline 0/0, got %d/%d", got.Available, got.Total)
	}
}

func TestUndo_LeavesRowsOutsideScopeAlone(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.ApplyBulk(ctx, f.propertyID, ari.BulkInput{
		DateFrom:    day(t, "2026-03-02"),
		DateTo:      day(t, "2026-03-02"),
		RoomTypeIDs: []uuid.UUID{f.deluxe.ID, f.standard.ID},
		Changes:     []domain.Change{domain.AvailabilityChange{Available: 6}},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := f.svc.ApplyBulk(ctx, f.propertyID, ari.BulkInput{
		DateFrom:    day(t, "2026-03-05"),
		DateTo:      day(t, "2026-03-05"),
		RoomTypeIDs: []uuid.UUID{f.deluxe.ID},
		Changes:     []domain.Change{domain.AvailabilityChange{Available: 9}},
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	// Undo only the deluxe event of the first mutation.
	if _, err := f.svc.Undo(ctx, f.propertyID, first.EventIDs[0]); err != nil {
		t.Fatalf("undo: %v", err)
	}

	if got := f.inventory(t, f.deluxe, "2026-03-02"); got.Available != 0 {
		t.Errorf("deluxe 03-02 should be restored to 0, got %d", got.Available)
	}
	if got := f.inventory(t, f.standard, "2026-03-02"); got.Available != 6 {
		t.Errorf("standard 03-02 belongs to another event, got %d", got.Available)
	}
	if got := f.inventory(t, f.deluxe, "2026-03-05"); got.Available != 9 {
		t.Errorf("deluxe 03-05 is outside the event scope, got %d", got.Available)
	}
}

func TestUndo_CascadeEventRestoresChildRows(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.ApplyBulk(ctx, f.propertyID, ari.BulkInput{
		DateFrom:     day(t, "2026-03-02"),
		DateTo:       day(t, "2026-03-02"),
		RoomTypeIDs:  []uuid.UUID{f.deluxe.ID},
		RatePlanCode: "BAR",
		Changes:      []domain.Change{domain.RateChange{Price: dec("100")}},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	// CascadeEventIDs[0] is NONREF for deluxe.
	if _, err := f.svc.Undo(ctx, f.propertyID, res.CascadeEventIDs[0]); err != nil {
		t.Fatalf("undo cascade: %v", err)
	}
	if row := f.rate(t, f.deluxe, "NONREF", "2026-03-02"); row.Amount != nil {
		t.Errorf("NONREF should be back to no price, got %s", row.Amount)
	}
	assertAmount(t, f.rate(t, f.deluxe, "BAR", "2026-03-02"), "100")
	assertAmount(t, f.rate(t, f.deluxe, "PROMO", "2026-03-02"), "0")
}

func TestUndo_UnknownOrForeignEventIsNotFound(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Undo(ctx, f.propertyID, "ari_missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown event: expected ErrNotFound, got %v", err)
	}

	res, err := f.svc.ApplyBulk(ctx, f.propertyID, ari.BulkInput{
		DateFrom:    day(t, "2026-03-02"),
		DateTo:      day(t, "2026-03-02"),
		RoomTypeIDs: []uuid.UUID{f.deluxe.ID},
		Changes:     []domain.Change{domain.AvailabilityChange{Available: 3}},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := f.svc.Undo(ctx, uuid.New(), res.EventIDs[0]); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("foreign property: expected ErrNotFound, got %v", err)
	}
	if got := f.inventory(t, f.deluxe, "2026-03-02"); got.Available != 3 {
		t.Errorf("a rejected undo must not mutate, got %d", got.Available)
	}
}

func TestRecordEvent_DuplicateEventID(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	event := func() *domain.AriEvent {
		return &domain.AriEvent{
			EventID:    "ari_dup",
			PropertyID: f.propertyID,
			Type:       domain.AriEventRate,
			Status:     domain.AriEventPending,
		}
	}

	err := f.store.RunInTx(ctx, func(ctx context.Context, tx ari.Tx) error {
		return f.svc.RecordEvent(ctx, tx, event())
	})
	if err != nil {
		t.Fatalf("first record: %v", err)
	}

	err = f.store.RunInTx(ctx, func(ctx context.Context, tx ari.Tx) error {
		return f.svc.RecordEvent(ctx, tx, event())
	})
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}

	err = f.store.RunInTx(ctx, func(ctx context.Context, tx ari.Tx) error {
		return f.svc.RecordEvent(ctx, tx, &domain.AriEvent{PropertyID: f.propertyID})
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for an incomplete event, got %v", err)
	}
}

func TestListEvents_NewestFirstWithStatusFilter(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	var ids []string
	for _, avail := range []int{1, 2, 3} {
		res, err := f.svc.ApplyBulk(ctx, f.propertyID, ari.BulkInput{
			DateFrom:    day(t, "2026-03-02"),
			DateTo:      day(t, "2026-03-02"),
			RoomTypeIDs: []uuid.UUID{f.standard.ID},
			Changes:     []domain.Change{domain.AvailabilityChange{Available: avail}},
		})
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		ids = append(ids, res.EventIDs[0])
	}
	if _, err := f.svc.Undo(ctx, f.propertyID, ids[2]); err != nil {
		t.Fatalf("undo: %v", err)
	}

	events, err := f.svc.ListEvents(ctx, f.propertyID, ari.ListEventsInput{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 3 || events[0].EventID != ids[2] || events[2].EventID != ids[0] {
		t.Errorf("expected newest first, got %d events", len(events))
	}

	applied := domain.AriEventApplied
	events, err = f.svc.ListEvents(ctx, f.propertyID, ari.ListEventsInput{Status: &applied, Limit: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 1 || events[0].EventID != ids[1] {
		t.Errorf("expected only the newest APPLIED event, got %+v", events)
	}

	if _, err := f.svc.ListEvents(ctx, f.propertyID, ari.ListEventsInput{Limit: 1000}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for limit, got %v", err)
	}
}
