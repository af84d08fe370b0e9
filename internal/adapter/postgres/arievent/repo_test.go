package arievent_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/pms-backend/internal/adapter/postgres/arievent"
	"github.com/heartmarshall/pms-backend/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/pms-backend/internal/domain"
)

func newEvent(p testhelper.Property, eventID string, status domain.AriEventStatus) *domain.AriEvent {
	now := time.Now().UTC().Truncate(time.Microsecond)
	d := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	available := 5
	return &domain.AriEvent{
		ID:           uuid.New(),
		EventID:      eventID,
		PropertyID:   p.ID,
		RoomTypeID:   &p.Deluxe.ID,
		RoomTypeCode: p.Deluxe.Code,
		Type:         domain.AriEventAvailability,
		DateFrom:     d,
		DateTo:       d,
		Payload: domain.AriEventPayload{
			Source: domain.EventSourceBulk,
			Fields: domain.ChangeFields{Available: &available},
		},
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestRepo_CreateAndGetRoundTripsJSON(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	p := testhelper.SeedProperty(t, pool)
	repo := arievent.New(pool)
	ctx := context.Background()

	ev := newEvent(p, "evt-roundtrip", domain.AriEventApplied)
	amount := decimal.RequireFromString("120.50")
	ev.Snapshot = &domain.AriSnapshot{
		Inventories: []domain.InventoryDay{{PropertyID: p.ID, RoomTypeID: p.Deluxe.ID, Date: ev.DateFrom, Total: 10, Available: 2}},
		Rates:       []domain.RateDay{{PropertyID: p.ID, RoomTypeID: p.Deluxe.ID, RatePlanCode: "BAR", Date: ev.DateFrom, Amount: &amount}},
	}
	require.NoError(t, repo.Create(ctx, ev))

	got, err := repo.Get(ctx, p.ID, "evt-roundtrip")
	require.NoError(t, err)
	assert.Equal(t, ev.ID, got.ID)
	assert.Equal(t, domain.EventSourceBulk, got.Payload.Source)
	require.NotNil(t, got.Payload.Fields.Available)
	assert.Equal(t, 5, *got.Payload.Fields.Available)
	require.NotNil(t, got.Snapshot)
	require.Len(t, got.Snapshot.Rates, 1)
	assert.True(t, got.Snapshot.Rates[0].Amount.Equal(amount))
	assert.Equal(t, 2, got.Snapshot.Inventories[0].Available)
	assert.Nil(t, got.UndoneAt)
}

func TestRepo_CreateWithoutSnapshotStoresNull(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	p := testhelper.SeedProperty(t, pool)
	repo := arievent.New(pool)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newEvent(p, "evt-nosnap", domain.AriEventPending)))

	got, err := repo.Get(ctx, p.ID, "evt-nosnap")
	require.NoError(t, err)
	assert.Nil(t, got.Snapshot)
}

func TestRepo_CreateDuplicateEventID(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	p := testhelper.SeedProperty(t, pool)
	repo := arievent.New(pool)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newEvent(p, "evt-dup", domain.AriEventApplied)))
	err := repo.Create(ctx, newEvent(p, "evt-dup", domain.AriEventApplied))
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got: %v", err)
	}

	// The same id on another property is independent.
	other := testhelper.SeedProperty(t, pool)
	require.NoError(t, repo.Create(ctx, newEvent(other, "evt-dup", domain.AriEventApplied)))
}

func TestRepo_ListFiltersAndOrders(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	p := testhelper.SeedProperty(t, pool)
	repo := arievent.New(pool)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Create(ctx, newEvent(p, id, domain.AriEventPending)))
	}
	require.NoError(t, repo.Create(ctx, newEvent(p, "d", domain.AriEventApplied)))

	now := time.Now().UTC()
	require.NoError(t, repo.Update(ctx, p.ID, "b", domain.EventUpdate{
		Status: domain.AriEventPending, UndoneAt: &now, UpdatedAt: now,
	}))

	pending := domain.AriEventPending
	got, err := repo.List(ctx, domain.EventFilter{PropertyID: p.ID, Status: &pending, OnlyActive: true, Oldest: true})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].EventID)
	assert.Equal(t, "c", got[1].EventID)

	got, err = repo.List(ctx, domain.EventFilter{PropertyID: p.ID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "d", got[0].EventID)
	assert.Equal(t, "c", got[1].EventID)
}

func TestRepo_UpdateKeepsUndoneAt(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	p := testhelper.SeedProperty(t, pool)
	repo := arievent.New(pool)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newEvent(p, "evt-upd", domain.AriEventApplied)))

	undone := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, repo.Update(ctx, p.ID, "evt-upd", domain.EventUpdate{
		Status: domain.AriEventPending, UndoneAt: &undone, UpdatedAt: undone,
	}))
	require.NoError(t, repo.Update(ctx, p.ID, "evt-upd", domain.EventUpdate{
		Status: domain.AriEventError, Error: "boom", UpdatedAt: undone.Add(time.Second),
	}))

	got, err := repo.Get(ctx, p.ID, "evt-upd")
	require.NoError(t, err)
	assert.Equal(t, domain.AriEventError, got.Status)
	assert.Equal(t, "boom", got.Error)
	require.NotNil(t, got.UndoneAt)
	assert.True(t, got.UndoneAt.Equal(undone))
}

func TestRepo_UpdateNotFound(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := arievent.New(pool)

	err := repo.Update(context.Background(), uuid.New(), "missing", domain.EventUpdate{
		Status: domain.AriEventApplied, UpdatedAt: time.Now(),
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}
