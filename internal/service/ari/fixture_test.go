package ari_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/heartmarshall/pms-backend/internal/adapter/memory"
	"github.com/heartmarshall/pms-backend/internal/domain"
	"github.com/heartmarshall/pms-backend/internal/service/ari"
)

// fixture is one property with two room types and a small rate plan tree:
//
//	BAR (base)
//	├── NONREF  -10%, NEAREST_WHOLE
//	│   └── MEMBER  -5%, ENDING_99
//	└── PROMO   -150 fixed, NONE
type fixture struct {
	store      *memory.Store
	runner     *faultyRunner
	svc        *ari.Service
	propertyID uuid.UUID
	deluxe     domain.RoomType // 15 sellable rooms
	standard   domain.RoomType // 10 sellable rooms
	bar        domain.RatePlan
	nonref     domain.RatePlan
	member     domain.RatePlan
	promo      domain.RatePlan
	oooRoomID  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{store: memory.New(), propertyID: uuid.New()}

	f.deluxe = domain.RoomType{ID: uuid.New(), PropertyID: f.propertyID, Code: "DLX", Name: "Deluxe", Active: true}
	f.standard = domain.RoomType{ID: uuid.New(), PropertyID: f.propertyID, Code: "STD", Name: "Standard", Active: true}
	f.store.AddRoomType(f.deluxe)
	f.store.AddRoomType(f.standard)

	// Deluxe: 14 in service + 1 out of service + 2 out of order = capacity 15.
	for i := 0; i < 14; i++ {
		f.store.AddRoom(domain.PhysicalRoom{ID: uuid.New(), RoomTypeID: f.deluxe.ID, Status: domain.RoomStatusInService})
	}
	f.store.AddRoom(domain.PhysicalRoom{ID: uuid.New(), RoomTypeID: f.deluxe.ID, Status: domain.RoomStatusOutOfService})
	for i := 0; i < 2; i++ {
		f.store.AddRoom(domain.PhysicalRoom{ID: uuid.New(), RoomTypeID: f.deluxe.ID, Status: domain.RoomStatusOutOfOrder})
	}
	for i := 0; i < 10; i++ {
		id := uuid.New()
		if i == 0 {
			f.oooRoomID = id
		}
		f.store.AddRoom(domain.PhysicalRoom{ID: id, RoomTypeID: f.standard.ID, Status: domain.RoomStatusInService})
	}

	f.bar = domain.RatePlan{ID: uuid.New(), PropertyID: f.propertyID, Code: "BAR", Name: "Best available"}
	f.nonref = domain.RatePlan{
		ID: uuid.New(), PropertyID: f.propertyID, Code: "NONREF", Name: "Non refundable",
		ParentRatePlanID: &f.bar.ID, DerivedType: domain.DerivedTypePercentage,
		DerivedValue: decimal.NewFromInt(-10), RoundingRule: domain.RoundingNearestWhole,
	}
	f.member = domain.RatePlan{
		ID: uuid.New(), PropertyID: f.propertyID, Code: "MEMBER", Name: "Members",
		ParentRatePlanID: &f.nonref.ID, DerivedType: domain.DerivedTypePercentage,
		DerivedValue: decimal.NewFromInt(-5), RoundingRule: domain.RoundingEnding99,
	}
	f.promo = domain.RatePlan{
		ID: uuid.New(), PropertyID: f.propertyID, Code: "PROMO", Name: "Promo",
		ParentRatePlanID: &f.bar.ID, DerivedType: domain.DerivedTypeFixedAmount,
		DerivedValue: decimal.NewFromInt(-150), RoundingRule: domain.RoundingNone,
	}
	for _, p := range []domain.RatePlan{f.bar, f.nonref, f.member, f.promo} {
		f.store.AddRatePlan(p)
	}

	f.runner = &faultyRunner{inner: f.store}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	f.svc = ari.NewService(logger, f.runner, ari.DefaultConfig())
	return f
}

func (f *fixture) inventory(t *testing.T, rt domain.RoomType, date string) domain.InventoryDay {
	t.Helper()
	row, ok := f.store.InventoryDay(f.propertyID, rt.ID, day(t, date))
	if !ok {
		t.Fatalf("no inventory row for %s on %s", rt.Code, date)
	}
	return row
}

func (f *fixture) rate(t *testing.T, rt domain.RoomType, plan, date string) domain.RateDay {
	t.Helper()
	row, ok := f.store.RateDay(f.propertyID, rt.ID, plan, day(t, date))
	if !ok {
		t.Fatalf("no rate row for %s/%s on %s", rt.Code, plan, date)
	}
	return row
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	return d
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertAmount(t *testing.T, row domain.RateDay, want string) {
	t.Helper()
	if row.Amount == nil {
		t.Fatalf("%s on %s: expected amount %s, got nil", row.RatePlanCode, row.Date.Format(domain.DateLayout), want)
	}
	if !row.Amount.Equal(dec(want)) {
		t.Errorf("%s on %s: expected amount %s, got %s", row.RatePlanCode, row.Date.Format(domain.DateLayout), want, row.Amount)
	}
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

// ---------------------------------------------------------------------------
// faultyRunner
// ---------------------------------------------------------------------------

var errInjected = errors.New("injected storage failure")

// faultyRunner counts transactions and can make CreateEvent fail.
type faultyRunner struct {
	inner           ari.TxRunner
	calls           int
	failCreateEvent bool
}

func (r *faultyRunner) RunInTx(ctx context.Context, fn func(ctx context.Context, tx ari.Tx) error) error {
	r.calls++
	return r.inner.RunInTx(ctx, func(ctx context.Context, tx ari.Tx) error {
		return fn(ctx, faultyTx{Tx: tx, failCreateEvent: r.failCreateEvent})
	})
}

type faultyTx struct {
	ari.Tx
	failCreateEvent bool
}

func (t faultyTx) CreateEvent(ctx context.Context, event *domain.AriEvent) error {
	if t.failCreateEvent {
		return errInjected
	}
	return t.Tx.CreateEvent(ctx, event)
}
