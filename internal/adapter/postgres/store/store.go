// Package store binds the PostgreSQL repositories into the ARI unit of work.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	postgres "github.com/heartmarshall/pms-backend/internal/adapter/postgres"
	"github.com/heartmarshall/pms-backend/internal/adapter/postgres/arievent"
	"github.com/heartmarshall/pms-backend/internal/adapter/postgres/inventory"
	"github.com/heartmarshall/pms-backend/internal/adapter/postgres/rate"
	"github.com/heartmarshall/pms-backend/internal/adapter/postgres/rateplan"
	"github.com/heartmarshall/pms-backend/internal/adapter/postgres/restriction"
	"github.com/heartmarshall/pms-backend/internal/adapter/postgres/roomtype"
	"github.com/heartmarshall/pms-backend/internal/domain"
	"github.com/heartmarshall/pms-backend/internal/service/ari"
)

// Store opens ARI units of work as PostgreSQL transactions.
type Store struct {
	tm *postgres.TxManager
}

// New creates a Store over the pool. Transactions are SERIALIZABLE unless
// overridden with opts.
func New(pool *pgxpool.Pool, opts ...postgres.TxOption) *Store {
	return &Store{tm: postgres.NewTxManager(pool, opts...)}
}

// RunInTx runs fn in one database transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx ari.Tx) error) error {
	return s.tm.RunInTx(ctx, func(ctx context.Context, pgTx pgx.Tx) error {
		return fn(ctx, NewTx(pgTx))
	})
}

var _ ari.TxRunner = (*Store)(nil)

// Tx is an ari.Tx over a single querier.
type Tx struct {
	roomTypes    *roomtype.Repo
	ratePlans    *rateplan.Repo
	inventory    *inventory.Repo
	rates        *rate.Repo
	restrictions *restriction.Repo
	events       *arievent.Repo
}

var _ ari.Tx = (*Tx)(nil)

// NewTx binds every repository to q. Passing a pool instead of a transaction
// gives autocommit semantics, which is only useful for read paths and seeding.
func NewTx(q postgres.Querier) *Tx {
	return &Tx{
		roomTypes:    roomtype.New(q),
		ratePlans:    rateplan.New(q),
		inventory:    inventory.New(q),
		rates:        rate.New(q),
		restrictions: restriction.New(q),
		events:       arievent.New(q),
	}
}

// ---------------------------------------------------------------------------
// Reference data
// ---------------------------------------------------------------------------

func (t *Tx) ListRoomTypes(ctx context.Context, propertyID uuid.UUID, ids []uuid.UUID) ([]domain.RoomType, error) {
	return t.roomTypes.ListByIDs(ctx, propertyID, ids)
}

func (t *Tx) GetRoomTypeByCode(ctx context.Context, propertyID uuid.UUID, code string) (*domain.RoomType, error) {
	return t.roomTypes.GetByCode(ctx, propertyID, code)
}

func (t *Tx) CountSellableRooms(ctx context.Context, roomTypeIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	return t.roomTypes.CountSellable(ctx, roomTypeIDs)
}

func (t *Tx) GetRatePlanByCode(ctx context.Context, propertyID uuid.UUID, code string) (*domain.RatePlan, error) {
	return t.ratePlans.GetByCode(ctx, propertyID, code)
}

func (t *Tx) GetRatePlanByID(ctx context.Context, propertyID, id uuid.UUID) (*domain.RatePlan, error) {
	return t.ratePlans.GetByID(ctx, propertyID, id)
}

func (t *Tx) ListChildRatePlans(ctx context.Context, propertyID, parentID uuid.UUID) ([]domain.RatePlan, error) {
	return t.ratePlans.ListChildren(ctx, propertyID, parentID)
}

// ---------------------------------------------------------------------------
// Per-day rows
// ---------------------------------------------------------------------------

func (t *Tx) EnsureInventoryDays(ctx context.Context, scope domain.DayScope) error {
	return t.inventory.EnsureDays(ctx, scope)
}

func (t *Tx) EnsureRateDays(ctx context.Context, scope domain.DayScope, ratePlanCode string) error {
	return t.rates.EnsureDays(ctx, scope, ratePlanCode)
}

func (t *Tx) EnsureRestrictionDays(ctx context.Context, scope domain.DayScope, ratePlanCode string) error {
	return t.restrictions.EnsureDays(ctx, scope, ratePlanCode)
}

func (t *Tx) ListInventoryDays(ctx context.Context, scope domain.DayScope) ([]domain.InventoryDay, error) {
	return t.inventory.List(ctx, scope)
}

func (t *Tx) ListRateDays(ctx context.Context, scope domain.DayScope, ratePlanCode string) ([]domain.RateDay, error) {
	return t.rates.List(ctx, scope, ratePlanCode)
}

func (t *Tx) GetRateDay(ctx context.Context, propertyID, roomTypeID uuid.UUID, ratePlanCode string, date time.Time) (*domain.RateDay, error) {
	return t.rates.Get(ctx, propertyID, roomTypeID, ratePlanCode, date)
}

func (t *Tx) SetInventory(ctx context.Context, scope domain.DayScope, available, total int) (int64, error) {
	return t.inventory.Set(ctx, scope, available, total)
}

func (t *Tx) SetRate(ctx context.Context, scope domain.DayScope, ratePlanCode string, amount decimal.Decimal) (int64, error) {
	return t.rates.Set(ctx, scope, ratePlanCode, amount)
}

func (t *Tx) SetDerivedRate(ctx context.Context, scope domain.DayScope, ratePlanCode string, amount decimal.Decimal, includeManual bool) (int64, error) {
	return t.rates.SetDerived(ctx, scope, ratePlanCode, amount, includeManual)
}

func (t *Tx) UpdateRestrictions(ctx context.Context, scope domain.DayScope, ratePlanCode string, change domain.RestrictionChange) (int64, error) {
	return t.restrictions.Update(ctx, scope, ratePlanCode, change)
}

func (t *Tx) RestoreInventoryDays(ctx context.Context, rows []domain.InventoryDay) error {
	return t.inventory.Restore(ctx, rows)
}

func (t *Tx) RestoreRateDays(ctx context.Context, rows []domain.RateDay) error {
	return t.rates.Restore(ctx, rows)
}

// ---------------------------------------------------------------------------
// Event log
// ---------------------------------------------------------------------------

func (t *Tx) CreateEvent(ctx context.Context, event *domain.AriEvent) error {
	return t.events.Create(ctx, event)
}

func (t *Tx) GetEvent(ctx context.Context, propertyID uuid.UUID, eventID string) (*domain.AriEvent, error) {
	return t.events.Get(ctx, propertyID, eventID)
}

func (t *Tx) ListEvents(ctx context.Context, filter domain.EventFilter) ([]domain.AriEvent, error) {
	return t.events.List(ctx, filter)
}

func (t *Tx) UpdateEvent(ctx context.Context, propertyID uuid.UUID, eventID string, upd domain.EventUpdate) error {
	return t.events.Update(ctx, propertyID, eventID, upd)
}
