package ari

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/heartmarshall/pms-backend/internal/domain"
)

// Tx is a unit of work over the ARI storage. Every read and write of one
// engine operation goes through the same Tx, so capacity counts, derivation
// lookups and snapshots are taken inside the transaction that writes.
//
// Lookups return an error wrapping domain.ErrNotFound when the row is absent.
type Tx interface {
	// Reference data (read-only to the engine).
	ListRoomTypes(ctx context.Context, propertyID uuid.UUID, ids []uuid.UUID) ([]domain.RoomType, error)
	GetRoomTypeByCode(ctx context.Context, propertyID uuid.UUID, code string) (*domain.RoomType, error)
	CountSellableRooms(ctx context.Context, roomTypeIDs []uuid.UUID) (map[uuid.UUID]int, error)
	GetRatePlanByCode(ctx context.Context, propertyID uuid.UUID, code string) (*domain.RatePlan, error)
	GetRatePlanByID(ctx context.Context, propertyID, id uuid.UUID) (*domain.RatePlan, error)
	ListChildRatePlans(ctx context.Context, propertyID, parentID uuid.UUID) ([]domain.RatePlan, error)

	// Baseline rows: insert where absent, never overwrite.
	EnsureInventoryDays(ctx context.Context, scope domain.DayScope) error
	EnsureRateDays(ctx context.Context, scope domain.DayScope, ratePlanCode string) error
	EnsureRestrictionDays(ctx context.Context, scope domain.DayScope, ratePlanCode string) error

	// Snapshot reads.
	ListInventoryDays(ctx context.Context, scope domain.DayScope) ([]domain.InventoryDay, error)
	ListRateDays(ctx context.Context, scope domain.DayScope, ratePlanCode string) ([]domain.RateDay, error)
	GetRateDay(ctx context.Context, propertyID, roomTypeID uuid.UUID, ratePlanCode string, date time.Time) (*domain.RateDay, error)

	// Batch updates by composite filter. They return the number of rows touched.
	SetInventory(ctx context.Context, scope domain.DayScope, available, total int) (int64, error)
	SetRate(ctx context.Context, scope domain.DayScope, ratePlanCode string, amount decimal.Decimal) (int64, error)
	// SetDerivedRate writes a cascaded price. Rows flagged as manual
	// overrides are skipped unless includeManual is set.
	SetDerivedRate(ctx context.Context, scope domain.DayScope, ratePlanCode string, amount decimal.Decimal, includeManual bool) (int64, error)
	UpdateRestrictions(ctx context.Context, scope domain.DayScope, ratePlanCode string, change domain.RestrictionChange) (int64, error)

	// Undo writes, keyed by the rows' composite keys.
	RestoreInventoryDays(ctx context.Context, rows []domain.InventoryDay) error
	RestoreRateDays(ctx context.Context, rows []domain.RateDay) error

	// Audit log.
	CreateEvent(ctx context.Context, event *domain.AriEvent) error
	GetEvent(ctx context.Context, propertyID uuid.UUID, eventID string) (*domain.AriEvent, error)
	ListEvents(ctx context.Context, filter domain.EventFilter) ([]domain.AriEvent, error)
	UpdateEvent(ctx context.Context, propertyID uuid.UUID, eventID string, upd domain.EventUpdate) error
}

// TxRunner opens units of work. RunInTx commits when fn returns nil and
// rolls back otherwise; it never retries.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
