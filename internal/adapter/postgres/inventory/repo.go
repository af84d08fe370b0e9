// Package inventory implements per-day room type stock storage in PostgreSQL.
package inventory

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	postgres "github.com/heartmarshall/pms-backend/internal/adapter/postgres"
	"github.com/heartmarshall/pms-backend/internal/domain"
)

// Repo provides inventory_days access over a pool or a transaction.
type Repo struct {
	q postgres.Querier
}

// New creates a new inventory repository.
func New(q postgres.Querier) *Repo {
	return &Repo{q: q}
}

const ensureDaysSQL = `
INSERT INTO inventory_days (property_id, room_type_id, date)
SELECT $1, rt.id, d.date
FROM unnest($2::uuid[]) AS rt(id)
CROSS JOIN unnest($3::date[]) AS d(date)
ON CONFLICT (property_id, room_type_id, date) DO NOTHING`

// EnsureDays inserts a zero row for every (room type, date) pair of the
// scope that has none. Existing rows are left as they are.
func (r *Repo) EnsureDays(ctx context.Context, scope domain.DayScope) error {
	if scope.Size() == 0 {
		return nil
	}
	if _, err := r.q.Exec(ctx, ensureDaysSQL, scope.PropertyID, scope.RoomTypeIDs, scope.Dates); err != nil {
		return postgres.MapError(err, "inventory_days", scope.PropertyID)
	}
	return nil
}

// List returns the stored rows of the scope ordered by room type and date.
func (r *Repo) List(ctx context.Context, scope domain.DayScope) ([]domain.InventoryDay, error) {
	result := []domain.InventoryDay{}
	if scope.Size() == 0 {
		return result, nil
	}

	b := postgres.Builder().
		Select("property_id", "room_type_id", "date", "total", "available").
		From("inventory_days").
		Where(postgres.ScopeWhere(scope)).
		OrderBy("room_type_id", "date")

	rows, err := postgres.Query(ctx, r.q, b)
	if err != nil {
		return nil, fmt.Errorf("list inventory days: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d domain.InventoryDay
		if err := rows.Scan(&d.PropertyID, &d.RoomTypeID, &d.Date, &d.Total, &d.Available); err != nil {
			return nil, fmt.Errorf("list inventory days: %w", err)
		}
		d.Date = domain.NormalizeDate(d.Date)
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list inventory days: %w", err)
	}
	return result, nil
}

// Get returns a single row.
// Returns domain.ErrNotFound if the row does not exist.
func (r *Repo) Get(ctx context.Context, propertyID, roomTypeID uuid.UUID, date time.Time) (*domain.InventoryDay, error) {
	sql, args, err := postgres.Builder().
		Select("property_id", "room_type_id", "date", "total", "available").
		From("inventory_days").
		Where(sq.Eq{"property_id": propertyID, "room_type_id": roomTypeID, "date": domain.NormalizeDate(date)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var d domain.InventoryDay
	if err := r.q.QueryRow(ctx, sql, args...).Scan(&d.PropertyID, &d.RoomTypeID, &d.Date, &d.Total, &d.Available); err != nil {
		return nil, postgres.MapError(err, "inventory_day", date.Format(domain.DateLayout))
	}
	d.Date = domain.NormalizeDate(d.Date)
	return &d, nil
}

// Set writes available and total on every existing row of the scope and
// returns the number of rows updated.
func (r *Repo) Set(ctx context.Context, scope domain.DayScope, available, total int) (int64, error) {
	if scope.Size() == 0 {
		return 0, nil
	}

	b := postgres.Builder().
		Update("inventory_days").
		Set("available", available).
		Set("total", total).
		Set("updated_at", sq.Expr("now()")).
		Where(postgres.ScopeWhere(scope))

	n, err := postgres.Exec(ctx, r.q, b)
	if err != nil {
		return 0, postgres.MapError(err, "inventory_days", scope.PropertyID)
	}
	return n, nil
}

const restoreSQL = `
UPDATE inventory_days
SET total = $4, available = $5, updated_at = now()
WHERE property_id = $1 AND room_type_id = $2 AND date = $3`

// Restore writes snapshot values back by composite key in one batch.
// Rows that no longer exist are skipped.
func (r *Repo) Restore(ctx context.Context, rows []domain.InventoryDay) error {
	if len(rows) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, d := range rows {
		batch.Queue(restoreSQL, d.PropertyID, d.RoomTypeID, domain.NormalizeDate(d.Date), d.Total, d.Available)
	}

	if _, err := postgres.SendBatchExec(ctx, r.q, batch); err != nil {
		return postgres.MapError(err, "inventory_days", "restore")
	}
	return nil
}
