// Package rate implements per-day price storage in PostgreSQL.
// Amounts are NUMERIC(12,2); a NULL amount means no price is stored and
// the price resolves through the plan's parent.
package rate

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	postgres "github.com/heartmarshall/pms-backend/internal/adapter/postgres"
	"github.com/heartmarshall/pms-backend/internal/domain"
)

// Repo provides rate_days access over a pool or a transaction.
type Repo struct {
	q postgres.Querier
}

// New creates a new rate repository.
func New(q postgres.Querier) *Repo {
	return &Repo{q: q}
}

var columns = []string{"property_id", "room_type_id", "rate_plan_code", "date", "amount::text", "is_manual_override"}

const ensureDaysSQL = `
INSERT INTO rate_days (property_id, room_type_id, rate_plan_code, date)
SELECT $1, rt.id, $4, d.date
FROM unnest($2::uuid[]) AS rt(id)
CROSS JOIN unnest($3::date[]) AS d(date)
ON CONFLICT (property_id, room_type_id, rate_plan_code, date) DO NOTHING`

// EnsureDays inserts an empty (NULL amount) row for every pair of the scope
// under the plan code that has none. Existing rows are left as they are.
func (r *Repo) EnsureDays(ctx context.Context, scope domain.DayScope, ratePlanCode string) error {
	if scope.Size() == 0 {
		return nil
	}
	if _, err := r.q.Exec(ctx, ensureDaysSQL, scope.PropertyID, scope.RoomTypeIDs, scope.Dates, ratePlanCode); err != nil {
		return postgres.MapError(err, "rate_days", ratePlanCode)
	}
	return nil
}

// List returns the stored rows of the scope under the plan code, ordered by
// room type and date.
func (r *Repo) List(ctx context.Context, scope domain.DayScope, ratePlanCode string) ([]domain.RateDay, error) {
	result := []domain.RateDay{}
	if scope.Size() == 0 {
		return result, nil
	}

	b := postgres.Builder().
		Select(columns...).
		From("rate_days").
		Where(postgres.ScopeWhere(scope)).
		Where(sq.Eq{"rate_plan_code": ratePlanCode}).
		OrderBy("room_type_id", "date")

	rows, err := postgres.Query(ctx, r.q, b)
	if err != nil {
		return nil, fmt.Errorf("list rate days: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		d, err := scanRateDay(rows)
		if err != nil {
			return nil, fmt.Errorf("list rate days: %w", err)
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rate days: %w", err)
	}
	return result, nil
}

// Get returns a single row.
// Returns domain.ErrNotFound if the row does not exist.
func (r *Repo) Get(ctx context.Context, propertyID, roomTypeID uuid.UUID, ratePlanCode string, date time.Time) (*domain.RateDay, error) {
	sql, args, err := postgres.Builder().
		Select(columns...).
		From("rate_days").
		Where(sq.Eq{
			"property_id":    propertyID,
			"room_type_id":   roomTypeID,
			"rate_plan_code": ratePlanCode,
			"date":           domain.NormalizeDate(date),
		}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	d, err := scanRateDay(r.q.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, postgres.MapError(err, "rate_day", ratePlanCode+"@"+date.Format(domain.DateLayout))
	}
	return &d, nil
}

// Set writes a directly requested price on every existing row of the scope
// and flags the rows as manual overrides.
func (r *Repo) Set(ctx context.Context, scope domain.DayScope, ratePlanCode string, amount decimal.Decimal) (int64, error) {
	return r.update(ctx, scope, ratePlanCode, amount, true, nil)
}

// SetDerived writes a cascaded price and clears the manual flag. Rows that
// are manual overrides are skipped unless includeManual is set.
func (r *Repo) SetDerived(ctx context.Context, scope domain.DayScope, ratePlanCode string, amount decimal.Decimal, includeManual bool) (int64, error) {
	var extra sq.Sqlizer
	if !includeManual {
		extra = sq.Eq{"is_manual_override": false}
	}
	return r.update(ctx, scope, ratePlanCode, amount, false, extra)
}

func (r *Repo) update(
	ctx context.Context, scope domain.DayScope, ratePlanCode string,
	amount decimal.Decimal, manual bool, extra sq.Sqlizer,
) (int64, error) {
	if scope.Size() == 0 {
		return 0, nil
	}

	b := postgres.Builder().
		Update("rate_days").
		Set("amount", postgres.Numeric(amount)).
		Set("is_manual_override", manual).
		Set("updated_at", sq.Expr("now()")).
		Where(postgres.ScopeWhere(scope)).
		Where(sq.Eq{"rate_plan_code": ratePlanCode})
	if extra != nil {
		b = b.Where(extra)
	}

	n, err := postgres.Exec(ctx, r.q, b)
	if err != nil {
		return 0, postgres.MapError(err, "rate_days", ratePlanCode)
	}
	return n, nil
}

const restoreSQL = `
UPDATE rate_days
SET amount = $5::numeric, is_manual_override = $6, updated_at = now()
WHERE property_id = $1 AND room_type_id = $2 AND rate_plan_code = $3 AND date = $4`

// Restore writes snapshot amounts and manual flags back by composite key in
// one batch. A nil snapshot amount restores NULL.
func (r *Repo) Restore(ctx context.Context, rows []domain.RateDay) error {
	if len(rows) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, d := range rows {
		batch.Queue(restoreSQL,
			d.PropertyID, d.RoomTypeID, d.RatePlanCode, domain.NormalizeDate(d.Date),
			postgres.NumericPtr(d.Amount), d.IsManualOverride,
		)
	}

	if _, err := postgres.SendBatchExec(ctx, r.q, batch); err != nil {
		return postgres.MapError(err, "rate_days", "restore")
	}
	return nil
}

// Put upserts a row as is. It is used to seed baseline prices.
func (r *Repo) Put(ctx context.Context, d domain.RateDay) error {
	b := postgres.Builder().
		Insert("rate_days").
		Columns("property_id", "room_type_id", "rate_plan_code", "date", "amount", "is_manual_override").
		Values(d.PropertyID, d.RoomTypeID, d.RatePlanCode, domain.NormalizeDate(d.Date),
			sq.Expr("?::numeric", postgres.NumericPtr(d.Amount)), d.IsManualOverride).
		Suffix("ON CONFLICT (property_id, room_type_id, rate_plan_code, date) DO UPDATE " +
			"SET amount = EXCLUDED.amount, is_manual_override = EXCLUDED.is_manual_override, updated_at = now()")

	if _, err := postgres.Exec(ctx, r.q, b); err != nil {
		return postgres.MapError(err, "rate_day", d.RatePlanCode)
	}
	return nil
}

func scanRateDay(row pgx.Row) (domain.RateDay, error) {
	var (
		d      domain.RateDay
		amount *string
	)
	if err := row.Scan(&d.PropertyID, &d.RoomTypeID, &d.RatePlanCode, &d.Date, &amount, &d.IsManualOverride); err != nil {
		return domain.RateDay{}, err
	}

	a, err := postgres.ParseNumeric(amount)
	if err != nil {
		return domain.RateDay{}, err
	}
	d.Amount = a
	d.Date = domain.NormalizeDate(d.Date)
	return d, nil
}
