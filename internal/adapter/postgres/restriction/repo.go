// Package restriction implements per-day stay restriction storage in PostgreSQL.
package restriction

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	postgres "github.com/heartmarshall/pms-backend/internal/adapter/postgres"
	"github.com/heartmarshall/pms-backend/internal/domain"
)

// Repo provides restriction_days access over a pool or a transaction.
type Repo struct {
	q postgres.Querier
}

// New creates a new restriction repository.
func New(q postgres.Querier) *Repo {
	return &Repo{q: q}
}

const ensureDaysSQL = `
INSERT INTO restriction_days (property_id, room_type_id, rate_plan_code, date)
SELECT $1, rt.id, $4, d.date
FROM unnest($2::uuid[]) AS rt(id)
CROSS JOIN unnest($3::date[]) AS d(date)
ON CONFLICT (property_id, room_type_id, rate_plan_code, date) DO NOTHING`

// EnsureDays inserts an unrestricted row for every pair of the scope under
// the plan code that has none.
func (r *Repo) EnsureDays(ctx context.Context, scope domain.DayScope, ratePlanCode string) error {
	if scope.Size() == 0 {
		return nil
	}
	if _, err := r.q.Exec(ctx, ensureDaysSQL, scope.PropertyID, scope.RoomTypeIDs, scope.Dates, ratePlanCode); err != nil {
		return postgres.MapError(err, "restriction_days", ratePlanCode)
	}
	return nil
}

// Update sets the non-nil fields of change on every existing row of the
// scope and returns the number of rows updated. An empty change is a no-op.
func (r *Repo) Update(ctx context.Context, scope domain.DayScope, ratePlanCode string, change domain.RestrictionChange) (int64, error) {
	if scope.Size() == 0 || change.IsEmpty() {
		return 0, nil
	}

	b := postgres.Builder().
		Update("restriction_days").
		Set("updated_at", sq.Expr("now()")).
		Where(postgres.ScopeWhere(scope)).
		Where(sq.Eq{"rate_plan_code": ratePlanCode})

	if change.MinLOS != nil {
		b = b.Set("min_los", *change.MinLOS)
	}
	if change.MaxLOS != nil {
		b = b.Set("max_los", *change.MaxLOS)
	}
	if change.ClosedToArrival != nil {
		b = b.Set("closed_to_arrival", *change.ClosedToArrival)
	}
	if change.ClosedToDeparture != nil {
		b = b.Set("closed_to_departure", *change.ClosedToDeparture)
	}
	if change.Closed != nil {
		b = b.Set("closed", *change.Closed)
	}

	n, err := postgres.Exec(ctx, r.q, b)
	if err != nil {
		return 0, postgres.MapError(err, "restriction_days", ratePlanCode)
	}
	return n, nil
}

// Get returns a single row.
// Returns domain.ErrNotFound if the row does not exist.
func (r *Repo) Get(ctx context.Context, propertyID, roomTypeID uuid.UUID, ratePlanCode string, date time.Time) (*domain.RestrictionDay, error) {
	sql, args, err := postgres.Builder().
		Select("property_id", "room_type_id", "rate_plan_code", "date",
			"min_los", "max_los", "closed_to_arrival", "closed_to_departure", "closed").
		From("restriction_days").
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

	var d domain.RestrictionDay
	err = r.q.QueryRow(ctx, sql, args...).Scan(
		&d.PropertyID, &d.RoomTypeID, &d.RatePlanCode, &d.Date,
		&d.MinLOS, &d.MaxLOS, &d.ClosedToArrival, &d.ClosedToDeparture, &d.Closed,
	)
	if err != nil {
		return nil, postgres.MapError(err, "restriction_day", ratePlanCode+"@"+date.Format(domain.DateLayout))
	}
	d.Date = domain.NormalizeDate(d.Date)
	return &d, nil
}
