// Package rateplan reads rate plans and their derivation links from PostgreSQL.
package rateplan

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	postgres "github.com/heartmarshall/pms-backend/internal/adapter/postgres"
	"github.com/heartmarshall/pms-backend/internal/domain"
)

// Repo provides rate plan access over a pool or a transaction.
type Repo struct {
	q postgres.Querier
}

// New creates a new rate plan repository.
func New(q postgres.Querier) *Repo {
	return &Repo{q: q}
}

var columns = []string{
	"id", "property_id", "code", "name", "parent_rate_plan_id",
	"coalesce(derived_type, '')", "derived_value::text", "rounding_rule",
}

func selectPlans() sq.SelectBuilder {
	return postgres.Builder().Select(columns...).From("rate_plans")
}

// GetByCode returns a rate plan by its property-unique code.
// Returns domain.ErrNotFound if no such plan exists.
func (r *Repo) GetByCode(ctx context.Context, propertyID uuid.UUID, code string) (*domain.RatePlan, error) {
	return r.getOne(ctx, selectPlans().Where(sq.Eq{"property_id": propertyID, "code": code}), code)
}

// GetByID returns a rate plan of the property by primary key.
// Returns domain.ErrNotFound if the plan does not exist or belongs to another property.
func (r *Repo) GetByID(ctx context.Context, propertyID, id uuid.UUID) (*domain.RatePlan, error) {
	return r.getOne(ctx, selectPlans().Where(sq.Eq{"property_id": propertyID, "id": id}), id)
}

// ListChildren returns the plans deriving directly from parentID, ordered by code.
func (r *Repo) ListChildren(ctx context.Context, propertyID, parentID uuid.UUID) ([]domain.RatePlan, error) {
	b := selectPlans().
		Where(sq.Eq{"property_id": propertyID, "parent_rate_plan_id": parentID}).
		OrderBy("code")

	rows, err := postgres.Query(ctx, r.q, b)
	if err != nil {
		return nil, fmt.Errorf("list child rate plans: %w", err)
	}
	defer rows.Close()

	result := []domain.RatePlan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("list child rate plans: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list child rate plans: %w", err)
	}
	return result, nil
}

// Create inserts a rate plan. A derived plan's parent must already exist.
func (r *Repo) Create(ctx context.Context, p domain.RatePlan) error {
	var derivedType *string
	if p.DerivedType != domain.DerivedTypeNone {
		s := string(p.DerivedType)
		derivedType = &s
	}
	rounding := p.RoundingRule
	if rounding == "" {
		rounding = domain.RoundingNone
	}

	b := postgres.Builder().
		Insert("rate_plans").
		Columns("id", "property_id", "code", "name", "parent_rate_plan_id", "derived_type", "derived_value", "rounding_rule").
		Values(p.ID, p.PropertyID, p.Code, p.Name, p.ParentRatePlanID, derivedType, postgres.Numeric(p.DerivedValue), string(rounding))

	if _, err := postgres.Exec(ctx, r.q, b); err != nil {
		return postgres.MapError(err, "rate_plan", p.Code)
	}
	return nil
}

func (r *Repo) getOne(ctx context.Context, b sq.SelectBuilder, key any) (*domain.RatePlan, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	p, err := scanPlan(r.q.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, postgres.MapError(err, "rate_plan", key)
	}
	return &p, nil
}

func scanPlan(row pgx.Row) (domain.RatePlan, error) {
	var (
		p           domain.RatePlan
		derivedType string
		value       string
		rounding    string
	)
	if err := row.Scan(&p.ID, &p.PropertyID, &p.Code, &p.Name, &p.ParentRatePlanID, &derivedType, &value, &rounding); err != nil {
		return domain.RatePlan{}, err
	}

	v, err := postgres.ParseNumeric(&value)
	if err != nil {
		return domain.RatePlan{}, err
	}
	p.DerivedValue = *v
	p.DerivedType = domain.DerivedType(derivedType)
	p.RoundingRule = domain.RoundingRule(rounding)
	return p, nil
}
