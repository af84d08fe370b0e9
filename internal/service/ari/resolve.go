package ari

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/heartmarshall/pms-backend/internal/domain"
	"github.com/heartmarshall/pms-backend/internal/service/ari/pricing"
)

// ---------------------------------------------------------------------------
// 3. ResolvePrice
// ---------------------------------------------------------------------------

// ResolvePrice returns the effective price of a room type under a rate plan on
// a date. A stored price wins; otherwise a derived plan is priced from its
// parent chain. It returns nil when no price can be determined.
func (s *Service) ResolvePrice(ctx context.Context, propertyID, roomTypeID uuid.UUID, ratePlanCode string, date time.Time) (*decimal.Decimal, error) {
	if ratePlanCode == "" {
		return nil, domain.NewValidationError("rate_plan_code", "required")
	}
	date = domain.NormalizeDate(date)

	var price *decimal.Decimal
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		plan, err := tx.GetRatePlanByCode(ctx, propertyID, ratePlanCode)
		if err != nil {
			return fmt.Errorf("get rate plan %s: %w", ratePlanCode, err)
		}
		r := resolver{tx: tx, propertyID: propertyID, roomTypeID: roomTypeID, date: date, maxDepth: s.cfg.MaxDerivationDepth}
		price, err = r.resolve(ctx, plan, make(map[uuid.UUID]bool), 0)
		return err
	})
	if err != nil {
		return nil, err
	}
	return price, nil
}

type resolver struct {
	tx         Tx
	propertyID uuid.UUID
	roomTypeID uuid.UUID
	date       time.Time
	maxDepth   int
}

func (r resolver) resolve(ctx context.Context, plan *domain.RatePlan, visited map[uuid.UUID]bool, depth int) (*decimal.Decimal, error) {
	if visited[plan.ID] {
		return nil, domain.NewValidationError("rate_plan", "derivation cycle through "+plan.Code)
	}
	if depth > r.maxDepth {
		return nil, domain.NewValidationError("rate_plan", fmt.Sprintf("derivation chain of %s deeper than %d", plan.Code, r.maxDepth))
	}
	visited[plan.ID] = true

	day, err := r.tx.GetRateDay(ctx, r.propertyID, r.roomTypeID, plan.Code, r.date)
	switch {
	case err == nil && day.Amount != nil:
		amount := *day.Amount
		return &amount, nil
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("get rate day %s: %w", plan.Code, err)
	}

	if !plan.IsDerived() {
		return nil, nil
	}

	parent, err := r.tx.GetRatePlanByID(ctx, r.propertyID, *plan.ParentRatePlanID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get parent rate plan of %s: %w", plan.Code, err)
	}

	parentPrice, err := r.resolve(ctx, parent, visited, depth+1)
	if err != nil || parentPrice == nil {
		return nil, err
	}

	price := pricing.Derive(*parentPrice, *plan)
	return &price, nil
}
