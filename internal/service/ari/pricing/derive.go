package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/heartmarshall/pms-backend/internal/domain"
)

// Derive computes a derived plan's price from its parent's price.
//
//	PERCENTAGE    parent * (1 + value/100)
//	FIXED_AMOUNT  parent + value
//
// The plan's rounding rule is applied afterwards. A plan without a derived
// type inherits the parent price as is. The result may be negative; callers
// that persist it decide whether to clamp.
func Derive(parent decimal.Decimal, plan domain.RatePlan) decimal.Decimal {
	var price decimal.Decimal
	switch plan.DerivedType {
	case domain.DerivedTypePercentage:
		price = parent.Mul(decimal.NewFromInt(1).Add(plan.DerivedValue.Div(hundred)))
	case domain.DerivedTypeFixedAmount:
		price = parent.Add(plan.DerivedValue)
	default:
		price = parent
	}

	if plan.RoundingRule == "" || plan.RoundingRule == domain.RoundingNone {
		return price
	}
	return Round(price, plan.RoundingRule)
}

// DeriveNonNegative is Derive clamped at zero, as written by parent cascades.
func DeriveNonNegative(parent decimal.Decimal, plan domain.RatePlan) decimal.Decimal {
	price := Derive(parent, plan)
	if price.IsNegative() {
		return decimal.Zero
	}
	return price
}

// Formula renders the derivation for audit payloads, e.g.
// "round(100 * (1 + -10/100), NEAREST_WHOLE) = 90".
func Formula(parent decimal.Decimal, plan domain.RatePlan, result decimal.Decimal) string {
	var expr string
	switch plan.DerivedType {
	case domain.DerivedTypePercentage:
		expr = fmt.Sprintf("%s * (1 + %s/100)", parent, plan.DerivedValue)
	case domain.DerivedTypeFixedAmount:
		expr = fmt.Sprintf("%s + %s", parent, plan.DerivedValue)
	default:
		expr = parent.String()
	}
	if plan.RoundingRule != "" && plan.RoundingRule != domain.RoundingNone {
		expr = fmt.Sprintf("round(%s, %s)", expr, plan.RoundingRule)
	}
	return fmt.Sprintf("%s = %s", expr, result)
}
