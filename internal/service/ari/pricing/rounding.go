// Package pricing implements the pure rate arithmetic of the ARI engine:
// rounding rules and derived-plan price computation.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/heartmarshall/pms-backend/internal/domain"
)

var (
	five    = decimal.NewFromInt(5)
	ten     = decimal.NewFromInt(10)
	hundred = decimal.NewFromInt(100)

	cents99 = decimal.RequireFromString("0.99")
	cents90 = decimal.RequireFromString("0.90")
)

// Round applies a rounding rule to a rate. Unknown rules and NONE return
// the value unchanged. Halves round away from zero.
//
//	NEAREST_WHOLE  round(v)
//	ENDING_99      floor(v) + 0.99
//	ENDING_90      floor(v) + 0.90
//	MULTIPLE_5     round(v / 5) * 5
//	MULTIPLE_10    round(v / 10) * 10
func Round(value decimal.Decimal, rule domain.RoundingRule) decimal.Decimal {
	switch rule {
	case domain.RoundingNearestWhole:
		return value.Round(0)
	case domain.RoundingEnding99:
		return value.Floor().Add(cents99)
	case domain.RoundingEnding90:
		return value.Floor().Add(cents90)
	case domain.RoundingMultiple5:
		return roundToMultiple(value, five)
	case domain.RoundingMultiple10:
		return roundToMultiple(value, ten)
	default:
		return value
	}
}

func roundToMultiple(value, step decimal.Decimal) decimal.Decimal {
	return value.Div(step).Round(0).Mul(step)
}
