package postgres

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"github.com/heartmarshall/pms-backend/internal/domain"
)

// ScopeWhere matches every per-day row of the scope: the property, any of
// its room types and any of its dates.
func ScopeWhere(scope domain.DayScope) sq.And {
	return sq.And{
		sq.Eq{"property_id": scope.PropertyID},
		sq.Expr("room_type_id = ANY(?::uuid[])", scope.RoomTypeIDs),
		sq.Expr("date = ANY(?::date[])", scope.Dates),
	}
}

// Numeric returns a NUMERIC bind expression for a decimal.
// The value travels as text so no precision is lost.
func Numeric(d decimal.Decimal) sq.Sqlizer {
	return sq.Expr("?::numeric", d.String())
}

// NumericPtr returns the text bind value of an optional amount for a
// ::numeric placeholder. Nil binds NULL.
func NumericPtr(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

// ParseNumeric converts a NUMERIC selected as ::text back into a decimal.
// A NULL column yields nil.
func ParseNumeric(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, fmt.Errorf("parse numeric %q: %w", *s, err)
	}
	return &d, nil
}
