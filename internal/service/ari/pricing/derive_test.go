package pricing

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/heartmarshall/pms-backend/internal/domain"
)

func derivedPlan(dt domain.DerivedType, value string, rule domain.RoundingRule) domain.RatePlan {
	parent := uuid.New()
	return domain.RatePlan{
		ID:               uuid.New(),
		Code:             "CHILD",
		ParentRatePlanID: &parent,
		DerivedType:      dt,
		DerivedValue:     dec(value),
		RoundingRule:     rule,
	}
}

func TestDerive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		parent string
		plan   domain.RatePlan
		want   string
	}{
		{"percentage discount", "100", derivedPlan(domain.DerivedTypePercentage, "-10", domain.RoundingNone), "90"},
		{"percentage markup rounded", "123.45", derivedPlan(domain.DerivedTypePercentage, "15", domain.RoundingNearestWhole), "142"},
		{"percentage ending 99", "200", derivedPlan(domain.DerivedTypePercentage, "-12.5", domain.RoundingEnding99), "175.99"},
		{"fixed amount", "80", derivedPlan(domain.DerivedTypeFixedAmount, "25.50", domain.RoundingNone), "105.50"},
		{"fixed amount multiple 10", "80", derivedPlan(domain.DerivedTypeFixedAmount, "26", domain.RoundingMultiple10), "110"},
		{"fixed negative", "20", derivedPlan(domain.DerivedTypeFixedAmount, "-30", domain.RoundingNone), "-10"},
		{"no derived type inherits", "77", derivedPlan(domain.DerivedTypeNone, "0", domain.RoundingNone), "77"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Derive(dec(tt.parent), tt.plan)
			if !got.Equal(dec(tt.want)) {
				t.Errorf("Derive(%s) = %s, want %s", tt.parent, got, tt.want)
			}
		})
	}
}

func TestDeriveNonNegative_ClampsAtZero(t *testing.T) {
	t.Parallel()

	plan := derivedPlan(domain.DerivedTypeFixedAmount, "-30", domain.RoundingNone)
	if got := DeriveNonNegative(dec("20"), plan); !got.IsZero() {
		t.Errorf("got %s, want 0", got)
	}
	if got := DeriveNonNegative(dec("50"), plan); !got.Equal(dec("20")) {
		t.Errorf("got %s, want 20", got)
	}
}

func TestFormula(t *testing.T) {
	t.Parallel()

	plan := derivedPlan(domain.DerivedTypePercentage, "-10", domain.RoundingNearestWhole)
	got := Formula(dec("100"), plan, dec("90"))
	if !strings.HasPrefix(got, "round(100 * (1 + -10/100), NEAREST_WHOLE)") || !strings.HasSuffix(got, "= 90") {
		t.Errorf("unexpected formula %q", got)
	}
}
