package seeder

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/heartmarshall/pms-backend/internal/domain"
)

// Property is a complete demo property in insertion order: parents before
// children.
type Property struct {
	ID        uuid.UUID
	RoomTypes []domain.RoomType
	Rooms     []domain.PhysicalRoom
	RatePlans []domain.RatePlan
	Rates     []domain.RateDay
}

type roomTypeSpec struct {
	code, name string
	inService  int
	outOfOrder int
	outOfSvc   int
	priceRatio string
}

var demoRoomTypes = []roomTypeSpec{
	{code: "STD", name: "Standard", inService: 20, priceRatio: "0.8"},
	{code: "DLX", name: "Deluxe", inService: 11, outOfOrder: 1, priceRatio: "1"},
	{code: "STE", name: "Suite", inService: 3, outOfSvc: 1, priceRatio: "1.8"},
}

// BuildDemo returns a property with three room types and a rate plan tree:
//
//	BAR (base, priced for every room type)
//	├── NONREF  -10%, NEAREST_WHOLE
//	│   └── MEMBER  -5%, ENDING_99
//	└── WEEKLY  -20 fixed, NONE
func BuildDemo(cfg Config, today time.Time) (*Property, error) {
	propertyID := uuid.New()
	if cfg.PropertyID != "" {
		id, err := uuid.Parse(cfg.PropertyID)
		if err != nil {
			return nil, fmt.Errorf("seeder: property id: %w", err)
		}
		propertyID = id
	}

	start := domain.NormalizeDate(today)
	if cfg.StartDate != "" {
		d, err := domain.ParseDate(cfg.StartDate)
		if err != nil {
			return nil, fmt.Errorf("seeder: %w", err)
		}
		start = d
	}
	if cfg.HorizonDays <= 0 {
		return nil, fmt.Errorf("seeder: horizon_days must be positive, got %d", cfg.HorizonDays)
	}

	base, err := decimal.NewFromString(cfg.BasePrice)
	if err != nil {
		return nil, fmt.Errorf("seeder: base price: %w", err)
	}
	if !base.IsPositive() {
		return nil, fmt.Errorf("seeder: base price must be positive, got %s", base)
	}

	p := &Property{ID: propertyID}

	for _, def := range demoRoomTypes {
		rt := domain.RoomType{ID: uuid.New(), PropertyID: propertyID, Code: def.code, Name: def.name, Active: true}
		p.RoomTypes = append(p.RoomTypes, rt)

		n := 0
		addRooms := func(count int, status domain.RoomStatus) {
			for i := 0; i < count; i++ {
				n++
				p.Rooms = append(p.Rooms, domain.PhysicalRoom{
					ID:         uuid.New(),
					RoomTypeID: rt.ID,
					Number:     fmt.Sprintf("%s-%02d", def.code, n),
					Status:     status,
				})
			}
		}
		addRooms(def.inService, domain.RoomStatusInService)
		addRooms(def.outOfOrder, domain.RoomStatusOutOfOrder)
		addRooms(def.outOfSvc, domain.RoomStatusOutOfService)

		price := base.Mul(decimal.RequireFromString(def.priceRatio)).Round(2)
		for d := 0; d < cfg.HorizonDays; d++ {
			amount := price
			p.Rates = append(p.Rates, domain.RateDay{
				PropertyID:   propertyID,
				RoomTypeID:   rt.ID,
				RatePlanCode: "BAR",
				Date:         start.AddDate(0, 0, d),
				Amount:       &amount,
			})
		}
	}

	bar := domain.RatePlan{ID: uuid.New(), PropertyID: propertyID, Code: "BAR", Name: "Best Available Rate"}
	nonref := derivedPlan(propertyID, "NONREF", "Non-refundable", bar.ID, domain.DerivedTypePercentage, "-10", domain.RoundingNearestWhole)
	member := derivedPlan(propertyID, "MEMBER", "Member rate", nonref.ID, domain.DerivedTypePercentage, "-5", domain.RoundingEnding99)
	weekly := derivedPlan(propertyID, "WEEKLY", "Weekly stay", bar.ID, domain.DerivedTypeFixedAmount, "-20", domain.RoundingNone)
	p.RatePlans = []domain.RatePlan{bar, nonref, member, weekly}

	return p, nil
}

func derivedPlan(
	propertyID uuid.UUID, code, name string, parent uuid.UUID,
	kind domain.DerivedType, value string, rounding domain.RoundingRule,
) domain.RatePlan {
	return domain.RatePlan{
		ID:               uuid.New(),
		PropertyID:       propertyID,
		Code:             code,
		Name:             name,
		ParentRatePlanID: &parent,
		DerivedType:      kind,
		DerivedValue:     decimal.RequireFromString(value),
		RoundingRule:     rounding,
	}
}
