package testhelper

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/heartmarshall/pms-backend/internal/domain"
)

// Property is a seeded property with two room types and a chain of
// derived rate plans: BAR <- NONREF (-10%, nearest whole) <- MEMBER (-5%, ending 99).
type Property struct {
	ID       uuid.UUID
	Deluxe   domain.RoomType
	Standard domain.RoomType
	BAR      domain.RatePlan
	NonRef   domain.RatePlan
	Member   domain.RatePlan
	// Rooms holds the physical room ids keyed by room type id.
	Rooms    map[uuid.UUID][]uuid.UUID
}

// Deluxe has DeluxeSellable sellable rooms out of DeluxeRooms.
const (
	DeluxeRooms      = 12
	DeluxeSellable   = 10
	StandardRooms    = 8
	StandardSellable = 8
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedProperty creates a fresh property. Every call uses new ids, so tests
// sharing the container never see each other's rows.
func SeedProperty(t *testing.T, pool *pgxpool.Pool) Property {
	t.Helper()

	p := Property{ID: uuid.New(), Rooms: make(map[uuid.UUID][]uuid.UUID)}
	suffix := uniqueSuffix()

	p.Deluxe = seedRoomType(t, pool, p.ID, "DLX", "Deluxe "+suffix)
	p.Standard = seedRoomType(t, pool, p.ID, "STD", "Standard "+suffix)

	// Deluxe: two rooms out of order, the rest in service.
	for i := range DeluxeRooms {
		status := domain.RoomStatusInService
		if i >= DeluxeSellable {
			status = domain.RoomStatusOutOfOrder
		}
		p.Rooms[p.Deluxe.ID] = append(p.Rooms[p.Deluxe.ID], seedRoom(t, pool, p.Deluxe.ID, fmt.Sprintf("1%02d", i), status))
	}
	for i := range StandardRooms {
		p.Rooms[p.Standard.ID] = append(p.Rooms[p.Standard.ID], seedRoom(t, pool, p.Standard.ID, fmt.Sprintf("2%02d", i), domain.RoomStatusInService))
	}

	p.BAR = seedRatePlan(t, pool, domain.RatePlan{
		ID: uuid.New(), PropertyID: p.ID, Code: "BAR", Name: "Best available",
		RoundingRule: domain.RoundingNone,
	})
	p.NonRef = seedRatePlan(t, pool, domain.RatePlan{
		ID: uuid.New(), PropertyID: p.ID, Code: "NONREF", Name: "Non refundable",
		ParentRatePlanID: &p.BAR.ID, DerivedType: domain.DerivedTypePercentage,
		DerivedValue: decimal.NewFromInt(-10), RoundingRule: domain.RoundingNearestWhole,
	})
	p.Member = seedRatePlan(t, pool, domain.RatePlan{
		ID: uuid.New(), PropertyID: p.ID, Code: "MEMBER", Name: "Member",
		ParentRatePlanID: &p.NonRef.ID, DerivedType: domain.DerivedTypePercentage,
		DerivedValue: decimal.NewFromInt(-5), RoundingRule: domain.RoundingEnding99,
	})

	return p
}

func seedRoomType(t *testing.T, pool *pgxpool.Pool, propertyID uuid.UUID, code, name string) domain.RoomType {
	t.Helper()

	rt := domain.RoomType{ID: uuid.New(), PropertyID: propertyID, Code: code, Name: name, Active: true}
	_, err := pool.Exec(context.Background(),
		`INSERT INTO room_types (id, property_id, code, name, active) VALUES ($1, $2, $3, $4, $5)`,
		rt.ID, rt.PropertyID, rt.Code, rt.Name, rt.Active,
	)
	if err != nil {
		t.Fatalf("testhelper: seed room type %s: %v", code, err)
	}
	return rt
}

func seedRoom(t *testing.T, pool *pgxpool.Pool, roomTypeID uuid.UUID, number string, status domain.RoomStatus) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO physical_rooms (id, room_type_id, number, status) VALUES ($1, $2, $3, $4)`,
		id, roomTypeID, number, string(status),
	)
	if err != nil {
		t.Fatalf("testhelper: seed room %s: %v", number, err)
	}
	return id
}

func seedRatePlan(t *testing.T, pool *pgxpool.Pool, p domain.RatePlan) domain.RatePlan {
	t.Helper()

	var derivedType *string
	if p.DerivedType != domain.DerivedTypeNone {
		s := string(p.DerivedType)
		derivedType = &s
	}
	_, err := pool.Exec(context.Background(),
		`INSERT INTO rate_plans (id, property_id, code, name, parent_rate_plan_id, derived_type, derived_value, rounding_rule)
		 VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8)`,
		p.ID, p.PropertyID, p.Code, p.Name, p.ParentRatePlanID, derivedType, p.DerivedValue.String(), string(p.RoundingRule),
	)
	if err != nil {
		t.Fatalf("testhelper: seed rate plan %s: %v", p.Code, err)
	}
	return p
}

// SeedRate stores a price row as is.
func SeedRate(t *testing.T, pool *pgxpool.Pool, row domain.RateDay) {
	t.Helper()

	var amount *string
	if row.Amount != nil {
		s := row.Amount.String()
		amount = &s
	}
	_, err := pool.Exec(context.Background(),
		`INSERT INTO rate_days (property_id, room_type_id, rate_plan_code, date, amount, is_manual_override)
		 VALUES ($1, $2, $3, $4, $5::numeric, $6)
		 ON CONFLICT (property_id, room_type_id, rate_plan_code, date)
		 DO UPDATE SET amount = EXCLUDED.amount, is_manual_override = EXCLUDED.is_manual_override`,
		row.PropertyID, row.RoomTypeID, row.RatePlanCode, domain.NormalizeDate(row.Date), amount, row.IsManualOverride,
	)
	if err != nil {
		t.Fatalf("testhelper: seed rate %s: %v", row.RatePlanCode, err)
	}
}
