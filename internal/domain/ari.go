package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RoomType is a sellable category of rooms owned by a property.
// It is read-only to the ARI engine.
type RoomType struct {
	ID         uuid.UUID
	PropertyID uuid.UUID
	Code       string
	Name       string
	Active     bool
}

// PhysicalRoom is a single bookable room. Its status determines capacity.
type PhysicalRoom struct {
	ID         uuid.UUID
	RoomTypeID uuid.UUID
	Number     string
	Status     RoomStatus
}

// RatePlan is a priced product. A derived plan references its parent by ID
// and computes its price from the parent's price.
type RatePlan struct {
	ID               uuid.UUID
	PropertyID       uuid.UUID
	Code             string
	Name             string
	ParentRatePlanID *uuid.UUID
	DerivedType      DerivedType
	DerivedValue     decimal.Decimal
	RoundingRule     RoundingRule
}

// IsDerived reports whether the plan takes its price from a parent plan.
func (p RatePlan) IsDerived() bool {
	return p.ParentRatePlanID != nil
}

// InventoryDay is the sellable stock of a room type on a date.
type InventoryDay struct {
	PropertyID uuid.UUID `json:"propertyId"`
	RoomTypeID uuid.UUID `json:"roomTypeId"`
	Date       time.Time `json:"date"`
	Total      int       `json:"total"`
	Available  int       `json:"available"`
}

// RateDay is the price of a room type under a rate plan on a date.
type RateDay struct {
	PropertyID       uuid.UUID        `json:"propertyId"`
	RoomTypeID       uuid.UUID        `json:"roomTypeId"`
	RatePlanCode     string           `json:"ratePlanCode"`
	Date             time.Time        `json:"date"`
	Amount           *decimal.Decimal `json:"amount"`
	IsManualOverride bool             `json:"isManualOverride"`
}

// RestrictionDay holds stay restrictions of a room type under a rate plan on a date.
type RestrictionDay struct {
	PropertyID        uuid.UUID
	RoomTypeID        uuid.UUID
	RatePlanCode      string
	Date              time.Time
	MinLOS            *int
	MaxLOS            *int
	ClosedToArrival   bool
	ClosedToDeparture bool
	Closed            bool
}

// AriEvent is an append-only audit record of one ARI mutation.
//
// A bulk mutation records one event per room type covering every change
// group it carried. Type is the first group present in apply order
// (availability, rate, restriction); Payload.Fields holds all of them and
// Snapshot the rows of every group that has one. RatePlanCode is empty when
// no group used a rate plan.
type AriEvent struct {
	ID           uuid.UUID
	EventID      string
	PropertyID   uuid.UUID
	RoomTypeID   *uuid.UUID
	RoomTypeCode string
	RatePlanCode string
	Type         AriEventType
	DateFrom     time.Time
	DateTo       time.Time
	Payload      AriEventPayload
	Snapshot     *AriSnapshot
	Status       AriEventStatus
	Error        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	UndoneAt     *time.Time
}

// IsUndone reports whether the event has been reverted at least once.
func (e AriEvent) IsUndone() bool {
	return e.UndoneAt != nil
}

// AriEventPayload is the display part of an event: what was requested and
// how the engine applied it. Replay data lives in AriSnapshot.
type AriEventPayload struct {
	Source     EventSource     `json:"source"`
	Fields     ChangeFields    `json:"fields"`
	DaysOfWeek []int           `json:"daysOfWeek,omitempty"`
	Clamp      *ClampInfo      `json:"clamp,omitempty"`
	Derivation *DerivationInfo `json:"derivation,omitempty"`
	ParentID   string          `json:"parentEventId,omitempty"`
}

// ClampInfo records an availability request that was capped at capacity.
type ClampInfo struct {
	Requested int `json:"requested"`
	Applied   int `json:"applied"`
	Capacity  int `json:"capacity"`
}

// DerivationInfo documents the formula used for a cascaded child price.
type DerivationInfo struct {
	ParentRatePlanCode string          `json:"parentRatePlanCode"`
	ParentPrice        decimal.Decimal `json:"parentPrice"`
	DerivedType        DerivedType     `json:"derivedType"`
	DerivedValue       decimal.Decimal `json:"derivedValue"`
	RoundingRule       RoundingRule    `json:"roundingRule"`
	Result             decimal.Decimal `json:"result"`
	Formula            string          `json:"formula"`
}

// AriSnapshot holds the pre-mutation rows an undo restores.
type AriSnapshot struct {
	Inventories []InventoryDay `json:"inventories,omitempty"`
	Rates       []RateDay      `json:"rates,omitempty"`
}

// Empty reports whether the snapshot carries no rows.
func (s *AriSnapshot) Empty() bool {
	return s == nil || (len(s.Inventories) == 0 && len(s.Rates) == 0)
}
