package domain

import (
	"github.com/shopspring/decimal"
)

// Change is one group of ARI field changes. It is a closed set: the only
// implementations are AvailabilityChange, RateChange and RestrictionChange.
type Change interface {
	EventType() AriEventType
	isChange()
}

// AvailabilityChange sets the sellable count.
type AvailabilityChange struct {
	Available int
}

// RateChange sets the price of the target rate plan.
type RateChange struct {
	Price decimal.Decimal
}

// RestrictionChange updates stay restrictions. Nil fields are left untouched.
type RestrictionChange struct {
	MinLOS            *int
	MaxLOS            *int
	ClosedToArrival   *bool
	ClosedToDeparture *bool
	Closed            *bool
}

func (AvailabilityChange) EventType() AriEventType { return AriEventAvailability }
func (RateChange) EventType() AriEventType         { return AriEventRate }
func (RestrictionChange) EventType() AriEventType  { return AriEventRestriction }

func (AvailabilityChange) isChange() {}
func (RateChange) isChange()         {}
func (RestrictionChange) isChange()  {}

// IsEmpty reports whether no restriction field is set.
func (c RestrictionChange) IsEmpty() bool {
	return c.MinLOS == nil && c.MaxLOS == nil && c.ClosedToArrival == nil &&
		c.ClosedToDeparture == nil && c.Closed == nil
}

// ChangeFields is the flat wire/storage form of a change set.
type ChangeFields struct {
	Available         *int             `json:"available,omitempty"`
	Price             *decimal.Decimal `json:"price,omitempty"`
	MinLOS            *int             `json:"minLOS,omitempty"`
	MaxLOS            *int             `json:"maxLOS,omitempty"`
	ClosedToArrival   *bool            `json:"closedToArrival,omitempty"`
	ClosedToDeparture *bool            `json:"closedToDeparture,omitempty"`
	Closed            *bool            `json:"closed,omitempty"`
}

// FieldsFromChanges flattens a change set.
func FieldsFromChanges(changes []Change) ChangeFields {
	var f ChangeFields
	for _, ch := range changes {
		switch c := ch.(type) {
		case AvailabilityChange:
			v := c.Available
			f.Available = &v
		case RateChange:
			p := c.Price
			f.Price = &p
		case RestrictionChange:
			f.MinLOS = c.MinLOS
			f.MaxLOS = c.MaxLOS
			f.ClosedToArrival = c.ClosedToArrival
			f.ClosedToDeparture = c.ClosedToDeparture
			f.Closed = c.Closed
		}
	}
	return f
}

// Changes groups the flat fields back into typed changes, in
// availability, rate, restriction order. Unset groups are omitted.
func (f ChangeFields) Changes() []Change {
	var out []Change
	if f.Available != nil {
		out = append(out, AvailabilityChange{Available: *f.Available})
	}
	if f.Price != nil {
		out = append(out, RateChange{Price: *f.Price})
	}
	rc := RestrictionChange{
		MinLOS:            f.MinLOS,
		MaxLOS:            f.MaxLOS,
		ClosedToArrival:   f.ClosedToArrival,
		ClosedToDeparture: f.ClosedToDeparture,
		Closed:            f.Closed,
	}
	if !rc.IsEmpty() {
		out = append(out, rc)
	}
	return out
}
