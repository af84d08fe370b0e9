package domain

// RoomStatus is the operational status of a physical room.
type RoomStatus string

const (
	RoomStatusInService    RoomStatus = "IN_SERVICE"
	RoomStatusOutOfOrder   RoomStatus = "OUT_OF_ORDER"
	RoomStatusOutOfService RoomStatus = "OUT_OF_SERVICE"
)

func (s RoomStatus) String() string { return string(s) }

func (s RoomStatus) IsValid() bool {
	switch s {
	case RoomStatusInService, RoomStatusOutOfOrder, RoomStatusOutOfService:
		return true
	}
	return false
}

// Sellable reports whether a room with this status counts towards capacity.
// Only OUT_OF_ORDER rooms are removed from the sellable stock.
func (s RoomStatus) Sellable() bool {
	return s != RoomStatusOutOfOrder
}

// DerivedType describes how a derived rate plan adjusts its parent's price.
type DerivedType string

const (
	DerivedTypeNone        DerivedType = ""
	DerivedTypePercentage  DerivedType = "PERCENTAGE"
	DerivedTypeFixedAmount DerivedType = "FIXED_AMOUNT"
)

func (d DerivedType) String() string { return string(d) }

func (d DerivedType) IsValid() bool {
	switch d {
	case DerivedTypeNone, DerivedTypePercentage, DerivedTypeFixedAmount:
		return true
	}
	return false
}

// RoundingRule names the rounding applied to a derived price.
type RoundingRule string

const (
	RoundingNone         RoundingRule = "NONE"
	RoundingNearestWhole RoundingRule = "NEAREST_WHOLE"
	RoundingEnding99     RoundingRule = "ENDING_99"
	RoundingEnding90     RoundingRule = "ENDING_90"
	RoundingMultiple5    RoundingRule = "MULTIPLE_5"
	RoundingMultiple10   RoundingRule = "MULTIPLE_10"
)

func (r RoundingRule) String() string { return string(r) }

func (r RoundingRule) IsValid() bool {
	switch r {
	case RoundingNone, RoundingNearestWhole, RoundingEnding99, RoundingEnding90,
		RoundingMultiple5, RoundingMultiple10:
		return true
	}
	return false
}

// AriEventType classifies an ARI event by the field group it changes.
type AriEventType string

const (
	AriEventAvailability AriEventType = "AVAILABILITY"
	AriEventRate         AriEventType = "RATE"
	AriEventRestriction  AriEventType = "RESTRICTION"
)

func (t AriEventType) String() string { return string(t) }

func (t AriEventType) IsValid() bool {
	switch t {
	case AriEventAvailability, AriEventRate, AriEventRestriction:
		return true
	}
	return false
}

// AriEventStatus is the lifecycle state of an ARI event.
type AriEventStatus string

const (
	AriEventPending AriEventStatus = "PENDING"
	AriEventApplied AriEventStatus = "APPLIED"
	AriEventError   AriEventStatus = "ERROR"
	AriEventDeduped AriEventStatus = "DEDUPED"
)

func (s AriEventStatus) String() string { return string(s) }

func (s AriEventStatus) IsValid() bool {
	switch s {
	case AriEventPending, AriEventApplied, AriEventError, AriEventDeduped:
		return true
	}
	return false
}

// EventSource records which entry point produced an ARI event.
type EventSource string

const (
	EventSourceBulk    EventSource = "bulk"
	EventSourceChannel EventSource = "channel"
	EventSourceCascade EventSource = "cascade"
)
