package domain

import (
	"time"

	"github.com/google/uuid"
)

// DayScope selects per-day ARI rows of a property: every (room type × date)
// pair of the listed room types and dates.
type DayScope struct {
	PropertyID  uuid.UUID
	RoomTypeIDs []uuid.UUID
	Dates       []time.Time
}

// ForRoomType narrows the scope to a single room type.
func (s DayScope) ForRoomType(id uuid.UUID) DayScope {
	return DayScope{PropertyID: s.PropertyID, RoomTypeIDs: []uuid.UUID{id}, Dates: s.Dates}
}

// Size returns the number of (room type × date) pairs in the scope.
func (s DayScope) Size() int {
	return len(s.RoomTypeIDs) * len(s.Dates)
}

// EventFilter contains filtering/pagination parameters for event listings.
// A zero PropertyID matches every property.
type EventFilter struct {
	PropertyID uuid.UUID
	Status     *AriEventStatus
	// OnlyActive excludes events that have been undone.
	OnlyActive bool
	// Oldest lists in insertion order instead of newest first.
	Oldest     bool
	Limit      int
}

// EventUpdate is the set of mutable columns of an ARI event.
type EventUpdate struct {
	Status    AriEventStatus
	Error     string
	UndoneAt  *time.Time
	UpdatedAt time.Time
}
