// Package memory provides an in-process implementation of the ARI storage
// ports, used by tests and by the "memory" storage driver.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/heartmarshall/pms-backend/internal/domain"
	"github.com/heartmarshall/pms-backend/internal/service/ari"
)

// Store keeps all ARI state in maps. Transactions are serialized by a mutex
// and work on a copy of the state that replaces the live one on commit.
type Store struct {
	mu    sync.Mutex
	state *state
}

type dayKey struct {
	PropertyID uuid.UUID
	RoomTypeID uuid.UUID
	Date       string
}

type planDayKey struct {
	dayKey
	RatePlanCode string
}

type eventKey struct {
	PropertyID uuid.UUID
	EventID    string
}

type state struct {
	roomTypes    map[uuid.UUID]domain.RoomType
	rooms        map[uuid.UUID]domain.PhysicalRoom
	ratePlans    map[uuid.UUID]domain.RatePlan
	inventory    map[dayKey]domain.InventoryDay
	rates        map[planDayKey]domain.RateDay
	restrictions map[planDayKey]domain.RestrictionDay
	events       map[eventKey]domain.AriEvent
	seq          map[eventKey]int // insertion order of events
	nextSeq      int
}

// New creates an empty store.
func New() *Store {
	return &Store{state: &state{
		roomTypes:    make(map[uuid.UUID]domain.RoomType),
		rooms:        make(map[uuid.UUID]domain.PhysicalRoom),
		ratePlans:    make(map[uuid.UUID]domain.RatePlan),
		inventory:    make(map[dayKey]domain.InventoryDay),
		rates:        make(map[planDayKey]domain.RateDay),
		restrictions: make(map[planDayKey]domain.RestrictionDay),
		events:       make(map[eventKey]domain.AriEvent),
		seq:          make(map[eventKey]int),
	}}
}

// Ping reports the store as healthy while ctx is alive.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// clone copies every map. Stored values are never mutated in place, so
// a shallow copy of each map isolates the transaction.
func (s *state) clone() *state {
	return &state{
		roomTypes:    cloneMap(s.roomTypes),
		rooms:        cloneMap(s.rooms),
		ratePlans:    cloneMap(s.ratePlans),
		inventory:    cloneMap(s.inventory),
		rates:        cloneMap(s.rates),
		restrictions: cloneMap(s.restrictions),
		events:       cloneMap(s.events),
		seq:          cloneMap(s.seq),
		nextSeq:      s.nextSeq,
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// RunInTx runs fn on a private copy of the state and publishes it when fn
// returns nil.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx ari.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.state.clone()
	if err := fn(ctx, &Tx{st: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

// ---------------------------------------------------------------------------
// Seeding and inspection
// ---------------------------------------------------------------------------

// AddRoomType registers a room type.
func (s *Store) AddRoomType(rt domain.RoomType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.roomTypes[rt.ID] = rt
}

// AddRoom registers a physical room.
func (s *Store) AddRoom(room domain.PhysicalRoom) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.rooms[room.ID] = room
}

// SetRoomStatus changes the status of a physical room.
func (s *Store) SetRoomStatus(id uuid.UUID, status domain.RoomStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.state.rooms[id]
	if !ok {
		return fmt.Errorf("room %s: %w", id, domain.ErrNotFound)
	}
	room.Status = status
	s.state.rooms[id] = room
	return nil
}

// AddRatePlan registers a rate plan.
func (s *Store) AddRatePlan(plan domain.RatePlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ratePlans[plan.ID] = plan
}

// PutRateDay stores a rate row as is.
func (s *Store) PutRateDay(row domain.RateDay) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row.Date = domain.NormalizeDate(row.Date)
	s.state.rates[rateKey(row.PropertyID, row.RoomTypeID, row.RatePlanCode, row.Date)] = row
}

// InventoryDay returns the stored inventory row, if any.
func (s *Store) InventoryDay(propertyID, roomTypeID uuid.UUID, date time.Time) (domain.InventoryDay, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.state.inventory[invKey(propertyID, roomTypeID, date)]
	return row, ok
}

// RateDay returns the stored rate row, if any.
func (s *Store) RateDay(propertyID, roomTypeID uuid.UUID, ratePlanCode string, date time.Time) (domain.RateDay, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.state.rates[rateKey(propertyID, roomTypeID, ratePlanCode, date)]
	return row, ok
}

// RestrictionDay returns the stored restriction row, if any.
func (s *Store) RestrictionDay(propertyID, roomTypeID uuid.UUID, ratePlanCode string, date time.Time) (domain.RestrictionDay, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.state.restrictions[rateKey(propertyID, roomTypeID, ratePlanCode, date)]
	return row, ok
}

// Counts returns the number of stored inventory, rate, restriction and event rows.
func (s *Store) Counts() (inventory, rates, restrictions, events int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.inventory), len(s.state.rates), len(s.state.restrictions), len(s.state.events)
}

func invKey(propertyID, roomTypeID uuid.UUID, date time.Time) dayKey {
	return dayKey{PropertyID: propertyID, RoomTypeID: roomTypeID, Date: domain.NormalizeDate(date).Format(domain.DateLayout)}
}

func rateKey(propertyID, roomTypeID uuid.UUID, code string, date time.Time) planDayKey {
	return planDayKey{dayKey: invKey(propertyID, roomTypeID, date), RatePlanCode: code}
}

// ---------------------------------------------------------------------------
// Tx
// ---------------------------------------------------------------------------

// Tx is one unit of work over a Store.
type Tx struct {
	st *state
}

var _ ari.Tx = (*Tx)(nil)

func (t *Tx) ListRoomTypes(_ context.Context, propertyID uuid.UUID, ids []uuid.UUID) ([]domain.RoomType, error) {
	out := make([]domain.RoomType, 0, len(ids))
	for _, id := range ids {
		if rt, ok := t.st.roomTypes[id]; ok && rt.PropertyID == propertyID {
			out = append(out, rt)
		}
	}
	return out, nil
}

func (t *Tx) GetRoomTypeByCode(_ context.Context, propertyID uuid.UUID, code string) (*domain.RoomType, error) {
	for _, rt := range t.st.roomTypes {
		if rt.PropertyID == propertyID && rt.Code == code {
			return &rt, nil
		}
	}
	return nil, fmt.Errorf("room type %s: %w", code, domain.ErrNotFound)
}

func (t *Tx) CountSellableRooms(_ context.Context, roomTypeIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(roomTypeIDs))
	for _, id := range roomTypeIDs {
		out[id] = 0
	}
	for _, room := range t.st.rooms {
		if _, ok := out[room.RoomTypeID]; ok && room.Status.Sellable() {
			out[room.RoomTypeID]++
		}
	}
	return out, nil
}

func (t *Tx) GetRatePlanByCode(_ context.Context, propertyID uuid.UUID, code string) (*domain.RatePlan, error) {
	for _, p := range t.st.ratePlans {
		if p.PropertyID == propertyID && p.Code == code {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("rate plan %s: %w", code, domain.ErrNotFound)
}

func (t *Tx) GetRatePlanByID(_ context.Context, propertyID, id uuid.UUID) (*domain.RatePlan, error) {
	p, ok := t.st.ratePlans[id]
	if !ok || p.PropertyID != propertyID {
		return nil, fmt.Errorf("rate plan %s: %w", id, domain.ErrNotFound)
	}
	return &p, nil
}

func (t *Tx) ListChildRatePlans(_ context.Context, propertyID, parentID uuid.UUID) ([]domain.RatePlan, error) {
	var out []domain.RatePlan
	for _, p := range t.st.ratePlans {
		if p.PropertyID == propertyID && p.ParentRatePlanID != nil && *p.ParentRatePlanID == parentID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (t *Tx) EnsureInventoryDays(_ context.Context, scope domain.DayScope) error {
	forEachDay(scope, func(rtID uuid.UUID, date time.Time) {
		k := invKey(scope.PropertyID, rtID, date)
		if _, ok := t.st.inventory[k]; !ok {
			t.st.inventory[k] = domain.InventoryDay{PropertyID: scope.PropertyID, RoomTypeID: rtID, Date: date}
		}
	})
	return nil
}

func (t *Tx) EnsureRateDays(_ context.Context, scope domain.DayScope, ratePlanCode string) error {
	forEachDay(scope, func(rtID uuid.UUID, date time.Time) {
		k := rateKey(scope.PropertyID, rtID, ratePlanCode, date)
		if _, ok := t.st.rates[k]; !ok {
			t.st.rates[k] = domain.RateDay{PropertyID: scope.PropertyID, RoomTypeID: rtID, RatePlanCode: ratePlanCode, Date: date}
		}
	})
	return nil
}

func (t *Tx) EnsureRestrictionDays(_ context.Context, scope domain.DayScope, ratePlanCode string) error {
	forEachDay(scope, func(rtID uuid.UUID, date time.Time) {
		k := rateKey(scope.PropertyID, rtID, ratePlanCode, date)
		if _, ok := t.st.restrictions[k]; !ok {
			t.st.restrictions[k] = domain.RestrictionDay{PropertyID: scope.PropertyID, RoomTypeID: rtID, RatePlanCode: ratePlanCode, Date: date}
		}
	})
	return nil
}

func (t *Tx) ListInventoryDays(_ context.Context, scope domain.DayScope) ([]domain.InventoryDay, error) {
	var out []domain.InventoryDay
	forEachDay(scope, func(rtID uuid.UUID, date time.Time) {
		if row, ok := t.st.inventory[invKey(scope.PropertyID, rtID, date)]; ok {
			out = append(out, row)
		}
	})
	return out, nil
}

func (t *Tx) ListRateDays(_ context.Context, scope domain.DayScope, ratePlanCode string) ([]domain.RateDay, error) {
	var out []domain.RateDay
	forEachDay(scope, func(rtID uuid.UUID, date time.Time) {
		if row, ok := t.st.rates[rateKey(scope.PropertyID, rtID, ratePlanCode, date)]; ok {
			out = append(out, row)
		}
	})
	return out, nil
}

func (t *Tx) GetRateDay(_ context.Context, propertyID, roomTypeID uuid.UUID, ratePlanCode string, date time.Time) (*domain.RateDay, error) {
	row, ok := t.st.rates[rateKey(propertyID, roomTypeID, ratePlanCode, date)]
	if !ok {
		return nil, fmt.Errorf("rate day: %w", domain.ErrNotFound)
	}
	return &row, nil
}

func (t *Tx) SetInventory(_ context.Context, scope domain.DayScope, available, total int) (int64, error) {
	var n int64
	forEachDay(scope, func(rtID uuid.UUID, date time.Time) {
		k := invKey(scope.PropertyID, rtID, date)
		if row, ok := t.st.inventory[k]; ok {
			row.Available, row.Total = available, total
			t.st.inventory[k] = row
			n++
		}
	})
	return n, nil
}

func (t *Tx) SetRate(_ context.Context, scope domain.DayScope, ratePlanCode string, amount decimal.Decimal) (int64, error) {
	var n int64
	forEachDay(scope, func(rtID uuid.UUID, date time.Time) {
		k := rateKey(scope.PropertyID, rtID, ratePlanCode, date)
		if row, ok := t.st.rates[k]; ok {
			a := amount
			row.Amount, row.IsManualOverride = &a, true
			t.st.rates[k] = row
			n++
		}
	})
	return n, nil
}

func (t *Tx) SetDerivedRate(_ context.Context, scope domain.DayScope, ratePlanCode string, amount decimal.Decimal, includeManual bool) (int64, error) {
	var n int64
	forEachDay(scope, func(rtID uuid.UUID, date time.Time) {
		k := rateKey(scope.PropertyID, rtID, ratePlanCode, date)
		row, ok := t.st.rates[k]
		if !ok || (row.IsManualOverride && !includeManual) {
			return
		}
		a := amount
		row.Amount, row.IsManualOverride = &a, false
		t.st.rates[k] = row
		n++
	})
	return n, nil
}

func (t *Tx) UpdateRestrictions(_ context.Context, scope domain.DayScope, ratePlanCode string, change domain.RestrictionChange) (int64, error) {
	var n int64
	forEachDay(scope, func(rtID uuid.UUID, date time.Time) {
		k := rateKey(scope.PropertyID, rtID, ratePlanCode, date)
		row, ok := t.st.restrictions[k]
		if !ok {
			return
		}
		if change.MinLOS != nil {
			v := *change.MinLOS
			row.MinLOS = &v
		}
		if change.MaxLOS != nil {
			v := *change.MaxLOS
			row.MaxLOS = &v
		}
		if change.ClosedToArrival != nil {
			row.ClosedToArrival = *change.ClosedToArrival
		}
		if change.ClosedToDeparture != nil {
			row.ClosedToDeparture = *change.ClosedToDeparture
		}
		if change.Closed != nil {
			row.Closed = *change.Closed
		}
		t.st.restrictions[k] = row
		n++
	})
	return n, nil
}

func (t *Tx) RestoreInventoryDays(_ context.Context, rows []domain.InventoryDay) error {
	for _, snap := range rows {
		k := invKey(snap.PropertyID, snap.RoomTypeID, snap.Date)
		if row, ok := t.st.inventory[k]; ok {
			row.Available, row.Total = snap.Available, snap.Total
			t.st.inventory[k] = row
		}
	}
	return nil
}

func (t *Tx) RestoreRateDays(_ context.Context, rows []domain.RateDay) error {
	for _, snap := range rows {
		k := rateKey(snap.PropertyID, snap.RoomTypeID, snap.RatePlanCode, snap.Date)
		if row, ok := t.st.rates[k]; ok {
			row.Amount, row.IsManualOverride = snap.Amount, snap.IsManualOverride
			t.st.rates[k] = row
		}
	}
	return nil
}

func (t *Tx) CreateEvent(_ context.Context, event *domain.AriEvent) error {
	k := eventKey{PropertyID: event.PropertyID, EventID: event.EventID}
	if _, ok := t.st.events[k]; ok {
		return fmt.Errorf("event %s: %w", event.EventID, domain.ErrAlreadyExists)
	}
	t.st.events[k] = *event
	t.st.nextSeq++
	t.st.seq[k] = t.st.nextSeq
	return nil
}

func (t *Tx) GetEvent(_ context.Context, propertyID uuid.UUID, eventID string) (*domain.AriEvent, error) {
	ev, ok := t.st.events[eventKey{PropertyID: propertyID, EventID: eventID}]
	if !ok {
		return nil, fmt.Errorf("event %s: %w", eventID, domain.ErrNotFound)
	}
	return &ev, nil
}

func (t *Tx) ListEvents(_ context.Context, filter domain.EventFilter) ([]domain.AriEvent, error) {
	var keys []eventKey
	for k, ev := range t.st.events {
		if filter.PropertyID != uuid.Nil && k.PropertyID != filter.PropertyID {
			continue
		}
		if filter.Status != nil && ev.Status != *filter.Status {
			continue
		}
		if filter.OnlyActive && ev.IsUndone() {
			continue
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if filter.Oldest {
			return t.st.seq[keys[i]] < t.st.seq[keys[j]]
		}
		return t.st.seq[keys[i]] > t.st.seq[keys[j]]
	})
	if filter.Limit > 0 && len(keys) > filter.Limit {
		keys = keys[:filter.Limit]
	}

	out := make([]domain.AriEvent, len(keys))
	for i, k := range keys {
		out[i] = t.st.events[k]
	}
	return out, nil
}

func (t *Tx) UpdateEvent(_ context.Context, propertyID uuid.UUID, eventID string, upd domain.EventUpdate) error {
	k := eventKey{PropertyID: propertyID, EventID: eventID}
	ev, ok := t.st.events[k]
	if !ok {
		return fmt.Errorf("event %s: %w", eventID, domain.ErrNotFound)
	}
	ev.Status = upd.Status
	ev.Error = upd.Error
	if upd.UndoneAt != nil {
		ev.UndoneAt = upd.UndoneAt
	}
	ev.UpdatedAt = upd.UpdatedAt
	t.st.events[k] = ev
	return nil
}

func forEachDay(scope domain.DayScope, fn func(roomTypeID uuid.UUID, date time.Time)) {
	for _, rtID := range scope.RoomTypeIDs {
		for _, d := range scope.Dates {
			fn(rtID, domain.NormalizeDate(d))
		}
	}
}
