// Package roomtype reads room types and their physical rooms from PostgreSQL.
// Both tables are reference data; the ARI engine never writes them.
package roomtype

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	postgres "github.com/heartmarshall/pms-backend/internal/adapter/postgres"
	"github.com/heartmarshall/pms-backend/internal/domain"
)

// Repo provides room type access over a pool or a transaction.
type Repo struct {
	q postgres.Querier
}

// New creates a new room type repository.
func New(q postgres.Querier) *Repo {
	return &Repo{q: q}
}

var columns = []string{"id", "property_id", "code", "name", "active"}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// ListByIDs returns the room types of a property among ids. Unknown ids and
// room types of other properties are silently absent from the result.
func (r *Repo) ListByIDs(ctx context.Context, propertyID uuid.UUID, ids []uuid.UUID) ([]domain.RoomType, error) {
	if len(ids) == 0 {
		return []domain.RoomType{}, nil
	}

	b := postgres.Builder().
		Select(columns...).
		From("room_types").
		Where(sq.Eq{"property_id": propertyID}).
		Where(sq.Expr("id = ANY(?::uuid[])", ids)).
		OrderBy("code")

	rows, err := postgres.Query(ctx, r.q, b)
	if err != nil {
		return nil, fmt.Errorf("list room types: %w", err)
	}
	defer rows.Close()

	result, err := scanRoomTypes(rows)
	if err != nil {
		return nil, fmt.Errorf("list room types: %w", err)
	}
	return result, nil
}

// GetByCode returns a room type by its property-unique code.
// Returns domain.ErrNotFound if no such room type exists.
func (r *Repo) GetByCode(ctx context.Context, propertyID uuid.UUID, code string) (*domain.RoomType, error) {
	sql, args, err := postgres.Builder().
		Select(columns...).
		From("room_types").
		Where(sq.Eq{"property_id": propertyID, "code": code}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rt domain.RoomType
	if err := r.q.QueryRow(ctx, sql, args...).Scan(&rt.ID, &rt.PropertyID, &rt.Code, &rt.Name, &rt.Active); err != nil {
		return nil, postgres.MapError(err, "room_type", code)
	}
	return &rt, nil
}

const countSellableSQL = `
SELECT room_type_id, count(*)
FROM physical_rooms
WHERE room_type_id = ANY($1::uuid[]) AND status <> $2
GROUP BY room_type_id`

// CountSellable returns the number of rooms of each room type that are not
// out of order. Every requested id is present in the result, zero included.
func (r *Repo) CountSellable(ctx context.Context, roomTypeIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(roomTypeIDs))
	for _, id := range roomTypeIDs {
		counts[id] = 0
	}
	if len(roomTypeIDs) == 0 {
		return counts, nil
	}

	rows, err := r.q.Query(ctx, countSellableSQL, roomTypeIDs, string(domain.RoomStatusOutOfOrder))
	if err != nil {
		return nil, fmt.Errorf("count sellable rooms: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id uuid.UUID
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("count sellable rooms: %w", err)
		}
		counts[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count sellable rooms: %w", err)
	}
	return counts, nil
}

// ---------------------------------------------------------------------------
// Reference data writes (seeding and admin tooling)
// ---------------------------------------------------------------------------

// Create inserts a room type.
// Returns domain.ErrAlreadyExists if the code is taken within the property.
func (r *Repo) Create(ctx context.Context, rt domain.RoomType) error {
	b := postgres.Builder().
		Insert("room_types").
		Columns(columns...).
		Values(rt.ID, rt.PropertyID, rt.Code, rt.Name, rt.Active)

	if _, err := postgres.Exec(ctx, r.q, b); err != nil {
		return postgres.MapError(err, "room_type", rt.Code)
	}
	return nil
}

// AddRoom inserts a physical room.
func (r *Repo) AddRoom(ctx context.Context, room domain.PhysicalRoom) error {
	b := postgres.Builder().
		Insert("physical_rooms").
		Columns("id", "room_type_id", "number", "status").
		Values(room.ID, room.RoomTypeID, room.Number, string(room.Status))

	if _, err := postgres.Exec(ctx, r.q, b); err != nil {
		return postgres.MapError(err, "physical_room", room.Number)
	}
	return nil
}

// SetRoomStatus changes the status of a physical room.
// Returns domain.ErrNotFound if the room does not exist.
func (r *Repo) SetRoomStatus(ctx context.Context, roomID uuid.UUID, status domain.RoomStatus) error {
	b := postgres.Builder().
		Update("physical_rooms").
		Set("status", string(status)).
		Where(sq.Eq{"id": roomID})

	n, err := postgres.Exec(ctx, r.q, b)
	if err != nil {
		return postgres.MapError(err, "physical_room", roomID)
	}
	if n == 0 {
		return fmt.Errorf("physical_room %s: %w", roomID, domain.ErrNotFound)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Row scanning helpers
// ---------------------------------------------------------------------------

func scanRoomTypes(rows pgx.Rows) ([]domain.RoomType, error) {
	result := []domain.RoomType{}
	for rows.Next() {
		var rt domain.RoomType
		if err := rows.Scan(&rt.ID, &rt.PropertyID, &rt.Code, &rt.Name, &rt.Active); err != nil {
			return nil, err
		}
		result = append(result, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
