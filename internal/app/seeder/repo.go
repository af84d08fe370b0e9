// Package seeder loads a demo property (room types, rooms, rate plans and
// base prices) into either storage backend.
package seeder

import (
	"context"
	"fmt"

	"github.com/heartmarshall/pms-backend/internal/adapter/memory"
	"github.com/heartmarshall/pms-backend/internal/adapter/postgres"
	"github.com/heartmarshall/pms-backend/internal/adapter/postgres/rate"
	"github.com/heartmarshall/pms-backend/internal/adapter/postgres/rateplan"
	"github.com/heartmarshall/pms-backend/internal/adapter/postgres/roomtype"
	"github.com/heartmarshall/pms-backend/internal/domain"
)

// Repo is the write contract consumed by the pipeline. Batches are written
// in order; each method returns the number of rows written.
type Repo interface {
	InsertRoomTypes(ctx context.Context, rts []domain.RoomType) (int, error)
	InsertRooms(ctx context.Context, rooms []domain.PhysicalRoom) (int, error)
	InsertRatePlans(ctx context.Context, plans []domain.RatePlan) (int, error)
	PutRates(ctx context.Context, rows []domain.RateDay) (int, error)
}

// ---------------------------------------------------------------------------
// Postgres
// ---------------------------------------------------------------------------

// PostgresRepo writes through the reference and rate repositories. Pass a
// pgx.Tx to seed atomically.
type PostgresRepo struct {
	roomTypes *roomtype.Repo
	ratePlans *rateplan.Repo
	rates     *rate.Repo
}

// NewPostgresRepo creates a PostgresRepo over q.
func NewPostgresRepo(q postgres.Querier) *PostgresRepo {
	return &PostgresRepo{roomTypes: roomtype.New(q), ratePlans: rateplan.New(q), rates: rate.New(q)}
}

func (r *PostgresRepo) InsertRoomTypes(ctx context.Context, rts []domain.RoomType) (int, error) {
	for i, rt := range rts {
		if err := r.roomTypes.Create(ctx, rt); err != nil {
			return i, fmt.Errorf("room type %s: %w", rt.Code, err)
		}
	}
	return len(rts), nil
}

func (r *PostgresRepo) InsertRooms(ctx context.Context, rooms []domain.PhysicalRoom) (int, error) {
	for i, room := range rooms {
		if err := r.roomTypes.AddRoom(ctx, room); err != nil {
			return i, fmt.Errorf("room %s: %w", room.Number, err)
		}
	}
	return len(rooms), nil
}

func (r *PostgresRepo) InsertRatePlans(ctx context.Context, plans []domain.RatePlan) (int, error) {
	for i, p := range plans {
		if err := r.ratePlans.Create(ctx, p); err != nil {
			return i, fmt.Errorf("rate plan %s: %w", p.Code, err)
		}
	}
	return len(plans), nil
}

func (r *PostgresRepo) PutRates(ctx context.Context, rows []domain.RateDay) (int, error) {
	for i, row := range rows {
		if err := r.rates.Put(ctx, row); err != nil {
			return i, fmt.Errorf("rate %s %s: %w", row.RatePlanCode, row.Date.Format(domain.DateLayout), err)
		}
	}
	return len(rows), nil
}

// ---------------------------------------------------------------------------
// Memory
// ---------------------------------------------------------------------------

// MemoryRepo writes into an in-process store.
type MemoryRepo struct {
	store *memory.Store
}

// NewMemoryRepo creates a MemoryRepo.
func NewMemoryRepo(store *memory.Store) *MemoryRepo {
	return &MemoryRepo{store: store}
}

func (r *MemoryRepo) InsertRoomTypes(_ context.Context, rts []domain.RoomType) (int, error) {
	for _, rt := range rts {
		r.store.AddRoomType(rt)
	}
	return len(rts), nil
}

func (r *MemoryRepo) InsertRooms(_ context.Context, rooms []domain.PhysicalRoom) (int, error) {
	for _, room := range rooms {
		r.store.AddRoom(room)
	}
	return len(rooms), nil
}

func (r *MemoryRepo) InsertRatePlans(_ context.Context, plans []domain.RatePlan) (int, error) {
	for _, p := range plans {
		r.store.AddRatePlan(p)
	}
	return len(plans), nil
}

func (r *MemoryRepo) PutRates(_ context.Context, rows []domain.RateDay) (int, error) {
	for _, row := range rows {
		r.store.PutRateDay(row)
	}
	return len(rows), nil
}
