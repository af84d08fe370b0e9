// Package arievent implements the ARI event log using PostgreSQL.
// Events are append-only apart from their status, error and undo marker.
package arievent

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	postgres "github.com/heartmarshall/pms-backend/internal/adapter/postgres"
	"github.com/heartmarshall/pms-backend/internal/domain"
)

// Repo provides ari_events access over a pool or a transaction.
type Repo struct {
	q postgres.Querier
}

// New creates a new ARI event repository.
func New(q postgres.Querier) *Repo {
	return &Repo{q: q}
}

var columns = []string{
	"id", "event_id", "property_id", "room_type_id", "room_type_code", "rate_plan_code",
	"type", "date_from", "date_to", "payload", "snapshot", "status", "error",
	"created_at", "updated_at", "undone_at",
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create appends an event.
// Returns domain.ErrAlreadyExists if (property_id, event_id) is taken.
func (r *Repo) Create(ctx context.Context, e *domain.AriEvent) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("ari_event %s marshal payload: %w", e.EventID, err)
	}

	var snapshot []byte
	if e.Snapshot != nil {
		if snapshot, err = json.Marshal(e.Snapshot); err != nil {
			return fmt.Errorf("ari_event %s marshal snapshot: %w", e.EventID, err)
		}
	}

	b := postgres.Builder().
		Insert("ari_events").
		Columns(columns...).
		Values(
			e.ID, e.EventID, e.PropertyID, e.RoomTypeID, e.RoomTypeCode, e.RatePlanCode,
			string(e.Type), domain.NormalizeDate(e.DateFrom), domain.NormalizeDate(e.DateTo),
			payload, snapshot, string(e.Status), e.Error,
			e.CreatedAt, e.UpdatedAt, e.UndoneAt,
		)

	if _, err := postgres.Exec(ctx, r.q, b); err != nil {
		return postgres.MapError(err, "ari_event", e.EventID)
	}
	return nil
}

// Update overwrites status, error and updated_at. undone_at is only ever
// set, never cleared.
// Returns domain.ErrNotFound if the event does not exist.
func (r *Repo) Update(ctx context.Context, propertyID uuid.UUID, eventID string, upd domain.EventUpdate) error {
	b := postgres.Builder().
		Update("ari_events").
		Set("status", string(upd.Status)).
		Set("error", upd.Error).
		Set("updated_at", upd.UpdatedAt).
		Where(sq.Eq{"property_id": propertyID, "event_id": eventID})
	if upd.UndoneAt != nil {
		b = b.Set("undone_at", *upd.UndoneAt)
	}

	n, err := postgres.Exec(ctx, r.q, b)
	if err != nil {
		return postgres.MapError(err, "ari_event", eventID)
	}
	if n == 0 {
		return fmt.Errorf("ari_event %s: %w", eventID, domain.ErrNotFound)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// Get returns an event by its property-scoped event id.
// Returns domain.ErrNotFound if the event does not exist.
func (r *Repo) Get(ctx context.Context, propertyID uuid.UUID, eventID string) (*domain.AriEvent, error) {
	sql, args, err := postgres.Builder().
		Select(columns...).
		From("ari_events").
		Where(sq.Eq{"property_id": propertyID, "event_id": eventID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	e, err := scanEvent(r.q.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, postgres.MapError(err, "ari_event", eventID)
	}
	return e, nil
}

// List returns events matching the filter, newest first unless
// filter.Oldest is set.
func (r *Repo) List(ctx context.Context, filter domain.EventFilter) ([]domain.AriEvent, error) {
	b := postgres.Builder().
		Select(columns...).
		From("ari_events")

	if filter.PropertyID != uuid.Nil {
		b = b.Where(sq.Eq{"property_id": filter.PropertyID})
	}
	if filter.Status != nil {
		b = b.Where(sq.Eq{"status": string(*filter.Status)})
	}
	if filter.OnlyActive {
		b = b.Where(sq.Eq{"undone_at": nil})
	}
	if filter.Oldest {
		b = b.OrderBy("seq ASC")
	} else {
		b = b.OrderBy("seq DESC")
	}
	if filter.Limit > 0 {
		b = b.Limit(uint64(filter.Limit))
	}

	rows, err := postgres.Query(ctx, r.q, b)
	if err != nil {
		return nil, fmt.Errorf("list ari_events: %w", err)
	}
	defer rows.Close()

	result := []domain.AriEvent{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("list ari_events: %w", err)
		}
		result = append(result, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list ari_events: %w", err)
	}
	return result, nil
}

// ---------------------------------------------------------------------------
// Row scanning helpers
// ---------------------------------------------------------------------------

func scanEvent(row pgx.Row) (*domain.AriEvent, error) {
	var (
		e         domain.AriEvent
		eventType string
		status    string
		payload   []byte
		snapshot  []byte
	)
	err := row.Scan(
		&e.ID, &e.EventID, &e.PropertyID, &e.RoomTypeID, &e.RoomTypeCode, &e.RatePlanCode,
		&eventType, &e.DateFrom, &e.DateTo, &payload, &snapshot, &status, &e.Error,
		&e.CreatedAt, &e.UpdatedAt, &e.UndoneAt,
	)
	if err != nil {
		return nil, err
	}

	e.Type = domain.AriEventType(eventType)
	e.Status = domain.AriEventStatus(status)
	e.DateFrom = domain.NormalizeDate(e.DateFrom)
	e.DateTo = domain.NormalizeDate(e.DateTo)

	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &e.Payload); err != nil {
			return nil, fmt.Errorf("ari_event %s unmarshal payload: %w", e.EventID, err)
		}
	}
	if len(snapshot) > 0 {
		e.Snapshot = &domain.AriSnapshot{}
		if err := json.Unmarshal(snapshot, e.Snapshot); err != nil {
			return nil, fmt.Errorf("ari_event %s unmarshal snapshot: %w", e.EventID, err)
		}
	}
	return &e, nil
}
