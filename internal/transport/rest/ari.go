package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/heartmarshall/pms-backend/internal/domain"
	"github.com/heartmarshall/pms-backend/internal/service/ari"
	"github.com/heartmarshall/pms-backend/internal/service/channel"
	"github.com/heartmarshall/pms-backend/pkg/ctxutil"
)

// ariService defines the engine operations needed by ARIHandler.
type ariService interface {
	ApplyBulk(ctx context.Context, propertyID uuid.UUID, input ari.BulkInput) (*ari.BulkResult, error)
	Undo(ctx context.Context, propertyID uuid.UUID, eventID string) (*ari.UndoResult, error)
	GetEvent(ctx context.Context, propertyID uuid.UUID, eventID string) (*domain.AriEvent, error)
	ListEvents(ctx context.Context, propertyID uuid.UUID, input ari.ListEventsInput) ([]domain.AriEvent, error)
	ResolvePrice(ctx context.Context, propertyID, roomTypeID uuid.UUID, ratePlanCode string, date time.Time) (*decimal.Decimal, error)
}

// channelService defines the channel manager operations needed by ARIHandler.
type channelService interface {
	Ingest(ctx context.Context, propertyID uuid.UUID, in channel.InboundEvent) (*channel.IngestResult, error)
	ApplyPending(ctx context.Context, propertyID uuid.UUID, eventID string) (*channel.IngestResult, error)
}

// ARIHandler serves the property-scoped ARI endpoints.
type ARIHandler struct {
	ari     ariService
	channel channelService
	log     *slog.Logger
}

// NewARIHandler creates an ARIHandler.
func NewARIHandler(ariSvc ariService, channelSvc channelService, logger *slog.Logger) *ARIHandler {
	return &ARIHandler{ari: ariSvc, channel: channelSvc, log: logger.With("handler", "ari")}
}

// EventIDParam is the chi URL parameter naming an event.
const EventIDParam = "eventID"

// propertyID reads the id stored by middleware.Property.
func propertyID(r *http.Request) (uuid.UUID, bool) {
	return ctxutil.PropertyIDFromCtx(r.Context())
}

// ApplyBulk handles POST /properties/{propertyID}/ari/bulk.
func (h *ARIHandler) ApplyBulk(w http.ResponseWriter, r *http.Request) {
	pid, ok := propertyID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing property")
		return
	}

	var req bulkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(h.log, w, r, err)
		return
	}

	result, err := h.ari.ApplyBulk(r.Context(), pid, req.toInput())
	if err != nil {
		writeDomainError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toBulkResponse(result))
}

// Ingest handles POST /properties/{propertyID}/ari/events.
// Accepted events answer 202; a repeated event id answers 409 with status DEDUPED.
func (h *ARIHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	pid, ok := propertyID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing property")
		return
	}

	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(h.log, w, r, err)
		return
	}

	result, err := h.channel.Ingest(r.Context(), pid, req.toInput())
	var dup *channel.DuplicateEventError
	if errors.As(err, &dup) {
		writeJSON(w, http.StatusConflict, ingestResponse{EventID: dup.EventID, Status: domain.AriEventDeduped.String()})
		return
	}
	if err != nil {
		writeDomainError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, toIngestResponse(result))
}

// Undo handles POST /properties/{propertyID}/ari/events/{eventID}/undo.
func (h *ARIHandler) Undo(w http.ResponseWriter, r *http.Request) {
	pid, ok := propertyID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing property")
		return
	}

	result, err := h.ari.Undo(r.Context(), pid, chi.URLParam(r, EventIDParam))
	if err != nil {
		writeDomainError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, undoResponse{
		EventID:             result.EventID,
		Message:             result.Message,
		RestoredInventories: result.RestoredInventories,
		RestoredRates:       result.RestoredRates,
		AlreadyUndone:       result.AlreadyUndone,
	})
}

// ApplyPending handles POST /properties/{propertyID}/ari/events/{eventID}/apply.
func (h *ARIHandler) ApplyPending(w http.ResponseWriter, r *http.Request) {
	pid, ok := propertyID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing property")
		return
	}

	result, err := h.channel.ApplyPending(r.Context(), pid, chi.URLParam(r, EventIDParam))
	if err != nil {
		writeDomainError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toIngestResponse(result))
}

// GetEvent handles GET /properties/{propertyID}/ari/events/{eventID}.
func (h *ARIHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	pid, ok := propertyID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing property")
		return
	}

	event, err := h.ari.GetEvent(r.Context(), pid, chi.URLParam(r, EventIDParam))
	if err != nil {
		writeDomainError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toEventResponse(*event))
}

// ListEvents handles GET /properties/{propertyID}/ari/events?limit=&status=.
func (h *ARIHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	pid, ok := propertyID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing property")
		return
	}

	var input ari.ListEventsInput
	q := r.URL.Query()
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeDomainError(h.log, w, r, domain.NewValidationError("limit", "must be an integer"))
			return
		}
		input.Limit = limit
	}
	if raw := q.Get("status"); raw != "" {
		status := domain.AriEventStatus(raw)
		input.Status = &status
	}

	events, err := h.ari.ListEvents(r.Context(), pid, input)
	if err != nil {
		writeDomainError(h.log, w, r, err)
		return
	}

	resp := make([]eventResponse, len(events))
	for i, e := range events {
		resp[i] = toEventResponse(e)
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": resp})
}

// ResolvePrice handles GET /properties/{propertyID}/ari/price?roomTypeId=&ratePlanCode=&date=.
func (h *ARIHandler) ResolvePrice(w http.ResponseWriter, r *http.Request) {
	pid, ok := propertyID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing property")
		return
	}

	q := r.URL.Query()
	query := priceQuery{
		RoomTypeID:   q.Get("roomTypeId"),
		RatePlanCode: q.Get("ratePlanCode"),
		Date:         q.Get("date"),
	}
	if err := validateRequest(query); err != nil {
		writeDomainError(h.log, w, r, err)
		return
	}
	date, _ := domain.ParseDate(query.Date)

	price, err := h.ari.ResolvePrice(r.Context(), pid, uuid.MustParse(query.RoomTypeID), query.RatePlanCode, date)
	if err != nil {
		writeDomainError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPriceResponse(price))
}
