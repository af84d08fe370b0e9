package rest

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/heartmarshall/pms-backend/internal/domain"
	"github.com/heartmarshall/pms-backend/internal/service/ari"
	"github.com/heartmarshall/pms-backend/internal/service/channel"
)

// ---------------------------------------------------------------------------
// Requests
// ---------------------------------------------------------------------------

type bulkRequest struct {
	DateFrom       string              `json:"dateFrom" validate:"required,datetime=2006-01-02"`
	DateTo         string              `json:"dateTo" validate:"required,datetime=2006-01-02"`
	RoomTypeIDs    []string            `json:"roomTypeIds" validate:"required,min=1,dive,uuid"`
	DaysOfWeek     []int               `json:"daysOfWeek" validate:"omitempty,max=7,dive,min=0,max=6"`
	RatePlanCode   string              `json:"ratePlanCode" validate:"omitempty,max=64"`
	OverrideManual bool                `json:"overrideManual"`
	Changes        domain.ChangeFields `json:"changes" validate:"-"`
}

// toInput converts a validated request. Field formats were checked by the
// struct tags, so parse errors cannot occur here.
func (r bulkRequest) toInput() ari.BulkInput {
	from, _ := domain.ParseDate(r.DateFrom)
	to, _ := domain.ParseDate(r.DateTo)

	ids := make([]uuid.UUID, len(r.RoomTypeIDs))
	for i, s := range r.RoomTypeIDs {
		ids[i] = uuid.MustParse(s)
	}

	var days []time.Weekday
	for _, d := range r.DaysOfWeek {
		days = append(days, time.Weekday(d))
	}

	return ari.BulkInput{
		DateFrom:       from,
		DateTo:         to,
		RoomTypeIDs:    ids,
		DaysOfWeek:     days,
		RatePlanCode:   r.RatePlanCode,
		OverrideManual: r.OverrideManual,
		Changes:        r.Changes.Changes(),
	}
}

type eventRequest struct {
	EventID      string          `json:"eventId" validate:"omitempty,max=128"`
	EventType    string          `json:"eventType" validate:"required,oneof=AVAILABILITY RATE RESTRICTION"`
	RoomTypeCode string          `json:"roomTypeCode" validate:"required,max=64"`
	RatePlanCode string          `json:"ratePlanCode" validate:"omitempty,max=64"`
	DateFrom     string          `json:"dateFrom" validate:"required,datetime=2006-01-02"`
	DateTo       string          `json:"dateTo" validate:"required,datetime=2006-01-02"`
	Payload      json.RawMessage `json:"payload" validate:"required"`
	Defer        bool            `json:"defer"`
}

func (r eventRequest) toInput() channel.InboundEvent {
	from, _ := domain.ParseDate(r.DateFrom)
	to, _ := domain.ParseDate(r.DateTo)
	return channel.InboundEvent{
		EventID:      r.EventID,
		EventType:    domain.AriEventType(r.EventType),
		RoomTypeCode: r.RoomTypeCode,
		RatePlanCode: r.RatePlanCode,
		DateFrom:     from,
		DateTo:       to,
		Payload:      r.Payload,
		Defer:        r.Defer,
	}
}

type priceQuery struct {
	RoomTypeID   string `json:"roomTypeId" validate:"required,uuid"`
	RatePlanCode string `json:"ratePlanCode" validate:"required,max=64"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
}

// ---------------------------------------------------------------------------
// Responses
// ---------------------------------------------------------------------------

type bulkResponse struct {
	Applied         bool     `json:"applied"`
	Warnings        []string `json:"warnings"`
	EventIDs        []string `json:"eventIds"`
	CascadeEventIDs []string `json:"cascadeEventIds,omitempty"`
}

func toBulkResponse(r *ari.BulkResult) bulkResponse {
	return bulkResponse{
		Applied:         r.Applied,
		Warnings:        nonNil(r.Warnings),
		EventIDs:        nonNil(r.EventIDs),
		CascadeEventIDs: r.CascadeEventIDs,
	}
}

type ingestResponse struct {
	EventID         string   `json:"eventId"`
	Status          string   `json:"status"`
	Warnings        []string `json:"warnings,omitempty"`
	AppliedEventIDs []string `json:"appliedEventIds,omitempty"`
}

func toIngestResponse(r *channel.IngestResult) ingestResponse {
	return ingestResponse{
		EventID:         r.EventID,
		Status:          r.Status.String(),
		Warnings:        r.Warnings,
		AppliedEventIDs: r.AppliedEventIDs,
	}
}

type undoResponse struct {
	EventID             string `json:"eventId"`
	Message             string `json:"message"`
	RestoredInventories int    `json:"restoredInventories"`
	RestoredRates       int    `json:"restoredRates"`
	AlreadyUndone       bool   `json:"alreadyUndone"`
}

type eventResponse struct {
	EventID      string                 `json:"eventId"`
	RoomTypeID   *string                `json:"roomTypeId,omitempty"`
	RoomTypeCode string                 `json:"roomTypeCode,omitempty"`
	RatePlanCode string                 `json:"ratePlanCode,omitempty"`
	Type         string                 `json:"type"`
	DateFrom     string                 `json:"dateFrom"`
	DateTo       string                 `json:"dateTo"`
	Status       string                 `json:"status"`
	Error        string                 `json:"error,omitempty"`
	Payload      domain.AriEventPayload `json:"payload"`
	Undoable     bool                   `json:"undoable"`
	CreatedAt    time.Time              `json:"createdAt"`
	UndoneAt     *time.Time             `json:"undoneAt,omitempty"`
}

func toEventResponse(e domain.AriEvent) eventResponse {
	resp := eventResponse{
		EventID:      e.EventID,
		RoomTypeCode: e.RoomTypeCode,
		RatePlanCode: e.RatePlanCode,
		Type:         e.Type.String(),
		DateFrom:     e.DateFrom.Format(domain.DateLayout),
		DateTo:       e.DateTo.Format(domain.DateLayout),
		Status:       e.Status.String(),
		Error:        e.Error,
		Payload:      e.Payload,
		Undoable:     !e.Snapshot.Empty(),
		CreatedAt:    e.CreatedAt,
		UndoneAt:     e.UndoneAt,
	}
	if e.RoomTypeID != nil {
		id := e.RoomTypeID.String()
		resp.RoomTypeID = &id
	}
	return resp
}

type priceResponse struct {
	Price *string `json:"price"`
}

func toPriceResponse(p *decimal.Decimal) priceResponse {
	if p == nil {
		return priceResponse{}
	}
	s := p.StringFixed(2)
	return priceResponse{Price: &s}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
