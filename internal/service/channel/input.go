package channel

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/heartmarshall/pms-backend/internal/domain"
)

// InboundEvent is an ARI event as pushed by a channel.
type InboundEvent struct {
	// EventID is the channel's idempotency key. Empty means generated.
	EventID      string
	EventType    domain.AriEventType
	RoomTypeCode string
	RatePlanCode string
	DateFrom     time.Time
	DateTo       time.Time
	// Payload holds the field values for EventType, e.g. {"available": 5}.
	Payload json.RawMessage
	// Defer stores the event as PENDING without applying it.
	Defer bool
}

// Validate checks the envelope and decodes the payload into a change.
func (e *InboundEvent) Validate() (domain.Change, error) {
	var errs []domain.FieldError

	if !e.EventType.IsValid() {
		errs = append(errs, domain.FieldError{Field: "eventType", Message: "must be AVAILABILITY, RATE or RESTRICTION"})
	}
	if strings.TrimSpace(e.RoomTypeCode) == "" {
		errs = append(errs, domain.FieldError{Field: "roomTypeCode", Message: "required"})
	}
	if len(e.EventID) > 128 {
		errs = append(errs, domain.FieldError{Field: "eventId", Message: "too long (max 128)"})
	}
	if e.DateFrom.IsZero() || e.DateTo.IsZero() {
		errs = append(errs, domain.FieldError{Field: "dateRange", Message: "from and to required"})
	} else if domain.NormalizeDate(e.DateTo).Before(domain.NormalizeDate(e.DateFrom)) {
		errs = append(errs, domain.FieldError{Field: "dateRange", Message: "to must not be before from"})
	}

	var change domain.Change
	if e.EventType.IsValid() {
		var err error
		change, err = decodePayload(e.EventType, e.Payload)
		if err != nil {
			errs = append(errs, domain.FieldError{Field: "payload", Message: err.Error()})
		}
	}
	if (e.EventType == domain.AriEventRate || e.EventType == domain.AriEventRestriction) && e.RatePlanCode == "" {
		errs = append(errs, domain.FieldError{Field: "ratePlanCode", Message: "required for " + e.EventType.String() + " events"})
	}

	if len(errs) > 0 {
		return nil, domain.NewValidationErrors(errs)
	}
	return change, nil
}

type availabilityPayload struct {
	Available *int `json:"available"`
}

type ratePayload struct {
	Price *decimal.Decimal `json:"price"`
}

type restrictionPayload struct {
	MinLOS            *int  `json:"minLOS"`
	MaxLOS            *int  `json:"maxLOS"`
	ClosedToArrival   *bool `json:"closedToArrival"`
	ClosedToDeparture *bool `json:"closedToDeparture"`
	Closed            *bool `json:"closed"`
}

// decodePayload decodes strictly: fields that do not belong to the event type
// are rejected.
func decodePayload(eventType domain.AriEventType, raw json.RawMessage) (domain.Change, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.New("required")
	}

	switch eventType {
	case domain.AriEventAvailability:
		var p availabilityPayload
		if err := strictDecode(raw, &p); err != nil {
			return nil, err
		}
		if p.Available == nil {
			return nil, errors.New("available required")
		}
		return domain.AvailabilityChange{Available: *p.Available}, nil

	case domain.AriEventRate:
		var p ratePayload
		if err := strictDecode(raw, &p); err != nil {
			return nil, err
		}
		if p.Price == nil {
			return nil, errors.New("price required")
		}
		return domain.RateChange{Price: *p.Price}, nil

	case domain.AriEventRestriction:
		var p restrictionPayload
		if err := strictDecode(raw, &p); err != nil {
			return nil, err
		}
		return domain.RestrictionChange{
			MinLOS:            p.MinLOS,
			MaxLOS:            p.MaxLOS,
			ClosedToArrival:   p.ClosedToArrival,
			ClosedToDeparture: p.ClosedToDeparture,
			Closed:            p.Closed,
		}, nil
	}
	return nil, fmt.Errorf("unsupported event type %s", eventType)
}

func strictDecode(raw json.RawMessage, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("invalid payload: trailing data")
	}
	return nil
}

// IngestResult is returned by Ingest and ApplyPending.
type IngestResult struct {
	EventID  string
	Status   domain.AriEventStatus
	Warnings []string
	// AppliedEventIDs are the mutation events recorded when the event applied.
	AppliedEventIDs []string
}
