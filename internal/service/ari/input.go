package ari

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/pms-backend/internal/domain"
)

// BulkInput holds the parameters of a bulk ARI mutation.
type BulkInput struct {
	DateFrom       time.Time
	DateTo         time.Time
	RoomTypeIDs    []uuid.UUID
	// DaysOfWeek optionally restricts the range to these weekdays.
	DaysOfWeek     []time.Weekday
	RatePlanCode   string
	// OverrideManual lets the price cascade overwrite child rows flagged
	// as manual overrides.
	OverrideManual bool
	Changes        []domain.Change
}

// Validate checks all fields and collects all errors.
func (i *BulkInput) Validate(cfg Config) error {
	var errs []domain.FieldError

	if i.DateFrom.IsZero() {
		errs = append(errs, domain.FieldError{Field: "date_from", Message: "required"})
	}
	if i.DateTo.IsZero() {
		errs = append(errs, domain.FieldError{Field: "date_to", Message: "required"})
	}
	if !i.DateFrom.IsZero() && !i.DateTo.IsZero() {
		switch {
		case domain.NormalizeDate(i.DateTo).Before(domain.NormalizeDate(i.DateFrom)):
			errs = append(errs, domain.FieldError{Field: "date_to", Message: "must not be before date_from"})
		case domain.DaysBetween(i.DateFrom, i.DateTo) > cfg.MaxRangeDays:
			errs = append(errs, domain.FieldError{Field: "date_to", Message: fmt.Sprintf("range exceeds %d days", cfg.MaxRangeDays)})
		case len(domain.ExpandDates(i.DateFrom, i.DateTo, i.DaysOfWeek)) == 0:
			errs = append(errs, domain.FieldError{Field: "days_of_week", Message: "no date in range matches"})
		}
	}

	if len(i.RoomTypeIDs) == 0 {
		errs = append(errs, domain.FieldError{Field: "room_type_ids", Message: "at least one required"})
	}
	for _, id := range i.RoomTypeIDs {
		if id == uuid.Nil {
			errs = append(errs, domain.FieldError{Field: "room_type_ids", Message: "must not contain empty ids"})
			break
		}
	}

	for _, wd := range i.DaysOfWeek {
		if wd < time.Sunday || wd > time.Saturday {
			errs = append(errs, domain.FieldError{Field: "days_of_week", Message: "must be between 0 (Sunday) and 6 (Saturday)"})
			break
		}
	}

	errs = append(errs, validateChanges(i.Changes, strings.TrimSpace(i.RatePlanCode) != "")...)

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

func validateChanges(changes []domain.Change, hasPlan bool) []domain.FieldError {
	var errs []domain.FieldError

	if len(changes) == 0 {
		return append(errs, domain.FieldError{Field: "changes", Message: "at least one of available, price or restrictions required"})
	}

	seen := make(map[domain.AriEventType]bool, len(changes))
	for _, ch := range changes {
		if ch == nil {
			errs = append(errs, domain.FieldError{Field: "changes", Message: "must not contain nil"})
			continue
		}
		if seen[ch.EventType()] {
			errs = append(errs, domain.FieldError{Field: "changes", Message: "duplicate " + strings.ToLower(ch.EventType().String()) + " change"})
			continue
		}
		seen[ch.EventType()] = true

		switch c := ch.(type) {
		case domain.AvailabilityChange:
			if c.Available < 0 {
				errs = append(errs, domain.FieldError{Field: "available", Message: "must be non-negative"})
			}
		case domain.RateChange:
			if c.Price.IsNegative() {
				errs = append(errs, domain.FieldError{Field: "price", Message: "must be non-negative"})
			}
			if !hasPlan {
				errs = append(errs, domain.FieldError{Field: "rate_plan_code", Message: "required for price changes"})
			}
		case domain.RestrictionChange:
			errs = append(errs, validateRestriction(c, hasPlan)...)
		}
	}
	return errs
}

func validateRestriction(c domain.RestrictionChange, hasPlan bool) []domain.FieldError {
	var errs []domain.FieldError
	if c.IsEmpty() {
		errs = append(errs, domain.FieldError{Field: "restrictions", Message: "at least one field required"})
	}
	if c.MinLOS != nil && *c.MinLOS < 1 {
		errs = append(errs, domain.FieldError{Field: "min_los", Message: "must be at least 1"})
	}
	if c.MaxLOS != nil && *c.MaxLOS < 1 {
		errs = append(errs, domain.FieldError{Field: "max_los", Message: "must be at least 1"})
	}
	if c.MinLOS != nil && c.MaxLOS != nil && *c.MinLOS > *c.MaxLOS {
		errs = append(errs, domain.FieldError{Field: "max_los", Message: "must not be less than min_los"})
	}
	if !hasPlan {
		errs = append(errs, domain.FieldError{Field: "rate_plan_code", Message: "required for restriction changes"})
	}
	return errs
}

// ApplyOptions tune ApplyInTx for callers other than ApplyBulk.
type ApplyOptions struct {
	// EventID names the event of the first room type. Empty means generated.
	EventID  string
	Source   domain.EventSource
	// ParentID links the recorded events to an originating event.
	ParentID string
}

// ListEventsInput holds the parameters for listing audit events.
type ListEventsInput struct {
	Status *domain.AriEventStatus
	Limit  int
}

// Validate checks all fields and collects all errors.
func (i *ListEventsInput) Validate() error {
	var errs []domain.FieldError

	if i.Limit < 0 || i.Limit > 500 {
		errs = append(errs, domain.FieldError{Field: "limit", Message: "must be between 0 and 500"})
	}
	if i.Status != nil && !i.Status.IsValid() {
		errs = append(errs, domain.FieldError{Field: "status", Message: "must be PENDING, APPLIED, ERROR or DEDUPED"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}
