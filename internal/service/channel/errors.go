package channel

import (
	"fmt"

	"github.com/heartmarshall/pms-backend/internal/domain"
)

// DuplicateEventError reports an event id that was already ingested for the
// property. It matches domain.ErrConflict.
type DuplicateEventError struct {
	EventID string
}

func (e *DuplicateEventError) Error() string {
	return fmt.Sprintf("event %s already ingested", e.EventID)
}

func (e *DuplicateEventError) Unwrap() error {
	return domain.ErrConflict
}
