package ari

// BulkResult is returned by a successful bulk mutation.
type BulkResult struct {
	Applied         bool
	Warnings        []string
	// EventIDs are the per-room-type events, in room type order.
	EventIDs        []string
	// CascadeEventIDs are the events recorded for derived rate plans.
	CascadeEventIDs []string
}

// UndoResult is returned by Undo.
type UndoResult struct {
	EventID             string
	Message             string
	RestoredInventories int
	RestoredRates       int
	// AlreadyUndone is set when the event had been undone before; the
	// snapshot was re-applied anyway.
	AlreadyUndone       bool
}
