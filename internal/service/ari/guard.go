package ari

import "fmt"

// Clamp caps a requested availability at the physical capacity of a room
// type. It returns the value to store and, when the request was capped, a
// human-readable warning. Clamping is advisory: it never fails.
func Clamp(roomType string, requested, capacity int) (int, string) {
	if requested <= capacity {
		return requested, ""
	}
	return capacity, fmt.Sprintf(
		"room type %s: requested availability %d exceeds physical capacity %d, capped at %d",
		roomType, requested, capacity, capacity,
	)
}

// warningSet collects warnings, dropping duplicates and keeping first-seen order.
type warningSet struct {
	seen  map[string]struct{}
	items []string
}

func (w *warningSet) add(msg string) {
	if msg == "" {
		return
	}
	if w.seen == nil {
		w.seen = make(map[string]struct{})
	}
	if _, ok := w.seen[msg]; ok {
		return
	}
	w.seen[msg] = struct{}{}
	w.items = append(w.items, msg)
}

// list never returns nil so results serialize as [].
func (w *warningSet) list() []string {
	if w.items == nil {
		return []string{}
	}
	return w.items
}
