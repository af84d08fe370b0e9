package ari

import (
	"strings"
	"testing"
)

func TestClamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		requested int
		capacity  int
		want      int
		warn      bool
	}{
		{name: "below capacity", requested: 5, capacity: 10, want: 5},
		{name: "at capacity", requested: 10, capacity: 10, want: 10},
		{name: "above capacity", requested: 20, capacity: 15, want: 15, warn: true},
		{name: "no rooms", requested: 1, capacity: 0, want: 0, warn: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, warning := Clamp("DLX", tt.requested, tt.capacity)
			if got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
			if (warning != "") != tt.warn {
				t.Errorf("unexpected warning %q", warning)
			}
			if tt.warn && !strings.Contains(warning, "DLX") {
				t.Errorf("warning must name the room type: %q", warning)
			}
		})
	}
}

func TestWarningSet(t *testing.T) {
	t.Parallel()

	var w warningSet
	if got := w.list(); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", got)
	}

	w.add("b")
	w.add("a")
	w.add("")
	w.add("b")

	got := w.list()
	if len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Errorf("expected [b a], got %v", got)
	}
}
