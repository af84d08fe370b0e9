package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestPriceCmd_RejectsBadFlagsBeforeConnecting(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"bad room type", []string{"--room-type", "dlx", "--plan", "BAR", "--date", "2026-05-01"}, "--room-type"},
		{"bad date", []string{"--room-type", "8d6f3a52-3f0a-4c47-9a86-5d4a2b1e7c10", "--plan", "BAR", "--date", "May 1"}, "--date"},
		{"missing plan", []string{"--room-type", "8d6f3a52-3f0a-4c47-9a86-5d4a2b1e7c10", "--date", "2026-05-01"}, "plan"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := priceCmd()
			cmd.SetArgs(tt.args)
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})

			err := cmd.Execute()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestUndoCmd_RequiresEventID(t *testing.T) {
	cmd := undoCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error without event id")
	}
}
