package components

import (
	"strings"
	"testing"

	"github.com/druarnfield/stakehut/internal/flow"
)

func TestDefaultStyles(t *testing.T) {
	s := DefaultStyles()

	if s.RadioOn == "" {
		t.Error("RadioOn is empty")
	}
	if s.RadioOff == "" {
		t.Error("RadioOff is empty")
	}
	if s.StatusDone == "" {
		t.Error("StatusDone is empty")
	}
	if s.StatusPending == "" {
		t.Error("StatusPending is empty")
	}
	if s.StatusFailed == "" {
		t.Error("StatusFailed is empty")
	}
}

func TestStatusIcon(t *testing.T) {
	s := DefaultStyles()
	tests := []struct {
		status flow.Status
		want   string
	}{
		{flow.StatusComplete, s.StatusDone},
		{flow.StatusActive, s.StatusRunning},
		{flow.StatusWarning, s.StatusWarning},
		{flow.StatusError, s.StatusFailed},
		{flow.StatusInfo, s.StatusInfo},
		{flow.StatusPending, s.StatusPending},
	}
	seen := map[string]bool{}
	for _, tt := range tests {
		got := s.StatusIcon(tt.status)
		if got != tt.want {
			t.Errorf("StatusIcon(%s) = %q, want %q", tt.status, got, tt.want)
		}
		seen[got] = true
	}
	if len(seen) != len(tests) {
		t.Errorf("status icons are not distinct: %v", seen)
	}
}

func TestRenderBanner(t *testing.T) {
	s := DefaultStyles()
	out := RenderBanner(s)
	if out == "" {
		t.Error("RenderBanner returned empty string")
	}
	if len(out) < 50 {
		t.Error("RenderBanner output seems too short")
	}
	if !strings.Contains(out, "neurons") {
		t.Error("banner should carry the tagline")
	}
}

func TestNewSpinner(t *testing.T) {
	s := DefaultStyles()
	sp := NewSpinner(s)
	// Spinner should produce a non-empty frame.
	if sp.View() == "" {
		t.Error("spinner View() is empty")
	}
}

func TestRenderTable(t *testing.T) {
	s := DefaultStyles()
	out := RenderTable(s, []string{"Index", "Amount"}, [][]string{
		{"0", "1.00"},
		{"1", "2.50"},
	})
	for _, want := range []string{"Index", "Amount", "2.50", "╭"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}
