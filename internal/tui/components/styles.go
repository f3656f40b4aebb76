package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/druarnfield/stakehut/internal/flow"
)

// Styles holds all shared Lipgloss styles used across TUI screens.
type Styles struct {
	Title          lipgloss.Style
	Subtitle       lipgloss.Style
	Body           lipgloss.Style
	Muted          lipgloss.Style
	Success        lipgloss.Style
	Error          lipgloss.Style
	Warning        lipgloss.Style
	Info           lipgloss.Style
	Panel          lipgloss.Style
	SelectedItem   lipgloss.Style
	UnselectedItem lipgloss.Style
	Label          lipgloss.Style
	Amount         lipgloss.Style
	RadioOn        string
	RadioOff       string
	StatusDone     string
	StatusRunning  string
	StatusPending  string
	StatusWarning  string
	StatusInfo     string
	StatusFailed   string
	Footer         lipgloss.Style
	AccentColor    lipgloss.AdaptiveColor
	ProgressFull   lipgloss.Style
	ProgressEmpty  lipgloss.Style
	TableHeader    lipgloss.Style
	TableCell      lipgloss.Style
	TableBorder    lipgloss.Style
}

// DefaultStyles returns a Styles populated with the stakehut palette.
// Uses AdaptiveColor to work in both light and dark terminals.
func DefaultStyles() Styles {
	accent := lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"}
	teal := lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#2DD4BF"}
	muted := lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	success := lipgloss.AdaptiveColor{Light: "#16A34A", Dark: "#4ADE80"}
	errColor := lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#F87171"}
	warn := lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent),

		Subtitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(teal),

		Body: lipgloss.NewStyle(),

		Muted: lipgloss.NewStyle().
			Foreground(muted),

		Success: lipgloss.NewStyle().
			Foreground(success),

		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(errColor),

		Warning: lipgloss.NewStyle().
			Foreground(warn),

		Info: lipgloss.NewStyle().
			Foreground(teal),

		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1),

		SelectedItem: lipgloss.NewStyle().
			Foreground(accent).
			Bold(true),

		UnselectedItem: lipgloss.NewStyle().
			Foreground(muted),

		Label: lipgloss.NewStyle().
			Foreground(muted).
			Width(18),

		Amount: lipgloss.NewStyle().
			Bold(true),

		RadioOn:       "(•)",
		RadioOff:      "( )",
		StatusDone:    "✓",
		StatusRunning: "●",
		StatusPending: "○",
		StatusWarning: "!",
		StatusInfo:    "i",
		StatusFailed:  "✗",

		Footer: lipgloss.NewStyle().
			Foreground(muted),

		AccentColor: accent,

		ProgressFull: lipgloss.NewStyle().
			Foreground(accent),

		ProgressEmpty: lipgloss.NewStyle().
			Foreground(muted),

		TableHeader: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Padding(0, 1),

		TableCell: lipgloss.NewStyle().
			Padding(0, 1),

		TableBorder: lipgloss.NewStyle().
			Foreground(muted),
	}
}

// StatusIcon returns the glyph for a progress entry status. Active entries
// have no static glyph; callers render a spinner instead.
func (s Styles) StatusIcon(st flow.Status) string {
	switch st {
	case flow.StatusComplete:
		return s.StatusDone
	case flow.StatusActive:
		return s.StatusRunning
	case flow.StatusWarning:
		return s.StatusWarning
	case flow.StatusError:
		return s.StatusFailed
	case flow.StatusInfo:
		return s.StatusInfo
	default:
		return s.StatusPending
	}
}

// StatusStyle returns the line style for a progress entry status.
func (s Styles) StatusStyle(st flow.Status) lipgloss.Style {
	switch st {
	case flow.StatusComplete:
		return s.Success
	case flow.StatusWarning:
		return s.Warning
	case flow.StatusError:
		return s.Error
	case flow.StatusInfo:
		return s.Info
	case flow.StatusActive:
		return s.Body
	default:
		return s.Muted
	}
}
