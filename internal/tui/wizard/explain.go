package wizard

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/druarnfield/stakehut/internal/tui/components"
)

// ExplainPanel describes the step that is currently running. Lipgloss wraps
// the text to the panel width.
type ExplainPanel struct {
	styles  components.Styles
	step    string
	text    string
	visible bool
	width   int
}

// NewExplainPanel creates an explain panel (hidden by default).
func NewExplainPanel(styles components.Styles) ExplainPanel {
	return ExplainPanel{
		styles: styles,
		width:  60,
	}
}

// SetStep returns a copy describing step.
func (p ExplainPanel) SetStep(step, text string) ExplainPanel {
	p.step = step
	p.text = text
	return p
}

// SetVisible returns a copy with updated visibility.
func (p ExplainPanel) SetVisible(v bool) ExplainPanel {
	p.visible = v
	return p
}

// SetWidth returns a copy with updated width. Widths below 24 are ignored.
func (p ExplainPanel) SetWidth(w int) ExplainPanel {
	if w >= 24 {
		p.width = w
	}
	return p
}

// View renders the panel, or nothing while hidden or empty.
func (p ExplainPanel) View() string {
	if !p.visible || p.text == "" {
		return ""
	}
	title := "What's happening"
	if p.step != "" {
		title = p.step
	}
	return p.styles.Panel.
		Width(p.width).
		Render(lipgloss.JoinVertical(lipgloss.Left,
			p.styles.Subtitle.Render(title),
			"",
			p.text,
		))
}
