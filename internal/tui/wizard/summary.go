package wizard

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/druarnfield/stakehut/internal/creation"
	"github.com/druarnfield/stakehut/internal/flow"
	"github.com/druarnfield/stakehut/internal/tui/components"
)

// SummaryModel shows the receipt once creation has finished.
type SummaryModel struct {
	styles   components.Styles
	mdStyle  string
	outcome  *creation.Outcome
	req      creation.Request
	rendered string
	width    int
	height   int
}

// NewSummaryModel creates a summary view. mdStyle is a glamour standard
// style name ("dark", "light", "notty", "ascii") or "auto".
func NewSummaryModel(styles components.Styles, mdStyle string) SummaryModel {
	return SummaryModel{styles: styles, mdStyle: mdStyle, width: 80}
}

// SetOutcome records the finished attempt and renders its receipt.
func (m SummaryModel) SetOutcome(out creation.Outcome, req creation.Request) SummaryModel {
	m.outcome = &out
	m.req = req
	m.rendered = RenderMarkdown(Receipt(out, req), m.mdStyle, m.width)
	return m
}

// Outcome returns the finished attempt, if any.
func (m SummaryModel) Outcome() (creation.Outcome, bool) {
	if m.outcome == nil {
		return creation.Outcome{}, false
	}
	return *m.outcome, true
}

// Init satisfies tea.Model.
func (m SummaryModel) Init() tea.Cmd {
	return nil
}

// Update handles key events.
func (m SummaryModel) Update(msg tea.Msg) (SummaryModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "q":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.outcome != nil {
			m.rendered = RenderMarkdown(Receipt(*m.outcome, m.req), m.mdStyle, m.width)
		}
	}
	return m, nil
}

// View renders the summary screen.
func (m SummaryModel) View() string {
	var b strings.Builder

	b.WriteString(components.RenderBanner(m.styles))
	b.WriteString("\n")
	b.WriteString(m.rendered)
	b.WriteString("\n")
	b.WriteString(m.styles.Footer.Render("  Press enter or q to exit"))

	return b.String()
}

// Receipt describes a finished attempt as markdown.
func Receipt(out creation.Outcome, req creation.Request) string {
	var b strings.Builder

	if out.Status == creation.OutcomeComplete {
		b.WriteString("# Manager instance ready\n\n")
	} else {
		b.WriteString("# Creation failed\n\n")
	}

	b.WriteString("| | |\n|---|---|\n")
	if out.Instance != nil {
		fmt.Fprintf(&b, "| Instance | `%s` |\n", out.Instance)
	}
	fmt.Fprintf(&b, "| Creation fee | %s |\n", req.Fee)
	if req.ExtraGas > 0 {
		cycles := "none"
		if out.CyclesAdded > 0 {
			cycles = creation.FormatCycles(out.CyclesAdded)
		}
		fmt.Fprintf(&b, "| Extra gas | %s (%s cycles) |\n", req.ExtraGas, cycles)
	}
	switch {
	case out.Neuron != nil:
		fmt.Fprintf(&b, "| Neuron | %d, staked %s |\n", *out.Neuron, req.Stake)
	case req.Stake > 0:
		fmt.Fprintf(&b, "| Neuron | not staked |\n")
	default:
		fmt.Fprintf(&b, "| Neuron | stake later |\n")
	}
	fmt.Fprintf(&b, "| Session | %s |\n", req.SessionID)

	if out.Status != creation.OutcomeComplete {
		fmt.Fprintf(&b, "\n**%s** failed", out.FailedStep)
		if out.Err != nil {
			fmt.Fprintf(&b, ": %s", out.Err)
		}
		b.WriteString("\n")
		if out.Instance == nil {
			b.WriteString("\nNo manager instance was created.\n")
		}
	}

	if len(out.Entries) > 0 {
		b.WriteString("\n## Progress\n\n")
		for _, e := range out.Entries {
			fmt.Fprintf(&b, "- %s %s\n", entryMark(e.Status), e.Message)
		}
	}

	var notes []string
	if out.TopUpFailed {
		notes = append(notes, "The top-up failed. The instance runs on its initial cycles.")
	}
	if out.StakeFailed && out.Instance != nil {
		notes = append(notes, fmt.Sprintf("Retry staking with `stakehut stake %s --amount %s`.", out.Instance, req.Stake))
	}
	if len(notes) > 0 {
		b.WriteString("\n## Next steps\n\n")
		for _, n := range notes {
			fmt.Fprintf(&b, "- %s\n", n)
		}
	}
	return b.String()
}

func entryMark(s flow.Status) string {
	switch s {
	case flow.StatusComplete:
		return "[done]"
	case flow.StatusWarning:
		return "[warning]"
	case flow.StatusError:
		return "[error]"
	case flow.StatusInfo:
		return "[info]"
	default:
		return "[" + s.String() + "]"
	}
}

// RenderMarkdown renders md with glamour, falling back to the raw text.
func RenderMarkdown(md, style string, width int) string {
	if width <= 0 {
		width = 80
	}
	styleOpt := glamour.WithStandardStyle(style)
	if style == "" || style == "auto" {
		styleOpt = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
