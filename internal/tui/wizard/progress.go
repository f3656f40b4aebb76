package wizard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/druarnfield/stakehut/internal/flow"
	"github.com/druarnfield/stakehut/internal/ledger"
	"github.com/druarnfield/stakehut/internal/tui/components"
)

// ProgressModel shows the creation log as it grows.
type ProgressModel struct {
	styles      components.Styles
	spinner     spinner.Model
	explain     ExplainPanel
	showExplain bool

	entries  []flow.Entry
	instance *ledger.Principal
	notice   string
	started  int
	total    int
	width    int
	height   int
}

// NewProgressModel creates a progress view.
func NewProgressModel(styles components.Styles, showExplain bool) ProgressModel {
	return ProgressModel{
		styles:      styles,
		spinner:     components.NewSpinner(styles),
		explain:     NewExplainPanel(styles),
		showExplain: showExplain,
	}
}

// Init starts the spinner.
func (m ProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages.
func (m ProgressModel) Update(msg tea.Msg) (ProgressModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "?" {
			m.showExplain = !m.showExplain
			m.explain = m.explain.SetVisible(m.showExplain)
		}

	case EntriesMsg:
		m.entries = msg.Entries

	case StepStartMsg:
		m.started = msg.Index
		m.total = msg.Total
		m.explain = m.explain.SetStep(msg.StepName, msg.Explain).SetVisible(m.showExplain)

	case InstanceCreatedMsg:
		id := msg.ID
		m.instance = &id

	case DoneMsg:
		m.started = m.total

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.explain = m.explain.SetWidth(min(msg.Width-4, 70))
	}

	return m, tea.Batch(cmds...)
}

// SetNotice shows a one-line warning above the footer.
func (m ProgressModel) SetNotice(text string) ProgressModel {
	m.notice = text
	return m
}

// Entries returns the latest log snapshot.
func (m ProgressModel) Entries() []flow.Entry {
	return m.entries
}

// View renders the progress screen.
func (m ProgressModel) View() string {
	var b strings.Builder

	b.WriteString(components.RenderBanner(m.styles))
	b.WriteString("\n\n")
	b.WriteString(m.styles.Title.Render("Creating your manager instance"))
	b.WriteString("\n\n")

	if m.total > 0 {
		pct := float64(m.started) / float64(m.total)
		barWidth := 20
		filled := min(int(pct*float64(barWidth)), barWidth)

		bar := m.styles.ProgressFull.Render(strings.Repeat("█", filled)) +
			m.styles.ProgressEmpty.Render(strings.Repeat("░", barWidth-filled))

		b.WriteString(fmt.Sprintf("  Step %d/%d  %s  %d%%\n\n",
			m.started, m.total, bar, int(pct*100)))
	}

	for _, e := range m.entries {
		icon := m.styles.StatusIcon(e.Status)
		if e.Status == flow.StatusActive {
			icon = m.spinner.View()
		}
		line := fmt.Sprintf("  %s %s", icon, e.Message)
		b.WriteString(m.styles.StatusStyle(e.Status).Render(line))
		b.WriteString("\n")
	}

	if m.instance != nil {
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render("  Instance " + m.instance.String() + " saved"))
		b.WriteString("\n")
	}

	if panel := m.explain.View(); panel != "" {
		b.WriteString("\n")
		b.WriteString(panel)
		b.WriteString("\n")
	}

	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.Warning.Render("  " + m.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Footer.Render("  ?: toggle explain"))

	return b.String()
}
