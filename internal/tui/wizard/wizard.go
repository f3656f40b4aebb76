package wizard

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/druarnfield/stakehut/internal/creation"
	"github.com/druarnfield/stakehut/internal/flow"
	"github.com/druarnfield/stakehut/internal/ledger"
	"github.com/druarnfield/stakehut/internal/tui/components"
)

type screen int

const (
	screenForm screen = iota
	screenProgress
	screenSummary
)

const balanceTimeout = 10 * time.Second

// Options wires the wizard to a session and the services behind it.
type Options struct {
	Session *creation.Session
	Creator *creation.Creator

	// Balance refreshes the wallet balance while the form is showing.
	Balance      func(ctx context.Context) (ledger.Tokens, error)
	PollInterval time.Duration

	// OnCreated receives the instance id from the creation goroutine.
	OnCreated func(ledger.Principal)

	Explain       bool
	MarkdownStyle string

	// Now is the progress log clock; nil uses time.Now.
	Now func() time.Time
}

// WizardModel is the top-level tea.Model coordinating form → progress → summary.
type WizardModel struct {
	styles   components.Styles
	screen   screen
	form     FormModel
	progress ProgressModel
	summary  SummaryModel

	opts   Options
	bridge *Bridge
	req    creation.Request

	width    int
	height   int
	quitting bool
}

// New creates a WizardModel on the fund step.
func New(opts Options) WizardModel {
	styles := components.DefaultStyles()
	return WizardModel{
		styles:   styles,
		screen:   screenForm,
		form:     NewFormModel(styles, opts.Session),
		progress: NewProgressModel(styles, opts.Explain),
		summary:  NewSummaryModel(styles, opts.MarkdownStyle),
		opts:     opts,
	}
}

// Init starts the cursor blink and balance polling.
func (m WizardModel) Init() tea.Cmd {
	return tea.Batch(m.form.Init(), m.pollTick())
}

// pollTick schedules the next balance refresh, or nothing once polling is
// no longer allowed.
func (m WizardModel) pollTick() tea.Cmd {
	if m.opts.Balance == nil || m.opts.PollInterval <= 0 || !m.opts.Session.PollingAllowed() {
		return nil
	}
	return tea.Tick(m.opts.PollInterval, func(time.Time) tea.Msg { return pollTickMsg{} })
}

func (m WizardModel) fetchBalance() tea.Cmd {
	fetch := m.opts.Balance
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), balanceTimeout)
		defer cancel()
		bal, err := fetch(ctx)
		return BalanceMsg{Balance: bal, Err: err}
	}
}

// Update handles messages and delegates to the active screen.
func (m WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.form, _ = m.form.Update(msg)
		m.progress, _ = m.progress.Update(msg)
		m.summary, _ = m.summary.Update(msg)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			if m.opts.Session.Step() == creation.StepCreating {
				m.progress = m.progress.SetNotice("Creation is running and cannot be interrupted. stakehut exits once it finishes.")
				return m, nil
			}
			if m.bridge != nil {
				m.bridge.Cancel()
			}
			m.quitting = true
			return m, tea.Quit
		}

	case pollTickMsg:
		if !m.opts.Session.PollingAllowed() || m.opts.Balance == nil {
			return m, nil
		}
		return m, m.fetchBalance()

	case BalanceMsg:
		// A refresh that lands after confirmation must not change the
		// numbers the request was built from.
		if !m.opts.Session.PollingAllowed() {
			return m, nil
		}
		if msg.Err == nil {
			m.opts.Session.SetBalance(msg.Balance)
		}
		return m, m.pollTick()
	}

	switch m.screen {
	case screenForm:
		return m.updateForm(msg)
	case screenProgress:
		return m.updateProgress(msg)
	case screenSummary:
		return m.updateSummary(msg)
	}
	return m, nil
}

// View renders the active screen.
func (m WizardModel) View() string {
	if m.quitting {
		return ""
	}
	switch m.screen {
	case screenForm:
		return m.form.View()
	case screenProgress:
		return m.progress.View()
	case screenSummary:
		return m.summary.View()
	}
	return ""
}

func (m WizardModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case ConfirmMsg:
		m.screen = screenProgress
		m.req = msg.Request

		log := flow.NewLog(m.opts.Now)
		m.bridge = NewBridge(m.opts.Creator, msg.Request, log, m.opts.OnCreated)
		startCmd := m.bridge.Start()

		return m, tea.Batch(startCmd, m.progress.Init())

	default:
		m.form, cmd = m.form.Update(msg)
	}

	return m, cmd
}

func (m WizardModel) updateProgress(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case DoneMsg:
		m.opts.Session.Finish(msg.Outcome)
		m.progress, _ = m.progress.Update(msg)
		m.screen = screenSummary
		m.summary = m.summary.SetOutcome(msg.Outcome, m.req)
		return m, nil

	case EntriesMsg, StepStartMsg, InstanceCreatedMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		cmds = append(cmds, cmd)
		if m.bridge != nil {
			cmds = append(cmds, m.bridge.NextMsg())
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		cmds = append(cmds, cmd)

	default:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m WizardModel) updateSummary(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.summary, cmd = m.summary.Update(msg)
	return m, cmd
}

// Outcome returns the finished creation attempt, if the wizard got that far.
func (m WizardModel) Outcome() (creation.Outcome, bool) {
	return m.summary.Outcome()
}

// Request returns the confirmed request, zero before confirmation.
func (m WizardModel) Request() creation.Request {
	return m.req
}

// Screen returns the current screen (for testing).
func (m WizardModel) Screen() screen {
	return m.screen
}
