package wizard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/druarnfield/stakehut/internal/creation"
	"github.com/druarnfield/stakehut/internal/ledger"
	"github.com/druarnfield/stakehut/internal/tui/components"
)

// Fields on the stake step, in tab order.
const (
	fieldChoice = iota
	fieldStake
	fieldDays
	fieldCount
)

var wizardSteps = []creation.Step{
	creation.StepFund,
	creation.StepGas,
	creation.StepStake,
	creation.StepConfirm,
}

// FormModel walks the user through the fund, gas, stake and confirm steps.
// All validation lives in the session; the form only parses input and shows
// the guard error that blocked the last attempt to move on.
type FormModel struct {
	styles  components.Styles
	session *creation.Session

	gas   textinput.Model
	stake textinput.Model
	days  textinput.Model
	field int

	err    error
	width  int
	height int
}

// NewFormModel creates a form bound to session.
func NewFormModel(styles components.Styles, session *creation.Session) FormModel {
	gas := newAmountInput("0.00")
	if g := session.ExtraGas(); g > 0 {
		gas.SetValue(g.String())
	}

	stake := newAmountInput(session.MinStake().String())
	if s := session.Stake(); s > 0 {
		stake.SetValue(s.String())
	}

	days := textinput.New()
	days.Prompt = ""
	days.CharLimit = 4
	days.Width = 6
	days.SetValue(strconv.FormatUint(uint64(session.DissolveDays()), 10))

	m := FormModel{
		styles:  styles,
		session: session,
		gas:     gas,
		stake:   stake,
		days:    days,
	}
	m.syncFocus()
	return m
}

func newAmountInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = placeholder
	ti.CharLimit = 24
	ti.Width = 16
	return ti
}

// Err returns the error shown under the current step, if any.
func (m FormModel) Err() error {
	return m.err
}

// Init satisfies tea.Model.
func (m FormModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles key events for the form.
func (m FormModel) Update(msg tea.Msg) (FormModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			m.err = m.session.Back()
			m.syncFocus()
			return m, nil
		case "enter":
			return m.submit()
		}
		if target, ok := m.jumpTarget(msg); ok {
			return m.jump(target), nil
		}

		if m.session.Step() == creation.StepStake {
			switch msg.String() {
			case "tab", "down":
				m.field = (m.field + 1) % fieldCount
				m.syncFocus()
				return m, nil
			case "shift+tab", "up":
				m.field = (m.field + fieldCount - 1) % fieldCount
				m.syncFocus()
				return m, nil
			}
			if m.field == fieldChoice {
				switch msg.String() {
				case "n", "left":
					m.err = m.session.Choose(creation.StakeNow)
				case "l", "right":
					m.err = m.session.Choose(creation.StakeLater)
				case " ":
					m.err = m.toggleChoice()
				}
				return m, nil
			}
		}

		var cmd tea.Cmd
		m, cmd = m.updateInputs(msg)
		// Keep the running totals current while typing; parse errors are
		// reported on enter.
		_ = m.apply()
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m FormModel) updateInputs(msg tea.Msg) (FormModel, tea.Cmd) {
	var cmd tea.Cmd
	switch m.session.Step() {
	case creation.StepGas:
		m.gas, cmd = m.gas.Update(msg)
	case creation.StepStake:
		switch m.field {
		case fieldStake:
			m.stake, cmd = m.stake.Update(msg)
		case fieldDays:
			m.days, cmd = m.days.Update(msg)
		}
	}
	return m, cmd
}

// jumpTarget maps 1-4 to a step. Plain digits only jump while no text input
// has focus; alt+digit always does.
func (m FormModel) jumpTarget(msg tea.KeyMsg) (creation.Step, bool) {
	k := msg.String()
	if rest, ok := strings.CutPrefix(k, "alt+"); ok {
		k = rest
	} else if m.typing() {
		return 0, false
	}
	if len(k) != 1 || k[0] < '1' || k[0] > byte('0'+len(wizardSteps)) {
		return 0, false
	}
	return wizardSteps[k[0]-'1'], true
}

func (m FormModel) typing() bool {
	switch m.session.Step() {
	case creation.StepGas:
		return true
	case creation.StepStake:
		return m.field != fieldChoice
	}
	return false
}

// jump moves to target. Inputs on the current step are applied first when
// moving forward so the guards see them.
func (m FormModel) jump(target creation.Step) FormModel {
	if target > m.session.Step() {
		if err := m.apply(); err != nil {
			m.err = err
			return m
		}
	}
	m.err = m.session.GoTo(target)
	m.field = fieldChoice
	m.syncFocus()
	return m
}

func (m *FormModel) toggleChoice() error {
	if m.session.Choice() == creation.StakeNow {
		return m.session.Choose(creation.StakeLater)
	}
	return m.session.Choose(creation.StakeNow)
}

// submit applies the current step's input and moves on, or starts creation
// from the confirm step.
func (m FormModel) submit() (FormModel, tea.Cmd) {
	if err := m.apply(); err != nil {
		m.err = err
		return m, nil
	}

	if m.session.Step() == creation.StepConfirm {
		req, err := m.session.BeginCreating()
		if err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		return m, func() tea.Msg { return ConfirmMsg{Request: req} }
	}

	if err := m.session.Next(); err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.field = fieldChoice
	m.syncFocus()
	return m, nil
}

// apply parses the inputs that belong to the current step into the session.
func (m FormModel) apply() error {
	switch m.session.Step() {
	case creation.StepGas:
		gas, err := parseAmount(m.gas.Value())
		if err != nil {
			return fmt.Errorf("extra gas: %w", err)
		}
		return m.session.SetExtraGas(gas)

	case creation.StepStake:
		if m.session.Choice() == creation.StakeLater {
			return nil
		}
		stake, err := parseAmount(m.stake.Value())
		if err != nil {
			return fmt.Errorf("stake: %w", err)
		}
		if err := m.session.SetStake(stake); err != nil {
			return err
		}
		days, err := strconv.ParseUint(strings.TrimSpace(m.days.Value()), 10, 32)
		if err != nil {
			return errors.New("dissolve delay must be a whole number of days")
		}
		return m.session.SetDissolveDays(uint32(days))
	}
	return nil
}

func parseAmount(s string) (ledger.Tokens, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return ledger.ParseTokens(s)
}

func (m *FormModel) syncFocus() {
	m.gas.Blur()
	m.stake.Blur()
	m.days.Blur()
	switch m.session.Step() {
	case creation.StepGas:
		m.gas.Focus()
	case creation.StepStake:
		switch m.field {
		case fieldStake:
			m.stake.Focus()
		case fieldDays:
			m.days.Focus()
		}
	}
}

// View renders the current step.
func (m FormModel) View() string {
	var b strings.Builder

	b.WriteString(components.RenderBanner(m.styles))
	b.WriteString("\n\n")
	b.WriteString(m.breadcrumb())
	b.WriteString("\n\n")

	switch m.session.Step() {
	case creation.StepFund:
		m.viewFund(&b)
	case creation.StepGas:
		m.viewGas(&b)
	case creation.StepStake:
		m.viewStake(&b)
	case creation.StepConfirm:
		m.viewConfirm(&b)
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(m.styles.Error.Render("  " + m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Footer.Render("  " + m.help()))
	return b.String()
}

func (m FormModel) breadcrumb() string {
	parts := make([]string, len(wizardSteps))
	for i, s := range wizardSteps {
		label := fmt.Sprintf("%d %s", i+1, s)
		switch {
		case s == m.session.Step():
			parts[i] = m.styles.SelectedItem.Render(label)
		case s > m.session.Reached() && s > m.session.Step()+1:
			parts[i] = m.styles.Muted.Render(label)
		default:
			parts[i] = m.styles.UnselectedItem.Render(label)
		}
	}
	return "  " + strings.Join(parts, m.styles.Muted.Render("  ›  "))
}

func (m FormModel) row(b *strings.Builder, label, value string) {
	b.WriteString("  ")
	b.WriteString(m.styles.Label.Render(label))
	b.WriteString(value)
	b.WriteString("\n")
}

func (m FormModel) viewFund(b *strings.Builder) {
	q := m.session.Quote()
	b.WriteString(m.styles.Title.Render("Fund your wallet"))
	b.WriteString("\n\n")

	fee := q.EffectiveFee().String()
	if m.session.Premium() {
		fee += m.styles.Success.Render("  premium")
	}
	m.row(b, "Balance", m.styles.Amount.Render(q.Balance.String()))
	m.row(b, "Creation fee", fee)
	m.row(b, "Transfer fee", q.TransferFee.String())
	m.row(b, "Needed", q.EffectiveFee().Add(q.TransferFee).String())

	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render("  Send tokens to " + m.session.User().String() + ". The balance refreshes on its own."))
	b.WriteString("\n")
}

func (m FormModel) viewGas(b *strings.Builder) {
	q := m.session.Quote()
	b.WriteString(m.styles.Title.Render("Extra gas"))
	b.WriteString("\n\n")
	m.row(b, "Initial cycles", creation.FormatCycles(q.TargetCycles))
	m.row(b, "Extra gas", m.gas.View())
	if c := m.session.EstimatedCycles(); c > 0 {
		m.row(b, "", m.styles.Muted.Render("≈ "+creation.FormatCycles(c)+" cycles"))
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render("  Optional. Leave empty to run on the initial cycles."))
	b.WriteString("\n")
}

func (m FormModel) viewStake(b *strings.Builder) {
	b.WriteString(m.styles.Title.Render("Stake a neuron"))
	b.WriteString("\n\n")

	now, later := m.styles.RadioOff, m.styles.RadioOff
	switch m.session.Choice() {
	case creation.StakeNow:
		now = m.styles.RadioOn
	case creation.StakeLater:
		later = m.styles.RadioOn
	}
	choice := fmt.Sprintf("%s stake now   %s stake later", now, later)
	if m.field == fieldChoice {
		choice = m.styles.SelectedItem.Render(choice)
	}
	b.WriteString("  ")
	b.WriteString(choice)
	b.WriteString("\n\n")

	if m.session.Choice() != creation.StakeLater {
		m.row(b, "Stake", m.stake.View())
		m.row(b, "Dissolve delay", m.days.View()+m.styles.Muted.Render(" days"))
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render(fmt.Sprintf("  Minimum stake %s. Dissolve delay up to %d days.",
			m.session.MinStake(), creation.MaxDissolveDays)))
		b.WriteString("\n")
	}
	m.row(b, "Total", m.styles.Amount.Render(m.session.TotalRequired().String()))
}

func (m FormModel) viewConfirm(b *strings.Builder) {
	q := m.session.Quote()
	b.WriteString(m.styles.Title.Render("Confirm"))
	b.WriteString("\n\n")

	m.row(b, "Creation fee", q.EffectiveFee().String())
	gas := "none"
	if g := m.session.ExtraGas(); g > 0 {
		gas = g.String()
	}
	m.row(b, "Extra gas", gas)
	if m.session.Choice() == creation.StakeNow && m.session.Stake() > 0 {
		m.row(b, "Stake", fmt.Sprintf("%s, %d day dissolve delay", m.session.Stake(), m.session.DissolveDays()))
	} else {
		m.row(b, "Stake", "later")
	}
	m.row(b, "Transfer fee", q.TransferFee.String()+m.styles.Muted.Render(" each, included"))
	m.row(b, "Total", m.styles.Amount.Render(m.session.TotalRequired().String()))
	m.row(b, "Balance", q.Balance.String())
	b.WriteString("\n")
	b.WriteString(m.styles.Warning.Render("  Press enter to create. This spends tokens."))
	b.WriteString("\n")
}

func (m FormModel) help() string {
	switch m.session.Step() {
	case creation.StepFund:
		return "enter: next  1-4: jump  ctrl+c: quit"
	case creation.StepStake:
		return "tab: next field  n/l: now or later  enter: next  esc: back  alt+1-4: jump"
	case creation.StepConfirm:
		return "enter: create  esc: back  1-4: jump"
	default:
		return "enter: next  esc: back  alt+1-4: jump"
	}
}
