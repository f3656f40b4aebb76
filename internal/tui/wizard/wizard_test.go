package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/druarnfield/stakehut/internal/creation"
	"github.com/druarnfield/stakehut/internal/flow"
	"github.com/druarnfield/stakehut/internal/ledger"
	"github.com/druarnfield/stakehut/internal/ledger/sim"
	"github.com/druarnfield/stakehut/internal/logging"
	"github.com/druarnfield/stakehut/internal/tui/components"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// --- helpers ---

var testUser = ledger.PrincipalFromBytes([]byte{0x0a, 0x0b, 0x0c, 0x02})

func nopLogger() *slog.Logger {
	return slog.New(logging.NopHandler{})
}

type fixture struct {
	net     *sim.Network
	client  *sim.Client
	creator *creation.Creator
	session *creation.Session
}

func newFixture(t *testing.T, balance string) *fixture {
	t.Helper()
	net := sim.New(sim.DefaultConfig(), nil)
	net.Mint(ledger.Account{Owner: testUser}, ledger.MustParseTokens(balance))
	client := net.As(testUser)

	creator := creation.NewCreator(creation.Services{
		Ledger:   client,
		Factory:  client,
		TopUp:    client,
		Managers: client,
	}, creation.Config{
		CMC:   sim.CMCID,
		Sleep: func(context.Context, time.Duration) error { return nil },
	}, nopLogger())

	q, err := creation.LoadQuote(context.Background(), creation.QuoteSources{
		Ledger:     client,
		Factory:    client,
		Conversion: client,
	}, testUser, sim.DefaultConfig().TransferFee, false)
	if err != nil {
		t.Fatalf("LoadQuote: %v", err)
	}
	session := creation.NewSession(q, creation.Options{
		User:                testUser,
		MinStake:            ledger.MustParseTokens("1"),
		DefaultDissolveDays: 30,
	})
	return &fixture{net: net, client: client, creator: creator, session: session}
}

// confirm drives the session straight to a locked request.
func (f *fixture) confirm(t *testing.T, gas, stake string) creation.Request {
	t.Helper()
	_ = f.session.SetExtraGas(ledger.MustParseTokens(gas))
	if stake == "" {
		_ = f.session.Choose(creation.StakeLater)
	} else {
		_ = f.session.Choose(creation.StakeNow)
		_ = f.session.SetStake(ledger.MustParseTokens(stake))
	}
	for f.session.Step() < creation.StepConfirm {
		if err := f.session.Next(); err != nil {
			t.Fatalf("Next from %s: %v", f.session.Step(), err)
		}
	}
	req, err := f.session.BeginCreating()
	if err != nil {
		t.Fatalf("BeginCreating: %v", err)
	}
	return req
}

// blockingCreator returns a creator whose settle wait reports on sleeping
// and then waits for release, or gives up when its context is cancelled.
func (f *fixture) blockingCreator() (creator *creation.Creator, sleeping, release chan struct{}) {
	sleeping = make(chan struct{})
	release = make(chan struct{})
	creator = creation.NewCreator(creation.Services{
		Ledger:   f.client,
		Factory:  f.client,
		TopUp:    f.client,
		Managers: f.client,
	}, creation.Config{
		CMC:         sim.CMCID,
		SettleDelay: time.Hour,
		Sleep: func(ctx context.Context, _ time.Duration) error {
			close(sleeping)
			select {
			case <-release:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	}, nopLogger())
	return creator, sleeping, release
}

func key(name string) tea.KeyMsg {
	switch name {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(name)}
}

func typeText(f FormModel, text string) FormModel {
	for _, r := range text {
		f, _ = f.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return f
}

func update(t *testing.T, w WizardModel, msg tea.Msg) (WizardModel, tea.Cmd) {
	t.Helper()
	updated, cmd := w.Update(msg)
	wm, ok := updated.(WizardModel)
	if !ok {
		t.Fatalf("Update returned %T", updated)
	}
	return wm, cmd
}

func drain(b *Bridge, first tea.Cmd) []tea.Msg {
	var msgs []tea.Msg
	cmd := first
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			break
		}
		msgs = append(msgs, msg)
		cmd = b.NextMsg()
	}
	return msgs
}

func assertMsgType[T any](t *testing.T, msg tea.Msg, label string) T {
	t.Helper()
	v, ok := msg.(T)
	if !ok {
		t.Fatalf("%s: expected %T, got %T", label, v, msg)
	}
	return v
}

func msgTypes(msgs []tea.Msg) []string {
	var types []string
	for _, m := range msgs {
		types = append(types, fmt.Sprintf("%T", m))
	}
	return types
}

// --- Explain Panel tests ---

func TestExplainPanel_HiddenByDefault(t *testing.T) {
	s := components.DefaultStyles()
	p := NewExplainPanel(s).SetStep("Paying", "some text")
	if got := p.View(); got != "" {
		t.Errorf("expected empty when hidden, got %q", got)
	}
}

func TestExplainPanel_VisibleWithText(t *testing.T) {
	s := components.DefaultStyles()
	p := NewExplainPanel(s).SetStep("Creating manager instance", "some text").SetVisible(true)
	out := p.View()
	if !strings.Contains(out, "some text") {
		t.Errorf("output should contain text, got %q", out)
	}
	if !strings.Contains(out, "Creating manager instance") {
		t.Errorf("output should carry the step as title, got %q", out)
	}
}

func TestExplainPanel_EmptyTextHidden(t *testing.T) {
	s := components.DefaultStyles()
	p := NewExplainPanel(s).SetStep("step", "").SetVisible(true).SetWidth(40)
	if got := p.View(); got != "" {
		t.Errorf("expected empty without text, got %q", got)
	}
}

// --- Form tests ---

func TestForm_FundGuardBlocks(t *testing.T) {
	f := newFixture(t, "1")
	form := NewFormModel(components.DefaultStyles(), f.session)

	form, _ = form.Update(key("enter"))

	var gerr *creation.GuardError
	if !errors.As(form.Err(), &gerr) || gerr.Reason != creation.InsufficientBalance {
		t.Fatalf("err = %v, want insufficient balance", form.Err())
	}
	if f.session.Step() != creation.StepFund {
		t.Errorf("step = %s, want Fund", f.session.Step())
	}
	if !strings.Contains(form.View(), "insufficient balance") {
		t.Error("guard error should be shown inline")
	}
}

func TestForm_GasInputUpdatesSession(t *testing.T) {
	f := newFixture(t, "10")
	form := NewFormModel(components.DefaultStyles(), f.session)

	form, _ = form.Update(key("enter"))
	if f.session.Step() != creation.StepGas {
		t.Fatalf("step = %s, want Gas", f.session.Step())
	}

	form = typeText(form, "1.5")
	if got := f.session.ExtraGas(); got != ledger.MustParseTokens("1.5") {
		t.Errorf("extra gas = %s, want 1.50", got)
	}
	if !strings.Contains(form.View(), "≈") {
		t.Error("gas step should show a cycles estimate")
	}
}

func TestForm_InvalidGasShowsError(t *testing.T) {
	f := newFixture(t, "10")
	form := NewFormModel(components.DefaultStyles(), f.session)
	form, _ = form.Update(key("enter"))

	form = typeText(form, "abc")
	form, _ = form.Update(key("enter"))

	if form.Err() == nil || !strings.Contains(form.Err().Error(), "extra gas") {
		t.Errorf("err = %v, want extra gas parse error", form.Err())
	}
	if f.session.Step() != creation.StepGas {
		t.Errorf("step = %s, want Gas", f.session.Step())
	}
}

func TestForm_StakeStep(t *testing.T) {
	f := newFixture(t, "10")
	form := NewFormModel(components.DefaultStyles(), f.session)
	form, _ = form.Update(key("enter")) // gas
	form, _ = form.Update(key("enter")) // stake

	// No choice yet.
	form, _ = form.Update(key("enter"))
	var gerr *creation.GuardError
	if !errors.As(form.Err(), &gerr) || gerr.Reason != creation.NoStakeChoice {
		t.Fatalf("err = %v, want NoStakeChoice", form.Err())
	}

	form, _ = form.Update(key("n"))
	if f.session.Choice() != creation.StakeNow {
		t.Fatalf("choice = %v, want StakeNow", f.session.Choice())
	}

	// Empty stake is below the minimum.
	form, _ = form.Update(key("enter"))
	if !errors.As(form.Err(), &gerr) || gerr.Reason != creation.StakeBelowMinimum {
		t.Fatalf("err = %v, want StakeBelowMinimum", form.Err())
	}

	form, _ = form.Update(key("tab"))
	form = typeText(form, "3")
	form, _ = form.Update(key("enter"))
	if form.Err() != nil {
		t.Fatalf("unexpected error: %v", form.Err())
	}
	if f.session.Step() != creation.StepConfirm {
		t.Fatalf("step = %s, want Confirm", f.session.Step())
	}
	if f.session.Stake() != ledger.TokensFromWhole(3) || f.session.DissolveDays() != 30 {
		t.Errorf("stake = %s, days = %d", f.session.Stake(), f.session.DissolveDays())
	}
	if !strings.Contains(form.View(), f.session.TotalRequired().String()) {
		t.Error("confirm should show the total")
	}
}

func TestForm_DissolveTooLong(t *testing.T) {
	f := newFixture(t, "10")
	form := NewFormModel(components.DefaultStyles(), f.session)
	form, _ = form.Update(key("enter"))
	form, _ = form.Update(key("enter"))
	form, _ = form.Update(key("n"))
	form, _ = form.Update(key("tab"))
	form = typeText(form, "2")
	form, _ = form.Update(key("tab"))
	form = typeText(form, "0") // 300 days is fine
	form = typeText(form, "0") // 3000 is not
	form, _ = form.Update(key("enter"))

	if !errors.Is(form.Err(), creation.ErrDissolveTooLong) {
		t.Errorf("err = %v, want ErrDissolveTooLong", form.Err())
	}
	if f.session.Step() != creation.StepStake {
		t.Errorf("step = %s, want Stake", f.session.Step())
	}
}

func TestForm_BackAndConfirm(t *testing.T) {
	f := newFixture(t, "10")
	form := NewFormModel(components.DefaultStyles(), f.session)
	form, _ = form.Update(key("enter"))
	form, _ = form.Update(key("esc"))
	if f.session.Step() != creation.StepFund {
		t.Fatalf("esc should go back, step = %s", f.session.Step())
	}

	form, _ = form.Update(key("enter")) // gas
	form, _ = form.Update(key("enter")) // stake
	form, _ = form.Update(key("l"))
	form, _ = form.Update(key("enter")) // confirm

	form, cmd := form.Update(key("enter"))
	if cmd == nil {
		t.Fatalf("expected a command from confirm, err = %v", form.Err())
	}
	confirm := assertMsgType[ConfirmMsg](t, cmd(), "confirm")
	if confirm.Request.Stake != 0 || confirm.Request.SessionID != f.session.ID() {
		t.Errorf("request = %+v", confirm.Request)
	}
	if !f.session.Locked() {
		t.Error("session should be locked after confirm")
	}

	// A second confirm is refused.
	form, cmd = form.Update(key("enter"))
	if cmd != nil || !errors.Is(form.Err(), creation.ErrAlreadyCreating) {
		t.Errorf("second confirm: cmd %v, err %v", cmd != nil, form.Err())
	}
}

func TestForm_JumpToReachedStep(t *testing.T) {
	f := newFixture(t, "10")
	form := NewFormModel(components.DefaultStyles(), f.session)

	form, _ = form.Update(key("3"))
	if !errors.Is(form.Err(), creation.ErrSkipStep) || f.session.Step() != creation.StepFund {
		t.Fatalf("jump ahead: err %v, step %s", form.Err(), f.session.Step())
	}

	form, _ = form.Update(key("enter")) // gas
	form, _ = form.Update(key("enter")) // stake
	form, _ = form.Update(key("l"))
	form, _ = form.Update(key("enter")) // confirm

	tests := []struct {
		key  tea.KeyMsg
		want creation.Step
	}{
		{key("1"), creation.StepFund},
		{key("3"), creation.StepStake},
		{key("4"), creation.StepConfirm},
		{key("2"), creation.StepGas},
		// Digits type into the gas input; alt+digit still jumps.
		{key("1"), creation.StepGas},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("4"), Alt: true}, creation.StepConfirm},
	}
	for i, tt := range tests {
		form, _ = form.Update(tt.key)
		if f.session.Step() != tt.want {
			t.Fatalf("jump %d (%s): step = %s, want %s (err %v)", i, tt.key, f.session.Step(), tt.want, form.Err())
		}
	}
	if f.session.ExtraGas() != ledger.TokensFromWhole(1) {
		t.Errorf("gas typed before the jump = %s, want 1.00", f.session.ExtraGas())
	}
}

// --- Progress Model tests ---

func TestProgress_RendersEntries(t *testing.T) {
	s := components.DefaultStyles()
	p := NewProgressModel(s, false)

	p, _ = p.Update(StepStartMsg{StepName: "Paying", Index: 1, Total: 4})
	p, _ = p.Update(EntriesMsg{Entries: []flow.Entry{
		{Message: "Paid 2.00 creation fee", Status: flow.StatusComplete},
		{Message: "Top-up failed", Status: flow.StatusWarning},
		{Message: "Staking", Status: flow.StatusActive},
	}})

	out := p.View()
	for _, want := range []string{"Paid 2.00 creation fee", s.StatusDone, s.StatusWarning, "Step 1/4"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q:\n%s", want, out)
		}
	}
}

func TestProgress_InstanceShown(t *testing.T) {
	p := NewProgressModel(components.DefaultStyles(), false)
	id := ledger.PrincipalFromBytes([]byte{1, 2, 3})
	p, _ = p.Update(InstanceCreatedMsg{ID: id})
	if !strings.Contains(p.View(), id.String()) {
		t.Error("view should show the created instance")
	}
}

func TestProgress_ToggleExplain(t *testing.T) {
	s := components.DefaultStyles()
	p := NewProgressModel(s, false)

	p, _ = p.Update(StepStartMsg{StepName: "s1", Explain: "the explanation", Index: 0, Total: 1})

	out := p.View()
	if strings.Contains(out, "the explanation") {
		t.Error("explain should be hidden initially")
	}

	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	out = p.View()
	if !strings.Contains(out, "the explanation") {
		t.Error("explain should be visible after toggle")
	}
}

// --- Summary tests ---

func TestReceipt_Complete(t *testing.T) {
	id := ledger.PrincipalFromBytes([]byte{1, 2, 3})
	nid := ledger.NeuronID(7)
	md := Receipt(creation.Outcome{
		Status:      creation.OutcomeComplete,
		Instance:    &id,
		Neuron:      &nid,
		CyclesAdded: 2_000_000_000_000,
		Entries:     []flow.Entry{{Message: "Created manager instance", Status: flow.StatusComplete}},
	}, creation.Request{
		Fee:       ledger.TokensFromWhole(2),
		ExtraGas:  ledger.TokensFromWhole(1),
		Stake:     ledger.TokensFromWhole(3),
		SessionID: "abc",
	})

	for _, want := range []string{"# Manager instance ready", id.String(), "2.00T", "| Neuron | 7, staked 3.00 |", "[done] Created manager instance"} {
		if !strings.Contains(md, want) {
			t.Errorf("receipt missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "Next steps") {
		t.Error("a clean run has no next steps")
	}
}

func TestReceipt_FailedBeforeCreation(t *testing.T) {
	md := Receipt(creation.Outcome{
		Status:     creation.OutcomeFailed,
		FailedStep: "Creating manager instance",
		Err:        errors.New("insufficient payment"),
	}, creation.Request{Fee: ledger.TokensFromWhole(2)})

	for _, want := range []string{"# Creation failed", "**Creating manager instance** failed: insufficient payment", "No manager instance was created."} {
		if !strings.Contains(md, want) {
			t.Errorf("receipt missing %q:\n%s", want, md)
		}
	}
}

func TestReceipt_StakeFailedHint(t *testing.T) {
	id := ledger.PrincipalFromBytes([]byte{4, 5})
	md := Receipt(creation.Outcome{
		Status:      creation.OutcomeComplete,
		Instance:    &id,
		StakeFailed: true,
		TopUpFailed: true,
	}, creation.Request{Stake: ledger.TokensFromWhole(3)})

	if !strings.Contains(md, "stakehut stake "+id.String()) {
		t.Errorf("receipt should carry a retry command:\n%s", md)
	}
	if !strings.Contains(md, "initial cycles") {
		t.Errorf("receipt should mention the failed top-up:\n%s", md)
	}
	if !strings.Contains(md, "| Neuron | not staked |") {
		t.Errorf("receipt should show the missing neuron:\n%s", md)
	}
}

func TestSummary_View(t *testing.T) {
	sm := NewSummaryModel(components.DefaultStyles(), "notty")
	if _, ok := sm.Outcome(); ok {
		t.Error("no outcome before SetOutcome")
	}
	sm = sm.SetOutcome(creation.Outcome{Status: creation.OutcomeComplete}, creation.Request{})
	out := sm.View()
	if !strings.Contains(out, "Manager instance ready") {
		t.Errorf("view missing heading:\n%s", out)
	}
	if !strings.Contains(out, "Press enter or q to exit") {
		t.Error("view missing footer")
	}
	if _, cmd := sm.Update(key("q")); cmd == nil {
		t.Error("q should quit")
	}
}

// --- Bridge tests ---

func TestBridge_MessageOrder(t *testing.T) {
	f := newFixture(t, "10")
	req := f.confirm(t, "1", "2")

	var created []ledger.Principal
	bridge := NewBridge(f.creator, req, flow.NewLog(nil), func(id ledger.Principal) {
		created = append(created, id)
	})
	msgs := drain(bridge, bridge.Start())
	if len(msgs) == 0 {
		t.Fatal("no messages")
	}

	done := assertMsgType[DoneMsg](t, msgs[len(msgs)-1], "last message")
	if done.Outcome.Status != creation.OutcomeComplete || done.Outcome.Instance == nil || done.Outcome.Neuron == nil {
		t.Fatalf("outcome = %+v", done.Outcome)
	}

	var starts []int
	var lastEntries []flow.Entry
	createdAt, topUpAt := -1, -1
	for i, msg := range msgs {
		switch msg := msg.(type) {
		case StepStartMsg:
			starts = append(starts, msg.Index)
			if msg.Index == 2 {
				topUpAt = i
			}
		case InstanceCreatedMsg:
			if createdAt >= 0 {
				t.Error("instance reported twice")
			}
			createdAt = i
			if msg.ID != *done.Outcome.Instance {
				t.Errorf("reported %s, outcome %s", msg.ID, done.Outcome.Instance)
			}
		case EntriesMsg:
			lastEntries = msg.Entries
		}
	}

	if diff := cmp.Diff([]int{0, 1, 2, 3}, starts); diff != "" {
		t.Errorf("step starts (-want +got):\n%s\nmessages: %v", diff, msgTypes(msgs))
	}
	if createdAt < 0 || createdAt > topUpAt {
		t.Errorf("instance reported at %d, top-up started at %d", createdAt, topUpAt)
	}
	if diff := cmp.Diff(done.Outcome.Entries, lastEntries); diff != "" {
		t.Errorf("last snapshot differs from outcome (-outcome +snapshot):\n%s", diff)
	}
	if diff := cmp.Diff([]ledger.Principal{*done.Outcome.Instance}, created, cmp.Comparer(func(a, b ledger.Principal) bool { return a == b })); diff != "" {
		t.Errorf("onCreated calls (-want +got):\n%s", diff)
	}
}

func TestBridge_FailureBeforeCreation(t *testing.T) {
	f := newFixture(t, "10")
	req := f.confirm(t, "0", "")
	f.net.FailNext(sim.OpTransfer, errors.New("ledger unavailable"))

	called := false
	bridge := NewBridge(f.creator, req, flow.NewLog(nil), func(ledger.Principal) { called = true })
	msgs := drain(bridge, bridge.Start())

	done := assertMsgType[DoneMsg](t, msgs[len(msgs)-1], "last message")
	if done.Outcome.Status != creation.OutcomeFailed || done.Outcome.Instance != nil {
		t.Errorf("outcome = %+v", done.Outcome)
	}
	if called {
		t.Error("onCreated must not run when creation fails")
	}
	for _, msg := range msgs {
		if _, ok := msg.(InstanceCreatedMsg); ok {
			t.Error("unexpected InstanceCreatedMsg")
		}
	}
}

func TestBridge_CancelStops(t *testing.T) {
	f := newFixture(t, "10")
	req := f.confirm(t, "0", "2")

	bridge := NewBridge(f.creator, req, flow.NewLog(nil), nil)
	first := bridge.Start()
	bridge.Cancel()
	// Draining must terminate; goleak checks the goroutine exited.
	drain(bridge, first)
}

func TestBridge_CancelLetsCreationFinish(t *testing.T) {
	f := newFixture(t, "10")
	creator, sleeping, release := f.blockingCreator()
	req := f.confirm(t, "0", "2")

	bridge := NewBridge(creator, req, flow.NewLog(nil), nil)
	first := bridge.Start()
	<-sleeping
	bridge.Cancel()
	close(release)
	drain(bridge, first)

	if n := f.net.CallCount(sim.OpClaimFromDeposit); n != 1 {
		t.Errorf("claim calls = %d, want 1", n)
	}
}

// --- Wizard flow tests ---

func TestWizard_StartsOnForm(t *testing.T) {
	f := newFixture(t, "10")
	w := New(Options{Session: f.session, Creator: f.creator})
	if w.Screen() != screenForm {
		t.Error("wizard should start on the form")
	}
	if !strings.Contains(w.View(), "Fund your wallet") {
		t.Error("first screen should be the fund step")
	}
}

func TestWizard_BalancePolling(t *testing.T) {
	f := newFixture(t, "10")
	calls := 0
	w := New(Options{
		Session: f.session,
		Creator: f.creator,
		Balance: func(context.Context) (ledger.Tokens, error) {
			calls++
			return ledger.TokensFromWhole(42), nil
		},
		PollInterval: time.Second,
	})
	if w.pollTick() == nil {
		t.Fatal("polling should be scheduled on the form")
	}

	w, cmd := update(t, w, pollTickMsg{})
	if cmd == nil {
		t.Fatal("tick should fetch the balance")
	}
	bal := assertMsgType[BalanceMsg](t, cmd(), "fetch")
	w, cmd = update(t, w, bal)
	if got := f.session.Quote().Balance; got != ledger.TokensFromWhole(42) {
		t.Errorf("balance = %s, want 42.00", got)
	}
	if cmd == nil {
		t.Error("next tick should be scheduled")
	}

	// Once creation starts, polling stops and late refreshes are dropped.
	f.confirm(t, "0", "")
	w, cmd = update(t, w, pollTickMsg{})
	if cmd != nil {
		t.Error("no fetch once locked")
	}
	_, cmd = update(t, w, BalanceMsg{Balance: 1})
	if cmd != nil || f.session.Quote().Balance != ledger.TokensFromWhole(42) {
		t.Errorf("late refresh applied: balance %s", f.session.Quote().Balance)
	}
	if calls != 1 {
		t.Errorf("balance calls = %d, want 1", calls)
	}
}

func TestWizard_BalanceErrorKeepsValue(t *testing.T) {
	f := newFixture(t, "10")
	before := f.session.Quote().Balance
	w := New(Options{Session: f.session, Creator: f.creator, Balance: func(context.Context) (ledger.Tokens, error) {
		return 0, errors.New("offline")
	}, PollInterval: time.Second})

	_, cmd := update(t, w, BalanceMsg{Err: errors.New("offline")})
	if f.session.Quote().Balance != before {
		t.Error("failed refresh should keep the last balance")
	}
	if cmd == nil {
		t.Error("polling should continue after a failed refresh")
	}
}

func TestWizard_EndToEnd(t *testing.T) {
	f := newFixture(t, "10")
	var saved []ledger.Principal
	w := New(Options{
		Session:       f.session,
		Creator:       f.creator,
		OnCreated:     func(id ledger.Principal) { saved = append(saved, id) },
		MarkdownStyle: "notty",
	})

	w, _ = update(t, w, key("enter")) // gas
	for _, r := range "1" {
		w, _ = update(t, w, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	w, _ = update(t, w, key("enter")) // stake
	w, _ = update(t, w, key("l"))
	w, _ = update(t, w, key("enter")) // confirm

	w, cmd := update(t, w, key("enter"))
	if cmd == nil {
		t.Fatal("confirm should produce a command")
	}
	w, _ = update(t, w, cmd())
	if w.Screen() != screenProgress {
		t.Fatalf("expected progress screen, got %d", w.Screen())
	}
	if w.Request().ExtraGas != ledger.TokensFromWhole(1) {
		t.Errorf("request gas = %s", w.Request().ExtraGas)
	}

	for w.Screen() == screenProgress {
		msg := w.bridge.NextMsg()()
		if msg == nil {
			t.Fatal("bridge closed before DoneMsg")
		}
		w, _ = update(t, w, msg)
	}

	if w.Screen() != screenSummary {
		t.Fatalf("expected summary screen, got %d", w.Screen())
	}
	out, ok := w.Outcome()
	if !ok || out.Status != creation.OutcomeComplete || out.Instance == nil {
		t.Fatalf("outcome = %+v", out)
	}
	if out.CyclesAdded == 0 {
		t.Error("top-up should have added cycles")
	}
	if f.session.Step() != creation.StepComplete {
		t.Errorf("session step = %s, want Complete", f.session.Step())
	}
	if len(saved) != 1 || saved[0] != *out.Instance {
		t.Errorf("saved = %v", saved)
	}
	if !strings.Contains(w.View(), "Manager instance ready") {
		t.Errorf("summary view:\n%s", w.View())
	}
	// Drain the closed channel.
	if msg := w.bridge.NextMsg()(); msg != nil {
		t.Errorf("unexpected message after done: %T", msg)
	}
}

func TestWizard_CtrlCQuits(t *testing.T) {
	f := newFixture(t, "10")
	w := New(Options{Session: f.session, Creator: f.creator})
	w, cmd := update(t, w, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil || w.View() != "" {
		t.Error("ctrl+c should quit and clear the view")
	}
}

func TestWizard_CtrlCIgnoredWhileCreating(t *testing.T) {
	f := newFixture(t, "10")
	creator, sleeping, release := f.blockingCreator()
	w := New(Options{Session: f.session, Creator: creator, MarkdownStyle: "notty"})

	w, _ = update(t, w, ConfirmMsg{Request: f.confirm(t, "0", "2")})
	<-sleeping

	w, cmd := update(t, w, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd != nil {
		t.Error("ctrl+c while creating should not quit")
	}
	if w.Screen() != screenProgress || f.session.Step() != creation.StepCreating {
		t.Fatalf("screen %d, step %s after ctrl+c", w.Screen(), f.session.Step())
	}
	if !strings.Contains(w.View(), "cannot be interrupted") {
		t.Errorf("view should explain that creation keeps running:\n%s", w.View())
	}

	close(release)
	for w.Screen() == screenProgress {
		msg := w.bridge.NextMsg()()
		if msg == nil {
			t.Fatal("bridge closed before DoneMsg")
		}
		w, _ = update(t, w, msg)
	}
	out, ok := w.Outcome()
	if !ok || out.Status != creation.OutcomeComplete || out.StakeFailed || out.Neuron == nil {
		t.Fatalf("outcome = %+v, want a claimed neuron", out)
	}

	// Once finished, ctrl+c quits again.
	w, cmd = update(t, w, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil || w.View() != "" {
		t.Error("ctrl+c on the summary should quit")
	}
	if msg := w.bridge.NextMsg()(); msg != nil {
		t.Errorf("unexpected message after done: %T", msg)
	}
}
