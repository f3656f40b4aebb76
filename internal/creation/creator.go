package creation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/druarnfield/stakehut/internal/flow"
	"github.com/druarnfield/stakehut/internal/ledger"
)

// Request is everything the creation sequence needs, frozen when the user
// confirms.
type Request struct {
	SessionID   string
	User        ledger.Principal
	FactoryID   ledger.Principal
	Fee         ledger.Tokens
	TransferFee ledger.Tokens
	ExtraGas    ledger.Tokens

	// Stake is zero unless the user chose to stake now.
	Stake                ledger.Tokens
	DissolveDelaySeconds uint64
}

// OutcomeStatus is the terminal state of a creation attempt.
type OutcomeStatus int

const (
	OutcomeFailed OutcomeStatus = iota
	OutcomeComplete
)

// String returns the status name.
func (s OutcomeStatus) String() string {
	if s == OutcomeComplete {
		return "complete"
	}
	return "failed"
}

// Outcome is the result of one creation attempt. A non-nil Instance means
// the instance exists, whatever happened afterwards.
type Outcome struct {
	Status      OutcomeStatus
	Instance    *ledger.Principal
	Neuron      *ledger.NeuronID
	CyclesAdded uint64
	TopUpFailed bool
	StakeFailed bool
	FailedStep  string
	Err         error
	Entries     []flow.Entry
}

// Services are the remote collaborators of the creation sequence.
type Services struct {
	Ledger   ledger.Ledger
	Factory  ledger.Factory
	TopUp    ledger.TopUp
	Managers ledger.ManagerDialer
}

// Config tunes a Creator.
type Config struct {
	// CMC is the conversion service that receives top-up transfers.
	CMC ledger.Principal

	// SettleDelay is waited between the stake transfer and the claim.
	SettleDelay time.Duration

	// Sleep replaces the settle wait; nil uses a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error

	DryRun bool
}

// Creator runs the creation sequence.
type Creator struct {
	svc       Services
	cfg       Config
	logger    *slog.Logger
	onCreated func(ledger.Principal)
	preStep   flow.PreStepCallback
}

// NewCreator builds a Creator.
func NewCreator(svc Services, cfg Config, logger *slog.Logger) *Creator {
	if cfg.Sleep == nil {
		cfg.Sleep = sleepContext
	}
	return &Creator{svc: svc, cfg: cfg, logger: logger}
}

// SetOnCreated registers the callback that receives the new instance id as
// soon as the factory returns it, before any optional step runs.
func (c *Creator) SetOnCreated(fn func(ledger.Principal)) {
	c.onCreated = fn
}

// SetPreStepCallback is installed on every runner the Creator starts.
func (c *Creator) SetPreStepCallback(cb flow.PreStepCallback) {
	c.preStep = cb
}

// Create runs the sequence for req, writing progress to log:
//  1. pay the fee (fatal)
//  2. create the instance (fatal), then report its id
//  3. top up with extra gas (best effort)
//  4. stake a neuron (best effort)
//  5. finalize
//
// The attempt is complete if and only if step 2 succeeded. Cancelling ctx
// does not stop a started sequence: a stake transfer without its claim would
// leave the deposit unclaimed.
func (c *Creator) Create(ctx context.Context, req Request, log *flow.Log) Outcome {
	ctx = context.WithoutCancel(ctx)
	logger := c.logger.With(slog.String("session", req.SessionID))
	a := &attempt{c: c, req: req, logger: logger}

	runner := flow.NewRunner(logger, c.cfg.DryRun)
	runner.SetPreStepCallback(c.preStep)
	report := runner.Run(ctx, log, a.steps())

	out := a.outcome()
	if report.Aborted() {
		out.Status = OutcomeFailed
		out.FailedStep = report.FailedStep
		out.Err = report.Err
		logger.Error("creation failed", slog.String("step", report.FailedStep))
	} else {
		msg := "Creation complete"
		if a.created {
			msg = fmt.Sprintf("Manager instance %s is ready", a.instance)
		}
		_ = log.Note(flow.StatusComplete, msg)
		out.Status = OutcomeComplete
		logger.Info("creation complete",
			slog.Int("degraded", report.Degraded),
			slog.Int("skipped", report.Skipped),
			slog.Int("warnings", log.Count(flow.StatusWarning)),
			slog.Int("errors", log.Count(flow.StatusError)),
		)
	}
	out.Entries = log.Entries()
	return out
}

// RetryStake stakes into an instance that already exists. The stake step is
// fatal here since nothing else depends on it.
func (c *Creator) RetryStake(ctx context.Context, instance ledger.Principal, req Request, log *flow.Log) Outcome {
	ctx = context.WithoutCancel(ctx)
	logger := c.logger.With(slog.String("session", req.SessionID), slog.String("instance", instance.String()))
	a := &attempt{c: c, req: req, logger: logger, instance: instance, created: true}

	step := a.stakeStep()
	step.Policy = flow.Fatal
	step.Skip = nil

	runner := flow.NewRunner(logger, c.cfg.DryRun)
	runner.SetPreStepCallback(c.preStep)
	report := runner.Run(ctx, log, []flow.Step{step})
	out := a.outcome()
	out.Status = OutcomeComplete
	if report.Aborted() {
		out.Status = OutcomeFailed
		out.FailedStep = report.FailedStep
		out.Err = report.Err
	}
	out.Entries = log.Entries()
	return out
}

// attempt carries the data produced by earlier steps to later ones.
type attempt struct {
	c      *Creator
	req    Request
	logger *slog.Logger

	instance    ledger.Principal
	created     bool
	neuron      *ledger.NeuronID
	cycles      uint64
	topUpFailed bool
	stakeFailed bool
}

func (a *attempt) outcome() Outcome {
	out := Outcome{
		Neuron:      a.neuron,
		CyclesAdded: a.cycles,
		TopUpFailed: a.topUpFailed,
		StakeFailed: a.stakeFailed,
	}
	if a.created {
		id := a.instance
		out.Instance = &id
	}
	return out
}

func (a *attempt) steps() []flow.Step {
	return []flow.Step{
		{
			Name:    fmt.Sprintf("Paying %s creation fee", a.req.Fee),
			Explain: "The creation fee is sent to a payment subaccount the factory keeps for you. Nothing else happens if this transfer fails.",
			Policy:  flow.Fatal,
			Run:     a.payFee,
			DryRun: func() string {
				return fmt.Sprintf("Would transfer %s to the factory payment subaccount", a.req.Fee)
			},
		},
		{
			Name:    "Creating manager instance",
			Explain: "The factory consumes your payment and creates a manager instance owned by you. Once it exists it is never lost, even if later steps fail.",
			Policy:  flow.Fatal,
			Run:     a.createInstance,
			DryRun:  func() string { return "Would ask the factory to create a manager instance" },
		},
		{
			Name:    fmt.Sprintf("Topping up with %s of gas", a.req.ExtraGas),
			Explain: "Extra gas is converted to cycles for the new instance. If this fails the instance still works with its initial cycles.",
			Policy:  flow.BestEffort,
			Skip:    func() bool { return a.req.ExtraGas == 0 },
			Run:     a.topUp,
			DryRun: func() string {
				return fmt.Sprintf("Would convert %s to cycles for the new instance", a.req.ExtraGas)
			},
		},
		a.stakeStep(),
	}
}

func (a *attempt) stakeStep() flow.Step {
	return flow.Step{
		Name:    fmt.Sprintf("Staking %s", a.req.Stake),
		Explain: "The stake is sent to a deposit account of the manager, which then claims a neuron with your dissolve delay. You can always stake later instead.",
		Policy:  flow.BestEffort,
		Skip:    func() bool { return a.req.Stake == 0 },
		Run:     a.stake,
		DryRun: func() string {
			return fmt.Sprintf("Would stake %s with a %d second dissolve delay", a.req.Stake, a.req.DissolveDelaySeconds)
		},
	}
}

func (a *attempt) payFee(ctx context.Context) flow.Result {
	sub, err := a.c.svc.Factory.PaymentSubaccount(ctx, a.req.User)
	if err != nil {
		return flow.Fail("Could not get payment account: "+err.Error(), err)
	}

	block, err := a.c.svc.Ledger.Transfer(ctx, ledger.TransferArgs{
		To:     ledger.NewAccount(a.req.FactoryID, &sub),
		Amount: a.req.Fee,
		Fee:    a.req.TransferFee,
	})
	if err != nil {
		return flow.Fail(err.Error(), err)
	}
	return flow.Done(fmt.Sprintf("Paid %s creation fee (block %d)", a.req.Fee, block))
}

func (a *attempt) createInstance(ctx context.Context) flow.Result {
	id, err := a.c.svc.Factory.CreateInstance(ctx)
	if err != nil {
		var cerr *ledger.CreateError
		if errors.As(err, &cerr) {
			switch cerr.Kind {
			case ledger.CreateInsufficientPayment:
				return flow.Fail(fmt.Sprintf("Insufficient payment: %s required", cerr.Required), err)
			case ledger.CreateOther:
				return flow.Fail("Failed to create manager instance", err)
			}
		}
		return flow.Fail("Failed to create manager instance", err)
	}

	a.instance = id
	a.created = true
	a.logger.Info("manager instance created", slog.String("instance", id.String()))
	if a.c.onCreated != nil {
		a.c.onCreated(id)
	}
	return flow.Done(fmt.Sprintf("Created manager instance %s", id))
}

func (a *attempt) topUp(ctx context.Context) flow.Result {
	sub := ledger.SubaccountFromPrincipal(a.instance)
	block, err := a.c.svc.Ledger.Transfer(ctx, ledger.TransferArgs{
		To:     ledger.NewAccount(a.c.cfg.CMC, &sub),
		Amount: a.req.ExtraGas,
		Fee:    a.req.TransferFee,
		Memo:   ledger.TopUpMemo(),
	})
	if err != nil {
		a.topUpFailed = true
		return flow.Warn("Top-up transfer failed: "+err.Error()+". The instance was created without extra gas.", err)
	}

	cycles, err := a.c.svc.TopUp.NotifyTopUp(ctx, a.instance, block)
	if err != nil {
		a.topUpFailed = true
		return flow.Warn(fmt.Sprintf("Top-up notification for block %d failed: %s", block, err), err)
	}
	a.cycles = cycles
	return flow.Done(fmt.Sprintf("Added %s cycles", FormatCycles(cycles)))
}

func (a *attempt) stake(ctx context.Context) flow.Result {
	nid, err := a.stakeCalls(ctx)
	if err != nil {
		a.stakeFailed = true
		r := flow.Fail("Staking failed: "+err.Error(), err)
		r.FollowUp = fmt.Sprintf("You can retry staking later from manager instance %s.", a.instance)
		return r
	}
	a.neuron = &nid
	return flow.Done(fmt.Sprintf("Staked %s in neuron %d", a.req.Stake, nid))
}

func (a *attempt) stakeCalls(ctx context.Context) (ledger.NeuronID, error) {
	mgr, err := a.c.svc.Managers.Dial(ctx, a.instance)
	if err != nil {
		return 0, fmt.Errorf("connecting to manager: %w", err)
	}
	memo, err := mgr.GenerateMemo(ctx)
	if err != nil {
		return 0, fmt.Errorf("generating memo: %w", err)
	}
	to, err := mgr.StakeAccount(ctx, memo)
	if err != nil {
		return 0, fmt.Errorf("getting stake account: %w", err)
	}
	if _, err := a.c.svc.Ledger.Transfer(ctx, ledger.TransferArgs{
		To:     to,
		Amount: a.req.Stake,
		Fee:    a.req.TransferFee,
	}); err != nil {
		return 0, fmt.Errorf("transferring stake: %w", err)
	}
	if err := a.c.cfg.Sleep(ctx, a.c.cfg.SettleDelay); err != nil {
		return 0, err
	}
	nid, err := mgr.ClaimFromDeposit(ctx, memo, a.req.DissolveDelaySeconds)
	if err != nil {
		return 0, fmt.Errorf("claiming neuron: %w", err)
	}
	return nid, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FormatCycles renders cycles in trillions (T) with two decimals.
func FormatCycles(c uint64) string {
	whole := c / 1_000_000_000_000
	frac := (c % 1_000_000_000_000) / 10_000_000_000
	return fmt.Sprintf("%d.%02dT", whole, frac)
}
