// Package creation drives the manager-instance creation wizard: a guarded
// four-step session (fund, gas, stake, confirm) followed by the creation
// sequence that pays the fee, creates the instance and then optionally tops
// it up and stakes a neuron.
package creation

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/druarnfield/stakehut/internal/ledger"
)

// Step is a wizard position.
type Step int

const (
	StepFund Step = iota + 1
	StepGas
	StepStake
	StepConfirm
	StepCreating
	StepComplete
	StepFailed
)

// String returns the step title.
func (s Step) String() string {
	switch s {
	case StepFund:
		return "Fund"
	case StepGas:
		return "Gas"
	case StepStake:
		return "Stake"
	case StepConfirm:
		return "Confirm"
	case StepCreating:
		return "Creating"
	case StepComplete:
		return "Complete"
	case StepFailed:
		return "Failed"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

// StakeChoice is the user's answer on the stake step.
type StakeChoice int

const (
	StakeUndecided StakeChoice = iota
	StakeNow
	StakeLater
)

// MaxDissolveDays is the longest dissolve delay governance accepts (8 years).
const MaxDissolveDays = 2922

const secondsPerDay = 24 * 60 * 60

var (
	ErrSkipStep        = errors.New("steps cannot be skipped")
	ErrLocked          = errors.New("wizard is locked while creating")
	ErrAlreadyCreating = errors.New("creation already in progress")
	ErrNotConfirming   = errors.New("creation can only start from the confirm step")
	ErrLastStep        = errors.New("confirm is the last step")
	ErrDissolveTooLong = fmt.Errorf("dissolve delay cannot exceed %d days", MaxDissolveDays)
)

// GuardReason names the validation that blocked a step.
type GuardReason int

const (
	InsufficientBalance GuardReason = iota
	StakeBelowMinimum
	NoStakeChoice
)

// GuardError is a client-side validation failure. It blocks advancement
// and is shown inline; it never ends the session.
type GuardError struct {
	Step   Step
	Reason GuardReason
	Need   ledger.Tokens
	Have   ledger.Tokens
}

func (e *GuardError) Error() string {
	switch e.Reason {
	case InsufficientBalance:
		return fmt.Sprintf("insufficient balance: need %s, have %s", e.Need, e.Have)
	case StakeBelowMinimum:
		return fmt.Sprintf("stake must be at least %s", e.Need)
	case NoStakeChoice:
		return "choose whether to stake now or later"
	default:
		return "step requirements not met"
	}
}

// Options tunes a session's limits.
type Options struct {
	User                ledger.Principal
	MinStake            ledger.Tokens
	DefaultDissolveDays uint32
}

// Session is one pass through the wizard. It is not resumable.
type Session struct {
	id           string
	user         ledger.Principal
	step         Step
	reached      Step
	quote        Quote
	minStake     ledger.Tokens
	extraGas     ledger.Tokens
	stake        ledger.Tokens
	dissolveDays uint32
	choice       StakeChoice
}

// NewSession starts a session on the fund step.
func NewSession(q Quote, opts Options) *Session {
	if opts.MinStake == 0 {
		opts.MinStake = ledger.E8sPerToken
	}
	return &Session{
		id:           uuid.NewString(),
		user:         opts.User,
		step:         StepFund,
		reached:      StepFund,
		quote:        q,
		minStake:     opts.MinStake,
		dissolveDays: min(opts.DefaultDissolveDays, MaxDissolveDays),
	}
}

func (s *Session) ID() string                  { return s.id }
func (s *Session) Step() Step                  { return s.step }
func (s *Session) User() ledger.Principal      { return s.user }
func (s *Session) Quote() Quote                { return s.quote }
func (s *Session) ExtraGas() ledger.Tokens     { return s.extraGas }
func (s *Session) Stake() ledger.Tokens        { return s.stake }
func (s *Session) DissolveDays() uint32        { return s.dissolveDays }
func (s *Session) Choice() StakeChoice         { return s.choice }
func (s *Session) MinStake() ledger.Tokens     { return s.minStake }
func (s *Session) Locked() bool                { return s.step >= StepCreating }
func (s *Session) Premium() bool               { return s.quote.Premium }
func (s *Session) EffectiveFee() ledger.Tokens { return s.quote.EffectiveFee() }

// SetBalance records a refreshed wallet balance.
func (s *Session) SetBalance(b ledger.Tokens) {
	s.quote.Balance = b
}

// SetExtraGas sets the optional top-up amount.
func (s *Session) SetExtraGas(t ledger.Tokens) error {
	if s.Locked() {
		return ErrLocked
	}
	s.extraGas = t
	return nil
}

// SetStake sets the stake amount.
func (s *Session) SetStake(t ledger.Tokens) error {
	if s.Locked() {
		return ErrLocked
	}
	s.stake = t
	return nil
}

// SetDissolveDays sets the neuron's dissolve delay.
func (s *Session) SetDissolveDays(days uint32) error {
	if s.Locked() {
		return ErrLocked
	}
	if days > MaxDissolveDays {
		return ErrDissolveTooLong
	}
	s.dissolveDays = days
	return nil
}

// Choose records the staking decision.
func (s *Session) Choose(c StakeChoice) error {
	if s.Locked() {
		return ErrLocked
	}
	s.choice = c
	return nil
}

// staking reports whether a stake will be attempted.
func (s *Session) staking() bool {
	return s.choice == StakeNow && s.stake > 0
}

// TotalRequired is the balance the whole sequence can consume.
func (s *Session) TotalRequired() ledger.Tokens {
	fee := s.quote.TransferFee
	total := s.quote.EffectiveFee().Add(fee).Add(s.extraGas)
	if s.staking() {
		total = total.Add(s.stake).Add(fee)
	}
	return total
}

// HasEnoughBalance compares the wallet against TotalRequired.
func (s *Session) HasEnoughBalance() bool {
	return s.quote.Balance >= s.TotalRequired()
}

// EstimatedCycles is the display estimate for the requested extra gas.
func (s *Session) EstimatedCycles() uint64 {
	return s.quote.EstimatedCycles(s.extraGas)
}

// Check returns the guard error for leaving the current step, or nil.
func (s *Session) Check() error {
	switch s.step {
	case StepFund:
		need := s.quote.EffectiveFee().Add(s.quote.TransferFee)
		if s.quote.Balance < need {
			return &GuardError{Step: s.step, Reason: InsufficientBalance, Need: need, Have: s.quote.Balance}
		}
	case StepGas:
		return nil
	case StepStake, StepConfirm:
		if s.choice == StakeUndecided {
			return &GuardError{Step: s.step, Reason: NoStakeChoice}
		}
		if s.choice == StakeNow && s.stake < s.minStake {
			return &GuardError{Step: s.step, Reason: StakeBelowMinimum, Need: s.minStake, Have: s.stake}
		}
		if !s.HasEnoughBalance() {
			return &GuardError{Step: s.step, Reason: InsufficientBalance, Need: s.TotalRequired(), Have: s.quote.Balance}
		}
	default:
		return ErrLocked
	}
	return nil
}

// Next advances one step if the current step's guard holds; otherwise the
// session stays where it is.
func (s *Session) Next() error {
	if s.step >= StepConfirm {
		if s.Locked() {
			return ErrLocked
		}
		return ErrLastStep
	}
	if err := s.Check(); err != nil {
		return err
	}
	s.step++
	s.reached = max(s.reached, s.step)
	return nil
}

// Back moves one step back. It is always allowed before creation starts.
func (s *Session) Back() error {
	if s.Locked() {
		return ErrLocked
	}
	if s.step > StepFund {
		s.step--
	}
	return nil
}

// GoTo jumps to any earlier step, or forward to the next step or any step
// reached before. Moving forward re-checks each guard on the way and stops at
// the first that fails.
func (s *Session) GoTo(target Step) error {
	if s.Locked() {
		return ErrLocked
	}
	switch {
	case target < StepFund || target > StepConfirm:
		return fmt.Errorf("no such step %d", int(target))
	case target <= s.step:
		s.step = target
		return nil
	case target > s.step+1 && target > s.reached:
		return ErrSkipStep
	}
	for s.step < target {
		if err := s.Next(); err != nil {
			return err
		}
	}
	return nil
}

// Reached returns the furthest step the session has advanced to.
func (s *Session) Reached() Step {
	return s.reached
}

// BeginCreating re-checks the balance and locks the session. It fails while
// a creation is already running.
func (s *Session) BeginCreating() (Request, error) {
	switch {
	case s.step == StepCreating:
		return Request{}, ErrAlreadyCreating
	case s.step != StepConfirm:
		return Request{}, ErrNotConfirming
	}
	if err := s.Check(); err != nil {
		return Request{}, err
	}
	s.step = StepCreating
	return s.request(), nil
}

// Finish records the terminal state of the creation sequence.
func (s *Session) Finish(o Outcome) {
	if o.Status == OutcomeComplete {
		s.step = StepComplete
		return
	}
	s.step = StepFailed
}

// PollingAllowed reports whether background balance refreshes may run.
func (s *Session) PollingAllowed() bool {
	return !s.Locked()
}

func (s *Session) request() Request {
	req := Request{
		SessionID:   s.id,
		User:        s.user,
		FactoryID:   s.quote.FactoryID,
		Fee:         s.quote.EffectiveFee(),
		TransferFee: s.quote.TransferFee,
		ExtraGas:    s.extraGas,
	}
	if s.staking() {
		req.Stake = s.stake
		req.DissolveDelaySeconds = uint64(s.dissolveDays) * secondsPerDay
	}
	return req
}
