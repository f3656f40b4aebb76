package creation

import (
	"errors"
	"testing"

	"github.com/druarnfield/stakehut/internal/ledger"
)

func tok(s string) ledger.Tokens {
	return ledger.MustParseTokens(s)
}

func testQuote(balance string) Quote {
	return Quote{
		FactoryID:   ledger.PrincipalFromBytes([]byte{0xfa}),
		CreationFee: tok("2.00"),
		PremiumFee:  tok("1.00"),
		TransferFee: tok("0.0001"),
		Balance:     tok(balance),
	}
}

func newTestSession(balance string) *Session {
	return NewSession(testQuote(balance), Options{
		User:                ledger.PrincipalFromBytes([]byte{0x01}),
		MinStake:            tok("1"),
		DefaultDissolveDays: 365,
	})
}

func assertGuard(t *testing.T, err error, reason GuardReason) {
	t.Helper()
	var gerr *GuardError
	if !errors.As(err, &gerr) {
		t.Fatalf("error = %v, want *GuardError", err)
	}
	if gerr.Reason != reason {
		t.Errorf("guard reason = %d, want %d", gerr.Reason, reason)
	}
}

func TestSession_ExampleTotals(t *testing.T) {
	s := newTestSession("5.00")
	_ = s.Choose(StakeNow)
	_ = s.SetStake(tok("1.00"))

	if got, want := s.TotalRequired(), tok("3.0002"); got != want {
		t.Errorf("TotalRequired = %s, want %s", got, want)
	}
	if !s.HasEnoughBalance() {
		t.Error("HasEnoughBalance should be true")
	}

	_ = s.SetStake(tok("10.00"))
	if got, want := s.TotalRequired(), tok("12.0002"); got != want {
		t.Errorf("TotalRequired = %s, want %s", got, want)
	}
	if s.HasEnoughBalance() {
		t.Error("HasEnoughBalance should be false")
	}
}

func TestSession_TotalRequiredMonotonic(t *testing.T) {
	s := newTestSession("100")
	_ = s.Choose(StakeNow)
	_ = s.SetStake(tok("1"))

	prev := s.TotalRequired()
	for _, gas := range []string{"0.1", "0.5", "3"} {
		_ = s.SetExtraGas(tok(gas))
		if cur := s.TotalRequired(); cur <= prev {
			t.Errorf("gas %s: total %s did not increase from %s", gas, cur, prev)
		} else {
			prev = cur
		}
	}
	for _, stake := range []string{"2", "5", "50"} {
		_ = s.SetStake(tok(stake))
		if cur := s.TotalRequired(); cur <= prev {
			t.Errorf("stake %s: total %s did not increase from %s", stake, cur, prev)
		} else {
			prev = cur
		}
	}

	before := s.TotalRequired()
	for _, days := range []uint32{0, 180, 2922} {
		_ = s.SetDissolveDays(days)
		if s.TotalRequired() != before {
			t.Errorf("dissolve delay %d changed total", days)
		}
	}
}

func TestSession_StakeLaterIgnoresStakeAmount(t *testing.T) {
	s := newTestSession("5")
	_ = s.SetStake(tok("10"))
	_ = s.Choose(StakeLater)
	if got, want := s.TotalRequired(), tok("2.0001"); got != want {
		t.Errorf("TotalRequired = %s, want %s", got, want)
	}
}

func TestSession_PremiumFee(t *testing.T) {
	q := testQuote("5")
	q.Premium = true
	s := NewSession(q, Options{})
	if s.EffectiveFee() != tok("1.00") {
		t.Errorf("EffectiveFee = %s, want 1.00", s.EffectiveFee())
	}
	if s.TotalRequired() != tok("1.0001") {
		t.Errorf("TotalRequired = %s", s.TotalRequired())
	}
}

func TestSession_FundGuard(t *testing.T) {
	s := newTestSession("2.00")
	assertGuard(t, s.Next(), InsufficientBalance)
	if s.Step() != StepFund {
		t.Errorf("step = %s, want Fund", s.Step())
	}

	s.SetBalance(tok("2.0001"))
	if err := s.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if s.Step() != StepGas {
		t.Errorf("step = %s, want Gas", s.Step())
	}
}

func TestSession_StakeGuards(t *testing.T) {
	s := newTestSession("5.00")
	mustNext(t, s) // fund -> gas
	mustNext(t, s) // gas -> stake, unconditional

	assertGuard(t, s.Next(), NoStakeChoice)

	_ = s.Choose(StakeNow)
	_ = s.SetStake(tok("0.5"))
	assertGuard(t, s.Next(), StakeBelowMinimum)

	_ = s.SetStake(tok("10.00"))
	assertGuard(t, s.Next(), InsufficientBalance)
	if s.Step() != StepStake {
		t.Fatalf("step = %s, want Stake after blocked advance", s.Step())
	}

	_ = s.SetStake(tok("1.00"))
	mustNext(t, s)
	if s.Step() != StepConfirm {
		t.Errorf("step = %s, want Confirm", s.Step())
	}
}

func TestSession_Navigation(t *testing.T) {
	s := newTestSession("5.00")
	_ = s.Choose(StakeLater)

	if err := s.GoTo(StepStake); !errors.Is(err, ErrSkipStep) {
		t.Errorf("GoTo(Stake) from Fund error = %v, want ErrSkipStep", err)
	}
	if err := s.GoTo(StepGas); err != nil {
		t.Fatalf("GoTo(Gas): %v", err)
	}
	mustNext(t, s)
	mustNext(t, s)
	if s.Step() != StepConfirm {
		t.Fatalf("step = %s, want Confirm", s.Step())
	}

	if err := s.GoTo(StepFund); err != nil {
		t.Fatalf("GoTo(Fund): %v", err)
	}
	if s.Step() != StepFund {
		t.Errorf("step = %s, want Fund", s.Step())
	}
	if err := s.Back(); err != nil || s.Step() != StepFund {
		t.Errorf("Back on Fund = %v, step %s", err, s.Step())
	}

	// Steps completed before stay reachable.
	if err := s.GoTo(StepStake); err != nil {
		t.Fatalf("GoTo(Stake) after reaching Confirm: %v", err)
	}
	if s.Step() != StepStake || s.Reached() != StepConfirm {
		t.Errorf("step = %s, reached = %s", s.Step(), s.Reached())
	}
	if err := s.GoTo(StepConfirm); err != nil || s.Step() != StepConfirm {
		t.Errorf("GoTo(Confirm) = %v, step %s", err, s.Step())
	}
}

func TestSession_GoToRechecksGuards(t *testing.T) {
	s := newTestSession("5.00")
	_ = s.Choose(StakeNow)
	_ = s.SetStake(tok("1.00"))
	mustNext(t, s)
	mustNext(t, s)
	mustNext(t, s)

	if err := s.GoTo(StepFund); err != nil {
		t.Fatalf("GoTo(Fund): %v", err)
	}
	// The stake no longer meets the minimum, so the jump stops on the stake
	// step instead of landing on Confirm.
	_ = s.SetStake(tok("0.5"))
	assertGuard(t, s.GoTo(StepConfirm), StakeBelowMinimum)
	if s.Step() != StepStake {
		t.Errorf("step = %s, want Stake", s.Step())
	}
}

func TestSession_BeginCreating(t *testing.T) {
	s := newTestSession("5.00")
	_ = s.Choose(StakeNow)
	_ = s.SetStake(tok("1.00"))
	_ = s.SetDissolveDays(30)

	if _, err := s.BeginCreating(); !errors.Is(err, ErrNotConfirming) {
		t.Errorf("BeginCreating from Fund error = %v", err)
	}

	mustNext(t, s)
	mustNext(t, s)
	mustNext(t, s)

	// Balance dropped while the user was on the confirm step.
	s.SetBalance(tok("3.0001"))
	assertGuard(t, func() error { _, err := s.BeginCreating(); return err }(), InsufficientBalance)
	if s.Step() != StepConfirm {
		t.Fatalf("step = %s, want Confirm", s.Step())
	}

	s.SetBalance(tok("5.00"))
	req, err := s.BeginCreating()
	if err != nil {
		t.Fatalf("BeginCreating: %v", err)
	}
	if req.Fee != tok("2.00") || req.Stake != tok("1.00") || req.DissolveDelaySeconds != 30*86400 {
		t.Errorf("request = %+v", req)
	}
	if req.SessionID != s.ID() || req.User != ledger.PrincipalFromBytes([]byte{0x01}) {
		t.Errorf("request identity = %q %s", req.SessionID, req.User)
	}

	if _, err := s.BeginCreating(); !errors.Is(err, ErrAlreadyCreating) {
		t.Errorf("second BeginCreating error = %v, want ErrAlreadyCreating", err)
	}
	if s.PollingAllowed() {
		t.Error("polling should stop once creating")
	}
	if err := s.Back(); !errors.Is(err, ErrLocked) {
		t.Errorf("Back while creating error = %v, want ErrLocked", err)
	}
	if err := s.SetStake(tok("2")); !errors.Is(err, ErrLocked) {
		t.Errorf("SetStake while creating error = %v", err)
	}

	s.Finish(Outcome{Status: OutcomeComplete})
	if s.Step() != StepComplete {
		t.Errorf("step = %s, want Complete", s.Step())
	}
}

func TestSession_StakeLaterRequestHasNoStake(t *testing.T) {
	s := newTestSession("5.00")
	_ = s.SetStake(tok("1.00"))
	_ = s.Choose(StakeLater)
	mustNext(t, s)
	mustNext(t, s)
	mustNext(t, s)

	req, err := s.BeginCreating()
	if err != nil {
		t.Fatalf("BeginCreating: %v", err)
	}
	if req.Stake != 0 || req.DissolveDelaySeconds != 0 {
		t.Errorf("stake-later request = %+v", req)
	}
}

func TestSession_DissolveLimit(t *testing.T) {
	s := newTestSession("5")
	if err := s.SetDissolveDays(MaxDissolveDays + 1); !errors.Is(err, ErrDissolveTooLong) {
		t.Errorf("error = %v, want ErrDissolveTooLong", err)
	}
	if s.DissolveDays() != 365 {
		t.Errorf("dissolve days = %d, want default 365", s.DissolveDays())
	}
}

func mustNext(t *testing.T, s *Session) {
	t.Helper()
	if err := s.Next(); err != nil {
		t.Fatalf("Next from %s: %v", s.Step(), err)
	}
}
