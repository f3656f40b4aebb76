package wizard

import (
	"github.com/druarnfield/stakehut/internal/creation"
	"github.com/druarnfield/stakehut/internal/flow"
	"github.com/druarnfield/stakehut/internal/ledger"
)

// ConfirmMsg is sent by the form once the session has been locked for
// creation.
type ConfirmMsg struct {
	Request creation.Request
}

// StepStartMsg is sent when a creation step begins processing.
type StepStartMsg struct {
	StepName string
	Explain  string
	Index    int
	Total    int
}

// EntriesMsg carries a snapshot of the progress log after every change.
type EntriesMsg struct {
	Entries []flow.Entry
}

// InstanceCreatedMsg is sent as soon as the factory returns the new id.
type InstanceCreatedMsg struct {
	ID ledger.Principal
}

// DoneMsg is sent when the creation sequence has finished.
type DoneMsg struct {
	Outcome creation.Outcome
}

// BalanceMsg carries a refreshed wallet balance.
type BalanceMsg struct {
	Balance ledger.Tokens
	Err     error
}

type pollTickMsg struct{}
