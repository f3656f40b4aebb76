// Package flow runs an ordered list of remote-call steps against an
// append-only progress Log. Each step is either fatal, ending the run when it
// fails, or best-effort, degrading to a warning or error entry while the run
// carries on.
package flow

import (
	"context"
	"fmt"
)

// Policy decides what a failing step does to the rest of the run.
type Policy int

const (
	// Fatal steps abort the run on failure.
	Fatal Policy = iota
	// BestEffort steps record their failure and let the run continue.
	BestEffort
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case Fatal:
		return "fatal"
	case BestEffort:
		return "best-effort"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// Result is what a step reports back to the runner.
type Result struct {
	// Status must be terminal: Complete, Warning, Error or Info.
	Status Status

	// Message replaces the step's progress text when non-empty.
	Message string

	// Err is the underlying cause, logged but not shown verbatim unless the
	// step copies it into Message.
	Err error

	// FollowUp, when set, is appended as an Info entry after the step.
	FollowUp string
}

// Failed reports whether the result counts as a failure.
func (r Result) Failed() bool {
	return r.Status == StatusError || r.Status == StatusWarning
}

// Done is a successful result with an optional message.
func Done(message string) Result {
	return Result{Status: StatusComplete, Message: message}
}

// Warn is a degraded result.
func Warn(message string, err error) Result {
	return Result{Status: StatusWarning, Message: message, Err: err}
}

// Fail is an error result.
func Fail(message string, err error) Result {
	return Result{Status: StatusError, Message: message, Err: err}
}

// Step is a single remote-call stage of a run.
type Step struct {
	// Name is the progress text shown while the step is active.
	Name string

	// Explain is a longer description for the explain panel.
	Explain string

	// Policy controls whether failure aborts the run.
	Policy Policy

	// Skip returns true when the step does not apply to this run.
	Skip func() bool

	// Run performs the step.
	Run func(ctx context.Context) Result

	// DryRun describes what Run would do without calling anything.
	DryRun func() string
}
