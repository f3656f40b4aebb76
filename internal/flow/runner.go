package flow

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Report captures the outcome of one run.
type Report struct {
	// Completed is the number of steps that resolved Complete.
	Completed int

	// Skipped is the number of steps whose Skip returned true.
	Skipped int

	// Degraded is the number of best-effort steps that failed.
	Degraded int

	// Total is the number of steps handed to the runner.
	Total int

	// FailedStep names the fatal step that aborted the run, if any.
	FailedStep string

	// Err is the cause of the abort, or nil when the run finished.
	Err error
}

// Aborted reports whether a fatal step stopped the run.
func (r Report) Aborted() bool {
	return r.Err != nil
}

// StepCallback is invoked after each step is processed (skipped, resolved or failed).
type StepCallback func(step *Step, index int, total int, skipped bool, res Result)

// PreStepCallback is invoked before each step begins processing.
type PreStepCallback func(step *Step, index int, total int)

// Runner executes steps strictly in order against a progress Log.
type Runner struct {
	logger      *slog.Logger
	dryRun      bool
	callback    StepCallback
	preCallback PreStepCallback
}

// NewRunner creates a Runner. When dryRun is true, steps are described in
// the log instead of executed.
func NewRunner(logger *slog.Logger, dryRun bool) *Runner {
	return &Runner{
		logger: logger,
		dryRun: dryRun,
	}
}

// SetCallback registers a post-step callback. Pass nil to clear.
func (r *Runner) SetCallback(cb StepCallback) {
	r.callback = cb
}

// SetPreStepCallback registers a pre-step callback. Pass nil to clear.
func (r *Runner) SetPreStepCallback(cb PreStepCallback) {
	r.preCallback = cb
}

// Run executes every step sequentially. For each step:
//   - If Skip returns true the step leaves no entry.
//   - In dry-run mode DryRun is recorded as an Info entry.
//   - Otherwise an Active entry is opened, Run is called and the entry is
//     resolved with the result. A Fatal step resolving Error ends the run; a
//     BestEffort step keeps going and appends its FollowUp as Info.
func (r *Runner) Run(ctx context.Context, log *Log, steps []Step) Report {
	report := Report{Total: len(steps)}

	for i := range steps {
		step := &steps[i]

		if r.preCallback != nil {
			r.preCallback(step, i, report.Total)
		}

		if step.Skip != nil && step.Skip() {
			report.Skipped++
			r.logger.Debug("step not applicable, skipping", slog.String("step", step.Name))
			if r.callback != nil {
				r.callback(step, i, report.Total, true, Result{})
			}
			continue
		}

		if r.dryRun {
			desc := step.Name
			if step.DryRun != nil {
				desc = step.DryRun()
			}
			_ = log.Note(StatusInfo, desc)
			r.logger.Info("dry-run",
				slog.String("step", step.Name),
				slog.String("would_do", desc),
			)
			if r.callback != nil {
				r.callback(step, i, report.Total, true, Result{Status: StatusInfo, Message: desc})
			}
			continue
		}

		idx, err := log.Begin(step.Name)
		if err != nil {
			report.FailedStep = step.Name
			report.Err = fmt.Errorf("step %q could not start: %w", step.Name, err)
			return report
		}

		start := time.Now()
		res := step.Run(ctx)
		elapsed := time.Since(start)
		if !res.Status.Terminal() {
			res.Status = StatusComplete
		}

		_ = log.Resolve(idx, res.Status, res.Message)

		attrs := []any{
			slog.String("step", step.Name),
			slog.String("policy", step.Policy.String()),
			slog.String("status", res.Status.String()),
			slog.Duration("elapsed", elapsed),
		}
		if res.Err != nil {
			attrs = append(attrs, slog.String("error", res.Err.Error()))
		}

		switch {
		case res.Status == StatusError && step.Policy == Fatal:
			r.logger.Error("step failed", attrs...)
			report.FailedStep = step.Name
			report.Err = res.Err
			if report.Err == nil {
				report.Err = fmt.Errorf("step %q failed: %s", step.Name, res.Message)
			}
			if r.callback != nil {
				r.callback(step, i, report.Total, false, res)
			}
			return report

		case res.Failed():
			r.logger.Warn("step degraded", attrs...)
			report.Degraded++
			if res.FollowUp != "" {
				_ = log.Note(StatusInfo, res.FollowUp)
			}

		default:
			r.logger.Info("step completed", attrs...)
			report.Completed++
		}

		if r.callback != nil {
			r.callback(step, i, report.Total, false, res)
		}
	}

	return report
}
