package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/druarnfield/stakehut/internal/config"
	"github.com/druarnfield/stakehut/internal/creation"
	"github.com/druarnfield/stakehut/internal/flow"
	"github.com/druarnfield/stakehut/internal/ledger"
	"github.com/druarnfield/stakehut/internal/ledger/sim"
	"github.com/druarnfield/stakehut/internal/logging"
	"github.com/druarnfield/stakehut/internal/state"
	"github.com/druarnfield/stakehut/internal/tui/components"
)

// seedTransfers is the history a fresh simulated network starts with.
const seedTransfers = 120

// app is what every command needs: config, logger, recorded state and a
// client on the simulated network acting as the configured identity.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	closeLog func() error
	styles   components.Styles
	out      io.Writer

	mu    sync.Mutex
	state *state.State

	net    *sim.Network
	user   ledger.Principal
	client *sim.Client
}

// openApp prepares everything a command needs. Warnings that concern the
// run as a whole go to errOut.
func openApp(out, errOut io.Writer) (*app, error) {
	cfg, err := config.Load(config.ConfigFilePath())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger, closeLog, err := logging.Setup(config.LogFilePath(), appVersion, flagVerbose)
	if err != nil {
		fmt.Fprintf(errOut, "warning: logging disabled, cannot open %s: %v\n", config.LogFilePath(), err)
		logger = logging.Discard()
		closeLog = func() error { return nil }
	}

	st, err := state.Load(config.StateFilePath())
	if err != nil {
		logger.Warn("state unreadable, starting fresh", slog.String("error", err.Error()))
		st = &state.State{}
	}

	net, existed, err := sim.Open(config.NetworkFilePath(), simConfig(cfg), nil)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("opening network: %w", err)
	}

	user := cfg.Identity.Principal
	if !existed {
		net.Seed(user, cfg.Simulator.InitialBalance, seedTransfers)
		logger.Info("seeded simulated network",
			slog.String("principal", user.String()),
			slog.String("balance", cfg.Simulator.InitialBalance.String()),
		)
	}
	net.SetPremium(user, cfg.Simulator.Premium)
	for _, op := range cfg.Simulator.FailOnce {
		net.FailNext(op, fmt.Errorf("injected failure in %s", op))
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		closeLog: closeLog,
		styles:   components.DefaultStyles(),
		out:      out,
		state:    st,
		net:      net,
		user:     user,
		client:   net.As(user),
	}, nil
}

func simConfig(cfg *config.Config) sim.Config {
	sc := sim.DefaultConfig()
	sc.TransferFee = cfg.Ledger.TransferFee
	sc.CreationFee = cfg.Simulator.CreationFee
	sc.PremiumFee = cfg.Simulator.PremiumFee
	sc.RatePermyriad = cfg.Simulator.RatePermyriad
	sc.MinStake = cfg.Staking.MinStake
	sc.RetainedBlocks = cfg.Simulator.RetainedBlocks
	sc.ArchiveShardSize = cfg.Simulator.ArchiveShardSize
	return sc
}

// close saves the network and state and closes the log.
func (a *app) close() error {
	a.mu.Lock()
	a.state.LastRun = time.Now()
	a.state.StakehutVersion = appVersion
	stateErr := state.Save(config.StateFilePath(), a.state)
	a.mu.Unlock()

	err := errors.Join(
		a.net.Save(config.NetworkFilePath()),
		stateErr,
	)
	if err != nil {
		a.logger.Error("failed to save", slog.String("error", err.Error()))
	}
	a.closeLog()
	return err
}

func (a *app) services() creation.Services {
	return creation.Services{
		Ledger:   a.client,
		Factory:  a.client,
		TopUp:    a.client,
		Managers: a.client,
	}
}

func (a *app) creator() *creation.Creator {
	return creation.NewCreator(a.services(), creation.Config{
		CMC:         a.cfg.Ledger.CMC,
		SettleDelay: a.cfg.Staking.SettleDelay(),
		DryRun:      flagDryRun,
	}, a.logger)
}

// recordInstance returns the callback that writes a new instance to state
// the moment it exists. It may run on the creation goroutine.
func (a *app) recordInstance(sessionID string) func(ledger.Principal) {
	return func(id ledger.Principal) {
		a.mu.Lock()
		defer a.mu.Unlock()
		a.state.AddInstance(state.Instance{
			ID:        id,
			Owner:     a.user,
			SessionID: sessionID,
			CreatedAt: time.Now(),
		})
		if err := state.Save(config.StateFilePath(), a.state); err != nil {
			a.logger.Error("failed to save new instance",
				slog.String("instance", id.String()),
				slog.String("error", err.Error()),
			)
		}
	}
}

// recordOutcome copies what the optional steps achieved onto the recorded
// instance.
func (a *app) recordOutcome(out creation.Outcome) {
	if out.Instance == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	inst := a.state.Find(*out.Instance)
	if inst == nil {
		return
	}
	inst.CyclesAdded += out.CyclesAdded
	inst.TopUpFailed = out.TopUpFailed
	inst.StakeFailed = out.StakeFailed
	if out.Neuron != nil {
		a.state.AddNeuron(*out.Instance, uint64(*out.Neuron))
	}
}

// progressPrinter returns a log observer that prints each entry once it is
// resolved. The creation sequence only ever changes the newest entry.
func (a *app) progressPrinter() flow.Observer {
	printed := 0
	return func(entries []flow.Entry) {
		for printed < len(entries) && entries[printed].Status.Terminal() {
			e := entries[printed]
			line := fmt.Sprintf("  %s %s", a.styles.StatusIcon(e.Status), e.Message)
			fmt.Fprintln(a.out, a.styles.StatusStyle(e.Status).Render(line))
			printed++
		}
	}
}

// explainer prints step explanations when --explain is set.
func (a *app) explainer() flow.PreStepCallback {
	if !flagExplain || flagQuiet {
		return nil
	}
	return func(step *flow.Step, index, total int) {
		if step.Explain == "" || (step.Skip != nil && step.Skip()) {
			return
		}
		fmt.Fprintln(a.out, a.styles.Muted.Render(fmt.Sprintf("  [%d/%d] %s", index+1, total, step.Explain)))
	}
}
