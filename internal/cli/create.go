package cli

import (
	"context"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/druarnfield/stakehut/internal/creation"
	"github.com/druarnfield/stakehut/internal/flow"
	"github.com/druarnfield/stakehut/internal/ledger"
	"github.com/druarnfield/stakehut/internal/tui/wizard"
)

type createOptions struct {
	yes          bool
	gas          string
	stake        string
	dissolveDays uint32
	dissolveSet  bool
	stakeLater   bool
}

func newCreateCmd() *cobra.Command {
	var opts createOptions
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a manager instance",
		Long: "Run the creation wizard: fund, extra gas, stake, confirm. " +
			"With --yes the wizard is skipped and the flags answer each step.",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.dissolveSet = cmd.Flags().Changed("dissolve-days")
			return runCreate(cmd, opts)
		},
	}
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Create without the interactive wizard")
	cmd.Flags().StringVar(&opts.gas, "gas", "", "Extra gas to convert to cycles, in tokens")
	cmd.Flags().StringVar(&opts.stake, "stake", "", "Tokens to stake in a neuron")
	cmd.Flags().Uint32Var(&opts.dissolveDays, "dissolve-days", 0, "Neuron dissolve delay in days (default from config)")
	cmd.Flags().BoolVar(&opts.stakeLater, "stake-later", false, "Skip staking for now")
	return cmd
}

func runCreate(cmd *cobra.Command, opts createOptions) (err error) {
	a, err := openApp(cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.close(); err == nil {
			err = closeErr
		}
	}()

	ctx := cmd.Context()
	session, err := a.newSession(ctx)
	if err != nil {
		return err
	}
	a.logger.Info("creation session started",
		slog.String("session", session.ID()),
		slog.Bool("premium", session.Premium()),
		slog.Bool("interactive", !opts.yes),
	)

	creator := a.creator()
	if opts.yes {
		return a.createNonInteractive(ctx, session, creator, opts)
	}
	return a.createInteractive(session, creator)
}

func (a *app) newSession(ctx context.Context) (*creation.Session, error) {
	premium := creation.CheckPremium(ctx, a.client, a.user, a.logger)
	q, err := creation.LoadQuote(ctx, creation.QuoteSources{
		Ledger:     a.client,
		Factory:    a.client,
		Conversion: a.client,
	}, a.user, a.cfg.Ledger.TransferFee, premium)
	if err != nil {
		return nil, err
	}
	return creation.NewSession(q, creation.Options{
		User:                a.user,
		MinStake:            a.cfg.Staking.MinStake,
		DefaultDissolveDays: a.cfg.Staking.DefaultDissolveDays,
	}), nil
}

func (a *app) createInteractive(session *creation.Session, creator *creation.Creator) error {
	model := wizard.New(wizard.Options{
		Session: session,
		Creator: creator,
		Balance: func(ctx context.Context) (ledger.Tokens, error) {
			return a.client.BalanceOf(ctx, ledger.Account{Owner: a.user})
		},
		PollInterval:  a.cfg.UI.PollInterval(),
		OnCreated:     a.recordInstance(session.ID()),
		Explain:       flagExplain && !flagQuiet,
		MarkdownStyle: a.cfg.UI.MarkdownStyle,
	})

	final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("running wizard: %w", err)
	}

	wm, ok := final.(wizard.WizardModel)
	if !ok {
		return nil
	}
	out, done := wm.Outcome()
	if !done {
		if wm.Request().SessionID != "" {
			fmt.Fprintln(a.out, "Wizard closed while creating. Run 'stakehut instances' to see what was recorded.")
			return nil
		}
		fmt.Fprintln(a.out, "Wizard closed before creating anything.")
		return nil
	}
	a.recordOutcome(out)
	fmt.Fprint(a.out, wizard.RenderMarkdown(wizard.Receipt(out, wm.Request()), a.cfg.UI.MarkdownStyle, 80))
	if out.Status != creation.OutcomeComplete {
		return fmt.Errorf("creation failed at %q", out.FailedStep)
	}
	return nil
}

func (a *app) createNonInteractive(ctx context.Context, session *creation.Session, creator *creation.Creator, opts createOptions) error {
	if err := applyCreateOptions(session, opts); err != nil {
		return err
	}
	for session.Step() < creation.StepConfirm {
		if err := session.Next(); err != nil {
			return fmt.Errorf("%s step: %w", session.Step(), err)
		}
	}
	req, err := session.BeginCreating()
	if err != nil {
		return err
	}

	if flagDryRun {
		fmt.Fprintln(a.out, "=== DRY RUN ===")
	}
	fmt.Fprintf(a.out, "Creating manager instance for %s (total %s)\n\n", a.user, session.TotalRequired())

	log := flow.NewLog(nil)
	log.SetObserver(a.progressPrinter())
	creator.SetPreStepCallback(a.explainer())
	creator.SetOnCreated(a.recordInstance(session.ID()))

	out := creator.Create(ctx, req, log)
	session.Finish(out)
	a.recordOutcome(out)

	fmt.Fprintln(a.out)
	fmt.Fprint(a.out, wizard.RenderMarkdown(wizard.Receipt(out, req), a.cfg.UI.MarkdownStyle, 80))
	if out.Status != creation.OutcomeComplete {
		return fmt.Errorf("creation failed at %q: %w", out.FailedStep, out.Err)
	}
	return nil
}

// applyCreateOptions answers the gas and stake steps from flags.
func applyCreateOptions(s *creation.Session, opts createOptions) error {
	if opts.gas != "" {
		gas, err := ledger.ParseTokens(opts.gas)
		if err != nil {
			return fmt.Errorf("--gas: %w", err)
		}
		if err := s.SetExtraGas(gas); err != nil {
			return err
		}
	}

	if opts.stakeLater || opts.stake == "" {
		return s.Choose(creation.StakeLater)
	}
	stake, err := ledger.ParseTokens(opts.stake)
	if err != nil {
		return fmt.Errorf("--stake: %w", err)
	}
	if err := s.Choose(creation.StakeNow); err != nil {
		return err
	}
	if err := s.SetStake(stake); err != nil {
		return err
	}
	if opts.dissolveSet {
		if err := s.SetDissolveDays(opts.dissolveDays); err != nil {
			return fmt.Errorf("--dissolve-days: %w", err)
		}
	}
	return nil
}
