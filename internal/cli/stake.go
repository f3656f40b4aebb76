package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/druarnfield/stakehut/internal/creation"
	"github.com/druarnfield/stakehut/internal/flow"
	"github.com/druarnfield/stakehut/internal/ledger"
)

func newStakeCmd() *cobra.Command {
	var (
		amount string
		days   uint32
	)
	cmd := &cobra.Command{
		Use:   "stake <instance>",
		Short: "Stake a neuron in an existing manager instance",
		Long:  "Stake tokens into a neuron owned by a manager instance, for example after staking failed or was postponed during creation.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			id, err := ledger.ParsePrincipal(args[0])
			if err != nil {
				return fmt.Errorf("instance: %w", err)
			}
			if amount == "" {
				return errors.New("--amount is required")
			}
			stake, err := ledger.ParseTokens(amount)
			if err != nil {
				return fmt.Errorf("--amount: %w", err)
			}

			a, err := openApp(cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := a.close(); err == nil {
					err = closeErr
				}
			}()

			if !cmd.Flags().Changed("dissolve-days") {
				days = a.cfg.Staking.DefaultDissolveDays
			}
			return a.stake(cmd, id, stake, days)
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "Tokens to stake")
	cmd.Flags().Uint32Var(&days, "dissolve-days", 0, "Neuron dissolve delay in days (default from config)")
	return cmd
}

func (a *app) stake(cmd *cobra.Command, id ledger.Principal, stake ledger.Tokens, days uint32) error {
	if stake < a.cfg.Staking.MinStake {
		return fmt.Errorf("stake must be at least %s", a.cfg.Staking.MinStake)
	}
	if days > creation.MaxDissolveDays {
		return creation.ErrDissolveTooLong
	}

	a.mu.Lock()
	known := a.state.Find(id) != nil
	a.mu.Unlock()
	if !known {
		a.logger.Warn("staking into an instance not created from this machine", slog.String("instance", id.String()))
	}

	req := creation.Request{
		SessionID:            uuid.NewString(),
		User:                 a.user,
		TransferFee:          a.cfg.Ledger.TransferFee,
		Stake:                stake,
		DissolveDelaySeconds: uint64(days) * 24 * 60 * 60,
	}

	if flagDryRun {
		fmt.Fprintln(a.out, "=== DRY RUN ===")
	}
	log := flow.NewLog(nil)
	log.SetObserver(a.progressPrinter())
	creator := a.creator()
	creator.SetPreStepCallback(a.explainer())

	out := creator.RetryStake(cmd.Context(), id, req, log)
	if out.Status != creation.OutcomeComplete {
		a.mu.Lock()
		if inst := a.state.Find(id); inst != nil {
			inst.StakeFailed = true
		}
		a.mu.Unlock()
		return fmt.Errorf("staking failed: %w", out.Err)
	}
	if out.Neuron != nil {
		a.mu.Lock()
		a.state.AddNeuron(id, uint64(*out.Neuron))
		a.mu.Unlock()
		fmt.Fprintf(a.out, "\nNeuron %d now belongs to %s\n", *out.Neuron, id)
	}
	return nil
}
