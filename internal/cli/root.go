package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var (
	flagExplain bool
	flagQuiet   bool
	flagDryRun  bool
	flagVerbose bool

	appVersion = "dev"
)

func newRootCmd(version string) *cobra.Command {
	appVersion = version

	cmd := &cobra.Command{
		Use:   "stakehut",
		Short: "Create manager instances and browse ledger transactions",
		Long: "stakehut walks you through creating a manager instance (fee, extra gas, optional neuron stake) " +
			"and lists, filters and sorts ledger transactions.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().BoolVar(&flagExplain, "explain", false, "Show explanations for each step")
	cmd.PersistentFlags().BoolVar(&flagQuiet, "quiet", false, "Suppress explanations, show progress only")
	cmd.PersistentFlags().BoolVar(&flagDryRun, "dry-run", false, "Show what would happen without doing it")
	cmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Show detailed log output")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newCreateCmd())
	cmd.AddCommand(newStakeCmd())
	cmd.AddCommand(newTxsCmd())
	cmd.AddCommand(newInstancesCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print stakehut version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "stakehut", appVersion)
		},
	}
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute(version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return newRootCmd(version).ExecuteContext(ctx)
}
