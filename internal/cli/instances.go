package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/druarnfield/stakehut/internal/creation"
	"github.com/druarnfield/stakehut/internal/tui/components"
)

func newInstancesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "instances",
		Short: "List manager instances created from this machine",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := openApp(cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := a.close(); err == nil {
					err = closeErr
				}
			}()
			a.printInstances()
			return nil
		},
	}
}

func (a *app) printInstances() {
	a.mu.Lock()
	insts := a.state.InstancesOf(a.user)
	a.mu.Unlock()

	if len(insts) == 0 {
		fmt.Fprintln(a.out, "No manager instances yet. Run 'stakehut create' to make one.")
		return
	}

	rows := make([][]string, 0, len(insts))
	for _, inst := range insts {
		neurons := make([]string, len(inst.Neurons))
		for i, n := range inst.Neurons {
			neurons[i] = strconv.FormatUint(n, 10)
		}
		var notes []string
		if inst.TopUpFailed {
			notes = append(notes, "top-up failed")
		}
		if inst.StakeFailed {
			notes = append(notes, "stake failed")
		}
		rows = append(rows, []string{
			inst.ID.String(),
			inst.CreatedAt.Local().Format("2006-01-02 15:04"),
			creation.FormatCycles(a.net.Cycles(inst.ID)),
			strings.Join(neurons, ", "),
			strings.Join(notes, ", "),
		})
	}
	fmt.Fprintln(a.out, components.RenderTable(a.styles,
		[]string{"Instance", "Created", "Cycles", "Neurons", "Notes"}, rows))
}
