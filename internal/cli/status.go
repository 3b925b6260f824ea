package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current workflow position",
		Long: `Show the current stage, active requirement, the last approved commit,
the recommended next action, and a summary of uncommitted changes.
Read-only: status never mutates workflow state.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, err := app.newWorkflow(cmd.Context())
			if err != nil {
				return err
			}
			report, err := wf.Status(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(app.out, renderReport(report))
			return nil
		},
	}
}
