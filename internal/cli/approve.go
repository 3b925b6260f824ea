package cli

import (
	"github.com/spf13/cobra"
)

func newApproveCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "approve",
		Short: "Approve the current stage and advance the workflow",
		Long: `Validate the current stage's exit criteria and, on success, advance to
the next stage:

  1. The working tree must be clean.
  2. The stage deliverable directory must be non-empty.
  3. Stage-specific evidence is checked (code changes, tests, release tag).
  4. Approving Release completes the requirement cycle and wraps back to
     Specification for the next requirement.

Any validation failure leaves the workflow state untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, err := app.newWorkflow(cmd.Context())
			if err != nil {
				return err
			}
			return wf.Approve(cmd.Context())
		},
	}
}
