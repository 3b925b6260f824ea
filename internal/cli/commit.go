package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"stagegate/internal/git"
)

func newCommitCommand(app *App) *cobra.Command {
	var push bool

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Commit all changes with a standardized requirement message",
		Long: `Stage every change and commit it with a message tied to the active
requirement, e.g.

  feat(req-3): implementation submission for requirement 3

With --push the current branch is pushed to the configured remote after
committing. A clean working tree produces no commit and is not an error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			doc, err := app.loadState()
			if err != nil {
				return err
			}
			id, err := doc.RequirementPointer()
			if err != nil {
				return err
			}
			repo, err := app.newRepo(ctx)
			if err != nil {
				return err
			}

			message := fmt.Sprintf("feat(req-%d): implementation submission for requirement %d", id, id)
			sha, err := repo.CommitAll(ctx, message)
			switch {
			case errors.Is(err, git.ErrNothingToCommit):
				fmt.Fprintln(app.out, "Working tree is clean; no commit created.")
			case err != nil:
				return err
			default:
				fmt.Fprintf(app.out, "Committed %s: %s\n", shortSHA(sha), message)
			}

			if push {
				if err := repo.PushCurrent(ctx); err != nil {
					return err
				}
				fmt.Fprintln(app.out, "Pushed current branch.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&push, "push", false, "push the current branch after committing")
	return cmd
}
