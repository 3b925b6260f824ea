package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReviewCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "review",
		Short: "Show the diff since the last approved commit",
		Long: `Print the diff between the last approved commit (LastCommitSHA in the
workflow state) and HEAD. When no commit has been approved yet, the diff
starts from the repository's first commit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			doc, err := app.loadState()
			if err != nil {
				return err
			}
			repo, err := app.newRepo(ctx)
			if err != nil {
				return err
			}

			from := doc.LastCommitSHA()
			if from == "" {
				from, err = repo.FirstCommit(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(app.out, "No approved commit recorded; showing diff from the first commit.")
			}

			head, err := repo.Head(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(app.out, "Comparing %s..%s\n", shortSHA(from), shortSHA(head))
			diff, err := repo.Diff(ctx, from, head)
			if err != nil {
				return err
			}
			fmt.Fprintln(app.out, diff)
			return nil
		},
	}
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
