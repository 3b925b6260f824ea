package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"stagegate/internal/git"
	"stagegate/internal/stage"
	"stagegate/internal/state"
)

// initialStateDocument is the state document scaffolded by init.
var initialStateDocument = `# Workflow Master

Lines of the form ` + "`Key: Value`" + ` below are managed by stagegate.
Everything else in this document is yours to edit.

- ` + state.KeyCurrentStage + `: ` + string(stage.Specification) + `
- ` + state.KeyRequirementPointer + `: 1
`

// initialRequirementsDocument is the checklist scaffolded by init.
const initialRequirementsDocument = `# Project Requirements

State each requirement on its own line with an ID and a checkbox; stagegate
checks entries off as their cycles complete.

- [ ] ID 1: Describe the first requirement.
`

func newInitCommand(app *App) *cobra.Command {
	var noGit bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold the workflow documents and deliverable directories",
		Long: `Create the workflow state document, the requirements checklist, and the
per-stage deliverable directories. An existing document is never
overwritten, so init is safe to re-run. Unless --no-git is given, a git
repository with an initial commit is created when none exists.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := scaffoldFile(app, app.cfg.Documents.State, initialStateDocument); err != nil {
				return err
			}
			if err := scaffoldFile(app, app.cfg.Documents.Requirements, initialRequirementsDocument); err != nil {
				return err
			}

			for _, s := range stage.All() {
				dir := app.cfg.DeliverableDir(s)
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("create deliverable directory %s: %w", dir, err)
				}
			}
			fmt.Fprintln(app.out, "Deliverable directories ready.")

			if !noGit {
				if err := git.Init(cmd.Context(), ".", nil); err != nil {
					return err
				}
				fmt.Fprintln(app.out, "Git repository ready.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noGit, "no-git", false, "skip git repository initialization")
	return cmd
}

// scaffoldFile writes content to path unless the file already exists.
func scaffoldFile(app *App, path, content string) error {
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(app.out, "%s already exists; leaving it untouched.\n", path)
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(app.out, "Created %s.\n", path)
	return nil
}
