// Package cli provides the stagegate command-line interface.
//
// The command tree is built with Cobra against an [App] that carries the
// loaded configuration and lazy collaborator factories. Commands return
// errors instead of exiting; [App.Run] is the single boundary that maps
// errors to exit codes and prints diagnostics to the error stream.
//
// Key types:
//   - [App] wires configuration and collaborators into the commands
//   - [Workflow] and [Repo] are the injected collaborator surfaces
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"stagegate/internal/config"
	"stagegate/internal/engine"
	"stagegate/internal/git"
	"stagegate/internal/state"
	"stagegate/internal/testrun"
)

// Workflow is the transition-engine surface the commands consume.
// *engine.Engine implements it.
type Workflow interface {
	Approve(ctx context.Context) error
	Status(ctx context.Context) (*engine.Report, error)
}

// Repo is the slice of the git collaborator used directly by commands
// (review, commit). *git.Repository implements it.
type Repo interface {
	Head(ctx context.Context) (string, error)
	FirstCommit(ctx context.Context) (string, error)
	Diff(ctx context.Context, from, to string) (string, error)
	CommitAll(ctx context.Context, message string) (string, error)
	PushCurrent(ctx context.Context) error
}

// App carries configuration and collaborator factories for the commands.
//
// Collaborators are constructed lazily per invocation: the state document
// is loaded once when the first command needs it, matching the
// one-command-per-process execution model. Tests replace the factories
// with mocks.
type App struct {
	cfg    *config.Config
	out    io.Writer
	errOut io.Writer

	newWorkflow func(ctx context.Context) (Workflow, error)
	newRepo     func(ctx context.Context) (Repo, error)
	loadState   func() (*state.Document, error)
}

// NewApp creates an App with production collaborators.
func NewApp(cfg *config.Config) *App {
	app := &App{
		cfg:    cfg,
		out:    os.Stdout,
		errOut: os.Stderr,
	}
	app.loadState = func() (*state.Document, error) {
		return state.Load(cfg.Documents.State)
	}
	app.newRepo = func(ctx context.Context) (Repo, error) {
		return git.Open(ctx, ".", git.WithRemote(cfg.Git.Remote))
	}
	app.newWorkflow = func(ctx context.Context) (Workflow, error) {
		doc, err := app.loadState()
		if err != nil {
			return nil, err
		}
		repo, err := git.Open(ctx, ".", git.WithRemote(cfg.Git.Remote))
		if err != nil {
			return nil, err
		}
		tests := testrun.NewRunner(cfg.Tests.Command, cfg.Tests.Dir)
		eng := engine.New(doc, repo, tests, cfg)
		eng.SetOutput(app.out)
		return eng, nil
	}
	return app
}

// SetOutput redirects command output, primarily for testing.
func (a *App) SetOutput(out, errOut io.Writer) {
	a.out = out
	a.errOut = errOut
}

// newRootCommand builds the cobra command tree.
func (a *App) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "stagegate",
		Short: "Stage-gated development workflow controller",
		Long: `stagegate tracks each requirement through a fixed five-stage workflow:
Specification -> Research -> Implementation -> Verification -> Release.

Every stage transition is gated on externally observable evidence:
deliverable files, committed code changes, passing tests, release tags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	root.AddCommand(newStatusCommand(a))
	root.AddCommand(newApproveCommand(a))
	root.AddCommand(newReviewCommand(a))
	root.AddCommand(newCommitCommand(a))
	root.AddCommand(newInitCommand(a))
	return root
}

// Run executes the command line and returns the process exit code.
// It is the only place errors become exit codes and diagnostics.
func (a *App) Run(ctx context.Context, args []string) int {
	root := a.newRootCommand()
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		a.printError(err)
		return exitCodeFor(err)
	}
	return 0
}

// Execute is the process entry point used by main.
func Execute() {
	cfg, err := config.NewLoader().Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	app := NewApp(cfg)
	os.Exit(app.Run(context.Background(), os.Args[1:]))
}
