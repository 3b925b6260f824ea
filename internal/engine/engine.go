// Package engine drives stage transitions for the workflow controller.
//
// The engine owns the ordering guarantees of an approval: the working tree
// must be clean before anything else runs, the stage admission rule must
// pass before any mutation, the state document is saved before any
// post-transition side effect, and a failure at any point before the save
// leaves the persisted state untouched.
//
// Key types:
//   - [Engine] performs approvals and produces status reports
//   - [Report] is the read-only status snapshot
//
// Collaborators are injected behind the [Git] and [rules.TestRunner]
// interfaces so tests can run the full transition against canned evidence.
package engine

import (
	"context"
	"fmt"
	"io"
	"time"

	"stagegate/internal/config"
	"stagegate/internal/git"
	"stagegate/internal/rules"
	"stagegate/internal/stage"
	"stagegate/internal/state"
	"stagegate/internal/tracker"
)

// Git is the version-control surface the engine consumes. It is a superset
// of [rules.Git]; *git.Repository implements it.
type Git interface {
	IsClean(ctx context.Context) (bool, error)
	StatusShort(ctx context.Context) (string, error)
	Head(ctx context.Context) (string, error)
	FirstCommit(ctx context.Context) (string, error)
	ChangeStats(ctx context.Context, from, to string) (git.ChangeStats, error)
	RemoteTags(ctx context.Context) (map[string]string, error)
	TagsAt(ctx context.Context, sha string) ([]string, error)
}

// Engine advances the workflow one approved stage at a time.
type Engine struct {
	state *state.Document
	git   Git
	tests rules.TestRunner
	cfg   *config.Config

	approvals *tracker.ApprovalLog
	checklist *tracker.Checklist

	out io.Writer
	now func() time.Time
}

// New creates an Engine over the loaded state document and collaborators.
func New(doc *state.Document, g Git, tests rules.TestRunner, cfg *config.Config) *Engine {
	return &Engine{
		state:     doc,
		git:       g,
		tests:     tests,
		cfg:       cfg,
		approvals: tracker.NewApprovalLog(cfg.Documents.ApprovalLog),
		checklist: tracker.NewChecklist(cfg.Documents.Requirements),
		out:       io.Discard,
		now:       time.Now,
	}
}

// SetOutput directs informational progress lines to w. The default
// discards them; the CLI passes stdout.
func (e *Engine) SetOutput(w io.Writer) {
	e.out = w
}

// SetClock replaces the time source, primarily for testing.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Approve validates the current stage and, on success, advances to its
// successor.
//
// Order of operations: clean-tree precondition, stage admission rule,
// requirement-cycle completion (terminal stage only), stage transition,
// save, post-transition side effects. Any failure before the save returns
// with the persisted state document unchanged.
func (e *Engine) Approve(ctx context.Context) error {
	current, err := e.state.CurrentStage()
	if err != nil {
		return err
	}

	clean, err := e.git.IsClean(ctx)
	if err != nil {
		return err
	}
	if !clean {
		return fmt.Errorf("%w: commit or stash before approving", rules.ErrDirtyWorkingTree)
	}

	fmt.Fprintf(e.out, "Validating stage: %s\n", current)
	if err := rules.Check(ctx, rules.Inputs{
		Stage:          current,
		DeliverableDir: e.cfg.DeliverableDir(current),
		LastCommitSHA:  e.state.LastCommitSHA(),
		MinChangeLines: e.cfg.Thresholds.MinChangeLines,
		CoverageFloor:  e.cfg.Thresholds.CoverageFloor,
		Git:            e.git,
		Tests:          e.tests,
		Out:            e.out,
	}); err != nil {
		return err
	}

	if current.IsTerminal() {
		if err := e.completeCycle(ctx); err != nil {
			return err
		}
	}

	next := current.Next()
	e.state.SetCurrentStage(next)
	if err := e.state.Save(); err != nil {
		return err
	}

	if err := e.afterTransition(ctx, current); err != nil {
		return err
	}

	fmt.Fprintf(e.out, "Approved. Moved to %s stage.\n", next)
	return nil
}

// afterTransition runs side effects keyed on the stage just left. Leaving
// Implementation records the approved commit so the next Implementation
// cycle diffs against it.
func (e *Engine) afterTransition(ctx context.Context, approved stage.Stage) error {
	if approved != stage.Implementation {
		return nil
	}

	head, err := e.git.Head(ctx)
	if err != nil {
		return err
	}
	e.state.SetLastCommitSHA(head)
	if err := e.state.Save(); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Recorded approved commit %s.\n", head)
	return nil
}

// completeCycle performs the bookkeeping for a finished requirement:
// append to the approval log, check off the requirement in the checklist,
// and advance the pointer. The pointer change rides along with the
// engine's subsequent save.
func (e *Engine) completeCycle(ctx context.Context) error {
	id, err := e.state.RequirementPointer()
	if err != nil {
		return err
	}

	if err := e.approvals.Append(id, e.now()); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Logged approval for requirement %d.\n", id)

	marked, err := e.checklist.MarkDone(id)
	if err != nil {
		return err
	}
	if marked {
		fmt.Fprintf(e.out, "Checked off requirement %d in %s.\n", id, e.cfg.Documents.Requirements)
	}

	e.state.SetRequirementPointer(id + 1)
	fmt.Fprintf(e.out, "Advanced to requirement %d.\n", id+1)
	return nil
}

// Report is a read-only snapshot of workflow position.
type Report struct {
	Stage          stage.Stage
	Requirement    int
	LastCommitSHA  string
	NextAction     string
	PendingChanges string // short git status, empty when the tree is clean
}

// Status builds a [Report] without mutating any state.
func (e *Engine) Status(ctx context.Context) (*Report, error) {
	current, err := e.state.CurrentStage()
	if err != nil {
		return nil, err
	}
	pointer, err := e.state.RequirementPointer()
	if err != nil {
		return nil, err
	}
	pending, err := e.git.StatusShort(ctx)
	if err != nil {
		return nil, err
	}

	return &Report{
		Stage:          current,
		Requirement:    pointer,
		LastCommitSHA:  e.state.LastCommitSHA(),
		NextAction:     current.Guidance(),
		PendingChanges: pending,
	}, nil
}
