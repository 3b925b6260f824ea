// Package rules decides whether the current stage may be approved.
//
// Each stage has an admission rule checking the external evidence its exit
// requires: every stage needs a populated deliverable directory, and the
// Implementation, Verification, and Release stages add a minimum-change
// gate, a passing test run with a coverage floor, and a version-tag check
// respectively. Rules only read; passing admission never mutates workflow
// state.
//
// Key types:
//   - [Rule]: admission check for one stage
//   - [Inputs]: the evidence sources and thresholds a rule consults
//
// The rule set is a fixed table keyed by stage ([ForStage]); the transition
// engine never special-cases individual stages itself.
package rules

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"stagegate/internal/git"
	"stagegate/internal/stage"
	"stagegate/internal/testrun"
)

// Git is the read-only slice of the version-control collaborator that
// admission rules consult. *git.Repository implements it.
type Git interface {
	Head(ctx context.Context) (string, error)
	FirstCommit(ctx context.Context) (string, error)
	ChangeStats(ctx context.Context, from, to string) (git.ChangeStats, error)
	RemoteTags(ctx context.Context) (map[string]string, error)
	TagsAt(ctx context.Context, sha string) ([]string, error)
}

// TestRunner executes the project test suite. *testrun.Runner implements it.
type TestRunner interface {
	Run(ctx context.Context) (*testrun.Result, error)
}

// Inputs carries the evidence sources and thresholds for one admission check.
type Inputs struct {
	Stage          stage.Stage
	DeliverableDir string
	LastCommitSHA  string // empty when no Implementation approval recorded yet
	MinChangeLines int
	CoverageFloor  float64
	Git            Git
	Tests          TestRunner

	// Out receives informational progress lines. Nil discards them.
	Out io.Writer
}

func (in Inputs) printf(format string, args ...any) {
	if in.Out != nil {
		fmt.Fprintf(in.Out, format, args...)
	}
}

// Rule is the admission check for a single stage.
type Rule interface {
	// Name identifies the rule in diagnostics.
	Name() string

	// Check returns nil when the stage's exit criteria are satisfied.
	// Failures are one of the package's stage-admission errors.
	Check(ctx context.Context, in Inputs) error
}

// table maps each stage to its admission rule. Stages without extra
// evidence requirements get the bare deliverable gate.
var table = map[stage.Stage]Rule{
	stage.Specification:  deliverableRule{},
	stage.Research:       deliverableRule{},
	stage.Implementation: implementationRule{},
	stage.Verification:   verificationRule{},
	stage.Release:        releaseRule{},
}

// ForStage returns the admission rule for s.
// Every fixed stage has a rule; unknown stages fall back to the bare
// deliverable gate, which fails on the (nonexistent) deliverable directory.
func ForStage(s stage.Stage) Rule {
	if r, ok := table[s]; ok {
		return r
	}
	return deliverableRule{}
}

// Check runs the admission rule for in.Stage.
func Check(ctx context.Context, in Inputs) error {
	return ForStage(in.Stage).Check(ctx, in)
}

// checkDeliverable enforces the generic gate shared by every stage: the
// deliverable directory must exist and contain at least one entry. Content
// is never inspected.
func checkDeliverable(in Inputs) error {
	entries, err := os.ReadDir(in.DeliverableDir)
	if err != nil || len(entries) == 0 {
		return &DeliverableMissingError{Stage: in.Stage, Dir: in.DeliverableDir}
	}
	in.printf("Deliverables found in %s.\n", in.DeliverableDir)
	return nil
}

// deliverableRule admits stages whose only exit criterion is a populated
// deliverable directory (Specification, Research).
type deliverableRule struct{}

func (deliverableRule) Name() string { return "deliverable" }

func (deliverableRule) Check(ctx context.Context, in Inputs) error {
	return checkDeliverable(in)
}

// implementationRule additionally requires a minimum number of changed
// lines between the last approved commit and HEAD, rejecting trivial or
// empty submissions.
type implementationRule struct{}

func (implementationRule) Name() string { return "implementation" }

func (implementationRule) Check(ctx context.Context, in Inputs) error {
	if err := checkDeliverable(in); err != nil {
		return err
	}

	head, err := in.Git.Head(ctx)
	if err != nil {
		return err
	}

	from := in.LastCommitSHA
	if from == "" {
		from, err = in.Git.FirstCommit(ctx)
		if err != nil {
			return err
		}
		in.printf("No previous approved commit recorded; comparing against the first commit.\n")
	}

	stats, err := in.Git.ChangeStats(ctx, from, head)
	if err != nil {
		return err
	}
	if stats.TotalLines() < in.MinChangeLines {
		return &InsufficientChangeError{
			Lines: stats.TotalLines(),
			Min:   in.MinChangeLines,
			From:  from,
			To:    head,
		}
	}

	in.printf("Change check passed: %d lines changed across %d files.\n",
		stats.TotalLines(), stats.FilesChanged)
	return nil
}

// verificationRule runs the test suite and enforces the coverage floor.
type verificationRule struct{}

func (verificationRule) Name() string { return "verification" }

func (verificationRule) Check(ctx context.Context, in Inputs) error {
	if err := checkDeliverable(in); err != nil {
		return err
	}

	in.printf("Running test suite...\n")
	result, err := in.Tests.Run(ctx)
	if err != nil {
		return fmt.Errorf("run tests: %w", err)
	}

	if !result.Passed() {
		return &TestFailureError{
			ExitCode: result.ExitCode,
			Output:   result.Output,
			Floor:    in.CoverageFloor,
		}
	}
	if result.CoverageKnown && result.Coverage < in.CoverageFloor {
		return &TestFailureError{
			Output:        result.Output,
			Coverage:      result.Coverage,
			CoverageKnown: true,
			Floor:         in.CoverageFloor,
		}
	}

	if result.CoverageKnown {
		in.printf("Tests passed with %.1f%% coverage.\n", result.Coverage)
	} else {
		in.printf("Tests passed.\n")
	}
	return nil
}

// releaseRule requires the latest commit to carry a version tag.
//
// Remote tags are authoritative: when the remote answers and the commit is
// not among its tagged commits, admission fails outright. The local tag
// lookup is a fallback only for an unavailable remote, never for an absent
// remote tag.
type releaseRule struct{}

func (releaseRule) Name() string { return "release" }

func (releaseRule) Check(ctx context.Context, in Inputs) error {
	if err := checkDeliverable(in); err != nil {
		return err
	}

	head, err := in.Git.Head(ctx)
	if err != nil {
		return err
	}

	remoteTags, err := in.Git.RemoteTags(ctx)
	if err == nil {
		var matching []string
		for name, sha := range remoteTags {
			if sha == head {
				matching = append(matching, name)
			}
		}
		if len(matching) == 0 {
			return &UntaggedReleaseError{SHA: head, RemoteChecked: true}
		}
		sort.Strings(matching)
		in.printf("Release commit is tagged on the remote with: %s.\n", strings.Join(matching, ", "))
		return nil
	}
	if !errors.Is(err, git.ErrRemoteUnavailable) {
		return err
	}

	in.printf("Remote tags unavailable; falling back to local tag check.\n")
	local, err := in.Git.TagsAt(ctx, head)
	if err != nil {
		return err
	}
	if len(local) == 0 {
		return &UntaggedReleaseError{SHA: head}
	}
	in.printf("Release commit is tagged locally with: %s.\n", strings.Join(local, ", "))
	return nil
}
