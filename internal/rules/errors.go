package rules

import (
	"errors"
	"fmt"

	"stagegate/internal/stage"
)

// Stage-admission sentinel errors. Typed wrapper errors below unwrap to
// these so callers can classify failures with errors.Is.
var (
	// ErrDirtyWorkingTree indicates uncommitted changes at approval entry.
	ErrDirtyWorkingTree = errors.New("working tree has uncommitted changes")

	// ErrDeliverableMissing indicates the stage deliverable directory is
	// absent or empty.
	ErrDeliverableMissing = errors.New("stage deliverable missing")

	// ErrInsufficientChange indicates the implementation diff is below the
	// minimum line threshold.
	ErrInsufficientChange = errors.New("insufficient code change")

	// ErrTestFailure indicates the verification test run failed or fell
	// below the coverage floor.
	ErrTestFailure = errors.New("test run failed")

	// ErrUntaggedRelease indicates the release commit carries no version tag.
	ErrUntaggedRelease = errors.New("release commit is not tagged")
)

// DeliverableMissingError reports an absent or empty deliverable directory.
type DeliverableMissingError struct {
	Stage stage.Stage
	Dir   string
}

func (e *DeliverableMissingError) Error() string {
	return fmt.Sprintf("no deliverables found in %s for stage %s", e.Dir, e.Stage)
}

func (e *DeliverableMissingError) Unwrap() error {
	return ErrDeliverableMissing
}

// InsufficientChangeError reports an implementation diff below the minimum
// insertion+deletion threshold.
type InsufficientChangeError struct {
	Lines int // observed insertions+deletions
	Min   int // required minimum
	From  string
	To    string
}

func (e *InsufficientChangeError) Error() string {
	return fmt.Sprintf("only %d changed lines between %s and %s, minimum is %d",
		e.Lines, short(e.From), short(e.To), e.Min)
}

func (e *InsufficientChangeError) Unwrap() error {
	return ErrInsufficientChange
}

// TestFailureError reports a failing or under-covered verification run.
type TestFailureError struct {
	ExitCode      int
	Output        string // captured stdout/stderr, surfaced to the operator
	Coverage      float64
	CoverageKnown bool
	Floor         float64
}

func (e *TestFailureError) Error() string {
	if e.ExitCode != 0 {
		return fmt.Sprintf("test run exited with status %d", e.ExitCode)
	}
	if e.CoverageKnown {
		return fmt.Sprintf("coverage %.1f%% is below the %.1f%% floor", e.Coverage, e.Floor)
	}
	return "test run reported no coverage"
}

func (e *TestFailureError) Unwrap() error {
	return ErrTestFailure
}

// UntaggedReleaseError reports a release commit with no version tag.
type UntaggedReleaseError struct {
	SHA string
	// RemoteChecked is true when the remote answered and simply lacked the
	// tag; false when the local fallback found nothing.
	RemoteChecked bool
}

func (e *UntaggedReleaseError) Error() string {
	if e.RemoteChecked {
		return fmt.Sprintf("commit %s has not been tagged and pushed to the remote", short(e.SHA))
	}
	return fmt.Sprintf("commit %s has not been tagged", short(e.SHA))
}

func (e *UntaggedReleaseError) Unwrap() error {
	return ErrUntaggedRelease
}

// short abbreviates a commit hash for messages.
func short(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
