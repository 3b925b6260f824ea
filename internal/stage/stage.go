// Package stage defines the fixed five-stage requirement workflow.
//
// Every requirement moves through the same ordered sequence:
// Specification -> Research -> Implementation -> Verification -> Release.
// Approving the Release stage wraps the workflow back to Specification for
// the next requirement. The ordering is fixed at compile time; there is no
// runtime stage configuration.
//
// Key types:
//   - [Stage] is the enumerated stage value stored in the workflow state
//
// Use [Parse] to convert persisted strings into a [Stage] and [Stage.Next]
// to compute the successor in the cycle.
package stage

import (
	"errors"
	"fmt"
)

// Stage is one phase of the fixed requirement workflow.
type Stage string

// The five workflow stages, in execution order.
const (
	Specification  Stage = "Specification"
	Research       Stage = "Research"
	Implementation Stage = "Implementation"
	Verification   Stage = "Verification"
	Release        Stage = "Release"
)

// ErrUnknownStage is a sentinel error indicating a stage name that is not
// part of the fixed workflow. It usually points at a hand-edited state
// document with a typo in the CurrentStage line.
var ErrUnknownStage = errors.New("unknown stage")

// order is the canonical stage sequence. Release wraps to Specification.
var order = []Stage{Specification, Research, Implementation, Verification, Release}

// All returns the stages in execution order. The returned slice is a copy
// and may be modified by the caller.
func All() []Stage {
	out := make([]Stage, len(order))
	copy(out, order)
	return out
}

// First returns the initial stage of every requirement cycle.
func First() Stage {
	return order[0]
}

// Parse converts a stage name into a [Stage].
//
// Returns [ErrUnknownStage] (wrapped with the offending name) if the string
// does not match any of the five fixed stages. Matching is exact; persisted
// stage names are written by this tool and are never case-folded.
func Parse(s string) (Stage, error) {
	for _, st := range order {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStage, s)
}

// Valid reports whether s is one of the five fixed stages.
func (s Stage) Valid() bool {
	_, err := Parse(string(s))
	return err == nil
}

// IsTerminal reports whether s is the last stage of the cycle.
// Approving the terminal stage completes the active requirement.
func (s Stage) IsTerminal() bool {
	return s == Release
}

// Next returns the successor stage in the fixed cycle.
//
// For every non-terminal stage this is the next entry in order; for
// [Release] it wraps to [Specification]. Next on an invalid stage returns
// [Specification] so callers that already validated via [Parse] never see
// an out-of-cycle value.
func (s Stage) Next() Stage {
	for i, st := range order {
		if st == s {
			return order[(i+1)%len(order)]
		}
	}
	return order[0]
}

// Guidance returns a short recommended next action for the operator while
// s is the current stage. It is shown by the status command.
func (s Stage) Guidance() string {
	switch s {
	case Specification:
		return "Write the requirement specification and place it in the specification deliverable directory."
	case Research:
		return "Record research findings in the research deliverable directory."
	case Implementation:
		return "Implement the requirement, commit your work, and produce an implementation deliverable."
	case Verification:
		return "Add tests and a verification deliverable; the test suite must pass before approval."
	case Release:
		return "Tag the release commit (and push the tag) and add a release deliverable."
	}
	return "Unknown stage; fix the CurrentStage line in the workflow state document."
}

func (s Stage) String() string {
	return string(s)
}
