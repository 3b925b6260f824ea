package cli

import (
	"errors"
	"fmt"

	"stagegate/internal/rules"
	"stagegate/internal/state"
)

// Exit codes. Admission failures and general errors exit 1; a missing
// state document is a configuration error and exits 2.
const (
	exitOK        = 0
	exitFailure   = 1
	exitConfigErr = 2
)

// exitCodeFor maps an error to the process exit code.
func exitCodeFor(err error) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, state.ErrStateFileMissing) {
		return exitConfigErr
	}
	return exitFailure
}

// printError writes a diagnostic with remediation guidance to the error
// stream. Captured test output is surfaced in full so the operator sees
// why verification failed.
func (a *App) printError(err error) {
	fmt.Fprintf(a.errOut, "Error: %v\n", err)

	var testErr *rules.TestFailureError
	if errors.As(err, &testErr) && testErr.Output != "" {
		fmt.Fprintf(a.errOut, "\n%s\n", testErr.Output)
	}

	if hint := remediation(err); hint != "" {
		fmt.Fprintf(a.errOut, "\n%s\n", hint)
	}
}

// remediation returns an actionable hint for known failure classes.
func remediation(err error) string {
	switch {
	case errors.Is(err, state.ErrStateFileMissing):
		return "Run 'stagegate init' to scaffold the workflow documents."
	case errors.Is(err, rules.ErrDirtyWorkingTree):
		return "Commit or stash your changes, then re-run 'stagegate approve'."
	case errors.Is(err, rules.ErrDeliverableMissing):
		return "Add at least one deliverable file to the listed directory, then re-run 'stagegate approve'."
	case errors.Is(err, rules.ErrInsufficientChange):
		return "Commit a substantive change; trivial or empty commits do not satisfy the Implementation stage."
	case errors.Is(err, rules.ErrTestFailure):
		return "Fix the failing tests (or raise coverage above the floor), then re-run 'stagegate approve'."
	case errors.Is(err, rules.ErrUntaggedRelease):
		return "Tag the release commit (e.g. git tag -a v1.0 -m \"Release 1.0\") and push the tag, then re-run 'stagegate approve'."
	}
	return ""
}
