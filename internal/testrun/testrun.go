// Package testrun executes the project test suite for verification gating.
//
// The runner shells out to a configured test command (by default the Go
// toolchain with coverage enabled), captures its combined output, and
// extracts per-package coverage percentages. The workflow engine treats
// any non-zero exit as failure regardless of output content; coverage is
// compared against a configured floor on top of that.
//
// Key types:
//   - [Runner]: executes the configured command and interprets its output
//   - [Result]: exit status, captured output, and the observed coverage
//
// For testing, inject a fake [Executor] via [Runner.SetExecutor] to avoid
// spawning real processes.
package testrun

import (
	"context"
	"errors"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// Executor spawns the test command and reports its outcome.
//
// Run returns the combined stdout/stderr output and the process exit code.
// A non-nil error means the command could not be started at all; a failing
// test run is reported through exitCode, not err.
type Executor interface {
	Run(ctx context.Context, dir string, argv []string) (output string, exitCode int, err error)
}

// execExecutor is the production [Executor] backed by os/exec.
type execExecutor struct{}

func (execExecutor) Run(ctx context.Context, dir string, argv []string) (string, int, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir

	out, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(out), exitErr.ExitCode(), nil
		}
		return string(out), -1, err
	}
	return string(out), 0, nil
}

// Result is the outcome of one test suite execution.
type Result struct {
	// ExitCode is the test command's exit status. Zero means the suite
	// passed.
	ExitCode int

	// Output is the combined stdout/stderr, surfaced to the operator when
	// verification fails.
	Output string

	// Coverage is the lowest per-package coverage percentage observed in
	// the output. Only meaningful when CoverageKnown is true.
	Coverage float64

	// CoverageKnown reports whether any coverage figure was found in the
	// output. Commands run without coverage instrumentation leave it false.
	CoverageKnown bool
}

// Passed reports whether the suite exited cleanly.
func (r *Result) Passed() bool {
	return r.ExitCode == 0
}

// coveragePattern matches the Go toolchain's per-package coverage summary,
// e.g. "coverage: 57.8% of statements".
var coveragePattern = regexp.MustCompile(`coverage:\s+(\d+(?:\.\d+)?)%`)

// Runner executes the configured test command.
type Runner struct {
	command  []string
	dir      string
	executor Executor
}

// NewRunner creates a Runner for the given command argv, executed in dir.
// An empty dir runs the command in the process working directory.
func NewRunner(command []string, dir string) *Runner {
	return &Runner{
		command:  command,
		dir:      dir,
		executor: execExecutor{},
	}
}

// SetExecutor replaces the process executor, primarily for testing.
func (r *Runner) SetExecutor(e Executor) {
	r.executor = e
}

// Run executes the test command and returns its interpreted result.
//
// The returned error is reserved for spawn failures (command not found,
// context cancelled); test failures appear in [Result.ExitCode].
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if len(r.command) == 0 {
		return nil, errors.New("no test command configured")
	}

	output, exitCode, err := r.executor.Run(ctx, r.dir, r.command)
	if err != nil {
		return nil, err
	}

	result := &Result{
		ExitCode: exitCode,
		Output:   strings.TrimSpace(output),
	}
	result.Coverage, result.CoverageKnown = minCoverage(output)
	return result, nil
}

// minCoverage extracts the lowest coverage percentage in the output.
// The floor must hold for every package, so the minimum is the figure the
// verification rule compares.
func minCoverage(output string) (float64, bool) {
	matches := coveragePattern.FindAllStringSubmatch(output, -1)
	if len(matches) == 0 {
		return 0, false
	}

	min := -1.0
	for _, m := range matches {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		if min < 0 || v < min {
			min = v
		}
	}
	if min < 0 {
		return 0, false
	}
	return min, true
}
