package git

import (
	"context"
	"os/exec"
	"strings"
)

// CommandRunner executes external commands for the repository wrapper.
//
// Run executes name with args in dir (empty dir means the process working
// directory) and returns trimmed stdout. Implementations must include
// captured stderr in the returned error so callers can surface git's own
// diagnostics. The production implementation is [ExecRunner]; tests inject
// a mock to avoid spawning real processes.
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) (string, error)
}

// ExecRunner runs commands via os/exec.
type ExecRunner struct{}

// NewExecRunner creates the default [CommandRunner].
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes the command and returns its trimmed stdout.
func (r *ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return strings.TrimSpace(stdout.String()), &Error{
			Op:     name + " " + strings.Join(args, " "),
			Output: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}
	return strings.TrimSpace(stdout.String()), nil
}
