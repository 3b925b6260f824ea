package git

import "errors"

// Git operation errors.
var (
	// ErrNotGitRepo indicates the path is not a git repository.
	ErrNotGitRepo = errors.New("not a git repository")

	// ErrNothingToCommit indicates there are no changes to commit.
	ErrNothingToCommit = errors.New("nothing to commit")

	// ErrRemoteUnavailable indicates a remote query itself failed (no
	// remote configured, network down). It is distinct from a successful
	// query that found nothing, which is reported as an empty result.
	ErrRemoteUnavailable = errors.New("remote unavailable")
)

// Error wraps a git command failure with context.
type Error struct {
	Op     string // Operation or command that failed
	Output string // Captured stderr output
	Err    error  // Underlying error
}

func (e *Error) Error() string {
	if e.Output != "" {
		return e.Op + ": " + e.Output
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
