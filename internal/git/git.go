// Package git wraps the git CLI for the workflow controller.
//
// The controller consumes a narrow slice of git: working-tree cleanliness,
// commit identity, change statistics between commits, tag lookups (remote
// and local), and commit/push helpers. Everything runs through a
// [CommandRunner] so tests can substitute canned command output.
//
// Key types:
//   - [Repository]: handle for one local repository
//   - [ChangeStats]: parsed `git diff --shortstat` numbers
//
// Remote queries distinguish "remote unreachable" ([ErrRemoteUnavailable])
// from "query succeeded, found nothing" so release validation can apply its
// local-tag fallback only in the former case.
package git

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Repository manages git operations for a single working copy.
type Repository struct {
	workDir string
	remote  string
	runner  CommandRunner
}

// Option configures a Repository.
type Option func(*Repository)

// WithRunner sets a custom command runner, primarily for testing.
func WithRunner(r CommandRunner) Option {
	return func(repo *Repository) {
		repo.runner = r
	}
}

// WithRemote sets the remote name used for tag queries and pushes.
// Default is "origin".
func WithRemote(name string) Option {
	return func(repo *Repository) {
		repo.remote = name
	}
}

// Open creates a Repository for the working copy at path.
// It verifies the path is inside a git repository and returns
// [ErrNotGitRepo] otherwise.
func Open(ctx context.Context, path string, opts ...Option) (*Repository, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}

	repo := &Repository{
		workDir: absPath,
		remote:  "origin",
		runner:  NewExecRunner(),
	}
	for _, opt := range opts {
		opt(repo)
	}

	if _, err := repo.run(ctx, "rev-parse", "--git-dir"); err != nil {
		return nil, ErrNotGitRepo
	}
	return repo, nil
}

// Init creates a git repository at dir with an initial empty commit when
// none exists yet. Running it inside an existing repository is a no-op.
func Init(ctx context.Context, dir string, runner CommandRunner) error {
	if runner == nil {
		runner = NewExecRunner()
	}
	if _, err := runner.Run(ctx, dir, "git", "rev-parse", "--git-dir"); err == nil {
		return nil
	}
	if _, err := runner.Run(ctx, dir, "git", "init"); err != nil {
		return fmt.Errorf("init repository: %w", err)
	}
	if _, err := runner.Run(ctx, dir, "git", "commit", "--allow-empty", "-m", "Initial commit: project setup"); err != nil {
		return fmt.Errorf("create initial commit: %w", err)
	}
	return nil
}

// WorkDir returns the working copy path.
func (r *Repository) WorkDir() string {
	return r.workDir
}

// Remote returns the configured remote name.
func (r *Repository) Remote() string {
	return r.remote
}

// IsClean reports whether the working tree has no uncommitted changes.
func (r *Repository) IsClean(ctx context.Context) (bool, error) {
	out, err := r.run(ctx, "status", "--porcelain")
	if err != nil {
		return false, &Error{Op: "status", Err: err}
	}
	return out == "", nil
}

// StatusShort returns the working tree status in short format.
func (r *Repository) StatusShort(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "status", "--short")
	if err != nil {
		return "", &Error{Op: "status", Err: err}
	}
	return out, nil
}

// Head returns the current HEAD commit SHA.
func (r *Repository) Head(ctx context.Context) (string, error) {
	sha, err := r.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", &Error{Op: "get HEAD commit", Err: err}
	}
	return sha, nil
}

// FirstCommit returns the SHA of the root commit on the current history.
func (r *Repository) FirstCommit(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "rev-list", "--max-parents=0", "HEAD")
	if err != nil {
		return "", &Error{Op: "get first commit", Err: err}
	}
	// A history with multiple roots lists one per line; the last is the
	// oldest reachable root.
	lines := strings.Split(out, "\n")
	return strings.TrimSpace(lines[len(lines)-1]), nil
}

// CurrentBranch returns the current branch name.
func (r *Repository) CurrentBranch(ctx context.Context) (string, error) {
	branch, err := r.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", &Error{Op: "get current branch", Err: err}
	}
	return branch, nil
}

// Diff returns the textual diff between two commits.
func (r *Repository) Diff(ctx context.Context, from, to string) (string, error) {
	diff, err := r.run(ctx, "diff", from, to)
	if err != nil {
		return "", &Error{Op: "diff", Err: err}
	}
	return diff, nil
}

// ChangeStats returns the change statistics between two commits.
// Identical commits yield zero stats without invoking git diff.
func (r *Repository) ChangeStats(ctx context.Context, from, to string) (ChangeStats, error) {
	if from == to {
		return ChangeStats{}, nil
	}
	out, err := r.run(ctx, "diff", "--shortstat", from, to)
	if err != nil {
		return ChangeStats{}, &Error{Op: "diff --shortstat", Err: err}
	}
	return parseShortStat(out), nil
}

// RemoteTags returns the remote's tag-to-commit mapping.
//
// Annotated tags appear in ls-remote output twice: once pointing at the
// tag object and once (the "^{}" peeled entry) pointing at the commit.
// The peeled entry wins so the returned map always maps a tag name to the
// commit it ultimately references.
//
// Returns [ErrRemoteUnavailable] when the remote query itself fails. An
// empty map with a nil error means the remote answered and has no tags.
func (r *Repository) RemoteTags(ctx context.Context) (map[string]string, error) {
	out, err := r.run(ctx, "ls-remote", "--tags", r.remote)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRemoteUnavailable, r.remote)
	}
	return parseRemoteTags(out), nil
}

// TagsAt returns the local tags pointing at the given commit.
func (r *Repository) TagsAt(ctx context.Context, sha string) ([]string, error) {
	out, err := r.run(ctx, "tag", "--points-at", sha)
	if err != nil {
		return nil, &Error{Op: "list tags", Err: err}
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// StageAll stages all changes (git add -A).
func (r *Repository) StageAll(ctx context.Context) error {
	if _, err := r.run(ctx, "add", "-A"); err != nil {
		return &Error{Op: "stage all", Err: err}
	}
	return nil
}

// Commit creates a commit with the given message.
// Returns [ErrNothingToCommit] when there are no staged changes.
func (r *Repository) Commit(ctx context.Context, message string) error {
	out, err := r.run(ctx, "commit", "-m", message)
	if err != nil {
		if strings.Contains(out, "nothing to commit") ||
			strings.Contains(err.Error(), "nothing to commit") {
			return ErrNothingToCommit
		}
		return &Error{Op: "commit", Output: out, Err: err}
	}
	return nil
}

// CommitAll stages everything and commits with the given message.
// Returns the new HEAD SHA, or [ErrNothingToCommit] when the working tree
// had no changes.
func (r *Repository) CommitAll(ctx context.Context, message string) (string, error) {
	if err := r.StageAll(ctx); err != nil {
		return "", err
	}
	if err := r.Commit(ctx, message); err != nil {
		return "", err
	}
	return r.Head(ctx)
}

// PushCurrent pushes the current branch to the configured remote.
func (r *Repository) PushCurrent(ctx context.Context) error {
	branch, err := r.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	if _, err := r.run(ctx, "push", r.remote, branch); err != nil {
		return &Error{Op: "push", Err: err}
	}
	return nil
}

// run executes a git command in the working copy and returns stdout.
func (r *Repository) run(ctx context.Context, args ...string) (string, error) {
	return r.runner.Run(ctx, r.workDir, "git", args...)
}

// ChangeStats holds the numbers from `git diff --shortstat`.
type ChangeStats struct {
	FilesChanged int
	Insertions   int
	Deletions    int
}

// TotalLines returns insertions plus deletions, the quantity gated by the
// implementation-stage minimum-change rule.
func (s ChangeStats) TotalLines() int {
	return s.Insertions + s.Deletions
}

// parseShortStat parses a line like
// " 3 files changed, 12 insertions(+), 4 deletions(-)".
// Absent sections (a pure-deletion diff has no insertions part) are zero.
func parseShortStat(out string) ChangeStats {
	var stats ChangeStats
	for _, part := range strings.Split(strings.TrimSpace(out), ",") {
		fields := strings.Fields(part)
		if len(fields) < 2 {
			continue
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		switch {
		case strings.HasPrefix(fields[1], "file"):
			stats.FilesChanged = n
		case strings.HasPrefix(fields[1], "insertion"):
			stats.Insertions = n
		case strings.HasPrefix(fields[1], "deletion"):
			stats.Deletions = n
		}
	}
	return stats
}

// parseRemoteTags parses `git ls-remote --tags` output into tag -> commit.
func parseRemoteTags(out string) map[string]string {
	tags := make(map[string]string)
	for _, line := range strings.Split(out, "\n") {
		sha, ref, ok := strings.Cut(line, "\t")
		if !ok || !strings.Contains(ref, "refs/tags/") {
			continue
		}
		name := ref[strings.Index(ref, "refs/tags/")+len("refs/tags/"):]
		if peeled, ok := strings.CutSuffix(name, "^{}"); ok {
			// Peeled entry resolves an annotated tag to its commit.
			tags[peeled] = sha
			continue
		}
		if _, seen := tags[name]; !seen {
			tags[name] = sha
		}
	}
	return tags
}
