// Package tracker performs the bookkeeping that closes a requirement cycle.
//
// Two documents are involved: an append-only approval log recording one
// line per completed requirement, and the requirements checklist whose
// matching entry has its checkbox flipped from "[ ]" to "[x]". Both are
// plain text files owned by the operator; the tracker only appends to the
// log and rewrites a single marker in the checklist.
package tracker

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// ApprovalLog appends cycle-completion records to a log file.
type ApprovalLog struct {
	path string
}

// NewApprovalLog creates an ApprovalLog writing to path.
func NewApprovalLog(path string) *ApprovalLog {
	return &ApprovalLog{path: path}
}

// Append records the approval of requirement id at the given time.
// The parent directory is created when absent. Timestamps are rendered in
// UTC so log lines are comparable across machines.
func (l *ApprovalLog) Append(id int, at time.Time) error {
	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create approval log directory: %w", err)
		}
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open approval log: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("Requirement %d approved at %s\n",
		id, at.UTC().Format("2006-01-02 15:04:05 UTC"))
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("append approval log: %w", err)
	}
	return nil
}

// Checklist marks requirement entries done in the checklist document.
type Checklist struct {
	path string
}

// NewChecklist creates a Checklist backed by the document at path.
func NewChecklist(path string) *Checklist {
	return &Checklist{path: path}
}

// MarkDone flips the checkbox of the first unchecked line mentioning
// requirement id from "[ ]" to "[x]" and rewrites the document.
//
// A missing checklist document or an id with no unchecked entry is not an
// error: the document is left unchanged and MarkDone reports false. Only
// genuine I/O failures return an error.
func (c *Checklist) MarkDone(id int) (bool, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read checklist: %w", err)
	}

	// Word-boundary match so requirement 1 never claims the "ID 12" line.
	token := regexp.MustCompile(fmt.Sprintf(`\bID %d\b`, id))
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	for i, line := range lines {
		if !token.MatchString(line) || !strings.Contains(line, "[ ]") {
			continue
		}
		lines[i] = strings.Replace(line, "[ ]", "[x]", 1)

		content := strings.Join(lines, "\n") + "\n"
		if err := os.WriteFile(c.path, []byte(content), 0644); err != nil {
			return false, fmt.Errorf("write checklist: %w", err)
		}
		return true, nil
	}
	return false, nil
}
