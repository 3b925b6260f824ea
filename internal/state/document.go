// Package state persists workflow position in a line-oriented document.
//
// The backing document is human-editable markdown-ish text in which some
// lines carry `Key: Value` pairs, optionally bullet-prefixed and optionally
// followed by a `# comment`. Every line that does not match the key/value
// shape is preserved verbatim and re-emitted unchanged on save, so operators
// can keep headings and prose in the same file as the tracked state.
//
// Key types:
//   - [Document] holds the parsed key/value view plus the raw line sequence
//
// A [Document] is loaded once per command invocation, mutated in memory via
// [Document.Set], and persisted with an explicit [Document.Save]. Set alone
// never touches the filesystem.
package state

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"stagegate/internal/stage"
)

// Well-known keys managed by the workflow engine. Any other key found in
// the document is carried opaquely.
const (
	KeyCurrentStage       = "CurrentStage"
	KeyRequirementPointer = "RequirementPointer"
	KeyLastCommitSHA      = "LastCommitSHA"
)

// ErrStateFileMissing indicates the backing state document does not exist.
// The store cannot operate without it, so callers treat this as fatal for
// the invocation.
var ErrStateFileMissing = errors.New("workflow state document not found")

// Document is the persistent workflow state store.
//
// It keeps two views of the backing file: the ordered raw line sequence
// (for faithful re-serialization) and the parsed key/value mapping (for
// lookups). Loading then saving an unmodified document reproduces the file
// byte for byte.
type Document struct {
	path   string
	lines  []string
	values map[string]string
}

// Load reads and parses the state document at path.
//
// Returns [ErrStateFileMissing] (wrapped with the path) when the file does
// not exist. Other read failures are returned as-is.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrStateFileMissing, path)
		}
		return nil, fmt.Errorf("read state document: %w", err)
	}

	d := &Document{
		path:   path,
		lines:  splitLines(string(data)),
		values: make(map[string]string),
	}
	d.parse()
	return d, nil
}

// splitLines splits file content into lines without the trailing newline
// producing a phantom empty line.
func splitLines(content string) []string {
	content = strings.TrimSuffix(content, "\n")
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}

// parse extracts key/value pairs from the raw lines.
//
// A line matches when, after stripping surrounding whitespace and an
// optional leading "-" bullet, it contains a colon. The value is everything
// after the first colon up to an optional "#" comment, trimmed. Later
// occurrences of the same key win, mirroring a last-write-wins read.
func (d *Document) parse() {
	for _, line := range d.lines {
		cleaned := strings.TrimSpace(line)
		if strings.HasPrefix(cleaned, "-") {
			cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, "-"))
		}

		key, rest, ok := strings.Cut(cleaned, ":")
		if !ok {
			continue
		}
		value, _, _ := strings.Cut(rest, "#")
		d.values[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
}

// Path returns the filesystem location of the backing document.
func (d *Document) Path() string {
	return d.path
}

// Get returns the value for key and whether the key is present.
// It is a pure lookup with no side effects.
func (d *Document) Get(key string) (string, bool) {
	v, ok := d.values[key]
	return v, ok
}

// GetDefault returns the value for key, or def when the key is absent.
func (d *Document) GetDefault(key, def string) string {
	if v, ok := d.values[key]; ok {
		return v
	}
	return def
}

// Keys returns every key currently present in the document, in no
// particular order.
func (d *Document) Keys() []string {
	keys := make([]string, 0, len(d.values))
	for k := range d.values {
		keys = append(keys, k)
	}
	return keys
}

// Set updates key to value in memory.
//
// The first line whose stripped content starts with "<key>:" is rewritten
// in place, preserving its trailing "# comment" if present. When no line
// matches, a new "key: value" line is appended. Set never writes to disk;
// call [Document.Save] to persist.
func (d *Document) Set(key, value string) {
	d.values[key] = value

	for i, line := range d.lines {
		stripped := strings.TrimSpace(line)
		stripped = strings.TrimSpace(strings.TrimPrefix(stripped, "-"))
		if !strings.HasPrefix(stripped, key+":") {
			continue
		}

		comment := ""
		if _, after, ok := strings.Cut(line, "#"); ok {
			comment = " #" + strings.TrimSpace(after)
		}
		d.lines[i] = fmt.Sprintf("%s: %s%s", key, value, comment)
		return
	}

	d.lines = append(d.lines, fmt.Sprintf("%s: %s", key, value))
}

// Save rewrites the whole backing document from the line sequence, one
// line per entry with a trailing newline. The write goes through a temp
// file and rename so a crash never leaves a half-written state document.
func (d *Document) Save() error {
	content := strings.Join(d.lines, "\n") + "\n"

	tmpPath := d.path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("write state document: %w", err)
	}
	if err := os.Rename(tmpPath, d.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write state document: %w", err)
	}
	return nil
}

// CurrentStage returns the typed current stage.
//
// A missing CurrentStage key or a name outside the fixed stage set is an
// error ([stage.ErrUnknownStage] for the latter); both indicate a damaged
// state document.
func (d *Document) CurrentStage() (stage.Stage, error) {
	raw, ok := d.values[KeyCurrentStage]
	if !ok {
		return "", fmt.Errorf("state document %s has no %s entry", d.path, KeyCurrentStage)
	}
	return stage.Parse(raw)
}

// SetCurrentStage records s as the current stage.
func (d *Document) SetCurrentStage(s stage.Stage) {
	d.Set(KeyCurrentStage, string(s))
}

// RequirementPointer returns the active requirement identifier.
func (d *Document) RequirementPointer() (int, error) {
	raw, ok := d.values[KeyRequirementPointer]
	if !ok {
		return 0, fmt.Errorf("state document %s has no %s entry", d.path, KeyRequirementPointer)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", KeyRequirementPointer, raw, err)
	}
	return n, nil
}

// SetRequirementPointer records n as the active requirement identifier.
func (d *Document) SetRequirementPointer(n int) {
	d.Set(KeyRequirementPointer, strconv.Itoa(n))
}

// LastCommitSHA returns the hash recorded at the last Implementation-stage
// approval, or the empty string when none has been recorded yet.
func (d *Document) LastCommitSHA() string {
	return d.values[KeyLastCommitSHA]
}

// SetLastCommitSHA records sha as the last-approved commit.
func (d *Document) SetLastCommitSHA(sha string) {
	d.Set(KeyLastCommitSHA, sha)
}
