package tracker

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApprovalLog_AppendCreatesParentAndLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "approvals.log")
	log := NewApprovalLog(path)

	at := time.Date(2026, 8, 29, 15, 4, 5, 0, time.UTC)
	require.NoError(t, log.Append(3, at))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Requirement 3 approved at 2026-08-29 15:04:05 UTC\n", string(data))
}

func TestApprovalLog_AppendIsAppendOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "approvals.log")
	log := NewApprovalLog(path)

	at := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	require.NoError(t, log.Append(1, at))
	require.NoError(t, log.Append(2, at.Add(time.Hour)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"Requirement 1 approved at 2026-08-29 12:00:00 UTC\n"+
			"Requirement 2 approved at 2026-08-29 13:00:00 UTC\n",
		string(data))
}

func TestApprovalLog_TimestampNormalizedToUTC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "approvals.log")
	log := NewApprovalLog(path)

	loc := time.FixedZone("UTC+2", 2*60*60)
	require.NoError(t, log.Append(1, time.Date(2026, 8, 29, 14, 0, 0, 0, loc)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "12:00:00 UTC")
}

const sampleChecklist = `# Project Requirements

- [x] ID 1: Bootstrap the project.
- [ ] ID 2: Implement the parser.
- [ ] ID 12: Implement the serializer.
- [ ] ID 2: Duplicate entry, must stay untouched.
`

func writeChecklist(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "PROJECT_REQUIREMENTS.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestChecklist_MarkDone_FlipsFirstUncheckedMatch(t *testing.T) {
	path := writeChecklist(t, sampleChecklist)

	marked, err := NewChecklist(path).MarkDone(2)
	require.NoError(t, err)
	assert.True(t, marked)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "- [x] ID 2: Implement the parser.")
	assert.Contains(t, string(data), "- [ ] ID 2: Duplicate entry, must stay untouched.")
}

func TestChecklist_MarkDone_WordBoundary(t *testing.T) {
	path := writeChecklist(t, sampleChecklist)

	marked, err := NewChecklist(path).MarkDone(1)
	require.NoError(t, err)
	assert.False(t, marked, "ID 1 is already checked; ID 12 must not match")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleChecklist, string(data))
}

func TestChecklist_MarkDone_NoMatchLeavesDocumentUnchanged(t *testing.T) {
	path := writeChecklist(t, sampleChecklist)

	marked, err := NewChecklist(path).MarkDone(99)
	require.NoError(t, err)
	assert.False(t, marked)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleChecklist, string(data))
}

func TestChecklist_MarkDone_MissingDocumentIsNotFatal(t *testing.T) {
	marked, err := NewChecklist(filepath.Join(t.TempDir(), "absent.md")).MarkDone(1)
	require.NoError(t, err)
	assert.False(t, marked)
}
