package rules

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagegate/internal/git"
	"stagegate/internal/stage"
	"stagegate/internal/testrun"
)

// mockGit serves canned version-control evidence.
type mockGit struct {
	head        string
	firstCommit string
	stats       git.ChangeStats
	remoteTags  map[string]string
	remoteErr   error
	localTags   []string
}

func (m *mockGit) Head(ctx context.Context) (string, error)        { return m.head, nil }
func (m *mockGit) FirstCommit(ctx context.Context) (string, error) { return m.firstCommit, nil }
func (m *mockGit) ChangeStats(ctx context.Context, from, to string) (git.ChangeStats, error) {
	return m.stats, nil
}
func (m *mockGit) RemoteTags(ctx context.Context) (map[string]string, error) {
	return m.remoteTags, m.remoteErr
}
func (m *mockGit) TagsAt(ctx context.Context, sha string) ([]string, error) {
	return m.localTags, nil
}

// mockTests serves a canned test-run result.
type mockTests struct {
	result *testrun.Result
	err    error
}

func (m *mockTests) Run(ctx context.Context) (*testrun.Result, error) { return m.result, m.err }

// populatedDir creates a deliverable directory containing one file.
func populatedDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deliverable.md"), []byte("evidence"), 0644))
	return dir
}

func baseInputs(t *testing.T, s stage.Stage) Inputs {
	t.Helper()
	return Inputs{
		Stage:          s,
		DeliverableDir: populatedDir(t),
		MinChangeLines: 10,
		CoverageFloor:  1.0,
	}
}

func TestDeliverableGate(t *testing.T) {
	tests := []struct {
		name    string
		dir     func(t *testing.T) string
		wantErr bool
	}{
		{"populated directory", populatedDir, false},
		{"empty directory", func(t *testing.T) string { return t.TempDir() }, true},
		{"missing directory", func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Inputs{Stage: stage.Specification, DeliverableDir: tt.dir(t)}
			err := Check(context.Background(), in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrDeliverableMissing)

				var dmErr *DeliverableMissingError
				require.ErrorAs(t, err, &dmErr)
				assert.Equal(t, stage.Specification, dmErr.Stage)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestForStage_CoversAllStages(t *testing.T) {
	for _, s := range stage.All() {
		assert.NotNil(t, ForStage(s))
	}
}

func TestImplementation_InsufficientChange(t *testing.T) {
	in := baseInputs(t, stage.Implementation)
	in.LastCommitSHA = "aaa"
	in.Git = &mockGit{head: "bbb", stats: git.ChangeStats{Insertions: 5, Deletions: 4}}

	err := Check(context.Background(), in)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientChange)

	var icErr *InsufficientChangeError
	require.ErrorAs(t, err, &icErr)
	assert.Equal(t, 9, icErr.Lines)
	assert.Equal(t, 10, icErr.Min)
}

func TestImplementation_SufficientChange(t *testing.T) {
	in := baseInputs(t, stage.Implementation)
	in.LastCommitSHA = "aaa"
	in.Git = &mockGit{head: "bbb", stats: git.ChangeStats{Insertions: 12}}

	assert.NoError(t, Check(context.Background(), in))
}

func TestImplementation_ExactThresholdAdmits(t *testing.T) {
	in := baseInputs(t, stage.Implementation)
	in.LastCommitSHA = "aaa"
	in.Git = &mockGit{head: "bbb", stats: git.ChangeStats{Insertions: 6, Deletions: 4}}

	assert.NoError(t, Check(context.Background(), in))
}

func TestImplementation_NoRecordedCommitUsesFirstCommit(t *testing.T) {
	var out bytes.Buffer
	in := baseInputs(t, stage.Implementation)
	in.Git = &mockGit{head: "bbb", firstCommit: "root", stats: git.ChangeStats{Insertions: 20}}
	in.Out = &out

	require.NoError(t, Check(context.Background(), in))
	assert.Contains(t, out.String(), "first commit")
}

func TestVerification_PassingRun(t *testing.T) {
	in := baseInputs(t, stage.Verification)
	in.Tests = &mockTests{result: &testrun.Result{Coverage: 42.0, CoverageKnown: true}}

	assert.NoError(t, Check(context.Background(), in))
}

func TestVerification_NonZeroExit(t *testing.T) {
	in := baseInputs(t, stage.Verification)
	in.Tests = &mockTests{result: &testrun.Result{ExitCode: 1, Output: "--- FAIL: TestX"}}

	err := Check(context.Background(), in)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTestFailure)

	var tfErr *TestFailureError
	require.ErrorAs(t, err, &tfErr)
	assert.Contains(t, tfErr.Output, "FAIL", "captured output must reach the operator")
}

func TestVerification_CoverageBelowFloor(t *testing.T) {
	in := baseInputs(t, stage.Verification)
	in.Tests = &mockTests{result: &testrun.Result{Coverage: 0.4, CoverageKnown: true}}

	err := Check(context.Background(), in)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTestFailure)
}

func TestVerification_UnknownCoveragePassesExitGateOnly(t *testing.T) {
	// A runner without coverage instrumentation still gates on exit status.
	in := baseInputs(t, stage.Verification)
	in.Tests = &mockTests{result: &testrun.Result{}}

	assert.NoError(t, Check(context.Background(), in))
}

func TestRelease_RemoteTagMatches(t *testing.T) {
	var out bytes.Buffer
	in := baseInputs(t, stage.Release)
	in.Git = &mockGit{head: "cafe", remoteTags: map[string]string{"v1.2": "cafe", "v1.0": "old"}}
	in.Out = &out

	require.NoError(t, Check(context.Background(), in))
	assert.Contains(t, out.String(), "v1.2")
}

func TestRelease_RemoteReachableButUntagged_NoLocalFallback(t *testing.T) {
	in := baseInputs(t, stage.Release)
	in.Git = &mockGit{
		head:       "cafe",
		remoteTags: map[string]string{"v1.0": "old"},
		localTags:  []string{"v1.2"}, // must be ignored: remote answered
	}

	err := Check(context.Background(), in)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUntaggedRelease)

	var urErr *UntaggedReleaseError
	require.ErrorAs(t, err, &urErr)
	assert.True(t, urErr.RemoteChecked)
}

func TestRelease_RemoteUnavailableFallsBackToLocalTags(t *testing.T) {
	var out bytes.Buffer
	in := baseInputs(t, stage.Release)
	in.Git = &mockGit{
		head:      "cafe",
		remoteErr: git.ErrRemoteUnavailable,
		localTags: []string{"v1.2"},
	}
	in.Out = &out

	require.NoError(t, Check(context.Background(), in))
	assert.Contains(t, out.String(), "tagged locally")
}

func TestRelease_NoTagsAnywhere(t *testing.T) {
	in := baseInputs(t, stage.Release)
	in.Git = &mockGit{head: "cafe", remoteErr: git.ErrRemoteUnavailable}

	err := Check(context.Background(), in)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUntaggedRelease)
}
