package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"stagegate/internal/config"
	"stagegate/internal/engine"
	"stagegate/internal/state"
)

// mockWorkflow implements [Workflow] with canned results.
type mockWorkflow struct {
	approveErr error
	approved   bool

	report    *engine.Report
	statusErr error
}

func (m *mockWorkflow) Approve(ctx context.Context) error {
	m.approved = true
	return m.approveErr
}

func (m *mockWorkflow) Status(ctx context.Context) (*engine.Report, error) {
	return m.report, m.statusErr
}

// mockRepo implements [Repo] with canned results.
type mockRepo struct {
	head        string
	firstCommit string
	diff        string

	commitSHA     string
	commitErr     error
	commitMessage string

	pushed  bool
	pushErr error
}

func (m *mockRepo) Head(ctx context.Context) (string, error)        { return m.head, nil }
func (m *mockRepo) FirstCommit(ctx context.Context) (string, error) { return m.firstCommit, nil }
func (m *mockRepo) Diff(ctx context.Context, from, to string) (string, error) {
	return m.diff, nil
}
func (m *mockRepo) CommitAll(ctx context.Context, message string) (string, error) {
	m.commitMessage = message
	return m.commitSHA, m.commitErr
}
func (m *mockRepo) PushCurrent(ctx context.Context) error {
	m.pushed = true
	return m.pushErr
}

// testApp bundles an [App] wired to mocks with its captured streams.
type testApp struct {
	app    *App
	out    *bytes.Buffer
	errOut *bytes.Buffer
}

func newTestApp(t *testing.T, wf *mockWorkflow, repo *mockRepo) *testApp {
	t.Helper()

	ta := &testApp{
		out:    &bytes.Buffer{},
		errOut: &bytes.Buffer{},
	}
	ta.app = &App{
		cfg:    config.DefaultConfig(),
		out:    ta.out,
		errOut: ta.errOut,
		newWorkflow: func(ctx context.Context) (Workflow, error) {
			return wf, nil
		},
		newRepo: func(ctx context.Context) (Repo, error) {
			return repo, nil
		},
	}
	return ta
}

// useStateFile points the app's state loading at a real document on disk.
func (ta *testApp) useStateFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "WORKFLOW_MASTER.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	ta.app.cfg.Documents.State = path
	ta.app.loadState = func() (*state.Document, error) {
		return state.Load(path)
	}
	return path
}

func (ta *testApp) run(args ...string) int {
	return ta.app.Run(context.Background(), args)
}

// chdir changes the working directory for the duration of the test,
// restoring the original directory on cleanup (testing.T.Chdir
// equivalent for toolchains before Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Errorf("restoring working directory: %v", err)
		}
	})
}
