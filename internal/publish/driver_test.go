package publish

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grovetools/runwatch/git"
	"github.com/grovetools/runwatch/internal/manifest"
	"github.com/grovetools/runwatch/internal/render"
	"github.com/grovetools/runwatch/internal/session"
	"github.com/grovetools/runwatch/review"
	"github.com/grovetools/runwatch/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const branch = "run-data/01.15-run_3_09h30-abc123def456"

type fixture struct {
	work   string
	remote string
	watch  string
	gh     *testutil.FakeGH
	mgr    *session.Manager
	driver *Driver
}

func newFixture(t *testing.T, renderer *render.Renderer) *fixture {
	t.Helper()
	work, remote := testutil.InitRepoWithRemote(t)
	gh := testutil.NewFakeGH(t)
	if renderer == nil {
		renderer = render.New("", "")
	}

	f := &fixture{
		work:   work,
		remote: remote,
		watch:  filepath.Join(work, "results"),
		gh:     gh,
		mgr:    session.NewManager("run-data", func() string { return "abc123def456" }),
	}
	f.driver = NewDriver(git.NewClient(work), review.NewClient(gh.Path, work), renderer, Options{
		RepoRoot:   work,
		WatchRoot:  f.watch,
		Remote:     "origin",
		BaseBranch: "main",
		PullBase:   true,
		Labels:     []string{"run-data"},
	})
	return f
}

// write creates files under the watch root and returns their batch paths.
func (f *fixture) write(t *testing.T, files map[string]string) []string {
	t.Helper()
	var paths []string
	for name, content := range files {
		testutil.WriteFile(t, filepath.Join(f.watch, filepath.FromSlash(name)), content)
		paths = append(paths, name)
	}
	return paths
}

func meta(files ...string) *manifest.RunMetadata {
	return &manifest.RunMetadata{
		DateFolder: "01.15",
		RunFolder:  "run_3_09h30",
		Manifest: manifest.Manifest{RunInfo: manifest.RunInfo{
			RunType:         "anneal",
			Date:            "01.15",
			FurnaceSetpoint: "900",
		}},
		ManifestPath: "01.15/run_3_09h30/run_metadata.json",
		TotalFiles:   len(files),
		Files:        files,
	}
}

func (f *fixture) begin(t *testing.T, paths []string) *manifest.RunMetadata {
	t.Helper()
	m := meta(paths...)
	_, err := f.mgr.Begin(paths, m.Label())
	require.NoError(t, err)
	return m
}

func (f *fixture) remoteLog(t *testing.T) []string {
	t.Helper()
	out := testutil.RunGitCommand(t, f.remote, "log", "--format=%s", "main.."+branch)
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

func TestPublishNewSession(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	paths := f.write(t, map[string]string{
		"01.15/run_3_09h30/run_metadata.json": testutil.Manifest("anneal", "01.15", "900"),
		"01.15/run_3_09h30/temps.csv":         "t,T\n0,25\n",
	})
	m := f.begin(t, paths)

	out := f.driver.Publish(ctx, m, f.mgr)
	require.Equal(t, Created, out.Kind, "outcome error: %v", out.Err)
	assert.Equal(t, branch, out.Branch)
	assert.Equal(t, "https://github.com/example/furnace-data/pull/1", out.RequestURL)
	assert.NotEmpty(t, out.Commit)

	assert.Equal(t, []string{"data(01.15): add run_3_09h30"}, f.remoteLog(t))
	assert.Equal(t, "New run data: anneal; 01.15; 900 K", f.gh.Title(t))
	assert.Contains(t, f.gh.Body(t), "01.15/run_3_09h30/temps.csv")

	calls := f.gh.Calls(t)
	require.Len(t, calls, 2)
	assert.True(t, strings.HasPrefix(calls[0], "pr list --head "+branch))
	assert.Contains(t, calls[1], "--base main --head "+branch)
	assert.Contains(t, calls[1], "--label run-data")

	s := f.mgr.Snapshot()
	assert.True(t, s.BranchCreated && s.Pushed && s.Published)
	assert.False(t, f.mgr.IsNewSession())
}

func TestPublishIdempotentAndContinuing(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	paths := f.write(t, map[string]string{
		"01.15/run_3_09h30/run_metadata.json": testutil.Manifest("anneal", "01.15", "900"),
	})
	m := f.begin(t, paths)
	require.Equal(t, Created, f.driver.Publish(ctx, m, f.mgr).Kind)

	out := f.driver.Publish(ctx, m, f.mgr)
	assert.Equal(t, NoOpNoChanges, out.Kind)
	assert.True(t, out.Cleared())

	more := f.write(t, map[string]string{"01.15/run_3_09h30/temps_2.csv": "t,T\n60,400\n"})
	require.NoError(t, f.mgr.Extend(more))

	out = f.driver.Publish(ctx, meta(more...), f.mgr)
	require.Equal(t, Updated, out.Kind, "outcome error: %v", out.Err)
	assert.Equal(t, branch, out.Branch)
	assert.Equal(t, "https://github.com/example/furnace-data/pull/1", out.RequestURL)

	log := f.remoteLog(t)
	require.Len(t, log, 2)
	assert.True(t, strings.HasPrefix(log[0], "data(01.15): update run_3_09h30 at "))
	assert.Equal(t, 1, f.gh.CountCalls(t, "pr create"))
}

func TestPublishNothingToStage(t *testing.T) {
	f := newFixture(t, nil)
	m := f.begin(t, []string{"01.15/run_3_09h30/gone.csv"})

	out := f.driver.Publish(context.Background(), m, f.mgr)
	assert.Equal(t, NoOpNoChanges, out.Kind)

	s := f.mgr.Snapshot()
	assert.True(t, s.Active)
	assert.False(t, s.Pushed)
	assert.True(t, f.mgr.IsNewSession())
	assert.Empty(t, f.gh.Calls(t))
}

func TestPublishRetriesAfterCreateFailure(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	paths := f.write(t, map[string]string{"01.15/run_3_09h30/a.csv": "1\n"})
	m := f.begin(t, paths)

	f.gh.FailCreate(t, true)
	out := f.driver.Publish(ctx, m, f.mgr)
	require.Equal(t, Failed, out.Kind)
	assert.Equal(t, "gh pr create", out.Stage)
	assert.Contains(t, out.Error, "could not create pull request")
	assert.False(t, out.Cleared())
	assert.True(t, f.mgr.Snapshot().Pushed)
	assert.True(t, f.mgr.IsNewSession())

	f.gh.FailCreate(t, false)
	out = f.driver.Publish(ctx, m, f.mgr)
	require.Equal(t, Created, out.Kind, "outcome error: %v", out.Err)
	assert.Empty(t, out.Commit, "nothing new was committed on retry")
	assert.Len(t, f.remoteLog(t), 1)
	assert.Equal(t, 2, f.gh.CountCalls(t, "pr create"))
}

func TestPublishRetriesAfterPushFailure(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	paths := f.write(t, map[string]string{"01.15/run_3_09h30/a.csv": "1\n"})
	m := f.begin(t, paths)

	testutil.RunGitCommand(t, f.work, "remote", "set-url", "origin", filepath.Join(t.TempDir(), "missing.git"))
	out := f.driver.Publish(ctx, m, f.mgr)
	require.Equal(t, Failed, out.Kind)
	assert.Equal(t, "git push", out.Stage)
	assert.False(t, f.mgr.Snapshot().Pushed)

	testutil.RunGitCommand(t, f.work, "remote", "set-url", "origin", f.remote)
	out = f.driver.Publish(ctx, m, f.mgr)
	require.Equal(t, Created, out.Kind, "outcome error: %v", out.Err)
	assert.Equal(t, []string{"data(01.15): add run_3_09h30"}, f.remoteLog(t))
}

func TestPublishReusesExistingRequest(t *testing.T) {
	f := newFixture(t, nil)
	f.gh.SeedRequest(t, branch)

	paths := f.write(t, map[string]string{"01.15/run_3_09h30/a.csv": "1\n"})
	m := f.begin(t, paths)

	out := f.driver.Publish(context.Background(), m, f.mgr)
	require.Equal(t, Created, out.Kind, "outcome error: %v", out.Err)
	assert.Equal(t, "https://github.com/example/furnace-data/pull/99", out.RequestURL)
	assert.Zero(t, f.gh.CountCalls(t, "pr create"))
}

func TestPublishFallsBackToMinimalDescription(t *testing.T) {
	f := newFixture(t, render.New(filepath.Join(t.TempDir(), "missing.tmpl"), ""))

	paths := f.write(t, map[string]string{"01.15/run_3_09h30/a.csv": "1\n"})
	m := f.begin(t, paths)

	out := f.driver.Publish(context.Background(), m, f.mgr)
	require.Equal(t, Created, out.Kind, "outcome error: %v", out.Err)
	assert.Equal(t, "New run data: anneal; 01.15; 900 K", f.gh.Title(t))
	assert.Equal(t, "- 01.15/run_3_09h30/a.csv\n", f.gh.Body(t))
}

func TestPublishWithoutSession(t *testing.T) {
	f := newFixture(t, nil)
	out := f.driver.Publish(context.Background(), meta("x"), f.mgr)
	assert.Equal(t, Failed, out.Kind)
	assert.Equal(t, "session", out.Stage)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "created", Created.String())
	assert.Equal(t, "no-op", NoOpNoChanges.String())
	text, err := Failed.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "failed", string(text))

	var k Kind
	require.NoError(t, k.UnmarshalText([]byte("updated")))
	assert.Equal(t, Updated, k)
	assert.Error(t, k.UnmarshalText([]byte("bogus")))
}
