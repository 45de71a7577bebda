package git

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/grovetools/runwatch/command"
	"github.com/grovetools/runwatch/errors"
	"github.com/grovetools/runwatch/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientBranchLifecycle(t *testing.T) {
	work, remote := testutil.InitRepoWithRemote(t)
	ctx := context.Background()
	c := NewClient(work)

	exists, err := c.BranchExists(ctx, "run-data/a")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, c.CreateBranch(ctx, "run-data/a"))
	branch, err := c.CurrentBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-data/a", branch)

	exists, err = c.BranchExists(ctx, "run-data/a")
	require.NoError(t, err)
	assert.True(t, exists)

	err = c.CreateBranch(ctx, "run-data/a")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeCommandFailed))

	require.NoError(t, c.Checkout(ctx, "main"))
	require.NoError(t, c.Pull(ctx, "origin", "main"))
	require.NoError(t, c.Checkout(ctx, "run-data/a"))

	testutil.WriteFile(t, filepath.Join(work, "results", "01.15", "a.csv"), "1,2\n")

	staged, err := c.HasStagedChanges(ctx)
	require.NoError(t, err)
	assert.False(t, staged)

	require.NoError(t, c.Add(ctx, "results/01.15/a.csv"))
	staged, err = c.HasStagedChanges(ctx)
	require.NoError(t, err)
	assert.True(t, staged)

	require.NoError(t, c.Commit(ctx, "data(01.15): add a"))
	ahead, err := c.CommitsBetween(ctx, "main", "run-data/a")
	require.NoError(t, err)
	assert.Equal(t, 1, ahead)
	hash, err := c.HeadShort(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	require.NoError(t, c.Push(ctx, "origin", "run-data/a", true))
	assert.Equal(t, hash, testutil.RunGitCommand(t, remote, "rev-parse", "--short", "run-data/a"))

	ahead, err = c.CommitsBetween(ctx, "origin/run-data/a", "run-data/a")
	require.NoError(t, err)
	assert.Equal(t, 0, ahead)
}

func TestClientRejectsUnsafeInput(t *testing.T) {
	c := NewClient(t.TempDir())
	ctx := context.Background()

	assert.Error(t, c.Checkout(ctx, "main; rm -rf /"))
	assert.Error(t, c.Push(ctx, "-origin", "main", false))
	assert.Error(t, c.Add(ctx, "../escape.txt"))
	assert.Error(t, c.Add(ctx, "/etc/passwd"))
	assert.Error(t, c.Commit(ctx, "  "))
	assert.NoError(t, c.Add(ctx))
}

func TestCommandFailedCarriesStderr(t *testing.T) {
	c := NewClient(t.TempDir())

	_, err := c.CurrentBranch(context.Background())
	require.Error(t, err)

	gerr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, "git rev-parse", gerr.Detail("stage"))
	assert.NotEmpty(t, gerr.Detail("stderr"))
}

func TestPushArgv(t *testing.T) {
	rec := &command.RecordingExecutor{}
	c := NewClientWithBuilder(t.TempDir(), command.NewSafeBuilderWithExecutor(rec))
	ctx := context.Background()

	_ = c.Push(ctx, "origin", "run-data/a", true)
	_ = c.Push(ctx, "origin", "run-data/a", false)
	_ = c.Add(ctx, "results/01.15/a.csv", "results/01.15/b.csv")

	require.Len(t, rec.Calls, 3)
	assert.Equal(t, []string{"git", "push", "--set-upstream", "origin", "run-data/a"}, rec.Calls[0])
	assert.Equal(t, []string{"git", "push", "origin", "run-data/a"}, rec.Calls[1])
	assert.Equal(t, []string{"git", "add", "--", "results/01.15/a.csv", "results/01.15/b.csv"}, rec.Calls[2])
}
