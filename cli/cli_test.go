package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/grovetools/runwatch/config"
	"github.com/grovetools/runwatch/errors"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "runwatch.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return dir, path
}

func TestLoadConfigWithOverrides(t *testing.T) {
	dir, path := writeConfig(t, "repo:\n  root: .\nwatch:\n  root: results\n")

	cmd := NewStandardCommand("runwatch", "test")
	require.NoError(t, cmd.ParseFlags([]string{"--config", path}))

	cfg, err := LoadConfig(cmd, func(c *config.Config) {
		c.Watch.BatchDelay = config.Duration(time.Second)
		c.Watch.Root = "incoming"
	})
	require.NoError(t, err)

	root, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	gotRoot, err := filepath.EvalSymlinks(cfg.Repo.Root)
	require.NoError(t, err)
	assert.Equal(t, root, gotRoot)
	assert.Equal(t, "incoming", filepath.Base(cfg.Watch.Root))
	assert.Equal(t, time.Second, cfg.Watch.BatchDelay.Std())
}

func TestLoadConfigRejectsInvalidOverride(t *testing.T) {
	_, path := writeConfig(t, "repo:\n  root: .\n")

	cmd := NewStandardCommand("runwatch", "test")
	require.NoError(t, cmd.ParseFlags([]string{"--config", path}))

	_, err := LoadConfig(cmd, func(c *config.Config) { c.Watch.BatchDelay = 0 })
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigValidation))
}

func TestHint(t *testing.T) {
	assert.Contains(t, Hint(errors.AlreadyRunning(42, "/run/runwatch.pid")), "42")
	assert.Contains(t, Hint(errors.New(errors.ErrCodeCommandNotFound, "missing").WithDetail("command", "gh")), "gh")
	assert.Contains(t, Hint(errors.ManifestIncomplete("run_info")), "manifest")
	assert.Empty(t, Hint(assert.AnError))
}

func TestErrorHandler(t *testing.T) {
	var buf bytes.Buffer
	err := errors.ConfigNotFound("/tmp/x")

	assert.Equal(t, err, NewErrorHandler(true, &buf).Handle(err))
	assert.Contains(t, buf.String(), "Error:")
	assert.Contains(t, buf.String(), "runwatch.yml")
	assert.Contains(t, buf.String(), "CONFIG_NOT_FOUND")
	assert.NoError(t, NewErrorHandler(false, &buf).Handle(nil))
}

func TestStyledHelp(t *testing.T) {
	root := NewStandardCommand("runwatch", "Publish run data")
	sub := &cobra.Command{
		Use:     "watch",
		Short:   "Watch the results folder",
		Example: "# default\nrunwatch watch",
		Run:     func(*cobra.Command, []string) {},
	}
	sub.Flags().Duration("delay", 3*time.Second, "Quiet period")
	root.AddCommand(sub)

	var buf bytes.Buffer
	renderHelp(&buf, root, 60)
	out := buf.String()
	assert.Contains(t, out, "RUNWATCH")
	assert.Contains(t, out, "COMMANDS")
	assert.Contains(t, out, "watch")

	buf.Reset()
	renderHelp(&buf, sub, 60)
	out = buf.String()
	assert.Contains(t, out, "--delay")
	assert.Contains(t, out, "default: 3s")
	assert.Contains(t, out, "runwatch watch")
}

func TestWrapText(t *testing.T) {
	assert.Equal(t, "one two\nthree", wrapText("one two three", 8))
	assert.Equal(t, "short\n\nkept", wrapText("short\n\nkept", 40))
}
