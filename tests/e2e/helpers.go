package main

import (
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/grovetools/tend/pkg/fs"
	"github.com/grovetools/tend/pkg/git"
	"github.com/grovetools/tend/pkg/harness"
)

// findRunwatchBinary finds the binary under test. It relies on the Makefile
// putting ./bin on PATH.
func findRunwatchBinary() (string, error) {
	path, err := exec.LookPath("runwatch")
	if err != nil {
		return "", fmt.Errorf("could not find 'runwatch' binary in PATH. Ensure 'make test-e2e' is used")
	}
	return path, nil
}

const validManifest = `{
  "run_info": {
    "run_type": "anneal",
    "date": "01.15",
    "furnace_setpoint": 900,
    "operator": "kim"
  }
}`

// setupRepo creates a committed repository with a runwatch.yml and returns
// its directory.
func setupRepo(ctx *harness.Context, name, configYAML string) (string, error) {
	dir := ctx.NewDir(name)
	if err := fs.WriteString(filepath.Join(dir, "runwatch.yml"), configYAML); err != nil {
		return "", err
	}
	repo, err := git.SetupTestRepo(dir)
	if err != nil {
		return "", fmt.Errorf("failed to setup git repo: %w", err)
	}
	if err := repo.AddCommit("initial commit"); err != nil {
		return "", err
	}
	return dir, nil
}

// writeRun lays out results/<date>/<run>/ with a manifest and one data file.
func writeRun(repoDir, date, run, manifest string) (string, error) {
	runDir := filepath.Join(repoDir, "results", date, run)
	if err := fs.CreateDir(runDir); err != nil {
		return "", err
	}
	if manifest != "" {
		if err := fs.WriteString(filepath.Join(runDir, "run_metadata.json"), manifest); err != nil {
			return "", err
		}
	}
	if err := fs.WriteString(filepath.Join(runDir, "temps.csv"), "t,temp\n0,25\n"); err != nil {
		return "", err
	}
	return runDir, nil
}
