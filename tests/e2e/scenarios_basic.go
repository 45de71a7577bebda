package main

import (
	"fmt"

	"github.com/grovetools/tend/pkg/assert"
	"github.com/grovetools/tend/pkg/harness"
)

// VersionScenario tests the 'version' command.
func VersionScenario() *harness.Scenario {
	return &harness.Scenario{
		Name: "runwatch-basic-version",
		Tags: []string{"runwatch", "cli"},
		Steps: []harness.Step{
			harness.NewStep("Run 'runwatch version'", func(ctx *harness.Context) error {
				bin, err := findRunwatchBinary()
				if err != nil {
					return err
				}

				cmd := ctx.Command(bin, "version")
				result := cmd.Run()
				ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)

				if err := assert.Equal(0, result.ExitCode, "runwatch version should exit successfully"); err != nil {
					return err
				}
				if err := assert.Contains(result.Stdout, "runwatch", "Output should name the binary"); err != nil {
					return err
				}
				if err := assert.Contains(result.Stdout, "Commit:", "Output should contain Commit"); err != nil {
					return err
				}
				return assert.Contains(result.Stdout, "Build Date:", "Output should contain Build Date")
			}),
		},
	}
}

// StatusWithoutWatcherScenario checks that status fails cleanly when no
// watcher owns the repository.
func StatusWithoutWatcherScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "runwatch-status-no-watcher",
		Description: "Verifies status and flush report a missing watcher with a non-zero exit.",
		Tags:        []string{"runwatch", "status"},
		Steps: []harness.Step{
			harness.NewStep("Run status and flush without a watcher", func(ctx *harness.Context) error {
				dir, err := setupRepo(ctx, "idle-repo", "watch:\n  root: results\n")
				if err != nil {
					return err
				}
				bin, err := findRunwatchBinary()
				if err != nil {
					return err
				}

				for _, sub := range []string{"status", "flush"} {
					cmd := ctx.Command(bin, sub).Dir(dir)
					result := cmd.Run()
					ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)
					if result.ExitCode == 0 {
						return fmt.Errorf("runwatch %s should fail without a watcher", sub)
					}
					if err := assert.Contains(result.Stderr, "no watcher is answering", "error should explain the failure"); err != nil {
						return err
					}
				}
				return nil
			}),
		},
	}
}
