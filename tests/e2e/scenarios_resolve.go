package main

import (
	"fmt"

	"github.com/grovetools/tend/pkg/assert"
	"github.com/grovetools/tend/pkg/harness"
)

// ResolvePreviewScenario renders the pull request text for a complete run.
func ResolvePreviewScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "runwatch-resolve-preview",
		Description: "Verifies metadata resolution and the default title and body templates.",
		Tags:        []string{"runwatch", "resolve"},
		Steps: []harness.Step{
			harness.NewStep("Resolve a complete run folder", func(ctx *harness.Context) error {
				dir, err := setupRepo(ctx, "preview-repo", "watch:\n  root: results\n")
				if err != nil {
					return err
				}
				if _, err := writeRun(dir, "01.15", "run_3_09h30", validManifest); err != nil {
					return err
				}
				ctx.Set("preview_repo", dir)
				bin, err := findRunwatchBinary()
				if err != nil {
					return err
				}

				cmd := ctx.Command(bin, "resolve", "results/01.15/run_3_09h30").Dir(dir)
				result := cmd.Run()
				ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)
				if result.Error != nil {
					return fmt.Errorf("`runwatch resolve` failed: %w", result.Error)
				}

				for _, want := range []string{
					"New run data: anneal; 01.15; 900 K",
					"run_3_09h30",
					"operator",
					"### Files (2)",
					"temps.csv",
				} {
					if err := assert.Contains(result.Stdout, want, "preview should contain "+want); err != nil {
						return err
					}
				}
				return nil
			}),
			harness.NewStep("Resolve as JSON", func(ctx *harness.Context) error {
				bin, err := findRunwatchBinary()
				if err != nil {
					return err
				}
				cmd := ctx.Command(bin, "resolve", "results/01.15/run_3_09h30", "--json").Dir(ctx.GetString("preview_repo"))
				result := cmd.Run()
				ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)
				if result.Error != nil {
					return fmt.Errorf("`runwatch resolve --json` failed: %w", result.Error)
				}
				if err := assert.Contains(result.Stdout, `"date_folder": "01.15"`, "JSON should carry the date folder"); err != nil {
					return err
				}
				return assert.Contains(result.Stdout, `"total_files": 2`, "JSON should count files")
			}),
		},
	}
}

// ResolveIncompleteManifestScenario checks a manifest without a setpoint.
func ResolveIncompleteManifestScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "runwatch-resolve-incomplete",
		Description: "Verifies a missing required field is reported by name.",
		Tags:        []string{"runwatch", "resolve"},
		Steps: []harness.Step{
			harness.NewStep("Resolve a run without furnace_setpoint", func(ctx *harness.Context) error {
				dir, err := setupRepo(ctx, "incomplete-repo", "watch:\n  root: results\n")
				if err != nil {
					return err
				}
				manifest := `{"run_info": {"run_type": "anneal", "date": "01.15"}}`
				if _, err := writeRun(dir, "01.15", "run_4_10h00", manifest); err != nil {
					return err
				}
				bin, err := findRunwatchBinary()
				if err != nil {
					return err
				}

				cmd := ctx.Command(bin, "resolve", "results/01.15/run_4_10h00").Dir(dir)
				result := cmd.Run()
				ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)
				if result.ExitCode == 0 {
					return fmt.Errorf("an incomplete manifest should be rejected")
				}
				if err := assert.Contains(result.Stderr, "MANIFEST_INCOMPLETE", "error should carry its code"); err != nil {
					return err
				}
				return assert.Contains(result.Stderr, "furnace_setpoint", "error should name the field")
			}),
		},
	}
}

// ResolveUnrecognizedLayoutScenario checks a run outside the date/run layout.
func ResolveUnrecognizedLayoutScenario() *harness.Scenario {
	return &harness.Scenario{
		Name: "runwatch-resolve-layout",
		Tags: []string{"runwatch", "resolve"},
		Steps: []harness.Step{
			harness.NewStep("Resolve a misplaced run folder", func(ctx *harness.Context) error {
				dir, err := setupRepo(ctx, "layout-repo", "watch:\n  root: results\n")
				if err != nil {
					return err
				}
				if _, err := writeRun(dir, "january", "run_1_08h00", validManifest); err != nil {
					return err
				}
				bin, err := findRunwatchBinary()
				if err != nil {
					return err
				}

				cmd := ctx.Command(bin, "resolve", "results/january/run_1_08h00").Dir(dir)
				result := cmd.Run()
				ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)
				if result.ExitCode == 0 {
					return fmt.Errorf("a misplaced run should be rejected")
				}
				return assert.Contains(result.Stderr, "STRUCTURE_UNRECOGNIZED", "error should carry its code")
			}),
		},
	}
}
