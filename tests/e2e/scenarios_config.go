package main

import (
	"fmt"
	"path/filepath"

	"github.com/grovetools/tend/pkg/assert"
	"github.com/grovetools/tend/pkg/fs"
	"github.com/grovetools/tend/pkg/harness"
)

// ConfigDefaultsScenario prints the effective config of a repository whose
// runwatch.yml only sets one key.
func ConfigDefaultsScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "runwatch-config-defaults",
		Description: "Verifies unset keys fall back to defaults.",
		Tags:        []string{"runwatch", "config"},
		Steps: []harness.Step{
			harness.NewStep("Print effective config", func(ctx *harness.Context) error {
				dir, err := setupRepo(ctx, "defaults-repo", "repo:\n  base_branch: develop\n")
				if err != nil {
					return err
				}
				bin, err := findRunwatchBinary()
				if err != nil {
					return err
				}

				cmd := ctx.Command(bin, "config").Dir(dir)
				result := cmd.Run()
				ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)
				if result.Error != nil {
					return fmt.Errorf("`runwatch config` failed: %w", result.Error)
				}

				for _, want := range []string{"# Source:", "base_branch: develop", "manifest: run_metadata.json", "batch_delay: 3s", "branch_prefix: run-data"} {
					if err := assert.Contains(result.Stdout, want, "effective config should contain "+want); err != nil {
						return err
					}
				}
				return nil
			}),
		},
	}
}

// ConfigOverrideScenario checks that runwatch.override.yml wins over
// runwatch.yml.
func ConfigOverrideScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "runwatch-config-override",
		Description: "Verifies the local override file replaces project values.",
		Tags:        []string{"runwatch", "config", "override"},
		Steps: []harness.Step{
			harness.NewStep("Layer an override file", func(ctx *harness.Context) error {
				dir, err := setupRepo(ctx, "override-repo", "watch:\n  batch_delay: 10s\nreview:\n  draft: false\n")
				if err != nil {
					return err
				}
				ctx.Set("override_repo", dir)
				if err := fs.WriteString(filepath.Join(dir, "runwatch.override.yml"), "watch:\n  batch_delay: 1s\n"); err != nil {
					return err
				}
				bin, err := findRunwatchBinary()
				if err != nil {
					return err
				}

				cmd := ctx.Command(bin, "config").Dir(dir)
				result := cmd.Run()
				ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)
				if result.Error != nil {
					return fmt.Errorf("`runwatch config` failed: %w", result.Error)
				}
				if err := assert.Contains(result.Stdout, "batch_delay: 1s", "override should win"); err != nil {
					return err
				}
				return assert.NotContains(result.Stdout, "batch_delay: 10s", "project value should be replaced")
			}),
			harness.NewStep("Reject an invalid override", func(ctx *harness.Context) error {
				dir := ctx.GetString("override_repo")
				if err := fs.WriteString(filepath.Join(dir, "runwatch.override.yml"), "watch:\n  batch_delay: -1s\n"); err != nil {
					return err
				}
				bin, err := findRunwatchBinary()
				if err != nil {
					return err
				}

				cmd := ctx.Command(bin, "config").Dir(dir)
				result := cmd.Run()
				ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)
				if result.ExitCode == 0 {
					return fmt.Errorf("a negative batch_delay should be rejected")
				}
				return assert.Contains(result.Stderr, "CONFIG_VALIDATION", "error should carry its code")
			}),
		},
	}
}

// ConfigSchemaScenario checks the generated JSON schema.
func ConfigSchemaScenario() *harness.Scenario {
	return &harness.Scenario{
		Name: "runwatch-config-schema",
		Tags: []string{"runwatch", "config", "schema"},
		Steps: []harness.Step{
			harness.NewStep("Print the schema", func(ctx *harness.Context) error {
				dir, err := setupRepo(ctx, "schema-repo", "{}\n")
				if err != nil {
					return err
				}
				bin, err := findRunwatchBinary()
				if err != nil {
					return err
				}

				cmd := ctx.Command(bin, "config", "schema").Dir(dir)
				result := cmd.Run()
				ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)
				if result.Error != nil {
					return fmt.Errorf("`runwatch config schema` failed: %w", result.Error)
				}
				for _, want := range []string{`"batch_delay"`, `"base_branch"`, `"cli_path"`} {
					if err := assert.Contains(result.Stdout, want, "schema should describe "+want); err != nil {
						return err
					}
				}
				return nil
			}),
		},
	}
}
