package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/grovetools/runwatch/cli"
	"github.com/grovetools/runwatch/internal/manifest"
	"github.com/grovetools/runwatch/internal/render"
	"github.com/grovetools/runwatch/util/pathutil"
	"github.com/spf13/cobra"
)

// resolveOutput is the --json shape of the resolve command.
type resolveOutput struct {
	Metadata *manifest.RunMetadata `json:"metadata"`
	Title    string                `json:"title"`
	Body     string                `json:"body"`
}

// NewResolveCmd previews the metadata and request text for a run folder
// without touching git.
func NewResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <run-folder>",
		Short: "Show the metadata and pull request text for a run folder",
		Example: `runwatch resolve results/01.15/run_3_09h30
runwatch resolve results/01.15/run_3_09h30 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			cli.ConfigureLogging(cmd, cfg)

			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			dir, err := pathutil.Expand(args[0], cwd)
			if err != nil {
				return err
			}

			resolver, err := manifest.New(manifest.Options{
				Root:           cfg.Watch.Root,
				Manifest:       cfg.Watch.Manifest,
				RequiredFields: cfg.Watch.RequiredFields,
				DatePattern:    cfg.Watch.DatePattern,
				RunPattern:     cfg.Watch.RunPattern,
			})
			if err != nil {
				return err
			}
			meta, err := resolver.ResolveDir(dir)
			if err != nil {
				return err
			}

			desc, err := render.New(cfg.Review.TitleTemplate, cfg.Review.BodyTemplate).Render(meta)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if cli.GetOptions(cmd).JSONOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(resolveOutput{Metadata: meta, Title: desc.Title, Body: desc.Body})
			}
			fmt.Fprintln(out, desc.Title)
			fmt.Fprintln(out)
			fmt.Fprint(out, desc.Body)
			return nil
		},
	}
	return cmd
}
