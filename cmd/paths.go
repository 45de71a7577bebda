package cmd

import (
	"github.com/grovetools/runwatch/cli"
	"github.com/grovetools/runwatch/logging"
	"github.com/grovetools/runwatch/pkg/paths"
	"github.com/spf13/cobra"
)

// PathsOutput lists the files a watcher for the current repository uses.
type PathsOutput struct {
	StateDir   string `json:"state_dir"`
	LogDir     string `json:"log_dir"`
	LogFile    string `json:"log_file,omitempty"`
	RuntimeDir string `json:"runtime_dir"`
	Socket     string `json:"socket"`
	PidFile    string `json:"pid_file"`
}

// NewPathsCmd prints state, log and runtime paths as JSON.
func NewPathsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print the state, log and runtime paths used by runwatch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			cli.ConfigureLogging(cmd, cfg)

			return writeJSON(cmd.OutOrStdout(), PathsOutput{
				StateDir:   paths.StateDir(),
				LogDir:     paths.LogDir(),
				LogFile:    logging.FilePath("runwatch"),
				RuntimeDir: paths.RuntimeDir(cfg.Repo.Root),
				Socket:     socketFor(cfg),
				PidFile:    paths.PidFilePath(cfg.Repo.Root),
			})
		},
	}
}
