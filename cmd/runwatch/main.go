package main

import (
	"os"

	"github.com/grovetools/runwatch/cli"
	"github.com/grovetools/runwatch/cmd"
	"github.com/grovetools/runwatch/pkg/profiling"
)

func main() {
	rootCmd := cli.NewStandardCommand(
		"runwatch",
		"Publish furnace run data to git as it lands",
	)

	profiling.NewCobraProfiler().Attach(rootCmd)

	rootCmd.AddCommand(cmd.NewWatchCmd())
	rootCmd.AddCommand(cmd.NewResolveCmd())
	rootCmd.AddCommand(cmd.NewStatusCmd())
	rootCmd.AddCommand(cmd.NewFlushCmd())
	rootCmd.AddCommand(cmd.NewStopCmd())
	rootCmd.AddCommand(cmd.NewLogsCmd())
	rootCmd.AddCommand(cmd.NewConfigCmd())
	rootCmd.AddCommand(cmd.NewPathsCmd())
	rootCmd.AddCommand(cli.NewVersionCommand("runwatch"))

	if err := rootCmd.Execute(); err != nil {
		verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
		cli.NewErrorHandler(verbose, os.Stderr).Handle(err)
		os.Exit(1)
	}
}
