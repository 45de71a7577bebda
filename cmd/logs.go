package cmd

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"os/signal"

	"github.com/grovetools/runwatch/cli"
	"github.com/grovetools/runwatch/logging"
	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"
)

// NewLogsCmd prints or follows today's watcher log file.
func NewLogsCmd() *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the watcher log file",
		Example: `# Follow the log of the watcher in this repository
runwatch logs -f`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			cli.ConfigureLogging(cmd, cfg)

			path := logging.FilePath("runwatch")
			if path == "" {
				return fmt.Errorf("the file log sink is disabled")
			}
			if _, err := os.Stat(path); err != nil && !follow {
				return fmt.Errorf("no log file at %s", path)
			}

			t, err := tail.TailFile(path, tail.Config{
				Follow:    follow,
				ReOpen:    follow,
				MustExist: !follow,
				Location:  &tail.SeekInfo{Offset: 0, Whence: io.SeekStart},
				Logger:    stdlog.New(io.Discard, "", 0),
			})
			if err != nil {
				return err
			}
			defer t.Cleanup()

			out := cmd.OutOrStdout()
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			done := ctx.Done()
			for {
				select {
				case <-done:
					return t.Stop()
				case line, ok := <-t.Lines:
					if !ok {
						return nil
					}
					if line.Err != nil {
						return line.Err
					}
					fmt.Fprintln(out, line.Text)
				}
			}
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	return cmd
}
