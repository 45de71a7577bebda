package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grovetools/runwatch/cli"
	"github.com/grovetools/runwatch/config"
	"github.com/grovetools/runwatch/git"
	"github.com/grovetools/runwatch/internal/daemon/pidfile"
	"github.com/grovetools/runwatch/internal/engine"
	"github.com/grovetools/runwatch/logging"
	"github.com/grovetools/runwatch/pkg/paths"
	"github.com/spf13/cobra"
)

// NewWatchCmd returns the foreground watcher command.
func NewWatchCmd() *cobra.Command {
	var (
		repoRoot    string
		watchRoot   string
		base        string
		delay       time.Duration
		flushOnExit bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the results folder and publish run data",
		Long: "Watches the results folder, groups changes into batches after a quiet " +
			"period, and publishes each batch to a session branch with one pull request per session.",
		Example: `# Watch ./results in the current repository
runwatch watch

# Shorter quiet period, different base branch
runwatch watch --delay 1s --base develop`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			cfg, err := cli.LoadConfig(cmd, func(c *config.Config) {
				if flags.Changed("repo") {
					c.Repo.Root = repoRoot
				}
				if flags.Changed("root") {
					c.Watch.Root = watchRoot
				}
				if flags.Changed("base") {
					c.Repo.BaseBranch = base
				}
				if flags.Changed("delay") {
					c.Watch.BatchDelay = config.Duration(delay)
				}
				if flags.Changed("flush-on-exit") {
					c.Watch.FlushOnExit = flushOnExit
				}
			})
			if err != nil {
				return err
			}
			cli.ConfigureLogging(cmd, cfg)
			logger := logging.NewLogger("runwatch")

			pidPath := paths.PidFilePath(cfg.Repo.Root)
			if err := pidfile.Acquire(pidPath); err != nil {
				return err
			}
			defer func() {
				if err := pidfile.Release(pidPath); err != nil {
					logger.WithError(err).Error("Failed to release pidfile")
				}
			}()

			pretty := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout()).WithClock(time.Now)
			eng, err := engine.New(cfg, engine.WithPretty(pretty))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			go func() {
				select {
				case <-eng.Ready():
				case <-ctx.Done():
					return
				}
				pretty.Banner("runwatch")
				pretty.Field("Repository", git.RepoName(cfg.Repo.Root, cfg.Repo.Remote))
				pretty.Path("Working copy", cfg.Repo.Root)
				pretty.Path("Watching", cfg.Watch.Root)
				pretty.Field("Base branch", cfg.Repo.BaseBranch)
				pretty.Field("Quiet period", cfg.Watch.BatchDelay.Std())
				if sock := eng.Socket(); sock != "" {
					pretty.Path("Status socket", sock)
				}
				pretty.Divider()
			}()

			logger.WithField("pid", os.Getpid()).Info("Starting watcher")
			err = eng.Run(ctx)
			logger.Info("Watcher stopped")
			return err
		},
	}

	cmd.Flags().StringVar(&repoRoot, "repo", "", "Repository root (default: git root of the working directory)")
	cmd.Flags().StringVar(&watchRoot, "root", "", "Watched folder, relative to the repository root")
	cmd.Flags().StringVar(&base, "base", "", "Base branch for new sessions")
	cmd.Flags().DurationVar(&delay, "delay", 0, "Quiet period before a batch is processed")
	cmd.Flags().BoolVar(&flushOnExit, "flush-on-exit", false, "Process the pending batch before exiting")
	return cmd
}
