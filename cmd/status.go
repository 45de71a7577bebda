package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/grovetools/runwatch/cli"
	"github.com/grovetools/runwatch/config"
	"github.com/grovetools/runwatch/internal/daemon/pidfile"
	"github.com/grovetools/runwatch/internal/daemon/store"
	"github.com/grovetools/runwatch/logging"
	"github.com/grovetools/runwatch/pkg/daemon"
	"github.com/grovetools/runwatch/pkg/paths"
	"github.com/spf13/cobra"
)

const requestTimeout = 5 * time.Second

func socketFor(cfg *config.Config) string {
	if cfg.Status.Socket != "" {
		return cfg.Status.Socket
	}
	return paths.SocketPath(cfg.Repo.Root)
}

// connect returns a client for the watcher of the configured repository, or
// an error when none answers.
func connect(cmd *cobra.Command) (*config.Config, *daemon.RemoteClient, error) {
	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	client := daemon.NewRemoteClient(socketFor(cfg))
	if !client.IsRunning() {
		client.Close()
		return nil, nil, fmt.Errorf("no watcher is answering on %s", socketFor(cfg))
	}
	return cfg, client, nil
}

// NewStatusCmd shows the state of a running watcher.
func NewStatusCmd() *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the pending batch, session and last outcome",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := connect(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			jsonOut := cli.GetOptions(cmd).JSONOutput
			out := cmd.OutOrStdout()

			if !follow {
				ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
				defer cancel()
				st, err := client.Status(ctx)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(out, st)
				}
				printState(out, st)
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			updates, err := client.StreamState(ctx)
			if err != nil {
				return err
			}
			for u := range updates {
				if jsonOut {
					if err := json.NewEncoder(out).Encode(u); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintf(out, "%s %-8s %s\n", u.At.Format("15:04:05"), u.Type, strings.TrimSpace(string(u.Payload)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Stream updates until interrupted")
	return cmd
}

// NewFlushCmd asks a running watcher to process its batch now.
func NewFlushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Process the pending batch without waiting for the quiet period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := connect(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			pending, err := client.Flush(ctx)
			if err != nil {
				return err
			}
			if cli.GetOptions(cmd).JSONOutput {
				return writeJSON(cmd.OutOrStdout(), map[string]bool{"pending": pending})
			}
			if pending {
				fmt.Fprintln(cmd.OutOrStdout(), "Flush requested")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing pending")
			}
			return nil
		},
	}
}

// NewStopCmd signals the watcher of the configured repository.
func NewStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running watcher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			pidPath := paths.PidFilePath(cfg.Repo.Root)
			running, pid, err := pidfile.IsRunning(pidPath)
			if err != nil {
				return fmt.Errorf("error checking status: %w", err)
			}
			if !running {
				fmt.Fprintln(cmd.OutOrStdout(), "Watcher is not running")
				return nil
			}

			process, err := os.FindProcess(pid)
			if err != nil {
				return fmt.Errorf("failed to find process %d: %w", pid, err)
			}
			if err := process.Signal(syscall.SIGTERM); err != nil {
				return fmt.Errorf("failed to send stop signal: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent SIGTERM to process %d\n", pid)
			return nil
		},
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printState(w io.Writer, st *store.State) {
	p := logging.NewPrettyLogger().WithWriter(w)
	p.Path("Repository", st.RepoRoot)
	p.Path("Watching", st.WatchRoot)
	p.Field("Running since", st.StartedAt.Format(time.RFC3339))
	p.Field("Pending files", len(st.Pending))
	if st.Armed {
		p.InfoPretty("Quiet period running")
	}

	if s := st.Session; s != nil {
		p.Divider()
		p.Field("Branch", s.BranchID)
		p.Field("Files", len(s.CumulativeFiles))
		p.Field("Batches", s.Batches)
		if s.RequestURL != "" {
			p.Field("Pull request", s.RequestURL)
		}
	}

	if r := st.LastResult; r != nil {
		p.Divider()
		p.Field("Last outcome", fmt.Sprintf("%s at %s", r.Kind, r.At.Format("15:04:05")))
	}
	if e := st.LastError; e != nil {
		p.WarnPretty(fmt.Sprintf("%s: %s", e.Code, e.Message))
	}
}
