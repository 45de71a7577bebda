package git

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/grovetools/runwatch/command"
	"github.com/grovetools/runwatch/errors"
)

// Client runs git subcommands inside one working copy.
type Client struct {
	dir     string
	builder *command.SafeBuilder
}

// NewClient returns a Client for the repository at dir.
func NewClient(dir string) *Client {
	return NewClientWithBuilder(dir, command.NewSafeBuilder())
}

// NewClientWithBuilder lets tests inject an executor.
func NewClientWithBuilder(dir string, builder *command.SafeBuilder) *Client {
	return &Client{dir: dir, builder: builder}
}

// Dir is the working copy the client operates on.
func (c *Client) Dir() string { return c.dir }

func (c *Client) run(ctx context.Context, args ...string) (*command.Result, error) {
	cmd, err := c.builder.Build(ctx, "git", args...)
	if err != nil {
		return nil, err
	}
	res, err := cmd.InDir(c.dir).Run()
	if err != nil {
		if errors.GetCode(err) != "" {
			return res, err
		}
		return res, errors.CommandFailed("git "+args[0], res.ExitCode, res.Stderr).
			WithDetail("args", strings.Join(args, " "))
	}
	return res, nil
}

func (c *Client) ref(ref string) error {
	return c.builder.Validate("gitRef", ref)
}

// Checkout switches to an existing branch.
func (c *Client) Checkout(ctx context.Context, ref string) error {
	if err := c.ref(ref); err != nil {
		return err
	}
	_, err := c.run(ctx, "checkout", ref)
	return err
}

// CreateBranch creates ref from HEAD and switches to it.
func (c *Client) CreateBranch(ctx context.Context, ref string) error {
	if err := c.ref(ref); err != nil {
		return err
	}
	_, err := c.run(ctx, "checkout", "-b", ref)
	return err
}

// BranchExists reports whether a local branch named ref exists.
func (c *Client) BranchExists(ctx context.Context, ref string) (bool, error) {
	if err := c.ref(ref); err != nil {
		return false, err
	}
	res, err := c.run(ctx, "rev-parse", "--verify", "--quiet", "refs/heads/"+ref)
	if err != nil {
		if res != nil && res.ExitCode == 1 {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CurrentBranch returns the checked out branch name.
func (c *Client) CurrentBranch(ctx context.Context) (string, error) {
	res, err := c.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

// Pull fast-forwards the current branch from remote/ref.
func (c *Client) Pull(ctx context.Context, remote, ref string) error {
	if err := c.builder.Validate("remoteName", remote); err != nil {
		return err
	}
	if err := c.ref(ref); err != nil {
		return err
	}
	_, err := c.run(ctx, "pull", "--ff-only", remote, ref)
	return err
}

// Add stages paths given relative to the repository root.
func (c *Client) Add(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	for _, p := range paths {
		if !filepath.IsLocal(filepath.FromSlash(p)) {
			return fmt.Errorf("refusing to stage path outside repository: %s", p)
		}
	}
	_, err := c.run(ctx, append([]string{"add", "--"}, paths...)...)
	return err
}

// HasStagedChanges reports whether the index differs from HEAD.
// "git diff --cached --quiet" exits 0 when there is nothing staged and 1 when
// there is; anything else is a failure.
func (c *Client) HasStagedChanges(ctx context.Context) (bool, error) {
	res, err := c.run(ctx, "diff", "--cached", "--quiet")
	if err == nil {
		return false, nil
	}
	if res != nil && res.ExitCode == 1 {
		return true, nil
	}
	return false, err
}

// Commit records the index with message.
func (c *Client) Commit(ctx context.Context, message string) error {
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("commit message cannot be empty")
	}
	_, err := c.run(ctx, "commit", "-m", message)
	return err
}

// Push sends ref to remote, optionally recording it as upstream.
func (c *Client) Push(ctx context.Context, remote, ref string, setUpstream bool) error {
	if err := c.builder.Validate("remoteName", remote); err != nil {
		return err
	}
	if err := c.ref(ref); err != nil {
		return err
	}
	args := []string{"push"}
	if setUpstream {
		args = append(args, "--set-upstream")
	}
	_, err := c.run(ctx, append(args, remote, ref)...)
	return err
}

// HeadShort returns the abbreviated HEAD commit hash.
func (c *Client) HeadShort(ctx context.Context) (string, error) {
	res, err := c.run(ctx, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

// CommitsBetween counts commits reachable from to but not from.
func (c *Client) CommitsBetween(ctx context.Context, from, to string) (int, error) {
	for _, ref := range []string{from, to} {
		if err := c.ref(ref); err != nil {
			return 0, err
		}
	}
	res, err := c.run(ctx, "rev-list", "--count", from+".."+to)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(res.Stdout))
	if err != nil {
		return 0, fmt.Errorf("parsing rev-list output %q: %w", res.Stdout, err)
	}
	return n, nil
}
