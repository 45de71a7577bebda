package review

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/grovetools/runwatch/command"
	"github.com/grovetools/runwatch/errors"
)

// Request identifies an open pull request.
type Request struct {
	Number int    `json:"number"`
	URL    string `json:"url"`
}

// Options describes a request to open.
type Options struct {
	Title     string
	Body      string
	Head      string
	Base      string
	Draft     bool
	Reviewers []string
	Labels    []string
}

// Client drives the gh CLI from inside a working copy.
type Client struct {
	cliPath string
	dir     string
	builder *command.SafeBuilder
}

// NewClient returns a Client that runs cliPath (usually "gh") in dir.
func NewClient(cliPath, dir string) *Client {
	return NewClientWithBuilder(cliPath, dir, command.NewSafeBuilder())
}

// NewClientWithBuilder lets tests inject an executor.
func NewClientWithBuilder(cliPath, dir string, builder *command.SafeBuilder) *Client {
	if cliPath == "" {
		cliPath = "gh"
	}
	return &Client{cliPath: cliPath, dir: dir, builder: builder}
}

func (c *Client) run(ctx context.Context, args ...string) (*command.Result, error) {
	cmd, err := c.builder.Build(ctx, c.cliPath, args...)
	if err != nil {
		return nil, err
	}
	res, err := cmd.InDir(c.dir).Run()
	if err != nil {
		if errors.GetCode(err) != "" {
			return res, err
		}
		return res, errors.CommandFailed("gh "+strings.Join(args[:2], " "), res.ExitCode, res.Stderr)
	}
	return res, nil
}

// FindOpen returns the open request whose head is branch, or nil when none
// exists.
func (c *Client) FindOpen(ctx context.Context, branch string) (*Request, error) {
	if err := c.builder.Validate("gitRef", branch); err != nil {
		return nil, err
	}
	res, err := c.run(ctx, "pr", "list", "--head", branch, "--json", "number,url")
	if err != nil {
		return nil, err
	}

	var found []Request
	if err := json.Unmarshal([]byte(strings.TrimSpace(res.Stdout)), &found); err != nil {
		return nil, fmt.Errorf("parsing gh pr list output: %w", err)
	}
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

// Create opens a request. The body is passed through a temporary file so
// long bodies never hit argument length limits.
func (c *Client) Create(ctx context.Context, opts Options) (*Request, error) {
	for _, ref := range []string{opts.Head, opts.Base} {
		if err := c.builder.Validate("gitRef", ref); err != nil {
			return nil, err
		}
	}

	bodyFile, err := os.CreateTemp("", "runwatch-body-*.md")
	if err != nil {
		return nil, fmt.Errorf("creating body file: %w", err)
	}
	defer os.Remove(bodyFile.Name())
	if _, err := bodyFile.WriteString(opts.Body); err != nil {
		bodyFile.Close()
		return nil, fmt.Errorf("writing body file: %w", err)
	}
	if err := bodyFile.Close(); err != nil {
		return nil, fmt.Errorf("writing body file: %w", err)
	}

	args := []string{"pr", "create",
		"--title", opts.Title,
		"--body-file", bodyFile.Name(),
		"--base", opts.Base,
		"--head", opts.Head,
	}
	if opts.Draft {
		args = append(args, "--draft")
	}
	for _, reviewer := range opts.Reviewers {
		args = append(args, "--reviewer", reviewer)
	}
	for _, label := range opts.Labels {
		args = append(args, "--label", label)
	}

	res, err := c.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	return parseCreated(res.Stdout), nil
}

// parseCreated reads the URL gh prints last and the number at its end.
func parseCreated(out string) *Request {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	url := strings.TrimSpace(lines[len(lines)-1])
	req := &Request{URL: url}
	if i := strings.LastIndex(url, "/"); i >= 0 {
		if n, err := strconv.Atoi(url[i+1:]); err == nil {
			req.Number = n
		}
	}
	return req
}
