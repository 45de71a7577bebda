package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/grovetools/runwatch/conventional"
	"github.com/grovetools/runwatch/errors"
	"github.com/grovetools/runwatch/git"
	"github.com/grovetools/runwatch/internal/manifest"
	"github.com/grovetools/runwatch/internal/render"
	"github.com/grovetools/runwatch/internal/session"
	"github.com/grovetools/runwatch/logging"
	"github.com/grovetools/runwatch/review"
	"github.com/sirupsen/logrus"
)

// Options configures where and how the driver publishes.
type Options struct {
	// RepoRoot and WatchRoot are absolute; batch paths are relative to
	// WatchRoot.
	RepoRoot   string
	WatchRoot  string
	Remote     string
	BaseBranch string
	PullBase   bool
	Draft      bool
	Labels     []string
	Reviewers  []string
}

// Driver turns a resolved batch into git and gh operations.
type Driver struct {
	git      *git.Client
	review   *review.Client
	renderer *render.Renderer
	opts     Options
	now      func() time.Time
	logger   *logrus.Entry
}

// NewDriver wires the collaborators together.
func NewDriver(g *git.Client, r *review.Client, renderer *render.Renderer, opts Options) *Driver {
	return &Driver{
		git:      g,
		review:   r,
		renderer: renderer,
		opts:     opts,
		now:      time.Now,
		logger:   logging.NewLogger("publish"),
	}
}

// Publish pushes the session's files. A new session ends with a review
// request; later batches only add commits. Steps run strictly in order and
// the first failure stops the attempt.
func (d *Driver) Publish(ctx context.Context, meta *manifest.RunMetadata, mgr *session.Manager) Outcome {
	s := mgr.Snapshot()
	if s == nil {
		return d.failed("session", "", errors.NoActiveSession())
	}
	log := d.logger.WithFields(logrus.Fields{"branch": s.BranchID, "run": meta.Label()})
	isNew := mgr.IsNewSession()

	if err := d.checkoutSession(ctx, s, mgr); err != nil {
		return d.failed("checkout", s.BranchID, err)
	}

	paths := d.stageable(s.CumulativeFiles)
	if err := d.git.Add(ctx, paths...); err != nil {
		return d.failed("git add", s.BranchID, err)
	}

	staged, err := d.git.HasStagedChanges(ctx)
	if err != nil {
		return d.failed("git diff", s.BranchID, err)
	}

	var commit string
	if staged {
		msg := d.commitMessage(meta, isNew)
		if err := d.git.Commit(ctx, msg.String()); err != nil {
			return d.failed("git commit", s.BranchID, err)
		}
		commit, _ = d.git.HeadShort(ctx)
		log.WithField("commit", commit).Info(msg.Header())
	}

	unpushed, err := d.unpushed(ctx, s)
	if err != nil {
		return d.failed("git rev-list", s.BranchID, err)
	}

	switch {
	case unpushed > 0:
		if err := d.git.Push(ctx, d.opts.Remote, s.BranchID, !s.Pushed); err != nil {
			return d.failed("git push", s.BranchID, err)
		}
		_ = mgr.MarkPushed()
		log.WithField("commits", unpushed).Info("Pushed")
	case isNew && s.Pushed:
		log.Info("Nothing new to push; resuming review request")
	default:
		log.Info("No changes to publish")
		return Outcome{Kind: NoOpNoChanges, Branch: s.BranchID, RequestURL: s.RequestURL, At: d.now()}
	}

	if !isNew {
		return Outcome{Kind: Updated, Branch: s.BranchID, RequestURL: s.RequestURL, Commit: commit, At: d.now()}
	}

	url, err := d.ensureRequest(ctx, meta, s.BranchID)
	if err != nil {
		return d.failed(stageOf(err, "gh pr"), s.BranchID, err)
	}
	_ = mgr.MarkPublished(url)
	log.WithField("url", url).Info("Review request ready")

	return Outcome{Kind: Created, Branch: s.BranchID, RequestURL: url, Commit: commit, At: d.now()}
}

// checkoutSession puts the working copy on the session branch, creating it
// from the freshly pulled base the first time.
func (d *Driver) checkoutSession(ctx context.Context, s *session.Session, mgr *session.Manager) error {
	if s.BranchCreated {
		return d.git.Checkout(ctx, s.BranchID)
	}

	exists, err := d.git.BranchExists(ctx, s.BranchID)
	if err != nil {
		return err
	}
	if exists {
		if err := d.git.Checkout(ctx, s.BranchID); err != nil {
			return err
		}
		return mgr.MarkBranchCreated()
	}

	if err := d.git.Checkout(ctx, d.opts.BaseBranch); err != nil {
		return err
	}
	if d.opts.PullBase {
		if err := d.git.Pull(ctx, d.opts.Remote, d.opts.BaseBranch); err != nil {
			d.logger.WithError(err).WithField("base", d.opts.BaseBranch).Warn("Could not update base branch; branching from local copy")
		}
	}
	if err := d.git.CreateBranch(ctx, s.BranchID); err != nil {
		return err
	}
	return mgr.MarkBranchCreated()
}

// stageable maps session paths to repository-relative paths, skipping files
// that no longer exist.
func (d *Driver) stageable(files []string) []string {
	var out []string
	for _, f := range files {
		abs := filepath.Join(d.opts.WatchRoot, filepath.FromSlash(f))
		if _, err := os.Stat(abs); err != nil {
			continue
		}
		rel, err := filepath.Rel(d.opts.RepoRoot, abs)
		if err != nil || !filepath.IsLocal(rel) {
			d.logger.WithField("path", abs).Warn("Skipping path outside repository")
			continue
		}
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

// unpushed counts local commits the remote has not seen. Before the first
// push that is everything since the base branch.
func (d *Driver) unpushed(ctx context.Context, s *session.Session) (int, error) {
	from := d.opts.BaseBranch
	if s.Pushed {
		from = d.opts.Remote + "/" + s.BranchID
	}
	return d.git.CommitsBetween(ctx, from, s.BranchID)
}

func (d *Driver) commitMessage(meta *manifest.RunMetadata, isNew bool) *conventional.Commit {
	info := meta.Manifest.RunInfo
	subject := "add " + meta.RunFolder
	if !isNew {
		subject = fmt.Sprintf("update %s at %s", meta.RunFolder, d.now().Format("2006-01-02 15:04:05"))
	}
	return &conventional.Commit{
		Type:    "data",
		Scope:   meta.DateFolder,
		Subject: subject,
		Body: strings.Join([]string{
			"run_type: " + info.RunType,
			"furnace_setpoint: " + info.FurnaceSetpoint.String() + " K",
			fmt.Sprintf("files: %d", meta.TotalFiles),
		}, "\n"),
	}
}

// ensureRequest opens the review request unless one already exists for
// branch, and returns its URL.
func (d *Driver) ensureRequest(ctx context.Context, meta *manifest.RunMetadata, branch string) (string, error) {
	existing, err := d.review.FindOpen(ctx, branch)
	if err != nil {
		return "", err
	}
	if existing != nil {
		d.logger.WithField("url", existing.URL).Info("Review request already exists")
		return existing.URL, nil
	}

	desc, err := d.renderer.Render(meta)
	if err != nil {
		d.logger.WithError(err).Warn("Falling back to minimal description")
		desc = render.Minimal(meta)
	}

	created, err := d.review.Create(ctx, review.Options{
		Title:     desc.Title,
		Body:      desc.Body,
		Head:      branch,
		Base:      d.opts.BaseBranch,
		Draft:     d.opts.Draft,
		Reviewers: d.opts.Reviewers,
		Labels:    d.opts.Labels,
	})
	if err != nil {
		return "", err
	}
	return created.URL, nil
}

func (d *Driver) failed(stage, branch string, err error) Outcome {
	stage = stageOf(err, stage)
	d.logger.WithError(err).WithFields(logrus.Fields{
		"stage":  stage,
		"branch": branch,
		"code":   errors.GetCode(err),
	}).Error("Publish failed")
	return Outcome{Kind: Failed, Stage: stage, Err: err, Error: err.Error(), Branch: branch, At: d.now()}
}

// stageOf prefers the command stage recorded on a CommandFailed error.
func stageOf(err error, fallback string) string {
	if gerr, ok := errors.As(err); ok {
		if stage := gerr.Detail("stage"); stage != "" {
			return stage
		}
	}
	return fallback
}
