// Package engine wires the watch pipeline: notifications feed the batch,
// quiet periods trigger a pass, and each pass resolves, updates the session
// and publishes.
package engine

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/grovetools/runwatch/config"
	"github.com/grovetools/runwatch/errors"
	"github.com/grovetools/runwatch/git"
	"github.com/grovetools/runwatch/internal/daemon/server"
	"github.com/grovetools/runwatch/internal/daemon/store"
	"github.com/grovetools/runwatch/internal/debounce"
	"github.com/grovetools/runwatch/internal/manifest"
	"github.com/grovetools/runwatch/internal/publish"
	"github.com/grovetools/runwatch/internal/render"
	"github.com/grovetools/runwatch/internal/session"
	"github.com/grovetools/runwatch/internal/watch"
	"github.com/grovetools/runwatch/logging"
	"github.com/grovetools/runwatch/pkg/paths"
	"github.com/grovetools/runwatch/pkg/profiling"
	"github.com/grovetools/runwatch/review"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// shutdownTimeout bounds how long the status server may take to drain.
const shutdownTimeout = 2 * time.Second

// Option customizes an Engine.
type Option func(*Engine)

// WithIDFunc replaces the random branch suffix generator.
func WithIDFunc(fn session.IDFunc) Option {
	return func(e *Engine) { e.newID = fn }
}

// WithPretty sets the console printer used for outcomes.
func WithPretty(p *logging.PrettyLogger) Option {
	return func(e *Engine) { e.pretty = p }
}

// WithoutStatusServer disables the status API regardless of config.
func WithoutStatusServer() Option {
	return func(e *Engine) { e.noServer = true }
}

// Engine owns one watcher process's pipeline.
type Engine struct {
	cfg       *config.Config
	batch     *watch.Batch
	collector *watch.Collector
	scheduler *debounce.Scheduler
	resolver  *manifest.Resolver
	sessions  *session.Manager
	driver    *publish.Driver
	store     *store.Store
	server    *server.Server
	socket    string

	ready chan struct{}

	newID    session.IDFunc
	pretty   *logging.PrettyLogger
	noServer bool
	logger   *logrus.Entry
}

// New builds an Engine from a configuration whose paths are resolved. It
// creates the watched folder when missing.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:    cfg,
		batch:  watch.NewBatch(),
		ready:  make(chan struct{}),
		pretty: logging.NewPrettyLogger(),
		logger: logging.NewLogger("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}

	if _, err := exec.LookPath("git"); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeGitNotInstalled, "git is not installed")
	}
	if _, err := exec.LookPath(cfg.Review.CLIPath); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCommandNotFound, "review CLI not found").
			WithDetail("command", cfg.Review.CLIPath)
	}
	if !git.IsGitRepo(cfg.Repo.Root) {
		return nil, errors.New(errors.ErrCodeNotRepository, "repository root is not a git working copy").
			WithDetail("path", cfg.Repo.Root)
	}
	if err := os.MkdirAll(cfg.Watch.Root, 0755); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodePermissionDenied, "cannot create watched folder").
			WithDetail("path", cfg.Watch.Root)
	}

	collector, err := watch.NewCollector(cfg.Watch.Root, e.batch, cfg.Watch.Ignore)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigValidation, "invalid watch.ignore")
	}
	e.collector = collector

	e.resolver, err = manifest.New(manifest.Options{
		Root:           cfg.Watch.Root,
		Manifest:       cfg.Watch.Manifest,
		RequiredFields: cfg.Watch.RequiredFields,
		DatePattern:    cfg.Watch.DatePattern,
		RunPattern:     cfg.Watch.RunPattern,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigValidation, "invalid run layout")
	}

	e.sessions = session.NewManager(cfg.Repo.BranchPrefix, e.newID)
	e.driver = publish.NewDriver(
		git.NewClient(cfg.Repo.Root),
		review.NewClient(cfg.Review.CLIPath, cfg.Repo.Root),
		render.New(cfg.Review.TitleTemplate, cfg.Review.BodyTemplate),
		publish.Options{
			RepoRoot:   cfg.Repo.Root,
			WatchRoot:  cfg.Watch.Root,
			Remote:     cfg.Repo.Remote,
			BaseBranch: cfg.Repo.BaseBranch,
			PullBase:   cfg.Repo.ShouldPullBase(),
			Draft:      cfg.Review.Draft,
			Labels:     cfg.Review.Labels,
			Reviewers:  cfg.Review.Reviewers,
		},
	)
	e.scheduler = debounce.New(cfg.Watch.BatchDelay.Std(), e.pass)
	e.store = store.New(cfg.Repo.Root, cfg.Watch.Root, cfg.Repo.BaseBranch)

	if cfg.Status.IsEnabled() && !e.noServer {
		e.socket = cfg.Status.Socket
		if e.socket == "" {
			e.socket = paths.SocketPath(cfg.Repo.Root)
		}
		e.server = server.New(e.store, e.Flush, logging.NewLogger("server"))
	}

	return e, nil
}

// Store exposes the status store.
func (e *Engine) Store() *store.Store { return e.store }

// Sessions exposes the session manager.
func (e *Engine) Sessions() *session.Manager { return e.sessions }

// Ready is closed once Run has registered the watched tree.
func (e *Engine) Ready() <-chan struct{} { return e.ready }

// Socket is the status API socket, empty when the API is off.
func (e *Engine) Socket() string { return e.socket }

// HandleEvent records a notification and restarts the quiet period when it
// touched the batch.
func (e *Engine) HandleEvent(ev watch.Event) {
	if !e.collector.RecordEvent(ev) {
		return
	}
	e.scheduler.OnActivity()
	e.store.SetPending(e.batch.Snapshot().Paths, true)
}

// Flush processes the pending batch without waiting for the quiet period.
// It reports whether anything was pending.
func (e *Engine) Flush() bool {
	pending := e.batch.Len() > 0
	e.scheduler.Flush()
	return pending
}

func (e *Engine) pass(ctx context.Context) {
	_, _ = e.ProcessBatch(ctx)
}

// ProcessBatch runs one pass over the current batch. It returns nil, nil for
// an empty batch and the resolver or session error when the batch could not
// be published; both keep the batch. A publish outcome is returned even when
// it failed, in which case the batch is kept too.
func (e *Engine) ProcessBatch(ctx context.Context) (*publish.Outcome, error) {
	snap := e.batch.Snapshot()
	if snap.Len() == 0 {
		return nil, nil
	}
	log := e.logger.WithField("files", snap.Len())
	defer profiling.Start("batch").Stop()
	defer func() {
		e.store.SetPending(e.batch.Snapshot().Paths, e.scheduler.Armed())
	}()

	span := profiling.Start("resolve")
	meta, err := e.resolver.Resolve(snap.Paths)
	span.Stop()
	if err != nil {
		log.WithError(err).WithField("code", errors.GetCode(err)).Warn("Batch not resolved; keeping it for the next pass")
		e.store.RecordProblem(err)
		return nil, err
	}

	if e.sessions.Active() {
		err = e.sessions.Extend(snap.Paths)
	} else {
		_, err = e.sessions.Begin(snap.Paths, meta.Label())
	}
	if err != nil {
		log.WithError(err).Error("Session update failed")
		e.store.RecordProblem(err)
		return nil, err
	}

	span = profiling.Start("publish")
	out := e.driver.Publish(ctx, meta, e.sessions)
	span.Stop()
	e.store.RecordOutcome(out)
	e.store.SetSession(e.sessions.Snapshot())

	if out.Cleared() {
		cleared := e.batch.Clear(snap)
		log.WithFields(logrus.Fields{"outcome": out.Kind.String(), "cleared": cleared}).Info("Batch processed")
	}
	e.report(meta, out)
	return &out, nil
}

func (e *Engine) report(meta *manifest.RunMetadata, out publish.Outcome) {
	switch out.Kind {
	case publish.Created:
		e.pretty.Success(fmt.Sprintf("Opened %s for %s", out.RequestURL, meta.Label()))
	case publish.Updated:
		e.pretty.Success(fmt.Sprintf("Pushed %d file(s) to %s", meta.TotalFiles, out.Branch))
	case publish.Failed:
		e.pretty.ErrorPretty(fmt.Sprintf("Publishing %s failed at %s; will retry", meta.Label(), out.Stage), out.Err)
	}
}

// Run watches until ctx is cancelled. With flush_on_exit set, a pending
// batch gets one last pass before Run returns.
func (e *Engine) Run(ctx context.Context) error {
	w, err := watch.NewWatcher(e.cfg.Watch.Root, e.skipDir)
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer w.Close()

	e.logger.WithFields(logrus.Fields{
		"root":  e.cfg.Watch.Root,
		"dirs":  w.Watched(),
		"delay": e.scheduler.Delay(),
	}).Info("Watching")
	close(e.ready)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(gctx, e.HandleEvent) })
	g.Go(func() error { return e.scheduler.Run(gctx) })
	if e.server != nil {
		g.Go(func() error { return e.server.ListenAndServe(e.socket) })
		g.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = e.server.Shutdown(sctx)
			return nil
		})
	}

	err = g.Wait()

	if e.cfg.Watch.FlushOnExit && e.batch.Len() > 0 {
		e.logger.Info("Processing pending batch before exit")
		_, _ = e.ProcessBatch(context.Background())
	}
	return err
}

// skipDir keeps ignored directories out of the watch registration.
func (e *Engine) skipDir(abs string) bool {
	rel, ok := e.collector.Relative(abs)
	return ok && e.collector.Ignored(rel)
}
