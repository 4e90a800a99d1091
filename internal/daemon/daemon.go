package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/api"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/asr"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/blob"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/config"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/deps"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/docstore"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/intake"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/logging"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/pipeline"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/queue"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/server"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/snippets"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/worker"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/youtube"
)

// Daemon coordinates the background processing services and enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *queue.Store
	docs   *docstore.Store
	bucket blob.Bucket
	worker *worker.Manager
	api    *server.Server

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Worker       worker.StatusSummary
	QueueDBPath  string
	StoreDBPath  string
	LockFilePath string
	Listen       string
	Dependencies []deps.Status
}

// Stores groups the persistence handles the daemon takes ownership of.
type Stores struct {
	Queue  *queue.Store
	Docs   *docstore.Store
	Bucket blob.Bucket
}

// Open opens the queue, document store, and bucket named by cfg.
func Open(ctx context.Context, cfg *config.Config) (Stores, error) {
	store, err := queue.Open(cfg)
	if err != nil {
		return Stores{}, fmt.Errorf("open queue store: %w", err)
	}
	docs, err := docstore.Open(cfg)
	if err != nil {
		store.Close()
		return Stores{}, fmt.Errorf("open document store: %w", err)
	}
	bucket, err := blob.Open(ctx, cfg)
	if err != nil {
		docs.Close()
		store.Close()
		return Stores{}, fmt.Errorf("open bucket: %w", err)
	}
	return Stores{Queue: store, Docs: docs, Bucket: bucket}, nil
}

// New constructs a daemon with initialized dependencies. The daemon owns the
// stores and closes them in Close.
func New(cfg *config.Config, stores Stores, logger *slog.Logger, wk *worker.Manager) (*Daemon, error) {
	if cfg == nil || stores.Queue == nil || stores.Docs == nil || stores.Bucket == nil || logger == nil || wk == nil {
		return nil, errors.New("daemon requires config, stores, logger, and worker")
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    stores.Queue,
		docs:     stores.Docs,
		bucket:   stores.Bucket,
		worker:   wk,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}

	asrClient := asr.NewClient(cfg, logger)
	apiServer, err := server.New(cfg, server.Services{
		Intake:    intake.NewService(cfg, stores.Docs, stores.Queue, stores.Bucket, youtube.NewDownloader(cfg), logger),
		Loader:    pipeline.NewLoader(cfg, stores.Bucket),
		Processor: pipeline.NewProcessor(cfg, asrClient, snippets.NewClient(cfg), stores.Docs, logger),
		Snippets:  snippets.NewService(cfg, stores.Docs, stores.Bucket, logger),
		Queue:     api.NewQueueService(stores.Queue, cfg.QueuePath()),
		Status:    d.APIStatus,
	}, logger)
	if err != nil {
		return nil, err
	}
	d.api = apiServer
	return d, nil
}

// Start acquires the daemon lock, then launches the worker and the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another vinyl service instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.worker.Start(d.ctx); err != nil {
		d.abortStart()
		return fmt.Errorf("start worker: %w", err)
	}
	if err := d.api.Start(d.ctx); err != nil {
		d.worker.Stop()
		d.abortStart()
		return fmt.Errorf("start api server: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("vinyl service started",
		logging.String("lock", d.lockPath),
		logging.String("listen", d.api.Addr()),
		logging.String("queue", d.cfg.QueuePath()),
	)
	return nil
}

func (d *Daemon) abortStart() {
	_ = d.lock.Unlock()
	d.cancel()
	d.ctx = nil
	d.cancel = nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.api.Stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.worker.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("vinyl service stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	var errs []error
	if d.bucket != nil {
		errs = append(errs, d.bucket.Close())
	}
	if d.docs != nil {
		errs = append(errs, d.docs.Close())
	}
	if d.store != nil {
		errs = append(errs, d.store.Close())
	}
	return errors.Join(errs...)
}

// Addr reports the API listener address while running.
func (d *Daemon) Addr() string {
	return d.api.Addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Worker:       d.worker.Status(ctx),
		QueueDBPath:  d.store.Path(),
		StoreDBPath:  d.docs.Path(),
		LockFilePath: d.lockPath,
		Listen:       d.api.Addr(),
		Dependencies: deps.CheckBinaries(deps.ServiceRequirements(d.cfg)),
	}
}

// APIStatus renders Status for the HTTP API.
func (d *Daemon) APIStatus(ctx context.Context) api.DaemonStatus {
	status := d.Status(ctx)
	dependencies := make([]api.DependencyStatus, len(status.Dependencies))
	for i, dep := range status.Dependencies {
		dependencies[i] = api.DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		}
	}
	return api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		QueueDBPath:  status.QueueDBPath,
		StoreDBPath:  status.StoreDBPath,
		LockFilePath: status.LockFilePath,
		Listen:       status.Listen,
		Worker:       api.FromStatusSummary(status.Worker),
		Dependencies: dependencies,
	}
}
