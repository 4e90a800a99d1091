package worker

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/config"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/logging"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/queue"
)

// Manager coordinates queue draining.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	logger       *slog.Logger
	client       *http.Client
	pollInterval time.Duration
	retryDelay   time.Duration
	queuePath    string

	heartbeat *HeartbeatMonitor

	mu         sync.RWMutex
	running    bool
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	lastErr    error
	lastTask   *queue.Task
	dispatched int64
}

// Option configures optional Manager behavior.
type Option func(*Manager)

// WithHTTPClient overrides the client used for dispatches.
func WithHTTPClient(client *http.Client) Option {
	return func(m *Manager) {
		if client != nil {
			m.client = client
		}
	}
}

// WithPollInterval overrides the idle poll interval.
func WithPollInterval(interval time.Duration) Option {
	return func(m *Manager) {
		if interval > 0 {
			m.pollInterval = interval
			m.retryDelay = interval
		}
	}
}

// NewManager constructs a queue worker.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger, opts ...Option) *Manager {
	logger = logging.NewComponentLogger(logger, "worker")
	m := &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		client:       &http.Client{},
		pollInterval: time.Duration(cfg.Queue.PollInterval) * time.Second,
		retryDelay:   time.Duration(cfg.Queue.ErrorRetryInterval) * time.Second,
		queuePath:    cfg.QueuePath(),
		heartbeat: NewHeartbeatMonitor(
			store,
			logger,
			time.Duration(cfg.Queue.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Queue.HeartbeatTimeout)*time.Second,
		),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("worker already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	if reset, err := m.store.ResetDispatching(runCtx); err != nil {
		m.logger.Warn("failed to reset interrupted tasks",
			logging.Error(err),
			logging.String(logging.FieldEventType, "queue_reset_failed"),
			logging.String(logging.FieldErrorHint, "check queue database access"),
		)
	} else if reset > 0 {
		m.logger.Info("requeued tasks interrupted by a previous shutdown", logging.Int64("count", reset))
	}

	go m.run(runCtx)
	return nil
}

// Stop terminates background processing and waits for completion.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := m.heartbeat.ReclaimStaleTasks(ctx); err != nil && !errors.Is(err, context.Canceled) {
			m.logger.Warn("reclaim stale tasks failed; stuck tasks may remain",
				logging.Error(err),
				logging.String(logging.FieldEventType, "heartbeat_reclaim_failed"),
				logging.String(logging.FieldErrorHint, "check queue database access"),
			)
		}

		task, err := m.store.NextPending(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			m.setLastError(err)
			m.logger.Error("failed to fetch next task",
				logging.Error(err),
				logging.String(logging.FieldEventType, "queue_fetch_failed"),
				logging.String(logging.FieldErrorHint, "check queue database access"),
			)
			m.wait(ctx, m.retryDelay)
			continue
		}
		if task == nil {
			m.wait(ctx, m.pollInterval)
			continue
		}

		if err := m.processTask(ctx, task); err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return
			}
			m.wait(ctx, m.retryDelay)
		}
	}
}

func (m *Manager) wait(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
