package worker

import (
	"context"
	"sync/atomic"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/logging"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/queue"
)

// StatusSummary represents lightweight worker diagnostics.
type StatusSummary struct {
	Running    bool
	QueuePath  string
	LastError  string
	LastTask   *queue.Task
	Dispatched int64
	QueueStats map[queue.Status]int
}

// Status returns the latest worker information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	running := m.running
	lastErr := m.lastErr
	lastTask := m.lastTask
	m.mu.RUnlock()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read queue stats", logging.Error(err))
	}

	summary := StatusSummary{
		Running:    running,
		QueuePath:  m.queuePath,
		QueueStats: stats,
		Dispatched: atomic.LoadInt64(&m.dispatched),
	}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	if lastTask != nil {
		copy := *lastTask
		summary.LastTask = &copy
	}
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastTask(task *queue.Task) {
	m.mu.Lock()
	if task != nil {
		copy := *task
		m.lastTask = &copy
	} else {
		m.lastTask = nil
	}
	m.mu.Unlock()
}
