package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/logging"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/queue"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/services"
)

func (m *Manager) processTask(ctx context.Context, task *queue.Task) error {
	taskCtx := services.WithTaskID(ctx, task.ID)
	taskCtx = services.WithSourceAudioID(taskCtx, task.SourceAudioUID)
	taskCtx = services.WithStage(taskCtx, "dispatch")
	logger := logging.WithContext(taskCtx, m.logger)

	now := time.Now().UTC()
	task.Status = queue.StatusDispatching
	task.Attempts++
	task.LastHeartbeat = &now
	if err := m.store.Update(taskCtx, task); err != nil {
		wrapped := fmt.Errorf("claim task: %w", err)
		logger.Error("failed to mark task dispatching", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}

	start := time.Now()
	logger.Info("dispatch started",
		logging.String(logging.FieldEventType, "dispatch_start"),
		logging.String("task_name", task.Name(m.queuePath)),
		logging.String("target_url", task.TargetURL),
		logging.Int("attempt", task.Attempts),
	)

	dispatchErr := m.dispatchWithHeartbeat(taskCtx, task)
	task.LastHeartbeat = nil

	if dispatchErr != nil && errors.Is(dispatchErr, context.Canceled) && ctx.Err() != nil {
		// Shutdown interrupted the attempt; it does not count.
		task.Status = queue.StatusPending
		task.Attempts--
		if err := m.store.Update(context.Background(), task); err != nil {
			logger.Warn("failed to requeue interrupted task", logging.Error(err))
		}
		logger.Debug("dispatch interrupted by shutdown")
		return dispatchErr
	}

	if dispatchErr == nil {
		task.Status = queue.StatusCompleted
		task.ErrorMessage = ""
		atomic.AddInt64(&m.dispatched, 1)
		logger.Info("dispatch completed",
			logging.String(logging.FieldEventType, "dispatch_complete"),
			logging.Duration("duration", time.Since(start)),
		)
	} else {
		task.ErrorMessage = strings.TrimSpace(dispatchErr.Error())
		if services.Retryable(dispatchErr) && task.Attempts < m.cfg.Queue.MaxAttempts {
			task.Status = queue.StatusPending
		} else {
			task.Status = queue.StatusFailed
		}
		m.setLastError(dispatchErr)
		logger.Error("dispatch failed",
			logging.Error(dispatchErr),
			logging.String(logging.FieldEventType, "dispatch_failed"),
			logging.String("next_status", string(task.Status)),
			logging.Int("attempt", task.Attempts),
			logging.Int("max_attempts", m.cfg.Queue.MaxAttempts),
			logging.String(logging.FieldErrorHint, "check the target service logs"),
		)
	}

	if err := m.store.Update(taskCtx, task); err != nil {
		wrapped := fmt.Errorf("persist dispatch result: %w", err)
		logger.Error("failed to persist dispatch result", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}
	m.setLastTask(task)
	return dispatchErr
}

func (m *Manager) dispatchWithHeartbeat(ctx context.Context, task *queue.Task) error {
	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.StartLoop(hbCtx, &hbWG, task.ID)

	err := m.dispatch(ctx, task)

	hbCancel()
	hbWG.Wait()
	return err
}
