package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/queue"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/services"
)

// Headers attached to every dispatch so the target can identify the task.
const (
	HeaderTaskName       = "X-Vinyl-TaskName"
	HeaderQueueName      = "X-Vinyl-QueueName"
	HeaderTaskRetryCount = "X-Vinyl-TaskRetryCount"
)

const maxErrorBody = 512

func (m *Manager) dispatch(ctx context.Context, task *queue.Task) error {
	reqCtx, cancel := context.WithTimeout(ctx, task.DispatchDeadline())
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, task.TargetURL, strings.NewReader(task.PayloadJSON))
	if err != nil {
		return services.Wrap(services.ErrValidation, "worker", "build request", "invalid target url", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderTaskName, task.Name(m.queuePath))
	req.Header.Set(HeaderQueueName, task.QueueName)
	req.Header.Set(HeaderTaskRetryCount, strconv.Itoa(task.Attempts-1))
	if token := strings.TrimSpace(m.cfg.Queue.AuthToken); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return services.Wrap(services.ErrTimeout, "worker", "dispatch",
				fmt.Sprintf("deadline of %s exceeded", task.DispatchDeadline()), err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrTransient, "worker", "dispatch", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	message := fmt.Sprintf("target returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	return services.Wrap(classifyStatus(resp.StatusCode), "worker", "dispatch", message, nil)
}

func classifyStatus(code int) error {
	switch {
	case code == http.StatusRequestTimeout || code == http.StatusTooManyRequests:
		return services.ErrTransient
	case code == http.StatusNotFound:
		return services.ErrNotFound
	case code >= 400 && code < 500:
		return services.ErrValidation
	default:
		return services.ErrTransient
	}
}

