package api

import (
	"encoding/json"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/queue"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/worker"
)

// FromTask converts a queue record to its API representation.
func FromTask(task *queue.Task, queuePath string) Task {
	if task == nil {
		return Task{}
	}
	dto := Task{
		ID:               task.ID,
		Name:             task.Name(queuePath),
		QueueName:        task.QueueName,
		SourceAudioUID:   task.SourceAudioUID,
		TargetURL:        task.TargetURL,
		Status:           string(task.Status),
		Attempts:         task.Attempts,
		ErrorMessage:     task.ErrorMessage,
		DispatchDeadline: task.DispatchDeadline().String(),
	}
	if !task.CreatedAt.IsZero() {
		dto.CreatedAt = task.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !task.UpdatedAt.IsZero() {
		dto.UpdatedAt = task.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	if task.LastHeartbeat != nil {
		dto.LastHeartbeat = task.LastHeartbeat.UTC().Format(dateTimeFormat)
	}
	if raw := task.PayloadJSON; raw != "" && json.Valid([]byte(raw)) {
		dto.Payload = json.RawMessage(raw)
	}
	return dto
}

// FromTasks converts a slice of queue records into API DTOs.
func FromTasks(tasks []*queue.Task, queuePath string) []Task {
	if len(tasks) == 0 {
		return nil
	}
	out := make([]Task, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, FromTask(task, queuePath))
	}
	return out
}

// FromStatusSummary converts a worker status summary to API payload.
func FromStatusSummary(summary worker.StatusSummary) WorkerStatus {
	status := WorkerStatus{
		Running:    summary.Running,
		QueuePath:  summary.QueuePath,
		Dispatched: summary.Dispatched,
		QueueStats: MergeQueueStats(summary.QueueStats),
		LastError:  summary.LastError,
	}
	if summary.LastTask != nil {
		last := FromTask(summary.LastTask, summary.QueuePath)
		status.LastTask = &last
	}
	return status
}

// MergeQueueStats fills in every known status so consumers always see the
// full set of counters.
func MergeQueueStats(stats map[queue.Status]int) map[string]int {
	out := make(map[string]int, len(queue.AllStatuses()))
	for _, status := range queue.AllStatuses() {
		out[string(status)] = 0
	}
	for status, count := range stats {
		out[string(status)] = count
	}
	return out
}
