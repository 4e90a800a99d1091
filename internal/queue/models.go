package queue

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of a task.
type Status string

const (
	StatusPending     Status = "pending"
	StatusDispatching Status = "dispatching"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

// DefaultDispatchDeadline applies when a task is enqueued without a deadline.
const DefaultDispatchDeadline = 1800 * time.Second

var allStatuses = []Status{
	StatusPending,
	StatusDispatching,
	StatusCompleted,
	StatusFailed,
}

// AllStatuses returns every known task status in lifecycle order.
func AllStatuses() []Status {
	return append([]Status(nil), allStatuses...)
}

// ParseStatus converts a user-supplied string into a Status.
func ParseStatus(value string) (Status, bool) {
	candidate := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == candidate {
			return status, true
		}
	}
	return "", false
}

// Payload is the JSON body delivered to a task's target URL.
type Payload struct {
	SourceAudioUID string `json:"sourceAudioUid"`
	AudioPath      string `json:"audioPath"`
	Text           string `json:"text"`
}

// NewTask describes a task to enqueue.
type NewTask struct {
	QueueName        string
	SourceAudioUID   string
	TargetURL        string
	Payload          any
	DispatchDeadline time.Duration
}

// Task represents a queued HTTP dispatch persisted in SQLite.
type Task struct {
	ID                      int64
	QueueName               string
	SourceAudioUID          string
	TargetURL               string
	PayloadJSON             string
	Status                  Status
	Attempts                int
	ErrorMessage            string
	DispatchDeadlineSeconds int
	CreatedAt               time.Time
	UpdatedAt               time.Time
	LastHeartbeat           *time.Time
}

// Name renders the fully qualified task name under queuePath.
func (t Task) Name(queuePath string) string {
	return fmt.Sprintf("%s/tasks/%d", strings.TrimRight(queuePath, "/"), t.ID)
}

// DispatchDeadline returns the per-attempt deadline for the task.
func (t Task) DispatchDeadline() time.Duration {
	if t.DispatchDeadlineSeconds <= 0 {
		return DefaultDispatchDeadline
	}
	return time.Duration(t.DispatchDeadlineSeconds) * time.Second
}

// DecodePayload unmarshals the stored payload into dest.
func (t Task) DecodePayload(dest any) error {
	if err := json.Unmarshal([]byte(t.PayloadJSON), dest); err != nil {
		return fmt.Errorf("decode task %d payload: %w", t.ID, err)
	}
	return nil
}

// IsTerminal reports whether the task will not be dispatched again without a retry.
func (t Task) IsTerminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusFailed
}

// HealthSummary describes aggregated task counts per lifecycle state.
type HealthSummary struct {
	Total       int
	Pending     int
	Dispatching int
	Failed      int
	Completed   int
}
