package api

import "encoding/json"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Task describes a queue entry in a transport-friendly format.
type Task struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	QueueName        string          `json:"queueName"`
	SourceAudioUID   string          `json:"sourceAudioUid,omitempty"`
	TargetURL        string          `json:"targetUrl"`
	Status           string          `json:"status"`
	Attempts         int             `json:"attempts"`
	ErrorMessage     string          `json:"errorMessage,omitempty"`
	DispatchDeadline string          `json:"dispatchDeadline"`
	CreatedAt        string          `json:"createdAt,omitempty"`
	UpdatedAt        string          `json:"updatedAt,omitempty"`
	LastHeartbeat    string          `json:"lastHeartbeat,omitempty"`
	Payload          json.RawMessage `json:"payload,omitempty"`
}

// WorkerStatus summarizes queue worker state.
type WorkerStatus struct {
	Running    bool           `json:"running"`
	QueuePath  string         `json:"queuePath"`
	Dispatched int64          `json:"dispatched"`
	QueueStats map[string]int `json:"queueStats"`
	LastError  string         `json:"lastError,omitempty"`
	LastTask   *Task          `json:"lastTask,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// DaemonStatus aggregates service runtime information for API consumers.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	QueueDBPath  string             `json:"queueDbPath"`
	StoreDBPath  string             `json:"storeDbPath"`
	LockFilePath string             `json:"lockFilePath"`
	Listen       string             `json:"listen,omitempty"`
	Worker       WorkerStatus       `json:"worker"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// QueueListResponse wraps a collection of tasks for API responses.
type QueueListResponse struct {
	Items []Task `json:"items"`
}

// QueueItemResponse wraps a single task.
type QueueItemResponse struct {
	Item Task `json:"item"`
}

// QueueStatsResponse provides a normalized queue stats payload.
type QueueStatsResponse struct {
	Counts map[string]int `json:"counts"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}
