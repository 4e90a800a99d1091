// Package api defines wire-format types and converters for the HTTP API and
// the CLI. It translates internal queue and worker models into
// transport-friendly DTOs so consumers do not couple to storage types.
//
// # Key Types
//
// Task: transport representation of a queued dispatch with its fully
// qualified task name and decoded payload.
//
// WorkerStatus: running state, queue stats, last error and last task.
//
// DaemonStatus: aggregated runtime information including dependencies.
//
// # Converters
//
// FromTask: queue.Task -> Task with formatted timestamps.
//
// FromStatusSummary: worker.StatusSummary -> WorkerStatus.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for the web client. Timestamps use RFC3339
// with milliseconds. Payloads are passed through as json.RawMessage to avoid
// double-encoding.
package api
