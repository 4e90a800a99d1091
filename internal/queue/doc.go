// Package queue persists ASR prediction tasks in SQLite and exposes helpers for
// driving their lifecycle.
//
// Tasks move pending -> dispatching -> completed | failed. The worker package
// claims pending tasks, records heartbeats while the HTTP dispatch is in
// flight, and stale dispatching tasks are reclaimed after a heartbeat timeout.
// Task names follow projects/{project}/locations/{location}/queues/{queue}/tasks/{id}
// so logs and API responses read the same as a hosted task queue would.
//
// Schema changes bump schemaVersion in schema.go; operators clear the queue
// database to adopt the new schema.
package queue
