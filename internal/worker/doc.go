// Package worker drains the task queue by delivering each task's payload to
// its target URL.
//
// A single loop claims the oldest pending task, marks it dispatching, keeps a
// heartbeat alive while the POST is in flight, and records the outcome. Tasks
// that fail with a retryable error go back to pending until queue.max_attempts
// is reached. Dispatching tasks whose heartbeat lapses (for example after a
// crash) are reclaimed on every loop iteration.
package worker
