// Package daemon coordinates the long-running vinyl orchestration service.
//
// It wires configuration, the task queue, the document store, the blob bucket,
// the queue worker, and the HTTP API into a single lifecycle with flock-based
// locking to prevent two services from draining the same data directory. The
// daemon also reports dependency health for the status endpoint.
//
// Keep orchestration logic here: request handling lives in internal/server and
// the processing steps in their respective packages, while the daemon focuses
// on startup, shutdown, and high level coordination.
package daemon
