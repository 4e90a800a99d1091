// Package services defines shared utilities consumed by the pipeline
// components and their HTTP front ends.
//
// Key responsibilities:
//   - Context helpers that stamp task IDs, source audio IDs, stage names, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper, with HTTPStatus and
//     Retryable translating a marker into a response code or a queue retry
//     decision.
package services
