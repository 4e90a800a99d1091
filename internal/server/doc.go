// Package server exposes the orchestration HTTP API: queue intake, the
// prediction-list target the worker dispatches to, the snippet sink, training
// data export, and read-only queue and status views.
//
// Routes are registered on a gorilla/mux router and wrapped with CORS and
// panic recovery from gorilla/handlers. Every request is stamped with a
// request id that flows into log records through the context.
package server
