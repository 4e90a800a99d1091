// Package config loads, normalizes, and validates vinyl configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the environment variables the
// deployed services have always used (ASR_PREDICT_URL, CREATE_SNIPPET_URL,
// PROJECT_ID, QUEUE_NAME, PORT). The Config type centralizes every knob the
// orchestration service, the ASR backend, and the CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
