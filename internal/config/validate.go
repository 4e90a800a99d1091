package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateASR(); err != nil {
		return err
	}
	if err := c.validateSnippets(); err != nil {
		return err
	}
	if err := c.validateQueue(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateSegmenter(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateASR() error {
	if err := validateURL("asr.predict_url", c.ASR.PredictURL); err != nil {
		return err
	}
	if c.ASR.FallbackURL != "" {
		if err := validateURL("asr.fallback_url", c.ASR.FallbackURL); err != nil {
			return err
		}
	}
	if c.ASR.TimeoutSeconds <= 0 {
		return errors.New("asr.timeout_seconds must be positive")
	}
	if c.ASR.Concurrency < 1 {
		return errors.New("asr.concurrency must be at least 1")
	}
	if c.ASR.SampleRate <= 0 {
		return errors.New("asr.sample_rate must be positive")
	}
	switch c.ASR.Engine {
	case EngineCommand, EngineOpenAI:
	default:
		return fmt.Errorf("asr.engine: unsupported value %q (want %q or %q)", c.ASR.Engine, EngineCommand, EngineOpenAI)
	}
	return nil
}

func (c *Config) validateSnippets() error {
	if err := validateURL("snippets.create_url", c.Snippets.CreateURL); err != nil {
		return err
	}
	if c.Snippets.TimeoutSeconds <= 0 {
		return errors.New("snippets.timeout_seconds must be positive")
	}
	if c.Snippets.DuplicateThreshold < 1 {
		return errors.New("snippets.duplicate_threshold must be at least 1")
	}
	if c.Snippets.LookupLimit < c.Snippets.DuplicateThreshold {
		return errors.New("snippets.lookup_limit must be at least snippets.duplicate_threshold")
	}
	return nil
}

func (c *Config) validateQueue() error {
	if err := validateURL("queue.target_url", c.Queue.TargetURL); err != nil {
		return err
	}
	if c.Queue.DispatchDeadlineSeconds <= 0 {
		return errors.New("queue.dispatch_deadline_seconds must be positive")
	}
	if c.Queue.PollInterval <= 0 {
		return errors.New("queue.poll_interval must be positive")
	}
	if c.Queue.ErrorRetryInterval <= 0 {
		return errors.New("queue.error_retry_interval must be positive")
	}
	if c.Queue.HeartbeatInterval <= 0 {
		return errors.New("queue.heartbeat_interval must be positive")
	}
	if c.Queue.HeartbeatTimeout <= c.Queue.HeartbeatInterval {
		return errors.New("queue.heartbeat_timeout must be greater than queue.heartbeat_interval")
	}
	if c.Queue.MaxAttempts < 1 {
		return errors.New("queue.max_attempts must be at least 1")
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case StorageBackendLocal:
		if c.Storage.LocalDir == "" {
			return errors.New("storage.local_dir must be set for the local backend")
		}
	case StorageBackendGCS:
		if c.Storage.Bucket == "" {
			return errors.New("storage.bucket must be set for the gcs backend")
		}
	default:
		return fmt.Errorf("storage.backend: unsupported value %q (want %q or %q)", c.Storage.Backend, StorageBackendLocal, StorageBackendGCS)
	}
	return nil
}

func (c *Config) validateSegmenter() error {
	if c.Segmenter.TopDB <= 0 {
		return errors.New("segmenter.top_db must be positive")
	}
	if c.Segmenter.HopLength <= 0 {
		return errors.New("segmenter.hop_length must be positive")
	}
	if c.Segmenter.FrameLength < c.Segmenter.HopLength {
		return errors.New("segmenter.frame_length must be at least segmenter.hop_length")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func validateURL(field, value string) error {
	if value == "" {
		return fmt.Errorf("%s must be set", field)
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http or https URL, got %q", field, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s is missing a host: %q", field, value)
	}
	return nil
}
