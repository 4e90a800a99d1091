package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/config"
)

func clearServiceEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"ASR_PREDICT_URL", "CREATE_SNIPPET_URL", "PROJECT_ID", "QUEUE_NAME", "PORT", "OPENAI_API_KEY", "VINYL_API_TOKEN", "GOOGLE_APPLICATION_CREDENTIALS"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	clearServiceEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "vinyl")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "vinyl.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if cfg.ASR.PredictURL != "http://127.0.0.1:8081" {
		t.Fatalf("unexpected predict url: %q", cfg.ASR.PredictURL)
	}
	if cfg.ASR.Concurrency != 50 {
		t.Fatalf("expected concurrency 50, got %d", cfg.ASR.Concurrency)
	}
	if cfg.Segmenter.TopDB != 45 {
		t.Fatalf("expected top_db 45, got %v", cfg.Segmenter.TopDB)
	}
	if cfg.Queue.QueueName != "audio-task-queue" || cfg.Queue.ProjectID != "project-id" {
		t.Fatalf("unexpected queue identity: %+v", cfg.Queue)
	}
	if cfg.Queue.TargetURL != "http://127.0.0.1:8080/asr-prediction-list" {
		t.Fatalf("unexpected queue target: %q", cfg.Queue.TargetURL)
	}
	if cfg.Snippets.CreateURL != "http://127.0.0.1:8080/snippets" {
		t.Fatalf("unexpected snippet sink: %q", cfg.Snippets.CreateURL)
	}
	if got := cfg.QueuePath(); got != "projects/project-id/locations/asia-southeast1/queues/audio-task-queue" {
		t.Fatalf("unexpected queue path: %q", got)
	}
}

func TestLoadHonoursServiceEnvironment(t *testing.T) {
	clearServiceEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ASR_PREDICT_URL", "http://asr.internal:9000/")
	t.Setenv("CREATE_SNIPPET_URL", "https://sink.example.com/createSnippets")
	t.Setenv("PROJECT_ID", "tts-prod")
	t.Setenv("QUEUE_NAME", "audio-prod")
	t.Setenv("PORT", "9090")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ASR.PredictURL != "http://asr.internal:9000" {
		t.Fatalf("expected trimmed env predict url, got %q", cfg.ASR.PredictURL)
	}
	if cfg.Snippets.CreateURL != "https://sink.example.com/createSnippets" {
		t.Fatalf("unexpected sink url %q", cfg.Snippets.CreateURL)
	}
	if cfg.Queue.ProjectID != "tts-prod" || cfg.Queue.QueueName != "audio-prod" {
		t.Fatalf("unexpected queue identity: %+v", cfg.Queue)
	}
	if cfg.Paths.APIBind != "127.0.0.1:9090" {
		t.Fatalf("expected PORT to replace bind port, got %q", cfg.Paths.APIBind)
	}
	if cfg.Queue.TargetURL != "http://127.0.0.1:9090/asr-prediction-list" {
		t.Fatalf("expected target url to follow PORT, got %q", cfg.Queue.TargetURL)
	}
}

func TestLoadCustomPath(t *testing.T) {
	clearServiceEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "vinyl.toml")

	type payload struct {
		Paths struct {
			DataDir string `toml:"data_dir"`
		} `toml:"paths"`
		ASR struct {
			PredictURL  string `toml:"predict_url"`
			Concurrency int    `toml:"concurrency"`
		} `toml:"asr"`
		Segmenter struct {
			TopDB float64 `toml:"top_db"`
		} `toml:"segmenter"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Paths.DataDir = filepath.Join(tempDir, "data")
	custom.ASR.PredictURL = "http://asr.local:8000"
	custom.ASR.Concurrency = 8
	custom.Segmenter.TopDB = 30
	custom.Logging.Format = "JSON"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	t.Setenv("ASR_PREDICT_URL", "http://ignored:1")

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom config to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Paths.DataDir != filepath.Join(tempDir, "data") {
		t.Fatalf("unexpected data dir %q", cfg.Paths.DataDir)
	}
	if cfg.ASR.PredictURL != "http://asr.local:8000" {
		t.Fatalf("expected file value to beat env fallback, got %q", cfg.ASR.PredictURL)
	}
	if cfg.ASR.Concurrency != 8 {
		t.Fatalf("expected concurrency 8, got %d", cfg.ASR.Concurrency)
	}
	if cfg.Segmenter.TopDB != 30 {
		t.Fatalf("expected top_db 30, got %v", cfg.Segmenter.TopDB)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected normalized json format, got %q", cfg.Logging.Format)
	}
	if cfg.Segmenter.FrameLength != 2048 || cfg.Segmenter.HopLength != 512 {
		t.Fatalf("expected default framing to survive partial config, got %+v", cfg.Segmenter)
	}
}

func TestCreateSample(t *testing.T) {
	clearServiceEnv(t)
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[segmenter]") {
		t.Fatalf("sample config missing segmenter section: %s", data)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config should load cleanly: %v", err)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"concurrency", func(c *config.Config) { c.ASR.Concurrency = 0 }, "asr.concurrency"},
		{"engine", func(c *config.Config) { c.ASR.Engine = "wav2vec" }, "asr.engine"},
		{"predict url", func(c *config.Config) { c.ASR.PredictURL = "ftp://nope" }, "asr.predict_url"},
		{"lookup limit", func(c *config.Config) { c.Snippets.LookupLimit = 1 }, "snippets.lookup_limit"},
		{"backend", func(c *config.Config) { c.Storage.Backend = "s3" }, "storage.backend"},
		{"gcs bucket", func(c *config.Config) { c.Storage.Backend = "gcs"; c.Storage.Bucket = "" }, "storage.bucket"},
		{"top db", func(c *config.Config) { c.Segmenter.TopDB = 0 }, "segmenter.top_db"},
		{"framing", func(c *config.Config) { c.Segmenter.FrameLength = 100 }, "segmenter.frame_length"},
		{"heartbeat", func(c *config.Config) { c.Queue.HeartbeatTimeout = 1 }, "queue.heartbeat_timeout"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.ASR.PredictURL = "http://127.0.0.1:8081"
			cfg.Snippets.CreateURL = "http://127.0.0.1:8080/snippets"
			cfg.Queue.TargetURL = "http://127.0.0.1:8080/asr-prediction-list"
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error for %s", tt.name)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}
