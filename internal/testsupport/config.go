package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Paths.ASRBind = "127.0.0.1:0"
	cfgVal.ASR.PredictURL = "http://127.0.0.1:8081"
	cfgVal.Snippets.CreateURL = "http://127.0.0.1:8080/snippets"
	cfgVal.Queue.ProjectID = "test-project"
	cfgVal.Queue.QueueName = "test-queue"
	cfgVal.Queue.TargetURL = "http://127.0.0.1:8080/asr-prediction-list"
	cfgVal.Storage.Backend = config.StorageBackendLocal
	cfgVal.Storage.LocalDir = filepath.Join(base, "bucket")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithAPIToken protects the queue target route with a bearer token.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.APIToken = token
		b.cfg.Queue.AuthToken = token
	}
}

// WithPredictURL points the ASR client at a test server.
func WithPredictURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.ASR.PredictURL = url
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and yt-dlp are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "yt-dlp"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
