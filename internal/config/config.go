package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	ASRBind  string `toml:"asr_bind"`
	APIToken string `toml:"api_token"`
}

// ASR configures the speech recognition backend and the client that calls it.
type ASR struct {
	PredictURL     string   `toml:"predict_url"`
	FallbackURL    string   `toml:"fallback_url"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	Concurrency    int      `toml:"concurrency"`
	SampleRate     int      `toml:"sample_rate"`
	Engine         string   `toml:"engine"`
	EngineCommand  []string `toml:"engine_command"`
	OpenAIModel    string   `toml:"openai_model"`
	OpenAIBaseURL  string   `toml:"openai_base_url"`
	OpenAIAPIKey   string   `toml:"openai_api_key"`
}

// Snippets configures the snippet sink and training-data export layout.
type Snippets struct {
	CreateURL          string `toml:"create_url"`
	TimeoutSeconds     int    `toml:"timeout_seconds"`
	DuplicateThreshold int    `toml:"duplicate_threshold"`
	LookupLimit        int    `toml:"lookup_limit"`
	TrainingDataPrefix string `toml:"training_data_prefix"`
}

// Queue configures the task queue and the dispatcher that drains it.
type Queue struct {
	ProjectID               string `toml:"project_id"`
	QueueName               string `toml:"queue_name"`
	Location                string `toml:"location"`
	TargetURL               string `toml:"target_url"`
	ServiceAccount          string `toml:"service_account"`
	AuthToken               string `toml:"auth_token"`
	DispatchDeadlineSeconds int    `toml:"dispatch_deadline_seconds"`
	PollInterval            int    `toml:"poll_interval"`
	ErrorRetryInterval      int    `toml:"error_retry_interval"`
	HeartbeatInterval       int    `toml:"heartbeat_interval"`
	HeartbeatTimeout        int    `toml:"heartbeat_timeout"`
	MaxAttempts             int    `toml:"max_attempts"`
}

// Storage selects the blob backend holding source audio and training data.
type Storage struct {
	Backend           string `toml:"backend"`
	Bucket            string `toml:"bucket"`
	LocalDir          string `toml:"local_dir"`
	SourceAudioPrefix string `toml:"source_audio_prefix"`
	CredentialsFile   string `toml:"credentials_file"`
}

// Segmenter holds the silence splitting parameters.
type Segmenter struct {
	TopDB       float64 `toml:"top_db"`
	FrameLength int     `toml:"frame_length"`
	HopLength   int     `toml:"hop_length"`
}

// YouTube names the external tools used to fetch audio from video URLs.
type YouTube struct {
	YtDlpBinary  string `toml:"ytdlp_binary"`
	FFmpegBinary string `toml:"ffmpeg_binary"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for vinyl.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories and bind addresses
//   - ASR: recognition backend URLs, engine selection, fan-out width
//   - Snippets: snippet sink URL and duplicate guard
//   - Queue: task queue naming and dispatcher timing
//   - Storage: blob backend for source audio
//   - Segmenter: silence split thresholds
//   - YouTube: download tooling
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	ASR       ASR       `toml:"asr"`
	Snippets  Snippets  `toml:"snippets"`
	Queue     Queue     `toml:"queue"`
	Storage   Storage   `toml:"storage"`
	Segmenter Segmenter `toml:"segmenter"`
	YouTube   YouTube   `toml:"youtube"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigRelativePath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and environment fallbacks applied.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigRelativePath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(defaultProjectConfigFile)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for service operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.Paths.LogDir}
	if c.Storage.Backend == StorageBackendLocal {
		dirs = append(dirs, c.Storage.LocalDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath is the SQLite file backing the document store.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "vinyl.db")
}

// QueueDatabasePath is the SQLite file backing the task queue.
func (c *Config) QueueDatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "queue.db")
}

// LockPath is the flock file guarding a single orchestration service per data dir.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "vinyl.lock")
}

// WorkDir holds transient downloads.
func (c *Config) WorkDir() string {
	return filepath.Join(c.Paths.DataDir, "work")
}

// ASRTimeout returns the per-request timeout for ASR backend calls.
func (c *Config) ASRTimeout() time.Duration {
	return time.Duration(c.ASR.TimeoutSeconds) * time.Second
}

// SnippetTimeout returns the timeout for snippet sink calls.
func (c *Config) SnippetTimeout() time.Duration {
	return time.Duration(c.Snippets.TimeoutSeconds) * time.Second
}

// DispatchDeadline returns the default per-task dispatch deadline.
func (c *Config) DispatchDeadline() time.Duration {
	return time.Duration(c.Queue.DispatchDeadlineSeconds) * time.Second
}

// QueuePath renders the fully qualified queue name in the familiar
// projects/{project}/locations/{location}/queues/{queue} form.
func (c *Config) QueuePath() string {
	return fmt.Sprintf("projects/%s/locations/%s/queues/%s", c.Queue.ProjectID, c.Queue.Location, c.Queue.QueueName)
}

// LocalServiceURL returns an http URL for the orchestration service's own bind address.
func (c *Config) LocalServiceURL() string {
	host, port, err := net.SplitHostPort(c.Paths.APIBind)
	if err != nil {
		return "http://" + c.Paths.APIBind
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
