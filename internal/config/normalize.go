package config

import (
	"fmt"
	"net"
	"os"
	"strings"
)

// Storage backends understood by the blob package.
const (
	StorageBackendLocal = "local"
	StorageBackendGCS   = "gcs"
)

// ASR engines understood by the ASR backend service.
const (
	EngineCommand = "command"
	EngineOpenAI  = "openai"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeASR()
	c.normalizeSnippets()
	c.normalizeQueue()
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	c.normalizeYouTube()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	// PORT always wins so container platforms can assign the listener.
	if value, ok := os.LookupEnv("PORT"); ok && strings.TrimSpace(value) != "" {
		host, _, splitErr := net.SplitHostPort(c.Paths.APIBind)
		if splitErr != nil {
			host = ""
		}
		c.Paths.APIBind = net.JoinHostPort(host, strings.TrimSpace(value))
	}
	c.Paths.ASRBind = strings.TrimSpace(c.Paths.ASRBind)
	if c.Paths.ASRBind == "" {
		c.Paths.ASRBind = defaultASRBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("VINYL_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeASR() {
	c.ASR.PredictURL = strings.TrimSpace(c.ASR.PredictURL)
	if c.ASR.PredictURL == "" {
		if value, ok := os.LookupEnv("ASR_PREDICT_URL"); ok {
			c.ASR.PredictURL = strings.TrimSpace(value)
		}
	}
	if c.ASR.PredictURL == "" {
		c.ASR.PredictURL = defaultASRPredictURL
	}
	c.ASR.PredictURL = strings.TrimRight(c.ASR.PredictURL, "/")
	c.ASR.FallbackURL = strings.TrimSpace(c.ASR.FallbackURL)
	c.ASR.Engine = strings.ToLower(strings.TrimSpace(c.ASR.Engine))
	if c.ASR.Engine == "" {
		c.ASR.Engine = defaultASREngine
	}
	cleaned := c.ASR.EngineCommand[:0]
	for _, part := range c.ASR.EngineCommand {
		if part = strings.TrimSpace(part); part != "" {
			cleaned = append(cleaned, part)
		}
	}
	c.ASR.EngineCommand = cleaned
	c.ASR.OpenAIModel = strings.TrimSpace(c.ASR.OpenAIModel)
	if c.ASR.OpenAIModel == "" {
		c.ASR.OpenAIModel = defaultOpenAIModel
	}
	c.ASR.OpenAIBaseURL = strings.TrimSpace(c.ASR.OpenAIBaseURL)
	c.ASR.OpenAIAPIKey = strings.TrimSpace(c.ASR.OpenAIAPIKey)
	if c.ASR.OpenAIAPIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.ASR.OpenAIAPIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeSnippets() {
	c.Snippets.CreateURL = strings.TrimSpace(c.Snippets.CreateURL)
	if c.Snippets.CreateURL == "" {
		if value, ok := os.LookupEnv("CREATE_SNIPPET_URL"); ok {
			c.Snippets.CreateURL = strings.TrimSpace(value)
		}
	}
	if c.Snippets.CreateURL == "" {
		c.Snippets.CreateURL = c.LocalServiceURL() + "/snippets"
	}
	c.Snippets.TrainingDataPrefix = strings.Trim(strings.TrimSpace(c.Snippets.TrainingDataPrefix), "/")
	if c.Snippets.TrainingDataPrefix == "" {
		c.Snippets.TrainingDataPrefix = defaultTrainingDataPrefix
	}
}

func (c *Config) normalizeQueue() {
	c.Queue.ProjectID = strings.TrimSpace(c.Queue.ProjectID)
	if c.Queue.ProjectID == "" {
		if value, ok := os.LookupEnv("PROJECT_ID"); ok {
			c.Queue.ProjectID = strings.TrimSpace(value)
		}
	}
	if c.Queue.ProjectID == "" {
		c.Queue.ProjectID = defaultProjectID
	}
	c.Queue.QueueName = strings.TrimSpace(c.Queue.QueueName)
	if c.Queue.QueueName == "" {
		if value, ok := os.LookupEnv("QUEUE_NAME"); ok {
			c.Queue.QueueName = strings.TrimSpace(value)
		}
	}
	if c.Queue.QueueName == "" {
		c.Queue.QueueName = defaultQueueName
	}
	c.Queue.Location = strings.TrimSpace(c.Queue.Location)
	if c.Queue.Location == "" {
		c.Queue.Location = defaultQueueLocation
	}
	c.Queue.TargetURL = strings.TrimSpace(c.Queue.TargetURL)
	if c.Queue.TargetURL == "" {
		c.Queue.TargetURL = c.LocalServiceURL() + predictionListRoute
	}
	c.Queue.ServiceAccount = strings.TrimSpace(c.Queue.ServiceAccount)
	c.Queue.AuthToken = strings.TrimSpace(c.Queue.AuthToken)
	if c.Queue.AuthToken == "" {
		c.Queue.AuthToken = c.Paths.APIToken
	}
}

func (c *Config) normalizeStorage() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaultStorageBackend
	}
	c.Storage.Bucket = strings.TrimSpace(c.Storage.Bucket)
	if strings.TrimSpace(c.Storage.LocalDir) == "" {
		c.Storage.LocalDir = defaultStorageDir
	}
	var err error
	if c.Storage.LocalDir, err = expandPath(c.Storage.LocalDir); err != nil {
		return fmt.Errorf("storage.local_dir: %w", err)
	}
	c.Storage.SourceAudioPrefix = strings.Trim(strings.TrimSpace(c.Storage.SourceAudioPrefix), "/")
	if c.Storage.SourceAudioPrefix == "" {
		c.Storage.SourceAudioPrefix = defaultSourceAudioPrefix
	}
	c.Storage.CredentialsFile = strings.TrimSpace(c.Storage.CredentialsFile)
	if c.Storage.CredentialsFile == "" {
		if value, ok := os.LookupEnv("GOOGLE_APPLICATION_CREDENTIALS"); ok {
			c.Storage.CredentialsFile = strings.TrimSpace(value)
		}
	}
	if c.Storage.CredentialsFile != "" {
		if c.Storage.CredentialsFile, err = expandPath(c.Storage.CredentialsFile); err != nil {
			return fmt.Errorf("storage.credentials_file: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeYouTube() {
	c.YouTube.YtDlpBinary = strings.TrimSpace(c.YouTube.YtDlpBinary)
	if c.YouTube.YtDlpBinary == "" {
		c.YouTube.YtDlpBinary = defaultYtDlpBinary
	}
	c.YouTube.FFmpegBinary = strings.TrimSpace(c.YouTube.FFmpegBinary)
	if c.YouTube.FFmpegBinary == "" {
		c.YouTube.FFmpegBinary = defaultFFmpegBinary
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console", "text":
		c.Logging.Format = "console"
	default:
		c.Logging.Format = format
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
