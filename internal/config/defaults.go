package config

const (
	defaultDataDir            = "~/.local/share/vinyl"
	defaultLogDir             = "~/.local/share/vinyl/logs"
	defaultAPIBind            = "127.0.0.1:8080"
	defaultASRBind            = "127.0.0.1:8081"
	defaultASRPredictURL      = "http://127.0.0.1:8081"
	defaultASRFallbackURL     = "https://machine-learning-lab-315009.web.app/stt-citrinet"
	defaultASRTimeoutSeconds  = 3600
	defaultASRConcurrency     = 50
	defaultSampleRate         = 16000
	defaultASREngine          = "command"
	defaultOpenAIModel        = "whisper-1"
	defaultSnippetTimeout     = 3600
	defaultDuplicateThreshold = 2
	defaultDuplicateLookup    = 3
	defaultTrainingDataPrefix = "training-data-multiple-speakers"
	defaultProjectID          = "project-id"
	defaultQueueName          = "audio-task-queue"
	defaultQueueLocation      = "asia-southeast1"
	defaultDispatchDeadline   = 1800
	defaultQueuePollInterval  = 5
	defaultErrorRetryInterval = 10
	defaultHeartbeatInterval  = 15
	defaultHeartbeatTimeout   = 120
	defaultQueueMaxAttempts   = 3
	defaultStorageBackend     = "local"
	defaultBucket             = "codelink-hal.appspot.com"
	defaultStorageDir         = "~/.local/share/vinyl/bucket"
	defaultSourceAudioPrefix  = "source-audios"
	defaultTopDB              = 45
	defaultFrameLength        = 2048
	defaultHopLength          = 512
	defaultYtDlpBinary        = "yt-dlp"
	defaultFFmpegBinary       = "ffmpeg"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	predictionListRoute       = "/asr-prediction-list"
	defaultConfigRelativePath = "~/.config/vinyl/config.toml"
	defaultProjectConfigFile  = "vinyl.toml"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
			ASRBind: defaultASRBind,
		},
		ASR: ASR{
			FallbackURL:    defaultASRFallbackURL,
			TimeoutSeconds: defaultASRTimeoutSeconds,
			Concurrency:    defaultASRConcurrency,
			SampleRate:     defaultSampleRate,
			Engine:         defaultASREngine,
			OpenAIModel:    defaultOpenAIModel,
		},
		Snippets: Snippets{
			TimeoutSeconds:     defaultSnippetTimeout,
			DuplicateThreshold: defaultDuplicateThreshold,
			LookupLimit:        defaultDuplicateLookup,
			TrainingDataPrefix: defaultTrainingDataPrefix,
		},
		Queue: Queue{
			Location:                defaultQueueLocation,
			DispatchDeadlineSeconds: defaultDispatchDeadline,
			PollInterval:            defaultQueuePollInterval,
			ErrorRetryInterval:      defaultErrorRetryInterval,
			HeartbeatInterval:       defaultHeartbeatInterval,
			HeartbeatTimeout:        defaultHeartbeatTimeout,
			MaxAttempts:             defaultQueueMaxAttempts,
		},
		Storage: Storage{
			Backend:           defaultStorageBackend,
			Bucket:            defaultBucket,
			LocalDir:          defaultStorageDir,
			SourceAudioPrefix: defaultSourceAudioPrefix,
		},
		Segmenter: Segmenter{
			TopDB:       defaultTopDB,
			FrameLength: defaultFrameLength,
			HopLength:   defaultHopLength,
		},
		YouTube: YouTube{
			YtDlpBinary:  defaultYtDlpBinary,
			FFmpegBinary: defaultFFmpegBinary,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
