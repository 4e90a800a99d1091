package asr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/audio"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/config"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/services"
)

// Recognizer turns a mono signal into text.
type Recognizer interface {
	Recognize(ctx context.Context, sig audio.Signal) (string, error)
}

// NewRecognizer builds the engine selected by asr.engine.
func NewRecognizer(cfg *config.Config) (Recognizer, error) {
	switch cfg.ASR.Engine {
	case config.EngineCommand:
		return NewCommandRecognizer(cfg.ASR.EngineCommand, cfg.WorkDir())
	case config.EngineOpenAI:
		return NewOpenAIRecognizer(cfg.ASR.OpenAIAPIKey, cfg.ASR.OpenAIBaseURL, cfg.ASR.OpenAIModel)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "asr", "engine", fmt.Sprintf("unsupported engine %q", cfg.ASR.Engine), nil)
	}
}

// CommandRecognizer runs an external program per segment. The WAV path is
// appended to the configured arguments and stdout is the transcript.
type CommandRecognizer struct {
	command []string
	workDir string
	run     audio.CommandRunner
}

func runStdout(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if detail := strings.TrimSpace(stderr.String()); detail != "" {
			return out, fmt.Errorf("%w: %s", err, detail)
		}
	}
	return out, err
}

// NewCommandRecognizer validates the command line.
func NewCommandRecognizer(command []string, workDir string) (*CommandRecognizer, error) {
	if len(command) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "asr", "engine", "asr.engine_command is empty", nil)
	}
	return &CommandRecognizer{command: command, workDir: workDir, run: runStdout}, nil
}

// WithRunner swaps the command runner. Intended for tests.
func (r *CommandRecognizer) WithRunner(run audio.CommandRunner) *CommandRecognizer {
	if run != nil {
		r.run = run
	}
	return r
}

func (r *CommandRecognizer) Recognize(ctx context.Context, sig audio.Signal) (string, error) {
	wav, err := audio.EncodeWAV(sig.Samples, sig.SampleRate)
	if err != nil {
		return "", err
	}
	if r.workDir != "" {
		if err := os.MkdirAll(r.workDir, 0o755); err != nil {
			return "", fmt.Errorf("create work dir: %w", err)
		}
	}
	dir, err := os.MkdirTemp(r.workDir, "asr-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, SegmentFilename)
	if err := os.WriteFile(path, wav, 0o644); err != nil {
		return "", fmt.Errorf("write segment: %w", err)
	}

	args := append(append([]string{}, r.command[1:]...), path)
	out, err := r.run(ctx, r.command[0], args...)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "asr", "engine command", r.command[0]+" failed", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// OpenAIRecognizer sends segments to an OpenAI-compatible transcription API.
type OpenAIRecognizer struct {
	client *openai.Client
	model  string
}

// NewOpenAIRecognizer requires an API key; baseURL is optional.
func NewOpenAIRecognizer(apiKey, baseURL, model string) (*OpenAIRecognizer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "asr", "engine", "openai engine requires an api key", nil)
	}
	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.Whisper1
	}
	return &OpenAIRecognizer{client: openai.NewClientWithConfig(clientCfg), model: model}, nil
}

func (r *OpenAIRecognizer) Recognize(ctx context.Context, sig audio.Signal) (string, error) {
	wav, err := audio.EncodeWAV(sig.Samples, sig.SampleRate)
	if err != nil {
		return "", err
	}
	resp, err := r.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    r.model,
		FilePath: SegmentFilename,
		Reader:   bytes.NewReader(wav),
	})
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "asr", "transcription", "openai request failed", err)
	}
	return strings.TrimSpace(resp.Text), nil
}
