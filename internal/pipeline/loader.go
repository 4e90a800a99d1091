package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/audio"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/blob"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/config"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/services"
)

// StoredInput names audio already in the bucket. It is the queue payload.
type StoredInput struct {
	SourceAudioUID string   `json:"sourceAudioUid"`
	AudioPath      string   `json:"audioPath"`
	Text           string   `json:"text"`
	TopDB          *float64 `json:"top_db"`
}

// RemoteInput names audio and transcript by URL.
type RemoteInput struct {
	AudioPath string   `json:"audio_path"`
	TextPath  string   `json:"text_path"`
	TopDB     *float64 `json:"top_db"`
}

// Loader resolves request bodies into a processable Request.
type Loader struct {
	bucket     blob.Bucket
	audio      *audio.Loader
	http       *http.Client
	sampleRate int
}

// NewLoader builds a loader resampling everything to asr.sample_rate.
func NewLoader(cfg *config.Config, bucket blob.Bucket) *Loader {
	return &Loader{
		bucket:     bucket,
		audio:      audio.NewLoader(cfg.YouTube.FFmpegBinary),
		http:       &http.Client{Timeout: cfg.ASRTimeout()},
		sampleRate: cfg.ASR.SampleRate,
	}
}

// WithAudioLoader swaps the audio loader. Intended for tests.
func (l *Loader) WithAudioLoader(loader *audio.Loader) *Loader {
	if loader != nil {
		l.audio = loader
	}
	return l
}

// FromUpload decodes an uploaded file with its reference transcript. Uploads
// are never tied to a stored source audio.
func (l *Loader) FromUpload(ctx context.Context, data []byte, speech string) (Request, error) {
	sig, err := l.audio.LoadBytes(ctx, data, l.sampleRate)
	if err != nil {
		return Request{}, services.Wrap(services.ErrValidation, "pipeline", "decode upload", "unsupported audio", err)
	}
	return Request{Signal: sig, Reference: speech}, nil
}

// FromJSON accepts either a StoredInput (recognized by the sourceAudioUid
// key) or a RemoteInput.
func (l *Loader) FromJSON(ctx context.Context, body []byte) (Request, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(body, &keys); err != nil || len(keys) == 0 {
		return Request{}, services.Wrap(services.ErrValidation, "pipeline", "decode body", "expected a json object", err)
	}
	if _, ok := keys["sourceAudioUid"]; ok {
		var in StoredInput
		if err := json.Unmarshal(body, &in); err != nil {
			return Request{}, services.Wrap(services.ErrValidation, "pipeline", "decode body", "invalid stored audio request", err)
		}
		return l.FromStorage(ctx, in)
	}
	var in RemoteInput
	if err := json.Unmarshal(body, &in); err != nil {
		return Request{}, services.Wrap(services.ErrValidation, "pipeline", "decode body", "invalid remote audio request", err)
	}
	return l.FromRemote(ctx, in)
}

// FromStorage downloads the object at AudioPath from the bucket.
func (l *Loader) FromStorage(ctx context.Context, in StoredInput) (Request, error) {
	if strings.TrimSpace(in.AudioPath) == "" {
		return Request{}, services.Wrap(services.ErrValidation, "pipeline", "load storage", "audioPath is required", nil)
	}
	topDB, err := parseTopDB(in.TopDB)
	if err != nil {
		return Request{}, err
	}
	data, err := blob.ReadAll(ctx, l.bucket, in.AudioPath)
	if errors.Is(err, blob.ErrObjectNotFound) {
		return Request{}, services.Wrap(services.ErrNotFound, "pipeline", "load storage", "audio object not found", err)
	}
	if err != nil {
		return Request{}, err
	}
	sig, err := l.audio.LoadBytes(ctx, data, l.sampleRate)
	if err != nil {
		return Request{}, services.Wrap(services.ErrExternalTool, "pipeline", "decode storage", in.AudioPath, err)
	}
	return Request{
		Signal:         sig,
		Reference:      in.Text,
		TopDB:          topDB,
		SourceAudioUID: in.SourceAudioUID,
	}, nil
}

// FromRemote downloads audio and transcript over HTTP.
func (l *Loader) FromRemote(ctx context.Context, in RemoteInput) (Request, error) {
	if strings.TrimSpace(in.AudioPath) == "" || strings.TrimSpace(in.TextPath) == "" {
		return Request{}, services.Wrap(services.ErrValidation, "pipeline", "load remote", "audio_path and text_path are required", nil)
	}
	topDB, err := parseTopDB(in.TopDB)
	if err != nil {
		return Request{}, err
	}
	data, err := l.fetch(ctx, in.AudioPath)
	if err != nil {
		return Request{}, err
	}
	text, err := l.fetch(ctx, in.TextPath)
	if err != nil {
		return Request{}, err
	}
	sig, err := l.audio.LoadBytes(ctx, data, l.sampleRate)
	if err != nil {
		return Request{}, services.Wrap(services.ErrExternalTool, "pipeline", "decode remote", in.AudioPath, err)
	}
	return Request{Signal: sig, Reference: string(text), TopDB: topDB}, nil
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "fetch", fmt.Sprintf("invalid url %q", url), err)
	}
	resp, err := l.http.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "pipeline", "fetch", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, services.Wrap(services.ErrExternalTool, "pipeline", "fetch",
			fmt.Sprintf("%s returned %d", url, resp.StatusCode), nil)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "pipeline", "fetch", url, err)
	}
	return data, nil
}

// parseTopDB maps an absent top_db to 0, which selects the default threshold.
// An explicit value must be positive.
func parseTopDB(value *float64) (float64, error) {
	if value == nil {
		return 0, nil
	}
	if *value <= 0 {
		return 0, services.Wrap(services.ErrValidation, "pipeline", "decode body", "top_db must be positive", nil)
	}
	return *value, nil
}
