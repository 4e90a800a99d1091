package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/config"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/logging"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/services"
)

// PredictRoute is the path served by the backend.
const PredictRoute = "/asr-predict"

// SegmentFilename is the multipart filename used for uploaded segments.
const SegmentFilename = "audio.wav"

// Prediction is the backend response body.
type Prediction struct {
	Prediction string `json:"prediction"`
}

// Client calls the ASR backend over HTTP.
type Client struct {
	http        *http.Client
	logger      *slog.Logger
	predictURL  string
	fallbackURL string
}

// NewClient builds a client from the asr config section.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	return &Client{
		http:        &http.Client{Timeout: cfg.ASRTimeout()},
		logger:      logging.NewComponentLogger(logger, "asr-client"),
		predictURL:  strings.TrimRight(cfg.ASR.PredictURL, "/") + PredictRoute,
		fallbackURL: cfg.ASR.FallbackURL,
	}
}

// Endpoint picks the URL for a segment. Without reference text there is
// nothing to align against, so the general-purpose fallback model is used.
func (c *Client) Endpoint(reference string) string {
	if reference == "" && c.fallbackURL != "" {
		return c.fallbackURL
	}
	return c.predictURL
}

// Predict uploads wav to url and returns the recognized text. A response
// that is not a prediction document yields "" rather than an error.
func (c *Client) Predict(ctx context.Context, wav []byte, url string) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", SegmentFilename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(wav); err != nil {
		return "", fmt.Errorf("write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "asr-client", "build request", "invalid predict url", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "asr-client", "predict", "request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "asr-client", "predict", "read response", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		logging.WarnWithContext(c.logger, "asr response was not json", "asr_parse_failed",
			logging.Int("status", resp.StatusCode),
			logging.String("url", url),
			logging.String(logging.FieldImpact, "segment gets an empty prediction"),
		)
		return "", nil
	}
	var text string
	if value, ok := fields["prediction"]; !ok || json.Unmarshal(value, &text) != nil {
		logging.WarnWithContext(c.logger, "asr response missing prediction", "asr_parse_failed",
			logging.Int("status", resp.StatusCode),
			logging.String("url", url),
			logging.String(logging.FieldImpact, "segment gets an empty prediction"),
		)
		return "", nil
	}
	return text, nil
}
