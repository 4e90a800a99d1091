package snippets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/config"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/services"
)

// Client posts snippet batches to the sink.
type Client struct {
	http *http.Client
	url  string
}

// NewClient targets snippets.create_url.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		http: &http.Client{Timeout: cfg.SnippetTimeout()},
		url:  cfg.Snippets.CreateURL,
	}
}

// Create sends the batch and returns the sink's JSON response.
func (c *Client) Create(ctx context.Context, req Request) (json.RawMessage, error) {
	if req.Snippets == nil {
		req.Snippets = []Record{}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode snippet request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "snippets", "build request", "invalid sink url", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "snippets", "create", "request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "snippets", "create", "read response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, services.Wrap(services.ErrExternalTool, "snippets", "create",
			fmt.Sprintf("sink returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))), nil)
	}
	if !json.Valid(raw) {
		return nil, services.Wrap(services.ErrExternalTool, "snippets", "create", "sink response is not json", nil)
	}
	return json.RawMessage(raw), nil
}
