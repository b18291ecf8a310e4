package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"StockNewsTracker/internal/config"
	"StockNewsTracker/internal/enrich"
	"StockNewsTracker/internal/remote"
)

// GeminiClient talks to the Gemini generateContent API through the shared
// resilient executor, which owns the call budget and response cache.
type GeminiClient struct {
	cfg      config.GeminiConfig
	executor *remote.Executor
}

var _ enrich.Provider = (*GeminiClient)(nil)

// NewGeminiClient wires the provider settings and its dedicated executor.
func NewGeminiClient(cfg config.GeminiConfig, executor *remote.Executor) *GeminiClient {
	return &GeminiClient{cfg: cfg, executor: executor}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate submits the prompt and returns the first candidate's text.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", fmt.Errorf("gemini api key is not configured")
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.Endpoint, "/")
	url := fmt.Sprintf("%s/models/%s:generateContent", endpoint, c.cfg.Model)

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("x-goog-api-key", c.cfg.APIKey)

	payload, err := c.executor.Execute(ctx, remote.Request{
		Method: http.MethodPost,
		URL:    url,
		Header: header,
		Body:   body,
	})
	if err != nil {
		return "", fmt.Errorf("gemini call: %w", err)
	}

	var resp generateResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}
