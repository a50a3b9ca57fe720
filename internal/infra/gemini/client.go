// Package gemini calls the Gemini generateContent endpoint and returns the
// candidate text.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"quizterios-service/internal/domain"
)

const (
	DefaultBaseURL   = "https://generativelanguage.googleapis.com"
	maxResponseBytes = 1 << 20
)

// Config configures the endpoint and credential.
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Client implements provider.Generator.
type Client struct {
	cfg Config
}

func NewClient(cfg Config) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Client{cfg: cfg}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

// Generate sends prompt to model and returns the concatenated text parts of
// the first candidate. A missing key is reported per call, not at startup.
func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	apiKey := strings.TrimSpace(c.cfg.APIKey)
	model = strings.TrimSpace(model)
	if apiKey == "" {
		return "", domain.ErrMissingAPIKey
	}
	if model == "" {
		return "", fmt.Errorf("model is required")
	}
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("prompt is required")
	}

	requestBody, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1beta/models/" + url.PathEscape(model) + ":generateContent"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(requestBody))
	if err != nil {
		return "", fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// The key travels only in this header and is never echoed in errors.
	req.Header.Set("x-goog-api-key", apiKey)

	res, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read generate response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg := gjson.GetBytes(body, "error.message").String()
		if msg == "" {
			msg = strings.TrimSpace(string(body))
			if len(msg) > 4096 {
				msg = msg[:4096]
			}
		}
		return "", fmt.Errorf("generate request status %d: %s", res.StatusCode, msg)
	}
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("decode generate response: invalid json")
	}

	var text strings.Builder
	for _, p := range gjson.GetBytes(body, "candidates.0.content.parts.#.text").Array() {
		text.WriteString(p.String())
	}
	out := strings.TrimSpace(text.String())
	if out == "" {
		reason := gjson.GetBytes(body, "promptFeedback.blockReason").String()
		if reason != "" {
			return "", fmt.Errorf("generate response blocked: %s", reason)
		}
		return "", fmt.Errorf("generate response missing text")
	}
	return out, nil
}
