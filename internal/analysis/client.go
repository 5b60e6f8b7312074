// Package analysis scores call transcripts and extracts structured facts by
// delegating to an external LLM.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion        = "2023-06-01"
	defaultModel            = "claude-sonnet-4-20250514"
	defaultMaxTokens        = 2048
)

// LLMClient produces a text completion for a system/user prompt pair.
type LLMClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Claude is the Anthropic Messages API client. Server errors and transport
// failures are retried with exponential backoff; 4xx responses are not.
type Claude struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	HTTP      *http.Client
}

// NewClaude creates a client with defaults filled in.
func NewClaude(apiKey, baseURL, model string) *Claude {
	if baseURL == "" {
		baseURL = defaultAnthropicBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	return &Claude{
		APIKey:    apiKey,
		BaseURL:   baseURL,
		Model:     model,
		MaxTokens: defaultMaxTokens,
		HTTP:      &http.Client{Timeout: 60 * time.Second},
	}
}

// Complete sends one user message under the given system prompt and returns
// the model's text reply.
func (c *Claude) Complete(ctx context.Context, system, user string) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"model":      c.Model,
		"max_tokens": c.MaxTokens,
		"system":     system,
		"messages": []map[string]string{
			{"role": "user", "content": user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	var text string
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/messages", bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("x-api-key", c.APIKey)
		req.Header.Set("anthropic-version", anthropicVersion)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.HTTP.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return err
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("llm server error: status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("llm request rejected: status %d: %s", resp.StatusCode, bytes.TrimSpace(body)))
		}

		var parsed struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("decode llm response: %w", err))
		}
		text = ""
		for _, block := range parsed.Content {
			if block.Type == "text" {
				text += block.Text
			}
		}
		if text == "" {
			return backoff.Permanent(fmt.Errorf("llm response contained no text"))
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 30 * time.Second
	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return "", fmt.Errorf("llm completion: %w", err)
	}
	return text, nil
}
