// Package retell wraps the conversational-voice provider's HTTP API.
package retell

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.retellai.com"

// Tuning constants applied to every provisioned agent. These control how
// lifelike the simulated customer sounds on the call.
const (
	ambientSound            = "call-center"
	backchannelFrequency    = 0.8
	interruptionSensitivity = 0.9
	responsiveness          = 1.0
)

// Client talks to the voice-agent provider. BaseURL is overridable so tests
// can point it at a local httptest server.
type Client struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
}

// NewClient creates a provider client with sane HTTP defaults.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		APIKey:  apiKey,
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// AgentParams configures a dynamic agent for one training call.
type AgentParams struct {
	Name         string
	Prompt       string
	VoiceID      string
	FirstMessage string
}

// Agent holds the provider identifiers for a provisioned agent and its LLM
// config.
type Agent struct {
	AgentID string
	LLMID   string
}

// WebCall is an open browser-compatible call session.
type WebCall struct {
	CallID      string
	AccessToken string
	SampleRate  int
}

// CreateAgent provisions a remote LLM config, then an agent bound to it and
// the given voice. Provider failures are logged and propagated; there is no
// retry here.
func (c *Client) CreateAgent(ctx context.Context, p AgentParams) (*Agent, error) {
	var llmResp struct {
		LLMID string `json:"llm_id"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/create-retell-llm", map[string]any{
		"general_prompt": p.Prompt,
		"begin_message":  p.FirstMessage,
	}, &llmResp)
	if err != nil {
		slog.Error("Failed to create LLM config", "error", err)
		return nil, fmt.Errorf("create llm config: %w", err)
	}

	var agentResp struct {
		AgentID string `json:"agent_id"`
	}
	err = c.doJSON(ctx, http.MethodPost, "/create-agent", map[string]any{
		"agent_name": p.Name,
		"voice_id":   p.VoiceID,
		"response_engine": map[string]any{
			"type":   "retell-llm",
			"llm_id": llmResp.LLMID,
		},
		"ambient_sound":            ambientSound,
		"enable_backchannel":       true,
		"backchannel_frequency":    backchannelFrequency,
		"interruption_sensitivity": interruptionSensitivity,
		"responsiveness":           responsiveness,
	}, &agentResp)
	if err != nil {
		slog.Error("Failed to create agent", "llm_id", llmResp.LLMID, "error", err)
		return nil, fmt.Errorf("create agent: %w", err)
	}

	return &Agent{AgentID: agentResp.AgentID, LLMID: llmResp.LLMID}, nil
}

// CreateWebCall opens a browser call session tied to agentID.
func (c *Client) CreateWebCall(ctx context.Context, agentID string) (*WebCall, error) {
	var resp struct {
		CallID      string `json:"call_id"`
		AccessToken string `json:"access_token"`
		SampleRate  int    `json:"sample_rate"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/v2/create-web-call", map[string]any{
		"agent_id": agentID,
	}, &resp)
	if err != nil {
		slog.Error("Failed to create web call", "agent_id", agentID, "error", err)
		return nil, fmt.Errorf("create web call: %w", err)
	}
	if resp.SampleRate == 0 {
		resp.SampleRate = 24000
	}
	return &WebCall{CallID: resp.CallID, AccessToken: resp.AccessToken, SampleRate: resp.SampleRate}, nil
}

// EndCall signals the provider to terminate the call. The provider finalizes
// transcripts asynchronously; use WaitForTranscript before reading one.
func (c *Client) EndCall(ctx context.Context, callID string) error {
	if err := c.doJSON(ctx, http.MethodPost, "/v2/stop-call/"+callID, nil, nil); err != nil {
		slog.Error("Failed to end call", "call_id", callID, "error", err)
		return fmt.Errorf("end call: %w", err)
	}
	return nil
}

// DeleteAgent removes a dynamic agent after its call. Best-effort: failures
// are logged and reported as false, never propagated, so cleanup cannot
// abort a caller's broader flow.
func (c *Client) DeleteAgent(ctx context.Context, agentID string) bool {
	if err := c.doJSON(ctx, http.MethodDelete, "/delete-agent/"+agentID, nil, nil); err != nil {
		slog.Warn("Failed to delete agent", "agent_id", agentID, "error", err)
		return false
	}
	return true
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(data))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
