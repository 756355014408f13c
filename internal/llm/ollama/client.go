package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/joseph-ayodele/docparser/internal/llm"
)

const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "mistral"
)

// Config for the Ollama client.
type Config struct {
	BaseURL     string  // default http://localhost:11434
	Model       string  // default mistral
	Temperature *float32 // nil = server default
}

// Client calls Ollama's /api/generate with streaming disabled.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

var _ llm.InferenceClient = (*Client)(nil)

var responseSchema = llm.MustCompileSchema("ollama-generate.json", map[string]any{
	"type":     "object",
	"required": []string{"response"},
	"properties": map[string]any{
		"model":    map[string]any{"type": "string"},
		"response": map[string]any{"type": "string"},
		"done":     map[string]any{"type": "boolean"},
	},
})

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	// no client-level timeout; deadlines come from ctx
	return &Client{cfg: cfg, http: &http.Client{}, logger: logger}
}

type generateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options *modelOptions `json:"options,omitempty"`
}

type modelOptions struct {
	Temperature float32 `json:"temperature"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (c *Client) Invoke(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	body := generateRequest{Model: c.cfg.Model, Prompt: prompt, Stream: false}
	if c.cfg.Temperature != nil {
		body.Options = &modelOptions{Temperature: *c.cfg.Temperature}
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/api/generate"
	raw, _, err := llm.SendJSON(ctx, c.http, endpoint, body, nil, c.logger)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}

	if err := llm.ValidateJSON(responseSchema, raw); err != nil {
		c.logger.Error("llm.ollama.schema_validation_failed", "error", err, "raw_bytes", len(raw))
		return "", fmt.Errorf("ollama response: %w", err)
	}
	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}

	c.logger.Debug("llm.ollama.ok",
		"model", c.cfg.Model,
		"prompt_len", len(prompt),
		"response_len", len(out.Response),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out.Response, nil
}
