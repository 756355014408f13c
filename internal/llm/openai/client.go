package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/docparser/internal/llm"
)

var _ llm.InferenceClient = (*Client)(nil)

var chatCompletionSchema = llm.MustCompileSchema("chat-completion.json", map[string]any{
	"type":     "object",
	"required": []string{"choices"},
	"properties": map[string]any{
		"choices": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type":     "object",
				"required": []string{"message"},
				"properties": map[string]any{
					"message": map[string]any{
						"type":     "object",
						"required": []string{"content"},
						"properties": map[string]any{
							"content": map[string]any{"type": "string"},
						},
					},
				},
			},
		},
	},
})

type chatCompletion struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Invoke sends prompt as a single user message to /chat/completions.
func (c *Client) Invoke(ctx context.Context, prompt string) (string, error) {
	start := time.Now()

	body := map[string]any{
		"model": c.cfg.Model,
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
		},
	}
	if c.cfg.Temperature != nil {
		body["temperature"] = *c.cfg.Temperature
	}
	headers := map[string]string{}
	if c.cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + c.cfg.APIKey
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, _, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}

	if err := llm.ValidateJSON(chatCompletionSchema, raw); err != nil {
		c.logger.Error("llm.openai.schema_validation_failed", "error", err, "raw_bytes", len(raw))
		return "", fmt.Errorf("openai response: %w", err)
	}
	var cc chatCompletion
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}

	content := cc.Choices[0].Message.Content
	c.logger.Debug("llm.openai.ok",
		"model", c.cfg.Model,
		"prompt_len", len(prompt),
		"response_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}
