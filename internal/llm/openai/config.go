package openai

import (
	"log/slog"
	"net/http"
	"os"
)

// Config for the OpenAI-compatible client.
type Config struct {
	APIKey      string  // if empty, falls back to env OPENAI_API_KEY
	BaseURL     string  // default https://api.openai.com/v1
	Model       string  // e.g., "gpt-4o-mini"
	Temperature *float32 // 0..2, nil = API default
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{},
		logger: logger,
	}
}
