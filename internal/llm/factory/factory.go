package factory

import (
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/docparser/internal/common"
	"github.com/joseph-ayodele/docparser/internal/llm"
	"github.com/joseph-ayodele/docparser/internal/llm/ollama"
	"github.com/joseph-ayodele/docparser/internal/llm/openai"
)

// NewInferenceClient builds the configured provider, wrapped with the per-call timeout.
func NewInferenceClient(cfg common.LLMConfig, logger *slog.Logger) (llm.InferenceClient, error) {
	var client llm.InferenceClient
	switch cfg.Provider {
	case "", "ollama":
		client = ollama.NewClient(ollama.Config{
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
		}, logger)
	case "openai":
		client = openai.NewClient(openai.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
		}, logger)
	default:
		return nil, common.NewAppError(common.KindConfig, fmt.Sprintf("unsupported LLM provider: %s", cfg.Provider), common.ErrInvalidInput)
	}
	return llm.WithTimeout(client, cfg.Timeout), nil
}
