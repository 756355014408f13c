package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/docparser/constants"
	"github.com/joseph-ayodele/docparser/internal/common"
	"github.com/joseph-ayodele/docparser/internal/llm"
	"github.com/joseph-ayodele/docparser/internal/prompt"
)

const (
	UploadFirstMessage = "Upload a document first."
	AnswerErrorPrefix  = "Error generating answer: "
)

// Classifier asks the model for a short document-type label.
type Classifier struct {
	client llm.InferenceClient
	logger *slog.Logger
}

func NewClassifier(client llm.InferenceClient, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{client: client, logger: logger}
}

// Classify returns the trimmed label as the model produced it. Labels outside
// the example list are accepted.
func (c *Classifier) Classify(ctx context.Context, text string) (string, error) {
	start := time.Now()
	out, err := c.client.Invoke(ctx, prompt.Classify(text))
	if err != nil {
		c.logger.Error("classify.failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", common.InferenceFailure("Classification", err)
	}
	label := strings.TrimSpace(out)
	c.logger.Info("classify.ok",
		"doc_type", label,
		"known_label", constants.IsExampleDocType(label),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return label, nil
}

// Summarizer asks the model for a short markdown bullet summary.
type Summarizer struct {
	client llm.InferenceClient
	logger *slog.Logger
}

func NewSummarizer(client llm.InferenceClient, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{client: client, logger: logger}
}

// Summarize returns the trimmed markdown. Bullet count and length are not checked.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	start := time.Now()
	out, err := s.client.Invoke(ctx, prompt.Summarize(text))
	if err != nil {
		s.logger.Error("summarize.failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", common.InferenceFailure("Summarization", err)
	}
	summary := strings.TrimSpace(out)
	s.logger.Info("summarize.ok", "chars", len(summary), "elapsed_ms", time.Since(start).Milliseconds())
	return summary, nil
}

// Answerer answers questions from the first part of a document's text.
type Answerer struct {
	client llm.InferenceClient
	logger *slog.Logger
}

func NewAnswerer(client llm.InferenceClient, logger *slog.Logger) *Answerer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Answerer{client: client, logger: logger}
}

// Answer never fails: with no text it asks for an upload without calling the
// model, and inference errors come back as "Error generating answer: ...".
func (a *Answerer) Answer(ctx context.Context, question, text string) string {
	if text == "" {
		a.logger.Debug("answer.no_document")
		return UploadFirstMessage
	}
	start := time.Now()
	out, err := a.client.Invoke(ctx, prompt.Answer(question, text))
	if err != nil {
		a.logger.Error("answer.failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return AnswerErrorPrefix + err.Error()
	}
	answer := strings.TrimSpace(out)
	a.logger.Info("answer.ok",
		"question_len", len(question),
		"not_found", answer == prompt.NotFoundSentinel,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return answer
}
