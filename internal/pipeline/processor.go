package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/docparser/internal/common"
	"github.com/joseph-ayodele/docparser/internal/loader"
)

// ErrNoText is the load-failure cause for documents without extractable text.
var ErrNoText = errors.New("no extractable text")

// DocumentLoader returns a document's ordered text segments.
type DocumentLoader interface {
	Load(ctx context.Context, path string) ([]string, error)
}

// Result is everything one successful ingestion produces.
type Result struct {
	Text    string
	DocType string
	Summary string
}

// Processor runs load, assemble, classify, then summarize, stopping at the first failure.
type Processor struct {
	Logger     *slog.Logger
	Loader     DocumentLoader
	Classifier *Classifier
	Summarizer *Summarizer
}

func NewProcessor(logger *slog.Logger, l DocumentLoader, c *Classifier, s *Summarizer) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, Loader: l, Classifier: c, Summarizer: s}
}

// Run ingests path. onExtracted, if set, is called with the text length in
// code points once text is assembled. Errors are *common.AppError; on error
// the Result is zero.
func (p *Processor) Run(ctx context.Context, path string, onExtracted func(textChars int)) (Result, error) {
	segments, err := p.Loader.Load(ctx, path)
	if err != nil {
		return Result{}, err
	}
	extracted := loader.Assemble(segments)
	if strings.TrimSpace(extracted.Text) == "" {
		p.Logger.Warn("processor.empty_text", "path", path, "segments", len(segments))
		return Result{}, common.LoadFailure(ErrNoText)
	}
	chars := utf8.RuneCountInString(extracted.Text)
	p.Logger.Info("processor.extracted", "path", path, "segments", len(segments), "chars", chars)
	if onExtracted != nil {
		onExtracted(chars)
	}

	docType, err := p.Classifier.Classify(ctx, extracted.Text)
	if err != nil {
		return Result{}, err
	}
	summary, err := p.Summarizer.Summarize(ctx, extracted.Text)
	if err != nil {
		return Result{}, err
	}
	return Result{Text: extracted.Text, DocType: docType, Summary: summary}, nil
}
