// Package app wires configuration into the running object graph shared by
// the binaries.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/docparser/internal/common"
	"github.com/joseph-ayodele/docparser/internal/extract"
	"github.com/joseph-ayodele/docparser/internal/llm"
	"github.com/joseph-ayodele/docparser/internal/llm/factory"
	"github.com/joseph-ayodele/docparser/internal/loader"
	"github.com/joseph-ayodele/docparser/internal/pipeline"
	"github.com/joseph-ayodele/docparser/internal/repository"
	"github.com/joseph-ayodele/docparser/internal/session"
)

// App is everything a binary needs to ingest and answer.
type App struct {
	Config   *common.Config
	Jobs     repository.JobRepository
	Client   llm.InferenceClient
	Loader   *loader.Loader
	Registry *session.Registry
	Logger   *slog.Logger
}

// New opens the journal and builds the pipeline from cfg. client may be nil,
// in which case the configured provider is used.
func New(ctx context.Context, cfg *common.Config, client llm.InferenceClient, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		c, err := factory.NewInferenceClient(cfg.LLM, logger)
		if err != nil {
			return nil, err
		}
		client = c
	}

	jobs, err := repository.NewJobRepository(ctx, cfg.Journal, logger)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	l := loader.NewFromConfig(cfg.Extract, extract.ExecRunner{Logger: logger}, logger)
	proc := pipeline.NewProcessor(logger, l,
		pipeline.NewClassifier(client, logger),
		pipeline.NewSummarizer(client, logger),
	)
	orch := session.NewOrchestrator(proc, pipeline.NewAnswerer(client, logger), jobs, logger)
	reg, err := session.NewRegistry(orch, cfg.Session.Capacity, logger)
	if err != nil {
		_ = jobs.Close()
		return nil, err
	}

	logger.Info("app.ready",
		"llm_provider", cfg.LLM.Provider,
		"llm_model", cfg.LLM.Model,
		"pdf_backend", cfg.Extract.PDFBackend,
		"journal", cfg.Journal.Driver,
	)
	return &App{Config: cfg, Jobs: jobs, Client: client, Loader: l, Registry: reg, Logger: logger}, nil
}

// Close releases the journal.
func (a *App) Close() {
	if err := a.Jobs.Close(); err != nil {
		a.Logger.Error("journal.close_failed", "error", err)
	}
}

// NewLogger builds the process logger. format is "json" or "text".
func NewLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// ParseLevel maps debug/info/warn/error to a slog level; anything else is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
