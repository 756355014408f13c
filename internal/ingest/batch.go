package ingest

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/docparser/internal/session"
)

// FileResult is the outcome of ingesting one file in its own session.
type FileResult struct {
	Path      string
	SessionID string
	Outcome   session.Outcome
}

// BatchStats summarizes a batch run.
type BatchStats struct {
	Processed int
	Succeeded int
	Failed    int
}

// Batch ingests files one session per file through a Registry.
type Batch struct {
	registry *session.Registry
	logger   *slog.Logger
}

func NewBatch(registry *session.Registry, logger *slog.Logger) *Batch {
	if logger == nil {
		logger = slog.Default()
	}
	return &Batch{registry: registry, logger: logger}
}

// IngestPath ingests a single file into a fresh session.
func (b *Batch) IngestPath(ctx context.Context, path string) FileResult {
	sess := b.registry.New()
	out := sess.Ingest(ctx, path)
	if out.Failed() {
		b.logger.Warn("batch.file_failed", "path", path, "session_id", sess.ID(), "error", out.ErrorMessage)
	} else {
		b.logger.Info("batch.file_ready", "path", path, "session_id", sess.ID(), "doc_type", out.DocType)
	}
	return FileResult{Path: path, SessionID: sess.ID(), Outcome: out}
}

// Run ingests paths in order. A cancelled ctx stops the batch between files.
func (b *Batch) Run(ctx context.Context, paths []string) ([]FileResult, BatchStats) {
	var (
		results []FileResult
		stats   BatchStats
	)
	for _, p := range paths {
		if ctx.Err() != nil {
			b.logger.Warn("batch.cancelled", "remaining", len(paths)-stats.Processed)
			break
		}
		r := b.IngestPath(ctx, p)
		results = append(results, r)
		stats.Processed++
		if r.Outcome.Failed() {
			stats.Failed++
		} else {
			stats.Succeeded++
		}
	}
	b.logger.Info("batch.done", "processed", stats.Processed, "succeeded", stats.Succeeded, "failed", stats.Failed)
	return results, stats
}
