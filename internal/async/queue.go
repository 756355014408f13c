package async

import (
	"context"
	"errors"
	"time"

	"github.com/joseph-ayodele/docparser/internal/session"
)

// ErrQueueClosed is returned by Enqueue once Shutdown has started.
var ErrQueueClosed = errors.New("ingest queue is shutting down")

// Job is one begun ingestion attempt waiting for a worker.
type Job struct {
	Attempt     *session.Attempt
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
