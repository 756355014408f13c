package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/docparser/internal/common"
)

// IngestQueue runs begun ingestion attempts on a fixed pool of workers.
type IngestQueue struct {
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	// senders hold the read lock; Shutdown takes the write lock before closing ch
	mu     sync.RWMutex
	closed bool
}

type Option func(*IngestQueue)

func WithWorkers(n int) Option {
	return func(q *IngestQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *IngestQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *IngestQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewIngestQueue(logger *slog.Logger, opts ...Option) *IngestQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &IngestQueue{
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *IngestQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker.started", "worker_id", workerID)

				for job := range q.ch {
					q.run(workerID, job)
				}

				q.logger.Info("worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *IngestQueue) run(workerID int, job Job) {
	ctx := context.Background()
	if job.TraceID != "" {
		ctx = common.WithRequestID(ctx, job.TraceID)
	}
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	sessionID := job.Attempt.Session().ID()
	out := job.Attempt.Run(ctx)
	switch {
	case out.Superseded:
		q.logger.Info("queue.job_superseded", "worker_id", workerID, "session_id", sessionID)
	case out.Failed():
		q.logger.Warn("queue.job_failed", "worker_id", workerID, "session_id", sessionID,
			"waited", time.Since(job.SubmittedAt), "error", out.ErrorMessage)
	default:
		q.logger.Info("queue.job_done", "worker_id", workerID, "session_id", sessionID,
			"waited", time.Since(job.SubmittedAt), "doc_type", out.DocType)
	}
}

// Enqueue hands job to a worker, blocking while the queue is full. If the
// job cannot be queued (shutdown or ctx done) its attempt is abandoned with
// that error so the session does not stay Ingesting.
func (q *IngestQueue) Enqueue(ctx context.Context, job Job) error {
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	err := q.send(ctx, job)
	if err != nil {
		q.logger.Warn("queue.enqueue_failed", "session_id", job.Attempt.Session().ID(), "error", err)
		job.Attempt.Abandon(ctx, err)
	}
	return err
}

func (q *IngestQueue) send(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.ch <- job:
		q.logger.Info("queue.enqueued", "session_id", job.Attempt.Session().ID())
		return nil
	default:
	}
	q.logger.Warn("queue.full", "session_id", job.Attempt.Session().ID())
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops intake and waits for queued attempts to drain or ctx to end.
func (q *IngestQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("queue.shutdown_interrupted")
	case <-done:
		q.logger.Info("queue.drained")
	}
}
