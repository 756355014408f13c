package repository

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docparser/constants"
	"github.com/joseph-ayodele/docparser/internal/common"
	"github.com/joseph-ayodele/docparser/internal/entity"
)

type memoryJobRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*entity.Job
	seq  map[uuid.UUID]int
	next int
	log  *slog.Logger
	now  func() time.Time
}

// NewMemoryJobRepository keeps the journal in process memory.
func NewMemoryJobRepository(log *slog.Logger) JobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &memoryJobRepo{
		jobs: make(map[uuid.UUID]*entity.Job),
		seq:  make(map[uuid.UUID]int),
		log:  log,
		now:  time.Now,
	}
}

func (r *memoryJobRepo) Start(_ context.Context, sessionID, filename string, format constants.Format) (*entity.Job, error) {
	job := &entity.Job{
		ID:        uuid.New(),
		SessionID: sessionID,
		Filename:  filename,
		Format:    string(format),
		Status:    constants.JobStatusRunning,
		StartedAt: r.now().UTC(),
	}
	r.mu.Lock()
	r.jobs[job.ID] = job
	r.seq[job.ID] = r.next
	r.next++
	r.mu.Unlock()

	r.log.Debug("job.started", "job_id", job.ID, "session_id", sessionID, "format", format)
	cp := *job
	return &cp, nil
}

func (r *memoryJobRepo) update(jobID uuid.UUID, fn func(j *entity.Job)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[jobID]
	if !ok {
		return common.ErrNotFound
	}
	if j.Terminal() {
		return ErrJobFinished
	}
	fn(j)
	return nil
}

func (r *memoryJobRepo) finish(j *entity.Job, status constants.JobStatus) {
	now := r.now().UTC()
	j.Status = status
	j.FinishedAt = &now
}

func (r *memoryJobRepo) MarkExtracted(_ context.Context, jobID uuid.UUID, textChars int) error {
	return r.update(jobID, func(j *entity.Job) {
		j.Status = constants.JobStatusExtracted
		j.TextChars = textChars
	})
}

func (r *memoryJobRepo) FinishSuccess(_ context.Context, jobID uuid.UUID, docType string) error {
	return r.update(jobID, func(j *entity.Job) {
		j.DocType = &docType
		r.finish(j, constants.JobStatusReady)
	})
}

func (r *memoryJobRepo) FinishFailure(_ context.Context, jobID uuid.UUID, kind common.Kind, message string) error {
	k := string(kind)
	return r.update(jobID, func(j *entity.Job) {
		j.ErrorKind = &k
		j.ErrorMessage = &message
		r.finish(j, constants.JobStatusFailed)
	})
}

func (r *memoryJobRepo) MarkSuperseded(_ context.Context, jobID uuid.UUID) error {
	return r.update(jobID, func(j *entity.Job) {
		r.finish(j, constants.JobStatusSuperseded)
	})
}

func (r *memoryJobRepo) List(_ context.Context, filter JobFilter) ([]*entity.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*entity.Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		if filter.SessionID != "" && j.SessionID != filter.SessionID {
			continue
		}
		if filter.Status != "" && j.Status != filter.Status {
			continue
		}
		cp := *j
		out = append(out, &cp)
	}
	sort.Slice(out, func(a, b int) bool {
		return r.seq[out[a].ID] > r.seq[out[b].ID]
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *memoryJobRepo) Close() error { return nil }
