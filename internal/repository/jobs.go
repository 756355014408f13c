package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docparser/constants"
	"github.com/joseph-ayodele/docparser/internal/common"
	"github.com/joseph-ayodele/docparser/internal/entity"
)

// JobRepository records ingestion attempts.
//
// Lifecycle: Start (RUNNING) -> MarkExtracted (EXTRACTED) ->
// FinishSuccess (READY) | FinishFailure (FAILED) | MarkSuperseded (SUPERSEDED).
// Terminal rows are never rewritten; updates to them return ErrJobFinished.
type JobRepository interface {
	Start(ctx context.Context, sessionID, filename string, format constants.Format) (*entity.Job, error)
	MarkExtracted(ctx context.Context, jobID uuid.UUID, textChars int) error
	FinishSuccess(ctx context.Context, jobID uuid.UUID, docType string) error
	FinishFailure(ctx context.Context, jobID uuid.UUID, kind common.Kind, message string) error
	MarkSuperseded(ctx context.Context, jobID uuid.UUID) error
	List(ctx context.Context, filter JobFilter) ([]*entity.Job, error)
	Close() error
}

// JobFilter narrows List. Zero values match everything; Limit 0 means no limit.
type JobFilter struct {
	SessionID string
	Status    constants.JobStatus
	Limit     int
}

// ErrJobFinished is returned when a transition targets a job in a terminal status.
var ErrJobFinished = errors.New("job already finished")
