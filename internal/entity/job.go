package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docparser/constants"
)

// Job is one ingestion attempt as recorded in the journal. It carries
// metadata only; document text, summaries and answers are never stored.
type Job struct {
	ID           uuid.UUID           `json:"id"`
	SessionID    string              `json:"session_id"`
	Filename     string              `json:"filename"`
	Format       string              `json:"format"`
	Status       constants.JobStatus `json:"status"`
	ErrorKind    *string             `json:"error_kind,omitempty"`
	ErrorMessage *string             `json:"error_message,omitempty"`
	DocType      *string             `json:"doc_type,omitempty"`
	TextChars    int                 `json:"text_chars"`
	StartedAt    time.Time           `json:"started_at"`
	FinishedAt   *time.Time          `json:"finished_at,omitempty"`
}

// Terminal reports whether the attempt has reached a final status.
func (j *Job) Terminal() bool {
	switch j.Status {
	case constants.JobStatusReady, constants.JobStatusFailed, constants.JobStatusSuperseded:
		return true
	}
	return false
}
