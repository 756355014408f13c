package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/docparser/constants"
	"github.com/joseph-ayodele/docparser/internal/common"
	"github.com/joseph-ayodele/docparser/internal/entity"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS ingest_jobs (
	id            UUID PRIMARY KEY,
	session_id    TEXT NOT NULL,
	filename      TEXT NOT NULL,
	format        TEXT NOT NULL,
	status        TEXT NOT NULL,
	error_kind    TEXT,
	error_message TEXT,
	doc_type      TEXT,
	text_chars    INTEGER NOT NULL DEFAULT 0,
	started_at    TIMESTAMPTZ NOT NULL,
	finished_at   TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_ingest_jobs_session ON ingest_jobs(session_id, started_at);
`

type postgresJobRepo struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewPostgresJobRepository ensures the schema and records jobs through pool.
// The repository owns the pool and closes it on Close.
func NewPostgresJobRepository(ctx context.Context, pool *pgxpool.Pool, log *slog.Logger) (JobRepository, error) {
	if log == nil {
		log = slog.Default()
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &postgresJobRepo{pool: pool, log: log}, nil
}

func (r *postgresJobRepo) Start(ctx context.Context, sessionID, filename string, format constants.Format) (*entity.Job, error) {
	job := &entity.Job{
		ID:        uuid.New(),
		SessionID: sessionID,
		Filename:  filename,
		Format:    string(format),
		Status:    constants.JobStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO ingest_jobs (id, session_id, filename, format, status, started_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		job.ID, job.SessionID, job.Filename, job.Format, string(job.Status), job.StartedAt,
	)
	if err != nil {
		r.log.Error("job.start.failed", "session_id", sessionID, "error", err)
		return nil, err
	}
	r.log.Debug("job.started", "job_id", job.ID, "session_id", sessionID, "format", format)
	return job, nil
}

// transition runs UPDATE ... SET <set> WHERE id = $n AND status is not terminal.
// set uses placeholders $1..$k for args.
func (r *postgresJobRepo) transition(ctx context.Context, jobID uuid.UUID, set string, args ...any) error {
	n := len(args)
	q := fmt.Sprintf(`UPDATE ingest_jobs SET %s WHERE id = $%d AND status NOT IN ($%d, $%d, $%d)`, set, n+1, n+2, n+3, n+4)
	args = append(args, jobID,
		string(constants.JobStatusReady), string(constants.JobStatusFailed), string(constants.JobStatusSuperseded))
	tag, err := r.pool.Exec(ctx, q, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	var status string
	err = r.pool.QueryRow(ctx, `SELECT status FROM ingest_jobs WHERE id = $1`, jobID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return common.ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrJobFinished
}

func (r *postgresJobRepo) MarkExtracted(ctx context.Context, jobID uuid.UUID, textChars int) error {
	return r.transition(ctx, jobID, `status = $1, text_chars = $2`, string(constants.JobStatusExtracted), textChars)
}

func (r *postgresJobRepo) FinishSuccess(ctx context.Context, jobID uuid.UUID, docType string) error {
	return r.transition(ctx, jobID, `status = $1, doc_type = $2, finished_at = $3`,
		string(constants.JobStatusReady), docType, time.Now().UTC())
}

func (r *postgresJobRepo) FinishFailure(ctx context.Context, jobID uuid.UUID, kind common.Kind, message string) error {
	return r.transition(ctx, jobID, `status = $1, error_kind = $2, error_message = $3, finished_at = $4`,
		string(constants.JobStatusFailed), string(kind), message, time.Now().UTC())
}

func (r *postgresJobRepo) MarkSuperseded(ctx context.Context, jobID uuid.UUID) error {
	return r.transition(ctx, jobID, `status = $1, finished_at = $2`,
		string(constants.JobStatusSuperseded), time.Now().UTC())
}

func (r *postgresJobRepo) List(ctx context.Context, filter JobFilter) ([]*entity.Job, error) {
	var (
		where []string
		args  []any
	)
	if filter.SessionID != "" {
		args = append(args, filter.SessionID)
		where = append(where, fmt.Sprintf("session_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	q := `SELECT id, session_id, filename, format, status, error_kind, error_message, doc_type, text_chars, started_at, finished_at FROM ingest_jobs`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY started_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Job
	for rows.Next() {
		var (
			j      entity.Job
			status string
		)
		if err := rows.Scan(&j.ID, &j.SessionID, &j.Filename, &j.Format, &status,
			&j.ErrorKind, &j.ErrorMessage, &j.DocType, &j.TextChars, &j.StartedAt, &j.FinishedAt); err != nil {
			return nil, err
		}
		j.Status = constants.JobStatus(status)
		out = append(out, &j)
	}
	return out, rows.Err()
}

func (r *postgresJobRepo) Close() error {
	Close(r.pool, r.log)
	return nil
}
