package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/docparser/constants"
	"github.com/joseph-ayodele/docparser/internal/common"
	"github.com/joseph-ayodele/docparser/internal/entity"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS ingest_jobs (
	id            TEXT PRIMARY KEY,
	session_id    TEXT NOT NULL,
	filename      TEXT NOT NULL,
	format        TEXT NOT NULL,
	status        TEXT NOT NULL,
	error_kind    TEXT,
	error_message TEXT,
	doc_type      TEXT,
	text_chars    INTEGER NOT NULL DEFAULT 0,
	started_at    INTEGER NOT NULL,
	finished_at   INTEGER
);
CREATE INDEX IF NOT EXISTS idx_ingest_jobs_session ON ingest_jobs(session_id, started_at);
`

type sqliteJobRepo struct {
	db  *sql.DB
	log *slog.Logger
}

// OpenSQLite opens (or creates) the journal database at dsn and ensures the schema.
func OpenSQLite(ctx context.Context, dsn string, log *slog.Logger) (JobRepository, error) {
	if log == nil {
		log = slog.Default()
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer; also keeps ":memory:" databases on a single connection
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	log.Info("journal.sqlite.opened", "dsn", dsn)
	return &sqliteJobRepo{db: db, log: log}, nil
}

func (r *sqliteJobRepo) Start(ctx context.Context, sessionID, filename string, format constants.Format) (*entity.Job, error) {
	job := &entity.Job{
		ID:        uuid.New(),
		SessionID: sessionID,
		Filename:  filename,
		Format:    string(format),
		Status:    constants.JobStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ingest_jobs (id, session_id, filename, format, status, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		job.ID.String(), job.SessionID, job.Filename, job.Format, string(job.Status), job.StartedAt.UnixNano(),
	)
	if err != nil {
		r.log.Error("job.start.failed", "session_id", sessionID, "error", err)
		return nil, err
	}
	r.log.Debug("job.started", "job_id", job.ID, "session_id", sessionID, "format", format)
	return job, nil
}

// transition applies an update guarded by "not terminal".
func (r *sqliteJobRepo) transition(ctx context.Context, jobID uuid.UUID, set string, args ...any) error {
	q := `UPDATE ingest_jobs SET ` + set + ` WHERE id = ? AND status NOT IN (?, ?, ?)`
	args = append(args, jobID.String(),
		string(constants.JobStatusReady), string(constants.JobStatusFailed), string(constants.JobStatusSuperseded))
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	var status string
	err = r.db.QueryRowContext(ctx, `SELECT status FROM ingest_jobs WHERE id = ?`, jobID.String()).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrJobFinished
}

func (r *sqliteJobRepo) MarkExtracted(ctx context.Context, jobID uuid.UUID, textChars int) error {
	return r.transition(ctx, jobID, `status = ?, text_chars = ?`, string(constants.JobStatusExtracted), textChars)
}

func (r *sqliteJobRepo) FinishSuccess(ctx context.Context, jobID uuid.UUID, docType string) error {
	return r.transition(ctx, jobID, `status = ?, doc_type = ?, finished_at = ?`,
		string(constants.JobStatusReady), docType, time.Now().UTC().UnixNano())
}

func (r *sqliteJobRepo) FinishFailure(ctx context.Context, jobID uuid.UUID, kind common.Kind, message string) error {
	return r.transition(ctx, jobID, `status = ?, error_kind = ?, error_message = ?, finished_at = ?`,
		string(constants.JobStatusFailed), string(kind), message, time.Now().UTC().UnixNano())
}

func (r *sqliteJobRepo) MarkSuperseded(ctx context.Context, jobID uuid.UUID) error {
	return r.transition(ctx, jobID, `status = ?, finished_at = ?`,
		string(constants.JobStatusSuperseded), time.Now().UTC().UnixNano())
}

func (r *sqliteJobRepo) List(ctx context.Context, filter JobFilter) ([]*entity.Job, error) {
	var (
		where []string
		args  []any
	)
	if filter.SessionID != "" {
		where = append(where, "session_id = ?")
		args = append(args, filter.SessionID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	q := `SELECT id, session_id, filename, format, status, error_kind, error_message, doc_type, text_chars, started_at, finished_at FROM ingest_jobs`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY started_at DESC, rowid DESC"
	if filter.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Job
	for rows.Next() {
		var (
			j                        entity.Job
			id, status               string
			errKind, errMsg, docType sql.NullString
			startedAt                int64
			finishedAt               sql.NullInt64
		)
		if err := rows.Scan(&id, &j.SessionID, &j.Filename, &j.Format, &status, &errKind, &errMsg, &docType, &j.TextChars, &startedAt, &finishedAt); err != nil {
			return nil, err
		}
		if j.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse job id %q: %w", id, err)
		}
		j.Status = constants.JobStatus(status)
		j.ErrorKind = nullString(errKind)
		j.ErrorMessage = nullString(errMsg)
		j.DocType = nullString(docType)
		j.StartedAt = time.Unix(0, startedAt).UTC()
		if finishedAt.Valid {
			t := time.Unix(0, finishedAt.Int64).UTC()
			j.FinishedAt = &t
		}
		out = append(out, &j)
	}
	return out, rows.Err()
}

func (r *sqliteJobRepo) Close() error {
	return r.db.Close()
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
