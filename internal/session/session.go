package session

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docparser/constants"
	"github.com/joseph-ayodele/docparser/internal/common"
	"github.com/joseph-ayodele/docparser/internal/pipeline"
	"github.com/joseph-ayodele/docparser/internal/repository"
)

// Orchestrator holds what every session shares: the ingestion pipeline, the
// question stage and the attempt journal.
type Orchestrator struct {
	processor *pipeline.Processor
	answerer  *pipeline.Answerer
	jobs      repository.JobRepository
	logger    *slog.Logger
}

// NewOrchestrator wires the stages. jobs may be nil, in which case attempts
// are journaled in memory.
func NewOrchestrator(processor *pipeline.Processor, answerer *pipeline.Answerer, jobs repository.JobRepository, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if jobs == nil {
		jobs = repository.NewMemoryJobRepository(logger)
	}
	return &Orchestrator{processor: processor, answerer: answerer, jobs: jobs, logger: logger}
}

// Jobs returns the attempt journal.
func (o *Orchestrator) Jobs() repository.JobRepository { return o.jobs }

// NewSession returns an Idle session. An empty id gets a random UUID.
func (o *Orchestrator) NewSession(id string) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	return &Session{id: id, orch: o, phase: PhaseIdle, logger: o.logger.With("session_id", id)}
}

// Session is one user's document workflow. All methods are safe for
// concurrent use.
type Session struct {
	id     string
	orch   *Orchestrator
	logger *slog.Logger

	mu      sync.Mutex
	gen     uint64 // bumped by every Ingest; only the latest may commit
	phase   Phase
	state   *State
	surface ErrorSurface
}

func (s *Session) ID() string { return s.id }

// Ingest runs one ingestion attempt for path and always returns an Outcome.
//
// The error surface is hidden before any work starts. On success the session
// becomes Ready with a new State; on failure the State is cleared and the
// error surface shows the message. If another Ingest starts before this one
// finishes, this attempt's result is dropped.
func (s *Session) Ingest(ctx context.Context, path string) Outcome {
	return s.Begin(path).Run(ctx)
}

// Attempt is an ingestion that has begun (error surface hidden, phase
// Ingesting) but not yet run.
type Attempt struct {
	s    *Session
	gen  uint64
	path string
}

// Begin performs the synchronous start of an ingestion: it supersedes any
// attempt in flight, hides the error surface and enters Ingesting. The
// returned Attempt must be Run, here or on another goroutine.
func (s *Session) Begin(path string) *Attempt {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.surface = ErrorSurface{}
	s.phase = PhaseIngesting
	s.mu.Unlock()
	return &Attempt{s: s, gen: gen, path: strings.TrimSpace(path)}
}

// Session returns the session the attempt belongs to.
func (a *Attempt) Session() *Session { return a.s }

// Run executes the attempt and commits its outcome unless it was superseded.
func (a *Attempt) Run(ctx context.Context) Outcome {
	return a.execute(ctx, nil)
}

// Abandon commits cause as the attempt's failure without running it. It is
// used when a begun attempt can no longer be scheduled.
func (a *Attempt) Abandon(ctx context.Context, cause error) Outcome {
	return a.execute(ctx, cause)
}

func (a *Attempt) execute(ctx context.Context, cause error) Outcome {
	s, gen, path := a.s, a.gen, a.path
	ctx = common.WithSessionID(ctx, s.id)
	logger := s.logger.With("attempt", gen)

	var filename string
	var format constants.Format
	if path != "" {
		filename = filepath.Base(path)
		format = constants.MapExtToFormat(filepath.Ext(path))
	}
	logger.Info("ingest.start", "filename", filename, "format", format)
	// journal writes outlive a cancelled request
	jctx := context.WithoutCancel(ctx)
	jobID := s.startJob(jctx, filename, format)

	var (
		res pipeline.Result
		err error
	)
	switch {
	case cause != nil:
		err = cause
	case path == "":
		err = common.MissingInput(NoFileMessage)
	default:
		res, err = s.orch.processor.Run(ctx, path, func(textChars int) {
			s.journal("mark_extracted", jobID, func(id uuid.UUID) error {
				return s.orch.jobs.MarkExtracted(jctx, id, textChars)
			})
		})
	}

	out := Outcome{DocType: res.DocType, Summary: res.Summary}
	if err != nil {
		out = Outcome{ErrorMessage: surfaceMessage(err)}
	}

	s.mu.Lock()
	committed := gen == s.gen
	if committed {
		if err != nil {
			s.state = nil
			s.phase = PhaseFailed
			s.surface = ErrorSurface{Visible: true, Message: out.ErrorMessage}
		} else {
			s.state = &State{Text: res.Text, DocType: res.DocType, Summary: res.Summary}
			s.phase = PhaseReady
			s.surface = ErrorSurface{}
		}
	}
	s.mu.Unlock()

	switch {
	case !committed:
		out.Superseded = true
		logger.Warn("ingest.superseded", "filename", filename)
		s.journal("mark_superseded", jobID, func(id uuid.UUID) error {
			return s.orch.jobs.MarkSuperseded(jctx, id)
		})
	case err != nil:
		logger.Error("ingest.failed", "filename", filename, "kind", common.KindOf(err), "error", err)
		s.journal("finish_failure", jobID, func(id uuid.UUID) error {
			return s.orch.jobs.FinishFailure(jctx, id, common.KindOf(err), err.Error())
		})
	default:
		logger.Info("ingest.ready", "filename", filename, "doc_type", res.DocType)
		s.journal("finish_success", jobID, func(id uuid.UUID) error {
			return s.orch.jobs.FinishSuccess(jctx, id, res.DocType)
		})
	}
	return out
}

// Ask answers question from the current document. Outside Ready it returns
// the upload-first message without calling the model.
func (s *Session) Ask(ctx context.Context, question string) string {
	s.mu.Lock()
	st := s.state
	ready := s.phase == PhaseReady
	s.mu.Unlock()

	var text string
	if ready && st != nil {
		text = st.Text
	}
	return s.orch.answerer.Answer(common.WithSessionID(ctx, s.id), question, text)
}

// Snapshot returns the phase, state and error surface read together.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{ID: s.id, Phase: s.phase, State: s.state, Error: s.surface}
}

func (s *Session) startJob(ctx context.Context, filename string, format constants.Format) uuid.UUID {
	job, err := s.orch.jobs.Start(ctx, s.id, filename, format)
	if err != nil {
		s.logger.Warn("journal.start_failed", "error", err)
		return uuid.Nil
	}
	return job.ID
}

// journal runs a journal update, logging failures. Journal errors never
// change an ingestion outcome.
func (s *Session) journal(op string, jobID uuid.UUID, fn func(uuid.UUID) error) {
	if jobID == uuid.Nil {
		return
	}
	if err := fn(jobID); err != nil {
		s.logger.Warn("journal."+op+"_failed", "job_id", jobID, "error", err)
	}
}

// surfaceMessage renders an ingestion failure for the error surface.
func surfaceMessage(err error) string {
	var appErr *common.AppError
	if errors.As(err, &appErr) && appErr.Kind == common.KindMissingInput {
		return appErr.Message
	}
	return "Error: " + err.Error()
}
