package server

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	v1 "github.com/joseph-ayodele/docparser/api/docparser/v1"
	"github.com/joseph-ayodele/docparser/internal/async"
	"github.com/joseph-ayodele/docparser/internal/common"
	"github.com/joseph-ayodele/docparser/internal/export"
	"github.com/joseph-ayodele/docparser/internal/session"
)

const (
	maxSessionIDLen = 128
	maxQuestionLen  = 4000
)

// DocumentServer implements docparser.v1.DocumentService on top of the
// session registry. Ingestion failures travel in the response payload; only
// malformed requests become RPC errors.
type DocumentServer struct {
	v1.UnimplementedDocumentServiceServer
	registry *session.Registry
	queue    async.Queue
	exporter *export.Service
	root     string
	logger   *slog.Logger
}

type DocumentServerOption func(*DocumentServer)

// WithIngestRoot restricts Ingest to files under root. Relative request
// paths are resolved against it. Without a root any readable path is accepted.
func WithIngestRoot(root string) DocumentServerOption {
	return func(s *DocumentServer) {
		if strings.TrimSpace(root) == "" {
			return
		}
		s.root = resolvePath(root)
	}
}

// NewDocumentServer wires the service. queue may be nil, in which case
// async ingestion requests are rejected.
func NewDocumentServer(registry *session.Registry, queue async.Queue, logger *slog.Logger, opts ...DocumentServerOption) *DocumentServer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &DocumentServer{
		registry: registry,
		queue:    queue,
		exporter: export.NewService(registry.Orchestrator().Jobs(), logger),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *DocumentServer) CreateSession(ctx context.Context, req *v1.CreateSessionRequest) (*v1.CreateSessionResponse, error) {
	id := strings.TrimSpace(req.GetSessionId())
	if err := common.ValidateAndReturnError(common.NewValidator().
		Field("session_id", id, common.MaxLength(maxSessionIDLen))); err != nil {
		return nil, err
	}

	var sess *session.Session
	if id == "" {
		sess = s.registry.New()
	} else {
		sess = s.registry.Get(id)
	}
	return &v1.CreateSessionResponse{Session: toPBSession(sess.Snapshot())}, nil
}

func (s *DocumentServer) Ingest(ctx context.Context, req *v1.IngestRequest) (*v1.IngestResponse, error) {
	sess, err := s.session(req.GetSessionId())
	if err != nil {
		return nil, err
	}
	path, err := s.confine(req.GetPath())
	if err != nil {
		s.logger.Warn("ingest.path_rejected", "session_id", sess.ID(), "path", req.GetPath())
		return nil, err
	}

	if !req.GetAsync() {
		out := sess.Ingest(ctx, path)
		snap := sess.Snapshot()
		return &v1.IngestResponse{
			Phase:        string(snap.Phase),
			DocType:      out.DocType,
			Summary:      out.Summary,
			ErrorVisible: snap.Error.Visible,
			ErrorMessage: out.ErrorMessage,
			Superseded:   out.Superseded,
		}, nil
	}

	if s.queue == nil {
		return nil, common.FailedPreconditionError("async ingestion is not enabled")
	}
	// a rejected job has already been abandoned; the snapshot shows why
	err = s.queue.Enqueue(ctx, async.Job{
		Attempt: sess.Begin(path),
		TraceID: common.RequestIDFromContext(ctx),
	})
	snap := sess.Snapshot()
	return &v1.IngestResponse{
		Phase:        string(snap.Phase),
		ErrorVisible: snap.Error.Visible,
		ErrorMessage: snap.Error.Message,
		Queued:       err == nil,
	}, nil
}

func (s *DocumentServer) Ask(ctx context.Context, req *v1.AskRequest) (*v1.AskResponse, error) {
	if err := common.ValidateAndReturnError(common.NewValidator().
		Field("question", req.GetQuestion(), common.Required, common.MaxLength(maxQuestionLen))); err != nil {
		return nil, err
	}
	sess, err := s.session(req.GetSessionId())
	if err != nil {
		return nil, err
	}
	return &v1.AskResponse{Answer: sess.Ask(ctx, req.GetQuestion())}, nil
}

func (s *DocumentServer) GetSession(ctx context.Context, req *v1.GetSessionRequest) (*v1.GetSessionResponse, error) {
	sess, err := s.session(req.GetSessionId())
	if err != nil {
		return nil, err
	}
	return &v1.GetSessionResponse{Session: toPBSession(sess.Snapshot())}, nil
}

// session validates id and looks the session up without creating it.
func (s *DocumentServer) session(id string) (*session.Session, error) {
	id = strings.TrimSpace(id)
	if err := common.ValidateAndReturnError(common.NewValidator().
		Field("session_id", id, common.Required, common.MaxLength(maxSessionIDLen))); err != nil {
		return nil, err
	}
	sess, ok := s.registry.Lookup(id)
	if !ok {
		return nil, common.NotFoundError("session " + id + " not found")
	}
	return sess, nil
}

// confine maps a request path onto the ingest root, following symlinks, and
// rejects anything that resolves outside it. An empty path passes through so
// the session reports the missing file itself.
func (s *DocumentServer) confine(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" || s.root == "" {
		return path, nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.root, path)
	}
	resolved := resolvePath(path)
	rel, err := filepath.Rel(s.root, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", common.InvalidArgumentError("path is outside the ingest root")
	}
	return resolved, nil
}

// resolvePath returns the absolute, symlink-free form of path. A missing
// final element is resolved through its parent directory.
func resolvePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	if dir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		return filepath.Join(dir, filepath.Base(abs))
	}
	return abs
}

func toPBSession(snap session.Snapshot) *v1.Session {
	out := &v1.Session{
		Id:           snap.ID,
		Phase:        string(snap.Phase),
		ErrorVisible: snap.Error.Visible,
		ErrorMessage: snap.Error.Message,
	}
	if snap.State != nil {
		out.DocType = snap.State.DocType
		out.Summary = snap.State.Summary
		out.TextChars = len([]rune(snap.State.Text))
	}
	return out
}
