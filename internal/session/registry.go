package session

import (
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultCapacity = 256

// Registry keeps sessions per client id, evicting the least recently used
// once capacity is reached. Evicted sessions start over as Idle.
type Registry struct {
	orch     *Orchestrator
	sessions *lru.Cache[string, *Session]
	mu       sync.Mutex
	logger   *slog.Logger
}

func NewRegistry(orch *Orchestrator, capacity int, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	cache, err := lru.NewWithEvict[string, *Session](capacity, func(id string, _ *Session) {
		logger.Info("session.evicted", "session_id", id)
	})
	if err != nil {
		return nil, fmt.Errorf("session cache: %w", err)
	}
	return &Registry{orch: orch, sessions: cache, logger: logger}, nil
}

// New creates a session with a fresh id.
func (r *Registry) New() *Session {
	s := r.orch.NewSession("")
	r.mu.Lock()
	r.sessions.Add(s.ID(), s)
	r.mu.Unlock()
	r.logger.Info("session.created", "session_id", s.ID())
	return s
}

// Get returns the session for id, creating it on miss.
func (r *Registry) Get(id string) *Session {
	if s, ok := r.sessions.Get(id); ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions.Get(id); ok {
		return s
	}
	s := r.orch.NewSession(id)
	r.sessions.Add(id, s)
	r.logger.Info("session.created", "session_id", id)
	return s
}

// Lookup returns the session for id without creating one.
func (r *Registry) Lookup(id string) (*Session, bool) {
	return r.sessions.Get(id)
}

func (r *Registry) Len() int { return r.sessions.Len() }

// Orchestrator returns the shared stages.
func (r *Registry) Orchestrator() *Orchestrator { return r.orch }
