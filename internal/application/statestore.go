package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ericfisherdev/repowatch/internal/domain/model"
	"github.com/ericfisherdev/repowatch/internal/domain/port/driven"
)

// StateStore holds per-repository state for the duration of one run.
// All access is serialized, so concurrent repository workers never lose updates.
type StateStore struct {
	mu     sync.Mutex
	repo   driven.StateRepository
	states map[string]model.RepositoryState
	now    func() time.Time
}

// NewStateStore creates an empty StateStore backed by repo. now supplies the
// timestamp recorded by Update; nil means time.Now.
func NewStateStore(repo driven.StateRepository, now func() time.Time) *StateStore {
	if now == nil {
		now = time.Now
	}
	return &StateStore{
		repo:   repo,
		states: make(map[string]model.RepositoryState),
		now:    now,
	}
}

// Load replaces the in-memory state with the durable copy. Missing or corrupt
// storage degrades to an empty mapping with a warning; Load never fails.
func (s *StateStore) Load(ctx context.Context) {
	loaded, err := s.repo.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		slog.Warn("state load failed, treating every repository as first observed", "error", err)
		s.states = make(map[string]model.RepositoryState)
		return
	}
	if loaded == nil {
		loaded = make(map[string]model.RepositoryState)
	}
	s.states = loaded

	slog.Info("state loaded", "repositories", len(loaded))
}

// Get returns a copy of the state for repo, creating an absent entry if the
// repository has not been seen before.
func (s *StateStore) Get(repo string) model.RepositoryState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[repo]
	if !ok {
		state = model.RepositoryState{}
		s.states[repo] = state
	}
	return state.Clone()
}

// Update records identity for kind on repo and refreshes LastCheckedAt.
func (s *StateStore) Update(repo string, kind model.ArtifactKind, identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.states[repo].WithIdentity(kind, identity)
	checked := s.now()
	state.LastCheckedAt = &checked
	s.states[repo] = state
}

// Snapshot returns a deep copy of every entry.
func (s *StateStore) Snapshot() map[string]model.RepositoryState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]model.RepositoryState, len(s.states))
	for name, state := range s.states {
		out[name] = state.Clone()
	}
	return out
}

// Persist writes the full mapping to durable storage. A failure only affects
// the next run's baseline, so it is logged and swallowed.
func (s *StateStore) Persist(ctx context.Context) bool {
	snapshot := s.Snapshot()
	if err := s.repo.Save(ctx, snapshot); err != nil {
		slog.Error("state persist failed", "repositories", len(snapshot), "error", err)
		return false
	}
	slog.Info("state saved", "repositories", len(snapshot))
	return true
}
