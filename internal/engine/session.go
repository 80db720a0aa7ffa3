package engine

import (
	"context"
	"sync"

	"github.com/rebeliceyang/lazycrm/internal/filter"
	"github.com/rebeliceyang/lazycrm/internal/models"
)

// Result is the outcome of one refresh
type Result struct {
	// Page is the latest valid page. On error it is the previous page.
	Page    *models.FilteredPage
	Version uint64
	Err     error
	// Stale is set when the state changed while the refresh was running;
	// the computed page was discarded
	Stale bool
}

// Session owns the filter state of one interactive user. Every mutation
// bumps the version; refresh results computed for an older version are
// discarded.
type Session struct {
	engine *Engine

	mu      sync.Mutex
	state   models.FilterState
	version uint64
	last    *models.FilteredPage
	cancel  context.CancelFunc
	// run identifies the newest refresh
	run uint64
}

// NewSession starts a session from an initial state
func NewSession(e *Engine, initial models.FilterState) *Session {
	return &Session{engine: e, state: initial.Clone(), version: 1}
}

// State returns a copy of the current state and its version
func (s *Session) State() (models.FilterState, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone(), s.version
}

// Version returns the current state version
func (s *Session) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Last returns the last valid page, or nil before the first refresh
func (s *Session) Last() *models.FilteredPage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Update mutates the state and cancels any refresh in flight
func (s *Session) Update(fn func(*models.FilterState)) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
	s.version++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return s.version
}

// ApplyAdvanced replaces the advanced rule group
func (s *Session) ApplyAdvanced(g models.RuleGroup) uint64 {
	return s.Update(func(st *models.FilterState) {
		st.SetAdvanced(g)
	})
}

// ClearAdvanced drops the advanced rule group
func (s *Session) ClearAdvanced() uint64 {
	return s.Update(func(st *models.FilterState) {
		st.ClearAdvanced()
	})
}

// Hooks returns the callbacks the advanced rule editor is built with
func (s *Session) Hooks() filter.AdvancedHooks {
	return filter.AdvancedHooks{
		Apply: func(g models.RuleGroup) { s.ApplyAdvanced(g) },
		Clear: func() { s.ClearAdvanced() },
	}
}

// Refresh evaluates the current state. A mutation or a newer refresh
// during the run makes the result stale; the previous page is kept in
// that case and on error.
func (s *Session) Refresh(ctx context.Context) Result {
	s.mu.Lock()
	state := s.state.Clone()
	version := s.version
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.run++
	run := s.run
	s.mu.Unlock()

	page, err := s.engine.ApplyFilters(ctx, state)

	s.mu.Lock()
	defer s.mu.Unlock()
	cancel()
	if s.version != version || s.run != run {
		return Result{Page: s.last, Version: s.version, Stale: true}
	}
	s.cancel = nil
	if err != nil {
		return Result{Page: s.last, Version: version, Err: err}
	}
	page.Version = version
	s.last = page
	return Result{Page: page, Version: version}
}
