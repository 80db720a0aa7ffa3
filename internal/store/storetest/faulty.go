// Package storetest provides store.Store wrappers for failure injection
// and query recording in tests.
package storetest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rebeliceyang/lazycrm/internal/store"
)

// ErrInjected is returned by a Faulty store for failing queries
var ErrInjected = errors.New("injected failure")

// Faulty wraps a store, recording every query and failing or delaying
// the ones selected by FailOn and DelayOn.
type Faulty struct {
	Inner store.Store
	// FailOn selects queries that return ErrInjected
	FailOn func(q store.Query) bool
	// DelayOn returns how long to wait before running a query
	DelayOn func(q store.Query) time.Duration

	mu      sync.Mutex
	queries []store.Query
}

// Wrap creates a pass-through Faulty store
func Wrap(inner store.Store) *Faulty {
	return &Faulty{Inner: inner}
}

// FailTable makes every query on table fail
func (f *Faulty) FailTable(table string) *Faulty {
	f.FailOn = func(q store.Query) bool { return q.Table == table }
	return f
}

// Select implements store.Store
func (f *Faulty) Select(ctx context.Context, q store.Query) (*store.Result, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()

	if f.DelayOn != nil {
		if d := f.DelayOn(q); d > 0 {
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if f.FailOn != nil && f.FailOn(q) {
		return nil, ErrInjected
	}
	return f.Inner.Select(ctx, q)
}

// Queries returns the queries seen so far
func (f *Faulty) Queries() []store.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.Query(nil), f.queries...)
}

// Count returns the number of queries on table
func (f *Faulty) Count(table string) int {
	n := 0
	for _, q := range f.Queries() {
		if q.Table == table {
			n++
		}
	}
	return n
}

// Reset forgets recorded queries
func (f *Faulty) Reset() {
	f.mu.Lock()
	f.queries = nil
	f.mu.Unlock()
}
