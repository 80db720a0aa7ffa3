// Package resolver turns owner-side rules into a set of contact ids.
//
// The store cannot join contacts with their custom attribute rows, so
// every owner-side rule is evaluated as an independent query and the
// resulting id sets are intersected here.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rebeliceyang/lazycrm/internal/filter"
	"github.com/rebeliceyang/lazycrm/internal/idset"
	"github.com/rebeliceyang/lazycrm/internal/logging"
	"github.com/rebeliceyang/lazycrm/internal/store"
)

// Config bounds the resolver's fan-out
type Config struct {
	// QueryTimeout applies to every storage round-trip
	QueryTimeout time.Duration
	// Concurrency caps in-flight queries per resolution
	Concurrency int
	// CandidateWarnThreshold logs a warning for rules with more values
	CandidateWarnThreshold int
	// MaxCandidates rejects rules with more values
	MaxCandidates int
}

// DefaultConfig returns the defaults used when a field is zero
func DefaultConfig() Config {
	return Config{
		QueryTimeout:           5 * time.Second,
		Concurrency:            8,
		CandidateWarnThreshold: 25,
		MaxCandidates:          200,
	}
}

// ResolutionError is a storage failure during id resolution. Partial
// sets are discarded; the whole resolution can be retried.
type ResolutionError struct {
	Field string
	Err   error
}

func (e *ResolutionError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("owner resolution failed: %v", e.Err)
	}
	return fmt.Sprintf("owner resolution failed on %s: %v", e.Field, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Retryable is always true: resolution only reads
func (e *ResolutionError) Retryable() bool {
	return true
}

// errShortCircuit stops the fan-out once the accumulator is empty
var errShortCircuit = errors.New("owner set is empty")

// Resolver evaluates OWNER_FIXED and OWNER_CUSTOM rules
type Resolver struct {
	store  store.Store
	cfg    Config
	logger *logrus.Entry
}

// New creates a resolver; zero config fields take their defaults
func New(s store.Store, cfg Config, logger *logrus.Entry) *Resolver {
	def := DefaultConfig()
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = def.QueryTimeout
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.CandidateWarnThreshold <= 0 {
		cfg.CandidateWarnThreshold = def.CandidateWarnThreshold
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = def.MaxCandidates
	}
	return &Resolver{
		store:  s,
		cfg:    cfg,
		logger: logging.Component(logger, "resolver"),
	}
}

// Resolve returns the contact ids satisfying every owner-side rule and
// the number of storage queries it issued.
// A nil set means there were no owner-side rules; an empty set means
// nothing matches and must never be read as "no constraint".
func (r *Resolver) Resolve(ctx context.Context, tenant string, fixed, custom []filter.Bound) (*idset.Set, int, error) {
	if len(fixed) == 0 && len(custom) == 0 {
		return nil, 0, nil
	}
	start := time.Now()

	customQueries, err := r.customQueries(custom)
	if err != nil {
		return nil, 0, err
	}
	baseQuery, err := r.baseQuery(tenant, fixed)
	if err != nil {
		return nil, 0, err
	}

	var queries atomic.Int64
	base, err := r.run(ctx, baseQuery, store.ColID, &queries)
	if err != nil {
		return nil, int(queries.Load()), &ResolutionError{Err: err}
	}
	acc := &accumulator{set: base}
	if acc.set.IsEmpty() || len(custom) == 0 {
		r.logDone(start, fixed, custom, acc.set, queries.Load())
		return acc.set, int(queries.Load()), nil
	}

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, r.cfg.Concurrency)

	for i, b := range custom {
		field := b.Field.ID
		rq := customQueries[i]
		g.Go(func() error {
			ids, err := r.unionCandidates(gctx, sem, rq, &queries)
			if err != nil {
				return &ResolutionError{Field: field, Err: err}
			}
			if acc.intersect(ids) {
				return errShortCircuit
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, errShortCircuit) {
		if !errors.Is(err, context.Canceled) {
			r.logger.WithError(err).Warn("owner resolution failed")
		}
		return nil, int(queries.Load()), err
	}

	result := acc.result()
	r.logDone(start, fixed, custom, result, queries.Load())
	return result, int(queries.Load()), nil
}

func (r *Resolver) logDone(start time.Time, fixed, custom []filter.Bound, result *idset.Set, queries int64) {
	r.logger.WithFields(logrus.Fields{
		"fixed":    len(fixed),
		"custom":   len(custom),
		"queries":  queries,
		"owners":   result.Len(),
		"duration": time.Since(start),
	}).Debug("owners resolved")
}

// unionCandidates runs one query per candidate predicate of a rule and
// unions the owner ids. The rule's set is only complete once every
// candidate query has returned.
func (r *Resolver) unionCandidates(ctx context.Context, sem chan struct{}, queries []store.Query, issued *atomic.Int64) (*idset.Set, error) {
	var (
		mu    sync.Mutex
		union = idset.Empty()
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, q := range queries {
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-sem }()

			ids, err := r.run(gctx, q, store.ColClientID, issued)
			if err != nil {
				return err
			}
			mu.Lock()
			union = union.Union(ids)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return union, nil
}

// run executes one query under its own timeout and collects column ids.
// issued counts the round-trip.
func (r *Resolver) run(ctx context.Context, q store.Query, column string, issued *atomic.Int64) (*idset.Set, error) {
	issued.Add(1)
	qctx, cancel := context.WithTimeout(ctx, r.cfg.QueryTimeout)
	defer cancel()

	res, err := r.store.Select(qctx, q)
	if err != nil {
		return nil, err
	}
	ids := idset.Empty()
	for _, row := range res.Rows {
		if id := row.String(column); id != "" {
			ids.Add(id)
		}
	}
	return ids, nil
}

// accumulator is the running intersection shared by rule goroutines
type accumulator struct {
	mu  sync.Mutex
	set *idset.Set
}

// intersect folds ids in and reports whether the result became empty
func (a *accumulator) intersect(ids *idset.Set) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.set = a.set.Intersect(ids)
	return a.set.IsEmpty()
}

func (a *accumulator) result() *idset.Set {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.set.Clone()
}
