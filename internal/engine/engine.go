// Package engine wires routing, owner resolution, the primary query and
// the client-side pass into a single apply operation.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rebeliceyang/lazycrm/internal/executor"
	"github.com/rebeliceyang/lazycrm/internal/filter"
	"github.com/rebeliceyang/lazycrm/internal/history"
	"github.com/rebeliceyang/lazycrm/internal/logging"
	"github.com/rebeliceyang/lazycrm/internal/models"
	"github.com/rebeliceyang/lazycrm/internal/refine"
	"github.com/rebeliceyang/lazycrm/internal/resolver"
	"github.com/rebeliceyang/lazycrm/internal/store"
)

// Config holds the engine settings
type Config struct {
	Tenant       string
	Resolver     resolver.Config
	DefaultLimit int
	RecentWindow time.Duration
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger
func WithLogger(logger *logrus.Entry) Option {
	return func(e *Engine) {
		e.logger = logging.Component(logger, "engine")
		e.baseLogger = logger
	}
}

// WithRecorder records every apply in the run history
func WithRecorder(r history.Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithClock replaces time.Now, used by the recent window
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// Engine evaluates filter states against a store
type Engine struct {
	catalog      *models.FieldCatalog
	tenant       string
	resolver     *resolver.Resolver
	executor     *executor.Executor
	recorder     history.Recorder
	now          func() time.Time
	recentWindow time.Duration
	logger       *logrus.Entry
	baseLogger   *logrus.Entry
}

// New creates an engine over s and a built catalog
func New(s store.Store, catalog *models.FieldCatalog, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		catalog:      catalog,
		tenant:       cfg.Tenant,
		now:          time.Now,
		recentWindow: cfg.RecentWindow,
		logger:       logging.Component(nil, "engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.recentWindow <= 0 {
		e.recentWindow = refine.DefaultRecentWindow
	}
	rcfg := cfg.Resolver
	if rcfg.QueryTimeout <= 0 {
		rcfg.QueryTimeout = resolver.DefaultConfig().QueryTimeout
	}
	e.resolver = resolver.New(s, rcfg, e.baseLogger)
	e.executor = executor.New(s, rcfg.QueryTimeout, cfg.DefaultLimit, e.baseLogger)
	return e
}

// Catalog returns the field catalog the engine routes against
func (e *Engine) Catalog() *models.FieldCatalog {
	return e.catalog
}

// Tenant returns the tenant every query is scoped to
func (e *Engine) Tenant() string {
	return e.tenant
}

// ApplyFilters evaluates state and returns one refined page
func (e *Engine) ApplyFilters(ctx context.Context, state models.FilterState) (*models.FilteredPage, error) {
	start := time.Now()
	page, queries, err := e.apply(ctx, state)
	if err != nil && errors.Is(err, context.Canceled) && ctx.Err() != nil {
		// superseded by a newer run
		e.logger.WithField("queries", queries).Debug("filter run cancelled")
		return nil, err
	}
	e.record(state, page, queries, time.Since(start), err)
	return page, err
}

// apply runs one evaluation and counts the storage queries it issued
func (e *Engine) apply(ctx context.Context, state models.FilterState) (*models.FilteredPage, int, error) {
	plan, err := filter.RouteState(e.catalog, state)
	if err != nil {
		return nil, 0, err
	}

	owners, queries, err := e.resolver.Resolve(ctx, e.tenant, plan.OwnerFixed, plan.OwnerCustom)
	if err != nil {
		return nil, queries, err
	}

	raw, err := e.executor.Execute(ctx, executor.Request{
		Tenant: e.tenant,
		Rules:  plan.Primary,
		Owners: owners,
		Page:   state.Page,
		Order:  state.Order,
	})
	if err != nil {
		return nil, queries + 1, err
	}
	queries += raw.Queries

	return refine.Refine(raw, refine.FromState(state, e.recentWindow), e.now()), queries, nil
}

// Explain returns the storage queries state would issue, owner
// resolution first. The membership predicate of the primary query is
// left out since it depends on resolved ids.
func (e *Engine) Explain(state models.FilterState) ([]store.Query, error) {
	plan, err := filter.RouteState(e.catalog, state)
	if err != nil {
		return nil, err
	}
	queries, err := e.resolver.PlanQueries(e.tenant, plan.OwnerFixed, plan.OwnerCustom)
	if err != nil {
		return nil, err
	}
	primary, err := e.executor.Query(executor.Request{
		Tenant: e.tenant,
		Rules:  plan.Primary,
		Page:   state.Page,
		Order:  state.Order,
	})
	if err != nil {
		return nil, err
	}
	return append(queries, primary), nil
}

func (e *Engine) record(state models.FilterState, page *models.FilteredPage, queries int, d time.Duration, err error) {
	entry := history.RunEntry{
		RunID:       uuid.NewString(),
		Tenant:      e.tenant,
		Fingerprint: history.Fingerprint(state),
		Summary:     history.Summary(state),
		ExecutedAt:  e.now(),
		Duration:    d,
		Queries:     queries,
		Success:     err == nil,
	}
	if page != nil {
		entry.Rows = len(page.Conversations)
		entry.Total = page.Total
	}
	if err != nil {
		entry.ErrorMessage = err.Error()
	}

	fields := logrus.Fields{
		"run":      entry.RunID,
		"rows":     entry.Rows,
		"queries":  queries,
		"duration": d,
	}
	if err != nil {
		e.logger.WithFields(fields).WithError(err).Warn("filter run failed")
	} else {
		e.logger.WithFields(fields).Debug("filter run done")
	}

	if e.recorder == nil {
		return
	}
	if rerr := e.recorder.Add(entry); rerr != nil {
		e.logger.WithError(rerr).Warn("failed to record filter run")
	}
}

// IsRetryable reports whether err came from a read that may succeed
// when repeated
func IsRetryable(err error) bool {
	var re interface{ Retryable() bool }
	if errors.As(err, &re) {
		return re.Retryable()
	}
	var qe *executor.QueryError
	return errors.As(err, &qe) && !errors.Is(err, context.Canceled)
}
