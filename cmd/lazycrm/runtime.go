package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rebeliceyang/lazycrm/internal/catalog"
	"github.com/rebeliceyang/lazycrm/internal/config"
	"github.com/rebeliceyang/lazycrm/internal/db/connection"
	"github.com/rebeliceyang/lazycrm/internal/db/discovery"
	"github.com/rebeliceyang/lazycrm/internal/db/metadata"
	"github.com/rebeliceyang/lazycrm/internal/db/query"
	"github.com/rebeliceyang/lazycrm/internal/engine"
	"github.com/rebeliceyang/lazycrm/internal/filter"
	"github.com/rebeliceyang/lazycrm/internal/history"
	"github.com/rebeliceyang/lazycrm/internal/logging"
	"github.com/rebeliceyang/lazycrm/internal/models"
	"github.com/rebeliceyang/lazycrm/internal/resolver"
	"github.com/rebeliceyang/lazycrm/internal/store"
	"github.com/rebeliceyang/lazycrm/internal/store/memory"
)

// runtime is everything a command needs, opened from the config
type runtime struct {
	cfg     *config.Config
	logger  *logrus.Entry
	engine  *engine.Engine
	history *history.Store
	closers []func()
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// loadConfig reads the config file and applies the persistent flags
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	demo, _ := cmd.Flags().GetBool("demo")
	tenant, _ := cmd.Flags().GetString("tenant")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if demo {
		cfg.Demo.Enabled = true
	}
	if tenant != "" {
		cfg.Tenant.ID = tenant
	}
	if cfg.Demo.Enabled && cfg.Tenant.ID == "" {
		cfg.Tenant.ID = memory.DemoTenant
	}
	if cfg.Tenant.ID == "" {
		return nil, fmt.Errorf("no tenant configured: set tenant.id or pass --tenant")
	}
	return cfg, nil
}

// openLogger builds the root logger; interactive runs keep the terminal clean
func openLogger(cfg *config.Config, interactive bool) (*logrus.Entry, io.Closer, error) {
	logger, closer, err := logging.New(cfg.LoggerConfig(interactive))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return logger, closer, nil
}

// openRuntime wires config, logging, storage, catalog, history and engine
func openRuntime(ctx context.Context, cmd *cobra.Command, interactive bool) (*runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, logCloser, err := openLogger(cfg, interactive)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, logger: logger}
	rt.closers = append(rt.closers, func() { _ = logCloser.Close() })

	s, err := rt.openStore(ctx)
	if err != nil {
		rt.Close()
		return nil, err
	}

	fields, err := catalog.NewBuilder(s, catalog.NewStoreDirectory(s), cfg.Engine.QueryTimeout, logger).
		Build(ctx, cfg.Tenant.ID)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to build field catalog: %w", err)
	}
	for _, note := range fields.Degraded() {
		logger.WithField("note", note).Warn("field catalog degraded")
	}

	opts := []engine.Option{engine.WithLogger(logger)}
	if cfg.History.Enabled {
		hs, err := openHistory(cfg)
		if err != nil {
			// History is a convenience; the engine runs without it
			logger.WithError(err).Warn("run history disabled")
		} else {
			rt.history = hs
			rt.closers = append(rt.closers, func() { _ = hs.Close() })
			opts = append(opts, engine.WithRecorder(hs))
		}
	}

	rt.engine = engine.New(s, fields, engine.Config{
		Tenant: cfg.Tenant.ID,
		Resolver: resolver.Config{
			QueryTimeout:           cfg.Engine.QueryTimeout,
			Concurrency:            cfg.Engine.Concurrency,
			CandidateWarnThreshold: cfg.Engine.CandidateWarnThreshold,
			MaxCandidates:          cfg.Engine.MaxCandidates,
		},
		DefaultLimit: cfg.Engine.DefaultLimit,
		RecentWindow: cfg.Engine.RecentWindow,
	}, opts...)

	logger.WithFields(logrus.Fields{
		"tenant": cfg.Tenant.ID,
		"demo":   cfg.Demo.Enabled,
		"fields": fields.Len(),
	}).Info("engine ready")
	return rt, nil
}

// openStore returns the demo dataset or a checked PostgreSQL store
func (r *runtime) openStore(ctx context.Context) (store.Store, error) {
	if r.cfg.Demo.Enabled {
		r.logger.Info("using demo dataset")
		return memory.NewDemo(r.cfg.Tenant.ID, time.Now()), nil
	}

	conn := discovery.ApplyEnvironment(r.cfg.Connection())

	var ring *connection.PasswordStore
	if r.cfg.Database.UseKeyring {
		dir, err := config.GetConfigPath()
		if err == nil {
			ring, err = connection.NewPasswordStore(dir)
		}
		if err != nil {
			r.logger.WithError(err).Warn("keyring unavailable")
			ring = nil
		}
	}

	pgpass, err := discovery.PgPassPath()
	if err != nil {
		pgpass = ""
	}
	conn, source, err := connection.ResolvePassword(conn, pgpass, ring)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database password: %w", err)
	}
	r.logger.WithFields(logrus.Fields{
		"dsn":             connection.Redacted(conn),
		"password_source": source.String(),
	}).Debug("connecting")

	pool, err := connection.NewPool(ctx, conn)
	if err != nil {
		return nil, err
	}
	r.closers = append(r.closers, pool.Close)

	if err := metadata.CheckSchema(ctx, pool, query.DefaultSchema); err != nil {
		return nil, err
	}
	return query.NewStore(pool, query.DefaultSchema, r.logger), nil
}

func openHistory(cfg *config.Config) (*history.Store, error) {
	path, err := cfg.HistoryPath()
	if err != nil {
		return nil, err
	}
	return history.NewStore(path, cfg.History.MaxEntries)
}

// loadState reads --state, or returns an empty state
func loadState(cmd *cobra.Command) (models.FilterState, error) {
	path, _ := cmd.Flags().GetString("state")
	if path == "" {
		return models.FilterState{}, nil
	}
	state, err := filter.LoadState(path)
	if err != nil {
		return models.FilterState{}, fmt.Errorf("failed to load filter state: %w", err)
	}
	return state, nil
}
