package core

import (
	"context"

	"github.com/agubarev/lowcode/pkg/config"
	"github.com/agubarev/lowcode/pkg/database"
	"github.com/agubarev/lowcode/pkg/domain"
	"github.com/agubarev/lowcode/pkg/group"
	"github.com/agubarev/lowcode/pkg/workflow"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Runtime is a configured core along with the resources it holds
type Runtime struct {
	*Core

	Pool *pgxpool.Pool

	closers []func() error
}

// Close releases every held resource in reverse order
func (r *Runtime) Close() error {
	var first error

	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil && first == nil {
			first = err
		}
	}

	r.closers = nil

	return first
}

// Open builds the core as configured: tenancy data lives in PostgreSQL
// whenever a DSN is given and in memory otherwise, workflows live in
// the selected backend; metrics are registered if a registerer is given
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger, reg prometheus.Registerer) (rt *Runtime, err error) {
	if logger == nil {
		return nil, ErrNilLogger
	}

	if err = cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	rt = &Runtime{}

	// releasing whatever has been opened so far
	defer func() {
		if err != nil {
			rt.Close()
			rt = nil
		}
	}()

	stores := Stores{
		Domains: domain.NewMemoryStore(),
		Groups:  group.NewMemoryStore(),
	}

	//---------------------------------------------------------------------------
	// postgres
	//---------------------------------------------------------------------------
	if cfg.Postgres.DSN != "" {
		pc := cfg.PoolConfig()
		pc.Logger = logger

		if rt.Pool, err = database.NewPool(ctx, pc); err != nil {
			return rt, err
		}

		rt.closers = append(rt.closers, func() error {
			rt.Pool.Close()
			return nil
		})

		if stores.Domains, err = domain.NewPostgreSQLStore(rt.Pool); err != nil {
			return rt, err
		}

		if stores.Groups, err = group.NewPostgreSQLStore(rt.Pool); err != nil {
			return rt, err
		}
	}

	//---------------------------------------------------------------------------
	// workflow backend
	//---------------------------------------------------------------------------
	switch cfg.Backend {
	case config.BackendMemory:
		stores.Workflows = workflow.NewMemoryStore()
	case config.BackendPostgres:
		stores.Workflows, err = workflow.NewPostgreSQLStore(rt.Pool)
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		rt.closers = append(rt.closers, client.Close)

		if err = client.Ping(ctx).Err(); err != nil {
			return rt, errors.Wrapf(err, "failed to reach redis at %s", cfg.Redis.Addr)
		}

		stores.Workflows, err = workflow.NewRedisStore(client, workflow.WithRedisPrefix(cfg.Redis.Prefix))
	case config.BackendBadger:
		db, oerr := workflow.OpenBadger(cfg.Badger.Dir, logger)
		if oerr != nil {
			return rt, oerr
		}

		rt.closers = append(rt.closers, db.Close)

		stores.Workflows, err = workflow.NewBadgerStore(db)
	}

	if err != nil {
		return rt, errors.Wrapf(err, "failed to initialize %s workflow store", cfg.Backend)
	}

	//---------------------------------------------------------------------------
	// core
	//---------------------------------------------------------------------------
	if rt.Core, err = New(stores); err != nil {
		return rt, err
	}

	if err = rt.Core.SetLogger(logger); err != nil {
		return rt, err
	}

	metrics, err := workflow.NewMetrics(reg)
	if err != nil {
		return rt, err
	}

	rt.Engine().SetMetrics(metrics)

	logger.Info(
		"core initialized",
		zap.String("workflow_backend", cfg.Backend),
		zap.Bool("postgres", rt.Pool != nil),
	)

	return rt, nil
}
