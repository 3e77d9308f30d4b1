package modules

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"go.uber.org/zap"

	"tracehub.io/tracehub/internal/activity"
	"tracehub.io/tracehub/internal/api/middleware"
	"tracehub.io/tracehub/internal/config"
	"tracehub.io/tracehub/internal/i18n"
	"tracehub.io/tracehub/internal/infrastructure"
	"tracehub.io/tracehub/internal/jobs"
	"tracehub.io/tracehub/internal/pkg/logger"
	"tracehub.io/tracehub/internal/pkg/worker"
)

// errRiverNotReady is returned by inserts made before InitRiver.
var errRiverNotReady = errors.New("river client is not initialized")

// Infrastructure is what every module builds on: the database pool, River,
// worker pools, locales and the optional Redis activity store.
type Infrastructure struct {
	Config      *config.Config
	DB          *infrastructure.DatabaseClients
	Pools       *worker.Pools
	Pool        *pgxpool.Pool
	RiverClient *river.Client[pgx.Tx]
	Localizer   *i18n.Bundle

	// Redis and Activity are nil when redis.addr is empty.
	Redis    *redis.Client
	Activity *activity.Tracker
}

// NewInfrastructure connects to PostgreSQL (migrating first when
// database.auto_migrate is set), loads the locale bundle, starts the worker
// pools and, if configured, connects to Redis. Whatever was opened before a
// failure is closed again.
func NewInfrastructure(ctx context.Context, cfg *config.Config) (_ *Infrastructure, err error) {
	infra := &Infrastructure{Config: cfg}
	defer func() {
		if err != nil {
			infra.Close()
		}
	}()

	if infra.DB, err = infrastructure.NewDatabaseClients(ctx, cfg.Database); err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	infra.Pool = infra.DB.Pool
	if cfg.Database.AutoMigrate {
		if err = infra.DB.AutoMigrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate schema: %w", err)
		}
	}

	if infra.Localizer, err = i18n.New(cfg.Notification.DefaultLocale, cfg.Notification.Locales); err != nil {
		return nil, fmt.Errorf("load locales: %w", err)
	}

	infra.Pools, err = worker.NewPools(ctx, worker.PoolConfig{
		GeneralPoolSize:  cfg.Worker.GeneralPoolSize,
		DispatchPoolSize: cfg.Worker.DispatchPoolSize,
	})
	if err != nil {
		return nil, fmt.Errorf("start worker pools: %w", err)
	}

	if cfg.Redis.Addr == "" {
		return infra, nil
	}
	infra.Redis = activity.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err = infra.Redis.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	infra.Activity = activity.NewTracker(infra.Redis)
	logger.Info("activity tracking enabled", zap.String("redis_addr", cfg.Redis.Addr))
	return infra, nil
}

// InitRiver builds the River client once every module has added its
// workers to the registry.
func (i *Infrastructure) InitRiver(registry *river.Workers) error {
	if i == nil || i.DB == nil || i.Config == nil {
		return errors.New("river: infrastructure is not connected")
	}
	if err := i.DB.InitRiverClient(registry, i.Config.River); err != nil {
		return fmt.Errorf("river client: %w", err)
	}
	i.RiverClient = i.DB.RiverClient
	return nil
}

// Inserter returns a jobs.Inserter bound to the River client. Modules build
// their queues before InitRiver runs, so the client is resolved per insert.
func (i *Infrastructure) Inserter() jobs.Inserter {
	return riverInserter{infra: i}
}

type riverInserter struct {
	infra *Infrastructure
}

func (r riverInserter) Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error) {
	if r.infra == nil || r.infra.RiverClient == nil {
		return nil, errRiverNotReady
	}
	return r.infra.RiverClient.Insert(ctx, args, opts)
}

// Close stops the pools, then closes Redis and the database. Fields that
// were never set are skipped.
func (i *Infrastructure) Close() {
	if i == nil {
		return
	}
	if pools := i.Pools; pools != nil {
		pools.Shutdown()
	}
	if i.Redis != nil {
		if err := i.Redis.Close(); err != nil {
			logger.Warn("failed to close redis client", zap.Error(err))
		}
	}
	if i.DB != nil {
		i.DB.Close()
	}
}

// ActivityToucher returns the last-seen recorder for the HTTP middleware, or
// nil when Redis is not configured. Touches run on the general pool so a slow
// Redis never delays the request.
func (i *Infrastructure) ActivityToucher() middleware.Toucher {
	if i == nil || i.Activity == nil || i.Pools == nil {
		return nil
	}
	return detachedToucher{pool: i.Pools.General, tracker: i.Activity}
}

type detachedToucher struct {
	pool    *worker.Pool
	tracker *activity.Tracker
}

func (d detachedToucher) Touch(_ context.Context, userID string) error {
	return d.pool.Detach(func(ctx context.Context) {
		if err := d.tracker.Touch(ctx, userID); err != nil {
			logger.Debug("failed to record user activity",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
	})
}
