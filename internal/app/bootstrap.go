// Package app is the composition root. Bootstrap stays orchestration-only;
// wiring lives in internal/app/modules.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/riverqueue/river"

	"tracehub.io/tracehub/internal/api/handlers"
	"tracehub.io/tracehub/internal/app/modules"
	"tracehub.io/tracehub/internal/config"
	"tracehub.io/tracehub/internal/infrastructure"
	"tracehub.io/tracehub/internal/jobs"
	"tracehub.io/tracehub/internal/metrics"
	"tracehub.io/tracehub/internal/pkg/worker"
)

// Application holds composed application dependencies.
type Application struct {
	Config  *config.Config
	Router  *gin.Engine
	DB      *infrastructure.DatabaseClients
	Pools   *worker.Pools
	Modules []modules.Module
	Infra   *modules.Infrastructure

	// Events publishes domain events for asynchronous notification.
	Events *jobs.EventQueue
}

// Bootstrap composes the application. On error everything already opened is
// closed again.
func Bootstrap(ctx context.Context, cfg *config.Config) (_ *Application, err error) {
	infra, err := modules.NewInfrastructure(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init infrastructure: %w", err)
	}
	defer func() {
		if err != nil {
			infra.Close()
		}
	}()

	notifications, err := modules.NewNotificationModule(ctx, infra)
	if err != nil {
		return nil, fmt.Errorf("init notification module: %w", err)
	}
	mods := []modules.Module{notifications}

	registry := river.NewWorkers()
	for _, mod := range mods {
		mod.RegisterWorkers(registry)
	}
	if err = infra.InitRiver(registry); err != nil {
		return nil, fmt.Errorf("init river workers: %w", err)
	}
	schedulePeriodicJobs(infra)

	metrics.MustRegister(prometheus.DefaultRegisterer)
	if err = metrics.RegisterPools(prometheus.DefaultRegisterer, infra.Pools); err != nil {
		return nil, fmt.Errorf("register pool metrics: %w", err)
	}

	server := handlers.NewServer(modules.NewServerDeps(infra, mods))
	return &Application{
		Config:  cfg,
		Router:  newRouter(cfg, server, modules.JWTConfig(cfg), infra.ActivityToucher()),
		DB:      infra.DB,
		Pools:   infra.Pools,
		Modules: mods,
		Infra:   infra,
		Events:  notifications.Events,
	}, nil
}

// schedulePeriodicJobs adds the activity flush, which writes buffered Redis
// last-seen times to users.last_active_at once at startup and then every
// jobs.ActivitySyncInterval.
func schedulePeriodicJobs(infra *modules.Infrastructure) {
	if infra.RiverClient == nil || infra.Activity == nil {
		return
	}
	infra.RiverClient.PeriodicJobs().Add(river.NewPeriodicJob(
		river.PeriodicInterval(jobs.ActivitySyncInterval),
		func() (river.JobArgs, *river.InsertOpts) { return jobs.ActivitySyncArgs{}, nil },
		&river.PeriodicJobOpts{RunOnStart: true},
	))
}
