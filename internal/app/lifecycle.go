package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tracehub.io/tracehub/internal/pkg/logger"
)

// shutdownBudget bounds the River stop and the module shutdowns together.
// Jobs still running when it expires are abandoned and retried by River on
// the next start.
const shutdownBudget = 30 * time.Second

// Start begins consuming the dispatch, mail, domain event and activity
// queues. Without a River client it is a no-op.
func (a *Application) Start(ctx context.Context) error {
	if a.DB == nil || a.DB.RiverClient == nil {
		return nil
	}
	if err := a.DB.RiverClient.Start(ctx); err != nil {
		return fmt.Errorf("start river client: %w", err)
	}
	logger.Info("river client started")
	return nil
}

// Shutdown stops job intake first, then the modules, then closes pools,
// Redis and the database. It is safe on a partially built Application.
func (a *Application) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownBudget)
	defer cancel()

	a.step("river", func() error {
		if a.DB == nil || a.DB.RiverClient == nil {
			return nil
		}
		return a.DB.RiverClient.Stop(ctx)
	})
	for _, mod := range a.Modules {
		if mod == nil {
			continue
		}
		a.step("module "+mod.Name(), func() error { return mod.Shutdown(ctx) })
	}
	a.step("infrastructure", func() error {
		switch {
		case a.Infra != nil:
			a.Infra.Close()
		default:
			if a.Pools != nil {
				a.Pools.Shutdown()
			}
			if a.DB != nil {
				a.DB.Close()
			}
		}
		return nil
	})
}

func (a *Application) step(name string, stop func() error) {
	start := time.Now()
	if err := stop(); err != nil {
		logger.Warn("shutdown step failed", zap.String("step", name), zap.Error(err))
		return
	}
	logger.Debug("shutdown step done", zap.String("step", name), zap.Duration("took", time.Since(start)))
}
