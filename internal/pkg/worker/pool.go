// Package worker runs in-process work on bounded ants pools.
//
// Trigger fan-out and detached request side work go through a Pool. Nothing
// in the request or trigger path starts a bare goroutine.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"tracehub.io/tracehub/internal/pkg/logger"
)

// ErrPoolClosed is returned when submitting to a released pool.
var ErrPoolClosed = errors.New("worker pool is closed")

const releaseTimeout = 30 * time.Second

// Task is a unit of pool work.
type Task func(ctx context.Context)

// Pool is a named ants pool bound to the service lifetime.
type Pool struct {
	name    string
	ants    *ants.Pool
	service context.Context
}

// Stats is a point-in-time view of one pool.
type Stats struct {
	Name    string
	Running int
	Free    int
	Cap     int
}

// Pools holds the process pools.
type Pools struct {
	// General runs detached side work such as activity touches.
	General *Pool
	// Dispatch fans out per-recipient notification work for one domain event.
	Dispatch *Pool

	cancel context.CancelFunc
}

// PoolConfig sizes the pools.
type PoolConfig struct {
	GeneralPoolSize  int
	DispatchPoolSize int
}

func DefaultPoolConfig() PoolConfig {
	return PoolConfig{GeneralPoolSize: 100, DispatchPoolSize: 20}
}

// NewPools creates the pools. Cancelling ctx or calling Shutdown stops
// detached work.
func NewPools(ctx context.Context, cfg PoolConfig) (*Pools, error) {
	service, cancel := context.WithCancel(ctx)

	general, err := newPool(service, "general", cfg.GeneralPoolSize, 10*time.Second)
	if err != nil {
		cancel()
		return nil, err
	}
	dispatch, err := newPool(service, "dispatch", cfg.DispatchPoolSize, 30*time.Second)
	if err != nil {
		general.ants.Release()
		cancel()
		return nil, err
	}
	return &Pools{General: general, Dispatch: dispatch, cancel: cancel}, nil
}

func newPool(service context.Context, name string, size int, expiry time.Duration) (*Pool, error) {
	p, err := ants.NewPool(size,
		ants.WithExpiryDuration(expiry),
		ants.WithPanicHandler(func(r any) {
			logger.Error("worker task panicked",
				zap.String("pool", name),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s pool: %w", name, err)
	}
	return &Pool{name: name, ants: p, service: service}, nil
}

func (p *Pool) submit(fn func()) error {
	err := p.ants.Submit(fn)
	if errors.Is(err, ants.ErrPoolClosed) {
		return ErrPoolClosed
	}
	return err
}

// Submit queues task with ctx. A task whose ctx is done by the time a worker
// picks it up is dropped.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.submit(func() {
		if ctx.Err() != nil {
			logger.Debug("pool task dropped: context done", zap.String("pool", p.name))
			return
		}
		task(ctx)
	})
}

// Detach queues task under the service context instead of a caller's, so it
// outlives the request that started it but not the process.
func (p *Pool) Detach(task Task) error {
	return p.Submit(p.service, task)
}

// Each runs fn for every index in [0, n) on the pool and waits for all of
// them. Errors are joined; one failing or panicking item does not stop the
// others. Items still queued when ctx is cancelled report ctx.Err().
func (p *Pool) Each(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	record := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	for i := 0; i < n; i++ {
		wg.Add(1)
		err := p.submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				record(err)
				return
			}
			if err := runItem(ctx, i, fn); err != nil {
				record(err)
			}
		})
		if err != nil {
			wg.Done()
			record(err)
		}
	}
	wg.Wait()
	return errors.Join(errs...)
}

// runItem turns a panic in fn into an error for item i.
func runItem(ctx context.Context, i int, fn func(ctx context.Context, i int) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("item %d: panic: %v", i, r)
		}
	}()
	return fn(ctx, i)
}

// Stats reports the pool's current occupancy.
func (p *Pool) Stats() Stats {
	return Stats{Name: p.name, Running: p.ants.Running(), Free: p.ants.Free(), Cap: p.ants.Cap()}
}

// Stats reports every pool.
func (p *Pools) Stats() []Stats {
	return []Stats{p.General.Stats(), p.Dispatch.Stats()}
}

// Shutdown cancels detached work and waits up to releaseTimeout per pool
// for running tasks.
func (p *Pools) Shutdown() {
	p.cancel()
	for _, pool := range []*Pool{p.General, p.Dispatch} {
		if err := pool.ants.ReleaseTimeout(releaseTimeout); err != nil {
			logger.Warn("worker pool release timed out", zap.String("pool", pool.name), zap.Error(err))
		}
	}
}
