package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracehub.io/tracehub/internal/pkg/logger"
)

func init() {
	_ = logger.Init("error", "json")
}

func newTestPools(t *testing.T, general, dispatch int) *Pools {
	t.Helper()
	pools, err := NewPools(context.Background(), PoolConfig{GeneralPoolSize: general, DispatchPoolSize: dispatch})
	require.NoError(t, err)
	return pools
}

func TestPool_Submit(t *testing.T) {
	pools := newTestPools(t, 2, 2)
	defer pools.Shutdown()

	done := make(chan struct{})
	require.NoError(t, pools.General.Submit(context.Background(), func(context.Context) { close(done) }))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("task did not run")
	}
}

func TestPool_Submit_CancelledContext(t *testing.T) {
	pools := newTestPools(t, 1, 1)
	defer pools.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pools.General.Submit(ctx, func(context.Context) {
		t.Error("task ran with a cancelled context")
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestPool_Submit_DroppedWhenCancelledWhileQueued(t *testing.T) {
	pools := newTestPools(t, 1, 1)
	defer pools.Shutdown()

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, pools.General.Submit(context.Background(), func(context.Context) {
		close(started)
		<-release
	}))
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	var ran atomic.Bool
	submitted := make(chan error, 1)
	go func() { //nolint:naked-goroutine // blocks until the pool frees up
		submitted <- pools.General.Submit(ctx, func(context.Context) { ran.Store(true) })
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	close(release)

	if err := <-submitted; err != nil {
		require.ErrorIs(t, err, context.Canceled)
	}
	time.Sleep(20 * time.Millisecond)
	assert.False(t, ran.Load(), "queued task ran after its context was cancelled")
}

func TestPool_Each(t *testing.T) {
	pools := newTestPools(t, 4, 2)
	defer pools.Shutdown()

	var (
		mu   sync.Mutex
		seen = map[int]bool{}
	)
	boom := errors.New("recipient u-3: membership lookup failed")

	err := pools.Dispatch.Each(context.Background(), 5, func(_ context.Context, i int) error {
		mu.Lock()
		seen[i] = true
		mu.Unlock()
		if i == 3 {
			return boom
		}
		return nil
	})

	require.ErrorIs(t, err, boom)
	require.Len(t, seen, 5, "a failing item must not stop the others")
}

func TestPool_Each_PanicIsReported(t *testing.T) {
	pools := newTestPools(t, 4, 2)
	defer pools.Shutdown()

	var calls atomic.Int32
	err := pools.Dispatch.Each(context.Background(), 4, func(_ context.Context, i int) error {
		calls.Add(1)
		if i == 2 {
			panic("recipient u-2 has no membership row")
		}
		return nil
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "item 2: panic:")
	assert.Equal(t, int32(4), calls.Load(), "a panicking item must not stop the others")
}

func TestPool_Each_CancelledContext(t *testing.T) {
	pools := newTestPools(t, 1, 1)
	defer pools.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	err := pools.Dispatch.Each(ctx, 3, func(context.Context, int) error {
		calls.Add(1)
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, calls.Load())
}

func TestPool_Each_AfterShutdown(t *testing.T) {
	pools := newTestPools(t, 1, 1)
	pools.Shutdown()

	err := pools.Dispatch.Each(context.Background(), 2, func(context.Context, int) error { return nil })
	require.ErrorIs(t, err, ErrPoolClosed)
}

func TestPool_Detach(t *testing.T) {
	pools := newTestPools(t, 2, 1)

	var detachedCtx context.Context
	done := make(chan struct{})
	require.NoError(t, pools.General.Detach(func(ctx context.Context) {
		detachedCtx = ctx
		close(done)
	}))
	<-done
	require.NoError(t, detachedCtx.Err(), "detached work runs under the live service context")

	pools.Shutdown()
	require.ErrorIs(t, detachedCtx.Err(), context.Canceled)
	require.Error(t, pools.General.Detach(func(context.Context) {}))
}

func TestPools_Stats(t *testing.T) {
	pools := newTestPools(t, 10, 5)
	defer pools.Shutdown()

	stats := pools.Stats()
	require.Len(t, stats, 2)
	assert.Equal(t, Stats{Name: "general", Running: 0, Free: 10, Cap: 10}, stats[0])
	assert.Equal(t, "dispatch", stats[1].Name)
	assert.Equal(t, 5, stats[1].Cap)
}

func TestPool_PanicIsRecovered(t *testing.T) {
	pools := newTestPools(t, 1, 1)
	defer pools.Shutdown()

	require.NoError(t, pools.General.Submit(context.Background(), func(context.Context) { panic("bad template data") }))

	done := make(chan struct{})
	require.NoError(t, pools.General.Submit(context.Background(), func(context.Context) { close(done) }))
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pool stopped serving after a panic")
	}
}
