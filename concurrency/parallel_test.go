package concurrency

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParallelExecutor_ResultsByIndex(t *testing.T) {
	boom := errors.New("boom")
	fns := []func() error{
		func() error { return nil },
		func() error { return boom },
		func() error { panic("bad") },
		func() error { return nil },
	}

	errs := NewParallelExecutor(2).Execute(context.Background(), fns)
	require.Len(t, errs, 4)
	assert.NoError(t, errs[0])
	assert.ErrorIs(t, errs[1], boom)
	assert.ErrorContains(t, errs[2], "panic: bad")
	assert.NoError(t, errs[3])
}

func TestParallelExecutor_BoundsConcurrency(t *testing.T) {
	var running, peak int32
	fns := make([]func() error, 10)
	for i := range fns {
		fns[i] = func() error {
			n := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return nil
		}
	}

	NewParallelExecutor(3).Execute(context.Background(), fns)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

func TestParallelExecutor_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	errs := NewParallelExecutor(0).Execute(ctx, []func() error{func() error { called = true; return nil }})
	assert.False(t, called)
	assert.ErrorIs(t, errs[0], context.Canceled)
	assert.Nil(t, NewParallelExecutor(1).Execute(ctx, nil))
}
