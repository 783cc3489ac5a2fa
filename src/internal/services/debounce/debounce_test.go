package debounce

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quiet = 20 * time.Millisecond

func TestTrigger_OnlyLastFires(t *testing.T) {
	d := New(quiet)
	var calls atomic.Int32
	var last atomic.Value
	done := make(chan struct{}, 5)

	for _, q := range []string{"d", "du", "dun", "dune"} {
		d.Trigger(func(context.Context) {
			calls.Add(1)
			last.Store(q)
			done <- struct{}{}
		})
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("debounced call never fired")
	}
	time.Sleep(3 * quiet)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "dune", last.Load())
}

func TestTrigger_NewInputCancelsRunningCall(t *testing.T) {
	d := New(quiet)
	started := make(chan struct{})
	cancelled := make(chan struct{})

	d.Trigger(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		close(cancelled)
	})
	<-started

	d.Trigger(func(context.Context) {})

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("running call was not cancelled")
	}
}

func TestCancel_DropsPendingCall(t *testing.T) {
	d := New(quiet)
	var fired atomic.Bool

	d.Trigger(func(context.Context) { fired.Store(true) })
	d.Cancel()
	time.Sleep(3 * quiet)

	assert.False(t, fired.Load())

	var wg sync.WaitGroup
	wg.Add(1)
	d.Trigger(func(context.Context) { wg.Done() })
	wg.Wait()
}

func TestStop_IgnoresLaterTriggers(t *testing.T) {
	d := New(quiet)
	var fired atomic.Bool

	d.Stop()
	d.Trigger(func(context.Context) { fired.Store(true) })
	time.Sleep(3 * quiet)

	require.False(t, fired.Load())
}
