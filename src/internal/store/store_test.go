package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func increment(n int) int { return n + 1 }

func TestStore_DispatchReturnsNewState(t *testing.T) {
	s := New(0)

	assert.Equal(t, 1, s.Dispatch(increment))
	assert.Equal(t, 2, s.Dispatch(increment))
	assert.Equal(t, 2, s.State())
}

func TestStore_SubscribeReceivesUpdates(t *testing.T) {
	s := New("a")

	var got []string
	unsubscribe := s.Subscribe(func(v string) { got = append(got, v) })

	s.Dispatch(func(string) string { return "b" })
	s.Dispatch(func(string) string { return "c" })
	unsubscribe()
	s.Dispatch(func(string) string { return "d" })

	assert.Equal(t, []string{"b", "c"}, got)
}

func TestStore_UnsubscribeIsIdempotent(t *testing.T) {
	s := New(0)
	calls := 0
	first := s.Subscribe(func(int) { calls++ })
	second := s.Subscribe(func(int) { calls += 10 })

	first()
	first()
	s.Dispatch(increment)

	assert.Equal(t, 10, calls)
	second()
}

func TestStore_ListenerMayReadState(t *testing.T) {
	s := New(0)
	var seen int
	s.Subscribe(func(int) { seen = s.State() })

	s.Dispatch(increment)

	assert.Equal(t, 1, seen)
}

func TestStore_ConcurrentDispatch(t *testing.T) {
	s := New(0)

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Dispatch(increment)
		}()
	}
	wg.Wait()

	require.Equal(t, 100, s.State())
}
