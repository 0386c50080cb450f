package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_MutualExclusionPerKey(t *testing.T) {
	k := NewKeyed()

	const goroutines = 50
	const perGoroutine = 20

	counter := 0
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				_ = k.Do(context.Background(), "event-1", func() error {
					// unguarded read-modify-write; only safe if Do serializes
					v := counter
					v++
					counter = v
					return nil
				})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, goroutines*perGoroutine, counter)
	assert.Equal(t, 0, k.Len())
}

func TestDo_FIFOPerKey(t *testing.T) {
	k := NewKeyed()

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = k.Do(context.Background(), "e", func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		i := i
		go func() {
			defer wg.Done()
			_ = k.Do(context.Background(), "e", func() error {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return nil
			})
		}()
		// give each waiter time to enqueue before spawning the next
		time.Sleep(10 * time.Millisecond)
	}

	close(release)
	wg.Wait()

	require.Len(t, order, 10)
	for i, got := range order {
		assert.Equal(t, i, got, "call %d ran out of arrival order", i)
	}
}

func TestDo_IndependentKeysDoNotBlock(t *testing.T) {
	k := NewKeyed()

	holding := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = k.Do(context.Background(), "event-a", func() error {
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding

	doneB := make(chan struct{})
	go func() {
		_ = k.Do(context.Background(), "event-b", func() error { return nil })
		close(doneB)
	}()

	select {
	case <-doneB:
	case <-time.After(2 * time.Second):
		t.Fatal("call for a different key blocked behind event-a")
	}
	close(release)
}

func TestDo_ReleasesOnError(t *testing.T) {
	k := NewKeyed()
	boom := errors.New("boom")

	err := k.Do(context.Background(), "e", func() error { return boom })
	require.ErrorIs(t, err, boom)

	// the key must be usable again and pruned afterwards
	err = k.Do(context.Background(), "e", func() error { return nil })
	assert.NoError(t, err)
	assert.Equal(t, 0, k.Len())
}

func TestDo_ReleasesOnPanic(t *testing.T) {
	k := NewKeyed()

	require.Panics(t, func() {
		_ = k.Do(context.Background(), "e", func() error { panic("kaboom") })
	})

	done := make(chan struct{})
	go func() {
		_ = k.Do(context.Background(), "e", func() error { return nil })
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("key still locked after panic")
	}
	assert.Equal(t, 0, k.Len())
}

func TestDo_ContextCancelledWhileWaiting(t *testing.T) {
	k := NewKeyed()

	holding := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = k.Do(context.Background(), "e", func() error {
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	ran := false
	go func() {
		errCh <- k.Do(ctx, "e", func() error {
			ran = true
			return nil
		})
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	require.ErrorIs(t, <-errCh, context.Canceled)
	assert.False(t, ran)

	// a successor queued behind the cancelled call must still run
	done := make(chan struct{})
	go func() {
		_ = k.Do(context.Background(), "e", func() error { return nil })
		close(done)
	}()
	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("chain broken by cancelled waiter")
	}
}
