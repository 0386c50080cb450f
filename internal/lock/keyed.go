// Package lock provides per-key serialization of critical sections.
//
// The engine uses it to guarantee that seat-count read-modify-write
// sequences for one event run one at a time and in arrival order, while
// operations on different events proceed independently. Payment
// confirmation uses a second instance keyed by payment id.
package lock

import (
	"context"
	"sync"
)

// Keyed runs functions exclusively per key, FIFO per key. The zero value
// is not usable; call NewKeyed.
type Keyed struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// entry is the queue state for one key. tail is the completion channel of
// the most recently enqueued call; nil means the key is free.
type entry struct {
	tail    chan struct{}
	waiters int
}

func NewKeyed() *Keyed {
	return &Keyed{entries: make(map[string]*entry)}
}

// Do runs fn exclusively with respect to every other Do call with the same
// key. Calls for the same key run in arrival order. The exclusive section
// is released on every exit path, including a panic inside fn; the panic
// then propagates to the caller.
//
// If ctx is cancelled while waiting for the predecessor, Do returns
// ctx.Err() without running fn. Cancellation is not observed once fn has
// started; mutations are expected to be short.
func (k *Keyed) Do(ctx context.Context, key string, fn func() error) error {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	prev := e.tail
	done := make(chan struct{})
	e.tail = done
	e.waiters++
	k.mu.Unlock()

	if prev != nil {
		select {
		case <-prev:
		case <-ctx.Done():
			// The chain must not break: successors wait on done, so it has
			// to close once the predecessor finishes even though this call
			// gave up.
			go func() {
				<-prev
				k.release(key, e, done)
			}()
			return ctx.Err()
		}
	}

	defer k.release(key, e, done)
	return fn()
}

func (k *Keyed) release(key string, e *entry, done chan struct{}) {
	close(done)
	k.mu.Lock()
	e.waiters--
	if e.waiters == 0 {
		delete(k.entries, key)
	}
	k.mu.Unlock()
}

// Len reports how many keys currently have a call in flight or queued.
// Once all calls for a key finish, the key is pruned.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
