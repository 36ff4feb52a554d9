package community

import (
	"context"
	"errors"
	"sync"
)

// ErrBusy indicates the lock is currently held elsewhere and wait was
// false. A waiting Acquire whose context ends returns ctx.Err() instead.
var ErrBusy = errors.New("community: rebuild lock busy")

// rebuildLockKey is the single exclusive lock name community rebuilds
// contend on, so two rebuilds never race writes to the same entities.
const rebuildLockKey = "community_rebuild"

// Lock serializes community rebuilds. The default implementation is an
// in-process mutex; when a durable store is configured, a pgx-backed
// lease should back the same interface instead so multiple engine
// instances coordinate correctly.
type Lock interface {
	Acquire(ctx context.Context, wait bool) (release func(), err error)
}

// InProcessLock is the default Lock: a single mutex guarding
// rebuildLockKey within one process.
type InProcessLock struct {
	mu sync.Mutex
}

func NewInProcessLock() *InProcessLock { return &InProcessLock{} }

func (l *InProcessLock) Acquire(ctx context.Context, wait bool) (func(), error) {
	if !wait {
		if !l.mu.TryLock() {
			return nil, ErrBusy
		}
		return l.mu.Unlock, nil
	}

	done := make(chan struct{})
	go func() {
		l.mu.Lock()
		close(done)
	}()
	select {
	case <-done:
		return l.mu.Unlock, nil
	case <-ctx.Done():
		go func() { <-done; l.mu.Unlock() }()
		return nil, ctx.Err()
	}
}
