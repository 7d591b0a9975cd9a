// Package ctxsync provides locks that can be waited on with a
// [context.Context].
package ctxsync

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// maxReaders is the weight taken by a writer.
const maxReaders = 1 << 30

// NewRWMutex creates a new instance of RWMutex.
func NewRWMutex() *RWMutex {
	return &RWMutex{sem: semaphore.NewWeighted(maxReaders)}
}

// A RWMutex is a reader/writer mutual exclusion lock. Waiters are served in
// the order they called a lock method, so a waiting writer blocks readers
// that arrive after it.
type RWMutex struct {
	sem *semaphore.Weighted
}

// RLock locks rw for reading until RUnlock is called or ctx is cancelled.
func (rw *RWMutex) RLock(ctx context.Context) error {
	return rw.sem.Acquire(ctx, 1)
}

// RUnlock undoes a single RLock call.
func (rw *RWMutex) RUnlock() {
	rw.sem.Release(1)
}

// Lock locks rw for writing until Unlock is called or ctx is cancelled.
func (rw *RWMutex) Lock(ctx context.Context) error {
	return rw.sem.Acquire(ctx, maxReaders)
}

// TryLock tries to lock rw for writing and reports whether it succeeded.
func (rw *RWMutex) TryLock() bool {
	return rw.sem.TryAcquire(maxReaders)
}

// Unlock unlocks rw for writing. It panics if rw is not locked.
func (rw *RWMutex) Unlock() {
	rw.sem.Release(maxReaders)
}
