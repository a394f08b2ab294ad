package lock

import (
	"context"
	"errors"
	"sync"
)

// ErrNotAcquired is returned when the lock could not be taken before ctx expired.
var ErrNotAcquired = errors.New("lock not acquired")

// Unlock releases a held lock.
type Unlock func(ctx context.Context) error

// Locker serializes work on a key across callers.
type Locker interface {
	Acquire(ctx context.Context, key string) (Unlock, error)
}

// LocalLocker is a keyed mutex for a single process.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*keySlot
}

type keySlot struct {
	ch   chan struct{}
	refs int
}

// NewLocalLocker constructs the locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*keySlot)}
}

// Acquire blocks until key is free or ctx is done.
func (l *LocalLocker) Acquire(ctx context.Context, key string) (Unlock, error) {
	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = &keySlot{ch: make(chan struct{}, 1)}
		l.slots[key] = slot
	}
	slot.refs++
	l.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, slot, false)
		return nil, errors.Join(ErrNotAcquired, ctx.Err())
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() { l.release(key, slot, true) })
		return nil
	}, nil
}

func (l *LocalLocker) release(key string, slot *keySlot, held bool) {
	if held {
		<-slot.ch
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, key)
	}
}
