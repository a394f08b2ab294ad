package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerSerializesSameKey(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		inside  int
		maxSeen int
		mu      sync.Mutex
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Acquire(ctx, "booking:DELIVERY")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			assert.NoError(t, unlock(ctx))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Empty(t, locker.slots, "idle keys are dropped")
}

func TestLocalLockerIndependentKeys(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	unlockA, err := locker.Acquire(ctx, "a")
	require.NoError(t, err)

	ctxB, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	unlockB, err := locker.Acquire(ctxB, "b")
	require.NoError(t, err)

	require.NoError(t, unlockA(ctx))
	require.NoError(t, unlockB(ctx))
}

func TestLocalLockerHonorsContext(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	unlock, err := locker.Acquire(ctx, "k")
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = locker.Acquire(waitCtx, "k")
	assert.ErrorIs(t, err, ErrNotAcquired)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock(ctx))
	require.NoError(t, unlock(ctx), "double unlock is a no-op")

	unlock, err = locker.Acquire(ctx, "k")
	require.NoError(t, err)
	require.NoError(t, unlock(ctx))
}
