package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timetrack/pkg/config"
)

func TestOwnerLock_RedisExclusive(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()

	a := NewOwnerLock(client, config.LockConfig{TTL: 5 * time.Second, AcquireTimeout: 100 * time.Millisecond})
	b := NewOwnerLock(client, config.LockConfig{TTL: 5 * time.Second, AcquireTimeout: 100 * time.Millisecond})

	release, err := a.Lock(ctx, 1)
	require.NoError(t, err)
	assert.True(t, mr.Exists(OwnerLockKey(1)))

	_, err = b.Lock(ctx, 1)
	assert.ErrorIs(t, err, ErrAcquireTimeout)

	// other owners are independent
	releaseOther, err := b.Lock(ctx, 2)
	require.NoError(t, err)
	releaseOther()

	release()
	assert.False(t, mr.Exists(OwnerLockKey(1)))

	release, err = b.Lock(ctx, 1)
	require.NoError(t, err)
	release()
}

func TestOwnerLock_WaitsForRelease(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()
	locker := NewOwnerLock(client, config.LockConfig{TTL: 5 * time.Second, AcquireTimeout: 2 * time.Second})

	release, err := locker.Lock(ctx, 1)
	require.NoError(t, err)

	go func() {
		time.Sleep(50 * time.Millisecond)
		release()
	}()

	second, err := locker.Lock(ctx, 1)
	require.NoError(t, err)
	second()
}

func TestOwnerLock_LocalMutualExclusion(t *testing.T) {
	locker := NewOwnerLock(nil, config.LockConfig{AcquireTimeout: 5 * time.Second})
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Lock(ctx, 7)
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Equal(t, 0, locker.local.size())
}

func TestOwnerLock_LocalTimeoutAndCancel(t *testing.T) {
	locker := NewOwnerLock(nil, config.LockConfig{AcquireTimeout: 30 * time.Millisecond})

	release, err := locker.Lock(context.Background(), 1)
	require.NoError(t, err)
	defer release()

	_, err = locker.Lock(context.Background(), 1)
	assert.ErrorIs(t, err, ErrAcquireTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = locker.Lock(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)

	// release is idempotent
	release()
	release()
	assert.Equal(t, 0, locker.local.size())
}
