package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"timetrack/pkg/config"
	"timetrack/pkg/logger"
)

const (
	ownerLockKeyPrefix = "timetrack:owner-lock:"
	defaultPollEvery   = 25 * time.Millisecond
)

// ErrAcquireTimeout the owner lock was not obtained within the acquire timeout
var ErrAcquireTimeout = fmt.Errorf("timed out acquiring owner lock")

// OwnerLocker serializes state changes of one owner
type OwnerLocker interface {
	Lock(ctx context.Context, ownerID int64) (release func(), err error)
}

// OwnerLock uses a Redis lock per owner when a client is configured and a process-local
// keyed mutex otherwise.
type OwnerLock struct {
	client         *redis.Client
	ttl            time.Duration
	acquireTimeout time.Duration
	pollEvery      time.Duration
	local          *keyedMutex
}

// NewOwnerLock creates an owner lock; client may be nil
func NewOwnerLock(client *redis.Client, cfg config.LockConfig) *OwnerLock {
	acquireTimeout := cfg.AcquireTimeout
	if acquireTimeout <= 0 {
		acquireTimeout = 5 * time.Second
	}
	return &OwnerLock{
		client:         client,
		ttl:            cfg.TTL,
		acquireTimeout: acquireTimeout,
		pollEvery:      defaultPollEvery,
		local:          newKeyedMutex(),
	}
}

// OwnerLockKey Redis key of an owner's lock
func OwnerLockKey(ownerID int64) string {
	return fmt.Sprintf("%s%d", ownerLockKeyPrefix, ownerID)
}

// Lock blocks until the owner's lock is held, ctx is done or the acquire timeout passes
func (o *OwnerLock) Lock(ctx context.Context, ownerID int64) (func(), error) {
	key := OwnerLockKey(ownerID)
	acquireCtx, cancel := context.WithTimeout(ctx, o.acquireTimeout)
	defer cancel()

	if o.client == nil {
		release, err := o.local.lock(acquireCtx, key)
		if err != nil {
			return nil, o.acquireError(ctx, key, err)
		}
		return release, nil
	}

	dl := NewRedisDistributedLock(o.client, key, o.ttl)
	ticker := time.NewTicker(o.pollEvery)
	defer ticker.Stop()

	for {
		acquired, err := dl.TryLock(acquireCtx)
		if err != nil && acquireCtx.Err() == nil {
			return nil, err
		}
		if acquired {
			return func() {
				if err := dl.Unlock(context.WithoutCancel(ctx)); err != nil {
					logger.WarnCtx(ctx, "failed to release owner lock %s: %v", key, err)
				}
			}, nil
		}

		select {
		case <-acquireCtx.Done():
			return nil, o.acquireError(ctx, key, acquireCtx.Err())
		case <-ticker.C:
		}
	}
}

func (o *OwnerLock) acquireError(ctx context.Context, key string, err error) error {
	// caller cancellation wins over our own timeout
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		logger.WarnCtx(ctx, "owner lock %s not acquired within %s", key, o.acquireTimeout)
		return ErrAcquireTimeout
	}
	return err
}

// keyedMutex process-local mutex per key, entries are dropped when unused
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	ch   chan struct{}
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedEntry)}
}

func (k *keyedMutex) lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{ch: make(chan struct{}, 1)}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-e.ch
				k.unref(key, e)
			})
		}, nil
	case <-ctx.Done():
		k.unref(key, e)
		return nil, ctx.Err()
	}
}

func (k *keyedMutex) unref(key string, e *keyedEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
