package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"timetrack/pkg/logger"
)

const (
	defaultLockTTL      = 30 * time.Second
	maxLockHoldDuration = 2 * time.Minute // renewal stops after this, the key then expires on its own
)

const releaseScript = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`

const renewScript = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	else
		return 0
	end
`

// DistributedLock lock shared between application replicas
type DistributedLock interface {
	// TryLock makes one attempt to take the lock
	TryLock(ctx context.Context) (bool, error)

	// Unlock releases the lock if this instance holds it
	Unlock(ctx context.Context) error

	// IsHeld reports whether this instance holds the lock
	IsHeld() bool
}

// RedisDistributedLock Redis lock: SET NX PX with a unique token, Lua compare-and-delete release
type RedisDistributedLock struct {
	client       *redis.Client
	lockKey      string
	lockValue    string // unique token so another instance's lock is never released
	ttl          time.Duration
	isHeld       bool
	acquiredAt   time.Time
	stopRenew    chan struct{}
	renewStopped bool
	mu           sync.Mutex
}

// NewRedisDistributedLock creates a Redis lock on key. A nil client runs in single-instance mode.
func NewRedisDistributedLock(client *redis.Client, lockKey string, ttl time.Duration) *RedisDistributedLock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisDistributedLock{
		client:       client,
		lockKey:      lockKey,
		lockValue:    uuid.New().String(),
		ttl:          ttl,
		stopRenew:    make(chan struct{}),
		renewStopped: true,
	}
}

// Key returns the Redis key
func (l *RedisDistributedLock) Key() string {
	return l.lockKey
}

// TryLock makes one SET NX attempt
func (l *RedisDistributedLock) TryLock(ctx context.Context) (bool, error) {
	if l.client == nil {
		logger.DebugCtx(ctx, "redis client is nil, skipping distributed lock %s (single-instance mode)", l.lockKey)
		l.mu.Lock()
		l.isHeld = true
		l.mu.Unlock()
		return true, nil
	}

	acquired, err := l.client.SetNX(ctx, l.lockKey, l.lockValue, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", l.lockKey, err)
	}

	if !acquired {
		logger.DebugCtx(ctx, "lock %s already held by another instance", l.lockKey)
		return false, nil
	}

	l.mu.Lock()
	l.isHeld = true
	l.acquiredAt = time.Now()
	// a fresh channel per acquisition supports repeated TryLock/Unlock cycles
	l.stopRenew = make(chan struct{})
	l.renewStopped = false
	stop := l.stopRenew
	l.mu.Unlock()

	go l.renewLock(context.WithoutCancel(ctx), stop)

	logger.DebugCtx(ctx, "lock %s acquired", l.lockKey)
	return true, nil
}

// Unlock releases the lock
func (l *RedisDistributedLock) Unlock(ctx context.Context) error {
	l.mu.Lock()
	if !l.isHeld && l.renewStopped {
		l.mu.Unlock()
		return nil
	}

	if l.client == nil {
		l.isHeld = false
		l.mu.Unlock()
		return nil
	}

	if !l.renewStopped {
		l.renewStopped = true
		close(l.stopRenew)
	}
	l.mu.Unlock()

	result, err := l.client.Eval(ctx, releaseScript, []string{l.lockKey}, l.lockValue).Int64()
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.lockKey, err)
	}

	l.mu.Lock()
	l.isHeld = false
	l.mu.Unlock()

	if result == 1 {
		logger.DebugCtx(ctx, "lock %s released", l.lockKey)
	} else {
		logger.WarnCtx(ctx, "lock %s was already released or held by another instance", l.lockKey)
	}

	return nil
}

// IsHeld reports whether the lock is held
func (l *RedisDistributedLock) IsHeld() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.isHeld
}

// renewLock extends the TTL every ttl/3 until Unlock or maxLockHoldDuration
func (l *RedisDistributedLock) renewLock(ctx context.Context, stop <-chan struct{}) {
	interval := l.ttl / 3
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			holdDuration := time.Since(l.acquiredAt)
			l.mu.Unlock()

			if holdDuration > maxLockHoldDuration {
				logger.WarnCtx(ctx, "lock %s held for too long (%.0f seconds), renewal stopped",
					l.lockKey, holdDuration.Seconds())
				l.markLost()
				return
			}

			result, err := l.client.Eval(ctx, renewScript,
				[]string{l.lockKey},
				l.lockValue,
				l.ttl.Milliseconds()).Int64()
			if err != nil {
				logger.WarnCtx(ctx, "failed to renew lock %s: %v", l.lockKey, err)
				l.markLost()
				return
			}

			if result == 0 {
				logger.WarnCtx(ctx, "lock %s renewal failed, lock lost", l.lockKey)
				l.markLost()
				return
			}
		}
	}
}

func (l *RedisDistributedLock) markLost() {
	l.mu.Lock()
	l.isHeld = false
	l.mu.Unlock()
}
