package redis

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	pausedKeyPrefix = "timetrack:paused:" // Paused counter set per owner (timetrack:paused:{owner})
	pausedHintTTL   = 30 * 24 * time.Hour
)

// PausedRepository keeps the ephemeral "paused" hint per owner.
// Without Redis the hints live in process memory.
type PausedRepository struct {
	redis *redis.Client

	mu     sync.RWMutex
	memory map[int64]map[int64]struct{}
}

// NewPausedRepository creates the paused hint repository; redisClient may be nil
func NewPausedRepository(redisClient *RedisClient) *PausedRepository {
	return &PausedRepository{
		redis:  redisClient.GetClient(),
		memory: make(map[int64]map[int64]struct{}),
	}
}

func pausedKey(ownerID int64) string {
	return pausedKeyPrefix + strconv.FormatInt(ownerID, 10)
}

// Add marks a counter as paused
func (r *PausedRepository) Add(ctx context.Context, ownerID, counterID int64) error {
	if r.redis == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		set, ok := r.memory[ownerID]
		if !ok {
			set = make(map[int64]struct{})
			r.memory[ownerID] = set
		}
		set[counterID] = struct{}{}
		return nil
	}

	key := pausedKey(ownerID)
	pipe := r.redis.Pipeline()
	pipe.SAdd(ctx, key, counterID)
	pipe.Expire(ctx, key, pausedHintTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save paused hint: %w", err)
	}
	return nil
}

// Remove clears a counter's paused hint
func (r *PausedRepository) Remove(ctx context.Context, ownerID, counterID int64) error {
	if r.redis == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		if set, ok := r.memory[ownerID]; ok {
			delete(set, counterID)
			if len(set) == 0 {
				delete(r.memory, ownerID)
			}
		}
		return nil
	}

	if err := r.redis.SRem(ctx, pausedKey(ownerID), counterID).Err(); err != nil {
		return fmt.Errorf("failed to remove paused hint: %w", err)
	}
	return nil
}

// IsPaused reports whether a counter carries the paused hint
func (r *PausedRepository) IsPaused(ctx context.Context, ownerID, counterID int64) (bool, error) {
	if r.redis == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		_, ok := r.memory[ownerID][counterID]
		return ok, nil
	}

	ok, err := r.redis.SIsMember(ctx, pausedKey(ownerID), counterID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to read paused hint: %w", err)
	}
	return ok, nil
}

// List returns the owner's paused counter ids in ascending order
func (r *PausedRepository) List(ctx context.Context, ownerID int64) ([]int64, error) {
	var ids []int64
	if r.redis == nil {
		r.mu.RLock()
		for id := range r.memory[ownerID] {
			ids = append(ids, id)
		}
		r.mu.RUnlock()
	} else {
		members, err := r.redis.SMembers(ctx, pausedKey(ownerID)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to list paused hints: %w", err)
		}
		for _, m := range members {
			id, err := strconv.ParseInt(m, 10, 64)
			if err != nil {
				continue
			}
			ids = append(ids, id)
		}
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
