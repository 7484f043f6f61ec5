package service

import (
	"context"
	"errors"
	"fmt"

	"timetrack/internal/model"
	"timetrack/pkg/lock"
	"timetrack/pkg/logger"
	"timetrack/pkg/store/mysql"
)

// ownerScope runs owner-mutating work under the owner lock inside one transaction
type ownerScope struct {
	ds       *mysql.Datastore
	counters *mysql.CounterRepository
	locker   lock.OwnerLocker
}

func newOwnerScope(repo *mysql.Repository, locker lock.OwnerLocker) *ownerScope {
	return &ownerScope{
		ds:       repo.GetDatastore(),
		counters: repo.Counter,
		locker:   locker,
	}
}

func (s *ownerScope) run(ctx context.Context, ownerID int64, fn func(ctx context.Context) error) error {
	release, err := s.locker.Lock(ctx, ownerID)
	if err != nil {
		if errors.Is(err, lock.ErrAcquireTimeout) {
			return model.ConflictError("another change for this user is in progress")
		}
		return model.StorageError("acquire owner lock", err)
	}
	defer release()

	err = s.ds.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.counters.LockByOwner(txCtx, ownerID); err != nil {
			return model.StorageError("lock owner counters", err)
		}
		return fn(txCtx)
	})
	if err != nil && !model.IsInformational(err) && !errors.Is(err, model.ErrValidation) && !errors.Is(err, model.ErrNotFound) {
		logger.WarnCtx(ctx, "owner %d transaction rolled back: %v", ownerID, err)
	}
	return model.StorageError("owner transaction", err)
}

// ownedCounter loads a counter of the owner; foreign and missing counters are both not found
func ownedCounter(ctx context.Context, repo *mysql.Repository, ownerID, counterID int64) (*mysql.Counter, error) {
	counter, err := repo.Counter.Get(ctx, ownerID, counterID)
	if err != nil {
		return nil, model.StorageError("get counter", err)
	}
	if counter == nil {
		return nil, fmt.Errorf("counter %d: %w", counterID, model.ErrNotFound)
	}
	return counter, nil
}
