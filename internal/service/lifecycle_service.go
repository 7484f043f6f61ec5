package service

import (
	"context"

	"timetrack/internal/model"
	"timetrack/pkg/clock"
	"timetrack/pkg/lock"
	"timetrack/pkg/logger"
	"timetrack/pkg/store/mysql"
)

// LifecycleService drives counters through idle, running and paused
type LifecycleService struct {
	repo        *mysql.Repository
	aggregation *AggregationService
	paused      pausedStore
	clock       clock.Clock
	policy      model.OvernightPolicy
	scope       *ownerScope
}

// NewLifecycleService creates a new lifecycle service
func NewLifecycleService(
	repo *mysql.Repository,
	aggregation *AggregationService,
	paused pausedStore,
	locker lock.OwnerLocker,
	clk clock.Clock,
	policy model.OvernightPolicy,
) *LifecycleService {
	return &LifecycleService{
		repo:        repo,
		aggregation: aggregation,
		paused:      paused,
		clock:       clk,
		policy:      policy,
		scope:       newOwnerScope(repo, locker),
	}
}

// Start opens a new interval on the counter. At most one interval is open per owner.
func (s *LifecycleService) Start(ctx context.Context, ownerID, counterID int64) (*model.Interval, error) {
	var started *mysql.Interval
	err := s.scope.run(ctx, ownerID, func(txCtx context.Context) error {
		if _, err := ownedCounter(txCtx, s.repo, ownerID, counterID); err != nil {
			return err
		}

		open, err := s.repo.Interval.FindOpenByOwner(txCtx, ownerID)
		if err != nil {
			return model.StorageError("find open intervals", err)
		}
		alreadyRunning := false
		for _, iv := range open {
			if iv.CounterID != counterID {
				return model.ConflictError("one active task at a time")
			}
			alreadyRunning = true
		}
		if alreadyRunning {
			return model.ErrAlreadyRunning
		}

		now := s.clock.Now()
		startTime := model.TimeOfDayOf(now)
		started = &mysql.Interval{
			CounterID: counterID,
			Day:       model.DateOf(now),
			StartTime: &startTime,
		}
		if err := s.repo.Interval.Create(txCtx, started); err != nil {
			return model.StorageError("create interval", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.paused.Remove(ctx, ownerID, counterID); err != nil {
		logger.WarnCtx(ctx, "failed to clear paused hint of counter %d: %v", counterID, err)
	}
	logger.InfoCtx(ctx, "counter started: owner=%d counter=%d interval=%d", ownerID, counterID, started.ID)
	return mysql.ToIntervalDomain(started), nil
}

// Resume is Start for a paused counter
func (s *LifecycleService) Resume(ctx context.Context, ownerID, counterID int64) (*model.Interval, error) {
	return s.Start(ctx, ownerID, counterID)
}

// Pause closes the open interval and marks the counter paused
func (s *LifecycleService) Pause(ctx context.Context, ownerID, counterID int64) ([]*model.Interval, error) {
	closed, err := s.close(ctx, ownerID, counterID)
	if err != nil {
		return nil, err
	}
	if err := s.paused.Add(ctx, ownerID, counterID); err != nil {
		logger.WarnCtx(ctx, "failed to set paused hint of counter %d: %v", counterID, err)
	}
	logger.InfoCtx(ctx, "counter paused: owner=%d counter=%d", ownerID, counterID)
	return closed, nil
}

// Stop closes the open interval and clears the paused mark
func (s *LifecycleService) Stop(ctx context.Context, ownerID, counterID int64) ([]*model.Interval, error) {
	closed, err := s.close(ctx, ownerID, counterID)
	if err != nil {
		return nil, err
	}
	if err := s.paused.Remove(ctx, ownerID, counterID); err != nil {
		logger.WarnCtx(ctx, "failed to clear paused hint of counter %d: %v", counterID, err)
	}
	logger.InfoCtx(ctx, "counter stopped: owner=%d counter=%d", ownerID, counterID)
	return closed, nil
}

// State reports running, paused or idle together with the open interval
func (s *LifecycleService) State(ctx context.Context, ownerID, counterID int64) (*model.CounterStatus, error) {
	if _, err := ownedCounter(ctx, s.repo, ownerID, counterID); err != nil {
		return nil, err
	}

	status := &model.CounterStatus{CounterID: counterID, State: model.CounterStateIdle}
	open, err := s.repo.Interval.FindOpenByCounter(ctx, counterID)
	if err != nil {
		return nil, model.StorageError("find open interval", err)
	}
	if open != nil {
		status.State = model.CounterStateRunning
		status.ActiveInterval = mysql.ToIntervalDomain(open)
		return status, nil
	}

	paused, err := s.paused.IsPaused(ctx, ownerID, counterID)
	if err != nil {
		logger.WarnCtx(ctx, "failed to read paused hint of counter %d: %v", counterID, err)
		return status, nil
	}
	if paused {
		status.State = model.CounterStatePaused
	}
	return status, nil
}

// close ends the counter's open interval at now. Under reject a close on a later day
// splits the interval at midnight; every touched day is re-aggregated.
func (s *LifecycleService) close(ctx context.Context, ownerID, counterID int64) ([]*model.Interval, error) {
	var closed []*model.Interval
	err := s.scope.run(ctx, ownerID, func(txCtx context.Context) error {
		if _, err := ownedCounter(txCtx, s.repo, ownerID, counterID); err != nil {
			return err
		}

		open, err := s.repo.Interval.FindOpenByCounter(txCtx, counterID)
		if err != nil {
			return model.StorageError("find open interval", err)
		}
		if open == nil {
			return model.ErrNoActiveInterval
		}

		now := s.clock.Now()
		var start model.TimeOfDay
		if open.StartTime != nil {
			start = *open.StartTime
		}
		originalDay := open.Day
		slices := model.SplitClose(open.Day, start, model.DateOf(now), model.TimeOfDayOf(now), s.policy)

		days := []model.Date{originalDay}
		for i, slice := range slices {
			iv := &model.Interval{CounterID: counterID, Day: slice.Day}
			if i == 0 {
				iv = mysql.ToIntervalDomain(open)
				iv.Day = slice.Day
			}
			sliceStart, sliceEnd := slice.Start, slice.End
			iv.StartTime = &sliceStart
			iv.EndTime = &sliceEnd
			d, err := slice.Duration(s.policy)
			if err != nil {
				return err
			}
			iv.Duration = &d

			row := mysql.FromIntervalDomain(iv)
			if i == 0 {
				err = s.repo.Interval.Save(txCtx, row)
			} else {
				err = s.repo.Interval.Create(txCtx, row)
			}
			if err != nil {
				return model.StorageError("close interval", err)
			}
			closed = append(closed, mysql.ToIntervalDomain(row))
			days = append(days, slice.Day)
		}

		if len(slices) > 1 {
			logger.InfoCtx(ctx, "interval %d crossed midnight, split into %d days", open.ID, len(slices))
		}
		return s.aggregation.RecalculateDays(txCtx, ownerID, days...)
	})
	if err != nil {
		return nil, err
	}
	return closed, nil
}
