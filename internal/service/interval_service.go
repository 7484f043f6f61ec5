package service

import (
	"context"
	"fmt"

	"timetrack/internal/model"
	"timetrack/pkg/clock"
	"timetrack/pkg/lock"
	"timetrack/pkg/logger"
	"timetrack/pkg/store/mysql"
)

// IntervalService handles manual interval entry and edits
type IntervalService struct {
	repo        *mysql.Repository
	aggregation *AggregationService
	clock       clock.Clock
	policy      model.OvernightPolicy
	scope       *ownerScope
}

// NewIntervalService creates a new interval service
func NewIntervalService(
	repo *mysql.Repository,
	aggregation *AggregationService,
	locker lock.OwnerLocker,
	clk clock.Clock,
	policy model.OvernightPolicy,
) *IntervalService {
	return &IntervalService{
		repo:        repo,
		aggregation: aggregation,
		clock:       clk,
		policy:      policy,
		scope:       newOwnerScope(repo, locker),
	}
}

// CreateManual records a finished interval; day defaults to today
func (s *IntervalService) CreateManual(ctx context.Context, ownerID, counterID int64, req *model.CreateIntervalRequest) (*model.Interval, error) {
	if req.StartTime == nil {
		return nil, model.NewFieldError("start_time", "start time is required")
	}
	if req.EndTime == nil {
		return nil, model.NewFieldError("end_time", "end time is required")
	}

	iv := &model.Interval{
		CounterID: counterID,
		Day:       model.DateOf(s.clock.Now()),
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
	if req.Day != nil && !req.Day.IsZero() {
		iv.Day = *req.Day
	}
	if err := iv.Recompute(s.policy); err != nil {
		return nil, err
	}

	var created *mysql.Interval
	err := s.scope.run(ctx, ownerID, func(txCtx context.Context) error {
		if _, err := ownedCounter(txCtx, s.repo, ownerID, counterID); err != nil {
			return err
		}
		created = mysql.FromIntervalDomain(iv)
		if err := s.repo.Interval.Create(txCtx, created); err != nil {
			return model.StorageError("create interval", err)
		}
		return s.aggregation.RecalculateDays(txCtx, ownerID, created.Day)
	})
	if err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "manual interval created: owner=%d counter=%d interval=%d", ownerID, counterID, created.ID)
	return mysql.ToIntervalDomain(created), nil
}

// Get returns an interval whose counter belongs to the owner
func (s *IntervalService) Get(ctx context.Context, ownerID, intervalID int64) (*model.Interval, error) {
	iv, err := s.ownedInterval(ctx, ownerID, intervalID)
	if err != nil {
		return nil, err
	}
	return mysql.ToIntervalDomain(iv), nil
}

// Update edits day and times. The end time of an open interval can only be set by
// pausing or stopping its counter.
func (s *IntervalService) Update(ctx context.Context, ownerID, intervalID int64, req *model.UpdateIntervalRequest) (*model.Interval, error) {
	var updated *mysql.Interval
	err := s.scope.run(ctx, ownerID, func(txCtx context.Context) error {
		row, err := s.ownedInterval(txCtx, ownerID, intervalID)
		if err != nil {
			return err
		}
		originalDay := row.Day

		iv := mysql.ToIntervalDomain(row)
		if iv.IsActive() && req.EndTime != nil {
			return model.NewFieldError("end_time", "interval is still running, stop the counter to end it")
		}
		if req.Day != nil && !req.Day.IsZero() {
			iv.Day = *req.Day
		}
		if req.StartTime != nil {
			iv.StartTime = req.StartTime
		}
		if req.EndTime != nil {
			iv.EndTime = req.EndTime
		}
		if iv.StartTime != nil && !iv.StartTime.Valid() {
			return model.NewFieldError("start_time", "time of day out of range")
		}
		if err := iv.Recompute(s.policy); err != nil {
			return err
		}

		updated = mysql.FromIntervalDomain(iv)
		if err := s.repo.Interval.Save(txCtx, updated); err != nil {
			return model.StorageError("update interval", err)
		}
		return s.aggregation.RecalculateDays(txCtx, ownerID, originalDay, updated.Day)
	})
	if err != nil {
		return nil, err
	}
	return mysql.ToIntervalDomain(updated), nil
}

// Delete removes an interval and re-aggregates its day
func (s *IntervalService) Delete(ctx context.Context, ownerID, intervalID int64) error {
	err := s.scope.run(ctx, ownerID, func(txCtx context.Context) error {
		row, err := s.ownedInterval(txCtx, ownerID, intervalID)
		if err != nil {
			return err
		}
		if err := s.repo.Interval.Delete(txCtx, row.ID); err != nil {
			return model.StorageError("delete interval", err)
		}
		return s.aggregation.RecalculateDays(txCtx, ownerID, row.Day)
	})
	if err != nil {
		return err
	}

	logger.InfoCtx(ctx, "interval deleted: owner=%d interval=%d", ownerID, intervalID)
	return nil
}

func (s *IntervalService) ownedInterval(ctx context.Context, ownerID, intervalID int64) (*mysql.Interval, error) {
	iv, err := s.repo.Interval.GetOwned(ctx, ownerID, intervalID)
	if err != nil {
		return nil, model.StorageError("get interval", err)
	}
	if iv == nil {
		return nil, fmt.Errorf("interval %d: %w", intervalID, model.ErrNotFound)
	}
	return iv, nil
}
