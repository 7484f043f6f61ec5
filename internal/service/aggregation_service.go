package service

import (
	"context"
	"sort"

	"timetrack/internal/model"
	"timetrack/pkg/clock"
	"timetrack/pkg/lock"
	"timetrack/pkg/logger"
	"timetrack/pkg/store/mysql"
)

// AggregationService maintains the daily summary cache and computes live rollups
type AggregationService struct {
	repo  *mysql.Repository
	scope *ownerScope
	clock clock.Clock
}

// NewAggregationService creates a new aggregation service
func NewAggregationService(repo *mysql.Repository, locker lock.OwnerLocker, clk clock.Clock) *AggregationService {
	return &AggregationService{
		repo:  repo,
		scope: newOwnerScope(repo, locker),
		clock: clk,
	}
}

// RecalculateDailySummary recomputes the cached summary of (owner, day).
// Returns nil when the day has no finished intervals.
func (s *AggregationService) RecalculateDailySummary(ctx context.Context, ownerID int64, day model.Date) (*model.DailySummary, error) {
	summary, err := s.repo.DailySummary.Recalculate(ctx, ownerID, day)
	if err != nil {
		return nil, model.StorageError("recalculate daily summary", err)
	}
	return mysql.ToDailySummaryDomain(summary), nil
}

// RecalculateDays recalculates each distinct day once
func (s *AggregationService) RecalculateDays(ctx context.Context, ownerID int64, days ...model.Date) error {
	seen := make(map[model.Date]struct{}, len(days))
	for _, day := range days {
		if day.IsZero() {
			continue
		}
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		if _, err := s.RecalculateDailySummary(ctx, ownerID, day); err != nil {
			return err
		}
	}
	return nil
}

// RebuildOwner drops every cached row of the owner and recomputes them from intervals.
// Runs under the owner lock so concurrent lifecycle changes cannot interleave.
func (s *AggregationService) RebuildOwner(ctx context.Context, ownerID int64) ([]*model.DailySummary, error) {
	var rebuilt []*model.DailySummary
	err := s.scope.run(ctx, ownerID, func(txCtx context.Context) error {
		if _, err := s.repo.DailySummary.DeleteByOwner(txCtx, ownerID); err != nil {
			return model.StorageError("drop daily summaries", err)
		}
		days, err := s.repo.Interval.FinishedDaysByOwner(txCtx, ownerID)
		if err != nil {
			return model.StorageError("list finished days", err)
		}
		for _, day := range days {
			summary, err := s.RecalculateDailySummary(txCtx, ownerID, day)
			if err != nil {
				return err
			}
			if summary != nil {
				rebuilt = append(rebuilt, summary)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "rebuilt %d daily summaries for owner %d", len(rebuilt), ownerID)
	return rebuilt, nil
}

// ReconcileRecent recalculates every (owner, day) with intervals in the last `days` days.
// Returns the number of recalculated pairs.
func (s *AggregationService) ReconcileRecent(ctx context.Context, days int) (int, error) {
	if days <= 0 {
		days = 1
	}
	since := model.DateOf(s.clock.Now()).AddDays(-(days - 1))

	pairs, err := s.repo.Interval.OwnerDaysSince(ctx, since)
	if err != nil {
		return 0, model.StorageError("list recent owner days", err)
	}

	reconciled := 0
	for _, pair := range pairs {
		day := pair.Day
		err := s.scope.run(ctx, pair.UserID, func(txCtx context.Context) error {
			_, err := s.RecalculateDailySummary(txCtx, pair.UserID, day)
			return err
		})
		if err != nil {
			logger.WarnCtx(ctx, "failed to reconcile summary of owner %d on %s: %v", pair.UserID, pair.Day, err)
			continue
		}
		reconciled++
	}
	return reconciled, nil
}

// PeriodRollup aggregates finished intervals in [start, end] straight from the interval table
func (s *AggregationService) PeriodRollup(ctx context.Context, ownerID int64, start, end model.Date) (*model.PeriodRollup, error) {
	if end.Before(start) {
		start, end = end, start
	}

	counterRows, err := s.repo.Interval.TotalsByCounter(ctx, ownerID, start, end)
	if err != nil {
		return nil, model.StorageError("aggregate per counter", err)
	}
	dayRows, err := s.repo.Interval.TotalsByDay(ctx, ownerID, start, end)
	if err != nil {
		return nil, model.StorageError("aggregate per day", err)
	}
	counters, err := s.repo.Counter.List(ctx, ownerID)
	if err != nil {
		return nil, model.StorageError("list counters", err)
	}
	byID := make(map[int64]*mysql.Counter, len(counters))
	for _, c := range counters {
		byID[c.ID] = c
	}

	rollup := &model.PeriodRollup{
		Start:      start,
		End:        end,
		PerCounter: make([]model.CounterTotal, 0, len(counterRows)),
		PerDay:     make([]model.DayTotal, 0, len(dayRows)),
	}
	for _, row := range counterRows {
		total := model.CounterTotal{
			CounterID:     row.CounterID,
			Total:         model.DurationOfSeconds(row.TotalSeconds),
			IntervalCount: row.IntervalCount,
		}
		if c, ok := byID[row.CounterID]; ok {
			total.Name = c.Name
			total.Color = c.Color
		}
		rollup.PerCounter = append(rollup.PerCounter, total)
		rollup.Total += total.Total
	}
	sort.SliceStable(rollup.PerCounter, func(i, j int) bool {
		a, b := rollup.PerCounter[i], rollup.PerCounter[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return a.Name < b.Name
	})

	for _, row := range dayRows {
		rollup.PerDay = append(rollup.PerDay, model.DayTotal{
			Day:   row.Day,
			Total: model.DurationOfSeconds(row.TotalSeconds),
		})
	}

	return rollup, nil
}

// ListDailySummaries lists cached summaries of the owner, optionally bounded
func (s *AggregationService) ListDailySummaries(ctx context.Context, ownerID int64, from, to *model.Date) ([]*model.DailySummary, error) {
	rows, err := s.repo.DailySummary.List(ctx, ownerID, from, to)
	if err != nil {
		return nil, model.StorageError("list daily summaries", err)
	}
	out := make([]*model.DailySummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, mysql.ToDailySummaryDomain(row))
	}
	return out, nil
}
