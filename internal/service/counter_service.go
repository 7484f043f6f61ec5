package service

import (
	"context"
	"errors"

	"timetrack/internal/model"
	"timetrack/pkg/lock"
	"timetrack/pkg/logger"
	"timetrack/pkg/slug"
	"timetrack/pkg/store/mysql"
)

const maxSlugRetries = 3

// CounterService manages counters
type CounterService struct {
	repo        *mysql.Repository
	aggregation *AggregationService
	paused      pausedStore
	scope       *ownerScope
}

// NewCounterService creates a new counter service
func NewCounterService(repo *mysql.Repository, aggregation *AggregationService, paused pausedStore, locker lock.OwnerLocker) *CounterService {
	return &CounterService{
		repo:        repo,
		aggregation: aggregation,
		paused:      paused,
		scope:       newOwnerScope(repo, locker),
	}
}

// Create creates a counter with a slug unique for the owner
func (s *CounterService) Create(ctx context.Context, ownerID int64, req *model.CreateCounterRequest) (*model.Counter, error) {
	name, err := model.NormalizeCounterName(req.Name)
	if err != nil {
		return nil, err
	}
	color, err := model.NormalizeCounterColor(req.Color)
	if err != nil {
		return nil, err
	}

	exists := func(ctx context.Context, candidate string) (bool, error) {
		return s.repo.Counter.SlugExists(ctx, ownerID, candidate)
	}

	// a concurrent create may take the slug between the check and the insert
	for attempt := 0; attempt < maxSlugRetries; attempt++ {
		counterSlug, err := slug.Unique(ctx, name, exists)
		if err != nil {
			return nil, model.StorageError("generate counter slug", err)
		}

		counter := &mysql.Counter{
			UserID: ownerID,
			Name:   name,
			Slug:   counterSlug,
			Color:  color,
		}
		err = s.repo.Counter.Create(ctx, counter)
		if errors.Is(err, mysql.ErrDuplicateSlug) {
			logger.DebugCtx(ctx, "slug %s taken concurrently, retrying", counterSlug)
			continue
		}
		if err != nil {
			return nil, model.StorageError("create counter", err)
		}

		logger.InfoCtx(ctx, "counter created: owner=%d id=%d slug=%s", ownerID, counter.ID, counter.Slug)
		return mysql.ToCounterDomain(counter), nil
	}

	return nil, model.StorageError("create counter", slug.ErrExhausted)
}

// Get returns an owned counter with its running flag
func (s *CounterService) Get(ctx context.Context, ownerID, counterID int64) (*model.Counter, error) {
	counter, err := ownedCounter(ctx, s.repo, ownerID, counterID)
	if err != nil {
		return nil, err
	}

	result := mysql.ToCounterDomain(counter)
	running, err := s.IsRunning(ctx, counterID)
	if err != nil {
		return nil, err
	}
	result.IsRunning = running
	return result, nil
}

// List lists the owner's counters by name
func (s *CounterService) List(ctx context.Context, ownerID int64) ([]*model.Counter, error) {
	counters, err := s.repo.Counter.List(ctx, ownerID)
	if err != nil {
		return nil, model.StorageError("list counters", err)
	}
	open, err := s.repo.Interval.FindOpenByOwner(ctx, ownerID)
	if err != nil {
		return nil, model.StorageError("find open intervals", err)
	}
	running := make(map[int64]bool, len(open))
	for _, iv := range open {
		running[iv.CounterID] = true
	}

	out := make([]*model.Counter, 0, len(counters))
	for _, c := range counters {
		item := mysql.ToCounterDomain(c)
		item.IsRunning = running[c.ID]
		out = append(out, item)
	}
	return out, nil
}

// IsRunning reports whether the counter has an open interval
func (s *CounterService) IsRunning(ctx context.Context, counterID int64) (bool, error) {
	open, err := s.repo.Interval.FindOpenByCounter(ctx, counterID)
	if err != nil {
		return false, model.StorageError("find open interval", err)
	}
	return open != nil, nil
}

// Update renames or recolors a counter; the slug is kept stable
func (s *CounterService) Update(ctx context.Context, ownerID, counterID int64, req *model.UpdateCounterRequest) (*model.Counter, error) {
	counter, err := ownedCounter(ctx, s.repo, ownerID, counterID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		name, err := model.NormalizeCounterName(*req.Name)
		if err != nil {
			return nil, err
		}
		updates["name"] = name
		counter.Name = name
	}
	if req.Color != nil {
		color, err := model.NormalizeCounterColor(*req.Color)
		if err != nil {
			return nil, err
		}
		updates["color"] = color
		counter.Color = color
	}

	if err := s.repo.Counter.Update(ctx, counter, updates); err != nil {
		return nil, model.StorageError("update counter", err)
	}
	return s.Get(ctx, ownerID, counterID)
}

// Delete removes a counter with its intervals and re-aggregates every affected day
func (s *CounterService) Delete(ctx context.Context, ownerID, counterID int64) error {
	var affected []model.Date
	err := s.scope.run(ctx, ownerID, func(txCtx context.Context) error {
		if _, err := ownedCounter(txCtx, s.repo, ownerID, counterID); err != nil {
			return err
		}

		days, err := s.repo.Interval.DistinctDaysByCounter(txCtx, counterID)
		if err != nil {
			return model.StorageError("list counter days", err)
		}
		if _, err := s.repo.Interval.DeleteByCounter(txCtx, counterID); err != nil {
			return model.StorageError("delete counter intervals", err)
		}
		if err := s.repo.Counter.Delete(txCtx, ownerID, counterID); err != nil {
			return model.StorageError("delete counter", err)
		}
		affected = days
		return s.aggregation.RecalculateDays(txCtx, ownerID, days...)
	})
	if err != nil {
		return err
	}

	if err := s.paused.Remove(ctx, ownerID, counterID); err != nil {
		logger.WarnCtx(ctx, "failed to clear paused hint of deleted counter %d: %v", counterID, err)
	}
	logger.InfoCtx(ctx, "counter deleted: owner=%d id=%d days=%d", ownerID, counterID, len(affected))
	return nil
}
