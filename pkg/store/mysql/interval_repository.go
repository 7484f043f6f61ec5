package mysql

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"timetrack/internal/model"
)

// ErrCounterMissing the interval references a counter that does not exist
var ErrCounterMissing = fmt.Errorf("interval counter does not exist: %w", model.ErrNotFound)

const intervalOrder = "day DESC, created_at DESC, id DESC"

// IntervalRepository handles interval persistence
type IntervalRepository struct {
	ds *Datastore
}

// NewIntervalRepository creates a new interval repository
func NewIntervalRepository(ds *Datastore) *IntervalRepository {
	return &IntervalRepository{ds: ds}
}

// CounterTotalRow per-counter aggregate row
type CounterTotalRow struct {
	CounterID     int64
	IntervalCount int
	TotalSeconds  int64
}

// DayTotalRow per-day aggregate row
type DayTotalRow struct {
	Day           model.Date
	IntervalCount int
	TotalSeconds  int64
}

// IntervalFilter optional day range for counter history
type IntervalFilter struct {
	Start *model.Date
	End   *model.Date
}

func (f IntervalFilter) apply(db *gorm.DB) *gorm.DB {
	if f.Start != nil {
		db = db.Where("day >= ?", *f.Start)
	}
	if f.End != nil {
		db = db.Where("day <= ?", *f.End)
	}
	return db
}

// forceOwner sets user_id from the referenced counter
func (r *IntervalRepository) forceOwner(ctx context.Context, iv *Interval) error {
	var owners []int64
	err := r.ds.DB(ctx).Model(&Counter{}).Where("id = ?", iv.CounterID).Limit(1).Pluck("user_id", &owners).Error
	if err != nil {
		return fmt.Errorf("failed to resolve interval owner: %w", err)
	}
	if len(owners) == 0 {
		return ErrCounterMissing
	}
	iv.UserID = owners[0]
	return nil
}

// Create creates a new interval; user_id is taken from the counter
func (r *IntervalRepository) Create(ctx context.Context, iv *Interval) error {
	if err := r.forceOwner(ctx, iv); err != nil {
		return err
	}
	if err := r.ds.DB(ctx).Create(iv).Error; err != nil {
		return fmt.Errorf("failed to create interval: %w", err)
	}
	return nil
}

// Save updates every column of an existing interval; user_id is taken from the counter
func (r *IntervalRepository) Save(ctx context.Context, iv *Interval) error {
	if err := r.forceOwner(ctx, iv); err != nil {
		return err
	}
	if err := r.ds.DB(ctx).Save(iv).Error; err != nil {
		return fmt.Errorf("failed to save interval: %w", err)
	}
	return nil
}

// GetOwned retrieves an interval whose counter belongs to userID, nil otherwise
func (r *IntervalRepository) GetOwned(ctx context.Context, userID, id int64) (*Interval, error) {
	var iv Interval
	err := r.ds.DB(ctx).
		Joins("JOIN counters ON counters.id = intervals.counter_id").
		Where("intervals.id = ? AND counters.user_id = ?", id, userID).
		First(&iv).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get interval: %w", err)
	}
	return &iv, nil
}

// Delete deletes an interval
func (r *IntervalRepository) Delete(ctx context.Context, id int64) error {
	if err := r.ds.DB(ctx).Where("id = ?", id).Delete(&Interval{}).Error; err != nil {
		return fmt.Errorf("failed to delete interval: %w", err)
	}
	return nil
}

// DeleteByCounter deletes all intervals of a counter
func (r *IntervalRepository) DeleteByCounter(ctx context.Context, counterID int64) (int64, error) {
	result := r.ds.DB(ctx).Where("counter_id = ?", counterID).Delete(&Interval{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete counter intervals: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// FindOpenByOwner lists an owner's open intervals (end_time IS NULL)
func (r *IntervalRepository) FindOpenByOwner(ctx context.Context, userID int64) ([]*Interval, error) {
	var items []*Interval
	err := r.ds.DB(ctx).
		Where("user_id = ? AND end_time IS NULL", userID).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find open intervals: %w", err)
	}
	return items, nil
}

// FindOpenByCounter returns the counter's most recent open interval, nil if none
func (r *IntervalRepository) FindOpenByCounter(ctx context.Context, counterID int64) (*Interval, error) {
	var iv Interval
	err := r.ds.DB(ctx).
		Where("counter_id = ? AND end_time IS NULL", counterID).
		Order(intervalOrder).
		First(&iv).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find open interval: %w", err)
	}
	return &iv, nil
}

// DistinctDaysByCounter lists the days a counter has intervals on
func (r *IntervalRepository) DistinctDaysByCounter(ctx context.Context, counterID int64) ([]model.Date, error) {
	var days []model.Date
	err := r.ds.DB(ctx).Model(&Interval{}).
		Where("counter_id = ?", counterID).
		Distinct("day").
		Order("day ASC").
		Pluck("day", &days).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list counter days: %w", err)
	}
	return days, nil
}

// FinishedDaysByOwner lists the days an owner has finished intervals on
func (r *IntervalRepository) FinishedDaysByOwner(ctx context.Context, userID int64) ([]model.Date, error) {
	var days []model.Date
	err := r.ds.DB(ctx).Model(&Interval{}).
		Where("user_id = ? AND end_time IS NOT NULL", userID).
		Distinct("day").
		Order("day ASC").
		Pluck("day", &days).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list owner days: %w", err)
	}
	return days, nil
}

// OwnerDay owner and day pair
type OwnerDay struct {
	UserID int64
	Day    model.Date
}

// OwnerDaysSince lists distinct (owner, day) pairs with intervals on or after since
func (r *IntervalRepository) OwnerDaysSince(ctx context.Context, since model.Date) ([]OwnerDay, error) {
	var rows []OwnerDay
	err := r.ds.DB(ctx).Model(&Interval{}).
		Select("DISTINCT user_id, day").
		Where("day >= ?", since).
		Order("user_id ASC, day ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recent owner days: %w", err)
	}
	return rows, nil
}

// SumFinished counts finished intervals of (owner, day) and sums their durations
func (r *IntervalRepository) SumFinished(ctx context.Context, userID int64, day model.Date) (int, int64, error) {
	var row struct {
		IntervalCount int
		TotalSeconds  int64
	}
	err := r.ds.DB(ctx).Model(&Interval{}).
		Select("COUNT(*) AS interval_count, COALESCE(SUM(duration_seconds), 0) AS total_seconds").
		Where("user_id = ? AND day = ? AND end_time IS NOT NULL", userID, day).
		Scan(&row).Error
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sum finished intervals: %w", err)
	}
	return row.IntervalCount, row.TotalSeconds, nil
}

// SumFinishedByCounterDay sums finished durations of one counter on one day
func (r *IntervalRepository) SumFinishedByCounterDay(ctx context.Context, counterID int64, day model.Date) (int64, error) {
	var total int64
	err := r.ds.DB(ctx).Model(&Interval{}).
		Select("COALESCE(SUM(duration_seconds), 0)").
		Where("counter_id = ? AND day = ? AND end_time IS NOT NULL", counterID, day).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum counter day: %w", err)
	}
	return total, nil
}

// TotalsByCounter aggregates finished intervals in [start, end] per counter
func (r *IntervalRepository) TotalsByCounter(ctx context.Context, userID int64, start, end model.Date) ([]CounterTotalRow, error) {
	var rows []CounterTotalRow
	err := r.ds.DB(ctx).Model(&Interval{}).
		Select("counter_id, COUNT(*) AS interval_count, COALESCE(SUM(duration_seconds), 0) AS total_seconds").
		Where("user_id = ? AND day >= ? AND day <= ? AND end_time IS NOT NULL", userID, start, end).
		Group("counter_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate by counter: %w", err)
	}
	return rows, nil
}

// TotalsByDay aggregates finished intervals in [start, end] per day, oldest first
func (r *IntervalRepository) TotalsByDay(ctx context.Context, userID int64, start, end model.Date) ([]DayTotalRow, error) {
	var rows []DayTotalRow
	err := r.ds.DB(ctx).Model(&Interval{}).
		Select("day, COUNT(*) AS interval_count, COALESCE(SUM(duration_seconds), 0) AS total_seconds").
		Where("user_id = ? AND day >= ? AND day <= ? AND end_time IS NOT NULL", userID, start, end).
		Group("day").
		Order("day ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate by day: %w", err)
	}
	return rows, nil
}

// ListByCounter pages a counter's intervals, most recent first
func (r *IntervalRepository) ListByCounter(ctx context.Context, counterID int64, filter IntervalFilter, offset, limit int) ([]*Interval, error) {
	var items []*Interval
	db := filter.apply(r.ds.DB(ctx).Where("counter_id = ?", counterID))
	err := db.Order(intervalOrder).Offset(offset).Limit(limit).Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list counter intervals: %w", err)
	}
	return items, nil
}

// CountByCounter counts a counter's intervals matching filter
func (r *IntervalRepository) CountByCounter(ctx context.Context, counterID int64, filter IntervalFilter) (int64, error) {
	var count int64
	db := filter.apply(r.ds.DB(ctx).Model(&Interval{}).Where("counter_id = ?", counterID))
	if err := db.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count counter intervals: %w", err)
	}
	return count, nil
}

// SumFinishedByCounter counts and sums a counter's finished intervals matching filter
func (r *IntervalRepository) SumFinishedByCounter(ctx context.Context, counterID int64, filter IntervalFilter) (int64, int64, error) {
	var row struct {
		IntervalCount int64
		TotalSeconds  int64
	}
	db := filter.apply(r.ds.DB(ctx).Model(&Interval{}).
		Select("COUNT(*) AS interval_count, COALESCE(SUM(duration_seconds), 0) AS total_seconds").
		Where("counter_id = ? AND end_time IS NOT NULL", counterID))
	if err := db.Scan(&row).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to sum counter intervals: %w", err)
	}
	return row.IntervalCount, row.TotalSeconds, nil
}
