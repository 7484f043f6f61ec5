package mysql

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"timetrack/internal/model"
)

// DailySummaryRepository handles the daily summary cache
type DailySummaryRepository struct {
	ds *Datastore
}

// NewDailySummaryRepository creates a new daily summary repository
func NewDailySummaryRepository(ds *Datastore) *DailySummaryRepository {
	return &DailySummaryRepository{ds: ds}
}

// Recalculate recomputes the summary of (owner, day) from finished intervals.
// A day without finished intervals has its row deleted; nil is returned in that case.
func (r *DailySummaryRepository) Recalculate(ctx context.Context, userID int64, day model.Date) (*DailySummary, error) {
	var stats struct {
		IntervalCount int
		TotalSeconds  int64
	}
	err := r.ds.DB(ctx).Model(&Interval{}).
		Select("COUNT(*) AS interval_count, COALESCE(SUM(duration_seconds), 0) AS total_seconds").
		Where("user_id = ? AND day = ? AND end_time IS NOT NULL", userID, day).
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to calculate daily summary: %w", err)
	}

	if stats.IntervalCount == 0 && stats.TotalSeconds == 0 {
		if err := r.Delete(ctx, userID, day); err != nil {
			return nil, err
		}
		return nil, nil
	}

	now := r.ds.Now()
	summary := &DailySummary{
		UserID:        userID,
		Date:          day,
		IntervalCount: stats.IntervalCount,
		TotalSeconds:  stats.TotalSeconds,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// ON DUPLICATE KEY UPDATE on MySQL, ON CONFLICT on SQLite
	err = r.ds.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"interval_count", "total_seconds", "updated_at"}),
	}).Create(summary).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert daily summary: %w", err)
	}

	return summary, nil
}

// Get retrieves the cached summary of (owner, day), nil when absent
func (r *DailySummaryRepository) Get(ctx context.Context, userID int64, day model.Date) (*DailySummary, error) {
	var summary DailySummary
	err := r.ds.DB(ctx).Where("user_id = ? AND date = ?", userID, day).First(&summary).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get daily summary: %w", err)
	}
	return &summary, nil
}

// List lists an owner's cached summaries ordered by date, optionally bounded
func (r *DailySummaryRepository) List(ctx context.Context, userID int64, from, to *model.Date) ([]*DailySummary, error) {
	var summaries []*DailySummary
	db := r.ds.DB(ctx).Where("user_id = ?", userID)
	if from != nil {
		db = db.Where("date >= ?", *from)
	}
	if to != nil {
		db = db.Where("date <= ?", *to)
	}
	if err := db.Order("date ASC").Find(&summaries).Error; err != nil {
		return nil, fmt.Errorf("failed to list daily summaries: %w", err)
	}
	return summaries, nil
}

// Delete removes the summary row of (owner, day)
func (r *DailySummaryRepository) Delete(ctx context.Context, userID int64, day model.Date) error {
	err := r.ds.DB(ctx).Where("user_id = ? AND date = ?", userID, day).Delete(&DailySummary{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete daily summary: %w", err)
	}
	return nil
}

// DeleteByOwner removes every summary row of an owner
func (r *DailySummaryRepository) DeleteByOwner(ctx context.Context, userID int64) (int64, error) {
	result := r.ds.DB(ctx).Where("user_id = ?", userID).Delete(&DailySummary{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete owner summaries: %w", result.Error)
	}
	return result.RowsAffected, nil
}
