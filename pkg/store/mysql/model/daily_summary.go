package model

import (
	"time"

	domain "timetrack/internal/model"
)

// DailySummary cached per-owner day totals, recomputed from intervals
type DailySummary struct {
	ID            int64       `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID        int64       `gorm:"column:user_id;not null;uniqueIndex:uk_daily_summary_user_date,priority:1" json:"user_id"`
	Date          domain.Date `gorm:"column:date;type:date;not null;uniqueIndex:uk_daily_summary_user_date,priority:2" json:"date"`
	IntervalCount int         `gorm:"column:interval_count;not null;default:0" json:"interval_count"`
	TotalSeconds  int64       `gorm:"column:total_seconds;not null;default:0" json:"total_seconds"`
	CreatedAt     time.Time   `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt     time.Time   `gorm:"column:updated_at;not null" json:"updated_at"`
}

// TableName returns the table name for DailySummary
func (DailySummary) TableName() string {
	return "daily_summaries"
}
