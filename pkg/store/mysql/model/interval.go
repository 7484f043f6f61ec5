package model

import (
	"time"

	domain "timetrack/internal/model"
)

// Interval MySQL model for intervals table
// user_id mirrors counters.user_id and is forced by the repository on every write.
type Interval struct {
	ID              int64             `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CounterID       int64             `gorm:"column:counter_id;not null;index:idx_interval_counter_day,priority:1" json:"counter_id"`
	UserID          int64             `gorm:"column:user_id;not null;index:idx_interval_user_day,priority:1" json:"user_id"`
	Day             domain.Date       `gorm:"column:day;type:date;not null;index:idx_interval_counter_day,priority:2;index:idx_interval_user_day,priority:2" json:"day"`
	StartTime       *domain.TimeOfDay `gorm:"column:start_time;type:time" json:"start_time"`
	EndTime         *domain.TimeOfDay `gorm:"column:end_time;type:time" json:"end_time"` // NULL while the interval is running
	DurationSeconds *int64            `gorm:"column:duration_seconds" json:"duration_seconds"`
	CreatedAt       time.Time         `gorm:"column:created_at;not null" json:"created_at"`
}

// TableName specifies the table name for Interval
func (Interval) TableName() string {
	return "intervals"
}
