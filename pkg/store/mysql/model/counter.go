package model

import "time"

// Counter MySQL model for counters table
type Counter struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"column:user_id;not null;uniqueIndex:uk_counter_user_slug,priority:1;index:idx_counter_user_name,priority:1" json:"user_id"`
	Name      string    `gorm:"column:name;type:varchar(255);not null;index:idx_counter_user_name,priority:2" json:"name"`
	Slug      string    `gorm:"column:slug;type:varchar(255);not null;uniqueIndex:uk_counter_user_slug,priority:2" json:"slug"`
	Color     string    `gorm:"column:color;type:varchar(7);not null" json:"color"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

// TableName specifies the table name for Counter
func (Counter) TableName() string {
	return "counters"
}
