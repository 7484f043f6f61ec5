package model

import "time"

// ProjectRating MySQL model for project_ratings table
type ProjectRating struct {
	ID          int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID      int64      `gorm:"column:user_id;not null;uniqueIndex:uk_project_rating_user" json:"user_id"`
	Rating      string     `gorm:"column:rating;type:varchar(10);not null" json:"rating"` // like, dislike
	Comment     string     `gorm:"column:comment;type:text" json:"comment"`
	EmailSent   bool       `gorm:"column:email_sent;not null;default:false;index:idx_project_rating_email_sent" json:"email_sent"`
	EmailSentAt *time.Time `gorm:"column:email_sent_at" json:"email_sent_at,omitempty"`
	TaskID      string     `gorm:"column:task_id;type:varchar(255);not null;default:''" json:"task_id"` // queue task handle
	CreatedAt   time.Time  `gorm:"column:created_at;not null;index:idx_project_rating_created_at" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;not null" json:"updated_at"`
}

// TableName specifies the table name for ProjectRating
func (ProjectRating) TableName() string {
	return "project_ratings"
}
