package mysql

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ProjectRatingRepository handles project rating persistence
type ProjectRatingRepository struct {
	ds *Datastore
}

// NewProjectRatingRepository creates a new project rating repository
func NewProjectRatingRepository(ds *Datastore) *ProjectRatingRepository {
	return &ProjectRatingRepository{ds: ds}
}

// GetByUser retrieves the owner's rating, nil when absent
func (r *ProjectRatingRepository) GetByUser(ctx context.Context, userID int64) (*ProjectRating, error) {
	var rating ProjectRating
	err := r.ds.DB(ctx).Where("user_id = ?", userID).First(&rating).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get project rating: %w", err)
	}
	return &rating, nil
}

// Save creates or updates a rating
func (r *ProjectRatingRepository) Save(ctx context.Context, rating *ProjectRating) error {
	if err := r.ds.DB(ctx).Save(rating).Error; err != nil {
		return fmt.Errorf("failed to save project rating: %w", err)
	}
	return nil
}

// CountByRating returns like and dislike totals
func (r *ProjectRatingRepository) CountByRating(ctx context.Context) (likes, dislikes int64, err error) {
	var rows []struct {
		Rating string
		Total  int64
	}
	err = r.ds.DB(ctx).Model(&ProjectRating{}).
		Select("rating, COUNT(*) AS total").
		Group("rating").
		Scan(&rows).Error
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count ratings: %w", err)
	}
	for _, row := range rows {
		switch row.Rating {
		case "like":
			likes = row.Total
		case "dislike":
			dislikes = row.Total
		}
	}
	return likes, dislikes, nil
}

// CleanupUnsentBefore clears comments of ratings never emailed and created before cutoff
func (r *ProjectRatingRepository) CleanupUnsentBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.ds.DB(ctx).Model(&ProjectRating{}).
		Where("email_sent = ? AND created_at < ?", false, cutoff).
		Updates(map[string]interface{}{
			"comment":    "",
			"email_sent": true,
			"updated_at": r.ds.Now(),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to cleanup feedback attempts: %w", result.Error)
	}
	return result.RowsAffected, nil
}
