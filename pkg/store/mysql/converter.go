package mysql

import (
	"timetrack/internal/model"
)

// ToCounterDomain converts MySQL Counter to domain Counter model
func ToCounterDomain(c *Counter) *model.Counter {
	if c == nil {
		return nil
	}

	return &model.Counter{
		ID:        c.ID,
		UserID:    c.UserID,
		Name:      c.Name,
		Slug:      c.Slug,
		Color:     c.Color,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// ToIntervalDomain converts MySQL Interval to domain Interval model
func ToIntervalDomain(iv *Interval) *model.Interval {
	if iv == nil {
		return nil
	}

	out := &model.Interval{
		ID:        iv.ID,
		CounterID: iv.CounterID,
		UserID:    iv.UserID,
		Day:       iv.Day,
		StartTime: iv.StartTime,
		EndTime:   iv.EndTime,
		CreatedAt: iv.CreatedAt,
	}
	if iv.DurationSeconds != nil {
		d := model.DurationOfSeconds(*iv.DurationSeconds)
		out.Duration = &d
	}
	return out
}

// FromIntervalDomain converts domain Interval model to MySQL Interval
func FromIntervalDomain(iv *model.Interval) *Interval {
	if iv == nil {
		return nil
	}

	out := &Interval{
		ID:        iv.ID,
		CounterID: iv.CounterID,
		UserID:    iv.UserID,
		Day:       iv.Day,
		StartTime: iv.StartTime,
		EndTime:   iv.EndTime,
		CreatedAt: iv.CreatedAt,
	}
	if iv.Duration != nil {
		sec := iv.Duration.Seconds()
		out.DurationSeconds = &sec
	}
	return out
}

// ToIntervalsDomain converts a slice of MySQL intervals
func ToIntervalsDomain(items []*Interval) []*model.Interval {
	out := make([]*model.Interval, 0, len(items))
	for _, iv := range items {
		out = append(out, ToIntervalDomain(iv))
	}
	return out
}

// ToDailySummaryDomain converts MySQL DailySummary to domain DailySummary model
func ToDailySummaryDomain(s *DailySummary) *model.DailySummary {
	if s == nil {
		return nil
	}

	return &model.DailySummary{
		UserID:        s.UserID,
		Date:          s.Date,
		IntervalCount: s.IntervalCount,
		TotalTime:     model.DurationOfSeconds(s.TotalSeconds),
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

// ToProjectRatingDomain converts MySQL ProjectRating to domain ProjectRating model
func ToProjectRatingDomain(r *ProjectRating) *model.ProjectRating {
	if r == nil {
		return nil
	}

	return &model.ProjectRating{
		ID:          r.ID,
		UserID:      r.UserID,
		Rating:      model.Rating(r.Rating),
		Comment:     r.Comment,
		EmailSent:   r.EmailSent,
		EmailSentAt: r.EmailSentAt,
		TaskID:      r.TaskID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
