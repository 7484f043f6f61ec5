package mysql

import "timetrack/pkg/store/mysql/model"

// Re-export types from model package so callers only import the store package

type (
	// Database models
	Counter       = model.Counter
	Interval      = model.Interval
	DailySummary  = model.DailySummary
	ProjectRating = model.ProjectRating
)
