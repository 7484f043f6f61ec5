package mysql

import (
	"context"
	"time"

	"timetrack/pkg/config"
)

// Repository aggregates all database repositories
type Repository struct {
	ds *Datastore

	Counter       *CounterRepository
	Interval      *IntervalRepository
	DailySummary  *DailySummaryRepository
	ProjectRating *ProjectRatingRepository
}

// NewRepository opens the database and creates all sub-repositories
func NewRepository(ctx context.Context, cfg config.DatabaseConfig, now func() time.Time) (*Repository, error) {
	ds, err := NewDatastore(cfg, now)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := ds.AutoMigrate(ctx); err != nil {
			_ = ds.Close()
			return nil, err
		}
	}

	return NewRepositoryWithDatastore(ds), nil
}

// NewRepositoryWithDatastore wires sub-repositories over an existing datastore
func NewRepositoryWithDatastore(ds *Datastore) *Repository {
	return &Repository{
		ds:            ds,
		Counter:       NewCounterRepository(ds),
		Interval:      NewIntervalRepository(ds),
		DailySummary:  NewDailySummaryRepository(ds),
		ProjectRating: NewProjectRatingRepository(ds),
	}
}

// GetDatastore returns the underlying datastore for transaction support
func (r *Repository) GetDatastore() *Datastore {
	return r.ds
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.ds.Close()
}
