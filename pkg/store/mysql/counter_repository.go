package mysql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDuplicateSlug another counter of the owner already uses the slug
var ErrDuplicateSlug = fmt.Errorf("duplicate counter slug")

// CounterRepository handles counter persistence
type CounterRepository struct {
	ds *Datastore
}

// NewCounterRepository creates a new counter repository
func NewCounterRepository(ds *Datastore) *CounterRepository {
	return &CounterRepository{ds: ds}
}

// Create creates a new counter
func (r *CounterRepository) Create(ctx context.Context, counter *Counter) error {
	err := r.ds.DB(ctx).Create(counter).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("failed to create counter: %w", err)
	}
	return nil
}

// Get retrieves an owner's counter, nil when it does not exist or belongs to someone else
func (r *CounterRepository) Get(ctx context.Context, userID, id int64) (*Counter, error) {
	var counter Counter
	err := r.ds.DB(ctx).Where("id = ? AND user_id = ?", id, userID).First(&counter).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get counter: %w", err)
	}
	return &counter, nil
}

// List lists an owner's counters ordered by name
func (r *CounterRepository) List(ctx context.Context, userID int64) ([]*Counter, error) {
	var counters []*Counter
	err := r.ds.DB(ctx).
		Where("user_id = ?", userID).
		Order("name ASC, id ASC").
		Find(&counters).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list counters: %w", err)
	}
	return counters, nil
}

// SlugExists checks whether the owner already has a counter with slug
func (r *CounterRepository) SlugExists(ctx context.Context, userID int64, slug string) (bool, error) {
	var count int64
	err := r.ds.DB(ctx).Model(&Counter{}).
		Where("user_id = ? AND slug = ?", userID, slug).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check counter slug: %w", err)
	}
	return count > 0, nil
}

// Update updates the given columns of a counter
func (r *CounterRepository) Update(ctx context.Context, counter *Counter, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	err := r.ds.DB(ctx).Model(counter).
		Where("user_id = ?", counter.UserID).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("failed to update counter: %w", err)
	}
	return nil
}

// Delete deletes an owner's counter
func (r *CounterRepository) Delete(ctx context.Context, userID, id int64) error {
	err := r.ds.DB(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&Counter{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete counter: %w", err)
	}
	return nil
}

// LockByOwner takes row locks on all of an owner's counters (SELECT FOR UPDATE).
// Must run inside ExecTx; a no-op on dialects without row locks.
func (r *CounterRepository) LockByOwner(ctx context.Context, userID int64) error {
	if !r.ds.SupportsRowLocks() {
		return nil
	}

	var ids []int64
	err := r.ds.DB(ctx).Model(&Counter{}).
		Where("user_id = ?", userID).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Pluck("id", &ids).Error
	if err != nil {
		return fmt.Errorf("failed to lock owner counters: %w", err)
	}
	return nil
}
