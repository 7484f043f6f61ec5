package mysql

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timetrack/internal/model"
)

func TestIntervalRepositoryForcesOwner(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	day := model.NewDate(2024, time.March, 10)

	counter := createCounter(t, repo, 7, "work")

	start := model.NewTimeOfDay(9, 0, 0)
	iv := &Interval{CounterID: counter.ID, UserID: 99, Day: day, StartTime: &start, CreatedAt: testNow}
	require.NoError(t, repo.Interval.Create(ctx, iv))
	assert.Equal(t, int64(7), iv.UserID)

	iv.UserID = 42
	require.NoError(t, repo.Interval.Save(ctx, iv))
	assert.Equal(t, int64(7), iv.UserID)

	missing := &Interval{CounterID: 12345, Day: day, StartTime: &start, CreatedAt: testNow}
	assert.ErrorIs(t, repo.Interval.Create(ctx, missing), model.ErrNotFound)
}

func TestIntervalRepositoryQueries(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	d1 := model.NewDate(2024, time.March, 9)
	d2 := model.NewDate(2024, time.March, 10)

	work := createCounter(t, repo, 1, "work")
	study := createCounter(t, repo, 1, "study")
	other := createCounter(t, repo, 2, "other")

	createInterval(t, repo, work.ID, d1, "09:00:00", "10:30:00")
	createInterval(t, repo, work.ID, d2, "08:00:00", "09:00:00")
	createInterval(t, repo, study.ID, d2, "10:00:00", "10:45:00")
	open := createInterval(t, repo, study.ID, d2, "11:00:00", "")
	createInterval(t, repo, other.ID, d2, "08:00:00", "12:00:00")

	t.Run("open intervals", func(t *testing.T) {
		items, err := repo.Interval.FindOpenByOwner(ctx, 1)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, open.ID, items[0].ID)

		iv, err := repo.Interval.FindOpenByCounter(ctx, work.ID)
		require.NoError(t, err)
		assert.Nil(t, iv)
	})

	t.Run("owned lookup", func(t *testing.T) {
		iv, err := repo.Interval.GetOwned(ctx, 2, open.ID)
		require.NoError(t, err)
		assert.Nil(t, iv)

		iv, err = repo.Interval.GetOwned(ctx, 1, open.ID)
		require.NoError(t, err)
		require.NotNil(t, iv)
		assert.True(t, iv.EndTime == nil)
		assert.Equal(t, "11:00:00", iv.StartTime.String())
		assert.Equal(t, d2, iv.Day)
	})

	t.Run("sum finished skips open intervals", func(t *testing.T) {
		count, total, err := repo.Interval.SumFinished(ctx, 1, d2)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
		assert.Equal(t, int64(3600+2700), total)
	})

	t.Run("totals by counter and day", func(t *testing.T) {
		byCounter, err := repo.Interval.TotalsByCounter(ctx, 1, d1, d2)
		require.NoError(t, err)
		require.Len(t, byCounter, 2)

		byDay, err := repo.Interval.TotalsByDay(ctx, 1, d1, d2)
		require.NoError(t, err)
		require.Len(t, byDay, 2)
		assert.Equal(t, d1, byDay[0].Day)
		assert.Equal(t, int64(5400), byDay[0].TotalSeconds)
		assert.Equal(t, d2, byDay[1].Day)
	})

	t.Run("distinct days", func(t *testing.T) {
		days, err := repo.Interval.DistinctDaysByCounter(ctx, work.ID)
		require.NoError(t, err)
		assert.Equal(t, []model.Date{d1, d2}, days)

		days, err = repo.Interval.FinishedDaysByOwner(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []model.Date{d1, d2}, days)

		pairs, err := repo.Interval.OwnerDaysSince(ctx, d2)
		require.NoError(t, err)
		assert.Equal(t, []OwnerDay{{UserID: 1, Day: d2}, {UserID: 2, Day: d2}}, pairs)
	})

	t.Run("history listing with filter", func(t *testing.T) {
		filter := IntervalFilter{Start: &d2}
		count, err := repo.Interval.CountByCounter(ctx, work.ID, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		items, err := repo.Interval.ListByCounter(ctx, work.ID, IntervalFilter{}, 0, 10)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, d2, items[0].Day)

		finished, total, err := repo.Interval.SumFinishedByCounter(ctx, study.ID, IntervalFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), finished)
		assert.Equal(t, int64(2700), total)

		dayTotal, err := repo.Interval.SumFinishedByCounterDay(ctx, study.ID, d2)
		require.NoError(t, err)
		assert.Equal(t, int64(2700), dayTotal)
	})

	t.Run("delete by counter", func(t *testing.T) {
		n, err := repo.Interval.DeleteByCounter(ctx, work.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})
}
