package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timetrack/internal/model"
	"timetrack/pkg/store/mysql"
)

func addManual(t *testing.T, env *testEnv, ownerID, counterID int64, d, from, to string) *model.Interval {
	t.Helper()

	dd := mustDate(t, d)
	iv, err := env.intervals.CreateManual(context.Background(), ownerID, counterID, &model.CreateIntervalRequest{
		Day:       &dd,
		StartTime: mustTime(t, from),
		EndTime:   mustTime(t, to),
	})
	require.NoError(t, err)
	return iv
}

func TestAggregation_RecalculateIsIdempotent(t *testing.T) {
	env := newTestEnv(t, model.OvernightReject)
	ctx := context.Background()
	c := env.createCounter(t, 1, "Work")
	addManual(t, env, 1, c.ID, "2024-03-09", "09:00:00", "10:00:00")
	addManual(t, env, 1, c.ID, "2024-03-09", "13:00:00", "13:30:00")

	d := mustDate(t, "2024-03-09")
	first, err := env.aggregation.RecalculateDailySummary(ctx, 1, d)
	require.NoError(t, err)
	second, err := env.aggregation.RecalculateDailySummary(ctx, 1, d)
	require.NoError(t, err)

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first.IntervalCount, second.IntervalCount)
	assert.Equal(t, first.TotalTime, second.TotalTime)
	assert.Equal(t, 2, second.IntervalCount)
	assert.Equal(t, "1:30:00", second.TotalTime.String())

	rows, err := env.aggregation.ListDailySummaries(ctx, 1, nil, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestAggregation_RebuildOwnerMatchesIncremental(t *testing.T) {
	env := newTestEnv(t, model.OvernightReject)
	ctx := context.Background()
	work := env.createCounter(t, 1, "Work")
	study := env.createCounter(t, 1, "Study")
	addManual(t, env, 1, work.ID, "2024-03-08", "09:00:00", "12:00:00")
	addManual(t, env, 1, study.ID, "2024-03-08", "20:00:00", "21:15:00")
	addManual(t, env, 1, work.ID, "2024-03-09", "10:00:00", "10:45:00")

	before, err := env.aggregation.ListDailySummaries(ctx, 1, nil, nil)
	require.NoError(t, err)

	// corrupt the cache, then rebuild
	require.NoError(t, env.repo.GetDatastore().GetDB().
		Model(&mysql.DailySummary{}).Where("user_id = ?", 1).
		Update("total_seconds", 1).Error)
	require.NoError(t, env.repo.DailySummary.Delete(ctx, 1, mustDate(t, "2024-03-09")))

	rebuilt, err := env.aggregation.RebuildOwner(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, rebuilt, 2)

	after, err := env.aggregation.ListDailySummaries(ctx, 1, nil, nil)
	require.NoError(t, err)
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].Date, after[i].Date)
		assert.Equal(t, before[i].IntervalCount, after[i].IntervalCount)
		assert.Equal(t, before[i].TotalTime, after[i].TotalTime)
	}
	assert.Equal(t, "4:15:00", after[0].TotalTime.String())
}

func TestAggregation_RunningIntervalNotCounted(t *testing.T) {
	env := newTestEnv(t, model.OvernightReject)
	ctx := context.Background()
	c := env.createCounter(t, 1, "Work")

	_, err := env.lifecycle.Start(ctx, 1, c.ID)
	require.NoError(t, err)

	summary, err := env.aggregation.RecalculateDailySummary(ctx, 1, model.DateOf(env.clock.Now()))
	require.NoError(t, err)
	assert.Nil(t, summary)
}

func TestAggregation_ReconcileRecent(t *testing.T) {
	env := newTestEnv(t, model.OvernightReject)
	ctx := context.Background()
	c := env.createCounter(t, 1, "Work")
	other := env.createCounter(t, 2, "Work")
	addManual(t, env, 1, c.ID, "2024-03-10", "08:00:00", "08:30:00")
	addManual(t, env, 2, other.ID, "2024-03-08", "08:00:00", "09:00:00")
	addManual(t, env, 1, c.ID, "2024-02-01", "08:00:00", "09:00:00")

	_, err := env.repo.DailySummary.DeleteByOwner(ctx, 1)
	require.NoError(t, err)
	_, err = env.repo.DailySummary.DeleteByOwner(ctx, 2)
	require.NoError(t, err)

	n, err := env.aggregation.ReconcileRecent(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.NotNil(t, env.summary(t, 1, mustDate(t, "2024-03-10")))
	assert.NotNil(t, env.summary(t, 2, mustDate(t, "2024-03-08")))
	assert.Nil(t, env.summary(t, 1, mustDate(t, "2024-02-01")))
}

func TestAggregation_RebuildWaitsForOwnerLock(t *testing.T) {
	env := newTestEnv(t, model.OvernightReject)
	ctx := context.Background()
	c := env.createCounter(t, 1, "Work")
	addManual(t, env, 1, c.ID, "2024-03-10", "08:00:00", "08:30:00")

	release, err := env.locker.Lock(ctx, 1)
	require.NoError(t, err)

	done := make(chan []*model.DailySummary, 1)
	go func() {
		rebuilt, err := env.aggregation.RebuildOwner(ctx, 1)
		assert.NoError(t, err)
		done <- rebuilt
	}()

	select {
	case <-done:
		t.Fatal("rebuild ran while the owner lock was held")
	case <-time.After(100 * time.Millisecond):
	}

	release()
	select {
	case rebuilt := <-done:
		require.Len(t, rebuilt, 1)
		assert.Equal(t, "0:30:00", rebuilt[0].TotalTime.String())
	case <-time.After(3 * time.Second):
		t.Fatal("rebuild did not finish after the owner lock was released")
	}
}

func TestAggregation_PeriodRollup(t *testing.T) {
	env := newTestEnv(t, model.OvernightReject)
	ctx := context.Background()
	work := env.createCounter(t, 1, "Work")
	study := env.createCounter(t, 1, "Study")
	hobby := env.createCounter(t, 1, "Art")
	addManual(t, env, 1, work.ID, "2024-03-04", "09:00:00", "11:00:00")
	addManual(t, env, 1, study.ID, "2024-03-05", "09:00:00", "10:00:00")
	addManual(t, env, 1, hobby.ID, "2024-03-05", "18:00:00", "19:00:00")
	addManual(t, env, 1, work.ID, "2024-03-06", "09:00:00", "09:30:00")
	addManual(t, env, 1, work.ID, "2024-02-01", "09:00:00", "17:00:00")

	rollup, err := env.aggregation.PeriodRollup(ctx, 1, mustDate(t, "2024-03-06"), mustDate(t, "2024-03-04"))
	require.NoError(t, err)

	assert.Equal(t, "2024-03-04", rollup.Start.String())
	assert.Equal(t, "2024-03-06", rollup.End.String())
	require.Len(t, rollup.PerCounter, 3)
	assert.Equal(t, "Work", rollup.PerCounter[0].Name)
	assert.Equal(t, "2:30:00", rollup.PerCounter[0].Total.String())
	assert.Equal(t, 2, rollup.PerCounter[0].IntervalCount)
	// ties ordered by name
	assert.Equal(t, "Art", rollup.PerCounter[1].Name)
	assert.Equal(t, "Study", rollup.PerCounter[2].Name)

	require.Len(t, rollup.PerDay, 3)
	assert.Equal(t, "2024-03-04", rollup.PerDay[0].Day.String())
	assert.Equal(t, "2:00:00", rollup.PerDay[1].Total.String())
	assert.Equal(t, "4:30:00", rollup.Total.String())
}

func TestAggregation_SummaryFollowsIntervalEdits(t *testing.T) {
	env := newTestEnv(t, model.OvernightReject)
	ctx := context.Background()
	c := env.createCounter(t, 1, "Work")
	iv := addManual(t, env, 1, c.ID, "2024-03-09", "09:00:00", "10:00:00")

	moved := mustDate(t, "2024-03-08")
	_, err := env.intervals.Update(ctx, 1, iv.ID, &model.UpdateIntervalRequest{Day: &moved})
	require.NoError(t, err)

	assert.Nil(t, env.summary(t, 1, mustDate(t, "2024-03-09")))
	s := env.summary(t, 1, moved)
	require.NotNil(t, s)
	assert.Equal(t, int64(3600), s.TotalSeconds)

	env.clock.Advance(time.Hour)
	require.NoError(t, env.intervals.Delete(ctx, 1, iv.ID))
	assert.Nil(t, env.summary(t, 1, moved))
}
