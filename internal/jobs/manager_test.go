package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"timetrack/pkg/lock"
	"timetrack/pkg/logger"
)

type countingJob struct {
	name     string
	interval time.Duration
	runs     atomic.Int32
}

func (j *countingJob) Name() string            { return j.name }
func (j *countingJob) Interval() time.Duration { return j.interval }
func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return nil
}

type alignedCountingJob struct {
	countingJob
}

func (j *alignedCountingJob) AlignToInterval() bool { return true }

func TestManager_RunsImmediatelyAndOnTick(t *testing.T) {
	m := NewManager(context.Background())
	job := &countingJob{name: "tick", interval: 10 * time.Millisecond}
	m.Register(job)
	m.Register(nil)
	assert.Equal(t, []string{"tick"}, m.Jobs())

	m.Start()
	m.Start()
	assert.Eventually(t, func() bool { return job.runs.Load() >= 3 }, time.Second, 5*time.Millisecond)

	m.Stop()
	m.Wait()
	runs := job.runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, runs, job.runs.Load())
}

type failingJob struct{}

func (failingJob) Name() string                  { return "reconcile" }
func (failingJob) Interval() time.Duration       { return time.Hour }
func (failingJob) Run(ctx context.Context) error { return errors.New("database is gone") }

func TestManager_LogsJobFailure(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	prev := logger.Log
	logger.Log = zap.New(core)
	t.Cleanup(func() { logger.Log = prev })

	m := NewManager(context.Background())
	m.Register(failingJob{})
	m.Start()
	assert.Eventually(t, func() bool {
		return logs.FilterMessage("background job failed").Len() > 0
	}, time.Second, 5*time.Millisecond)
	m.Stop()
	m.Wait()

	fields := logs.FilterMessage("background job failed").All()[0].ContextMap()
	assert.Equal(t, "reconcile", fields["job"])
	assert.Equal(t, "database is gone", fields["error"])
	assert.Equal(t, "0", fields["trace_id"])
}

func TestManager_AlignedJobWaits(t *testing.T) {
	m := NewManager(context.Background())
	job := &alignedCountingJob{countingJob{name: "daily", interval: 24 * time.Hour}}
	m.Register(Guarded(job, lock.NewRedisDistributedLock(nil, "jobs:daily", 0)))

	m.Start()
	time.Sleep(20 * time.Millisecond)
	m.Stop()
	m.Wait()
	assert.Equal(t, int32(0), job.runs.Load())
}

func TestGuarded_SkipsWhenLockHeldElsewhere(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()

	other := lock.NewRedisDistributedLock(client, "jobs:cleanup", time.Minute)
	acquired, err := other.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, acquired)

	job := &countingJob{name: "cleanup", interval: time.Hour}
	guarded := Guarded(job, lock.NewRedisDistributedLock(client, "jobs:cleanup", time.Minute))

	require.NoError(t, guarded.Run(ctx))
	assert.Equal(t, int32(0), job.runs.Load())

	require.NoError(t, other.Unlock(ctx))
	require.NoError(t, guarded.Run(ctx))
	assert.Equal(t, int32(1), job.runs.Load())
	assert.False(t, mr.Exists("jobs:cleanup"))

	aligned, ok := guarded.(AlignedJob)
	require.True(t, ok)
	assert.False(t, aligned.AlignToInterval())
}
