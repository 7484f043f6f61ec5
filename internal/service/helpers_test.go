package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"timetrack/internal/model"
	"timetrack/pkg/clock"
	"timetrack/pkg/config"
	"timetrack/pkg/lock"
	"timetrack/pkg/notification"
	queueasynq "timetrack/pkg/queue/asynq"
	"timetrack/pkg/store/mysql"
	redisstore "timetrack/pkg/store/redis"
)

// 2024-03-10 09:00:00 UTC
var testStart = time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)

type queuedTask struct {
	name    string
	payload interface{}
}

// fakeQueue records enqueued tasks
type fakeQueue struct {
	mu     sync.Mutex
	tasks  []queuedTask
	err    error
	states map[string]string
}

func (q *fakeQueue) Enqueue(ctx context.Context, taskName string, payload interface{}) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return "", q.err
	}
	q.tasks = append(q.tasks, queuedTask{name: taskName, payload: payload})
	return fmt.Sprintf("task-%d", len(q.tasks)), nil
}

func (q *fakeQueue) TaskState(ctx context.Context, taskID string) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	state, ok := q.states[taskID]
	if !ok {
		return "", queueasynq.ErrTaskNotFound
	}
	return state, nil
}

// fakeMailer records sent messages, failing the first failures sends
type fakeMailer struct {
	mu       sync.Mutex
	sent     []*notification.Message
	failures int
}

func (m *fakeMailer) Send(ctx context.Context, msg *notification.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return fmt.Errorf("smtp: connection refused")
	}
	m.sent = append(m.sent, msg)
	return nil
}

type fakeNotifier struct {
	sent []*notification.FeedbackNotification
}

func (n *fakeNotifier) SendFeedbackNotification(ctx context.Context, fn *notification.FeedbackNotification) error {
	n.sent = append(n.sent, fn)
	return nil
}

var (
	_ TaskQueue        = (*fakeQueue)(nil)
	_ mailer           = (*fakeMailer)(nil)
	_ feedbackNotifier = (*fakeNotifier)(nil)
)

type testEnv struct {
	repo   *mysql.Repository
	clock  *clock.FakeClock
	paused *redisstore.PausedRepository
	queue  *fakeQueue
	locker *lock.OwnerLock

	aggregation *AggregationService
	counters    *CounterService
	lifecycle   *LifecycleService
	intervals   *IntervalService
	reports     *ReportService
	feedback    *FeedbackService
}

func newTestEnv(t *testing.T, policy model.OvernightPolicy) *testEnv {
	t.Helper()

	clk := clock.Fake(testStart)
	cfg := config.DatabaseConfig{Driver: mysql.DriverSQLite, SQLitePath: ":memory:", AutoMigrate: true}
	repo, err := mysql.NewRepository(context.Background(), cfg, clk.Now)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	paused := redisstore.NewPausedRepository(nil)
	locker := lock.NewOwnerLock(nil, config.LockConfig{AcquireTimeout: 5 * time.Second})
	queue := &fakeQueue{}
	aggregation := NewAggregationService(repo, locker, clk)

	return &testEnv{
		repo:        repo,
		clock:       clk,
		paused:      paused,
		queue:       queue,
		locker:      locker,
		aggregation: aggregation,
		counters:    NewCounterService(repo, aggregation, paused, locker),
		lifecycle:   NewLifecycleService(repo, aggregation, paused, locker, clk, policy),
		intervals:   NewIntervalService(repo, aggregation, locker, clk, policy),
		reports:     NewReportService(repo, aggregation, paused, clk, 10),
		feedback:    NewFeedbackService(repo, queue, clk),
	}
}

func (e *testEnv) createCounter(t *testing.T, ownerID int64, name string) *model.Counter {
	t.Helper()

	c, err := e.counters.Create(context.Background(), ownerID, &model.CreateCounterRequest{Name: name})
	require.NoError(t, err)
	return c
}

// track starts the counter at from and stops it at to, both "HH:MM:SS" on the current fake day
func (e *testEnv) track(t *testing.T, ownerID, counterID int64, from, to string) {
	t.Helper()

	ctx := context.Background()
	e.setClock(t, from)
	_, err := e.lifecycle.Start(ctx, ownerID, counterID)
	require.NoError(t, err)
	e.setClock(t, to)
	_, err = e.lifecycle.Stop(ctx, ownerID, counterID)
	require.NoError(t, err)
}

func (e *testEnv) setClock(t *testing.T, hms string) {
	t.Helper()

	tod, err := model.ParseTimeOfDay(hms)
	require.NoError(t, err)
	e.clock.Set(tod.On(model.DateOf(e.clock.Now()), time.UTC))
}

func (e *testEnv) openIntervals(t *testing.T, ownerID int64) []*mysql.Interval {
	t.Helper()

	open, err := e.repo.Interval.FindOpenByOwner(context.Background(), ownerID)
	require.NoError(t, err)
	return open
}

func (e *testEnv) summary(t *testing.T, ownerID int64, day model.Date) *mysql.DailySummary {
	t.Helper()

	s, err := e.repo.DailySummary.Get(context.Background(), ownerID, day)
	require.NoError(t, err)
	return s
}

func mustTime(t *testing.T, s string) *model.TimeOfDay {
	t.Helper()

	v, err := model.ParseTimeOfDay(s)
	require.NoError(t, err)
	return &v
}

func mustDate(t *testing.T, s string) model.Date {
	t.Helper()

	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return d
}
