package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timetrack/app/handler"
	"timetrack/app/middleware"
	"timetrack/internal/model"
	"timetrack/internal/service"
	"timetrack/pkg/clock"
	"timetrack/pkg/config"
	"timetrack/pkg/lock"
	"timetrack/pkg/store/mysql"
	redisstore "timetrack/pkg/store/redis"
)

const testAPIKey = "secret"

type stubQueue struct{ n int }

func (q *stubQueue) Enqueue(ctx context.Context, taskName string, payload interface{}) (string, error) {
	q.n++
	return fmt.Sprintf("task-%d", q.n), nil
}

func (q *stubQueue) TaskState(ctx context.Context, taskID string) (string, error) {
	return "pending", nil
}

type apiEnv struct {
	engine *gin.Engine
	clock  *clock.FakeClock
	queue  *stubQueue
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clk := clock.Fake(time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC))
	cfg := config.DatabaseConfig{Driver: mysql.DriverSQLite, SQLitePath: ":memory:", AutoMigrate: true}
	repo, err := mysql.NewRepository(context.Background(), cfg, clk.Now)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	paused := redisstore.NewPausedRepository(nil)
	locker := lock.NewOwnerLock(nil, config.LockConfig{AcquireTimeout: 5 * time.Second})
	queue := &stubQueue{}

	aggregation := service.NewAggregationService(repo, locker, clk)
	counters := service.NewCounterService(repo, aggregation, paused, locker)
	lifecycle := service.NewLifecycleService(repo, aggregation, paused, locker, clk, model.OvernightReject)
	intervals := service.NewIntervalService(repo, aggregation, locker, clk, model.OvernightReject)
	reports := service.NewReportService(repo, aggregation, paused, clk, 10)
	feedback := service.NewFeedbackService(repo, queue, clk)

	r := NewRouter(
		handler.NewCounterHandler(counters, lifecycle, intervals, reports),
		handler.NewIntervalHandler(intervals),
		handler.NewReportHandler(reports, aggregation),
		handler.NewFeedbackHandler(feedback),
		testAPIKey,
	)
	engine := gin.New()
	r.Setup(engine)

	return &apiEnv{engine: engine, clock: clk, queue: queue}
}

func (e *apiEnv) do(t *testing.T, owner int64, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	if owner > 0 {
		req.Header.Set(middleware.UserIDHeader, fmt.Sprint(owner))
	}

	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// display extracts the H:MM:SS label of an encoded duration
func display(v interface{}) string {
	m, ok := v.(map[string]interface{})
	if !ok {
		return ""
	}
	s, _ := m["display"].(string)
	return s
}

func (e *apiEnv) createCounter(t *testing.T, owner int64, name string) int64 {
	t.Helper()

	w := e.do(t, owner, http.MethodPost, "/api/v1/counters", map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return int64(decode(t, w)["id"].(float64))
}

func TestHealthIsUnauthenticated(t *testing.T) {
	env := newAPIEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestAuth(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(t, 0, http.MethodGet, "/api/v1/counters", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/counters", nil)
	req.Header.Set(middleware.UserIDHeader, "1")
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/counters", nil)
	req.Header.Set(middleware.UserIDHeader, "abc")
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	w = httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, 1, http.MethodGet, "/api/v1/counters", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestCounterCRUD(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(t, 1, http.MethodPost, "/api/v1/counters", map[string]string{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "name", decode(t, w)["field"])

	id := env.createCounter(t, 1, "Deep Work")

	w = env.do(t, 1, http.MethodGet, fmt.Sprintf("/api/v1/counters/%d", id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "deep-work", decode(t, w)["slug"])

	w = env.do(t, 1, http.MethodPut, fmt.Sprintf("/api/v1/counters/%d", id), map[string]string{"color": "#112233"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "#112233", decode(t, w)["color"])

	// other owners never see the counter
	w = env.do(t, 2, http.MethodGet, fmt.Sprintf("/api/v1/counters/%d", id), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, 1, http.MethodGet, "/api/v1/counters/abc", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, 1, http.MethodDelete, fmt.Sprintf("/api/v1/counters/%d", id), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, 1, http.MethodGet, fmt.Sprintf("/api/v1/counters/%d", id), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLifecycleStatusMapping(t *testing.T) {
	env := newAPIEnv(t)
	a := env.createCounter(t, 1, "A")
	b := env.createCounter(t, 1, "B")

	w := env.do(t, 1, http.MethodPost, fmt.Sprintf("/api/v1/counters/%d/start", a), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// starting again is informational
	w = env.do(t, 1, http.MethodPost, fmt.Sprintf("/api/v1/counters/%d/start", a), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "info", decode(t, w)["level"])

	// another counter conflicts
	w = env.do(t, 1, http.MethodPost, fmt.Sprintf("/api/v1/counters/%d/start", b), nil)
	require.Equal(t, http.StatusConflict, w.Code)
	body := decode(t, w)
	assert.Equal(t, "warning", body["level"])
	assert.Equal(t, "one active task at a time", body["error"])

	w = env.do(t, 1, http.MethodGet, fmt.Sprintf("/api/v1/counters/%d/state", a), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "running", decode(t, w)["state"])

	env.clock.Advance(90 * time.Minute)
	w = env.do(t, 1, http.MethodPost, fmt.Sprintf("/api/v1/counters/%d/pause", a), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var closed []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &closed))
	require.Len(t, closed, 1)
	assert.Equal(t, "1:30:00", display(closed[0]["duration"]))

	w = env.do(t, 1, http.MethodGet, fmt.Sprintf("/api/v1/counters/%d/state", a), nil)
	assert.Equal(t, "paused", decode(t, w)["state"])

	// stopping an idle counter is informational
	w = env.do(t, 1, http.MethodPost, fmt.Sprintf("/api/v1/counters/%d/stop", a), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "info", decode(t, w)["level"])

	w = env.do(t, 1, http.MethodPost, fmt.Sprintf("/api/v1/counters/%d/resume", a), nil)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestManualIntervalAndReports(t *testing.T) {
	env := newAPIEnv(t)
	id := env.createCounter(t, 1, "Work")

	w := env.do(t, 1, http.MethodPost, fmt.Sprintf("/api/v1/counters/%d/intervals", id), map[string]string{
		"day": "2024-03-10", "start_time": "09:00:00", "end_time": "10:30:00",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	interval := decode(t, w)
	assert.Equal(t, "1:30:00", display(interval["duration"]))
	intervalID := int64(interval["id"].(float64))

	w = env.do(t, 1, http.MethodPost, fmt.Sprintf("/api/v1/counters/%d/intervals", id), map[string]string{
		"start_time": "09:00:00",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "end_time", decode(t, w)["field"])

	w = env.do(t, 1, http.MethodPut, fmt.Sprintf("/api/v1/intervals/%d", intervalID), map[string]string{"end_time": "10:00:00"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "1:00:00", display(decode(t, w)["duration"]))

	w = env.do(t, 1, http.MethodGet, "/api/v1/dashboard?date=2024-03-10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1:00:00", display(decode(t, w)["overall_total"]))

	w = env.do(t, 1, http.MethodGet, fmt.Sprintf("/api/v1/counters/%d/history?page=7", id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode(t, w)
	assert.EqualValues(t, 1, page["page"])
	assert.EqualValues(t, 1, page["total_items"])

	w = env.do(t, 1, http.MethodGet, "/api/v1/summary?period=week", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "week", decode(t, w)["period"])

	w = env.do(t, 1, http.MethodGet, "/api/v1/daily-summaries?from=2024-03-01&to=2024-03-31", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summaries []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)

	w = env.do(t, 1, http.MethodPost, "/api/v1/daily-summaries/rebuild", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, 2, http.MethodDelete, fmt.Sprintf("/api/v1/intervals/%d", intervalID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, 1, http.MethodDelete, fmt.Sprintf("/api/v1/intervals/%d", intervalID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFeedbackEndpoints(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(t, 1, http.MethodPost, "/api/v1/feedback/rating", map[string]string{"rating": "meh"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, 1, http.MethodPost, "/api/v1/feedback/rating", map[string]string{"rating": "like"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 1, decode(t, w)["likes"])

	w = env.do(t, 2, http.MethodGet, "/api/v1/feedback/rating", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["likes"])

	w = env.do(t, 1, http.MethodPost, "/api/v1/feedback", map[string]string{"comment": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, 1, http.MethodPost, "/api/v1/feedback", map[string]string{"comment": "nice tool"})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Equal(t, "task-1", decode(t, w)["task_id"])
	assert.Equal(t, 1, env.queue.n)

	w = env.do(t, 1, http.MethodGet, "/api/v1/feedback/status", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "task-1", body["task_id"])
	assert.Equal(t, "pending", body["state"])

	w = env.do(t, 2, http.MethodGet, "/api/v1/feedback/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "none", decode(t, w)["state"])
}
