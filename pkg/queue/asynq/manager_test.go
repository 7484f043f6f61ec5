package asynq

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timetrack/pkg/config"
)

func TestRetryDelay(t *testing.T) {
	delay := RetryDelay(60 * time.Second)
	task := asynq.NewTask("email:feedback", nil)

	assert.Equal(t, 60*time.Second, delay(0, nil, task))
	assert.Equal(t, 120*time.Second, delay(1, nil, task))
	assert.Equal(t, 240*time.Second, delay(2, nil, task))
	assert.Equal(t, 60*time.Second, delay(-1, nil, task))

	assert.Equal(t, time.Minute, RetryDelay(0)(0, nil, task))
}

func TestNewManagerRequiresRedis(t *testing.T) {
	_, err := NewManager(config.RedisConfig{}, config.QueueConfig{})
	assert.Error(t, err)
}

func TestEnqueue(t *testing.T) {
	mr := miniredis.RunT(t)

	m, err := NewManager(config.RedisConfig{Addr: mr.Addr()}, config.QueueConfig{Concurrency: 1, MaxRetry: 3, BaseRetryDelay: 60, TaskTimeout: 30})
	require.NoError(t, err)
	defer m.Close()

	taskID, err := m.Enqueue(context.Background(), "email:feedback", map[string]interface{}{"user_id": 1, "comment": "hi"})
	require.NoError(t, err)
	require.NotEmpty(t, taskID)

	key := "asynq:{default}:t:" + taskID
	assert.True(t, mr.Exists(key))

	_, err = m.Enqueue(context.Background(), "email:feedback", func() {})
	assert.Error(t, err)
}

func TestTaskState(t *testing.T) {
	mr := miniredis.RunT(t)

	m, err := NewManager(config.RedisConfig{Addr: mr.Addr()}, config.QueueConfig{Concurrency: 1, MaxRetry: 3})
	require.NoError(t, err)
	defer m.Close()
	ctx := context.Background()

	_, err = m.TaskState(ctx, "missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)

	taskID, err := m.Enqueue(ctx, "email:feedback", map[string]interface{}{"user_id": 1, "comment": "hi"})
	require.NoError(t, err)

	state, err := m.TaskState(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, "pending", state)

	_, err = m.TaskState(ctx, "missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}
