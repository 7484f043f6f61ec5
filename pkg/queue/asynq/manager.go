package asynq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"timetrack/pkg/config"
	"timetrack/pkg/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// QueueDefault the only queue used by the service
const QueueDefault = "default"

// taskRetention keeps finished tasks inspectable after they complete
const taskRetention = 24 * time.Hour

// ErrTaskNotFound the task is unknown or its retention has expired
var ErrTaskNotFound = errors.New("task not found")

// Manager queue manager
type Manager struct {
	redisOpt asynq.RedisClientOpt
	client   *asynq.Client
	server   *asynq.Server
	mux      *asynq.ServeMux
	maxRetry int
	timeout  time.Duration
}

// NewManager creates queue manager
func NewManager(redisCfg config.RedisConfig, queueCfg config.QueueConfig) (*Manager, error) {
	if redisCfg.Addr == "" {
		return nil, fmt.Errorf("queue requires a redis address")
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     redisCfg.Addr,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: queueCfg.Concurrency,
			Queues: map[string]int{
				QueueDefault: 10,
			},
			RetryDelayFunc: RetryDelay(time.Duration(queueCfg.BaseRetryDelay) * time.Second),
		},
	)

	mux := asynq.NewServeMux()

	return &Manager{
		redisOpt: redisOpt,
		client:   client,
		server:   server,
		mux:      mux,
		maxRetry: queueCfg.MaxRetry,
		timeout:  time.Duration(queueCfg.TaskTimeout) * time.Second,
	}, nil
}

// RetryDelay exponential backoff: base, 2*base, 4*base, ...
func RetryDelay(base time.Duration) asynq.RetryDelayFunc {
	if base <= 0 {
		base = time.Minute
	}
	return func(n int, err error, task *asynq.Task) time.Duration {
		if n < 0 {
			n = 0
		}
		if n > 16 {
			n = 16
		}
		return base * time.Duration(math.Pow(2, float64(n)))
	}
}

// Enqueue marshals payload as JSON and enqueues it under taskName; the task id is returned
func (m *Manager) Enqueue(ctx context.Context, taskName string, payload interface{}) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal task payload: %w", err)
	}

	taskID := uuid.New().String()
	task := asynq.NewTask(taskName, data)

	info, err := m.client.EnqueueContext(ctx, task, m.options(taskID)...)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue task: %w", err)
	}

	logger.InfoCtx(ctx, "task enqueued, type: %s, task_id: %s, queue: %s", taskName, info.ID, info.Queue)
	return info.ID, nil
}

func (m *Manager) options(taskID string) []asynq.Option {
	opts := []asynq.Option{
		asynq.TaskID(taskID),
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(m.maxRetry),
		asynq.Retention(taskRetention),
	}
	if m.timeout > 0 {
		opts = append(opts, asynq.Timeout(m.timeout))
	}
	return opts
}

// GetTaskInfo retrieves task information from the default queue
func (m *Manager) GetTaskInfo(taskID string) (*asynq.TaskInfo, error) {
	inspector := asynq.NewInspector(m.redisOpt)
	defer inspector.Close()

	info, err := inspector.GetTaskInfo(QueueDefault, taskID)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
		}
		return nil, fmt.Errorf("failed to inspect task %s: %w", taskID, err)
	}
	return info, nil
}

// TaskState returns the delivery state of a task: pending, active, retry, archived or completed
func (m *Manager) TaskState(ctx context.Context, taskID string) (string, error) {
	info, err := m.GetTaskInfo(taskID)
	if err != nil {
		return "", err
	}
	logger.DebugCtx(ctx, "task %s state: %s, retried: %d", taskID, info.State, info.Retried)
	return info.State.String(), nil
}

// RegisterHandler registers task handler
func (m *Manager) RegisterHandler(pattern string, handler asynq.Handler) {
	m.mux.Handle(pattern, handler)
}

// Start starts queue processor
func (m *Manager) Start() error {
	logger.InfoCtx(context.Background(), "starting queue server")
	return m.server.Start(m.mux)
}

// Stop stops queue processor
func (m *Manager) Stop() {
	logger.InfoCtx(context.Background(), "stopping queue server")
	m.server.Stop()
	m.server.Shutdown()
}

// Close closes client
func (m *Manager) Close() error {
	return m.client.Close()
}
