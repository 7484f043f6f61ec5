package service

import (
	"context"

	"timetrack/pkg/lock"
	"timetrack/pkg/notification"
	queueasynq "timetrack/pkg/queue/asynq"
	redisstore "timetrack/pkg/store/redis"
)

type pausedStore interface {
	Add(ctx context.Context, ownerID, counterID int64) error
	Remove(ctx context.Context, ownerID, counterID int64) error
	IsPaused(ctx context.Context, ownerID, counterID int64) (bool, error)
	List(ctx context.Context, ownerID int64) ([]int64, error)
}

// TaskQueue accepts fire-and-forget tasks for the notification side-channel
type TaskQueue interface {
	Enqueue(ctx context.Context, taskName string, payload interface{}) (string, error)
	TaskState(ctx context.Context, taskID string) (string, error)
}

type mailer interface {
	Send(ctx context.Context, msg *notification.Message) error
}

type feedbackNotifier interface {
	SendFeedbackNotification(ctx context.Context, n *notification.FeedbackNotification) error
}

// compile-time assertions

var (
	_ pausedStore      = (*redisstore.PausedRepository)(nil)
	_ lock.OwnerLocker = (*lock.OwnerLock)(nil)
	_ TaskQueue        = (*queueasynq.Manager)(nil)
	_ mailer           = (*notification.SMTPMailer)(nil)
	_ feedbackNotifier = (*notification.FeishuNotifier)(nil)
)
