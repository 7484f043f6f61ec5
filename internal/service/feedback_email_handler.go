package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"

	"timetrack/internal/model"
	"timetrack/pkg/clock"
	"timetrack/pkg/logger"
	"timetrack/pkg/notification"
	"timetrack/pkg/store/mysql"
)

// FeedbackEmailHandler delivers email:feedback tasks. Returned errors make asynq retry.
type FeedbackEmailHandler struct {
	repo     *mysql.Repository
	mailer   mailer
	notifier feedbackNotifier
	clock    clock.Clock
}

// NewFeedbackEmailHandler creates the handler; notifier may be nil
func NewFeedbackEmailHandler(repo *mysql.Repository, m mailer, notifier feedbackNotifier, clk clock.Clock) *FeedbackEmailHandler {
	return &FeedbackEmailHandler{
		repo:     repo,
		mailer:   m,
		notifier: notifier,
		clock:    clk,
	}
}

var _ asynq.Handler = (*FeedbackEmailHandler)(nil)

// ProcessTask implements asynq.Handler
func (h *FeedbackEmailHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload model.FeedbackEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid feedback payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.UserID <= 0 {
		return fmt.Errorf("feedback payload without user: %w", asynq.SkipRetry)
	}
	if strings.TrimSpace(payload.Comment) == "" {
		return fmt.Errorf("feedback payload without comment: %w", asynq.SkipRetry)
	}

	retry, _ := asynq.GetRetryCount(ctx)
	logger.InfoCtx(ctx, "sending feedback email: user=%d attempt=%d", payload.UserID, retry+1)

	rating := "not rated"
	row, err := h.repo.ProjectRating.GetByUser(ctx, payload.UserID)
	if err != nil {
		return fmt.Errorf("failed to load rating of user %d: %w", payload.UserID, err)
	}
	if row != nil {
		rating = row.Rating
	}

	submittedAt := h.clock.Now()
	msg := BuildFeedbackMessage(payload, rating, submittedAt.Format("2006-01-02 15:04:05"))
	if err := h.mailer.Send(ctx, msg); err != nil {
		logger.WarnCtx(ctx, "feedback email for user %d failed, will retry: %v", payload.UserID, err)
		return fmt.Errorf("failed to send feedback email: %w", err)
	}

	if h.notifier != nil {
		err := h.notifier.SendFeedbackNotification(ctx, &notification.FeedbackNotification{
			UserID:      payload.UserID,
			Rating:      rating,
			Comment:     payload.Comment,
			SubmittedAt: submittedAt,
		})
		if err != nil {
			logger.WarnCtx(ctx, "feishu feedback notification failed: %v", err)
		}
	}

	logger.InfoCtx(ctx, "feedback email sent for user %d", payload.UserID)
	return nil
}

// BuildFeedbackMessage formats the plain text feedback email
func BuildFeedbackMessage(payload model.FeedbackEmailPayload, rating, submittedAt string) *notification.Message {
	var body strings.Builder
	fmt.Fprintf(&body, "New feedback from user #%d\n\n", payload.UserID)
	fmt.Fprintf(&body, "Rating: %s\n", rating)
	fmt.Fprintf(&body, "Submitted at: %s\n\n", submittedAt)
	body.WriteString("Comment:\n")
	body.WriteString(payload.Comment)
	body.WriteString("\n")

	return &notification.Message{
		Subject: fmt.Sprintf("Timetrack feedback from user #%d", payload.UserID),
		Body:    body.String(),
	}
}
