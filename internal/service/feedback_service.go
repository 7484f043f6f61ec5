package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"timetrack/internal/model"
	"timetrack/pkg/clock"
	"timetrack/pkg/logger"
	queueasynq "timetrack/pkg/queue/asynq"
	"timetrack/pkg/store/mysql"
)

// ErrQueueDisabled feedback cannot be delivered without a task queue
var ErrQueueDisabled = fmt.Errorf("task queue is not configured")

// FeedbackService stores project ratings and forwards feedback comments
type FeedbackService struct {
	repo  *mysql.Repository
	queue TaskQueue
	clock clock.Clock
}

// NewFeedbackService creates a new feedback service; queue may be nil
func NewFeedbackService(repo *mysql.Repository, queue TaskQueue, clk clock.Clock) *FeedbackService {
	return &FeedbackService{
		repo:  repo,
		queue: queue,
		clock: clk,
	}
}

// Rate records the owner's single rating and returns like/dislike totals
func (s *FeedbackService) Rate(ctx context.Context, ownerID int64, req *model.RateRequest) (*model.RatingStats, error) {
	rating, err := model.ParseRating(req.Rating)
	if err != nil {
		return nil, err
	}

	row, err := s.loadOrNew(ctx, ownerID, rating)
	if err != nil {
		return nil, err
	}
	row.Rating = string(rating)
	if comment := strings.TrimSpace(req.Comment); comment != "" {
		row.Comment = truncateRunes(comment, model.MaxFeedbackCommentLength)
	}
	if err := s.repo.ProjectRating.Save(ctx, row); err != nil {
		return nil, model.StorageError("save rating", err)
	}

	logger.InfoCtx(ctx, "project rated: owner=%d rating=%s", ownerID, rating)
	return s.Stats(ctx)
}

// Stats like/dislike totals across all owners
func (s *FeedbackService) Stats(ctx context.Context) (*model.RatingStats, error) {
	likes, dislikes, err := s.repo.ProjectRating.CountByRating(ctx)
	if err != nil {
		return nil, model.StorageError("count ratings", err)
	}
	return &model.RatingStats{Likes: likes, Dislikes: dislikes}, nil
}

// SendFeedback enqueues the feedback email and records the attempt on the owner's rating.
// Nothing is stored when the task cannot be enqueued.
func (s *FeedbackService) SendFeedback(ctx context.Context, ownerID int64, req *model.FeedbackRequest) (*model.FeedbackResult, error) {
	comment, err := model.NormalizeFeedbackComment(req.Comment)
	if err != nil {
		return nil, err
	}
	if s.queue == nil {
		return nil, fmt.Errorf("enqueue feedback email: %w: %w", model.ErrStorage, ErrQueueDisabled)
	}

	taskID, err := s.queue.Enqueue(ctx, model.TaskTypeFeedbackEmail, &model.FeedbackEmailPayload{
		UserID:  ownerID,
		Comment: comment,
	})
	if err != nil {
		return nil, model.StorageError("enqueue feedback email", err)
	}

	row, err := s.loadOrNew(ctx, ownerID, model.RatingLike)
	if err != nil {
		return nil, err
	}
	sentAt := s.clock.Now()
	row.Comment = comment
	row.EmailSent = true
	row.EmailSentAt = &sentAt
	row.TaskID = taskID
	if err := s.repo.ProjectRating.Save(ctx, row); err != nil {
		// the task is already queued, the email still goes out
		logger.ErrorCtx(ctx, "feedback task %s queued but rating not saved: %v", taskID, err)
		return nil, model.StorageError("save rating", err)
	}

	logger.InfoCtx(ctx, "feedback queued: owner=%d task=%s", ownerID, taskID)
	return &model.FeedbackResult{
		TaskID: taskID,
		Rating: mysql.ToProjectRatingDomain(row),
	}, nil
}

// FeedbackStatus reports how far the owner's last feedback email got through the queue
func (s *FeedbackService) FeedbackStatus(ctx context.Context, ownerID int64) (*model.FeedbackStatus, error) {
	row, err := s.repo.ProjectRating.GetByUser(ctx, ownerID)
	if err != nil {
		return nil, model.StorageError("get rating", err)
	}
	if row == nil || row.TaskID == "" {
		return &model.FeedbackStatus{State: model.FeedbackStateNone}, nil
	}

	status := &model.FeedbackStatus{
		TaskID:      row.TaskID,
		State:       model.FeedbackStateUnknown,
		EmailSentAt: row.EmailSentAt,
	}
	if s.queue == nil {
		return status, nil
	}

	state, err := s.queue.TaskState(ctx, row.TaskID)
	switch {
	case errors.Is(err, queueasynq.ErrTaskNotFound):
		return status, nil
	case err != nil:
		return nil, model.StorageError("inspect feedback task", err)
	}
	status.State = state
	return status, nil
}

// CleanupOldAttempts clears comments of feedback never emailed and older than days
func (s *FeedbackService) CleanupOldAttempts(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		days = 30
	}
	cutoff := s.clock.Now().Add(-time.Duration(days) * 24 * time.Hour)

	cleaned, err := s.repo.ProjectRating.CleanupUnsentBefore(ctx, cutoff)
	if err != nil {
		return 0, model.StorageError("cleanup feedback attempts", err)
	}
	if cleaned > 0 {
		logger.InfoCtx(ctx, "cleaned up %d unsent feedback attempts older than %d days", cleaned, days)
	}
	return cleaned, nil
}

func (s *FeedbackService) loadOrNew(ctx context.Context, ownerID int64, rating model.Rating) (*mysql.ProjectRating, error) {
	row, err := s.repo.ProjectRating.GetByUser(ctx, ownerID)
	if err != nil {
		return nil, model.StorageError("get rating", err)
	}
	if row == nil {
		row = &mysql.ProjectRating{UserID: ownerID, Rating: string(rating)}
	}
	return row, nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
