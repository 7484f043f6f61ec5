package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"timetrack/internal/jobs"
	"timetrack/internal/service"
	"timetrack/pkg/lock"
	"timetrack/pkg/logger"
)

func (app *Application) initJobs() error {
	if app.feedbackService == nil || app.aggregationService == nil {
		logger.WarnCtx(app.ctx, "Service layer not fully initialized yet, skipping background job registration")
		return nil
	}

	manager := jobs.NewManager(app.ctx)

	// Locks keep replicas from running the same job at once.
	// Without Redis they downgrade to single-instance mode.
	var redisClient *redis.Client
	if app.redisClient != nil {
		redisClient = app.redisClient.GetClient()
	}

	feedbackCleanupLock := lock.NewRedisDistributedLock(redisClient, "jobs:feedback-cleanup-lock", 0)
	reconcileLock := lock.NewRedisDistributedLock(redisClient, "jobs:summary-reconcile-lock", 0)

	manager.Register(jobs.Guarded(
		newFeedbackCleanupJob(24*time.Hour, app.feedbackService, app.config.Jobs.FeedbackCleanupDays),
		feedbackCleanupLock,
	))
	manager.Register(jobs.Guarded(
		newSummaryReconcileJob(
			time.Duration(app.config.Jobs.ReconcileInterval)*time.Second,
			app.aggregationService,
			app.config.Jobs.ReconcileDays,
		),
		reconcileLock,
	))

	app.jobsManager = manager
	return nil
}

// feedbackCleanupJob clears comments of feedback attempts that were never emailed.
type feedbackCleanupJob struct {
	interval        time.Duration
	feedbackService *service.FeedbackService
	days            int
}

func newFeedbackCleanupJob(interval time.Duration, svc *service.FeedbackService, days int) jobs.Job {
	return &feedbackCleanupJob{
		interval:        interval,
		feedbackService: svc,
		days:            days,
	}
}

func (j *feedbackCleanupJob) Name() string { return "feedback-cleanup" }

func (j *feedbackCleanupJob) Interval() time.Duration { return j.interval }

func (j *feedbackCleanupJob) AlignToInterval() bool { return true }

func (j *feedbackCleanupJob) Run(ctx context.Context) error {
	if j.feedbackService == nil {
		return fmt.Errorf("feedback service not configured")
	}
	_, err := j.feedbackService.CleanupOldAttempts(ctx, j.days)
	return err
}

// summaryReconcileJob recomputes recent daily summaries from intervals.
type summaryReconcileJob struct {
	interval           time.Duration
	aggregationService *service.AggregationService
	days               int
}

func newSummaryReconcileJob(interval time.Duration, svc *service.AggregationService, days int) jobs.Job {
	return &summaryReconcileJob{
		interval:           interval,
		aggregationService: svc,
		days:               days,
	}
}

func (j *summaryReconcileJob) Name() string { return "summary-reconcile" }

func (j *summaryReconcileJob) Interval() time.Duration { return j.interval }

func (j *summaryReconcileJob) Run(ctx context.Context) error {
	if j.aggregationService == nil {
		return fmt.Errorf("aggregation service not configured")
	}
	n, err := j.aggregationService.ReconcileRecent(ctx, j.days)
	if err != nil {
		return err
	}
	logger.DebugCtx(ctx, "reconciled %d daily summaries", n)
	return nil
}
