package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"timetrack/app/handler"
	"timetrack/app/router"
	"timetrack/internal/model"
	"timetrack/internal/service"
	"timetrack/pkg/clock"
	"timetrack/pkg/config"
	"timetrack/pkg/lock"
	"timetrack/pkg/logger"
	"timetrack/pkg/notification"
	queueasynq "timetrack/pkg/queue/asynq"
	mysqlstore "timetrack/pkg/store/mysql"
	redisstore "timetrack/pkg/store/redis"
)

// initConfig initializes configuration
func (app *Application) initConfig() error {
	if err := config.Init(); err != nil {
		return err
	}
	app.config = config.GlobalConfig
	return nil
}

// initLogger initializes logging
func (app *Application) initLogger() error {
	if err := logger.Init(); err != nil {
		return err
	}
	app.registerCleanup(func() {
		_ = logger.Sync()
		logger.InfoCtx(app.ctx, "Logging system has been closed")
	})
	return nil
}

// initClock resolves the configured timezone used for "today" and "now"
func (app *Application) initClock() error {
	clk, err := clock.RealInZone(app.config.Server.Timezone)
	if err != nil {
		return err
	}
	app.clock = clk
	return nil
}

// initDatabase initializes MySQL or the embedded SQLite store
func (app *Application) initDatabase() error {
	repo, err := mysqlstore.NewRepository(app.ctx, app.config.Database, app.clock.Now)
	if err != nil {
		return err
	}

	app.mysqlRepo = repo
	app.registerCleanup(func() {
		_ = repo.Close()
		logger.InfoCtx(app.ctx, "Database connection has been closed")
	})

	logger.InfoCtx(app.ctx, "Database driver: %s", repo.GetDatastore().Driver())
	return nil
}

// initRedis initializes Redis; without it locks and paused hints stay in process
func (app *Application) initRedis() error {
	if !app.config.Redis.Enabled {
		logger.WarnCtx(app.ctx, "Redis disabled, running in single-instance mode")
		return nil
	}

	client, err := redisstore.NewRedisClient(app.ctx, app.config.Redis)
	if err != nil {
		return err
	}

	app.redisClient = client
	app.registerCleanup(func() {
		_ = client.Close()
		logger.InfoCtx(app.ctx, "Redis connection has been closed")
	})

	return nil
}

// initLocks initializes the per-owner lock and the paused hint store
func (app *Application) initLocks() error {
	app.ownerLock = lock.NewOwnerLock(app.redisClient.GetClient(), app.config.Lock)
	app.pausedRepo = redisstore.NewPausedRepository(app.redisClient)
	return nil
}

// initQueue initializes the asynq client; the server only runs when queue.enabled
func (app *Application) initQueue() error {
	if !app.config.Redis.Enabled {
		logger.WarnCtx(app.ctx, "Redis disabled, feedback emails are unavailable")
		return nil
	}

	mgr, err := queueasynq.NewManager(app.config.Redis, app.config.Queue)
	if err != nil {
		return err
	}

	app.queueMgr = mgr
	app.registerCleanup(func() {
		_ = mgr.Close()
		logger.InfoCtx(app.ctx, "Queue client has been closed")
	})
	return nil
}

// initServices initializes service layer
func (app *Application) initServices() error {
	policy := model.ParseOvernightPolicy(app.config.Intervals.OvernightPolicy)
	logger.InfoCtx(app.ctx, "Overnight interval policy: %s", policy)

	app.aggregationService = service.NewAggregationService(app.mysqlRepo, app.ownerLock, app.clock)
	app.counterService = service.NewCounterService(app.mysqlRepo, app.aggregationService, app.pausedRepo, app.ownerLock)
	app.lifecycleService = service.NewLifecycleService(
		app.mysqlRepo,
		app.aggregationService,
		app.pausedRepo,
		app.ownerLock,
		app.clock,
		policy,
	)
	app.intervalService = service.NewIntervalService(app.mysqlRepo, app.aggregationService, app.ownerLock, app.clock, policy)
	app.reportService = service.NewReportService(
		app.mysqlRepo,
		app.aggregationService,
		app.pausedRepo,
		app.clock,
		app.config.Intervals.HistoryPageSize,
	)

	// a nil *Manager must not become a non-nil interface
	var queue service.TaskQueue
	if app.queueMgr != nil {
		queue = app.queueMgr
	}
	app.feedbackService = service.NewFeedbackService(app.mysqlRepo, queue, app.clock)

	return nil
}

// initQueueHandlers registers task handlers on the queue server
func (app *Application) initQueueHandlers() error {
	if app.queueMgr == nil || !app.config.Queue.Enabled {
		return nil
	}

	emailHandler := service.NewFeedbackEmailHandler(
		app.mysqlRepo,
		notification.NewSMTPMailer(app.config.Notification.SMTP),
		notification.NewFeishuNotifier(app.config.Notification.FeishuWebhookURL),
		app.clock,
	)
	app.queueMgr.RegisterHandler(model.TaskTypeFeedbackEmail, emailHandler)
	return nil
}

// initHandlers initializes handler layer
func (app *Application) initHandlers() error {
	app.counterHandler = handler.NewCounterHandler(
		app.counterService,
		app.lifecycleService,
		app.intervalService,
		app.reportService,
	)
	app.intervalHandler = handler.NewIntervalHandler(app.intervalService)
	app.reportHandler = handler.NewReportHandler(app.reportService, app.aggregationService)
	app.feedbackHandler = handler.NewFeedbackHandler(app.feedbackService)
	return nil
}

// initHTTPServer initializes HTTP server
func (app *Application) initHTTPServer() error {
	gin.SetMode(app.config.Server.Mode)
	app.ginEngine = gin.New()

	r := router.NewRouter(
		app.counterHandler,
		app.intervalHandler,
		app.reportHandler,
		app.feedbackHandler,
		app.config.Server.APIKey,
	)
	r.Setup(app.ginEngine)

	app.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           app.ginEngine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}
