package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"timetrack/app/handler"
	"timetrack/app/middleware"
)

// Router Router
type Router struct {
	counterHandler  *handler.CounterHandler
	intervalHandler *handler.IntervalHandler
	reportHandler   *handler.ReportHandler
	feedbackHandler *handler.FeedbackHandler
	apiKey          string
}

// NewRouter creates a new Router; an empty apiKey disables the bearer key check
func NewRouter(
	counterHandler *handler.CounterHandler,
	intervalHandler *handler.IntervalHandler,
	reportHandler *handler.ReportHandler,
	feedbackHandler *handler.FeedbackHandler,
	apiKey string,
) *Router {
	return &Router{
		counterHandler:  counterHandler,
		intervalHandler: intervalHandler,
		reportHandler:   reportHandler,
		feedbackHandler: feedbackHandler,
		apiKey:          apiKey,
	}
}

// Setup sets up routes
func (r *Router) Setup(engine *gin.Engine) {
	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger())

	v1 := engine.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(r.apiKey))
	{
		counters := v1.Group("/counters")
		{
			counters.GET("", r.counterHandler.List)
			counters.POST("", r.counterHandler.Create)
			counters.GET("/:id", r.counterHandler.Get)
			counters.PUT("/:id", r.counterHandler.Update)
			counters.DELETE("/:id", r.counterHandler.Delete)
			counters.GET("/:id/state", r.counterHandler.State)

			// Lifecycle
			counters.POST("/:id/start", r.counterHandler.Start)
			counters.POST("/:id/pause", r.counterHandler.Pause)
			counters.POST("/:id/stop", r.counterHandler.Stop)
			counters.POST("/:id/resume", r.counterHandler.Resume)

			counters.GET("/:id/history", r.counterHandler.History)
			counters.POST("/:id/intervals", r.counterHandler.CreateInterval)
		}

		intervals := v1.Group("/intervals")
		{
			intervals.GET("/:id", r.intervalHandler.Get)
			intervals.PUT("/:id", r.intervalHandler.Update)
			intervals.DELETE("/:id", r.intervalHandler.Delete)
		}

		v1.GET("/dashboard", r.reportHandler.Dashboard)
		v1.GET("/summary", r.reportHandler.Summary)
		v1.GET("/daily-summaries", r.reportHandler.DailySummaries)
		v1.POST("/daily-summaries/rebuild", r.reportHandler.RebuildDailySummaries)

		feedback := v1.Group("/feedback")
		{
			feedback.POST("", r.feedbackHandler.SendFeedback)
			feedback.GET("/status", r.feedbackHandler.FeedbackStatus)
			feedback.GET("/rating", r.feedbackHandler.RatingStats)
			feedback.POST("/rating", r.feedbackHandler.Rate)
		}
	}

	// Health check
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
