package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"timetrack/internal/model"
	"timetrack/internal/service"
	"timetrack/pkg/logger"
)

// ReportHandler handles dashboard and summary views
type ReportHandler struct {
	reportService      *service.ReportService
	aggregationService *service.AggregationService
}

// NewReportHandler creates report handler
func NewReportHandler(reportService *service.ReportService, aggregationService *service.AggregationService) *ReportHandler {
	return &ReportHandler{
		reportService:      reportService,
		aggregationService: aggregationService,
	}
}

// Dashboard per-day overview
// @Summary Dashboard
// @Description Per-counter totals for one day; invalid dates fall back to today
// @Tags reports
// @Produce json
// @Param date query string false "Day (YYYY-MM-DD)"
// @Success 200 {object} model.Dashboard
// @Router /api/v1/dashboard [get]
func (h *ReportHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.reportService.Dashboard(c.Request.Context(), ownerID(c), c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// Summary period rollup
// @Summary Period summary
// @Tags reports
// @Produce json
// @Param period query string false "week, month or custom"
// @Param start query string false "Custom start (YYYY-MM-DD)"
// @Param end query string false "Custom end (YYYY-MM-DD)"
// @Success 200 {object} model.SummaryView
// @Router /api/v1/summary [get]
func (h *ReportHandler) Summary(c *gin.Context) {
	view, err := h.reportService.Summary(c.Request.Context(), ownerID(c),
		c.Query("period"), c.Query("start"), c.Query("end"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// DailySummaries lists cached daily summaries
// @Summary List daily summaries
// @Tags reports
// @Produce json
// @Param from query string false "First day (YYYY-MM-DD)"
// @Param to query string false "Last day (YYYY-MM-DD)"
// @Success 200 {array} model.DailySummary
// @Router /api/v1/daily-summaries [get]
func (h *ReportHandler) DailySummaries(c *gin.Context) {
	from := queryDate(c, "from")
	to := queryDate(c, "to")

	summaries, err := h.aggregationService.ListDailySummaries(c.Request.Context(), ownerID(c), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summaries)
}

// RebuildDailySummaries recomputes the caller's summary cache from intervals
// @Summary Rebuild daily summaries
// @Tags reports
// @Produce json
// @Success 200 {array} model.DailySummary
// @Router /api/v1/daily-summaries/rebuild [post]
func (h *ReportHandler) RebuildDailySummaries(c *gin.Context) {
	owner := ownerID(c)
	summaries, err := h.aggregationService.RebuildOwner(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.InfoCtx(c.Request.Context(), "daily summaries rebuilt, user_id: %d, days: %d", owner, len(summaries))
	c.JSON(http.StatusOK, summaries)
}

// queryDate parses an optional date filter; invalid values are ignored
func queryDate(c *gin.Context, name string) *model.Date {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return nil
	}
	return &d
}
