package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"timetrack/internal/model"
	"timetrack/internal/service"
	"timetrack/pkg/logger"
)

// CounterHandler handles counters and their lifecycle
type CounterHandler struct {
	counterService   *service.CounterService
	lifecycleService *service.LifecycleService
	intervalService  *service.IntervalService
	reportService    *service.ReportService
}

// NewCounterHandler creates counter handler
func NewCounterHandler(
	counterService *service.CounterService,
	lifecycleService *service.LifecycleService,
	intervalService *service.IntervalService,
	reportService *service.ReportService,
) *CounterHandler {
	return &CounterHandler{
		counterService:   counterService,
		lifecycleService: lifecycleService,
		intervalService:  intervalService,
		reportService:    reportService,
	}
}

// List lists counters
// @Summary List counters
// @Description List the caller's counters ordered by name
// @Tags counters
// @Produce json
// @Success 200 {array} model.Counter
// @Router /api/v1/counters [get]
func (h *CounterHandler) List(c *gin.Context) {
	counters, err := h.counterService.List(c.Request.Context(), ownerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, counters)
}

// Create creates a counter
// @Summary Create counter
// @Tags counters
// @Accept json
// @Produce json
// @Param request body model.CreateCounterRequest true "Counter"
// @Success 201 {object} model.Counter
// @Router /api/v1/counters [post]
func (h *CounterHandler) Create(c *gin.Context) {
	var req model.CreateCounterRequest
	if !bindJSON(c, &req) {
		return
	}

	counter, err := h.counterService.Create(c.Request.Context(), ownerID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.InfoCtx(c.Request.Context(), "counter created, id: %d, slug: %s", counter.ID, counter.Slug)
	c.JSON(http.StatusCreated, counter)
}

// Get gets a counter
// @Summary Get counter
// @Tags counters
// @Produce json
// @Param id path int true "Counter ID"
// @Success 200 {object} model.Counter
// @Router /api/v1/counters/{id} [get]
func (h *CounterHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	counter, err := h.counterService.Get(c.Request.Context(), ownerID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, counter)
}

// Update renames or recolors a counter
// @Summary Update counter
// @Tags counters
// @Accept json
// @Produce json
// @Param id path int true "Counter ID"
// @Param request body model.UpdateCounterRequest true "Changes"
// @Success 200 {object} model.Counter
// @Router /api/v1/counters/{id} [put]
func (h *CounterHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateCounterRequest
	if !bindJSON(c, &req) {
		return
	}

	counter, err := h.counterService.Update(c.Request.Context(), ownerID(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, counter)
}

// Delete deletes a counter with its intervals
// @Summary Delete counter
// @Tags counters
// @Param id path int true "Counter ID"
// @Success 200 {object} map[string]string
// @Router /api/v1/counters/{id} [delete]
func (h *CounterHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.counterService.Delete(c.Request.Context(), ownerID(c), id); err != nil {
		respondError(c, err)
		return
	}

	logger.InfoCtx(c.Request.Context(), "counter deleted, id: %d", id)
	c.JSON(http.StatusOK, gin.H{"message": "counter deleted"})
}

// State returns the counter's lifecycle state
// @Summary Counter state
// @Tags counters
// @Produce json
// @Param id path int true "Counter ID"
// @Success 200 {object} model.CounterStatus
// @Router /api/v1/counters/{id}/state [get]
func (h *CounterHandler) State(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	status, err := h.lifecycleService.State(c.Request.Context(), ownerID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Start opens an interval on the counter
// @Summary Start counter
// @Tags lifecycle
// @Produce json
// @Param id path int true "Counter ID"
// @Success 201 {object} model.Interval
// @Router /api/v1/counters/{id}/start [post]
func (h *CounterHandler) Start(c *gin.Context) {
	h.open(c, "started", h.lifecycleService.Start)
}

// Resume reopens a paused counter
// @Summary Resume counter
// @Tags lifecycle
// @Produce json
// @Param id path int true "Counter ID"
// @Success 201 {object} model.Interval
// @Router /api/v1/counters/{id}/resume [post]
func (h *CounterHandler) Resume(c *gin.Context) {
	h.open(c, "resumed", h.lifecycleService.Resume)
}

// Pause closes the open interval and marks the counter paused
// @Summary Pause counter
// @Tags lifecycle
// @Produce json
// @Param id path int true "Counter ID"
// @Success 200 {array} model.Interval
// @Router /api/v1/counters/{id}/pause [post]
func (h *CounterHandler) Pause(c *gin.Context) {
	h.close(c, "paused", h.lifecycleService.Pause)
}

// Stop closes the open interval
// @Summary Stop counter
// @Tags lifecycle
// @Produce json
// @Param id path int true "Counter ID"
// @Success 200 {array} model.Interval
// @Router /api/v1/counters/{id}/stop [post]
func (h *CounterHandler) Stop(c *gin.Context) {
	h.close(c, "stopped", h.lifecycleService.Stop)
}

type openFunc func(ctx context.Context, ownerID, counterID int64) (*model.Interval, error)

type closeFunc func(ctx context.Context, ownerID, counterID int64) ([]*model.Interval, error)

func (h *CounterHandler) open(c *gin.Context, action string, fn openFunc) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	interval, err := fn(c.Request.Context(), ownerID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.InfoCtx(c.Request.Context(), "counter %s, counter_id: %d, interval_id: %d", action, id, interval.ID)
	c.JSON(http.StatusCreated, interval)
}

func (h *CounterHandler) close(c *gin.Context, action string, fn closeFunc) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	intervals, err := fn(c.Request.Context(), ownerID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.InfoCtx(c.Request.Context(), "counter %s, counter_id: %d, slices: %d", action, id, len(intervals))
	c.JSON(http.StatusOK, intervals)
}

// History lists the counter's intervals page by page
// @Summary Counter history
// @Tags counters
// @Produce json
// @Param id path int true "Counter ID"
// @Param start query string false "First day (YYYY-MM-DD)"
// @Param end query string false "Last day (YYYY-MM-DD)"
// @Param page query int false "Page number"
// @Success 200 {object} model.HistoryPage
// @Router /api/v1/counters/{id}/history [get]
func (h *CounterHandler) History(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	page, err := h.reportService.History(c.Request.Context(), ownerID(c), id,
		c.Query("start"), c.Query("end"), c.Query("page"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// CreateInterval records a finished interval by hand
// @Summary Create manual interval
// @Tags intervals
// @Accept json
// @Produce json
// @Param id path int true "Counter ID"
// @Param request body model.CreateIntervalRequest true "Interval"
// @Success 201 {object} model.Interval
// @Router /api/v1/counters/{id}/intervals [post]
func (h *CounterHandler) CreateInterval(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.CreateIntervalRequest
	if !bindJSON(c, &req) {
		return
	}

	interval, err := h.intervalService.CreateManual(c.Request.Context(), ownerID(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, interval)
}
