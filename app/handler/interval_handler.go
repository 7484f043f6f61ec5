package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"timetrack/internal/model"
	"timetrack/internal/service"
	"timetrack/pkg/logger"
)

// IntervalHandler handles single interval edits
type IntervalHandler struct {
	intervalService *service.IntervalService
}

// NewIntervalHandler creates interval handler
func NewIntervalHandler(intervalService *service.IntervalService) *IntervalHandler {
	return &IntervalHandler{intervalService: intervalService}
}

// Get gets an interval
// @Summary Get interval
// @Tags intervals
// @Produce json
// @Param id path int true "Interval ID"
// @Success 200 {object} model.Interval
// @Router /api/v1/intervals/{id} [get]
func (h *IntervalHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	interval, err := h.intervalService.Get(c.Request.Context(), ownerID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, interval)
}

// Update edits day, start or end of an interval
// @Summary Update interval
// @Tags intervals
// @Accept json
// @Produce json
// @Param id path int true "Interval ID"
// @Param request body model.UpdateIntervalRequest true "Changes"
// @Success 200 {object} model.Interval
// @Router /api/v1/intervals/{id} [put]
func (h *IntervalHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateIntervalRequest
	if !bindJSON(c, &req) {
		return
	}

	interval, err := h.intervalService.Update(c.Request.Context(), ownerID(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, interval)
}

// Delete deletes an interval
// @Summary Delete interval
// @Tags intervals
// @Param id path int true "Interval ID"
// @Success 200 {object} map[string]string
// @Router /api/v1/intervals/{id} [delete]
func (h *IntervalHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.intervalService.Delete(c.Request.Context(), ownerID(c), id); err != nil {
		respondError(c, err)
		return
	}

	logger.InfoCtx(c.Request.Context(), "interval deleted, id: %d", id)
	c.JSON(http.StatusOK, gin.H{"message": "interval deleted"})
}
