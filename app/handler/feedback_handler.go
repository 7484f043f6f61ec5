package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"timetrack/internal/model"
	"timetrack/internal/service"
	"timetrack/pkg/logger"
)

// FeedbackHandler handles project ratings and feedback comments
type FeedbackHandler struct {
	feedbackService *service.FeedbackService
}

// NewFeedbackHandler creates feedback handler
func NewFeedbackHandler(feedbackService *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService}
}

// Rate records the caller's like or dislike
// @Summary Rate project
// @Tags feedback
// @Accept json
// @Produce json
// @Param request body model.RateRequest true "Rating"
// @Success 200 {object} model.RatingStats
// @Router /api/v1/feedback/rating [post]
func (h *FeedbackHandler) Rate(c *gin.Context) {
	var req model.RateRequest
	if !bindJSON(c, &req) {
		return
	}

	stats, err := h.feedbackService.Rate(c.Request.Context(), ownerID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// RatingStats returns like and dislike totals
// @Summary Rating totals
// @Tags feedback
// @Produce json
// @Success 200 {object} model.RatingStats
// @Router /api/v1/feedback/rating [get]
func (h *FeedbackHandler) RatingStats(c *gin.Context) {
	stats, err := h.feedbackService.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// FeedbackStatus reports delivery of the caller's last feedback email
// @Summary Feedback delivery status
// @Tags feedback
// @Produce json
// @Success 200 {object} model.FeedbackStatus
// @Router /api/v1/feedback/status [get]
func (h *FeedbackHandler) FeedbackStatus(c *gin.Context) {
	status, err := h.feedbackService.FeedbackStatus(c.Request.Context(), ownerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// SendFeedback queues a feedback email
// @Summary Send feedback
// @Description Queue a feedback comment for delivery to the team; returns once the task is enqueued
// @Tags feedback
// @Accept json
// @Produce json
// @Param request body model.FeedbackRequest true "Feedback"
// @Success 202 {object} model.FeedbackResult
// @Router /api/v1/feedback [post]
func (h *FeedbackHandler) SendFeedback(c *gin.Context) {
	var req model.FeedbackRequest
	if !bindJSON(c, &req) {
		return
	}

	owner := ownerID(c)
	result, err := h.feedbackService.SendFeedback(c.Request.Context(), owner, &req)
	if err != nil {
		if errors.Is(err, service.ErrQueueDisabled) {
			logger.WarnCtx(c.Request.Context(), "feedback rejected, queue disabled, user_id: %d", owner)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "feedback delivery is not available"})
			return
		}
		respondError(c, err)
		return
	}

	logger.InfoCtx(c.Request.Context(), "feedback queued, user_id: %d, task_id: %s", owner, result.TaskID)
	c.JSON(http.StatusAccepted, result)
}
