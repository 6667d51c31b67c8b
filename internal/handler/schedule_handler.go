package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reservalo/agenda-api/internal/dto"
	"github.com/reservalo/agenda-api/internal/models"
	appErrors "github.com/reservalo/agenda-api/pkg/errors"
	"github.com/reservalo/agenda-api/pkg/response"
)

type scheduleService interface {
	Get(ctx context.Context) (*dto.ScheduleView, error)
	Update(ctx context.Context, req models.ScheduleUpdate) (*dto.ScheduleView, error)
	BlockDate(ctx context.Context, req dto.BlockDateRequest) (*models.BlockedDate, error)
	UnblockDate(ctx context.Context, date string, meta dto.RequestMeta) error
}

// ScheduleHandler manages the working-schedule endpoints.
type ScheduleHandler struct {
	service scheduleService
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(service scheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

// Get godoc
// @Summary Current schedule
// @Description Public view of the working schedule: window, slot duration, working days, blocked dates
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	view, err := h.service.Get(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, view, nil)
}

// Update godoc
// @Summary Replace schedule
// @Description Replace the bookable window, slot duration and working days
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body models.ScheduleUpdate true "Schedule payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedule [put]
func (h *ScheduleHandler) Update(c *gin.Context) {
	var req models.ScheduleUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	view, err := h.service.Update(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, view, nil)
}

// BlockDate godoc
// @Summary Block a date
// @Description Close one calendar date for bookings regardless of weekday
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body dto.BlockDateRequest true "Date to block"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedule/blocked-dates [post]
func (h *ScheduleHandler) BlockDate(c *gin.Context) {
	var req dto.BlockDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid blocked-date payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	blocked, err := h.service.BlockDate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, blocked)
}

// UnblockDate godoc
// @Summary Unblock a date
// @Tags Schedule
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /schedule/blocked-dates/{date} [delete]
func (h *ScheduleHandler) UnblockDate(c *gin.Context) {
	meta := dto.RequestMeta{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
	if err := h.service.UnblockDate(c.Request.Context(), c.Param("date"), meta); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
