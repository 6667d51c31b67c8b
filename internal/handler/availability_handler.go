package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/reservalo/agenda-api/internal/middleware"
	"github.com/reservalo/agenda-api/internal/models"
	appErrors "github.com/reservalo/agenda-api/pkg/errors"
	"github.com/reservalo/agenda-api/pkg/response"
)

type availabilityService interface {
	Day(ctx context.Context, date string) (*models.DaySlots, bool, error)
}

// AvailabilityHandler serves the public slot board.
type AvailabilityHandler struct {
	service availabilityService
}

// NewAvailabilityHandler constructs the handler.
func NewAvailabilityHandler(service availabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

// Day godoc
// @Summary Day availability
// @Description List the bookable slots for one date
// @Tags Availability
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /availability [get]
func (h *AvailabilityHandler) Day(c *gin.Context) {
	date := strings.TrimSpace(c.Query("date"))
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date query parameter is required"))
		return
	}

	day, cached, err := h.service.Day(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetCacheHit(c, cached)
	response.JSON(c, http.StatusOK, day, nil, middleware.ExtractMeta(c))
}
