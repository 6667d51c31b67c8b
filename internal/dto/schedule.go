package dto

import (
	"time"

	"github.com/reservalo/agenda-api/internal/models"
)

// ScheduleView is the public projection of the schedule configuration. The
// admin secret hash never leaves the service layer.
type ScheduleView struct {
	StartTime              string               `json:"start_time"`
	EndTime                string               `json:"end_time"`
	DefaultDurationMinutes int                  `json:"default_duration_minutes"`
	WorkingDays            []int                `json:"working_days"`
	BlockedDates           []models.BlockedDate `json:"blocked_dates"`
	UpdatedAt              time.Time            `json:"updated_at"`
}

// BlockDateRequest marks a date unavailable for booking.
type BlockDateRequest struct {
	Date      string  `json:"date" validate:"required"`
	Reason    *string `json:"reason,omitempty"`
	IP        string  `json:"-"`
	UserAgent string  `json:"-"`
}
