package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/reservalo/agenda-api/pkg/errors"

	"github.com/reservalo/agenda-api/internal/models"
)

// BookingRequest is a proposed booking prior to validation.
type BookingRequest struct {
	CustomerName    string
	ContactPhone    string
	ServiceLabel    string
	Date            string
	Time            string
	DurationMinutes int
	// AutoConfirm nil means true. False forces manual review: the booking is
	// created as pending regardless of collisions.
	AutoConfirm *bool
}

// Decision is the outcome of validating a booking request. A valid request
// always yields a booking; a collision never rejects it, it only downgrades
// the status to pending for the administrator to resolve.
type Decision struct {
	Booking      models.Booking
	HadCollision bool
}

// DecideBooking validates the request against the schedule and the existing
// bookings and constructs the booking record. Pure except for ID generation.
func DecideBooking(req BookingRequest, cfg models.ScheduleConfig, existing []models.Booking, now time.Time) (Decision, error) {
	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		return Decision{}, missingField("customer_name")
	}
	if req.Date == "" {
		return Decision{}, missingField("date")
	}
	if req.Time == "" {
		return Decision{}, missingField("time")
	}

	duration := req.DurationMinutes
	if duration <= 0 {
		duration = cfg.DefaultDurationMinutes
	}

	day, err := ParseDate(req.Date)
	if err != nil {
		return Decision{}, err
	}
	if _, blocked := cfg.BlockedOn(req.Date); blocked {
		return Decision{}, appErrors.Clone(appErrors.ErrDateBlocked, fmt.Sprintf("date %s is blocked for bookings", req.Date))
	}
	if !cfg.WorksOn(int(day.Weekday())) {
		return Decision{}, appErrors.Clone(appErrors.ErrNonWorkingDay, fmt.Sprintf("no service on %s", day.Weekday()))
	}

	start, err := ToMinutes(req.Time)
	if err != nil {
		return Decision{}, err
	}
	windowStart, err := ToMinutes(cfg.StartTime)
	if err != nil {
		return Decision{}, err
	}
	windowEnd, err := ToMinutes(cfg.EndTime)
	if err != nil {
		return Decision{}, err
	}
	if start < windowStart || start+duration > windowEnd {
		return Decision{}, appErrors.Clone(appErrors.ErrOutsideWindow,
			fmt.Sprintf("time %s with duration %d minutes falls outside the %s-%s window", req.Time, duration, cfg.StartTime, cfg.EndTime))
	}

	hadCollision := CollidesWithActive(req.Date, start, duration, "", existing)

	status := models.BookingStatusConfirmed
	if (req.AutoConfirm != nil && !*req.AutoConfirm) || hadCollision {
		status = models.BookingStatusPending
	}

	booking := models.Booking{
		ID:              uuid.NewString(),
		CustomerName:    name,
		Date:            req.Date,
		Time:            req.Time,
		DurationMinutes: duration,
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if phone := strings.TrimSpace(req.ContactPhone); phone != "" {
		booking.ContactPhone = &phone
	}
	if label := strings.TrimSpace(req.ServiceLabel); label != "" {
		booking.ServiceLabel = &label
	}

	return Decision{Booking: booking, HadCollision: hadCollision}, nil
}

// ValidateConfig checks a schedule configuration for internal consistency.
func ValidateConfig(cfg models.ScheduleConfig) error {
	start, err := ToMinutes(cfg.StartTime)
	if err != nil {
		return err
	}
	end, err := ToMinutes(cfg.EndTime)
	if err != nil {
		return err
	}
	if start >= end {
		return appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("start time %s must be before end time %s", cfg.StartTime, cfg.EndTime))
	}
	if cfg.DefaultDurationMinutes <= 0 || cfg.DefaultDurationMinutes > end-start {
		return appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("slot duration %d must be positive and fit the working window", cfg.DefaultDurationMinutes))
	}
	seen := make(map[int]struct{}, len(cfg.WorkingDays))
	for _, d := range cfg.WorkingDays {
		if d < 0 || d > 6 {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("working day %d outside 0-6", d))
		}
		if _, dup := seen[int(d)]; dup {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("working day %d repeated", d))
		}
		seen[int(d)] = struct{}{}
	}
	for _, b := range cfg.BlockedDates {
		if _, err := ParseDate(b.Date); err != nil {
			return err
		}
	}
	return nil
}

func missingField(field string) error {
	return appErrors.Clone(appErrors.ErrMissingField, fmt.Sprintf("field %s is required", field))
}
