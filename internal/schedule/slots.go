package schedule

import (
	appErrors "github.com/reservalo/agenda-api/pkg/errors"

	"github.com/reservalo/agenda-api/internal/models"
)

// Overlaps reports whether the half-open intervals [startA, startA+durA) and
// [startB, startB+durB) intersect, all values in minutes since midnight.
// Touching intervals do not overlap. This is the single overlap primitive for
// both availability annotation and collision detection.
func Overlaps(startA, durA, startB, durB int) bool {
	return max(startA, startB) < min(startA+durA, startB+durB)
}

type interval struct {
	start, dur int
}

// activeIntervals collects the occupied minute intervals for a date.
// Cancelled bookings never occupy their interval. Stored booking times are
// validated at write time, so unparsable rows are skipped.
func activeIntervals(date string, bookings []models.Booking) []interval {
	var out []interval
	for _, b := range bookings {
		if b.Date != date || !b.Active() {
			continue
		}
		start, err := ToMinutes(b.Time)
		if err != nil || b.DurationMinutes <= 0 {
			continue
		}
		out = append(out, interval{start: start, dur: b.DurationMinutes})
	}
	return out
}

func overlapsAny(start, dur int, occupied []interval) bool {
	for _, iv := range occupied {
		if Overlaps(start, dur, iv.start, iv.dur) {
			return true
		}
	}
	return false
}

// CollidesWithActive reports whether the interval collides with any active
// booking on the date. selfID excludes the booking being edited so it never
// collides with itself; pass "" when deciding a new booking.
func CollidesWithActive(date string, startMin, durationMinutes int, selfID string, bookings []models.Booking) bool {
	for _, b := range bookings {
		if b.ID == selfID && selfID != "" {
			continue
		}
		if b.Date != date || !b.Active() {
			continue
		}
		otherStart, err := ToMinutes(b.Time)
		if err != nil || b.DurationMinutes <= 0 {
			continue
		}
		if Overlaps(startMin, durationMinutes, otherStart, b.DurationMinutes) {
			return true
		}
	}
	return false
}

// BuildDaySlots produces the ordered slot sequence for a date, each slot
// annotated with availability against the supplied bookings. Pure function
// of its inputs.
func BuildDaySlots(date string, cfg models.ScheduleConfig, bookings []models.Booking) (models.DaySlots, error) {
	day, err := ParseDate(date)
	if err != nil {
		return models.DaySlots{}, err
	}

	out := models.DaySlots{Date: date, Slots: []models.Slot{}}

	if _, blocked := cfg.BlockedOn(date); blocked {
		out.Reason = models.ReasonBlocked
		return out, nil
	}
	if !cfg.WorksOn(int(day.Weekday())) {
		out.Reason = models.ReasonNoServiceDay
		return out, nil
	}

	startMin, err := ToMinutes(cfg.StartTime)
	if err != nil {
		return models.DaySlots{}, err
	}
	endMin, err := ToMinutes(cfg.EndTime)
	if err != nil {
		return models.DaySlots{}, err
	}
	duration := cfg.DefaultDurationMinutes
	if duration <= 0 {
		return models.DaySlots{}, appErrors.Clone(appErrors.ErrValidation, "slot duration must be positive")
	}

	occupied := activeIntervals(date, bookings)

	for t := startMin; t+duration <= endMin; t += duration {
		out.Slots = append(out.Slots, models.Slot{
			Time:            FromMinutes(t),
			DurationMinutes: duration,
			Available:       !overlapsAny(t, duration, occupied),
		})
	}

	return out, nil
}
