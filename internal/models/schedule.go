package models

import (
	"time"

	"github.com/lib/pq"
)

// Slot availability reasons returned when a date yields no slots.
const (
	ReasonBlocked      = "blocked"
	ReasonNoServiceDay = "no-service-day"
)

// ScheduleConfig is the provider's working-schedule policy. A single row
// backs the whole service.
type ScheduleConfig struct {
	ID                     int           `db:"id" json:"-"`
	StartTime              string        `db:"start_time" json:"start_time"`
	EndTime                string        `db:"end_time" json:"end_time"`
	DefaultDurationMinutes int           `db:"default_duration_minutes" json:"default_duration_minutes"`
	WorkingDays            pq.Int64Array `db:"working_days" json:"working_days"`
	AdminSecretHash        string        `db:"admin_secret_hash" json:"-"`
	UpdatedAt              time.Time     `db:"updated_at" json:"updated_at"`

	// BlockedDates is loaded alongside the config row, not a column.
	BlockedDates []BlockedDate `db:"-" json:"blocked_dates,omitempty"`
}

// WorksOn reports whether the weekday (0=Sunday..6=Saturday) is a service day.
func (c ScheduleConfig) WorksOn(weekday int) bool {
	for _, d := range c.WorkingDays {
		if int(d) == weekday {
			return true
		}
	}
	return false
}

// BlockedOn returns the blocked-date entry matching the date, if any.
func (c ScheduleConfig) BlockedOn(date string) (BlockedDate, bool) {
	for _, b := range c.BlockedDates {
		if b.Date == date {
			return b, true
		}
	}
	return BlockedDate{}, false
}

// BlockedDate closes a specific calendar date for bookings regardless of weekday.
type BlockedDate struct {
	Date      string    `db:"date" json:"date"`
	Reason    *string   `db:"reason" json:"reason,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Slot is one candidate interval on a date, annotated with availability.
// Slots are derived from ScheduleConfig and never persisted.
type Slot struct {
	Time            string `json:"time"`
	DurationMinutes int    `json:"duration_minutes"`
	Available       bool   `json:"available"`
}

// DaySlots is the availability projection for a single date.
type DaySlots struct {
	Date   string `json:"date"`
	Slots  []Slot `json:"slots"`
	Reason string `json:"reason,omitempty"`
}

// ScheduleUpdate carries admin changes to the working schedule.
type ScheduleUpdate struct {
	StartTime              string `json:"start_time" validate:"required"`
	EndTime                string `json:"end_time" validate:"required"`
	DefaultDurationMinutes int    `json:"default_duration_minutes" validate:"required,gt=0"`
	WorkingDays            []int  `json:"working_days" validate:"required,min=1,dive,gte=0,lte=6"`
	IP                     string `json:"-"`
	UserAgent              string `json:"-"`
}
