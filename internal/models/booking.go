package models

import "time"

// BookingStatus captures the booking lifecycle state.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled:
		return true
	}
	return false
}

// Booking is a customer's claim on a time interval. Cancelled bookings are
// kept as records but never count toward overlap checks.
type Booking struct {
	ID              string        `db:"id" json:"id"`
	CustomerName    string        `db:"customer_name" json:"customer_name"`
	ContactPhone    *string       `db:"contact_phone" json:"contact_phone,omitempty"`
	ServiceLabel    *string       `db:"service_label" json:"service_label,omitempty"`
	Date            string        `db:"date" json:"date"`
	Time            string        `db:"time" json:"time"`
	DurationMinutes int           `db:"duration_minutes" json:"duration_minutes"`
	Status          BookingStatus `db:"status" json:"status"`
	Notes           *string       `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

// Active reports whether the booking occupies its interval.
func (b Booking) Active() bool {
	return b.Status != BookingStatusCancelled
}

// BookingFilter captures filtering criteria for listing bookings.
type BookingFilter struct {
	DateFrom  string
	DateTo    string
	Status    *BookingStatus
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
