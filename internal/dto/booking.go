package dto

import "github.com/reservalo/agenda-api/internal/models"

// CreateBookingRequest captures POST /bookings payload. Presence and value
// checks run in the booking decision flow so rejections carry specific codes
// such as MISSING_FIELD or OUTSIDE_WINDOW.
type CreateBookingRequest struct {
	CustomerName    string `json:"customer_name"`
	ContactPhone    string `json:"contact_phone"`
	ServiceLabel    string `json:"service_label"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	DurationMinutes int    `json:"duration_minutes"`
	AutoConfirm     *bool  `json:"auto_confirm"`
	IP              string `json:"-"`
	UserAgent       string `json:"-"`
}

// UpdateBookingRequest captures PATCH /bookings/:id payload. Nil fields keep
// their stored values.
type UpdateBookingRequest struct {
	CustomerName    *string               `json:"customer_name"`
	ContactPhone    *string               `json:"contact_phone"`
	ServiceLabel    *string               `json:"service_label"`
	Date            *string               `json:"date"`
	Time            *string               `json:"time"`
	DurationMinutes *int                  `json:"duration_minutes"`
	Status          *models.BookingStatus `json:"status"`
	Notes           *string               `json:"notes"`
	IP              string                `json:"-"`
	UserAgent       string                `json:"-"`
}

// RequestMeta carries client metadata for operations without a body.
type RequestMeta struct {
	IP        string
	UserAgent string
}
