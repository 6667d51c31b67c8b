package dto

import "github.com/reservalo/agenda-api/internal/models"

// ReportRequest captures POST /reports payload.
type ReportRequest struct {
	DateFrom  string                `json:"date_from" validate:"required"`
	DateTo    string                `json:"date_to" validate:"required"`
	Status    *models.BookingStatus `json:"status,omitempty"`
	Format    models.ReportFormat   `json:"format" validate:"required"`
	IP        string                `json:"-"`
	UserAgent string                `json:"-"`
}

// ReportJobResponse is returned after enqueueing a report.
type ReportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ReportStatusResponse exposes job progress metadata.
type ReportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ReportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"result_url,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
