package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin          = "LOGIN"
	AuditActionBookingCreate  = "BOOKING_CREATE"
	AuditActionBookingUpdate  = "BOOKING_UPDATE"
	AuditActionBookingDelete  = "BOOKING_DELETE"
	AuditActionScheduleUpdate = "SCHEDULE_UPDATE"
	AuditActionSecretRotate   = "SECRET_ROTATE"
	AuditActionDateBlock      = "DATE_BLOCK"
	AuditActionDateUnblock    = "DATE_UNBLOCK"
	AuditActionReportCreate   = "REPORT_CREATE"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	Actor      string    `db:"actor" json:"actor"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AuditFilter narrows down audit log queries.
type AuditFilter struct {
	Action   string
	Resource string
	DateFrom string
	DateTo   string
	Page     int
	PageSize int
}
