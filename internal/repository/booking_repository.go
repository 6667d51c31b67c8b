package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/reservalo/agenda-api/internal/models"
)

const bookingColumns = `id, customer_name, contact_phone, service_label, date, time, duration_minutes, status, notes, created_at, updated_at`

// BookingRepository manages persistence for bookings.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs a BookingRepository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// List returns bookings matching filters along with total count.
func (r *BookingRepository) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error) {
	base := "FROM bookings WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.DateFrom != "" {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, filter.DateFrom)
	}
	if filter.DateTo != "" {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, filter.DateTo)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(customer_name) LIKE $%d OR LOWER(COALESCE(contact_phone, '')) LIKE $%d OR LOWER(COALESCE(service_label, '')) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, search)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "date"
	}
	allowedSorts := map[string]string{
		"date":          "date",
		"time":          "time",
		"customer_name": "customer_name",
		"status":        "status",
		"created_at":    "created_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "date"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, time ASC LIMIT %d OFFSET %d", bookingColumns, base, column, order, size, offset)
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	return bookings, total, nil
}

// ListByDate returns every booking on the given date, all statuses included.
func (r *BookingRepository) ListByDate(ctx context.Context, date string) ([]models.Booking, error) {
	query := fmt.Sprintf("SELECT %s FROM bookings WHERE date = $1 ORDER BY time ASC", bookingColumns)
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, date); err != nil {
		return nil, fmt.Errorf("list bookings by date: %w", err)
	}
	return bookings, nil
}

// FindByID fetches a booking by ID.
func (r *BookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	query := fmt.Sprintf("SELECT %s FROM bookings WHERE id = $1", bookingColumns)
	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

// CreateForDate runs the booking decision inside one transaction serialized
// per date. An advisory lock keyed on the date guarantees two concurrent
// requests for the same date cannot both read a collision-free snapshot:
// the decide callback sees every booking already committed for that date,
// and its result is inserted before the lock is released.
func (r *BookingRepository) CreateForDate(ctx context.Context, date string, decide func(existing []models.Booking) (*models.Booking, error)) (*models.Booking, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin booking tx: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext('bookings:' || $1))`, date); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("lock booking date: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM bookings WHERE date = $1 ORDER BY time ASC", bookingColumns)
	var existing []models.Booking
	if err := tx.SelectContext(ctx, &existing, query, date); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("snapshot bookings for date: %w", err)
	}

	booking, err := decide(existing)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	const insert = `INSERT INTO bookings (id, customer_name, contact_phone, service_label, date, time, duration_minutes, status, notes, created_at, updated_at)
VALUES (:id, :customer_name, :contact_phone, :service_label, :date, :time, :duration_minutes, :status, :notes, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insert, booking); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("insert booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit booking tx: %w", err)
	}
	return booking, nil
}

// Update persists the full booking row.
func (r *BookingRepository) Update(ctx context.Context, booking *models.Booking) error {
	booking.UpdatedAt = time.Now().UTC()
	const query = `UPDATE bookings SET customer_name = :customer_name, contact_phone = :contact_phone, service_label = :service_label,
date = :date, time = :time, duration_minutes = :duration_minutes, status = :status, notes = :notes, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, booking); err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	return nil
}

// Delete removes a booking row.
func (r *BookingRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete booking result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListForRange returns bookings between two dates inclusive, for exports.
func (r *BookingRepository) ListForRange(ctx context.Context, dateFrom, dateTo string, status *models.BookingStatus) ([]models.Booking, error) {
	query := fmt.Sprintf("SELECT %s FROM bookings WHERE date >= $1 AND date <= $2", bookingColumns)
	args := []interface{}{dateFrom, dateTo}
	if status != nil {
		query += " AND status = $3"
		args = append(args, *status)
	}
	query += " ORDER BY date ASC, time ASC"

	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("list bookings for range: %w", err)
	}
	return bookings, nil
}
