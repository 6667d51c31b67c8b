package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reservalo/agenda-api/internal/models"
)

func newBookingRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func bookingRows(bookings ...models.Booking) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "customer_name", "contact_phone", "service_label", "date", "time", "duration_minutes", "status", "notes", "created_at", "updated_at"})
	for _, b := range bookings {
		rows.AddRow(b.ID, b.CustomerName, b.ContactPhone, b.ServiceLabel, b.Date, b.Time, b.DurationMinutes, b.Status, b.Notes, b.CreatedAt, b.UpdatedAt)
	}
	return rows
}

func TestBookingRepositoryListWithFilters(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	status := models.BookingStatusConfirmed
	mock.ExpectQuery("SELECT id, customer_name, .+ FROM bookings WHERE 1=1 AND date >= \\$1 AND date <= \\$2 AND status = \\$3 ORDER BY date ASC, time ASC LIMIT 20 OFFSET 0").
		WithArgs("2026-03-01", "2026-03-31", status).
		WillReturnRows(bookingRows(models.Booking{ID: "b-1", CustomerName: "Ana", Date: "2026-03-02", Time: "09:00", DurationMinutes: 60, Status: status}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM bookings WHERE 1=1 AND date >= $1 AND date <= $2 AND status = $3")).
		WithArgs("2026-03-01", "2026-03-31", status).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	bookings, total, err := repo.List(context.Background(), models.BookingFilter{
		DateFrom: "2026-03-01",
		DateTo:   "2026-03-31",
		Status:   &status,
	})
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "b-1", bookings[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryListByDate(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectQuery("SELECT id, customer_name, .+ FROM bookings WHERE date = \\$1 ORDER BY time ASC").
		WithArgs("2026-03-02").
		WillReturnRows(bookingRows(
			models.Booking{ID: "b-1", CustomerName: "Ana", Date: "2026-03-02", Time: "09:00", DurationMinutes: 60, Status: models.BookingStatusConfirmed},
			models.Booking{ID: "b-2", CustomerName: "Bia", Date: "2026-03-02", Time: "10:00", DurationMinutes: 60, Status: models.BookingStatusCancelled},
		))

	bookings, err := repo.ListByDate(context.Background(), "2026-03-02")
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectQuery("SELECT id, customer_name, .+ FROM bookings WHERE id = \\$1").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCreateForDate(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext('bookings:' || $1))")).
		WithArgs("2026-03-02").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, customer_name, .+ FROM bookings WHERE date = \\$1 ORDER BY time ASC").
		WithArgs("2026-03-02").
		WillReturnRows(bookingRows(models.Booking{ID: "b-1", CustomerName: "Ana", Date: "2026-03-02", Time: "08:00", DurationMinutes: 60, Status: models.BookingStatusConfirmed}))
	mock.ExpectExec("INSERT INTO bookings").
		WithArgs("b-2", "Bia", nil, nil, "2026-03-02", "09:00", 60, models.BookingStatusConfirmed, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	var seen []models.Booking
	created, err := repo.CreateForDate(context.Background(), "2026-03-02", func(existing []models.Booking) (*models.Booking, error) {
		seen = existing
		now := time.Now().UTC()
		return &models.Booking{
			ID:              "b-2",
			CustomerName:    "Bia",
			Date:            "2026-03-02",
			Time:            "09:00",
			DurationMinutes: 60,
			Status:          models.BookingStatusConfirmed,
			CreatedAt:       now,
			UpdatedAt:       now,
		}, nil
	})
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, "b-1", seen[0].ID)
	assert.Equal(t, "b-2", created.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCreateForDateDecisionError(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext('bookings:' || $1))")).
		WithArgs("2026-03-02").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, customer_name, .+ FROM bookings WHERE date = \\$1 ORDER BY time ASC").
		WithArgs("2026-03-02").
		WillReturnRows(bookingRows())
	mock.ExpectRollback()

	wantErr := errors.New("outside window")
	_, err := repo.CreateForDate(context.Background(), "2026-03-02", func([]models.Booking) (*models.Booking, error) {
		return nil, wantErr
	})
	require.ErrorIs(t, err, wantErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryDeleteNotFound(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectExec("DELETE FROM bookings WHERE id = \\$1").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryListForRange(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	status := models.BookingStatusPending
	mock.ExpectQuery("SELECT id, customer_name, .+ FROM bookings WHERE date >= \\$1 AND date <= \\$2 AND status = \\$3 ORDER BY date ASC, time ASC").
		WithArgs("2026-03-01", "2026-03-31", status).
		WillReturnRows(bookingRows(models.Booking{ID: "b-3", CustomerName: "Caio", Date: "2026-03-05", Time: "11:00", DurationMinutes: 30, Status: status}))

	bookings, err := repo.ListForRange(context.Background(), "2026-03-01", "2026-03-31", &status)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
