package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reservalo/agenda-api/internal/models"
)

func newScheduleRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestScheduleRepositoryGetConfig(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	configRows := sqlmock.NewRows([]string{"id", "start_time", "end_time", "default_duration_minutes", "working_days", "admin_secret_hash", "updated_at"}).
		AddRow(1, "07:00", "16:00", 60, "{1,2,3,4,5}", "hash", time.Now())
	mock.ExpectQuery("SELECT id, start_time, .+ FROM schedule_config WHERE id = \\$1").
		WithArgs(1).
		WillReturnRows(configRows)

	blockedRows := sqlmock.NewRows([]string{"date", "reason", "created_at"}).
		AddRow("2026-03-09", "holiday", time.Now())
	mock.ExpectQuery("SELECT date, reason, created_at FROM blocked_dates ORDER BY date ASC").
		WillReturnRows(blockedRows)

	cfg, err := repo.GetConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "07:00", cfg.StartTime)
	assert.Equal(t, pq.Int64Array{1, 2, 3, 4, 5}, cfg.WorkingDays)
	require.Len(t, cfg.BlockedDates, 1)
	assert.Equal(t, "2026-03-09", cfg.BlockedDates[0].Date)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryUpdateConfig(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec("UPDATE schedule_config").
		WithArgs("08:00", "18:00", 30, sqlmock.AnyArg(), sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	cfg := &models.ScheduleConfig{
		StartTime:              "08:00",
		EndTime:                "18:00",
		DefaultDurationMinutes: 30,
		WorkingDays:            pq.Int64Array{1, 2, 3},
	}
	require.NoError(t, repo.UpdateConfig(context.Background(), cfg))
	assert.Equal(t, 1, cfg.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryUpdateSecretHash(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec("UPDATE schedule_config SET admin_secret_hash = \\$2").
		WithArgs(1, "new-hash", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateSecretHash(context.Background(), "new-hash"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryAddBlockedDate(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	reason := "maintenance"
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO blocked_dates")).
		WithArgs("2026-03-09", "maintenance", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	blocked := &models.BlockedDate{Date: "2026-03-09", Reason: &reason}
	require.NoError(t, repo.AddBlockedDate(context.Background(), blocked))
	assert.False(t, blocked.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryRemoveBlockedDateNotFound(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec("DELETE FROM blocked_dates WHERE date = \\$1").
		WithArgs("2026-03-09").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.RemoveBlockedDate(context.Background(), "2026-03-09")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
