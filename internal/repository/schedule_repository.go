package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/reservalo/agenda-api/internal/models"
)

// configRowID pins the single schedule configuration row.
const configRowID = 1

// ScheduleRepository persists the working-schedule configuration and the
// blocked-date calendar.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs the repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// GetConfig loads the configuration row together with its blocked dates.
func (r *ScheduleRepository) GetConfig(ctx context.Context) (*models.ScheduleConfig, error) {
	const query = `SELECT id, start_time, end_time, default_duration_minutes, working_days, admin_secret_hash, updated_at
FROM schedule_config WHERE id = $1`
	var cfg models.ScheduleConfig
	if err := r.db.GetContext(ctx, &cfg, query, configRowID); err != nil {
		return nil, fmt.Errorf("get schedule config: %w", err)
	}

	const blockedQuery = `SELECT date, reason, created_at FROM blocked_dates ORDER BY date ASC`
	if err := r.db.SelectContext(ctx, &cfg.BlockedDates, blockedQuery); err != nil {
		return nil, fmt.Errorf("list blocked dates: %w", err)
	}
	return &cfg, nil
}

// UpdateConfig replaces the schedule fields of the configuration row.
func (r *ScheduleRepository) UpdateConfig(ctx context.Context, cfg *models.ScheduleConfig) error {
	cfg.ID = configRowID
	cfg.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schedule_config
SET start_time = :start_time, end_time = :end_time, default_duration_minutes = :default_duration_minutes,
    working_days = :working_days, updated_at = :updated_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, cfg); err != nil {
		return fmt.Errorf("update schedule config: %w", err)
	}
	return nil
}

// UpdateSecretHash rotates the stored admin secret hash.
func (r *ScheduleRepository) UpdateSecretHash(ctx context.Context, hash string) error {
	const query = `UPDATE schedule_config SET admin_secret_hash = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, configRowID, hash, time.Now().UTC()); err != nil {
		return fmt.Errorf("update admin secret: %w", err)
	}
	return nil
}

// AddBlockedDate inserts or refreshes a blocked date entry.
func (r *ScheduleRepository) AddBlockedDate(ctx context.Context, blocked *models.BlockedDate) error {
	if blocked.CreatedAt.IsZero() {
		blocked.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO blocked_dates (date, reason, created_at)
VALUES (:date, :reason, :created_at)
ON CONFLICT (date)
DO UPDATE SET reason = EXCLUDED.reason`
	if _, err := r.db.NamedExecContext(ctx, query, blocked); err != nil {
		return fmt.Errorf("add blocked date: %w", err)
	}
	return nil
}

// RemoveBlockedDate deletes a blocked date entry.
func (r *ScheduleRepository) RemoveBlockedDate(ctx context.Context, date string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM blocked_dates WHERE date = $1`, date)
	if err != nil {
		return fmt.Errorf("remove blocked date: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove blocked date result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
