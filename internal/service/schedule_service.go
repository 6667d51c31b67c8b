package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/reservalo/agenda-api/internal/dto"
	"github.com/reservalo/agenda-api/internal/models"
	"github.com/reservalo/agenda-api/internal/schedule"
	appErrors "github.com/reservalo/agenda-api/pkg/errors"
)

type scheduleRepository interface {
	GetConfig(ctx context.Context) (*models.ScheduleConfig, error)
	UpdateConfig(ctx context.Context, cfg *models.ScheduleConfig) error
	AddBlockedDate(ctx context.Context, blocked *models.BlockedDate) error
	RemoveBlockedDate(ctx context.Context, date string) error
}

type scheduleAuditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ScheduleService manages the provider's working-schedule policy.
type ScheduleService struct {
	repo      scheduleRepository
	audits    scheduleAuditRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(repo scheduleRepository, audits scheduleAuditRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, audits: audits, cache: cache, validator: validate, logger: logger}
}

// Get returns the public projection of the schedule configuration.
func (s *ScheduleService) Get(ctx context.Context) (*dto.ScheduleView, error) {
	cfg, err := s.repo.GetConfig(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule configuration")
	}
	return scheduleView(cfg), nil
}

// Update replaces the bookable window and working-day set.
func (s *ScheduleService) Update(ctx context.Context, req models.ScheduleUpdate) (*dto.ScheduleView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	current, err := s.repo.GetConfig(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule configuration")
	}

	next := *current
	next.StartTime = req.StartTime
	next.EndTime = req.EndTime
	next.DefaultDurationMinutes = req.DefaultDurationMinutes
	next.WorkingDays = make(pq.Int64Array, 0, len(req.WorkingDays))
	for _, day := range req.WorkingDays {
		next.WorkingDays = append(next.WorkingDays, int64(day))
	}

	if err := schedule.ValidateConfig(next); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateConfig(ctx, &next); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule configuration")
	}

	if err := s.cache.Invalidate(ctx, "availability:*"); err != nil {
		s.logger.Warn("failed to invalidate availability cache", zap.Error(err))
	}

	s.emitAudit(ctx, models.AuditActionScheduleUpdate, "schedule", nil, scheduleView(current), scheduleView(&next), req.IP, req.UserAgent)

	return scheduleView(&next), nil
}

// BlockDate closes one calendar date for bookings.
func (s *ScheduleService) BlockDate(ctx context.Context, req dto.BlockDateRequest) (*models.BlockedDate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid blocked-date payload")
	}
	if _, err := schedule.ParseDate(req.Date); err != nil {
		return nil, err
	}

	blocked := &models.BlockedDate{Date: req.Date, Reason: req.Reason}
	if err := s.repo.AddBlockedDate(ctx, blocked); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to block date")
	}

	if err := s.cache.Delete(ctx, availabilityCacheKey(req.Date)); err != nil {
		s.logger.Warn("failed to invalidate availability cache", zap.String("date", req.Date), zap.Error(err))
	}

	s.emitAudit(ctx, models.AuditActionDateBlock, "blocked_dates", &req.Date, nil, blocked, req.IP, req.UserAgent)

	return blocked, nil
}

// UnblockDate reopens a previously blocked date.
func (s *ScheduleService) UnblockDate(ctx context.Context, date string, meta dto.RequestMeta) error {
	if _, err := schedule.ParseDate(date); err != nil {
		return err
	}

	if err := s.repo.RemoveBlockedDate(ctx, date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "date is not blocked")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unblock date")
	}

	if err := s.cache.Delete(ctx, availabilityCacheKey(date)); err != nil {
		s.logger.Warn("failed to invalidate availability cache", zap.String("date", date), zap.Error(err))
	}

	s.emitAudit(ctx, models.AuditActionDateUnblock, "blocked_dates", &date, map[string]string{"date": date}, nil, meta.IP, meta.UserAgent)

	return nil
}

func (s *ScheduleService) emitAudit(ctx context.Context, action, resource string, resourceID *string, oldValue, newValue interface{}, ip, userAgent string) {
	if s.audits == nil {
		return
	}
	var oldBytes, newBytes []byte
	if oldValue != nil {
		oldBytes, _ = json.Marshal(oldValue)
	}
	if newValue != nil {
		newBytes, _ = json.Marshal(newValue)
	}
	log := &models.AuditLog{
		Actor:      "admin",
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		OldValues:  oldBytes,
		NewValues:  newBytes,
		IPAddress:  ip,
		UserAgent:  userAgent,
	}
	if err := s.audits.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record schedule audit", zap.Error(err))
	}
}

func scheduleView(cfg *models.ScheduleConfig) *dto.ScheduleView {
	days := make([]int, 0, len(cfg.WorkingDays))
	for _, day := range cfg.WorkingDays {
		days = append(days, int(day))
	}
	blocked := cfg.BlockedDates
	if blocked == nil {
		blocked = []models.BlockedDate{}
	}
	return &dto.ScheduleView{
		StartTime:              cfg.StartTime,
		EndTime:                cfg.EndTime,
		DefaultDurationMinutes: cfg.DefaultDurationMinutes,
		WorkingDays:            days,
		BlockedDates:           blocked,
		UpdatedAt:              cfg.UpdatedAt,
	}
}
