package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/reservalo/agenda-api/internal/dto"
	"github.com/reservalo/agenda-api/internal/models"
	"github.com/reservalo/agenda-api/internal/schedule"
	appErrors "github.com/reservalo/agenda-api/pkg/errors"
)

type bookingRepository interface {
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error)
	ListByDate(ctx context.Context, date string) ([]models.Booking, error)
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	CreateForDate(ctx context.Context, date string, decide func(existing []models.Booking) (*models.Booking, error)) (*models.Booking, error)
	Update(ctx context.Context, booking *models.Booking) error
	Delete(ctx context.Context, id string) error
}

type bookingScheduleRepository interface {
	GetConfig(ctx context.Context) (*models.ScheduleConfig, error)
}

type bookingAuditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// BookingService orchestrates the booking lifecycle. Creation runs through the
// per-date serialized decision flow; collisions downgrade to pending instead of
// rejecting.
type BookingService struct {
	repo      bookingRepository
	schedules bookingScheduleRepository
	audits    bookingAuditRepository
	cache     *CacheService
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewBookingService constructs a BookingService. Payload validation lives in
// the booking decision flow, not in struct tags.
func NewBookingService(repo bookingRepository, schedules bookingScheduleRepository, audits bookingAuditRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *BookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{
		repo:      repo,
		schedules: schedules,
		audits:    audits,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
	}
}

// Create decides and stores a booking. The decision runs against a same-date
// snapshot taken under the per-date advisory lock, so two concurrent
// overlapping requests cannot both confirm.
func (s *BookingService) Create(ctx context.Context, req dto.CreateBookingRequest) (*models.Booking, bool, error) {
	cfg, err := s.schedules.GetConfig(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule configuration")
	}

	engineReq := schedule.BookingRequest{
		CustomerName:    req.CustomerName,
		ContactPhone:    req.ContactPhone,
		ServiceLabel:    req.ServiceLabel,
		Date:            req.Date,
		Time:            req.Time,
		DurationMinutes: req.DurationMinutes,
		AutoConfirm:     req.AutoConfirm,
	}

	var decision schedule.Decision
	created, err := s.repo.CreateForDate(ctx, req.Date, func(existing []models.Booking) (*models.Booking, error) {
		d, err := schedule.DecideBooking(engineReq, *cfg, existing, time.Now().UTC())
		if err != nil {
			return nil, err
		}
		decision = d
		return &d.Booking, nil
	})
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, false, err
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create booking")
	}

	if err := s.cache.Delete(ctx, availabilityCacheKey(created.Date)); err != nil {
		s.logger.Warn("failed to invalidate availability cache", zap.String("date", created.Date), zap.Error(err))
	}
	s.metrics.RecordBookingDecision(created.Status, decision.HadCollision)
	s.emitAudit(ctx, "public", models.AuditActionBookingCreate, created.ID, nil, created, req.IP, req.UserAgent)

	if decision.HadCollision {
		s.logger.Info("booking collided with existing booking",
			zap.String("booking_id", created.ID),
			zap.String("date", created.Date),
			zap.String("time", created.Time))
	}

	return created, decision.HadCollision, nil
}

// List returns bookings plus pagination data.
func (s *BookingService) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, *models.Pagination, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", string(*filter.Status)))
	}

	bookings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return bookings, pagination, nil
}

// Get returns a booking by id.
func (s *BookingService) Get(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}
	return booking, nil
}

// Update applies a partial admin edit. Status moves freely between the three
// lifecycle states. When the date, time or duration changes the new interval
// is revalidated against the booking window. A collision with another active
// booking is reported back but never blocks the edit.
func (s *BookingService) Update(ctx context.Context, id string, req dto.UpdateBookingRequest) (*models.Booking, bool, error) {
	if req.Status != nil && !req.Status.Valid() {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", string(*req.Status)))
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}

	next := *current
	if req.CustomerName != nil {
		name := strings.TrimSpace(*req.CustomerName)
		if name == "" {
			return nil, false, appErrors.Clone(appErrors.ErrValidation, "customer_name cannot be empty")
		}
		next.CustomerName = name
	}
	if req.ContactPhone != nil {
		next.ContactPhone = normalizeOptional(req.ContactPhone)
	}
	if req.ServiceLabel != nil {
		next.ServiceLabel = normalizeOptional(req.ServiceLabel)
	}
	timingChanged := false
	if req.Date != nil && *req.Date != next.Date {
		next.Date = *req.Date
		timingChanged = true
	}
	if req.Time != nil && *req.Time != next.Time {
		next.Time = *req.Time
		timingChanged = true
	}
	if req.DurationMinutes != nil && *req.DurationMinutes != next.DurationMinutes {
		next.DurationMinutes = *req.DurationMinutes
		timingChanged = true
	}
	if req.Status != nil {
		next.Status = *req.Status
	}
	if req.Notes != nil {
		next.Notes = normalizeOptional(req.Notes)
	}

	if timingChanged {
		if err := s.revalidateWindow(ctx, &next); err != nil {
			return nil, false, err
		}
	}

	hadCollision, err := s.checkCollision(ctx, &next)
	if err != nil {
		return nil, false, err
	}

	next.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, &next); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update booking")
	}

	keys := []string{availabilityCacheKey(current.Date)}
	if next.Date != current.Date {
		keys = append(keys, availabilityCacheKey(next.Date))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("failed to invalidate availability cache", zap.Strings("keys", keys), zap.Error(err))
	}

	s.emitAudit(ctx, "admin", models.AuditActionBookingUpdate, next.ID, current, &next, req.IP, req.UserAgent)

	return &next, hadCollision, nil
}

// Delete removes a booking record entirely. Cancelling keeps the record;
// deletion is for cleanup.
func (s *BookingService) Delete(ctx context.Context, id string, meta dto.RequestMeta) error {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete booking")
	}

	if err := s.cache.Delete(ctx, availabilityCacheKey(current.Date)); err != nil {
		s.logger.Warn("failed to invalidate availability cache", zap.String("date", current.Date), zap.Error(err))
	}

	s.emitAudit(ctx, "admin", models.AuditActionBookingDelete, id, current, nil, meta.IP, meta.UserAgent)

	return nil
}

func (s *BookingService) revalidateWindow(ctx context.Context, booking *models.Booking) error {
	if _, err := schedule.ParseDate(booking.Date); err != nil {
		return err
	}
	start, err := schedule.ToMinutes(booking.Time)
	if err != nil {
		return err
	}
	if booking.DurationMinutes <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "duration_minutes must be positive")
	}

	cfg, err := s.schedules.GetConfig(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule configuration")
	}
	windowStart, err := schedule.ToMinutes(cfg.StartTime)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored schedule window is invalid")
	}
	windowEnd, err := schedule.ToMinutes(cfg.EndTime)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored schedule window is invalid")
	}
	if start < windowStart || start+booking.DurationMinutes > windowEnd {
		return appErrors.Clone(appErrors.ErrOutsideWindow,
			fmt.Sprintf("time %s with duration %d minutes falls outside the %s-%s window", booking.Time, booking.DurationMinutes, cfg.StartTime, cfg.EndTime))
	}
	return nil
}

func (s *BookingService) checkCollision(ctx context.Context, booking *models.Booking) (bool, error) {
	if !booking.Active() {
		return false, nil
	}
	start, err := schedule.ToMinutes(booking.Time)
	if err != nil {
		return false, err
	}
	sameDay, err := s.repo.ListByDate(ctx, booking.Date)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bookings")
	}
	return schedule.CollidesWithActive(booking.Date, start, booking.DurationMinutes, booking.ID, sameDay), nil
}

func (s *BookingService) emitAudit(ctx context.Context, actor, action, bookingID string, oldValue, newValue interface{}, ip, userAgent string) {
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
		Actor:      actor,
		Action:     action,
		Resource:   "bookings",
		ResourceID: &bookingID,
		OldValues:  oldBytes,
		NewValues:  newBytes,
		IPAddress:  ip,
		UserAgent:  userAgent,
	}
	if err := s.audits.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record booking audit", zap.Error(err))
	}
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
