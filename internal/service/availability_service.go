package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/reservalo/agenda-api/internal/models"
	"github.com/reservalo/agenda-api/internal/schedule"
	appErrors "github.com/reservalo/agenda-api/pkg/errors"
)

type availabilityScheduleRepository interface {
	GetConfig(ctx context.Context) (*models.ScheduleConfig, error)
}

type availabilityBookingRepository interface {
	ListByDate(ctx context.Context, date string) ([]models.Booking, error)
}

func availabilityCacheKey(date string) string {
	return fmt.Sprintf("availability:%s", date)
}

// AvailabilityService computes the bookable slot board for calendar dates.
type AvailabilityService struct {
	schedules availabilityScheduleRepository
	bookings  availabilityBookingRepository
	cache     *CacheService
	logger    *zap.Logger
	ttl       time.Duration
}

// NewAvailabilityService constructs an AvailabilityService.
func NewAvailabilityService(schedules availabilityScheduleRepository, bookings availabilityBookingRepository, cache *CacheService, ttl time.Duration, logger *zap.Logger) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &AvailabilityService{schedules: schedules, bookings: bookings, cache: cache, logger: logger, ttl: ttl}
}

// Day returns the slot board for one date. The second return reports whether
// the board came from cache.
func (s *AvailabilityService) Day(ctx context.Context, date string) (*models.DaySlots, bool, error) {
	if _, err := schedule.ParseDate(date); err != nil {
		return nil, false, err
	}

	key := availabilityCacheKey(date)
	var cached models.DaySlots
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	cfg, err := s.schedules.GetConfig(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule configuration")
	}
	bookings, err := s.bookings.ListByDate(ctx, date)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bookings")
	}

	day, err := schedule.BuildDaySlots(date, *cfg, bookings)
	if err != nil {
		return nil, false, err
	}

	_ = s.cache.Set(ctx, key, day, s.ttl)
	return &day, false, nil
}
