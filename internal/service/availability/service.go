package availability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/jwalitptl/availability-api/internal/config"
	"github.com/jwalitptl/availability-api/internal/model"
	"github.com/jwalitptl/availability-api/internal/repository"
	"github.com/jwalitptl/availability-api/pkg/errors"
	"github.com/jwalitptl/availability-api/pkg/logger"
	"github.com/jwalitptl/availability-api/pkg/metrics"
)

const (
	DefaultLookaheadDays = 30
	DaysPerWeek          = 7
)

// Service answers availability queries. Data access failures never reach
// the caller: the affected professional or date simply has no slots.
type Service interface {
	GetSlots(ctx context.Context, q SlotQuery) ([]model.AvailabilitySlot, error)
	GenerateSlotsForProfessionals(ctx context.Context, professionalIDs []uuid.UUID, date time.Time, durationMinutes int) (map[uuid.UUID][]model.AvailabilitySlot, error)
	FindNextAvailableSlot(ctx context.Context, q SlotQuery, maxDays int) (*model.NextAvailableSlot, error)
	GetWeekSummary(ctx context.Context, q SlotQuery) ([]model.DaySummary, error)
	ResolveWorkingWindow(ctx context.Context, professionalID uuid.UUID, date time.Time) *model.WorkingWindow
	ResolveDuration(ctx context.Context, q SlotQuery, window *model.WorkingWindow) (int, error)
}

// SlotQuery identifies one professional and date. DurationMinutes wins over
// ConsultationTypeID; with neither set the window's own duration is used.
type SlotQuery struct {
	ProfessionalID     uuid.UUID
	Date               time.Time
	DurationMinutes    int
	ConsultationTypeID *uuid.UUID
}

type service struct {
	resolver      *ScheduleResolver
	appointments  repository.AppointmentRepository
	consultations repository.ConsultationTypeRepository
	cfg           config.AvailabilityConfig
	logger        *logger.Logger
	metrics       *metrics.Metrics
}

func NewService(
	schedules repository.ScheduleRepository,
	appointments repository.AppointmentRepository,
	consultations repository.ConsultationTypeRepository,
	cfg config.AvailabilityConfig,
	log *logger.Logger,
	m *metrics.Metrics,
) Service {
	return &service{
		resolver:      NewScheduleResolver(schedules, cfg.DefaultDurationMinutes, log, m),
		appointments:  appointments,
		consultations: consultations,
		cfg:           cfg,
		logger:        log,
		metrics:       m,
	}
}

func (s *service) ResolveWorkingWindow(ctx context.Context, professionalID uuid.UUID, date time.Time) *model.WorkingWindow {
	s.metrics.AvailabilityRequests.WithLabelValues("window").Inc()
	return s.resolver.ResolveWorkingWindow(ctx, professionalID, model.TruncateDate(date))
}

func (s *service) GetSlots(ctx context.Context, q SlotQuery) ([]model.AvailabilitySlot, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	s.metrics.AvailabilityRequests.WithLabelValues("slots").Inc()
	return s.slotsFor(ctx, q)
}

// slotsFor returns (nil, err) only for caller mistakes; every data failure
// yields an empty slice.
func (s *service) slotsFor(ctx context.Context, q SlotQuery) ([]model.AvailabilitySlot, error) {
	start := time.Now()
	defer func() {
		s.metrics.SlotGenerationDuration.Observe(time.Since(start).Seconds())
	}()

	date := model.TruncateDate(q.Date)
	window := s.resolver.ResolveWorkingWindow(ctx, q.ProfessionalID, date)
	if window == nil {
		return []model.AvailabilitySlot{}, nil
	}

	duration, err := s.ResolveDuration(ctx, q, window)
	if err != nil {
		return nil, err
	}
	if duration <= 0 {
		return []model.AvailabilitySlot{}, nil
	}

	booked, err := s.appointments.ListBookedIntervals(ctx, q.ProfessionalID, date)
	if err != nil {
		s.metrics.AvailabilityLookupFailures.WithLabelValues("appointments").Inc()
		s.logger.Error(err, "Failed to load booked appointments, treating day as unavailable",
			"professional_id", q.ProfessionalID.String(),
			"date", date.Format(model.DateLayout))
		return []model.AvailabilitySlot{}, nil
	}

	set := make(BookedSet, len(booked))
	for _, b := range booked {
		set[b.StartTime] = struct{}{}
	}

	return GenerateSlots(window, set, duration, q.ProfessionalID), nil
}

// ResolveDuration picks the slot width: explicit duration, the professional's
// override of the consultation type, the type's own duration, the window's
// duration and finally the configured default. A lookup failure returns 0,
// which callers treat as no availability.
func (s *service) ResolveDuration(ctx context.Context, q SlotQuery, window *model.WorkingWindow) (int, error) {
	if q.DurationMinutes > 0 {
		return q.DurationMinutes, nil
	}

	if q.ConsultationTypeID != nil {
		d, ok, err := s.consultationDuration(ctx, q.ProfessionalID, *q.ConsultationTypeID)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, nil
		}
		if d > 0 {
			return d, nil
		}
	}

	if window != nil && window.Duration > 0 {
		return window.Duration, nil
	}
	return s.cfg.DefaultDurationMinutes, nil
}

// consultationDuration reports ok=false when the lookup itself failed.
func (s *service) consultationDuration(ctx context.Context, professionalID, typeID uuid.UUID) (int, bool, error) {
	override, err := s.consultations.FindProfessionalOverride(ctx, professionalID, typeID)
	if err != nil {
		s.consultationLookupFailed(err, professionalID, typeID)
		return 0, false, nil
	}
	if override != nil && override.DurationMinutes != nil && *override.DurationMinutes > 0 {
		return *override.DurationMinutes, true, nil
	}

	ct, err := s.consultations.FindType(ctx, typeID)
	if err != nil {
		s.consultationLookupFailed(err, professionalID, typeID)
		return 0, false, nil
	}
	if ct == nil || !ct.Active {
		return 0, false, errors.NewNotFound("consultation type", nil)
	}
	return ct.DurationMinutes, true, nil
}

func (s *service) consultationLookupFailed(err error, professionalID, typeID uuid.UUID) {
	s.metrics.AvailabilityLookupFailures.WithLabelValues("consultation_type").Inc()
	s.logger.Error(err, "Failed to load consultation type duration",
		"professional_id", professionalID.String(),
		"consultation_type_id", typeID.String())
}

// GenerateSlotsForProfessionals computes slots for each professional
// concurrently. A failure for one professional, panics included, leaves an
// empty list under its id and does not affect the others.
func (s *service) GenerateSlotsForProfessionals(ctx context.Context, professionalIDs []uuid.UUID, date time.Time, durationMinutes int) (map[uuid.UUID][]model.AvailabilitySlot, error) {
	if err := validateDuration(durationMinutes); err != nil {
		return nil, err
	}
	s.metrics.AvailabilityRequests.WithLabelValues("batch").Inc()

	result := make(map[uuid.UUID][]model.AvailabilitySlot, len(professionalIDs))
	var mu sync.Mutex

	workers := s.cfg.BatchConcurrency
	if workers <= 0 {
		workers = 1
	}
	p := pool.New().WithMaxGoroutines(workers)

	unique := make([]uuid.UUID, 0, len(professionalIDs))
	for _, id := range professionalIDs {
		if _, seen := result[id]; seen {
			continue
		}
		result[id] = []model.AvailabilitySlot{}
		unique = append(unique, id)
	}
	if s.cfg.MaxBatchSize > 0 && len(unique) > s.cfg.MaxBatchSize {
		return nil, errors.NewBadRequest(fmt.Sprintf("at most %d professionals per batch", s.cfg.MaxBatchSize), nil)
	}

	for _, id := range unique {
		id := id
		p.Go(func() {
			slots := s.batchSlots(ctx, SlotQuery{
				ProfessionalID:  id,
				Date:            date,
				DurationMinutes: durationMinutes,
			})
			mu.Lock()
			result[id] = slots
			mu.Unlock()
		})
	}
	p.Wait()

	return result, nil
}

func (s *service) batchSlots(ctx context.Context, q SlotQuery) (slots []model.AvailabilitySlot) {
	defer func() {
		if r := recover(); r != nil {
			s.batchFailed(fmt.Errorf("panic: %v", r), q)
			slots = []model.AvailabilitySlot{}
		}
	}()

	slots, err := s.slotsFor(ctx, q)
	if err != nil {
		s.batchFailed(err, q)
		return []model.AvailabilitySlot{}
	}
	return slots
}

func (s *service) batchFailed(err error, q SlotQuery) {
	s.metrics.BatchProfessionalFailures.Inc()
	s.logger.Error(err, "Slot generation failed for professional in batch",
		"professional_id", q.ProfessionalID.String(),
		"date", q.Date.Format(model.DateLayout))
}

// FindNextAvailableSlot scans maxDays consecutive dates starting at q.Date
// itself and returns the first free slot, or nil when there is none.
func (s *service) FindNextAvailableSlot(ctx context.Context, q SlotQuery, maxDays int) (*model.NextAvailableSlot, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	if maxDays < 0 {
		return nil, errors.NewBadRequest("max_days must be positive", nil)
	}
	if maxDays == 0 {
		maxDays = DefaultLookaheadDays
	}
	if s.cfg.MaxLookaheadDays > 0 && maxDays > s.cfg.MaxLookaheadDays {
		maxDays = s.cfg.MaxLookaheadDays
	}
	s.metrics.AvailabilityRequests.WithLabelValues("next").Inc()

	from := model.TruncateDate(q.Date)
	for i := 0; i < maxDays; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		day := q
		day.Date = from.AddDate(0, 0, i)
		slots, err := s.slotsFor(ctx, day)
		if err != nil {
			return nil, err
		}
		for _, slot := range slots {
			if slot.Available {
				return &model.NextAvailableSlot{Date: day.Date, Time: slot.Time}, nil
			}
		}
	}

	return nil, nil
}

// GetWeekSummary counts total and free slots for seven days from q.Date.
func (s *service) GetWeekSummary(ctx context.Context, q SlotQuery) ([]model.DaySummary, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	s.metrics.AvailabilityRequests.WithLabelValues("week").Inc()

	from := model.TruncateDate(q.Date)
	summary := make([]model.DaySummary, 0, DaysPerWeek)
	for i := 0; i < DaysPerWeek; i++ {
		day := q
		day.Date = from.AddDate(0, 0, i)
		slots, err := s.slotsFor(ctx, day)
		if err != nil {
			return nil, err
		}
		summary = append(summary, model.DaySummary{
			Date:      day.Date,
			Total:     len(slots),
			Available: CountAvailable(slots),
		})
	}

	return summary, nil
}

func validateQuery(q SlotQuery) error {
	if q.ProfessionalID == uuid.Nil {
		return errors.NewBadRequest("professional_id is required", nil)
	}
	if q.Date.IsZero() {
		return errors.NewBadRequest("date is required", nil)
	}
	return validateDuration(q.DurationMinutes)
}

// validateDuration accepts 0, meaning the duration is resolved from the
// schedule, or the same range a booking accepts.
func validateDuration(minutes int) error {
	if minutes < 0 || minutes > model.MaxDurationMinutes {
		return errors.NewBadRequest(fmt.Sprintf("duration must be between 1 and %d minutes", model.MaxDurationMinutes), nil)
	}
	return nil
}
