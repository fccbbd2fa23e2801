package appointment

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/availability-api/internal/model"
	"github.com/jwalitptl/availability-api/internal/repository"
	"github.com/jwalitptl/availability-api/internal/service/availability"
	"github.com/jwalitptl/availability-api/internal/service/event"
	"github.com/jwalitptl/availability-api/pkg/errors"
	"github.com/jwalitptl/availability-api/pkg/logger"
)

// Service is the booking write path. Availability reads are best effort;
// this service and the unique index on appointments decide who gets a slot.
type Service struct {
	repo         repository.AppointmentRepository
	availability availability.Service
	tx           repository.Transactor
	events       event.Recorder
	logger       *logger.Logger
}

func NewService(
	repo repository.AppointmentRepository,
	availabilitySvc availability.Service,
	tx repository.Transactor,
	events event.Recorder,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:         repo,
		availability: availabilitySvc,
		tx:           tx,
		events:       events,
		logger:       log,
	}
}

// statusTransitions lists the statuses each status may move to through
// UpdateStatus. Cancellation has its own operation.
var statusTransitions = map[model.AppointmentStatus][]model.AppointmentStatus{
	model.AppointmentStatusScheduled: {model.AppointmentStatusConfirmed, model.AppointmentStatusCompleted, model.AppointmentStatusNoShow},
	model.AppointmentStatusConfirmed: {model.AppointmentStatusCompleted, model.AppointmentStatusNoShow},
}

func (s *Service) Book(ctx context.Context, clinicID uuid.UUID, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	date, err := model.ParseDate(req.Date)
	if err != nil {
		return nil, errors.NewBadRequest("invalid date", err)
	}
	start, err := model.ParseClockTime(req.StartTime)
	if err != nil {
		return nil, errors.NewBadRequest("invalid start_time", err)
	}

	window := s.availability.ResolveWorkingWindow(ctx, req.ProfessionalID, date)
	if window == nil {
		return nil, errors.Conflict("professional is not available on this date", nil)
	}

	duration, err := s.availability.ResolveDuration(ctx, availability.SlotQuery{
		ProfessionalID:     req.ProfessionalID,
		Date:               date,
		DurationMinutes:    req.DurationMinutes,
		ConsultationTypeID: req.ConsultationTypeID,
	}, window)
	if err != nil {
		return nil, err
	}
	if duration <= 0 {
		return nil, errors.Conflict("appointment duration could not be determined", nil)
	}

	if !onSlotGrid(window, start, duration) {
		return nil, errors.NewBadRequest("start_time is not a bookable slot", nil)
	}

	end := start.Add(duration)
	booked, err := s.repo.ListBookedIntervals(ctx, req.ProfessionalID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load booked appointments: %w", err)
	}
	for _, b := range booked {
		if start < b.EndTime && b.StartTime < end {
			return nil, errors.Conflict("slot is already booked", nil)
		}
	}

	apt := &model.Appointment{
		ClinicID:           clinicID,
		ProfessionalID:     req.ProfessionalID,
		PatientID:          req.PatientID,
		ConsultationTypeID: req.ConsultationTypeID,
		Date:               date,
		StartTime:          start,
		EndTime:            end,
		Status:             model.AppointmentStatusScheduled,
		Notes:              req.Notes,
	}

	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.CreateTx(ctx, tx, apt); err != nil {
			return err
		}
		return s.events.RecordTx(ctx, tx, model.EventAppointmentBooked, apt)
	})
	if stderrors.Is(err, repository.ErrDuplicate) {
		return nil, errors.Conflict("slot is already booked", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	s.logger.Info("Appointment booked",
		"appointment_id", apt.ID.String(),
		"professional_id", apt.ProfessionalID.String(),
		"date", req.Date,
		"start_time", apt.StartTime.String(),
		"duration", duration)
	return apt, nil
}

// onSlotGrid reports whether start is one of the slots the window offers for
// the given duration.
func onSlotGrid(window *model.WorkingWindow, start model.ClockTime, duration int) bool {
	for _, slot := range availability.GenerateSlots(window, nil, duration, uuid.Nil) {
		if slot.Time == start {
			return true
		}
	}
	return false
}

func (s *Service) Get(ctx context.Context, clinicID, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	if apt == nil || apt.ClinicID != clinicID {
		return nil, errors.NewNotFound("appointment", nil)
	}
	return apt, nil
}

func (s *Service) ListForDay(ctx context.Context, clinicID, professionalID uuid.UUID, date string) ([]*model.Appointment, error) {
	day, err := model.ParseDate(date)
	if err != nil {
		return nil, errors.NewBadRequest("invalid date", err)
	}

	apts, err := s.repo.ListForDay(ctx, professionalID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}

	out := make([]*model.Appointment, 0, len(apts))
	for _, apt := range apts {
		if apt.ClinicID == clinicID {
			out = append(out, apt)
		}
	}
	return out, nil
}

// Cancel frees the slot of a scheduled or confirmed appointment.
func (s *Service) Cancel(ctx context.Context, clinicID, id uuid.UUID, reason string) (*model.Appointment, error) {
	apt, err := s.Get(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}

	switch apt.Status {
	case model.AppointmentStatusCancelled:
		return nil, errors.Conflict("appointment is already cancelled", nil)
	case model.AppointmentStatusCompleted, model.AppointmentStatusNoShow:
		return nil, errors.Conflict(fmt.Sprintf("cannot cancel a %s appointment", apt.Status), nil)
	}

	apt.Status = model.AppointmentStatusCancelled
	apt.CancelReason = &reason
	if err := s.saveStatus(ctx, apt, model.EventAppointmentCanceled); err != nil {
		return nil, err
	}

	s.logger.Info("Appointment cancelled", "appointment_id", apt.ID.String())
	return apt, nil
}

func (s *Service) UpdateStatus(ctx context.Context, clinicID, id uuid.UUID, status model.AppointmentStatus) (*model.Appointment, error) {
	apt, err := s.Get(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}

	if !canTransition(apt.Status, status) {
		return nil, errors.Conflict(fmt.Sprintf("cannot change status from %s to %s", apt.Status, status), nil)
	}

	previous := apt.Status
	apt.Status = status
	if err := s.saveStatus(ctx, apt, model.EventAppointmentStatus); err != nil {
		return nil, err
	}

	s.logger.Info("Appointment status changed",
		"appointment_id", apt.ID.String(),
		"from", string(previous),
		"to", string(status))
	return apt, nil
}

func canTransition(from, to model.AppointmentStatus) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s *Service) saveStatus(ctx context.Context, apt *model.Appointment, eventType string) error {
	err := s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.UpdateStatusTx(ctx, tx, apt); err != nil {
			return err
		}
		return s.events.RecordTx(ctx, tx, eventType, apt)
	})
	if stderrors.Is(err, repository.ErrNotFound) {
		return errors.NewNotFound("appointment", err)
	}
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	return nil
}
