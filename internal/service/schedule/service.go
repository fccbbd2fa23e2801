package schedule

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/availability-api/internal/model"
	"github.com/jwalitptl/availability-api/internal/repository"
	"github.com/jwalitptl/availability-api/internal/service/event"
	"github.com/jwalitptl/availability-api/pkg/errors"
	"github.com/jwalitptl/availability-api/pkg/logger"
)

type Service struct {
	repo   repository.ScheduleRepository
	tx     repository.Transactor
	events event.Recorder
	logger *logger.Logger
}

func NewService(repo repository.ScheduleRepository, tx repository.Transactor, events event.Recorder, log *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		tx:     tx,
		events: events,
		logger: log,
	}
}

// UpsertTemplate creates or replaces the template of a professional for one
// weekday. Saving an active template deactivates every other active template
// for the same weekday in the same transaction.
func (s *Service) UpsertTemplate(ctx context.Context, clinicID uuid.UUID, req *model.UpsertWeeklyScheduleRequest) (*model.WeeklySchedule, error) {
	tpl, err := templateFromRequest(req)
	if err != nil {
		return nil, err
	}
	tpl.ClinicID = clinicID

	existing, err := s.repo.ListTemplates(ctx, clinicID, req.ProfessionalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list weekly schedules: %w", err)
	}
	if current := pickTemplate(existing, tpl.Weekday); current != nil {
		tpl.ID = current.ID
		tpl.CreatedAt = current.CreatedAt
	} else {
		tpl.ID = uuid.New()
	}

	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		// Others go first so the one-active index never sees two rows.
		if tpl.Active {
			if err := s.repo.DeactivateOtherTemplatesTx(ctx, tx, tpl); err != nil {
				return err
			}
		}
		if err := s.repo.UpsertTemplateTx(ctx, tx, tpl); err != nil {
			return err
		}
		return s.events.RecordTx(ctx, tx, model.EventTemplateUpserted, tpl)
	})
	if stderrors.Is(err, repository.ErrDuplicate) {
		return nil, errors.Conflict("another active schedule exists for this weekday", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save weekly schedule: %w", err)
	}

	s.logger.Info("Weekly schedule saved",
		"schedule_id", tpl.ID.String(),
		"professional_id", tpl.ProfessionalID.String(),
		"weekday", tpl.Weekday,
		"active", tpl.Active)
	return tpl, nil
}

// pickTemplate prefers the active template of the weekday, then any other.
func pickTemplate(templates []*model.WeeklySchedule, weekday int) *model.WeeklySchedule {
	var fallback *model.WeeklySchedule
	for _, t := range templates {
		if t.Weekday != weekday {
			continue
		}
		if t.Active {
			return t
		}
		if fallback == nil {
			fallback = t
		}
	}
	return fallback
}

func templateFromRequest(req *model.UpsertWeeklyScheduleRequest) (*model.WeeklySchedule, error) {
	if req.Weekday == nil || *req.Weekday < 0 || *req.Weekday > 6 {
		return nil, errors.NewBadRequest("weekday must be between 0 (Sunday) and 6", nil)
	}

	start, err := model.ParseClockTime(req.StartTime)
	if err != nil {
		return nil, errors.NewBadRequest("invalid start_time", err)
	}
	end, err := model.ParseClockTime(req.EndTime)
	if err != nil {
		return nil, errors.NewBadRequest("invalid end_time", err)
	}
	if start >= end {
		return nil, errors.NewBadRequest("start_time must be before end_time", nil)
	}
	if req.AppointmentDuration < 5 || req.AppointmentDuration > 480 {
		return nil, errors.NewBadRequest("appointment_duration must be between 5 and 480 minutes", nil)
	}

	tpl := &model.WeeklySchedule{
		ProfessionalID:      req.ProfessionalID,
		Weekday:             *req.Weekday,
		StartTime:           start,
		EndTime:             end,
		AppointmentDuration: req.AppointmentDuration,
		Active:              req.Active == nil || *req.Active,
	}

	if (req.LunchStart == nil) != (req.LunchEnd == nil) {
		return nil, errors.NewBadRequest("lunch_start and lunch_end must be set together", nil)
	}
	if req.LunchStart != nil {
		ls, err := model.ParseClockTime(*req.LunchStart)
		if err != nil {
			return nil, errors.NewBadRequest("invalid lunch_start", err)
		}
		le, err := model.ParseClockTime(*req.LunchEnd)
		if err != nil {
			return nil, errors.NewBadRequest("invalid lunch_end", err)
		}
		if ls >= le {
			return nil, errors.NewBadRequest("lunch_start must be before lunch_end", nil)
		}
		if ls < start || le > end {
			return nil, errors.NewBadRequest("lunch break must fall within working hours", nil)
		}
		tpl.LunchStart, tpl.LunchEnd = &ls, &le
	}

	return tpl, nil
}

func (s *Service) ListTemplates(ctx context.Context, clinicID, professionalID uuid.UUID) ([]*model.WeeklySchedule, error) {
	templates, err := s.repo.ListTemplates(ctx, clinicID, professionalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list weekly schedules: %w", err)
	}
	return templates, nil
}

func (s *Service) DeleteTemplate(ctx context.Context, clinicID, id uuid.UUID) error {
	tpl, err := s.repo.GetTemplate(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get weekly schedule: %w", err)
	}
	if tpl == nil || tpl.ClinicID != clinicID {
		return errors.NewNotFound("weekly schedule", nil)
	}

	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.DeleteTemplateTx(ctx, tx, id); err != nil {
			return err
		}
		return s.events.RecordTx(ctx, tx, model.EventTemplateDeleted, tpl)
	})
	if stderrors.Is(err, repository.ErrNotFound) {
		return errors.NewNotFound("weekly schedule", err)
	}
	if err != nil {
		return fmt.Errorf("failed to delete weekly schedule: %w", err)
	}

	s.logger.Info("Weekly schedule deleted", "schedule_id", id.String())
	return nil
}

// CreateException blocks a whole day or replaces its working hours. Only one
// exception may exist per professional and date.
func (s *Service) CreateException(ctx context.Context, clinicID uuid.UUID, req *model.CreateScheduleExceptionRequest) (*model.ScheduleException, error) {
	date, err := model.ParseDate(req.Date)
	if err != nil {
		return nil, errors.NewBadRequest("invalid date", err)
	}

	exc := &model.ScheduleException{
		ClinicID:       clinicID,
		ProfessionalID: req.ProfessionalID,
		Date:           date,
		AllDay:         req.AllDay,
		Reason:         req.Reason,
	}

	if !req.AllDay {
		if req.StartTime == nil || req.EndTime == nil {
			return nil, errors.NewBadRequest("start_time and end_time are required unless all_day is set", nil)
		}
		start, err := model.ParseClockTime(*req.StartTime)
		if err != nil {
			return nil, errors.NewBadRequest("invalid start_time", err)
		}
		end, err := model.ParseClockTime(*req.EndTime)
		if err != nil {
			return nil, errors.NewBadRequest("invalid end_time", err)
		}
		if start >= end {
			return nil, errors.NewBadRequest("start_time must be before end_time", nil)
		}
		exc.StartTime, exc.EndTime = &start, &end
	}

	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.CreateExceptionTx(ctx, tx, exc); err != nil {
			return err
		}
		return s.events.RecordTx(ctx, tx, model.EventExceptionCreated, exc)
	})
	if stderrors.Is(err, repository.ErrDuplicate) {
		return nil, errors.Conflict("an exception already exists for this date", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create schedule exception: %w", err)
	}

	s.logger.Info("Schedule exception created",
		"exception_id", exc.ID.String(),
		"professional_id", exc.ProfessionalID.String(),
		"date", req.Date,
		"all_day", exc.AllDay)
	return exc, nil
}

func (s *Service) ListExceptions(ctx context.Context, clinicID uuid.UUID, filters *model.ScheduleExceptionFilters) ([]*model.ScheduleException, error) {
	if filters != nil && !filters.From.IsZero() && !filters.To.IsZero() && filters.To.Before(filters.From) {
		return nil, errors.NewBadRequest("to must not be before from", nil)
	}

	exceptions, err := s.repo.ListExceptions(ctx, clinicID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule exceptions: %w", err)
	}
	return exceptions, nil
}

func (s *Service) DeleteException(ctx context.Context, clinicID, id uuid.UUID) error {
	exc, err := s.repo.GetException(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get schedule exception: %w", err)
	}
	if exc == nil || exc.ClinicID != clinicID {
		return errors.NewNotFound("schedule exception", nil)
	}

	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.DeleteExceptionTx(ctx, tx, id); err != nil {
			return err
		}
		return s.events.RecordTx(ctx, tx, model.EventExceptionDeleted, exc)
	})
	if stderrors.Is(err, repository.ErrNotFound) {
		return errors.NewNotFound("schedule exception", err)
	}
	if err != nil {
		return fmt.Errorf("failed to delete schedule exception: %w", err)
	}

	s.logger.Info("Schedule exception deleted", "exception_id", id.String())
	return nil
}
