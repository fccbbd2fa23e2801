package availability

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/availability-api/internal/model"
	"github.com/jwalitptl/availability-api/internal/repository"
	"github.com/jwalitptl/availability-api/pkg/logger"
	"github.com/jwalitptl/availability-api/pkg/metrics"
)

// ScheduleResolver computes the effective working window of a professional
// on a date. Exceptions for the exact date win over the weekly template.
type ScheduleResolver struct {
	repo            repository.ScheduleRepository
	defaultDuration int
	logger          *logger.Logger
	metrics         *metrics.Metrics
}

func NewScheduleResolver(repo repository.ScheduleRepository, defaultDuration int, log *logger.Logger, m *metrics.Metrics) *ScheduleResolver {
	return &ScheduleResolver{
		repo:            repo,
		defaultDuration: defaultDuration,
		logger:          log,
		metrics:         m,
	}
}

// ResolveWorkingWindow returns nil when the professional has no working hours
// on date. Lookup failures are logged and also yield nil: a window is never
// guessed when the schedule data cannot be read.
func (r *ScheduleResolver) ResolveWorkingWindow(ctx context.Context, professionalID uuid.UUID, date time.Time) *model.WorkingWindow {
	weekday := date.Weekday()

	exc, err := r.repo.FindException(ctx, professionalID, date)
	if err != nil {
		r.lookupFailed(err, "exception", professionalID, date)
		return nil
	}
	if exc != nil {
		return r.windowFromException(exc, date)
	}

	tpl, err := r.repo.FindActiveTemplate(ctx, professionalID, weekday)
	if err != nil {
		r.lookupFailed(err, "template", professionalID, date)
		return nil
	}
	if tpl == nil || !tpl.Active {
		return nil
	}

	return &model.WorkingWindow{
		Start:      tpl.StartTime,
		End:        tpl.EndTime,
		Duration:   tpl.AppointmentDuration,
		LunchStart: tpl.LunchStart,
		LunchEnd:   tpl.LunchEnd,
		Source:     model.WindowSourceTemplate,
	}
}

// windowFromException never carries a lunch break: exceptions have no lunch
// fields, and the template's lunch is not merged in.
func (r *ScheduleResolver) windowFromException(exc *model.ScheduleException, date time.Time) *model.WorkingWindow {
	if exc.AllDay {
		return nil
	}
	if exc.StartTime == nil || exc.EndTime == nil {
		r.logger.Warn("Schedule exception without hours treated as a blocked day",
			"exception_id", exc.ID.String(),
			"professional_id", exc.ProfessionalID.String(),
			"date", date.Format(model.DateLayout))
		return nil
	}

	return &model.WorkingWindow{
		Start:    *exc.StartTime,
		End:      *exc.EndTime,
		Duration: r.defaultDuration,
		Source:   model.WindowSourceException,
	}
}

func (r *ScheduleResolver) lookupFailed(err error, source string, professionalID uuid.UUID, date time.Time) {
	r.metrics.AvailabilityLookupFailures.WithLabelValues(source).Inc()
	r.logger.Error(err, "Schedule lookup failed, treating day as unavailable",
		"source", source,
		"professional_id", professionalID.String(),
		"date", date.Format(model.DateLayout),
		"weekday", int(date.Weekday()))
}
