package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/availability-api/internal/model"
)

// Lookups named Find* return (nil, nil) when no row matches; a non-nil error
// always means the data access itself failed.
type (
	ScheduleRepository interface {
		FindActiveTemplate(ctx context.Context, professionalID uuid.UUID, weekday time.Weekday) (*model.WeeklySchedule, error)
		FindException(ctx context.Context, professionalID uuid.UUID, date time.Time) (*model.ScheduleException, error)

		GetTemplate(ctx context.Context, id uuid.UUID) (*model.WeeklySchedule, error)
		ListTemplates(ctx context.Context, clinicID, professionalID uuid.UUID) ([]*model.WeeklySchedule, error)
		UpsertTemplateTx(ctx context.Context, tx *sqlx.Tx, tpl *model.WeeklySchedule) error
		DeactivateOtherTemplatesTx(ctx context.Context, tx *sqlx.Tx, tpl *model.WeeklySchedule) error
		DeleteTemplateTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error

		GetException(ctx context.Context, id uuid.UUID) (*model.ScheduleException, error)
		ListExceptions(ctx context.Context, clinicID uuid.UUID, filters *model.ScheduleExceptionFilters) ([]*model.ScheduleException, error)
		CreateExceptionTx(ctx context.Context, tx *sqlx.Tx, exc *model.ScheduleException) error
		DeleteExceptionTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error
	}

	AppointmentRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		ListForDay(ctx context.Context, professionalID uuid.UUID, date time.Time) ([]*model.Appointment, error)
		ListBookedIntervals(ctx context.Context, professionalID uuid.UUID, date time.Time) ([]model.BookedInterval, error)
		CreateTx(ctx context.Context, tx *sqlx.Tx, apt *model.Appointment) error
		UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, apt *model.Appointment) error
	}

	ConsultationTypeRepository interface {
		FindType(ctx context.Context, id uuid.UUID) (*model.ConsultationType, error)
		FindProfessionalOverride(ctx context.Context, professionalID, consultationTypeID uuid.UUID) (*model.ProfessionalConsultationType, error)
	}

	OutboxRepository interface {
		CreateTx(ctx context.Context, tx *sqlx.Tx, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, tx *sqlx.Tx, limit int) ([]*model.OutboxEvent, error)
		UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status model.OutboxStatus, errorMessage *string, retryAt *time.Time) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}

	// Transactor runs fn inside a single database transaction.
	Transactor interface {
		WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error
	}
)
