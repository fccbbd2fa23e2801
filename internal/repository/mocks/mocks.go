// Package mocks provides testify mocks of the repository interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/jwalitptl/availability-api/internal/model"
	"github.com/jwalitptl/availability-api/internal/repository"
)

var (
	_ repository.ScheduleRepository         = (*ScheduleRepository)(nil)
	_ repository.AppointmentRepository      = (*AppointmentRepository)(nil)
	_ repository.ConsultationTypeRepository = (*ConsultationTypeRepository)(nil)
	_ repository.OutboxRepository           = (*OutboxRepository)(nil)
	_ repository.Transactor                 = (*Transactor)(nil)
)

type ScheduleRepository struct {
	mock.Mock
}

func (m *ScheduleRepository) FindActiveTemplate(ctx context.Context, professionalID uuid.UUID, weekday time.Weekday) (*model.WeeklySchedule, error) {
	args := m.Called(ctx, professionalID, weekday)
	tpl, _ := args.Get(0).(*model.WeeklySchedule)
	return tpl, args.Error(1)
}

func (m *ScheduleRepository) FindException(ctx context.Context, professionalID uuid.UUID, date time.Time) (*model.ScheduleException, error) {
	args := m.Called(ctx, professionalID, date)
	exc, _ := args.Get(0).(*model.ScheduleException)
	return exc, args.Error(1)
}

func (m *ScheduleRepository) GetTemplate(ctx context.Context, id uuid.UUID) (*model.WeeklySchedule, error) {
	args := m.Called(ctx, id)
	tpl, _ := args.Get(0).(*model.WeeklySchedule)
	return tpl, args.Error(1)
}

func (m *ScheduleRepository) ListTemplates(ctx context.Context, clinicID, professionalID uuid.UUID) ([]*model.WeeklySchedule, error) {
	args := m.Called(ctx, clinicID, professionalID)
	tpls, _ := args.Get(0).([]*model.WeeklySchedule)
	return tpls, args.Error(1)
}

func (m *ScheduleRepository) UpsertTemplateTx(ctx context.Context, tx *sqlx.Tx, tpl *model.WeeklySchedule) error {
	return m.Called(ctx, tx, tpl).Error(0)
}

func (m *ScheduleRepository) DeactivateOtherTemplatesTx(ctx context.Context, tx *sqlx.Tx, tpl *model.WeeklySchedule) error {
	return m.Called(ctx, tx, tpl).Error(0)
}

func (m *ScheduleRepository) DeleteTemplateTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	return m.Called(ctx, tx, id).Error(0)
}

func (m *ScheduleRepository) GetException(ctx context.Context, id uuid.UUID) (*model.ScheduleException, error) {
	args := m.Called(ctx, id)
	exc, _ := args.Get(0).(*model.ScheduleException)
	return exc, args.Error(1)
}

func (m *ScheduleRepository) ListExceptions(ctx context.Context, clinicID uuid.UUID, filters *model.ScheduleExceptionFilters) ([]*model.ScheduleException, error) {
	args := m.Called(ctx, clinicID, filters)
	excs, _ := args.Get(0).([]*model.ScheduleException)
	return excs, args.Error(1)
}

func (m *ScheduleRepository) CreateExceptionTx(ctx context.Context, tx *sqlx.Tx, exc *model.ScheduleException) error {
	return m.Called(ctx, tx, exc).Error(0)
}

func (m *ScheduleRepository) DeleteExceptionTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	return m.Called(ctx, tx, id).Error(0)
}

type AppointmentRepository struct {
	mock.Mock
}

func (m *AppointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	args := m.Called(ctx, id)
	apt, _ := args.Get(0).(*model.Appointment)
	return apt, args.Error(1)
}

func (m *AppointmentRepository) ListForDay(ctx context.Context, professionalID uuid.UUID, date time.Time) ([]*model.Appointment, error) {
	args := m.Called(ctx, professionalID, date)
	apts, _ := args.Get(0).([]*model.Appointment)
	return apts, args.Error(1)
}

func (m *AppointmentRepository) ListBookedIntervals(ctx context.Context, professionalID uuid.UUID, date time.Time) ([]model.BookedInterval, error) {
	args := m.Called(ctx, professionalID, date)
	booked, _ := args.Get(0).([]model.BookedInterval)
	return booked, args.Error(1)
}

func (m *AppointmentRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, apt *model.Appointment) error {
	return m.Called(ctx, tx, apt).Error(0)
}

func (m *AppointmentRepository) UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, apt *model.Appointment) error {
	return m.Called(ctx, tx, apt).Error(0)
}

type ConsultationTypeRepository struct {
	mock.Mock
}

func (m *ConsultationTypeRepository) FindType(ctx context.Context, id uuid.UUID) (*model.ConsultationType, error) {
	args := m.Called(ctx, id)
	ct, _ := args.Get(0).(*model.ConsultationType)
	return ct, args.Error(1)
}

func (m *ConsultationTypeRepository) FindProfessionalOverride(ctx context.Context, professionalID, consultationTypeID uuid.UUID) (*model.ProfessionalConsultationType, error) {
	args := m.Called(ctx, professionalID, consultationTypeID)
	o, _ := args.Get(0).(*model.ProfessionalConsultationType)
	return o, args.Error(1)
}

type OutboxRepository struct {
	mock.Mock
}

func (m *OutboxRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, event *model.OutboxEvent) error {
	return m.Called(ctx, tx, event).Error(0)
}

func (m *OutboxRepository) GetPendingEventsWithLock(ctx context.Context, tx *sqlx.Tx, limit int) ([]*model.OutboxEvent, error) {
	args := m.Called(ctx, tx, limit)
	events, _ := args.Get(0).([]*model.OutboxEvent)
	return events, args.Error(1)
}

func (m *OutboxRepository) UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status model.OutboxStatus, errorMessage *string, retryAt *time.Time) error {
	return m.Called(ctx, tx, id, status, errorMessage, retryAt).Error(0)
}

func (m *OutboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// Transactor runs fn with a nil transaction. Set Err to make WithTx fail
// before fn is called.
type Transactor struct {
	Err   error
	Calls int
}

func (t *Transactor) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	t.Calls++
	if t.Err != nil {
		return t.Err
	}
	return fn(nil)
}
