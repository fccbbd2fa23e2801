package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/availability-api/internal/model"
	"github.com/jwalitptl/availability-api/internal/repository"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

var templateRowColumns = []string{
	"id", "clinic_id", "professional_id", "weekday", "start_time", "end_time",
	"lunch_start", "lunch_end", "appointment_duration", "active", "created_at", "updated_at",
}

func TestScheduleRepository_FindActiveTemplate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScheduleRepository(db)

	profID := uuid.New()
	now := time.Now()
	rows := sqlmock.NewRows(templateRowColumns).
		AddRow(uuid.New().String(), uuid.New().String(), profID.String(), 1, "08:00:00", "18:00:00",
			"12:00:00", "13:00:00", 30, true, now, now)

	mock.ExpectQuery("FROM weekly_schedules").
		WithArgs(profID, int(time.Monday)).
		WillReturnRows(rows)

	tpl, err := repo.FindActiveTemplate(context.Background(), profID, time.Monday)
	require.NoError(t, err)
	require.NotNil(t, tpl)
	assert.Equal(t, model.NewClockTime(8, 0), tpl.StartTime)
	assert.Equal(t, model.NewClockTime(18, 0), tpl.EndTime)
	require.True(t, tpl.HasLunch())
	assert.Equal(t, model.NewClockTime(12, 0), *tpl.LunchStart)
	assert.Equal(t, 30, tpl.AppointmentDuration)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepository_FindActiveTemplate_NoLunch(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScheduleRepository(db)

	profID := uuid.New()
	now := time.Now()
	rows := sqlmock.NewRows(templateRowColumns).
		AddRow(uuid.New().String(), uuid.New().String(), profID.String(), 2, "09:00:00", "17:00:00",
			nil, nil, 60, true, now, now)
	mock.ExpectQuery("FROM weekly_schedules").WillReturnRows(rows)

	tpl, err := repo.FindActiveTemplate(context.Background(), profID, time.Tuesday)
	require.NoError(t, err)
	require.NotNil(t, tpl)
	assert.False(t, tpl.HasLunch())
}

func TestScheduleRepository_FindActiveTemplate_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScheduleRepository(db)

	mock.ExpectQuery("FROM weekly_schedules").WillReturnRows(sqlmock.NewRows(templateRowColumns))

	tpl, err := repo.FindActiveTemplate(context.Background(), uuid.New(), time.Sunday)
	require.NoError(t, err)
	assert.Nil(t, tpl)
}

func TestScheduleRepository_FindException_Error(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScheduleRepository(db)

	mock.ExpectQuery("FROM schedule_exceptions").WillReturnError(errors.New("permission denied"))

	exc, err := repo.FindException(context.Background(), uuid.New(), time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC))
	assert.Error(t, err)
	assert.Nil(t, exc)
}

func TestScheduleRepository_FindException(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScheduleRepository(db)

	profID := uuid.New()
	date := time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC)
	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "clinic_id", "professional_id", "date", "all_day", "start_time", "end_time",
		"reason", "created_at", "updated_at",
	}).AddRow(uuid.New().String(), uuid.New().String(), profID.String(), date, true, nil, nil, "Christmas", now, now)

	mock.ExpectQuery("FROM schedule_exceptions").
		WithArgs(profID, "2026-12-25").
		WillReturnRows(rows)

	exc, err := repo.FindException(context.Background(), profID, date)
	require.NoError(t, err)
	require.NotNil(t, exc)
	assert.True(t, exc.AllDay)
	assert.Nil(t, exc.StartTime)
	require.NotNil(t, exc.Reason)
	assert.Equal(t, "Christmas", *exc.Reason)
}

func TestScheduleRepository_CreateExceptionTx_Duplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScheduleRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO schedule_exceptions").
		WillReturnError(&pq.Error{Code: uniqueViolation})
	mock.ExpectRollback()

	err := NewTransactor(db).WithTx(context.Background(), func(tx *sqlx.Tx) error {
		return repo.CreateExceptionTx(context.Background(), tx, &model.ScheduleException{
			ProfessionalID: uuid.New(),
			Date:           time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC),
			AllDay:         true,
		})
	})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepository_DeleteTemplateTx_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScheduleRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM weekly_schedules").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := NewTransactor(db).WithTx(context.Background(), func(tx *sqlx.Tx) error {
		return repo.DeleteTemplateTx(context.Background(), tx, uuid.New())
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
