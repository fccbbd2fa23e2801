package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/availability-api/internal/model"
)

const templateColumns = `
	id, clinic_id, professional_id, weekday, start_time, end_time,
	lunch_start, lunch_end, appointment_duration, active, created_at, updated_at`

const exceptionColumns = `
	id, clinic_id, professional_id, date, all_day, start_time, end_time,
	reason, created_at, updated_at`

func (r *scheduleRepository) FindActiveTemplate(ctx context.Context, professionalID uuid.UUID, weekday time.Weekday) (*model.WeeklySchedule, error) {
	query := `SELECT` + templateColumns + `
		FROM weekly_schedules
		WHERE professional_id = $1 AND weekday = $2 AND active = true
		LIMIT 1
	`
	var tpl model.WeeklySchedule
	found, err := getOptional(ctx, r.db, &tpl, query, professionalID, int(weekday))
	if err != nil {
		return nil, fmt.Errorf("failed to find weekly schedule: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &tpl, nil
}

func (r *scheduleRepository) FindException(ctx context.Context, professionalID uuid.UUID, date time.Time) (*model.ScheduleException, error) {
	query := `SELECT` + exceptionColumns + `
		FROM schedule_exceptions
		WHERE professional_id = $1 AND date = $2
		LIMIT 1
	`
	var exc model.ScheduleException
	found, err := getOptional(ctx, r.db, &exc, query, professionalID, date.Format(model.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to find schedule exception: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &exc, nil
}

func (r *scheduleRepository) GetTemplate(ctx context.Context, id uuid.UUID) (*model.WeeklySchedule, error) {
	query := `SELECT` + templateColumns + ` FROM weekly_schedules WHERE id = $1`
	var tpl model.WeeklySchedule
	found, err := getOptional(ctx, r.db, &tpl, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get weekly schedule: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &tpl, nil
}

func (r *scheduleRepository) ListTemplates(ctx context.Context, clinicID, professionalID uuid.UUID) ([]*model.WeeklySchedule, error) {
	query := `SELECT` + templateColumns + `
		FROM weekly_schedules
		WHERE clinic_id = $1 AND professional_id = $2
		ORDER BY weekday ASC, active DESC
	`
	var templates []*model.WeeklySchedule
	if err := r.db.SelectContext(ctx, &templates, query, clinicID, professionalID); err != nil {
		return nil, fmt.Errorf("failed to list weekly schedules: %w", err)
	}
	return templates, nil
}

// UpsertTemplateTx inserts the template, or updates it in place when a row
// with the same id already exists.
func (r *scheduleRepository) UpsertTemplateTx(ctx context.Context, tx *sqlx.Tx, tpl *model.WeeklySchedule) error {
	query := `
		INSERT INTO weekly_schedules (
			id, clinic_id, professional_id, weekday, start_time, end_time,
			lunch_start, lunch_end, appointment_duration, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			lunch_start = EXCLUDED.lunch_start,
			lunch_end = EXCLUDED.lunch_end,
			appointment_duration = EXCLUDED.appointment_duration,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
	`
	now := time.Now()
	if tpl.ID == uuid.Nil {
		tpl.ID = uuid.New()
	}
	if tpl.CreatedAt.IsZero() {
		tpl.CreatedAt = now
	}
	tpl.UpdatedAt = now

	_, err := tx.ExecContext(ctx, query,
		tpl.ID,
		tpl.ClinicID,
		tpl.ProfessionalID,
		tpl.Weekday,
		tpl.StartTime,
		tpl.EndTime,
		tpl.LunchStart,
		tpl.LunchEnd,
		tpl.AppointmentDuration,
		tpl.Active,
		tpl.CreatedAt,
		tpl.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to upsert weekly schedule: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to upsert weekly schedule: %w", err)
	}
	return nil
}

func (r *scheduleRepository) DeactivateOtherTemplatesTx(ctx context.Context, tx *sqlx.Tx, tpl *model.WeeklySchedule) error {
	query := `
		UPDATE weekly_schedules
		SET active = false, updated_at = NOW()
		WHERE professional_id = $1 AND weekday = $2 AND active = true AND id <> $3
	`
	if _, err := tx.ExecContext(ctx, query, tpl.ProfessionalID, tpl.Weekday, tpl.ID); err != nil {
		return fmt.Errorf("failed to deactivate weekly schedules: %w", err)
	}
	return nil
}

func (r *scheduleRepository) DeleteTemplateTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM weekly_schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete weekly schedule: %w", err)
	}
	return expectAffected(result, "weekly schedule not found")
}

func (r *scheduleRepository) GetException(ctx context.Context, id uuid.UUID) (*model.ScheduleException, error) {
	query := `SELECT` + exceptionColumns + ` FROM schedule_exceptions WHERE id = $1`
	var exc model.ScheduleException
	found, err := getOptional(ctx, r.db, &exc, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule exception: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &exc, nil
}

func (r *scheduleRepository) ListExceptions(ctx context.Context, clinicID uuid.UUID, filters *model.ScheduleExceptionFilters) ([]*model.ScheduleException, error) {
	query := `SELECT` + exceptionColumns + `
		FROM schedule_exceptions
		WHERE clinic_id = $1
	`
	args := []interface{}{clinicID}
	argCount := 2

	if filters != nil {
		if filters.ProfessionalID != uuid.Nil {
			query += fmt.Sprintf(" AND professional_id = $%d", argCount)
			args = append(args, filters.ProfessionalID)
			argCount++
		}
		if !filters.From.IsZero() {
			query += fmt.Sprintf(" AND date >= $%d", argCount)
			args = append(args, filters.From.Format(model.DateLayout))
			argCount++
		}
		if !filters.To.IsZero() {
			query += fmt.Sprintf(" AND date <= $%d", argCount)
			args = append(args, filters.To.Format(model.DateLayout))
		}
	}

	query += " ORDER BY date ASC"

	var exceptions []*model.ScheduleException
	if err := r.db.SelectContext(ctx, &exceptions, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list schedule exceptions: %w", err)
	}
	return exceptions, nil
}

func (r *scheduleRepository) CreateExceptionTx(ctx context.Context, tx *sqlx.Tx, exc *model.ScheduleException) error {
	query := `
		INSERT INTO schedule_exceptions (
			id, clinic_id, professional_id, date, all_day, start_time, end_time,
			reason, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	exc.ID = uuid.New()
	exc.CreatedAt = time.Now()
	exc.UpdatedAt = exc.CreatedAt

	_, err := tx.ExecContext(ctx, query,
		exc.ID,
		exc.ClinicID,
		exc.ProfessionalID,
		exc.Date.Format(model.DateLayout),
		exc.AllDay,
		exc.StartTime,
		exc.EndTime,
		exc.Reason,
		exc.CreatedAt,
		exc.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to create schedule exception: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to create schedule exception: %w", err)
	}
	return nil
}

func (r *scheduleRepository) DeleteExceptionTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM schedule_exceptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule exception: %w", err)
	}
	return expectAffected(result, "schedule exception not found")
}
