package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/availability-api/internal/model"
)

const appointmentColumns = `
	id, clinic_id, professional_id, patient_id, consultation_type_id,
	date, start_time, end_time, status, notes, cancel_reason,
	created_at, updated_at`

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT` + appointmentColumns + ` FROM appointments WHERE id = $1`
	var appointment model.Appointment
	found, err := getOptional(ctx, r.db, &appointment, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &appointment, nil
}

func (r *appointmentRepository) ListForDay(ctx context.Context, professionalID uuid.UUID, date time.Time) ([]*model.Appointment, error) {
	query := `SELECT` + appointmentColumns + `
		FROM appointments
		WHERE professional_id = $1 AND date = $2
		ORDER BY start_time ASC
	`
	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, professionalID, date.Format(model.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// ListBookedIntervals returns the spans of every non-cancelled appointment of
// the professional on date, ordered by start time.
func (r *appointmentRepository) ListBookedIntervals(ctx context.Context, professionalID uuid.UUID, date time.Time) ([]model.BookedInterval, error) {
	query := `
		SELECT start_time, end_time
		FROM appointments
		WHERE professional_id = $1
		AND date = $2
		AND status <> 'cancelled'
		ORDER BY start_time ASC
	`
	var intervals []model.BookedInterval
	err := r.db.SelectContext(ctx, &intervals, query, professionalID, date.Format(model.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to list booked intervals: %w", err)
	}
	return intervals, nil
}

func (r *appointmentRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, clinic_id, professional_id, patient_id, consultation_type_id,
			date, start_time, end_time, status, notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	appointment.ID = uuid.New()
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = appointment.CreatedAt

	_, err := tx.ExecContext(ctx, query,
		appointment.ID,
		appointment.ClinicID,
		appointment.ProfessionalID,
		appointment.PatientID,
		appointment.ConsultationTypeID,
		appointment.Date.Format(model.DateLayout),
		appointment.StartTime,
		appointment.EndTime,
		appointment.Status,
		appointment.Notes,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to create appointment: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, appointment *model.Appointment) error {
	query := `
		UPDATE appointments
		SET status = $1, cancel_reason = $2, updated_at = $3
		WHERE id = $4
	`
	appointment.UpdatedAt = time.Now()

	result, err := tx.ExecContext(ctx, query,
		appointment.Status,
		appointment.CancelReason,
		appointment.UpdatedAt,
		appointment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	return expectAffected(result, "appointment not found")
}
