package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusNoShow    AppointmentStatus = "no_show"
)

// Blocking reports whether an appointment in this status occupies its slot.
func (s AppointmentStatus) Blocking() bool {
	return s != AppointmentStatusCancelled
}

type Appointment struct {
	Base
	ClinicID           uuid.UUID         `db:"clinic_id" json:"clinic_id"`
	ProfessionalID     uuid.UUID         `db:"professional_id" json:"professional_id"`
	PatientID          uuid.UUID         `db:"patient_id" json:"patient_id"`
	ConsultationTypeID *uuid.UUID        `db:"consultation_type_id" json:"consultation_type_id,omitempty"`
	Date               time.Time         `db:"date" json:"date"`
	StartTime          ClockTime         `db:"start_time" json:"start_time"`
	EndTime            ClockTime         `db:"end_time" json:"end_time"`
	Status             AppointmentStatus `db:"status" json:"status"`
	Notes              string            `db:"notes" json:"notes,omitempty"`
	CancelReason       *string           `db:"cancel_reason" json:"cancel_reason,omitempty"`
}

type CreateAppointmentRequest struct {
	ProfessionalID     uuid.UUID  `json:"professional_id" validate:"required"`
	PatientID          uuid.UUID  `json:"patient_id" validate:"required"`
	ConsultationTypeID *uuid.UUID `json:"consultation_type_id"`
	Date               string     `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime          string     `json:"start_time" validate:"required,clock"`
	DurationMinutes    int        `json:"duration_minutes" validate:"omitempty,min=5,max=480"`
	Notes              string     `json:"notes" validate:"max=1000"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type UpdateAppointmentStatusRequest struct {
	Status AppointmentStatus `json:"status" validate:"required,oneof=confirmed completed no_show"`
}

// BookedInterval is the occupied span of a non-cancelled appointment.
type BookedInterval struct {
	StartTime ClockTime `db:"start_time"`
	EndTime   ClockTime `db:"end_time"`
}
