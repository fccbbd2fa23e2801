package model

import (
	"time"

	"github.com/google/uuid"
)

// WeeklySchedule is the recurring working-hours template of a professional
// for one weekday (0 = Sunday).
type WeeklySchedule struct {
	Base
	ClinicID            uuid.UUID  `db:"clinic_id" json:"clinic_id"`
	ProfessionalID      uuid.UUID  `db:"professional_id" json:"professional_id"`
	Weekday             int        `db:"weekday" json:"weekday"`
	StartTime           ClockTime  `db:"start_time" json:"start_time"`
	EndTime             ClockTime  `db:"end_time" json:"end_time"`
	LunchStart          *ClockTime `db:"lunch_start" json:"lunch_start,omitempty"`
	LunchEnd            *ClockTime `db:"lunch_end" json:"lunch_end,omitempty"`
	AppointmentDuration int        `db:"appointment_duration" json:"appointment_duration"`
	Active              bool       `db:"active" json:"active"`
}

// HasLunch is true only when both lunch bounds are configured.
func (s *WeeklySchedule) HasLunch() bool {
	return s.LunchStart != nil && s.LunchEnd != nil
}

// ScheduleException overrides the weekly template for one calendar date,
// either blocking the whole day or replacing the working hours.
type ScheduleException struct {
	Base
	ClinicID       uuid.UUID  `db:"clinic_id" json:"clinic_id"`
	ProfessionalID uuid.UUID  `db:"professional_id" json:"professional_id"`
	Date           time.Time  `db:"date" json:"date"`
	AllDay         bool       `db:"all_day" json:"all_day"`
	StartTime      *ClockTime `db:"start_time" json:"start_time,omitempty"`
	EndTime        *ClockTime `db:"end_time" json:"end_time,omitempty"`
	Reason         *string    `db:"reason" json:"reason,omitempty"`
}

type UpsertWeeklyScheduleRequest struct {
	ProfessionalID      uuid.UUID `json:"professional_id" validate:"required"`
	Weekday             *int      `json:"weekday" validate:"required,min=0,max=6"`
	StartTime           string    `json:"start_time" validate:"required,clock"`
	EndTime             string    `json:"end_time" validate:"required,clock"`
	LunchStart          *string   `json:"lunch_start" validate:"omitempty,clock"`
	LunchEnd            *string   `json:"lunch_end" validate:"omitempty,clock"`
	AppointmentDuration int       `json:"appointment_duration" validate:"required,min=5,max=480"`
	Active              *bool     `json:"active"`
}

type CreateScheduleExceptionRequest struct {
	ProfessionalID uuid.UUID `json:"professional_id" validate:"required"`
	Date           string    `json:"date" validate:"required,datetime=2006-01-02"`
	AllDay         bool      `json:"all_day"`
	StartTime      *string   `json:"start_time" validate:"omitempty,clock"`
	EndTime        *string   `json:"end_time" validate:"omitempty,clock"`
	Reason         *string   `json:"reason" validate:"omitempty,max=500"`
}

type ScheduleExceptionFilters struct {
	ProfessionalID uuid.UUID
	From           time.Time
	To             time.Time
}
