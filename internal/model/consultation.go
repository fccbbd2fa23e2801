package model

import (
	"github.com/google/uuid"
)

type ConsultationType struct {
	Base
	ClinicID        uuid.UUID `db:"clinic_id" json:"clinic_id"`
	Name            string    `db:"name" json:"name"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	Price           float64   `db:"price" json:"price"`
	Active          bool      `db:"active" json:"active"`
}

// ProfessionalConsultationType overrides duration and price of a
// consultation type for a single professional. Nil fields inherit.
type ProfessionalConsultationType struct {
	ProfessionalID     uuid.UUID `db:"professional_id" json:"professional_id"`
	ConsultationTypeID uuid.UUID `db:"consultation_type_id" json:"consultation_type_id"`
	DurationMinutes    *int      `db:"duration_minutes" json:"duration_minutes,omitempty"`
	Price              *float64  `db:"price" json:"price,omitempty"`
}
