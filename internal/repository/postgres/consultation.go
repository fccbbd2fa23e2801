package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/availability-api/internal/model"
)

func (r *consultationTypeRepository) FindType(ctx context.Context, id uuid.UUID) (*model.ConsultationType, error) {
	query := `
		SELECT id, clinic_id, name, duration_minutes, price, active, created_at, updated_at
		FROM consultation_types
		WHERE id = $1
	`
	var ct model.ConsultationType
	found, err := getOptional(ctx, r.db, &ct, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find consultation type: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &ct, nil
}

func (r *consultationTypeRepository) FindProfessionalOverride(ctx context.Context, professionalID, consultationTypeID uuid.UUID) (*model.ProfessionalConsultationType, error) {
	query := `
		SELECT professional_id, consultation_type_id, duration_minutes, price
		FROM professional_consultation_types
		WHERE professional_id = $1 AND consultation_type_id = $2
	`
	var override model.ProfessionalConsultationType
	found, err := getOptional(ctx, r.db, &override, query, professionalID, consultationTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to find professional consultation type: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &override, nil
}
