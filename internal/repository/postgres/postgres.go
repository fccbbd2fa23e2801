package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/availability-api/internal/repository"
)

type scheduleRepository struct {
	BaseRepository
}

type appointmentRepository struct {
	BaseRepository
}

type consultationTypeRepository struct {
	BaseRepository
}

type outboxRepository struct {
	BaseRepository
}

func NewScheduleRepository(db *sqlx.DB) repository.ScheduleRepository {
	return &scheduleRepository{NewBaseRepository(db)}
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{NewBaseRepository(db)}
}

func NewConsultationTypeRepository(db *sqlx.DB) repository.ConsultationTypeRepository {
	return &consultationTypeRepository{NewBaseRepository(db)}
}

func NewOutboxRepository(db *sqlx.DB) repository.OutboxRepository {
	return &outboxRepository{NewBaseRepository(db)}
}

// NewTransactor exposes BaseRepository.WithTx to the service layer.
func NewTransactor(db *sqlx.DB) repository.Transactor {
	base := NewBaseRepository(db)
	return &base
}
