package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/availability-api/internal/model"
	"github.com/jwalitptl/availability-api/internal/repository"
	"github.com/jwalitptl/availability-api/pkg/logger"
)

// Recorder writes domain events to the outbox inside the caller's
// transaction, so an event exists if and only if its change was committed.
type Recorder interface {
	RecordTx(ctx context.Context, tx *sqlx.Tx, eventType string, payload interface{}) error
}

type EventService struct {
	outboxRepo repository.OutboxRepository
	logger     *logger.Logger
}

func NewEventService(outboxRepo repository.OutboxRepository, log *logger.Logger) *EventService {
	return &EventService{
		outboxRepo: outboxRepo,
		logger:     log,
	}
}

func (s *EventService) RecordTx(ctx context.Context, tx *sqlx.Tx, eventType string, payload interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	event := &model.OutboxEvent{
		EventType: eventType,
		Payload:   payloadJSON,
	}
	if err := s.outboxRepo.CreateTx(ctx, tx, event); err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}

	s.logger.Debug("Recorded outbox event", "event_id", event.ID.String(), "event_type", eventType)
	return nil
}
