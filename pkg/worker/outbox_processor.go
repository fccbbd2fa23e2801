package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"

	"github.com/jwalitptl/availability-api/internal/model"
	"github.com/jwalitptl/availability-api/internal/repository"
	"github.com/jwalitptl/availability-api/pkg/logger"
	"github.com/jwalitptl/availability-api/pkg/messaging"
	"github.com/jwalitptl/availability-api/pkg/metrics"
)

type OutboxProcessorConfig struct {
	BatchSize    int
	PollInterval time.Duration
	// RetryAttempts bounds how many polls may retry one event before it is
	// marked failed.
	RetryAttempts int
	// RetryDelay is the base of the exponential delay between polls.
	RetryDelay time.Duration
	// PublishRetries are immediate retries within a single poll.
	PublishRetries int
	PublishBackoff time.Duration
}

type OutboxProcessor struct {
	repo    repository.OutboxRepository
	tx      repository.Transactor
	broker  messaging.Broker
	config  OutboxProcessorConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	tx repository.Transactor,
	broker messaging.Broker,
	config OutboxProcessorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) (*OutboxProcessor, error) {
	if config.BatchSize <= 0 {
		return nil, errors.New("batch size must be greater than 0")
	}
	if config.PollInterval <= 0 {
		return nil, errors.New("poll interval must be greater than 0")
	}
	if config.RetryAttempts <= 0 {
		return nil, errors.New("retry attempts must be greater than 0")
	}
	if config.RetryDelay <= 0 {
		return nil, errors.New("retry delay must be greater than 0")
	}
	if config.PublishBackoff <= 0 {
		config.PublishBackoff = 100 * time.Millisecond
	}

	return &OutboxProcessor{
		repo:    repo,
		tx:      tx,
		broker:  broker,
		config:  config,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}, nil
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("Starting outbox processor",
		"batch_size", p.config.BatchSize,
		"poll_interval", p.config.PollInterval.String())

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Shutting down outbox processor")
			return
		case <-ticker.C:
			if _, err := p.ProcessBatch(ctx); err != nil {
				p.logger.Error(err, "Failed to process events")
			}
		}
	}
}

// ProcessBatch publishes one batch of due events and returns how many were
// published. Row locks are held until every status is written back.
func (p *OutboxProcessor) ProcessBatch(ctx context.Context) (int, error) {
	timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	published := 0
	err := p.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		events, err := p.repo.GetPendingEventsWithLock(ctx, tx, p.config.BatchSize)
		p.metrics.DatabaseOperations.WithLabelValues("get_pending_events", metrics.Status(err)).Inc()
		if err != nil {
			return fmt.Errorf("failed to get pending events: %w", err)
		}

		for _, event := range events {
			if err := p.processEvent(ctx, tx, event); err != nil {
				p.logger.Error(err, "Failed to process event",
					"event_id", event.ID.String(),
					"event_type", event.EventType)
				continue
			}
			published++
		}
		return nil
	})

	return published, err
}

func (p *OutboxProcessor) processEvent(ctx context.Context, tx *sqlx.Tx, event *model.OutboxEvent) error {
	publishErr := p.publish(ctx, event)
	if publishErr == nil {
		// The row stays pending and is published again on a later poll:
		// delivery is at least once.
		if err := p.repo.UpdateStatusTx(ctx, tx, event.ID, model.OutboxStatusProcessed, nil, nil); err != nil {
			return fmt.Errorf("event published but not marked processed: %w", err)
		}
		p.metrics.OutboxEventsProcessed.Inc()
		return nil
	}

	errStr := publishErr.Error()
	if event.RetryCount+1 >= p.config.RetryAttempts {
		p.metrics.OutboxEventsFailed.Inc()
		if err := p.repo.UpdateStatusTx(ctx, tx, event.ID, model.OutboxStatusFailed, &errStr, nil); err != nil {
			p.logger.Error(err, "Failed to update event status", "event_id", event.ID.String())
		}
		return publishErr
	}

	retryAt := p.now().Add(p.config.RetryDelay << uint(event.RetryCount))
	p.metrics.OutboxRetries.WithLabelValues(event.EventType).Inc()
	if err := p.repo.UpdateStatusTx(ctx, tx, event.ID, model.OutboxStatusRetry, &errStr, &retryAt); err != nil {
		p.logger.Error(err, "Failed to update event status", "event_id", event.ID.String())
	}
	return publishErr
}

func (p *OutboxProcessor) publish(ctx context.Context, event *model.OutboxEvent) error {
	msg := messaging.Message{
		ID:      event.ID.String(),
		Type:    event.EventType,
		Payload: event.Payload,
	}

	op := func() error {
		err := p.broker.Publish(ctx, messaging.Channel(event.EventType), msg)
		if errors.Is(err, gobreaker.ErrOpenState) {
			return backoff.Permanent(err)
		}
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.config.PublishBackoff
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(p.config.PublishRetries)), ctx)
	return backoff.RetryNotify(op, policy, func(err error, wait time.Duration) {
		p.logger.Debug("Retrying event publish",
			"event_id", event.ID.String(),
			"wait", wait.String(),
			"error", err.Error())
	})
}
