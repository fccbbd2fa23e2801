package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/availability-api/internal/model"
	"github.com/jwalitptl/availability-api/internal/repository/mocks"
	"github.com/jwalitptl/availability-api/pkg/logger"
	"github.com/jwalitptl/availability-api/pkg/messaging"
	"github.com/jwalitptl/availability-api/pkg/metrics"
)

type mockBroker struct {
	mock.Mock
}

func (m *mockBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	return m.Called(ctx, channel, message).Error(0)
}

func (m *mockBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	args := m.Called(ctx, channel)
	ch, _ := args.Get(0).(<-chan []byte)
	return ch, args.Error(1)
}

func (m *mockBroker) Close() error {
	return m.Called().Error(0)
}

var now = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func newProcessor(t *testing.T) (*OutboxProcessor, *mocks.OutboxRepository, *mockBroker) {
	t.Helper()
	repo := new(mocks.OutboxRepository)
	broker := new(mockBroker)
	p, err := NewOutboxProcessor(repo, &mocks.Transactor{}, broker, OutboxProcessorConfig{
		BatchSize:      10,
		PollInterval:   time.Second,
		RetryAttempts:  3,
		RetryDelay:     time.Minute,
		PublishRetries: 2,
		PublishBackoff: time.Millisecond,
	}, logger.NewNop(), metrics.New("test", nil))
	require.NoError(t, err)
	p.now = func() time.Time { return now }
	return p, repo, broker
}

func outboxEvent(retries int) *model.OutboxEvent {
	return &model.OutboxEvent{
		ID:         uuid.New(),
		EventType:  model.EventAppointmentBooked,
		Payload:    json.RawMessage(`{"start_time":"09:00"}`),
		Status:     model.OutboxStatusPending,
		RetryCount: retries,
	}
}

func TestNewOutboxProcessor_InvalidConfig(t *testing.T) {
	_, err := NewOutboxProcessor(nil, nil, nil, OutboxProcessorConfig{}, logger.NewNop(), metrics.New("test", nil))
	assert.Error(t, err)
}

func TestOutboxProcessor_PublishesAndMarksProcessed(t *testing.T) {
	p, repo, broker := newProcessor(t)
	event := outboxEvent(0)

	repo.On("GetPendingEventsWithLock", mock.Anything, mock.Anything, 10).Return([]*model.OutboxEvent{event}, nil)
	broker.On("Publish", mock.Anything, "availability.appointment.booked", messaging.Message{
		ID:      event.ID.String(),
		Type:    event.EventType,
		Payload: event.Payload,
	}).Return(nil).Once()
	repo.On("UpdateStatusTx", mock.Anything, mock.Anything, event.ID, model.OutboxStatusProcessed, (*string)(nil), (*time.Time)(nil)).Return(nil)

	n, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	repo.AssertExpectations(t)
	broker.AssertExpectations(t)
}

func TestOutboxProcessor_StatusWriteFailureNotCounted(t *testing.T) {
	p, repo, broker := newProcessor(t)
	event := outboxEvent(0)

	repo.On("GetPendingEventsWithLock", mock.Anything, mock.Anything, 10).Return([]*model.OutboxEvent{event}, nil)
	broker.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	repo.On("UpdateStatusTx", mock.Anything, mock.Anything, event.ID, model.OutboxStatusProcessed, (*string)(nil), (*time.Time)(nil)).
		Return(errors.New("connection reset"))

	n, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0.0, testutil.ToFloat64(p.metrics.OutboxEventsProcessed))
	broker.AssertExpectations(t)
}

func TestOutboxProcessor_RetriesWithinPoll(t *testing.T) {
	p, repo, broker := newProcessor(t)
	event := outboxEvent(0)

	repo.On("GetPendingEventsWithLock", mock.Anything, mock.Anything, 10).Return([]*model.OutboxEvent{event}, nil)
	broker.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("timeout")).Once()
	broker.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	repo.On("UpdateStatusTx", mock.Anything, mock.Anything, event.ID, model.OutboxStatusProcessed, mock.Anything, mock.Anything).Return(nil)

	n, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	broker.AssertNumberOfCalls(t, "Publish", 2)
}

func TestOutboxProcessor_SchedulesRetry(t *testing.T) {
	p, repo, broker := newProcessor(t)
	event := outboxEvent(1)

	repo.On("GetPendingEventsWithLock", mock.Anything, mock.Anything, 10).Return([]*model.OutboxEvent{event}, nil)
	broker.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("timeout"))
	expectedRetryAt := now.Add(2 * time.Minute)
	repo.On("UpdateStatusTx", mock.Anything, mock.Anything, event.ID, model.OutboxStatusRetry,
		mock.AnythingOfType("*string"), &expectedRetryAt).Return(nil)

	n, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	broker.AssertNumberOfCalls(t, "Publish", 3)
	repo.AssertExpectations(t)
}

func TestOutboxProcessor_MarksFailedAfterLastAttempt(t *testing.T) {
	p, repo, broker := newProcessor(t)
	event := outboxEvent(2)

	repo.On("GetPendingEventsWithLock", mock.Anything, mock.Anything, 10).Return([]*model.OutboxEvent{event}, nil)
	broker.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("timeout"))
	repo.On("UpdateStatusTx", mock.Anything, mock.Anything, event.ID, model.OutboxStatusFailed,
		mock.AnythingOfType("*string"), (*time.Time)(nil)).Return(nil)

	_, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestOutboxProcessor_OpenCircuitSkipsRetries(t *testing.T) {
	p, repo, broker := newProcessor(t)
	event := outboxEvent(0)

	repo.On("GetPendingEventsWithLock", mock.Anything, mock.Anything, 10).Return([]*model.OutboxEvent{event}, nil)
	broker.On("Publish", mock.Anything, mock.Anything, mock.Anything).
		Return(fmt.Errorf("failed to publish: %w", gobreaker.ErrOpenState))
	repo.On("UpdateStatusTx", mock.Anything, mock.Anything, event.ID, model.OutboxStatusRetry, mock.Anything, mock.Anything).Return(nil)

	_, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)
	broker.AssertNumberOfCalls(t, "Publish", 1)
}

func TestOutboxProcessor_FetchError(t *testing.T) {
	p, repo, _ := newProcessor(t)
	repo.On("GetPendingEventsWithLock", mock.Anything, mock.Anything, 10).Return(nil, errors.New("deadlock"))

	_, err := p.ProcessBatch(context.Background())
	assert.ErrorContains(t, err, "failed to get pending events")
}
