package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/availability-api/internal/repository/mocks"
	"github.com/jwalitptl/availability-api/pkg/logger"
	"github.com/jwalitptl/availability-api/pkg/metrics"
)

func TestOutboxCleanupWorker_Cleanup(t *testing.T) {
	repo := new(mocks.OutboxRepository)
	w := NewOutboxCleanupWorker(repo, 48*time.Hour, time.Hour, logger.NewNop(), metrics.New("test", nil))
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	repo.On("DeleteProcessedBefore", context.Background(), now.Add(-48*time.Hour)).Return(int64(12), nil).Once()

	rows, err := w.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), rows)
	repo.AssertExpectations(t)
}

func TestOutboxCleanupWorker_CleanupError(t *testing.T) {
	repo := new(mocks.OutboxRepository)
	w := NewOutboxCleanupWorker(repo, time.Hour, time.Hour, logger.NewNop(), metrics.New("test", nil))

	repo.On("DeleteProcessedBefore", mock.Anything, mock.AnythingOfType("time.Time")).Return(int64(0), errors.New("db down"))

	_, err := w.Cleanup(context.Background())
	assert.ErrorContains(t, err, "failed to cleanup outbox events")
}
