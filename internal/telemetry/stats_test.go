package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(t *testing.T, repo *MemoryRepository, kind EventType, md EventMetadata) {
	t.Helper()
	require.NoError(t, repo.RecordEvent(kind, md))
}

func attemptMD(method string, processingMS float64) EventMetadata {
	return EventMetadata{"task_id": "task_1", "method": method, "processing_ms": processingMS, "confidence": 0.8}
}

func TestCalculateStats_VerificationFunnel(t *testing.T) {
	repo := NewMemoryRepository()

	record(t, repo, EventTaskCreated, EventMetadata{"task_id": "task_1", "method": "PHOTO"})
	record(t, repo, EventTaskCreated, EventMetadata{"task_id": "task_2", "method": "QR_CODE"})

	// task_1: photo fails once, retried, then succeeds.
	record(t, repo, EventVerifyStarted, attemptMD("PHOTO", 0))
	record(t, repo, EventVerifyFailed, attemptMD("PHOTO", 3000))
	record(t, repo, EventVerifyRetried, EventMetadata{"task_id": "task_1", "method": "PHOTO"})
	record(t, repo, EventVerifyStarted, attemptMD("PHOTO", 0))
	record(t, repo, EventVerifySucceeded, attemptMD("PHOTO", 2000))
	record(t, repo, EventTaskDeleted, EventMetadata{"task_id": "task_1", "method": "PHOTO"})

	// task_2: QR attempt cancelled mid-flight.
	record(t, repo, EventVerifyStarted, attemptMD("QR_CODE", 0))
	record(t, repo, EventVerifyCancelled, EventMetadata{"task_id": "task_2", "method": "QR_CODE"})

	events, err := repo.GetEvents(time.Time{}, nil)
	require.NoError(t, err)

	stats, err := CalculateStats(events, time.Now().AddDate(0, 0, -7))
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TasksCreated)
	assert.Equal(t, 1, stats.TasksVerified)
	assert.Equal(t, 3, stats.VerifyAttempts)
	assert.Equal(t, 1, stats.VerifyFailures)
	assert.Equal(t, 1, stats.Retries)
	assert.Equal(t, 1, stats.Cancellations)
	assert.Equal(t, 2, stats.AttemptsByKind["PHOTO"])
	assert.Equal(t, 1, stats.AttemptsByKind["QR_CODE"])
	assert.Equal(t, 1, stats.FailuresByKind["PHOTO"])
	assert.InDelta(t, 2500, stats.AvgProcessingMS, 0.001)
	assert.Equal(t, 2, stats.EventCounts[EventTaskCreated])
}

func TestCalculateStats_EmptyInput(t *testing.T) {
	stats, err := CalculateStats(nil, time.Now())
	require.NoError(t, err)
	assert.Zero(t, stats.VerifyAttempts)
	assert.Zero(t, stats.AvgProcessingMS)
}

func TestMemoryRepository_SinceAndTypeFilter(t *testing.T) {
	repo := NewMemoryRepository()
	record(t, repo, EventTaskCreated, EventMetadata{"task_id": "task_1"})
	record(t, repo, EventVerifyStarted, EventMetadata{"task_id": "task_1"})

	all, err := repo.GetEvents(time.Time{}, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyCreated, err := repo.GetEvents(time.Time{}, []EventType{EventTaskCreated})
	require.NoError(t, err)
	require.Len(t, onlyCreated, 1)
	assert.Equal(t, EventTaskCreated, onlyCreated[0].Type)

	none, err := repo.GetEvents(time.Now().Add(time.Hour), nil)
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, repo.Clear())
	cleared, err := repo.GetEvents(time.Time{}, nil)
	require.NoError(t, err)
	assert.Empty(t, cleared)
}
