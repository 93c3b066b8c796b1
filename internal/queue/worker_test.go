package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bozormarket/backend/pkg/logger"
)

func TestBackoffDelayGrowsExponentiallyWithJitter(t *testing.T) {
	base := time.Second

	for attempts := 0; attempts < 6; attempts++ {
		expected := float64(base * time.Duration(1<<attempts))
		for i := 0; i < 50; i++ {
			delay := backoffDelay(base, attempts)
			assert.GreaterOrEqual(t, float64(delay), expected*0.8, "attempts=%d", attempts)
			assert.Less(t, float64(delay), expected*1.2, "attempts=%d", attempts)
		}
	}
}

func TestBackoffDelayCapsShiftAmount(t *testing.T) {
	// Huge attempt counts must not overflow the shift
	delay := backoffDelay(time.Millisecond, 1000)
	assert.Greater(t, delay, time.Duration(0))
	assert.LessOrEqual(t, delay, time.Duration(float64(time.Millisecond*(1<<16))*1.2))
}

func TestNextRetryDeadLettersAfterMaxAttempts(t *testing.T) {
	w := NewWorker(nil, WorkerConfig{MaxRetries: 3, RetryBackoff: time.Second}, logger.NewNop())

	job := &Job{Lane: "test", Attempts: 2}
	delay, retry := w.nextRetry(job)
	assert.True(t, retry)
	assert.Greater(t, delay, time.Duration(0))

	job.Attempts = 3
	_, retry = w.nextRetry(job)
	assert.False(t, retry, "a job at the retry limit must be dead-lettered")

	job.Attempts = 4
	_, retry = w.nextRetry(job)
	assert.False(t, retry)
}

func TestSafeHandleContainsPanics(t *testing.T) {
	w := NewWorker(nil, WorkerConfig{}, logger.NewNop())

	err := w.safeHandle(context.Background(), func(ctx context.Context, job *Job) error {
		panic("broken payload")
	}, &Job{Lane: "test"})

	assert.ErrorContains(t, err, "handler panic")
}

func TestJobUnmarshalDecodesPayload(t *testing.T) {
	job := &Job{Payload: []byte(`{"listing_id": 7}`)}

	var payload struct {
		ListingID uint `json:"listing_id"`
	}
	assert.NoError(t, job.Unmarshal(&payload))
	assert.Equal(t, uint(7), payload.ListingID)
}
