package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/bozormarket/backend/pkg/logger"
)

// Job is the envelope stored in Redis. Payload is the lane-specific
// JSON body; Attempts counts completed processing attempts.
type Job struct {
	ID         string          `json:"id"`
	Lane       string          `json:"lane"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	LastError  string          `json:"last_error,omitempty"`
}

// Unmarshal decodes the job payload into v
func (j *Job) Unmarshal(v interface{}) error {
	return json.Unmarshal(j.Payload, v)
}

type enqueueOptions struct {
	delay time.Duration
}

// Option configures a single Enqueue call
type Option func(*enqueueOptions)

// WithDelay makes the job eligible for delivery only after d has passed
func WithDelay(d time.Duration) Option {
	return func(o *enqueueOptions) { o.delay = d }
}

// DelayOf resolves the delivery delay configured by a set of options
func DelayOf(opts ...Option) time.Duration {
	var options enqueueOptions
	for _, opt := range opts {
		opt(&options)
	}
	return options.delay
}

// Queue is a durable Redis-backed job queue with named lanes. Each lane
// has a ready list, a delayed sorted set (scored by deliver-after time)
// and a dead-letter list; lanes drain independently so a backlog in one
// cannot starve another. Delivery is at-least-once: handlers must
// tolerate redelivery.
type Queue struct {
	client *redis.Client
	logger *logger.Logger
}

func New(client *redis.Client, log *logger.Logger) *Queue {
	return &Queue{client: client, logger: log}
}

func readyKey(lane string) string   { return "jobs:" + lane + ":ready" }
func delayedKey(lane string) string { return "jobs:" + lane + ":delayed" }
func deadKey(lane string) string    { return "jobs:" + lane + ":dead" }

// Enqueue adds a job to a lane and returns the job id
func (q *Queue) Enqueue(ctx context.Context, lane string, payload interface{}, opts ...Option) (string, error) {
	var options enqueueOptions
	for _, opt := range opts {
		opt(&options)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	job := Job{
		ID:         uuid.NewString(),
		Lane:       lane,
		Payload:    body,
		EnqueuedAt: time.Now(),
	}
	data, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("marshal job: %w", err)
	}

	if options.delay > 0 {
		score := float64(time.Now().Add(options.delay).UnixMilli())
		if err := q.client.ZAdd(ctx, delayedKey(lane), redis.Z{Score: score, Member: data}).Err(); err != nil {
			return "", fmt.Errorf("enqueue delayed: %w", err)
		}
	} else {
		if err := q.client.LPush(ctx, readyKey(lane), data).Err(); err != nil {
			return "", fmt.Errorf("enqueue: %w", err)
		}
	}

	q.logger.Debugw("job enqueued", "lane", lane, "job_id", job.ID, "delay", options.delay)
	return job.ID, nil
}

// pop blocks up to timeout waiting for the next ready job in the lane.
// Returns nil, nil when the wait times out.
func (q *Queue) pop(ctx context.Context, lane string, timeout time.Duration) (*Job, error) {
	res, err := q.client.BRPop(ctx, timeout, readyKey(lane)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	// BRPop returns [key, value]
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP reply length %d", len(res))
	}

	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("unmarshal job: %w", err)
	}
	return &job, nil
}

// promoteDue moves jobs whose deliver-after time has passed from the
// delayed set into the ready list.
func (q *Queue) promoteDue(ctx context.Context, lane string) error {
	now := fmt.Sprintf("%d", time.Now().UnixMilli())
	entries, err := q.client.ZRangeByScore(ctx, delayedKey(lane), &redis.ZRangeBy{
		Min: "-inf", Max: now, Count: 100,
	}).Result()
	if err != nil {
		return err
	}

	for _, entry := range entries {
		// Remove first so two movers never promote the same job twice
		removed, err := q.client.ZRem(ctx, delayedKey(lane), entry).Result()
		if err != nil {
			return err
		}
		if removed == 0 {
			continue
		}
		if err := q.client.LPush(ctx, readyKey(lane), entry).Err(); err != nil {
			return err
		}
	}
	return nil
}

// requeueDelayed puts a failed job back on the lane with a deliver-after delay
func (q *Queue) requeueDelayed(ctx context.Context, job *Job, delay time.Duration) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	score := float64(time.Now().Add(delay).UnixMilli())
	return q.client.ZAdd(ctx, delayedKey(job.Lane), redis.Z{Score: score, Member: data}).Err()
}

// deadLetter moves an exhausted job to the lane's dead-letter list
func (q *Queue) deadLetter(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	return q.client.LPush(ctx, deadKey(job.Lane), data).Err()
}
