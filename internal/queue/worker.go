package queue

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/bozormarket/backend/pkg/logger"
)

// HandlerFunc processes one job. A nil return completes the job; an
// error schedules a retry (or dead-letters after the last attempt).
type HandlerFunc func(ctx context.Context, job *Job) error

// WorkerConfig tunes retry behavior and per-lane parallelism
type WorkerConfig struct {
	MaxRetries   int
	RetryBackoff time.Duration
	Concurrency  int
}

// Worker pulls jobs from the queue and dispatches them to the handler
// registered for each lane. Lanes are drained by independent goroutine
// pools, so one lane backing up does not block the others.
type Worker struct {
	queue    *Queue
	cfg      WorkerConfig
	handlers map[string]HandlerFunc
	logger   *logger.Logger
}

func NewWorker(q *Queue, cfg WorkerConfig, log *logger.Logger) *Worker {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Worker{
		queue:    q,
		cfg:      cfg,
		handlers: make(map[string]HandlerFunc),
		logger:   log,
	}
}

// Register binds a handler to a lane. Must be called before Run.
func (w *Worker) Register(lane string, handler HandlerFunc) {
	w.handlers[lane] = handler
}

// Run blocks until ctx is cancelled, consuming every registered lane
func (w *Worker) Run(ctx context.Context) {
	var wg sync.WaitGroup

	for lane := range w.handlers {
		wg.Add(1)
		go func(lane string) {
			defer wg.Done()
			w.moveDelayed(ctx, lane)
		}(lane)

		for i := 0; i < w.cfg.Concurrency; i++ {
			wg.Add(1)
			go func(lane string) {
				defer wg.Done()
				w.consume(ctx, lane)
			}(lane)
		}
	}

	w.logger.Infow("worker started", "lanes", len(w.handlers), "concurrency", w.cfg.Concurrency)
	wg.Wait()
}

// moveDelayed periodically promotes due delayed jobs into the ready list
func (w *Worker) moveDelayed(ctx context.Context, lane string) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.queue.promoteDue(ctx, lane); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Errorw("promoting delayed jobs failed", "lane", lane, "error", err)
			}
		}
	}
}

func (w *Worker) consume(ctx context.Context, lane string) {
	for {
		if ctx.Err() != nil {
			return
		}

		job, err := w.queue.pop(ctx, lane, time.Second)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Errorw("popping job failed", "lane", lane, "error", err)
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}

		w.process(ctx, job)
	}
}

func (w *Worker) process(ctx context.Context, job *Job) {
	handler := w.handlers[job.Lane]

	err := w.safeHandle(ctx, handler, job)
	if err == nil {
		w.logger.Debugw("job completed", "lane", job.Lane, "job_id", job.ID, "attempts", job.Attempts)
		return
	}

	job.Attempts++
	job.LastError = err.Error()

	delay, retry := w.nextRetry(job)
	if !retry {
		if dlErr := w.queue.deadLetter(ctx, job); dlErr != nil {
			w.logger.Errorw("dead-lettering failed, job is lost",
				"lane", job.Lane, "job_id", job.ID, "error", dlErr, "original_error", err)
			return
		}
		w.logger.Errorw("job permanently failed",
			"lane", job.Lane, "job_id", job.ID, "attempts", job.Attempts,
			"enqueued_at", job.EnqueuedAt, "error", err, "payload", string(job.Payload))
		return
	}

	if rqErr := w.queue.requeueDelayed(ctx, job, delay); rqErr != nil {
		w.logger.Errorw("requeueing job failed, job is lost",
			"lane", job.Lane, "job_id", job.ID, "error", rqErr, "original_error", err)
		return
	}
	w.logger.Warnw("job failed, retrying",
		"lane", job.Lane, "job_id", job.ID, "attempts", job.Attempts, "next_retry_in", delay, "error", err)
}

// safeHandle contains handler panics so a broken payload cannot take
// down the whole worker pool.
func (w *Worker) safeHandle(ctx context.Context, handler HandlerFunc, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(ctx, job)
}

// nextRetry decides the fate of a failed job: a backoff delay for the
// next attempt, or retry=false once attempts have reached the maximum.
func (w *Worker) nextRetry(job *Job) (time.Duration, bool) {
	if job.Attempts >= w.cfg.MaxRetries {
		return 0, false
	}
	return backoffDelay(w.cfg.RetryBackoff, job.Attempts), true
}

// backoffDelay computes an exponential backoff (base * 2^attempts) with
// ±20% jitter to avoid retry stampedes.
func backoffDelay(base time.Duration, attempts int) time.Duration {
	if attempts > 16 {
		attempts = 16
	}
	backoff := base * time.Duration(1<<attempts)
	jitterFactor := 0.8 + (rand.Float64() * 0.4)
	return time.Duration(float64(backoff) * jitterFactor)
}
