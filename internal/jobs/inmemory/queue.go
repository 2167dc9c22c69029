package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/statement-extractor/internal/jobs"
	"github.com/dvloznov/statement-extractor/internal/logger"
)

// Queue is an in-memory implementation of job publisher and consumer.
// It uses Go channels for job distribution and is safe for concurrent use.
// This implementation is suitable for single-instance deployments and testing.
type Queue struct {
	jobChan    chan *jobs.ExtractStatementJob
	closeChan  chan struct{}
	wg         sync.WaitGroup
	mu         sync.RWMutex
	store      jobs.JobStore
	closed     bool
	workers    int
	maxRetries int
	backoff    time.Duration
	jobTimeout time.Duration
	retryable  func(error) bool
}

// Options configures a Queue.
type Options struct {
	// BufferSize determines how many jobs can be queued before publishing blocks.
	BufferSize int
	// Workers is the number of concurrent workers; values below 1 mean 1.
	Workers int
	// MaxRetries applies to jobs published without their own limit.
	MaxRetries int
	// Backoff is multiplied by the retry count before a job is re-enqueued.
	// Zero means one second.
	Backoff time.Duration
	// JobTimeout bounds a single attempt. Zero means no limit.
	JobTimeout time.Duration
	// Retryable decides whether a failed attempt is retried. Nil retries
	// every failure while attempts remain.
	Retryable func(error) bool
}

// NewQueue creates a new in-memory job queue.
func NewQueue(opts Options, store jobs.JobStore) *Queue {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	if opts.Retryable == nil {
		opts.Retryable = func(error) bool { return true }
	}
	return &Queue{
		jobChan:    make(chan *jobs.ExtractStatementJob, opts.BufferSize),
		closeChan:  make(chan struct{}),
		store:      store,
		workers:    opts.Workers,
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
		jobTimeout: opts.JobTimeout,
		retryable:  opts.Retryable,
	}
}

// PublishExtractStatement implements the Publisher interface.
// It enqueues a statement extraction job for asynchronous processing.
func (q *Queue) PublishExtractStatement(ctx context.Context, job *jobs.ExtractStatementJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return fmt.Errorf("queue is closed")
	}

	// Generate job ID if not provided
	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}

	// Set initial status and timestamp
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if job.MaxRetries == 0 {
		job.MaxRetries = q.maxRetries
	}

	// Save job to store
	if q.store != nil {
		if err := q.store.SaveJob(ctx, job); err != nil {
			return fmt.Errorf("failed to save job: %w", err)
		}
	}

	// Enqueue job with context cancellation support
	select {
	case q.jobChan <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return fmt.Errorf("queue is closed")
	}
}

// Start implements the Consumer interface.
// It starts consuming jobs from the queue and processes them using the provided handler.
// The handler is called concurrently, up to the configured number of workers.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return fmt.Errorf("queue is closed")
	}
	q.mu.RUnlock()

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}

	return nil
}

// worker processes jobs from the queue.
func (q *Queue) worker(ctx context.Context, handler jobs.JobHandler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case job := <-q.jobChan:
			if job == nil {
				return
			}

			q.processJob(ctx, job, handler)
		}
	}
}

// processJob runs one attempt of job and decides whether it is retried.
func (q *Queue) processJob(ctx context.Context, job *jobs.ExtractStatementJob, handler jobs.JobHandler) {
	job.Status = jobs.JobStatusRunning
	now := time.Now()
	job.StartedAt = &now
	q.save(ctx, job)

	log := logger.FromContext(ctx).With().
		Str("job_id", job.JobID).
		Int("attempt", job.RetryCount+1).
		Logger()

	err := q.runAttempt(logger.WithContext(ctx, log), job, handler)

	completedAt := time.Now()
	job.CompletedAt = &completedAt

	switch {
	case err == nil:
		job.Status = jobs.JobStatusCompleted
		job.Error = ""
		log.Info().Dur("duration", completedAt.Sub(now)).Msg("Job completed")

	case job.RetryCount < job.MaxRetries && q.retryable(err) && ctx.Err() == nil:
		job.Error = err.Error()
		job.RetryCount++
		job.Status = jobs.JobStatusRetrying

		backoff := time.Duration(job.RetryCount) * q.backoff
		log.Warn().Err(err).Dur("backoff", backoff).Msg("Job failed, retrying")

		// The timer owns its own copy; job is not touched after it is armed.
		q.save(ctx, job)
		retry := *job
		retry.Status = jobs.JobStatusPending
		retry.StartedAt = nil
		retry.CompletedAt = nil
		time.AfterFunc(backoff, func() {
			if err := q.PublishExtractStatement(ctx, &retry); err != nil {
				log.Error().Err(err).Msg("Failed to re-enqueue job")
			}
		})
		return

	default:
		job.Error = err.Error()
		job.Status = jobs.JobStatusFailed
		log.Error().Err(err).Msg("Job failed")
	}

	q.save(ctx, job)
}

// runAttempt calls handler under the per-job timeout. A panic fails the attempt.
func (q *Queue) runAttempt(ctx context.Context, job *jobs.ExtractStatementJob, handler jobs.JobHandler) (err error) {
	if q.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.jobTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job handler panicked: %v", r)
		}
	}()

	return handler(ctx, job)
}

func (q *Queue) save(ctx context.Context, job *jobs.ExtractStatementJob) {
	if q.store == nil {
		return
	}
	if err := q.store.SaveJob(ctx, job); err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Str("job_id", job.JobID).Msg("Failed to save job state")
	}
}

// Stop implements the Consumer interface.
// It stops the queue and waits for all in-flight jobs to complete.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	// Wait for workers to finish with timeout
	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements the Publisher interface.
// It closes the queue and releases resources.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

// Ensure Queue implements both Publisher and Consumer interfaces.
var _ jobs.Publisher = (*Queue)(nil)
var _ jobs.Consumer = (*Queue)(nil)
