// Package queue implements the in-memory email delivery queue behind
// the contact form. Accepted submissions become jobs; a single
// cooperative worker loop drains ready jobs oldest-first, sending the
// owner notification and the submitter confirmation concurrently and
// retrying the whole pair with scheduled backoff on any failure.
//
// The queue is deliberately process-local and best-effort: nothing is
// persisted, and jobs in flight at process exit are dropped.
package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/contactform/internal/contact"
	"github.com/dmitrymomot/contactform/pkg/id"
)

// Deliverer sends the outbound emails for one submission. Both methods
// must be safe for concurrent use.
type Deliverer interface {
	// Notification emails the site owner about the submission.
	Notification(ctx context.Context, sub contact.Submission) error
	// Confirmation emails the submitter an acknowledgment.
	Confirmation(ctx context.Context, sub contact.Submission) error
}

// Queue is the in-memory job store plus its lazily-started worker loop.
// Construct exactly one per process and share it by reference.
type Queue struct {
	deliverer Deliverer
	logger    *slog.Logger
	alert     AlertFunc

	jobs       map[string]*Job
	processing bool
	mu         sync.Mutex

	wake chan struct{}
	stop chan struct{}

	maxAttempts      int
	backoff          []time.Duration
	sendTimeout      time.Duration
	pollInterval     time.Duration
	sendConfirmation bool
}

// New creates a Queue. The worker loop is not started until the first
// Enqueue call.
func New(deliverer Deliverer, opts ...Option) *Queue {
	q := &Queue{
		deliverer:        deliverer,
		logger:           slog.Default(),
		jobs:             make(map[string]*Job),
		wake:             make(chan struct{}, 1),
		stop:             make(chan struct{}),
		maxAttempts:      DefaultMaxAttempts,
		backoff:          DefaultBackoff,
		sendTimeout:      DefaultSendTimeout,
		pollInterval:     DefaultPollInterval,
		sendConfirmation: true,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue accepts a submission into the queue and returns the job id.
// It is O(1) and never blocks on delivery; the worker loop is started
// if it is not already running.
func (q *Queue) Enqueue(sub contact.Submission) string {
	now := time.Now()
	job := &Job{
		ID:          id.New(),
		Submission:  sub,
		CreatedAt:   now,
		ScheduledAt: now,
	}

	q.mu.Lock()
	q.jobs[job.ID] = job
	start := !q.processing
	if start {
		q.processing = true
	}
	q.mu.Unlock()

	q.logger.Info("email job queued",
		slog.String("job_id", job.ID),
		slog.String("from", sub.Email),
	)

	if start {
		go q.run()
	} else {
		// Nudge an idle-but-running loop so a fresh job is picked up
		// without waiting out the poll interval.
		select {
		case q.wake <- struct{}{}:
		default:
		}
	}

	return job.ID
}

// Status computes a point-in-time snapshot of the queue.
func (q *Queue) Status() Snapshot {
	q.mu.Lock()
	defer q.mu.Unlock()

	snap := Snapshot{
		Size:       len(q.jobs),
		Processing: q.processing,
	}
	now := time.Now()
	for _, job := range q.jobs {
		if age := now.Sub(job.CreatedAt); age > snap.OldestJobAge {
			snap.OldestJobAge = age
		}
	}
	return snap
}

// Shutdown waits for the queue to drain, then stops the worker loop.
// If the context expires first, jobs still queued are dropped, matching
// the process-restart semantics.
func (q *Queue) Shutdown(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		q.mu.Lock()
		remaining := len(q.jobs)
		q.mu.Unlock()

		if remaining == 0 {
			close(q.stop)
			return nil
		}

		select {
		case <-ctx.Done():
			close(q.stop)
			q.logger.Warn("queue shutdown with undelivered jobs", slog.Int("dropped", remaining))
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// run is the worker loop. Exactly one instance runs at a time; it exits
// when the job set is empty and is restarted lazily by Enqueue.
func (q *Queue) run() {
	for {
		job, empty := q.nextReady()
		if empty {
			return
		}
		if job == nil {
			select {
			case <-q.wake:
			case <-time.After(q.pollInterval):
			case <-q.stop:
				q.mu.Lock()
				q.processing = false
				q.mu.Unlock()
				return
			}
			continue
		}
		q.process(job)
	}
}

// nextReady returns the oldest job whose scheduled time has elapsed.
// When the job set is empty it flips the processing flag off and
// reports empty=true, so the loop exit and the flag change are atomic.
func (q *Queue) nextReady() (job *Job, empty bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.jobs) == 0 {
		q.processing = false
		return nil, true
	}

	now := time.Now()
	for _, candidate := range q.jobs {
		if !candidate.ready(now) {
			continue
		}
		if job == nil || candidate.CreatedAt.Before(job.CreatedAt) {
			job = candidate
		}
	}
	return job, false
}

// process attempts both sends for the job and applies the retry policy.
// Partial success (one of two emails delivered) counts as failure and
// both are resent on retry; a duplicate notification is accepted over a
// submission silently lost.
func (q *Queue) process(job *Job) {
	start := time.Now()
	err := q.deliver(job.Submission)
	elapsed := time.Since(start)

	if err == nil {
		q.remove(job.ID)
		q.logger.Info("email job delivered",
			slog.String("job_id", job.ID),
			slog.Int("attempt", job.Attempts+1),
			slog.Duration("elapsed", elapsed),
		)
		return
	}

	job.Attempts++
	if job.Attempts >= q.maxAttempts {
		q.remove(job.ID)
		q.logger.Error("ADMIN ALERT: contact email permanently failed",
			slog.String("job_id", job.ID),
			slog.String("from", job.Submission.Email),
			slog.Int("attempts", job.Attempts),
			slog.Any("error", err),
		)
		if q.alert != nil {
			q.alert(job, err)
		}
		return
	}

	delay := q.backoffDelay(job.Attempts)
	job.ScheduledAt = time.Now().Add(delay)
	q.logger.Warn("email job failed, retry scheduled",
		slog.String("job_id", job.ID),
		slog.Int("attempt", job.Attempts),
		slog.Duration("retry_in", delay),
		slog.Any("error", err),
	)
}

// deliver runs the notification and (if enabled) confirmation sends
// concurrently, each bounded by its own timeout. Success requires every
// enabled send to succeed.
func (q *Queue) deliver(sub contact.Submission) error {
	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		sendCtx, cancel := context.WithTimeout(ctx, q.sendTimeout)
		defer cancel()
		return q.deliverer.Notification(sendCtx, sub)
	})

	if q.sendConfirmation {
		g.Go(func() error {
			sendCtx, cancel := context.WithTimeout(ctx, q.sendTimeout)
			defer cancel()
			return q.deliverer.Confirmation(sendCtx, sub)
		})
	}

	return g.Wait()
}

func (q *Queue) backoffDelay(attempts int) time.Duration {
	idx := attempts - 1
	if idx >= len(q.backoff) {
		idx = len(q.backoff) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return q.backoff[idx]
}

func (q *Queue) remove(jobID string) {
	q.mu.Lock()
	delete(q.jobs, jobID)
	q.mu.Unlock()
}

// DelivererFuncs adapts two functions to the Deliverer interface.
type DelivererFuncs struct {
	NotifyFunc  func(ctx context.Context, sub contact.Submission) error
	ConfirmFunc func(ctx context.Context, sub contact.Submission) error
}

// Notification implements Deliverer.
func (d DelivererFuncs) Notification(ctx context.Context, sub contact.Submission) error {
	if d.NotifyFunc == nil {
		return nil
	}
	return d.NotifyFunc(ctx, sub)
}

// Confirmation implements Deliverer.
func (d DelivererFuncs) Confirmation(ctx context.Context, sub contact.Submission) error {
	if d.ConfirmFunc == nil {
		return nil
	}
	return d.ConfirmFunc(ctx, sub)
}
