package queue

import (
	"log/slog"
	"time"
)

const (
	// DefaultMaxAttempts is how many delivery attempts a job gets before
	// it is dropped as permanently failed.
	DefaultMaxAttempts = 3

	// DefaultSendTimeout bounds each individual email send.
	DefaultSendTimeout = 30 * time.Second

	// DefaultPollInterval is the idle wait between readiness checks when
	// jobs exist but none are ready yet.
	DefaultPollInterval = 2 * time.Second
)

// DefaultBackoff is the retry delay table indexed by completed attempts:
// the first retry waits 1s, the second 5s, the third would wait 15s.
var DefaultBackoff = []time.Duration{time.Second, 5 * time.Second, 15 * time.Second}

// AlertFunc is invoked when a job exhausts its retry budget, after the
// terminal failure has been logged. Wire it to an admin paging
// integration; no hook is installed by default.
type AlertFunc func(job *Job, err error)

// Option configures a Queue.
type Option func(*Queue)

// WithLogger sets the queue logger.
func WithLogger(l *slog.Logger) Option {
	return func(q *Queue) {
		if l != nil {
			q.logger = l
		}
	}
}

// WithMaxAttempts overrides the retry budget.
func WithMaxAttempts(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.maxAttempts = n
		}
	}
}

// WithBackoff overrides the retry delay table. Attempts beyond the
// table's length reuse the last entry.
func WithBackoff(delays []time.Duration) Option {
	return func(q *Queue) {
		if len(delays) > 0 {
			q.backoff = delays
		}
	}
}

// WithSendTimeout bounds each individual email send.
func WithSendTimeout(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.sendTimeout = d
		}
	}
}

// WithPollInterval overrides the idle wait between readiness checks.
func WithPollInterval(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.pollInterval = d
		}
	}
}

// WithConfirmation toggles the confirmation email to the submitter.
// The owner notification is always sent.
func WithConfirmation(enabled bool) Option {
	return func(q *Queue) {
		q.sendConfirmation = enabled
	}
}

// WithAlertFunc sets the terminal-failure hook.
func WithAlertFunc(fn AlertFunc) Option {
	return func(q *Queue) {
		if fn != nil {
			q.alert = fn
		}
	}
}
