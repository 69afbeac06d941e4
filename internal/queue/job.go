package queue

import (
	"time"

	"github.com/dmitrymomot/contactform/internal/contact"
)

// Job is one queued unit of work: a single accepted submission awaiting
// email delivery. Jobs are owned exclusively by the Queue; they are
// mutated in place on failed attempts and removed on terminal success
// or terminal failure.
type Job struct {
	ID          string
	Submission  contact.Submission
	Attempts    int
	CreatedAt   time.Time
	ScheduledAt time.Time
}

// ready reports whether the job is eligible for processing at now.
func (j *Job) ready(now time.Time) bool {
	return !j.ScheduledAt.After(now)
}

// Snapshot is a read-only view of the queue state, computed on demand.
type Snapshot struct {
	Size         int           `json:"size"`
	Processing   bool          `json:"processing"`
	OldestJobAge time.Duration `json:"oldestJobAge"`
}
