package broadcast

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobState tracks a job through its lifecycle: Pending -> Firing -> Done.
// There is no retry state; a failed delivery for one recipient never moves
// the job back to pending.
type JobState string

const (
	// JobPending means the job is queued and waiting for its run time.
	JobPending JobState = "pending"
	// JobFiring means the runner is currently fanning the job out.
	JobFiring JobState = "firing"
	// JobDone means every delivery was attempted and the job is removed.
	JobDone JobState = "done"
)

// Payload is the message content delivered to every recipient.
type Payload struct {
	Text string
	// MediaRef optionally points at an already-uploaded media attachment.
	MediaRef string
}

// Job is a deferred one-shot broadcast.
type Job struct {
	ID        string
	RunAt     time.Time
	Payload   Payload
	CreatedBy int64

	// mu guards state: the scheduler updates it from the run loop while
	// callers may poll State concurrently.
	mu    sync.Mutex
	state JobState
}

// NewJob builds a pending job with a fresh identifier.
func NewJob(runAt time.Time, payload Payload, createdBy int64) *Job {
	return &Job{
		ID:        uuid.NewString(),
		RunAt:     runAt,
		Payload:   payload,
		CreatedBy: createdBy,
		state:     JobPending,
	}
}

// State returns the job's current lifecycle state.
func (j *Job) State() JobState {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

func (j *Job) setState(st JobState) {
	j.mu.Lock()
	j.state = st
	j.mu.Unlock()
}
