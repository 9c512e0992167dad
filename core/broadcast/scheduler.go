package broadcast

import (
	"container/heap"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/m3rciful/contentbot/core/logger"
	"log/slog"
)

// ErrClosed is returned when scheduling is attempted after the runner stopped.
var ErrClosed = errors.New("broadcast: scheduler closed")

// RecipientSource resolves the current recipient list. It is queried at fire
// time, never at schedule time, so late additions to the list still receive
// the broadcast.
type RecipientSource interface {
	Recipients(ctx context.Context) ([]int64, error)
}

// Deliverer performs a single delivery attempt to one recipient.
type Deliverer interface {
	Deliver(ctx context.Context, recipient int64, p Payload) error
}

// DeliverFunc adapts a function to the Deliverer interface.
type DeliverFunc func(ctx context.Context, recipient int64, p Payload) error

// Deliver executes the underlying function.
func (f DeliverFunc) Deliver(ctx context.Context, recipient int64, p Payload) error {
	return f(ctx, recipient, p)
}

// Options configure the scheduler.
type Options struct {
	Recipients RecipientSource
	Deliverer  Deliverer
	// PollInterval bounds late-firing drift: a due job fires within one poll
	// cycle after its run time. Defaults to one second.
	PollInterval time.Duration
	Clock        Clock
}

// Scheduler holds pending jobs in a min-heap keyed by run time and fires
// each due job exactly once, never before its run time.
type Scheduler struct {
	mu      sync.Mutex
	queue   jobQueue
	byID    map[string]*Job
	closed  bool
	wake    chan struct{}
	clock   Clock
	poll    time.Duration
	source  RecipientSource
	deliver Deliverer
}

// NewScheduler constructs a scheduler; Run must be started for jobs to fire.
func NewScheduler(opts Options) *Scheduler {
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock()
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = time.Second
	}
	s := &Scheduler{
		byID:    make(map[string]*Job),
		wake:    make(chan struct{}, 1),
		clock:   clock,
		poll:    poll,
		source:  opts.Recipients,
		deliver: opts.Deliverer,
	}
	heap.Init(&s.queue)
	return s
}

// Schedule queues a job. Jobs whose run time is already past fire on the
// next poll cycle.
func (s *Scheduler) Schedule(job *Job) error {
	if job == nil {
		return errors.New("broadcast: nil job")
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	job.setState(JobPending)
	heap.Push(&s.queue, job)
	s.byID[job.ID] = job
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

// Cancel removes a pending job. It reports false when the job is unknown or
// already firing.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.byID[id]
	if !ok || job.State() != JobPending {
		return false
	}
	for i, queued := range s.queue {
		if queued.ID == id {
			heap.Remove(&s.queue, i)
			break
		}
	}
	delete(s.byID, id)
	job.setState(JobDone)
	return true
}

// Pending returns the number of jobs waiting to fire.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// Run fires due jobs until ctx is done. Drift is bounded by the poll
// interval: a job with run time T fires no earlier than T and no later than
// T plus one poll cycle (plus delivery time of earlier jobs).
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()
	for {
		s.fireDue(ctx)
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.closed = true
			s.mu.Unlock()
			return
		case <-ticker.C:
		case <-s.wake:
		}
	}
}

func (s *Scheduler) fireDue(ctx context.Context) {
	for {
		s.mu.Lock()
		if s.queue.Len() == 0 || s.queue[0].RunAt.After(s.clock.Now()) {
			s.mu.Unlock()
			return
		}
		job := heap.Pop(&s.queue).(*Job)
		job.setState(JobFiring)
		s.mu.Unlock()

		s.fire(ctx, job)

		s.mu.Lock()
		job.setState(JobDone)
		delete(s.byID, job.ID)
		s.mu.Unlock()
	}
}

// fire resolves the live recipient list and attempts one delivery per
// recipient. Individual failures are logged and never block the rest.
func (s *Scheduler) fire(ctx context.Context, job *Job) {
	start := s.clock.Now()
	recipients, err := s.source.Recipients(ctx)
	if err != nil {
		logger.Error(ctx, "broadcast", "job.recipients.failed",
			slog.String("status", "fail"),
			slog.String("job_id", job.ID),
			slog.String("err", err.Error()),
		)
		return
	}

	failed := 0
	for _, recipient := range recipients {
		if err := s.deliver.Deliver(ctx, recipient, job.Payload); err != nil {
			failed++
			logger.Warn(ctx, "broadcast", "job.deliver.failed",
				slog.String("job_id", job.ID),
				slog.Int64("user_id", recipient),
				slog.String("err", err.Error()),
			)
		}
	}

	logger.Info(ctx, "broadcast", "job.fired",
		slog.String("status", "ok"),
		slog.String("job_id", job.ID),
		slog.Int("recipients", len(recipients)),
		slog.Int("failed", failed),
		slog.Int64("late_ms", s.clock.Now().Sub(job.RunAt).Milliseconds()),
		slog.Duration("duration", logger.RoundMS(s.clock.Now().Sub(start))),
	)
}

// jobQueue is a min-heap ordered by RunAt.
type jobQueue []*Job

func (q jobQueue) Len() int           { return len(q) }
func (q jobQueue) Less(i, j int) bool { return q[i].RunAt.Before(q[j].RunAt) }
func (q jobQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *jobQueue) Push(x any)        { *q = append(*q, x.(*Job)) }
func (q *jobQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}
