package broadcast

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type staticRecipients struct {
	mu  sync.Mutex
	ids []int64
	err error
}

func (r *staticRecipients) Recipients(ctx context.Context) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.ids...), r.err
}

func (r *staticRecipients) set(ids ...int64) {
	r.mu.Lock()
	r.ids = ids
	r.mu.Unlock()
}

type recordingDeliverer struct {
	mu        sync.Mutex
	delivered map[int64][]string
	fail      map[int64]error
}

func newRecordingDeliverer() *recordingDeliverer {
	return &recordingDeliverer{
		delivered: make(map[int64][]string),
		fail:      make(map[int64]error),
	}
}

func (d *recordingDeliverer) Deliver(ctx context.Context, recipient int64, p Payload) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail[recipient]; err != nil {
		return err
	}
	d.delivered[recipient] = append(d.delivered[recipient], p.Text)
	return nil
}

func (d *recordingDeliverer) texts(recipient int64) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.delivered[recipient]...)
}

func newTestScheduler(clock Clock, src RecipientSource, del Deliverer) *Scheduler {
	return NewScheduler(Options{
		Recipients:   src,
		Deliverer:    del,
		Clock:        clock,
		PollInterval: time.Millisecond,
	})
}

func TestSchedulerNeverFiresEarly(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	src := &staticRecipients{}
	src.set(1)
	del := newRecordingDeliverer()
	s := newTestScheduler(clock, src, del)

	job := NewJob(clock.Now().Add(time.Hour), Payload{Text: "hi"}, 99)
	require.NoError(t, s.Schedule(job))

	s.fireDue(context.Background())
	require.Empty(t, del.texts(1))
	require.Equal(t, 1, s.Pending())
	require.Equal(t, JobPending, job.State())
}

func TestSchedulerFiresDueJobExactlyOnce(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	src := &staticRecipients{}
	src.set(1, 2)
	del := newRecordingDeliverer()
	s := newTestScheduler(clock, src, del)

	job := NewJob(clock.Now().Add(time.Minute), Payload{Text: "hi"}, 99)
	require.NoError(t, s.Schedule(job))

	clock.advance(2 * time.Minute)
	s.fireDue(context.Background())
	require.Equal(t, []string{"hi"}, del.texts(1))
	require.Equal(t, []string{"hi"}, del.texts(2))
	require.Equal(t, JobDone, job.State())
	require.Zero(t, s.Pending())

	// A second sweep does not refire.
	s.fireDue(context.Background())
	require.Equal(t, []string{"hi"}, del.texts(1))
}

func TestSchedulerFiresInRunOrder(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	src := &staticRecipients{}
	src.set(1)
	del := newRecordingDeliverer()
	s := newTestScheduler(clock, src, del)

	late := NewJob(clock.Now().Add(2*time.Minute), Payload{Text: "late"}, 99)
	early := NewJob(clock.Now().Add(time.Minute), Payload{Text: "early"}, 99)
	require.NoError(t, s.Schedule(late))
	require.NoError(t, s.Schedule(early))

	clock.advance(3 * time.Minute)
	s.fireDue(context.Background())
	require.Equal(t, []string{"early", "late"}, del.texts(1))
}

func TestSchedulerRecipientsResolvedAtFireTime(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	src := &staticRecipients{}
	src.set(1)
	del := newRecordingDeliverer()
	s := newTestScheduler(clock, src, del)

	require.NoError(t, s.Schedule(NewJob(clock.Now().Add(time.Minute), Payload{Text: "hi"}, 99)))

	// The user base changes between schedule and fire.
	src.set(1, 7)
	clock.advance(2 * time.Minute)
	s.fireDue(context.Background())

	require.Equal(t, []string{"hi"}, del.texts(1))
	require.Equal(t, []string{"hi"}, del.texts(7))
}

func TestSchedulerPerRecipientFailureDoesNotBlockOthers(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	src := &staticRecipients{}
	src.set(1, 2, 3)
	del := newRecordingDeliverer()
	del.fail[2] = errors.New("blocked bot")
	s := newTestScheduler(clock, src, del)

	require.NoError(t, s.Schedule(NewJob(clock.Now(), Payload{Text: "hi"}, 99)))
	s.fireDue(context.Background())

	require.Equal(t, []string{"hi"}, del.texts(1))
	require.Empty(t, del.texts(2))
	require.Equal(t, []string{"hi"}, del.texts(3))
}

func TestSchedulerCancel(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	src := &staticRecipients{}
	src.set(1)
	del := newRecordingDeliverer()
	s := newTestScheduler(clock, src, del)

	job := NewJob(clock.Now().Add(time.Minute), Payload{Text: "hi"}, 99)
	require.NoError(t, s.Schedule(job))
	require.True(t, s.Cancel(job.ID))
	require.False(t, s.Cancel(job.ID))
	require.Zero(t, s.Pending())

	clock.advance(2 * time.Minute)
	s.fireDue(context.Background())
	require.Empty(t, del.texts(1))
}

func TestSchedulerRunFiresAndStops(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	src := &staticRecipients{}
	src.set(1)
	del := newRecordingDeliverer()
	s := newTestScheduler(clock, src, del)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.NoError(t, s.Schedule(NewJob(clock.Now(), Payload{Text: "hi"}, 99)))
	require.Eventually(t, func() bool {
		return len(del.texts(1)) == 1
	}, time.Second, time.Millisecond)

	cancel()
	<-done
	require.ErrorIs(t, s.Schedule(NewJob(clock.Now(), Payload{Text: "late"}, 99)), ErrClosed)
}

func TestJobStateReadableWhileFiring(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	src := &staticRecipients{}
	src.set(1, 2, 3)
	del := newRecordingDeliverer()
	s := newTestScheduler(clock, src, del)

	job := NewJob(clock.Now().Add(-time.Second), Payload{Text: "hi"}, 99)
	require.NoError(t, s.Schedule(job))

	// Poll the state concurrently with the sweep; the race detector flags
	// unsynchronized access here.
	polled := make(chan struct{})
	go func() {
		defer close(polled)
		for i := 0; i < 1000; i++ {
			_ = job.State()
		}
	}()

	s.fireDue(context.Background())
	<-polled
	require.Equal(t, JobDone, job.State())
}
