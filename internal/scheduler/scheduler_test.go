package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/taskcore/internal/id"
	"github.com/shaharia-lab/taskcore/internal/scheduler"
)

func waitTerminal(t *testing.T, s *scheduler.Scheduler, jobID id.ID) *scheduler.Job {
	t.Helper()
	ch, err := s.Subscribe(jobID)
	require.NoError(t, err)

	var last *scheduler.Job
	for snapshot := range ch {
		last = snapshot
	}
	require.NotNil(t, last)
	require.True(t, last.Status.Terminal())
	return last
}

func TestScheduler_SubmitCompletes(t *testing.T) {
	s := scheduler.New(scheduler.Config{MaxConcurrency: 2})

	jobID, err := s.Submit(func(ctx context.Context) (*id.ID, error) {
		aid := id.New()
		return &aid, nil
	})
	require.NoError(t, err)

	job := waitTerminal(t, s, jobID)
	assert.Equal(t, scheduler.StatusCompleted, job.Status)
	assert.NotNil(t, job.ArtifactID)
	assert.NotNil(t, job.StartedAt)
	assert.NotNil(t, job.FinishedAt)
}

func TestScheduler_SubmitFails(t *testing.T) {
	s := scheduler.New(scheduler.Config{})

	jobID, err := s.Submit(func(ctx context.Context) (*id.ID, error) {
		return nil, errors.New("boom")
	})
	require.NoError(t, err)

	job := waitTerminal(t, s, jobID)
	assert.Equal(t, scheduler.StatusFailed, job.Status)
	assert.Equal(t, "boom", job.Error)
}

func TestScheduler_CancelPendingNeverRuns(t *testing.T) {
	s := scheduler.New(scheduler.Config{MaxConcurrency: 1})

	blocker := make(chan struct{})
	_, err := s.Submit(func(ctx context.Context) (*id.ID, error) {
		<-blocker
		return nil, nil
	})
	require.NoError(t, err)

	ran := make(chan struct{})
	jobID, err := s.Submit(func(ctx context.Context) (*id.ID, error) {
		close(ran)
		return nil, nil
	})
	require.NoError(t, err)

	require.NoError(t, s.Cancel(jobID))
	close(blocker)

	job := waitTerminal(t, s, jobID)
	assert.Equal(t, scheduler.StatusCanceled, job.Status)

	select {
	case <-ran:
		t.Fatal("canceled pending job should never run")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestScheduler_CancelRunningIsCooperative(t *testing.T) {
	s := scheduler.New(scheduler.Config{})

	started := make(chan struct{})
	jobID, err := s.Submit(func(ctx context.Context) (*id.ID, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	require.NoError(t, err)

	<-started
	require.NoError(t, s.Cancel(jobID))

	job := waitTerminal(t, s, jobID)
	assert.Equal(t, scheduler.StatusCanceled, job.Status)
}

func TestScheduler_CancelTerminalIsNoop(t *testing.T) {
	s := scheduler.New(scheduler.Config{})

	jobID, err := s.Submit(func(ctx context.Context) (*id.ID, error) {
		return nil, nil
	})
	require.NoError(t, err)
	waitTerminal(t, s, jobID)

	assert.NoError(t, s.Cancel(jobID))
	job, err := s.Get(jobID)
	require.NoError(t, err)
	assert.Equal(t, scheduler.StatusCompleted, job.Status)
}

func TestScheduler_ConcurrencyCapEnforced(t *testing.T) {
	s := scheduler.New(scheduler.Config{MaxConcurrency: 2})

	var mu sync.Mutex
	concurrent := 0
	maxObserved := 0
	release := make(chan struct{})

	jobFn := func(ctx context.Context) (*id.ID, error) {
		mu.Lock()
		concurrent++
		if concurrent > maxObserved {
			maxObserved = concurrent
		}
		mu.Unlock()

		<-release

		mu.Lock()
		concurrent--
		mu.Unlock()
		return nil, nil
	}

	var jobIDs []id.ID
	for i := 0; i < 5; i++ {
		jid, err := s.Submit(jobFn)
		require.NoError(t, err)
		jobIDs = append(jobIDs, jid)
	}

	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	observedBeforeRelease := maxObserved
	mu.Unlock()
	assert.LessOrEqual(t, observedBeforeRelease, 2)

	close(release)
	for _, jid := range jobIDs {
		waitTerminal(t, s, jid)
	}
}

func TestScheduler_SubscribeAfterTerminalDeliversOnceAndCloses(t *testing.T) {
	s := scheduler.New(scheduler.Config{})

	jobID, err := s.Submit(func(ctx context.Context) (*id.ID, error) {
		return nil, nil
	})
	require.NoError(t, err)
	waitTerminal(t, s, jobID)

	ch, err := s.Subscribe(jobID)
	require.NoError(t, err)

	snapshot, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, scheduler.StatusCompleted, snapshot.Status)

	_, ok = <-ch
	assert.False(t, ok)
}

func TestScheduler_ListFiltersByStatus(t *testing.T) {
	s := scheduler.New(scheduler.Config{})

	okID, err := s.Submit(func(ctx context.Context) (*id.ID, error) { return nil, nil })
	require.NoError(t, err)
	failID, err := s.Submit(func(ctx context.Context) (*id.ID, error) { return nil, errors.New("x") })
	require.NoError(t, err)

	waitTerminal(t, s, okID)
	waitTerminal(t, s, failID)

	completed := scheduler.StatusCompleted
	completedJobs := s.List(scheduler.ListFilter{Status: &completed})
	require.Len(t, completedJobs, 1)
	assert.Equal(t, okID, completedJobs[0].ID)
}

func TestScheduler_StopRejectsFurtherSubmissions(t *testing.T) {
	s := scheduler.New(scheduler.Config{})
	s.Stop()

	_, err := s.Submit(func(ctx context.Context) (*id.ID, error) { return nil, nil })
	assert.ErrorIs(t, err, scheduler.ErrStopped)
}

func TestScheduler_GetNotFound(t *testing.T) {
	s := scheduler.New(scheduler.Config{})
	_, err := s.Get(id.New())
	assert.ErrorIs(t, err, scheduler.ErrNotFound)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(eventType string, _ map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
}

func TestScheduler_PublishesLifecycleEvents(t *testing.T) {
	pub := &recordingPublisher{}
	s := scheduler.New(scheduler.Config{EventPublisher: pub})

	jobID, err := s.Submit(func(ctx context.Context) (*id.ID, error) { return nil, nil })
	require.NoError(t, err)
	waitTerminal(t, s, jobID)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Contains(t, pub.events, scheduler.EventJobFinished)
}
