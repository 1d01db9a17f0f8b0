// Package scheduler implements the Job Scheduler: a bounded-concurrency,
// non-recurring executor for caller-submitted work units. It tracks each
// submission's lifecycle (pending → running → completed/failed/canceled),
// exposes point-in-time snapshots, and lets callers subscribe to a job's
// transitions as they happen.
//
// Structurally grounded on the reference scheduler's semaphore-gated runner
// goroutine (github.com/shaharia-lab/agento's internal/scheduler), with the
// gocron-backed recurring trigger removed: this scheduler only ever runs a
// submitted unit once.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shaharia-lab/taskcore/internal/id"
)

// EventPublisher lets the scheduler emit lifecycle events without depending
// on a concrete event bus implementation.
type EventPublisher interface {
	Publish(eventType string, payload map[string]string)
}

// Event type constants for job lifecycle notifications.
const (
	EventJobFinished = "job_scheduler.job.finished"
	EventJobFailed   = "job_scheduler.job.failed"
	EventJobCanceled = "job_scheduler.job.canceled"
)

// ErrStopped is returned by Submit once Stop has been called.
var ErrStopped = errors.New("scheduler: stopped")

// ErrNotFound is returned when a job ID is unknown.
var ErrNotFound = errors.New("scheduler: job not found")

// Work is a unit of work submitted to the scheduler. It must observe
// ctx.Done() to support cooperative cancellation. A non-nil artifactID is
// recorded on the job; a non-nil err marks the job failed, except an error
// wrapping context.Canceled, which marks it canceled.
type Work func(ctx context.Context) (artifactID *id.ID, err error)

// Config holds scheduler configuration.
type Config struct {
	Logger *slog.Logger
	// MaxConcurrency bounds how many Work closures run at once. Zero or
	// negative means unbounded.
	MaxConcurrency int
	// EventPublisher is optional; when set, terminal transitions are
	// published.
	EventPublisher EventPublisher
}

const subscriberBuffer = 8

type entry struct {
	mu     sync.Mutex
	job    Job
	cancel context.CancelFunc
	subs   []chan *Job
}

// Scheduler runs submitted Work closures under a concurrency cap.
type Scheduler struct {
	cfg       Config
	logger    *slog.Logger
	semaphore chan struct{}

	mu      sync.Mutex
	jobs    map[id.ID]*entry
	stopped bool
	wg      sync.WaitGroup
}

// New constructs a Scheduler. MaxConcurrency <= 0 means unbounded (a very
// large semaphore, matching the reference app's "3 by default" fallback
// pattern but without an artificial low ceiling since callers of this core
// are expected to size it explicitly).
func New(cfg Config) *Scheduler {
	maxConc := cfg.MaxConcurrency
	if maxConc <= 0 {
		maxConc = 1 << 20
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cfg:       cfg,
		logger:    logger,
		semaphore: make(chan struct{}, maxConc),
		jobs:      make(map[id.ID]*entry),
	}
}

// Submit enqueues work and returns its job ID immediately; the job starts
// in StatusPending.
func (s *Scheduler) Submit(work Work) (id.ID, error) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return id.ID{}, ErrStopped
	}

	jobID := id.New()
	ctx, cancel := context.WithCancel(context.Background())
	e := &entry{
		job: Job{
			ID:          jobID,
			Status:      StatusPending,
			SubmittedAt: time.Now().UTC(),
		},
		cancel: cancel,
	}
	s.jobs[jobID] = e
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(ctx, e, work)

	return jobID, nil
}

func (s *Scheduler) run(ctx context.Context, e *entry, work Work) {
	defer s.wg.Done()

	if ctx.Err() != nil {
		s.finish(e, StatusCanceled, nil, "canceled before admission", "")
		return
	}

	select {
	case s.semaphore <- struct{}{}:
	case <-ctx.Done():
		// Canceled while still pending: never transitions to running.
		s.finish(e, StatusCanceled, nil, "canceled before admission", "")
		return
	}
	defer func() { <-s.semaphore }()

	if ctx.Err() != nil {
		// Canceled in the race between admission and this check.
		s.finish(e, StatusCanceled, nil, "canceled before admission", "")
		return
	}

	e.mu.Lock()
	if e.job.Status != StatusPending {
		// Already finished by a concurrent Cancel.
		e.mu.Unlock()
		return
	}
	now := time.Now().UTC()
	e.job.Status = StatusRunning
	e.job.StartedAt = &now
	snapshot := e.job.clone()
	e.mu.Unlock()
	s.broadcast(e, snapshot)

	artifactID, err := s.runWork(ctx, work)

	switch {
	case err != nil && errors.Is(err, context.Canceled):
		s.finish(e, StatusCanceled, artifactID, "", "")
	case err != nil:
		s.finish(e, StatusFailed, artifactID, err.Error(), "")
	default:
		s.finish(e, StatusCompleted, artifactID, "", "")
	}
}

// runWork recovers a panicking Work into a failure, matching the principle
// that scheduler-level failures (as opposed to callable-level exceptions,
// which the Task Executor already converts to error artifacts) must still
// land the job in a terminal state.
func (s *Scheduler) runWork(ctx context.Context, work Work) (artifactID *id.ID, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scheduler: work panicked: %v", r)
		}
	}()
	return work(ctx)
}

func (s *Scheduler) finish(e *entry, status Status, artifactID *id.ID, errMsg, traceback string) {
	e.mu.Lock()
	if e.job.Status.Terminal() {
		// Already finished by a concurrent path (e.g. Cancel racing the
		// runner); terminal states are immutable.
		e.mu.Unlock()
		return
	}
	now := time.Now().UTC()
	e.job.Status = status
	e.job.FinishedAt = &now
	e.job.ArtifactID = artifactID
	e.job.Error = errMsg
	e.job.ErrorTraceback = traceback
	snapshot := e.job.clone()
	e.mu.Unlock()

	s.broadcast(e, snapshot)
	s.publish(snapshot)

	switch status {
	case StatusFailed:
		s.logger.Error("job failed", "job_id", snapshot.ID, "error", errMsg)
	case StatusCanceled:
		s.logger.Info("job canceled", "job_id", snapshot.ID)
	default:
		s.logger.Info("job completed", "job_id", snapshot.ID)
	}
}

func (s *Scheduler) publish(job *Job) {
	if s.cfg.EventPublisher == nil {
		return
	}
	var eventType string
	switch job.Status {
	case StatusCompleted:
		eventType = EventJobFinished
	case StatusFailed:
		eventType = EventJobFailed
	case StatusCanceled:
		eventType = EventJobCanceled
	default:
		return
	}
	payload := map[string]string{
		"job_id": job.ID.String(),
		"status": string(job.Status),
	}
	if job.Error != "" {
		payload["error"] = job.Error
	}
	s.cfg.EventPublisher.Publish(eventType, payload)
}

// broadcast fans a snapshot out to every current subscriber, dropping
// intermediate snapshots a slow subscriber hasn't drained but always
// landing the terminal one (making room by evicting the oldest buffered
// snapshot if necessary) and then closing that subscriber's channel.
func (s *Scheduler) broadcast(e *entry, snapshot *Job) {
	e.mu.Lock()
	subs := e.subs
	if snapshot.Status.Terminal() {
		e.subs = nil
	}
	e.mu.Unlock()

	for _, ch := range subs {
		send(ch, snapshot, snapshot.Status.Terminal())
		if snapshot.Status.Terminal() {
			close(ch)
		}
	}
}

func send(ch chan *Job, snapshot *Job, mustDeliver bool) {
	for {
		select {
		case ch <- snapshot:
			return
		default:
			if !mustDeliver {
				return
			}
			select {
			case <-ch:
			default:
			}
		}
	}
}

// Get returns a snapshot of the job, or ErrNotFound.
func (s *Scheduler) Get(jobID id.ID) (*Job, error) {
	s.mu.Lock()
	e, ok := s.jobs[jobID]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.job.clone(), nil
}

// ListFilter narrows List results.
type ListFilter struct {
	Status *Status
}

// List returns snapshots of all known jobs, optionally filtered by status,
// ordered by submission time ascending.
func (s *Scheduler) List(filter ListFilter) []*Job {
	s.mu.Lock()
	entries := make([]*entry, 0, len(s.jobs))
	for _, e := range s.jobs {
		entries = append(entries, e)
	}
	s.mu.Unlock()

	out := make([]*Job, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		job := e.job.clone()
		e.mu.Unlock()
		if filter.Status != nil && job.Status != *filter.Status {
			continue
		}
		out = append(out, job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out
}

// Cancel requests cancellation of jobID. A pending job transitions
// directly to canceled without ever running; a running job's context is
// canceled and the transition completes when the work observes it. A
// terminal job is a no-op.
func (s *Scheduler) Cancel(jobID id.ID) error {
	s.mu.Lock()
	e, ok := s.jobs[jobID]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}

	e.mu.Lock()
	status := e.job.Status
	e.mu.Unlock()
	if status.Terminal() {
		return nil
	}

	// Canceling the context always happens first: for a running job this
	// is the only effect (the Work observes ctx.Done() and returns; run()
	// drives the actual state transition once it does). For a pending job
	// we additionally force the terminal transition ourselves, since
	// nothing is running yet to observe the cancellation — finish() is
	// idempotent, so this races harmlessly with run()'s own
	// pending-admission checks, which also consult ctx.Err().
	e.cancel()
	if status == StatusPending {
		s.finish(e, StatusCanceled, nil, "canceled", "")
	}
	return nil
}

// Subscribe returns a channel of status snapshots for jobID, ending with
// and then closed after the first terminal snapshot. If the job is already
// terminal, a single snapshot is delivered immediately and the channel is
// closed.
func (s *Scheduler) Subscribe(jobID id.ID) (<-chan *Job, error) {
	s.mu.Lock()
	e, ok := s.jobs[jobID]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}

	ch := make(chan *Job, subscriberBuffer)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.job.Status.Terminal() {
		ch <- e.job.clone()
		close(ch)
		return ch, nil
	}
	e.subs = append(e.subs, ch)
	return ch, nil
}

// Stop prevents further submissions and cancels all pending and running
// jobs, then waits for their runner goroutines to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	entries := make([]*entry, 0, len(s.jobs))
	for _, e := range s.jobs {
		entries = append(entries, e)
	}
	s.mu.Unlock()

	for _, e := range entries {
		e.mu.Lock()
		terminal := e.job.Status.Terminal()
		e.mu.Unlock()
		if !terminal {
			e.cancel()
		}
	}
	s.wg.Wait()
}
