package scheduler

import (
	"time"

	"github.com/shaharia-lab/taskcore/internal/id"
)

// Status is a job's position in its lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// Terminal reports whether s is a state the job cannot leave.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCanceled:
		return true
	default:
		return false
	}
}

// Job is a snapshot of a unit of work submitted to the Scheduler. Fields
// are copied out under the scheduler's lock; callers never observe a
// partially-updated Job.
type Job struct {
	ID             id.ID      `json:"id"`
	Status         Status     `json:"status"`
	ArtifactID     *id.ID     `json:"artifact_id,omitempty"`
	Error          string     `json:"error,omitempty"`
	ErrorTraceback string     `json:"error_traceback,omitempty"`
	SubmittedAt    time.Time  `json:"submitted_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}

// clone returns a value copy safe to hand to a caller outside the lock.
func (j *Job) clone() *Job {
	cp := *j
	if j.ArtifactID != nil {
		aid := *j.ArtifactID
		cp.ArtifactID = &aid
	}
	if j.StartedAt != nil {
		t := *j.StartedAt
		cp.StartedAt = &t
	}
	if j.FinishedAt != nil {
		t := *j.FinishedAt
		cp.FinishedAt = &t
	}
	return &cp
}
