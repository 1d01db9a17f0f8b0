// Package taskexec implements the Task Executor: given a task template ID,
// it snapshots the template, submits a closure to the Job Scheduler, and —
// inside that closure — runs either a shell subprocess or a bound callable
// and writes exactly one result artifact.
//
// Grounded on the reference app's executor.go runTask shape (snapshot, run,
// record), generalized from "run an agent turn" to "run a shell command or
// a registered callable."
package taskexec

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime/debug"

	"github.com/shaharia-lab/taskcore/internal/artifact"
	"github.com/shaharia-lab/taskcore/internal/binder"
	"github.com/shaharia-lab/taskcore/internal/id"
	"github.com/shaharia-lab/taskcore/internal/metrics"
	"github.com/shaharia-lab/taskcore/internal/registry"
	"github.com/shaharia-lab/taskcore/internal/scheduler"
	"github.com/shaharia-lab/taskcore/internal/service"
	"github.com/shaharia-lab/taskcore/internal/storage"
)

// Config wires an Executor to its collaborators.
type Config struct {
	Store         storage.TaskTemplateStore
	ArtifactStore artifact.Store
	Scheduler     *scheduler.Scheduler
	Registry      *registry.Registry
	DB            *sql.DB
	WorkerPool    *WorkerPool
	// Metrics is optional; when set, Execute/run report submission,
	// in-flight, and artifact-write counts.
	Metrics *metrics.Metrics
}

// Executor runs task templates by submitting closures to the Job
// Scheduler.
type Executor struct {
	cfg Config
}

// New constructs an Executor.
func New(cfg Config) *Executor {
	return &Executor{cfg: cfg}
}

// Execute loads, validates, and snapshots the template named by taskID,
// then submits its execution to the scheduler and returns the resulting
// job ID immediately.
func (e *Executor) Execute(ctx context.Context, taskID id.ID) (id.ID, error) {
	tmpl, err := e.cfg.Store.Get(taskID)
	if err != nil {
		return id.ID{}, fmt.Errorf("loading task template %q: %w", taskID, err)
	}
	if tmpl == nil {
		return id.ID{}, &service.NotFoundError{Resource: "task", ID: taskID.String()}
	}
	if !tmpl.Enabled {
		return id.ID{}, &service.ValidationError{Field: "enabled", Message: "cannot execute disabled task"}
	}
	if e.cfg.ArtifactStore == nil || e.cfg.Scheduler == nil {
		return id.ID{}, &service.ConflictError{Resource: "task executor", Message: "scheduler/artifacts not available"}
	}

	snapshot := tmpl.Snapshot()

	jobID, err := e.cfg.Scheduler.Submit(func(ctx context.Context) (*id.ID, error) {
		return e.run(ctx, snapshot)
	})
	if err != nil {
		return id.ID{}, fmt.Errorf("submitting job: %w", err)
	}
	if e.cfg.Metrics != nil {
		e.cfg.Metrics.JobsSubmitted.Inc()
	}
	return jobID, nil
}

// run executes the snapshot and writes its single result artifact. A
// non-nil error here is the only thing that marks the job failed — a
// spawn failure for shell tasks, or an artifact-store write failure —
// except context.Canceled, which the scheduler folds into the canceled
// terminal state instead, with no artifact written.
func (e *Executor) run(ctx context.Context, tmpl storage.TaskTemplate) (*id.ID, error) {
	if e.cfg.Metrics != nil {
		e.cfg.Metrics.JobsRunning.Inc()
		defer e.cfg.Metrics.JobsRunning.Dec()
	}

	payload := snapshotPayload(tmpl)

	var data any
	if tmpl.Kind == storage.KindFunction {
		data = e.runFunction(ctx, tmpl, payload)
	} else {
		shellData, err := e.runShell(ctx, tmpl, payload)
		if ctx.Err() != nil {
			// A canceled context always wins over whatever shape the OS
			// reports the killed process's exit in (ExitError, "signal:
			// killed", or ctx.Err() itself depending on platform/Go
			// version) — the job lands canceled either way.
			return nil, context.Canceled
		}
		if err != nil {
			return nil, err
		}
		data = shellData
	}

	if ctx.Err() != nil {
		return nil, context.Canceled
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshaling task execution artifact: %w", err)
	}

	a, err := e.cfg.ArtifactStore.Save(raw, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("writing task execution artifact: %w", err)
	}
	if e.cfg.Metrics != nil {
		e.cfg.Metrics.ArtifactsWritten.Inc()
	}
	return &a.ID, nil
}

// runShell spawns command through the user's shell (falling back to
// /bin/sh), capturing stdout/stderr in full. A non-zero exit is recorded
// in the artifact, not returned as an error; only a spawn failure (shell
// or binary missing) returns an error.
func (e *Executor) runShell(ctx context.Context, tmpl storage.TaskTemplate, payload taskSnapshot) (*shellArtifact, error) {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}

	cmd := exec.CommandContext(ctx, shell, "-c", tmpl.Command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	exitCode := 0
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			return nil, fmt.Errorf("spawning shell command: %w", err)
		}
	}

	return &shellArtifact{
		Task:     payload,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
	}, nil
}

// runFunction re-resolves command against the registry, binds parameters,
// and invokes the callable. Every failure path here — missing name,
// binding failure, callable error, callable panic — is folded into the
// artifact's error field; the job itself still completes.
func (e *Executor) runFunction(ctx context.Context, tmpl storage.TaskTemplate, payload taskSnapshot) *functionArtifact {
	spec, err := e.cfg.Registry.Get(tmpl.Command)
	if err != nil {
		return &functionArtifact{
			Task:  payload,
			Error: &functionError{Type: "not-found", Message: err.Error()},
		}
	}

	table := binder.InjectionTable{
		DB:            e.cfg.DB,
		ArtifactStore: e.cfg.ArtifactStore,
		Scheduler:     e.cfg.Scheduler,
	}
	frame, release, err := binder.Bind(ctx, spec, tmpl.Parameters, table)
	if err != nil {
		return &functionArtifact{
			Task:  payload,
			Error: &functionError{Type: "validation-failed", Message: err.Error()},
		}
	}

	result, callErr, traceback := e.invoke(ctx, spec, frame)
	if releaseErr := release(callErr == nil); releaseErr != nil && callErr == nil {
		callErr = fmt.Errorf("releasing session: %w", releaseErr)
	}

	if callErr != nil {
		errType := "error"
		if traceback != "" {
			errType = "panic"
		}
		return &functionArtifact{
			Task:  payload,
			Error: &functionError{Type: errType, Message: callErr.Error(), Traceback: traceback},
		}
	}
	return &functionArtifact{Task: payload, Result: result}
}

// invoke runs spec.Func either inline or, for a Blocking spec, on the
// worker pool, recovering a panic into a traceback rather than letting it
// escape to the scheduler.
func (e *Executor) invoke(ctx context.Context, spec registry.Spec, frame *registry.Frame) (result any, err error, traceback string) {
	call := func() {
		defer func() {
			if r := recover(); r != nil {
				traceback = string(debug.Stack())
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		result, err = spec.Func(ctx, frame)
	}

	if spec.Blocking && e.cfg.WorkerPool != nil {
		done := make(chan struct{})
		e.cfg.WorkerPool.Submit(func() {
			call()
			close(done)
		})
		<-done
	} else {
		call()
	}
	return result, err, traceback
}
