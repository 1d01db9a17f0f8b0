package taskexec

import (
	"encoding/json"
	"time"

	"github.com/shaharia-lab/taskcore/internal/storage"
)

// taskSnapshot is the value-copy of a task template embedded in every
// execution artifact. It is built once, at execution start, from the
// snapshot the Task Executor already took — later mutations to the stored
// template never reach it.
type taskSnapshot struct {
	ID         string          `json:"id"`
	Command    string          `json:"command"`
	Kind       string          `json:"kind"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
	Enabled    bool            `json:"enabled"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func snapshotPayload(tmpl storage.TaskTemplate) taskSnapshot {
	return taskSnapshot{
		ID:         tmpl.ID.String(),
		Command:    tmpl.Command,
		Kind:       string(tmpl.Kind),
		Parameters: tmpl.Parameters,
		Enabled:    tmpl.Enabled,
		CreatedAt:  tmpl.CreatedAt,
		UpdatedAt:  tmpl.UpdatedAt,
	}
}

// shellArtifact is the data payload written for a kind=shell execution.
type shellArtifact struct {
	Task     taskSnapshot `json:"task"`
	Stdout   string       `json:"stdout"`
	Stderr   string       `json:"stderr"`
	ExitCode int          `json:"exit_code"`
}

// functionArtifact is the data payload written for a kind=function
// execution. Exactly one of Result or Error is populated.
type functionArtifact struct {
	Task   taskSnapshot   `json:"task"`
	Result any            `json:"result"`
	Error  *functionError `json:"error"`
}

// functionError describes a callable failure captured into the artifact
// rather than surfaced as a scheduler-level job failure.
type functionError struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Traceback string `json:"traceback,omitempty"`
}
