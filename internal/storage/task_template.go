package storage

import (
	"encoding/json"
	"time"

	"github.com/shaharia-lab/taskcore/internal/id"
)

// Kind is the dispatch discriminator for a task template's command.
type Kind string

// Task kind constants.
const (
	KindShell    Kind = "shell"
	KindFunction Kind = "function"
)

// TaskTemplate is a reusable, mutable description of what to run.
//
// ID and CreatedAt are immutable once set. Command, Kind, Parameters,
// Enabled, and UpdatedAt may be mutated by later updates; a snapshot taken
// before a given execution is never affected by a later mutation (see
// internal/taskexec).
type TaskTemplate struct {
	ID         id.ID           `json:"id"`
	Command    string          `json:"command"`
	Kind       Kind            `json:"kind"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
	Enabled    bool            `json:"enabled"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Snapshot returns a deep, independent copy of t suitable for capturing at
// execution start so later mutations to the stored template never affect it.
func (t *TaskTemplate) Snapshot() TaskTemplate {
	cp := *t
	if t.Parameters != nil {
		cp.Parameters = append(json.RawMessage(nil), t.Parameters...)
	}
	return cp
}

// TaskTemplateStore defines the persistence interface for task templates.
type TaskTemplateStore interface {
	List(enabledOnly *bool) ([]*TaskTemplate, error)
	Get(taskID id.ID) (*TaskTemplate, error)
	Create(task *TaskTemplate) error
	Update(task *TaskTemplate) error
	Delete(taskID id.ID) error
}
