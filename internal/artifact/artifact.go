// Package artifact implements the Artifact Store: an immutable, opaque-ID
// keyed record holding an arbitrary JSON payload, with optional parent/level
// fields for hierarchical grouping by downstream features. Artifacts are
// created once and never semantically mutated by the core.
package artifact

import (
	"encoding/json"
	"time"

	"github.com/shaharia-lab/taskcore/internal/id"
)

// Artifact is an immutable JSON record persisted by an execution.
type Artifact struct {
	ID        id.ID           `json:"id"`
	ParentID  *id.ID          `json:"parent_id,omitempty"`
	Level     int             `json:"level"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Store is the persistence contract for artifacts.
type Store interface {
	// Save assigns a fresh ID and persists data verbatim. If parentID is
	// non-nil it must refer to an existing artifact.
	Save(data json.RawMessage, parentID *id.ID, level int) (*Artifact, error)
	// Load returns an artifact by ID.
	Load(artifactID id.ID) (*Artifact, error)
	// Delete removes an artifact by ID.
	Delete(artifactID id.ID) error
	// List returns all artifacts ordered by creation time ascending.
	List() ([]*Artifact, error)
}
