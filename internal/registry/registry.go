// Package registry implements the Callable Registry: a process-global,
// name-keyed table of invocable functions available to the Task Executor
// when running a function-kind task template.
//
// Following an explicit-registration design (no reflection over Go func
// signatures), each entry declares its capability requirements and a
// JSON-decodable parameter type up front, rather than being introspected at
// call time.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Capability identifies a framework-injected value a callable can request.
type Capability string

const (
	// CapSession requests a transaction-scoped database session.
	CapSession Capability = "session"
	// CapDBHandle requests the raw database handle lifecycle.
	CapDBHandle Capability = "db_handle"
	// CapArtifactStore requests the artifact store.
	CapArtifactStore Capability = "artifact_store"
	// CapScheduler requests the job scheduler handle.
	CapScheduler Capability = "scheduler"
)

// ErrConflict is returned by Register when name is already bound.
var ErrConflict = errors.New("registry: name already registered")

// ErrNotFound is returned by Get and execution lookups for an unknown name.
var ErrNotFound = errors.New("registry: name not found")

// Frame is the bound call frame a Func receives, built by the Parameter
// Binder from a Spec and a caller JSON payload. Defined here (rather than
// imported from the binder package) to avoid an import cycle; the binder
// package constructs values of this type.
type Frame struct {
	// Params holds the decoded, validated user-supplied parameters. It is
	// the concrete value a Spec.ParamsType pointed at, or nil when the
	// Spec declares no parameters.
	Params any
	// Session is the CapSession capability, when requested and resolved.
	Session any
	// DBHandle is the CapDBHandle capability, when requested and resolved.
	DBHandle any
	// ArtifactStore is the CapArtifactStore capability, when requested.
	ArtifactStore any
	// Scheduler is the CapScheduler capability, when requested.
	Scheduler any
}

// Func is the shape every registered callable implements.
type Func func(ctx context.Context, frame *Frame) (any, error)

// Spec is the explicit registration shape for a single callable, replacing
// reflection over a Go func's signature with a declared contract.
type Spec struct {
	// Name is the identifier task templates of kind "function" reference
	// via their command field.
	Name string
	// ParamsType is a pointer to a zero-value instance of the struct the
	// caller's JSON payload decodes into (e.g. &myParams{}), or nil when
	// the callable takes no user-supplied parameters.
	ParamsType any
	// Capabilities lists the framework values this callable requests, in
	// no particular order (capability resolution is type-directed, never
	// positional).
	Capabilities []Capability
	// Blocking marks a callable that performs synchronous blocking work
	// (e.g. CPU-bound computation, a blocking network call) and must be
	// dispatched to the worker pool rather than run inline on the
	// scheduler's own goroutine for that job.
	Blocking bool
	// Func is the callable itself.
	Func Func
}

// Registry is a process-global, name-keyed table of Specs. The zero value
// is unusable; use New.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Spec
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[string]Spec)}
}

// Register binds name to spec. It fails with ErrConflict if name is
// already bound. Mutation is expected to happen during startup wiring,
// before the scheduler begins admitting work.
func (r *Registry) Register(spec Spec) error {
	if spec.Name == "" {
		return fmt.Errorf("registry: spec name must not be empty")
	}
	if spec.Func == nil {
		return fmt.Errorf("registry: spec %q must have a Func", spec.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[spec.Name]; exists {
		return fmt.Errorf("%w: %q", ErrConflict, spec.Name)
	}
	r.entries[spec.Name] = spec
	return nil
}

// Get returns the Spec bound to name, or ErrNotFound.
func (r *Registry) Get(name string) (Spec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.entries[name]
	if !ok {
		return Spec{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return spec, nil
}

// Has reports whether name is bound, without the error-wrapping overhead
// of Get. Used by the Startup Reconciler to check orphaned templates.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// List returns all registered names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear removes all entries. Test-only.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]Spec)
}
