// Package binder implements the Parameter Binder: given a registered
// callable's Spec and a caller-supplied JSON payload, it builds the call
// Frame the callable's Func receives — decoding user parameters and
// resolving any requested framework capabilities by their fixed type tag,
// entirely without reflecting over the callable's own signature.
package binder

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/shaharia-lab/taskcore/internal/artifact"
	"github.com/shaharia-lab/taskcore/internal/registry"
	"github.com/shaharia-lab/taskcore/internal/service"
)

// InjectionTable holds the current instance of every injectable capability.
// A nil field means that capability is unavailable; a Spec requesting it
// fails binding with a validation error.
type InjectionTable struct {
	DB            *sql.DB
	ArtifactStore artifact.Store
	// Scheduler is opaque here to avoid an import cycle with the scheduler
	// package (which does not need to know about the binder); taskexec
	// supplies the concrete *scheduler.Scheduler and callables type-assert
	// it back.
	Scheduler any
}

// Release commits (true) or rolls back (false) any session acquired during
// Bind. It is a no-op when no session capability was requested. The caller
// must invoke it exactly once, on every exit path.
type Release func(commit bool) error

func noopRelease(bool) error { return nil }

// Bind decodes payload into a fresh instance of spec.ParamsType (if any)
// and resolves spec.Capabilities against table, in declaration order. It
// returns the constructed Frame, a Release for any acquired session, and an
// error if decoding fails or a requested capability is unavailable.
func Bind(ctx context.Context, spec registry.Spec, payload json.RawMessage, table InjectionTable) (*registry.Frame, Release, error) {
	frame := &registry.Frame{}

	if spec.ParamsType != nil {
		params := newZeroValue(spec.ParamsType)
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, params); err != nil {
				return nil, noopRelease, &service.ValidationError{
					Field:   "parameters",
					Message: fmt.Sprintf("decoding parameters for %q: %v", spec.Name, err),
				}
			}
		}
		frame.Params = params
	}

	release := noopRelease
	for _, cap := range spec.Capabilities {
		switch cap {
		case registry.CapSession:
			if table.DB == nil {
				return nil, noopRelease, capUnavailable(cap)
			}
			tx, err := table.DB.BeginTx(ctx, nil)
			if err != nil {
				return nil, noopRelease, fmt.Errorf("binder: acquiring session: %w", err)
			}
			frame.Session = tx
			release = func(commit bool) error {
				if commit {
					return tx.Commit()
				}
				return tx.Rollback()
			}
		case registry.CapDBHandle:
			if table.DB == nil {
				return nil, noopRelease, capUnavailable(cap)
			}
			frame.DBHandle = table.DB
		case registry.CapArtifactStore:
			if table.ArtifactStore == nil {
				return nil, noopRelease, capUnavailable(cap)
			}
			frame.ArtifactStore = table.ArtifactStore
		case registry.CapScheduler:
			if table.Scheduler == nil {
				return nil, noopRelease, capUnavailable(cap)
			}
			frame.Scheduler = table.Scheduler
		default:
			return nil, noopRelease, fmt.Errorf("binder: unknown capability %q", cap)
		}
	}

	return frame, release, nil
}

func capUnavailable(cap registry.Capability) error {
	return &service.ValidationError{
		Field:   string(cap),
		Message: "capability not available",
	}
}

// newZeroValue allocates a fresh zero-value instance of the same pointed-to
// type as template (itself expected to be a pointer, e.g. &myParams{}), so
// concurrent binds never share or mutate the Spec's own template value.
func newZeroValue(template any) any {
	t := reflect.TypeOf(template)
	if t.Kind() != reflect.Ptr {
		return template
	}
	return reflect.New(t.Elem()).Interface()
}
