package registry

import (
	"context"
	"fmt"
	"time"
)

// currentTimeParams is the user-supplied payload for the current_time
// callable, ported from the reference app's MCP tool of the same name.
type currentTimeParams struct {
	Timezone string `json:"timezone"`
}

// currentTime returns the wall-clock time in the requested IANA timezone,
// defaulting to UTC. It takes no capabilities and runs inline (non-blocking).
func currentTime(_ context.Context, frame *Frame) (any, error) {
	params, _ := frame.Params.(*currentTimeParams)
	tz := "UTC"
	if params != nil && params.Timezone != "" {
		tz = params.Timezone
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", tz, err)
	}

	now := time.Now().In(loc)
	return map[string]string{
		"timezone": tz,
		"rfc1123":  now.Format(time.RFC1123),
		"rfc3339":  now.Format(time.RFC3339),
	}, nil
}

// RegisterBuiltins registers the demonstration callables shipped with the
// module so a fresh deployment has at least one working function-kind task.
func RegisterBuiltins(r *Registry) error {
	return r.Register(Spec{
		Name:       "current_time",
		ParamsType: &currentTimeParams{},
		Func:       currentTime,
	})
}
