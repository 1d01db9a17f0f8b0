// Package reconcile implements the Startup Reconciler: at process boot it
// walks persisted function-kind task templates and disables any whose
// command no longer resolves against the Callable Registry, so a template
// that can never successfully run stops being offered for execution.
//
// Grounded on the reference scheduler's Start method, which likewise
// iterates persisted state once at boot and logs per-item failures without
// aborting the whole pass.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaharia-lab/taskcore/internal/registry"
	"github.com/shaharia-lab/taskcore/internal/storage"
)

// Summary reports the outcome of a single reconciliation pass.
type Summary struct {
	Checked  int
	Disabled []string
}

// Reconcile disables (and persists) every enabled, kind=function template
// whose command is absent from reg, logging a structured warning for each.
func Reconcile(ctx context.Context, store storage.TaskTemplateStore, reg *registry.Registry, logger *slog.Logger) (Summary, error) {
	_ = ctx
	if logger == nil {
		logger = slog.Default()
	}

	enabledOnly := true
	templates, err := store.List(&enabledOnly)
	if err != nil {
		return Summary{}, fmt.Errorf("listing task templates: %w", err)
	}

	var summary Summary
	for _, tmpl := range templates {
		if tmpl.Kind != storage.KindFunction {
			continue
		}
		summary.Checked++

		if reg.Has(tmpl.Command) {
			continue
		}

		tmpl.Enabled = false
		if err := store.Update(tmpl); err != nil {
			logger.Warn("reconciler: failed to disable orphaned task",
				"task_id", tmpl.ID.String(), "command", tmpl.Command, "error", err)
			continue
		}

		logger.Warn("reconciler: disabled orphaned function task",
			"task_id", tmpl.ID.String(), "command", tmpl.Command)
		summary.Disabled = append(summary.Disabled, tmpl.ID.String())
	}

	logger.Info("reconciler: startup pass complete",
		"checked", summary.Checked, "disabled", len(summary.Disabled))
	return summary, nil
}
