package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/shaharia-lab/taskcore/internal/config"
	"github.com/shaharia-lab/taskcore/internal/storage"
)

// NewTasksCmd returns the "tasks" subcommand: a read-only listing of task
// templates straight from the SQLite database (task templates, unlike
// jobs, are persisted — see SPEC_FULL.md's data model).
func NewTasksCmd(cfg *config.AppConfig) *cobra.Command {
	var enabledOnly bool
	var disabledOnly bool

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List task templates",
		RunE: func(_ *cobra.Command, _ []string) error {
			var filter *bool
			switch {
			case enabledOnly:
				v := true
				filter = &v
			case disabledOnly:
				v := false
				filter = &v
			}
			return listTasks(cfg, filter)
		},
	}

	cmd.Flags().BoolVar(&enabledOnly, "enabled", false, "Only show enabled tasks")
	cmd.Flags().BoolVar(&disabledOnly, "disabled", false, "Only show disabled tasks")

	return cmd
}

func listTasks(cfg *config.AppConfig, filter *bool) error {
	db, err := storage.Open(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	store := storage.NewSQLiteTaskTemplateStore(db)
	tasks, err := store.List(filter)
	if err != nil {
		return fmt.Errorf("listing task templates: %w", err)
	}

	if len(tasks) == 0 {
		fmt.Println("no task templates")
		return nil
	}

	header := tableHeaderStyle()
	fmt.Fprintln(os.Stdout, header.Render(padRight("ID", 28)+padRight("KIND", 10)+padRight("ENABLED", 9)+padRight("UPDATED", 16)+"COMMAND"))
	for _, t := range tasks {
		row := padRight(t.ID.String(), 28) +
			padRight(string(t.Kind), 10) +
			padRight(fmt.Sprintf("%t", t.Enabled), 9) +
			padRight(humanize.Time(t.UpdatedAt), 16) +
			truncate(t.Command, 60)
		fmt.Fprintln(os.Stdout, row)
	}
	return nil
}

func tableHeaderStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s[:n-1] + " "
	}
	return s + strings.Repeat(" ", n-len(s))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
