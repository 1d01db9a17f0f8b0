// Package cmd implements the taskcore CLI: a "serve" subcommand that runs
// the HTTP API over the Job Scheduler, plus read-only "tasks" and "jobs"
// inspection subcommands for operators.
//
// Grounded on the reference app's cmd/root.go and cmd/web.go (NewRootCmd
// wiring an *config.AppConfig, a "web"/"serve" subcommand building the full
// dependency graph and calling srv.Run(ctx) under a signal-cancelled
// context).
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaharia-lab/taskcore/internal/config"
)

// NewRootCmd returns the root cobra command wired with the provided AppConfig.
func NewRootCmd(cfg *config.AppConfig) *cobra.Command {
	root := &cobra.Command{
		Use:   "taskcore",
		Short: "taskcore — bounded-concurrency job scheduler",
		Long:  "A standalone core for scheduling, executing, and inspecting shell and callable-backed jobs.",
	}
	root.AddCommand(NewServeCmd(cfg))
	root.AddCommand(NewTasksCmd(cfg))
	root.AddCommand(NewJobsCmd(cfg))
	return root
}

// Execute is the entrypoint called from main. It loads config, wires the
// command tree, and runs the root command.
func Execute() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	root := NewRootCmd(cfg)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
