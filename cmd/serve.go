package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/shaharia-lab/taskcore/internal/api"
	"github.com/shaharia-lab/taskcore/internal/artifact"
	"github.com/shaharia-lab/taskcore/internal/config"
	"github.com/shaharia-lab/taskcore/internal/eventbus"
	"github.com/shaharia-lab/taskcore/internal/logger"
	"github.com/shaharia-lab/taskcore/internal/metrics"
	"github.com/shaharia-lab/taskcore/internal/reconcile"
	"github.com/shaharia-lab/taskcore/internal/registry"
	"github.com/shaharia-lab/taskcore/internal/scheduler"
	"github.com/shaharia-lab/taskcore/internal/storage"
	"github.com/shaharia-lab/taskcore/internal/taskexec"
)

// NewServeCmd returns the "serve" subcommand that starts the HTTP API over
// the Job Scheduler.
//
// Grounded on the reference app's cmd/web.go runWeb/buildWebServer shape:
// signal.NotifyContext for graceful shutdown, a logger built before
// anything else so startup failures are still captured, and a deferred
// event-bus Close tied to ctx.Done().
func NewServeCmd(cfg *config.AppConfig) *cobra.Command {
	var port int
	var noBanner bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the taskcore HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			return runServe(cfg, noBanner)
		},
	}

	cmd.Flags().IntVar(&port, "port", cfg.Port, "HTTP server port (overrides PORT env var)")
	cmd.Flags().BoolVar(&noBanner, "no-banner", false, "Do not print the startup banner")

	return cmd
}

func runServe(cfg *config.AppConfig, noBanner bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := os.MkdirAll(cfg.LogDir(), 0o750); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	sysLogger, err := logger.New(cfg.LogDir(), cfg.SlogLevel())
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	sysLogger.Info("taskcore starting", "port", cfg.Port, "data_dir", cfg.DataDir)

	db, err := storage.Open(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			sysLogger.Error("failed to close database", "error", cerr)
		}
	}()

	store := storage.NewSQLiteTaskTemplateStore(db)
	artifacts := artifact.NewSQLiteStore(db)

	reg := registry.New()
	if err := registry.RegisterBuiltins(reg); err != nil {
		return fmt.Errorf("registering builtin callables: %w", err)
	}

	summary, err := reconcile.Reconcile(ctx, store, reg, sysLogger)
	if err != nil {
		return fmt.Errorf("reconciling task templates at startup: %w", err)
	}
	sysLogger.Info("startup reconciliation complete", "checked", summary.Checked, "disabled", len(summary.Disabled))

	metricsReg := prometheus.NewRegistry()
	m := metrics.New(metricsReg)

	bus := eventbus.New(3, sysLogger)
	bus.Subscribe(func(e eventbus.Event) { m.Observe(e.Type) })
	defer bus.Close()

	sched := scheduler.New(scheduler.Config{
		Logger:         sysLogger,
		MaxConcurrency: cfg.MaxConcurrency,
		EventPublisher: bus,
	})
	defer sched.Stop()

	executor := taskexec.New(taskexec.Config{
		Store:         store,
		ArtifactStore: artifacts,
		Scheduler:     sched,
		Registry:      reg,
		DB:            db,
		WorkerPool:    taskexec.NewWorkerPool(cfg.WorkerPoolSize),
		Metrics:       m,
	})

	apiSrv := api.New(api.Config{
		Store:         store,
		ArtifactStore: artifacts,
		Scheduler:     sched,
		Executor:      executor,
		Registry:      reg,
		Logger:        sysLogger,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.Handle("/", apiSrv.Router(corsOrigins(cfg.CORSOrigins)))

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
	}

	if !noBanner {
		printBanner(cfg.Port)
	}
	sysLogger.Info("server ready", "port", cfg.Port)

	return runHTTPServer(ctx, httpServer, sysLogger)
}

func runHTTPServer(ctx context.Context, httpServer *http.Server, sysLogger *slog.Logger) error {
	ln, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", httpServer.Addr, err)
	}

	errCh := make(chan error, 1)
	go func() {
		if serveErr := httpServer.Serve(ln); serveErr != nil && serveErr != http.ErrServerClosed {
			errCh <- serveErr
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			sysLogger.Error("error during graceful shutdown", "error", err)
			return err
		}
		return nil
	case err := <-errCh:
		return err
	}
}

func corsOrigins(raw string) []string {
	if raw == "" {
		return []string{"*"}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func printBanner(port int) {
	logo := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Render("taskcore")

	desc := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Italic(true).
		Render("bounded-concurrency job scheduler")

	urlStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("14")).
		Underline(true)

	borderStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		PaddingLeft(1).
		PaddingRight(2)

	row := fmt.Sprintf("URL  %s", urlStyle.Render(fmt.Sprintf("http://localhost:%d", port)))
	fmt.Println(logo)
	fmt.Println(desc)
	fmt.Println()
	fmt.Println(borderStyle.Render(row))
	fmt.Println()
}
