package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/shaharia-lab/taskcore/internal/artifact"
	"github.com/shaharia-lab/taskcore/internal/registry"
	"github.com/shaharia-lab/taskcore/internal/scheduler"
	"github.com/shaharia-lab/taskcore/internal/storage"
	"github.com/shaharia-lab/taskcore/internal/taskexec"
)

// Route pattern constants to avoid duplication.
const (
	routeTaskByID     = "/tasks/{id}"
	routeJobByID      = "/jobs/{id}"
	routeArtifactByID = "/artifacts/{id}"
)

// Server holds all dependencies for the REST API handlers.
type Server struct {
	store     storage.TaskTemplateStore
	artifacts artifact.Store
	scheduler *scheduler.Scheduler
	executor  *taskexec.Executor
	registry  *registry.Registry
	logger    *slog.Logger
}

// Config wires a Server to its collaborators.
type Config struct {
	Store         storage.TaskTemplateStore
	ArtifactStore artifact.Store
	Scheduler     *scheduler.Scheduler
	Executor      *taskexec.Executor
	Registry      *registry.Registry
	Logger        *slog.Logger
}

// New creates a new API Server backed by the provided collaborators.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:     cfg.Store,
		artifacts: cfg.ArtifactStore,
		scheduler: cfg.Scheduler,
		executor:  cfg.Executor,
		registry:  cfg.Registry,
		logger:    logger,
	}
}

// Router builds a chi.Router with middleware and every route mounted.
func (s *Server) Router(corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
	}))

	s.Mount(r)
	return r
}

// Mount registers all API routes under the given router.
func (s *Server) Mount(r chi.Router) {
	r.Get("/healthz", s.handleHealth)

	// Task templates
	r.Get("/tasks", s.handleListTasks)
	r.Post("/tasks", s.handleCreateTask)
	r.Get(routeTaskByID, s.handleGetTask)
	r.Put(routeTaskByID, s.handleUpdateTask)
	r.Delete(routeTaskByID, s.handleDeleteTask)
	r.Post(routeTaskByID+"/$execute", s.handleExecuteTask)

	// Jobs
	r.Get("/jobs", s.handleListJobs)
	r.Get(routeJobByID, s.handleGetJob)
	r.Delete(routeJobByID, s.handleCancelJob)
	r.Get(routeJobByID+"/$stream", s.handleStreamJob)

	// Artifacts
	r.Get("/artifacts", s.handleListArtifacts)
	r.Get(routeArtifactByID, s.handleGetArtifact)
	r.Delete(routeArtifactByID, s.handleDeleteArtifact)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
