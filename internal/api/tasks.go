package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shaharia-lab/taskcore/internal/service"
	"github.com/shaharia-lab/taskcore/internal/storage"
)

// createTaskBody is the request body for POST /tasks.
type createTaskBody struct {
	Command    string          `json:"command"`
	Kind       string          `json:"kind"`
	Parameters json.RawMessage `json:"parameters"`
	Enabled    *bool           `json:"enabled"`
}

// handleListTasks returns task templates, optionally filtered by the
// enabled query parameter, and paginated by page/size.
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	var enabledOnly *bool
	if raw := r.URL.Query().Get("enabled"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "validation-failed", "enabled must be a boolean")
			return
		}
		enabledOnly = &v
	}

	tasks, err := s.store.List(enabledOnly)
	if err != nil {
		httpErr(w, err)
		return
	}

	page := parseQueryInt(r, "page", 1)
	size := parseQueryInt(r, "size", len(tasks))
	writeJSON(w, http.StatusOK, paginate(tasks, page, size))
}

func paginate(tasks []*storage.TaskTemplate, page, size int) map[string]any {
	total := len(tasks)
	if size <= 0 {
		size = total
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return map[string]any{
		"items": tasks[start:end],
		"page":  page,
		"size":  size,
		"total": total,
	}
}

// handleCreateTask creates a new task template.
func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var body createTaskBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "validation-failed", errInvalidJSONBody)
		return
	}
	if body.Command == "" {
		writeProblem(w, http.StatusBadRequest, "validation-failed", "command is required")
		return
	}

	kind := storage.Kind(body.Kind)
	if kind == "" {
		kind = storage.KindShell
	}
	if kind != storage.KindShell && kind != storage.KindFunction {
		writeProblem(w, http.StatusBadRequest, "validation-failed", "kind must be \"shell\" or \"function\"")
		return
	}

	enabled := true
	if body.Enabled != nil {
		enabled = *body.Enabled
	}

	task := &storage.TaskTemplate{
		Command:    body.Command,
		Kind:       kind,
		Parameters: body.Parameters,
		Enabled:    enabled,
	}
	if err := s.store.Create(task); err != nil {
		httpErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// handleGetTask returns a single task template by ID.
func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		httpErr(w, err)
		return
	}

	task, err := s.store.Get(taskID)
	if err != nil {
		httpErr(w, err)
		return
	}
	if task == nil {
		httpErr(w, &service.NotFoundError{Resource: "task", ID: taskID.String()})
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// handleUpdateTask updates an existing task template's mutable fields.
func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		httpErr(w, err)
		return
	}

	var body createTaskBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "validation-failed", errInvalidJSONBody)
		return
	}

	existing, err := s.store.Get(taskID)
	if err != nil {
		httpErr(w, err)
		return
	}
	if existing == nil {
		httpErr(w, &service.NotFoundError{Resource: "task", ID: taskID.String()})
		return
	}

	if body.Command != "" {
		existing.Command = body.Command
	}
	if body.Kind != "" {
		existing.Kind = storage.Kind(body.Kind)
	}
	if body.Parameters != nil {
		existing.Parameters = body.Parameters
	}
	if body.Enabled != nil {
		existing.Enabled = *body.Enabled
	}

	if err := s.store.Update(existing); err != nil {
		httpErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, existing)
}

// handleDeleteTask deletes a task template.
func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		httpErr(w, err)
		return
	}
	if err := s.store.Delete(taskID); err != nil {
		httpErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExecuteTask submits a task template for execution and returns 202
// with the scheduler job ID. Execution itself happens asynchronously.
func (s *Server) handleExecuteTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		httpErr(w, err)
		return
	}

	jobID, err := s.executor.Execute(r.Context(), taskID)
	if err != nil {
		httpErr(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"job_id":  jobID.String(),
		"message": "task submitted",
	})
}

func parseQueryInt(r *http.Request, key string, defaultVal int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return defaultVal
	}
	return v
}
