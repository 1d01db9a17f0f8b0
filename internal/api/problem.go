// Package api exposes the core's REST surface: task template CRUD, task
// execution, job inspection/cancellation/streaming, and artifact CRUD.
//
// Grounded on the reference app's internal/api/server.go and tasks.go
// (chi.Router, a Server struct wired with service handles, a Mount method,
// shared writeJSON/writeError helpers), with the reference's plain
// {"error": "..."} body generalized to RFC 9457 application/problem+json
// per this module's error-handling design.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shaharia-lab/taskcore/internal/id"
	"github.com/shaharia-lab/taskcore/internal/registry"
	"github.com/shaharia-lab/taskcore/internal/scheduler"
	"github.com/shaharia-lab/taskcore/internal/service"
)

const errInvalidJSONBody = "invalid JSON body"

// Problem is an RFC 9457 application/problem+json body.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

const problemTypeBase = "urn:taskcore:error:"

func writeProblem(w http.ResponseWriter, status int, kind, detail string) {
	p := Problem{
		Type:   problemTypeBase + kind,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(p)
}

// httpErr maps a collaborator error to the RFC 9457 kind and HTTP status it
// corresponds to, per §7 of the error handling design.
func httpErr(w http.ResponseWriter, err error) {
	var notFound *service.NotFoundError
	var validation *service.ValidationError
	var conflict *service.ConflictError
	var invalidID *service.InvalidIDError

	switch {
	case errors.As(err, &notFound):
		writeProblem(w, http.StatusNotFound, "not-found", err.Error())
	case errors.As(err, &validation):
		writeProblem(w, http.StatusBadRequest, "validation-failed", err.Error())
	case errors.As(err, &conflict):
		writeProblem(w, http.StatusConflict, "conflict", err.Error())
	case errors.As(err, &invalidID):
		writeProblem(w, http.StatusBadRequest, "invalid-id", err.Error())
	case errors.Is(err, id.ErrInvalidID):
		writeProblem(w, http.StatusBadRequest, "invalid-id", err.Error())
	case errors.Is(err, scheduler.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "not-found", err.Error())
	case errors.Is(err, scheduler.ErrStopped):
		writeProblem(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, registry.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "not-found", err.Error())
	case errors.Is(err, registry.ErrConflict):
		writeProblem(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeProblem(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, logger *slog.Logger, event string, data any) {
	b, err := json.Marshal(data)
	if err != nil {
		logger.Error("sendSSEEvent: failed to marshal data", "error", err)
		return
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(b)); err != nil {
		return
	}
	if flusher != nil {
		flusher.Flush()
	}
}

func parseID(raw string) (id.ID, error) {
	return id.Parse(raw)
}
