package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shaharia-lab/taskcore/internal/scheduler"
)

// handleListJobs lists known jobs, optionally filtered by status_filter.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	var filter scheduler.ListFilter
	if raw := r.URL.Query().Get("status_filter"); raw != "" {
		status := scheduler.Status(raw)
		filter.Status = &status
	}
	writeJSON(w, http.StatusOK, s.scheduler.List(filter))
}

// handleGetJob returns a single job snapshot.
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		httpErr(w, err)
		return
	}
	job, err := s.scheduler.Get(jobID)
	if err != nil {
		httpErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handleCancelJob requests cancellation of a job. Idempotent: canceling an
// already-terminal job is a no-op that still returns 204.
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		httpErr(w, err)
		return
	}
	if err := s.scheduler.Cancel(jobID); err != nil {
		httpErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleStreamJob streams status snapshots for a job over Server-Sent
// Events, ending after the first terminal snapshot.
//
// Grounded on the reference app's internal/api/chats.go
// prepareSSEResponse/sendSSEEvent helpers: same headers, same explicit
// http.Flusher type-assert with a graceful "streaming not supported"
// fallback.
func (s *Server) handleStreamJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		httpErr(w, err)
		return
	}

	ch, err := s.scheduler.Subscribe(jobID)
	if err != nil {
		httpErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	flusher, ok := w.(http.Flusher)
	if !ok {
		sendSSEEvent(w, nil, s.logger, "error", map[string]string{
			"error": "streaming not supported",
		})
		return
	}

	ctx := r.Context()
	for {
		select {
		case job, open := <-ch:
			if !open {
				return
			}
			sendSSEEvent(w, flusher, s.logger, "job", job)
		case <-ctx.Done():
			return
		}
	}
}
