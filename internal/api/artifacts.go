package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleListArtifacts lists all artifacts ordered by creation time.
func (s *Server) handleListArtifacts(w http.ResponseWriter, r *http.Request) {
	artifacts, err := s.artifacts.List()
	if err != nil {
		httpErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, artifacts)
}

// handleGetArtifact returns a single artifact by ID.
func (s *Server) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	artifactID, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		httpErr(w, err)
		return
	}
	a, err := s.artifacts.Load(artifactID)
	if err != nil {
		httpErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// handleDeleteArtifact deletes an artifact by ID.
func (s *Server) handleDeleteArtifact(w http.ResponseWriter, r *http.Request) {
	artifactID, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		httpErr(w, err)
		return
	}
	if err := s.artifacts.Delete(artifactID); err != nil {
		httpErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
