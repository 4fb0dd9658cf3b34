package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rflorenc/ng-migrator/internal/models"
)

// ListJobs returns every discover and migrate job, newest first. Pass
// ?type=discover to filter by job type prefix.
func (s *Server) ListJobs(w http.ResponseWriter, r *http.Request) {
	typ := r.URL.Query().Get("type")
	jobs := s.Jobs.List()
	out := make([]models.JobView, 0, len(jobs))
	for _, job := range jobs {
		if typ != "" && !strings.HasPrefix(job.Type, typ) {
			continue
		}
		out = append(out, job.Snapshot())
	}
	writeJSON(w, http.StatusOK, out)
}

// GetJob returns one job with its log lines so far.
func (s *Server) GetJob(w http.ResponseWriter, r *http.Request) {
	job := s.Jobs.Get(chi.URLParam(r, "id"))
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

// CancelJob stops a running discover or migrate job. The run returns its
// partial result at the next entity boundary.
func (s *Server) CancelJob(w http.ResponseWriter, r *http.Request) {
	job := s.Jobs.Get(chi.URLParam(r, "id"))
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if job.Done() {
		writeError(w, http.StatusConflict, "job is not running")
		return
	}
	job.Cancel()
	job.AppendLog("CANCELLED: stopped by user")
	writeJSON(w, http.StatusOK, job.Snapshot())
}
