package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/rflorenc/ng-migrator/internal/entity"
	"github.com/rflorenc/ng-migrator/internal/models"
)

// Discovery is a finished discovery job kept for later migration or export.
type Discovery struct {
	AccountID string
	SourceID  string
	Result    *models.DiscoveryResult
	Registry  *entity.Registry
}

// ResultStore keeps job outputs by job ID.
type ResultStore[T any] struct {
	mu      sync.RWMutex
	results map[string]T
}

func NewResultStore[T any]() *ResultStore[T] {
	return &ResultStore[T]{results: make(map[string]T)}
}

func (rs *ResultStore[T]) Store(jobID string, v T) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.results[jobID] = v
}

func (rs *ResultStore[T]) Get(jobID string) (T, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	v, ok := rs.results[jobID]
	return v, ok
}

func (rs *ResultStore[T]) Delete(jobID string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	delete(rs.results, jobID)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// jobPending writes the response for a job that has no result yet. It
// returns false when the job finished successfully.
func jobPending(w http.ResponseWriter, job *models.Job) bool {
	switch job.CurrentStatus() {
	case "running":
		writeJSON(w, http.StatusConflict, map[string]string{
			"status":  "running",
			"message": "job is still in progress",
		})
		return true
	case "completed":
		return false
	default:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": job.CurrentStatus(),
			"error":  job.ErrorMessage(),
		})
		return true
	}
}
