package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/rflorenc/ng-migrator/internal/discovery"
	"github.com/rflorenc/ng-migrator/internal/entity"
	"github.com/rflorenc/ng-migrator/internal/log"
	"github.com/rflorenc/ng-migrator/internal/models"
	"github.com/rflorenc/ng-migrator/internal/platform"
)

type discoverRequest struct {
	SourceID  string            `json:"source_id"`
	AccountID string            `json:"account_id"`
	AppID     string            `json:"app_id"`
	Type      models.EntityType `json:"type"`
	ID        string            `json:"id"`
}

type discoverMultiRequest struct {
	SourceID  string           `json:"source_id"`
	AccountID string           `json:"account_id"`
	Seeds     []discovery.Seed `json:"seeds"`
}

// source resolves a legacy connection and the account to discover in.
func (s *Server) source(w http.ResponseWriter, sourceID, accountID string) (*models.Connection, string, bool) {
	src := s.Connections.Get(sourceID)
	if src == nil {
		writeError(w, http.StatusNotFound, "source connection not found")
		return nil, "", false
	}
	if src.Type != "cg" {
		writeError(w, http.StatusBadRequest, "source connection must be of type cg")
		return nil, "", false
	}
	if accountID == "" {
		accountID = src.AccountID
	}
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "account_id is required")
		return nil, "", false
	}
	return src, accountID, true
}

// startDiscovery runs fn as an async job and stores its result.
func (s *Server) startDiscovery(jobType string, src *models.Connection, accountID string,
	fn func(ctx context.Context, e *discovery.Engine, progress func(string)) (*models.DiscoveryResult, error)) *models.Job {
	registry := entity.NewDefaultRegistry(platform.NewSource(src))
	engine := discovery.NewEngine(registry, s.Logger, s.Metrics)
	job := s.Jobs.Create(jobType)

	go func() {
		progress := log.Progress(s.Logger.With(zap.String("job", job.ID)), job.AppendLog)
		result, err := fn(job.Context(), engine, progress)
		if err != nil {
			job.AppendLog("ERROR: " + err.Error())
			job.Fail(err.Error())
			return
		}
		s.Discoveries.Store(job.ID, &Discovery{
			AccountID: accountID,
			SourceID:  src.ID,
			Result:    result,
			Registry:  registry,
		})
		job.Complete()
	}()
	return job
}

// DiscoverHandler starts an async discovery from a single root.
func (s *Server) DiscoverHandler(w http.ResponseWriter, r *http.Request) {
	var req discoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Type == "" || req.ID == "" {
		writeError(w, http.StatusBadRequest, "type and id are required")
		return
	}
	src, accountID, ok := s.source(w, req.SourceID, req.AccountID)
	if !ok {
		return
	}
	root := models.EntityID{Type: req.Type, ID: req.ID}
	job := s.startDiscovery("discover", src, accountID, func(ctx context.Context, e *discovery.Engine, progress func(string)) (*models.DiscoveryResult, error) {
		return e.Discover(ctx, accountID, req.AppID, root, progress)
	})
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID})
}

// DiscoverMultiHandler starts an async discovery of several roots.
func (s *Server) DiscoverMultiHandler(w http.ResponseWriter, r *http.Request) {
	var req discoverMultiRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if len(req.Seeds) == 0 {
		writeError(w, http.StatusBadRequest, "at least one seed is required")
		return
	}
	src, accountID, ok := s.source(w, req.SourceID, req.AccountID)
	if !ok {
		return
	}
	job := s.startDiscovery("discover-multi", src, accountID, func(ctx context.Context, e *discovery.Engine, progress func(string)) (*models.DiscoveryResult, error) {
		return e.DiscoverMulti(ctx, accountID, req.Seeds, progress)
	})
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID})
}

// discoveryFor returns the stored result of a completed discovery job.
func (s *Server) discoveryFor(w http.ResponseWriter, jobID string) (*Discovery, bool) {
	job := s.Jobs.Get(jobID)
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return nil, false
	}
	if jobPending(w, job) {
		return nil, false
	}
	d, ok := s.Discoveries.Get(jobID)
	if !ok {
		writeError(w, http.StatusNotFound, "discovery result not found")
		return nil, false
	}
	return d, true
}

// GetDiscovery returns the per-type summary of a discovery job.
func (s *Server) GetDiscovery(w http.ResponseWriter, r *http.Request) {
	d, ok := s.discoveryFor(w, chi.URLParam(r, "jobId"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, discovery.Summarize(d.AccountID, d.Result))
}

// GetDiscoveryGraph renders the dependency graph as Graphviz DOT.
func (s *Server) GetDiscoveryGraph(w http.ResponseWriter, r *http.Request) {
	d, ok := s.discoveryFor(w, chi.URLParam(r, "jobId"))
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	if err := discovery.WriteDOT(w, d.Result); err != nil {
		s.Logger.Warn("writing graph", zap.Error(err))
	}
}
