package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/rflorenc/ng-migrator/internal/log"
	"github.com/rflorenc/ng-migrator/internal/migration"
	"github.com/rflorenc/ng-migrator/internal/models"
	"github.com/rflorenc/ng-migrator/internal/platform"
)

type migrateRequest struct {
	DiscoveryJobID   string                 `json:"discovery_job_id"`
	DestinationID    string                 `json:"destination_id"`
	DestinationToken string                 `json:"destination_token"`
	Mode             models.Mode            `json:"mode"`
	Input            *models.MigrationInput `json:"input"`
}

// input overlays the request's migration input on the server defaults.
func (s *Server) input(req *migrateRequest, d *Discovery) *models.MigrationInput {
	in := s.Defaults
	in.DefaultScopes = make(map[models.EntityType]models.Scope, len(s.Defaults.DefaultScopes))
	for k, v := range s.Defaults.DefaultScopes {
		in.DefaultScopes[k] = v
	}
	if req.Input != nil {
		o := req.Input
		if o.AccountID != "" {
			in.AccountID = o.AccountID
		}
		if o.DestinationAccountID != "" {
			in.DestinationAccountID = o.DestinationAccountID
		}
		if o.OrgIdentifier != "" {
			in.OrgIdentifier = o.OrgIdentifier
		}
		if o.ProjectIdentifier != "" {
			in.ProjectIdentifier = o.ProjectIdentifier
		}
		if o.IdentifierCaseFormat != "" {
			in.IdentifierCaseFormat = o.IdentifierCaseFormat
		}
		if o.MigrateReferencedEntities {
			in.MigrateReferencedEntities = true
		}
		for k, v := range o.DefaultScopes {
			in.DefaultScopes[k] = v
		}
		in.Overrides = o.Overrides
	}
	if in.AccountID == "" {
		in.AccountID = d.AccountID
	}
	if req.DestinationToken != "" {
		in.DestinationAuthToken = req.DestinationToken
	}
	in.Root = d.Result.Root
	return &in
}

// MigrateHandler starts an async migration of a completed discovery.
func (s *Server) MigrateHandler(w http.ResponseWriter, r *http.Request) {
	var req migrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Mode == "" {
		req.Mode = s.DefaultMode
	}
	if req.Mode != models.ModeSequential && req.Mode != models.ModeTwoPhase {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown mode %q", req.Mode))
		return
	}
	d, ok := s.discoveryFor(w, req.DiscoveryJobID)
	if !ok {
		return
	}
	dst := s.Connections.Get(req.DestinationID)
	if dst == nil {
		writeError(w, http.StatusNotFound, "destination connection not found")
		return
	}
	if dst.Type != "ng" {
		writeError(w, http.StatusBadRequest, "destination connection must be of type ng")
		return
	}

	in := s.input(&req, d)
	scheduler := &migration.Scheduler{
		Registry: d.Registry,
		Clients:  platform.NewTargetClients(dst, in),
		Mappings: s.Mappings,
		Metrics:  s.Metrics,
		Logger:   s.Logger,
	}
	job := s.Jobs.Create("migrate-" + string(req.Mode))

	go func() {
		progress := log.Progress(s.Logger.With(zap.String("job", job.ID)), job.AppendLog)
		progress(fmt.Sprintf("=== Migrating %s to %s (%s) ===", d.Result.Root, dst.Name, req.Mode))
		report, err := scheduler.Run(job.Context(), in, d.Result, req.Mode, progress)
		if report != nil {
			s.Reports.Store(job.ID, report)
			progress(fmt.Sprintf("Migration finished: %d succeeded, %d already migrated, %d errors, %d skipped",
				len(report.Succeeded), len(report.AlreadyMigrated), len(report.Errors), len(report.SkipDetails)))
		}
		if err != nil {
			job.AppendLog("ERROR: " + err.Error())
			job.Fail(err.Error())
			return
		}
		job.Complete()
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID})
}

// GetMigrationReport returns the summary report of a migration job. A run
// stopped by a cycle or a cancellation still has its partial report.
func (s *Server) GetMigrationReport(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	job := s.Jobs.Get(jobID)
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if !job.Done() {
		jobPending(w, job)
		return
	}
	report, ok := s.Reports.Get(jobID)
	if !ok {
		if !jobPending(w, job) {
			writeError(w, http.StatusNotFound, "migration report not found")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": job.CurrentStatus(),
		"error":  job.ErrorMessage(),
		"report": report,
	})
}

// ExportHandler generates every artifact of a discovery without pushing and
// returns them as a zip of YAML files.
func (s *Server) ExportHandler(w http.ResponseWriter, r *http.Request) {
	var req migrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	d, ok := s.discoveryFor(w, req.DiscoveryJobID)
	if !ok {
		return
	}
	in := s.input(&req, d)
	scheduler := &migration.Scheduler{
		Registry: d.Registry,
		Mappings: s.Mappings,
		Metrics:  s.Metrics,
		Logger:   s.Logger,
	}
	if dst := s.Connections.Get(req.DestinationID); dst != nil && dst.Type == "ng" {
		scheduler.Clients = platform.NewTargetClients(dst, in)
	}

	report, err := scheduler.Generate(r.Context(), in, d.Result, nil)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	var buf bytes.Buffer
	n, err := migration.ExportBundle(&buf, report.Artifacts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.Logger.Info("bundle exported", zap.String("discovery_job", req.DiscoveryJobID), zap.Int("files", n))
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "ng-migration-"+req.DiscoveryJobID+".zip"))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
