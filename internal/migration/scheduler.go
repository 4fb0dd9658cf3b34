// Package migration schedules the translation and push of discovered legacy
// entities in dependency order and aggregates the run's report.
package migration

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/rflorenc/ng-migrator/internal/entity"
	"github.com/rflorenc/ng-migrator/internal/mapping"
	"github.com/rflorenc/ng-migrator/internal/metrics"
	"github.com/rflorenc/ng-migrator/internal/models"
	"github.com/rflorenc/ng-migrator/internal/platform"
)

// Scheduler migrates a discovery result into NG. Clients may be nil when
// only generating artifacts.
type Scheduler struct {
	Registry *entity.Registry
	Clients  *platform.TargetClients
	Mappings mapping.Store
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// run is the state of one scheduling pass. It is owned by a single goroutine.
type run struct {
	*Scheduler
	ctx      context.Context
	mc       *entity.Context
	report   *models.SummaryReport
	mode     models.Mode
	push     bool
	batch    int
	logger   *zap.Logger
	progress func(string)
}

// Run migrates result in the given mode and returns the report. Entity-level
// failures are recorded in the report. The returned error is non-nil only for
// a missing root, a dependency cycle or cancellation; in the last two cases
// the partial report is returned as well.
func (s *Scheduler) Run(ctx context.Context, input *models.MigrationInput, result *models.DiscoveryResult, mode models.Mode, progress func(string)) (*models.SummaryReport, error) {
	switch mode {
	case models.ModeSequential, models.ModeTwoPhase:
	case "":
		mode = models.ModeSequential
	default:
		return nil, fmt.Errorf("unknown migration mode %q", mode)
	}
	return s.execute(ctx, input, result, mode, true, progress)
}

// Generate translates every entity without pushing anything. The report's
// Artifacts feed ExportBundle.
func (s *Scheduler) Generate(ctx context.Context, input *models.MigrationInput, result *models.DiscoveryResult, progress func(string)) (*models.SummaryReport, error) {
	return s.execute(ctx, input, result, models.ModeTwoPhase, false, progress)
}

func (s *Scheduler) execute(ctx context.Context, input *models.MigrationInput, result *models.DiscoveryResult, mode models.Mode, push bool, progress func(string)) (*models.SummaryReport, error) {
	if input == nil {
		return nil, errors.New("migration input is required")
	}
	if result == nil {
		return nil, errors.New("discovery result is required")
	}
	if _, ok := result.Graph[result.Root]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrRootNotInGraph, result.Root)
	}
	if progress == nil {
		progress = func(string) {}
	}
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &run{
		Scheduler: s,
		ctx:       ctx,
		mc:        entity.NewContext(input, result, s.Clients, s.Mappings),
		report:    models.NewSummaryReport(),
		mode:      mode,
		push:      push,
		logger:    logger,
		progress:  progress,
	}
	start := time.Now()
	log := logger.With(zap.Stringer("root", result.Root), zap.String("mode", string(mode)), zap.Bool("push", push))
	log.Info("migration started", zap.Int("entities", len(result.Entities)))

	err := r.preload()
	if err == nil {
		err = r.foundational()
	}
	if err == nil {
		err = r.drain()
	}
	if err == nil && push && mode == models.ModeTwoPhase {
		err = r.pushAll()
	}
	r.finish()

	label := string(mode)
	if !push {
		label = "generate"
	}
	s.Metrics.ObserveRun(label, err == nil && r.report.Clean(), time.Since(start))
	if err != nil {
		log.Error("migration stopped", zap.Error(err))
		return r.report, err
	}
	log.Info("migration finished",
		zap.Int("artifacts", len(r.report.Artifacts)),
		zap.Int("errors", len(r.report.Errors)),
		zap.Int("skipped", len(r.report.SkipDetails)),
		zap.Duration("elapsed", time.Since(start)))
	return r.report, nil
}

// preload records every artifact that already exists in NG, environments
// first. Lookup errors are logged and the entity is treated as absent.
func (r *run) preload() error {
	r.progress("=== Checking destination for existing entities ===")
	ids := make([]models.EntityID, 0, len(r.mc.Entities))
	for id := range r.mc.Entities {
		if id.Type != models.DummyHead {
			ids = append(ids, id)
		}
	}
	models.SortIDs(ids)
	sort.SliceStable(ids, func(i, j int) bool {
		return ids[i].Type == models.Environment && ids[j].Type != models.Environment
	})

	for _, id := range ids {
		if err := r.ctx.Err(); err != nil {
			return err
		}
		plugin, err := r.Registry.Get(id.Type)
		if err != nil {
			r.logger.Warn("no plugin for entity", zap.Stringer("entity", id))
			continue
		}
		a, err := plugin.ExistingArtifact(r.ctx, r.mc, id)
		if err != nil {
			r.logger.Warn("existence check failed, treating entity as absent", zap.Stringer("entity", id), zap.Error(err))
			continue
		}
		if a == nil {
			continue
		}
		a.Exists = true
		if r.mc.Record(a) {
			r.report.Artifacts = append(r.report.Artifacts, a)
			r.recordExisting(a)
		}
	}
	return nil
}

// foundational migrates the foundational types in their fixed order before
// the general walk. A same-type cycle stops the run before any of its
// members is pushed.
func (r *run) foundational() error {
	r.progress("=== Migrating foundational entities ===")
	for _, typ := range foundationalTypes {
		layers, stuck := sameTypeLayers(r.mc.Graph, typ)
		if len(stuck) > 0 {
			r.Metrics.CycleDetected()
			return &CycleError{Remaining: stuck}
		}
		for _, layer := range layers {
			processed := false
			for _, id := range layer {
				if err := r.ctx.Err(); err != nil {
					return err
				}
				if r.process(id) {
					processed = true
				}
			}
			if processed {
				r.batch++
			}
		}
	}
	return nil
}

// drain walks a private copy of the graph leaf batch by leaf batch.
func (r *run) drain() error {
	r.progress("=== Migrating remaining entities ===")
	work := r.mc.Graph.Clone()
	for len(work) > 0 {
		leaves := work.Leaves()
		if len(leaves) == 0 {
			r.Metrics.CycleDetected()
			return &CycleError{Remaining: work.Keys()}
		}
		processed := false
		for _, id := range leaves {
			if err := r.ctx.Err(); err != nil {
				return err
			}
			if isFoundational(id.Type) {
				continue
			}
			if r.process(id) {
				processed = true
			}
		}
		if processed {
			r.batch++
		}
		work.RemoveLeaves(leaves)
	}
	return nil
}

// process translates one entity and, in sequential mode, pushes its
// artifacts. It reports whether the entity was handled in this batch.
func (r *run) process(id models.EntityID) bool {
	if id.Type == models.DummyHead || r.mc.IsMigrated(id) {
		return false
	}
	r.report.Order = append(r.report.Order, models.ProcessedEntity{Entity: id, Batch: r.batch})

	plugin, err := r.Registry.Get(id.Type)
	if err != nil {
		r.translationFailed(id, err)
		return true
	}
	if !plugin.CanMigrate(id, r.mc.Root, r.mc.Input.MigrateReferencedEntities) {
		r.skip(id, "referenced entity is not migrated with this root")
		return true
	}
	tr, err := plugin.Translate(r.mc, id)
	if err != nil {
		r.translationFailed(id, err)
		return true
	}
	r.report.SkipDetails = append(r.report.SkipDetails, tr.Skips...)
	for _, a := range tr.Artifacts {
		if !r.mc.Record(a) {
			continue
		}
		r.report.Artifacts = append(r.report.Artifacts, a)
		if r.push && r.mode == models.ModeSequential {
			r.pushArtifact(a)
		}
	}
	return true
}

// pushAll is the second pass of two-phase mode.
func (r *run) pushAll() error {
	r.progress("=== Pushing generated entities ===")
	artifacts := make([]*models.Artifact, len(r.report.Artifacts))
	copy(artifacts, r.report.Artifacts)
	SortArtifacts(artifacts)
	for _, a := range artifacts {
		if err := r.ctx.Err(); err != nil {
			return err
		}
		if a.Exists {
			continue
		}
		r.pushArtifact(a)
	}
	return nil
}
