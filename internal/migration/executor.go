package migration

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/rflorenc/ng-migrator/internal/metrics"
	"github.com/rflorenc/ng-migrator/internal/models"
)

// pushArtifact writes one artifact through its type's plugin and records the
// outcome. Nothing is returned: every failure ends up in the report.
func (r *run) pushArtifact(a *models.Artifact) {
	plugin, err := r.Registry.Get(a.Type)
	if err != nil {
		r.recordResult(a, failedResult(a, err))
		return
	}
	res, err := plugin.Push(r.ctx, r.mc, a)
	if err != nil {
		r.logger.Error("unable to migrate entity", zap.Stringer("entity", a.ForEntity), zap.Error(err))
		res = failedResult(a, err)
	}
	if res == nil {
		res = failedResult(a, fmt.Errorf("no result from push"))
	}
	r.recordResult(a, res)
}

func failedResult(a *models.Artifact, err error) *models.ImportResult {
	return &models.ImportResult{
		Errors: []models.ImportError{{Entity: a.CGInfo, Message: err.Error()}},
	}
}

// recordResult adds one push outcome to the report and, on success, to the
// mapping store.
func (r *run) recordResult(a *models.Artifact, res *models.ImportResult) {
	stats := r.report.StatsFor(a.Type)
	if res.Success {
		stats.Succeeded++
		r.report.Succeeded = append(r.report.Succeeded, models.MigratedDetail{CG: a.CGInfo, NG: a.Target})
		if err := r.mc.Mappings.Record(r.mc.AccountID, a.CGInfo, a.Target); err != nil {
			r.logger.Warn("unable to record mapping", zap.Stringer("entity", a.ForEntity), zap.Error(err))
		}
		r.Metrics.EntityProcessed(string(a.Type), metrics.OutcomeSucceeded)
		r.progress(fmt.Sprintf("  OK: %s %s -> %s", a.Type, a.CGInfo.Name, a.Target.ScopedIdentifier()))
	} else {
		stats.Failed++
		if len(res.Errors) == 0 {
			res.Errors = []models.ImportError{{Entity: a.CGInfo, Message: "push failed"}}
		}
		r.Metrics.EntityProcessed(string(a.Type), metrics.OutcomeFailed)
		for _, e := range res.Errors {
			r.progress(fmt.Sprintf("  FAIL: %s %s: %s", a.Type, a.CGInfo.Name, e.Message))
		}
	}
	r.report.Errors = append(r.report.Errors, res.Errors...)
}
