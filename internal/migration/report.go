package migration

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/rflorenc/ng-migrator/internal/entity"
	"github.com/rflorenc/ng-migrator/internal/metrics"
	"github.com/rflorenc/ng-migrator/internal/models"
)

func (r *run) recordExisting(a *models.Artifact) {
	r.report.StatsFor(a.Type).AlreadyMigrated++
	r.report.AlreadyMigrated = append(r.report.AlreadyMigrated, models.MigratedDetail{CG: a.CGInfo, NG: a.Target})
	r.Metrics.EntityProcessed(string(a.Type), metrics.OutcomeExisting)
	r.logger.Debug("skipping creation of existing entity", zap.Stringer("entity", a.ForEntity))
	r.progress(fmt.Sprintf("  EXISTS: %s %s", a.Type, a.CGInfo.Name))
}

func (r *run) skip(id models.EntityID, reason string) {
	info := r.mc.BasicInfo(id)
	r.report.SkipDetails = append(r.report.SkipDetails, models.SkipDetail{Entity: id, Name: info.Name, Reason: reason})
	r.Metrics.EntityProcessed(string(id.Type), metrics.OutcomeSkipped)
	r.progress(fmt.Sprintf("  SKIP: %s %s: %s", id.Type, info.Name, reason))
}

// translationFailed records an entity whose artifacts could not be built. The
// entity is both an error and a skip; its batch continues.
func (r *run) translationFailed(id models.EntityID, err error) {
	info := r.mc.BasicInfo(id)
	r.logger.Warn("translation failed", zap.Stringer("entity", id), zap.Error(err))
	r.report.StatsFor(id.Type).Failed++
	r.report.Errors = append(r.report.Errors, models.ImportError{Entity: info, Message: err.Error()})
	r.skip(id, err.Error())
}

// finish orders the artifact list and scans every artifact for legacy
// expressions that were left untranslated.
func (r *run) finish() {
	SortArtifacts(r.report.Artifacts)
	for _, a := range r.report.Artifacts {
		exprs := artifactExpressions(a)
		if len(exprs) == 0 {
			continue
		}
		r.report.SkippedExpressions = append(r.report.SkippedExpressions, models.SkippedExpression{
			EntityType:        a.Target.EntityType,
			Identifier:        a.Target.Identifier,
			OrgIdentifier:     a.Target.OrgIdentifier,
			ProjectIdentifier: a.Target.ProjectIdentifier,
			Expressions:       exprs,
		})
	}
}

// artifactExpressions renders the artifact to YAML and returns the sorted
// dotted legacy expressions in it.
func artifactExpressions(a *models.Artifact) []string {
	if a.Payload == nil {
		return nil
	}
	out, err := yaml.Marshal(a.Payload)
	if err != nil {
		return nil
	}
	exprs := entity.SkippedExpressions(string(out))
	sort.Strings(exprs)
	return exprs
}
