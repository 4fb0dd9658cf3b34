// Package entity holds the per-type plugin contract, the registry that maps
// an entity type to its plugin, and the run-scoped Context every plugin call
// receives.
package entity

import (
	"context"

	"github.com/rflorenc/ng-migrator/internal/models"
)

// Plugin implements discovery, translation and push for one entity type.
type Plugin interface {
	// Discover fetches one legacy entity and declares the ids it depends on.
	// A missing entity is reported with a juju/errors NotFound error.
	Discover(ctx context.Context, accountID, appID, id string) (*models.DiscoveryNode, error)

	// ExistingArtifact returns the artifact already present in NG for id, or
	// nil. Only transport and parse problems are errors.
	ExistingArtifact(ctx context.Context, mc *Context, id models.EntityID) (*models.Artifact, error)

	// Translate builds the NG artifacts for id. It makes no remote calls.
	Translate(mc *Context, id models.EntityID) (*Translation, error)

	// Push writes one artifact to NG. Remote rejections are reported in the
	// result, not as an error.
	Push(ctx context.Context, mc *Context, a *models.Artifact) (*models.ImportResult, error)

	// CanMigrate lets a type opt out of a run.
	CanMigrate(id, root models.EntityID, migrateReferenced bool) bool
}

// Translation is the output of Plugin.Translate. Some plugins emit zero or
// several artifacts, e.g. file store folder placeholders.
type Translation struct {
	Artifacts []*models.Artifact
	Skips     []models.SkipDetail
}
