package entity

import (
	"context"

	jujuerrors "github.com/juju/errors"

	"github.com/rflorenc/ng-migrator/internal/models"
)

// HeadPlugin handles the synthetic DUMMY_HEAD that multi-root discovery hangs
// its seeds under. It has no legacy entity and produces no artifact.
type HeadPlugin struct{}

func (HeadPlugin) Discover(ctx context.Context, accountID, appID, id string) (*models.DiscoveryNode, error) {
	return nil, jujuerrors.NotSupportedf("discovery of %s", models.DummyHead)
}

func (HeadPlugin) ExistingArtifact(ctx context.Context, mc *Context, id models.EntityID) (*models.Artifact, error) {
	return nil, nil
}

func (HeadPlugin) Translate(mc *Context, id models.EntityID) (*Translation, error) {
	return &Translation{}, nil
}

func (HeadPlugin) Push(ctx context.Context, mc *Context, a *models.Artifact) (*models.ImportResult, error) {
	return &models.ImportResult{Success: true}, nil
}

func (HeadPlugin) CanMigrate(id, root models.EntityID, migrateReferenced bool) bool {
	return true
}
