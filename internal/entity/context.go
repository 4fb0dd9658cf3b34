package entity

import (
	"github.com/rflorenc/ng-migrator/internal/mapping"
	"github.com/rflorenc/ng-migrator/internal/models"
	"github.com/rflorenc/ng-migrator/internal/platform"
)

// Context is the run-scoped state threaded through every plugin call. One
// run owns it exclusively.
type Context struct {
	AccountID string
	Entities  map[models.EntityID]*models.EntityNode
	Graph     models.DependencyGraph
	Migrated  map[models.EntityID]*models.Artifact
	Input     *models.MigrationInput
	Root      models.EntityID
	Clients   *platform.TargetClients
	Mappings  mapping.Store
}

// NewContext builds the context for one run over a discovery result.
func NewContext(input *models.MigrationInput, result *models.DiscoveryResult, clients *platform.TargetClients, mappings mapping.Store) *Context {
	if mappings == nil {
		mappings = mapping.NewMemoryStore()
	}
	return &Context{
		AccountID: input.AccountID,
		Entities:  result.Entities,
		Graph:     result.Graph,
		Migrated:  make(map[models.EntityID]*models.Artifact),
		Input:     input,
		Root:      result.Root,
		Clients:   clients,
		Mappings:  mappings,
	}
}

// Record stores a as the artifact for its entity. The first write wins;
// Record reports whether a was stored.
func (c *Context) Record(a *models.Artifact) bool {
	if _, ok := c.Migrated[a.ForEntity]; ok {
		return false
	}
	c.Migrated[a.ForEntity] = a
	return true
}

// IsMigrated reports whether id already has an artifact in this run.
func (c *Context) IsMigrated(id models.EntityID) bool {
	_, ok := c.Migrated[id]
	return ok
}

// Node returns the discovered node for id, or nil.
func (c *Context) Node(id models.EntityID) *models.EntityNode {
	return c.Entities[id]
}

// BasicInfo summarizes id for reports, falling back to the bare id for
// entities that were never discovered.
func (c *Context) BasicInfo(id models.EntityID) models.CGBasicInfo {
	if n := c.Entities[id]; n != nil {
		return n.BasicInfo(c.AccountID)
	}
	return models.CGBasicInfo{AccountID: c.AccountID, ID: id.ID, Type: id.Type}
}
