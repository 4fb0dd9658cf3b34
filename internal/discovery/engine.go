// Package discovery walks the legacy platform from one or more root entities
// and builds the dependency graph migration runs consume.
package discovery

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rflorenc/ng-migrator/internal/entity"
	"github.com/rflorenc/ng-migrator/internal/metrics"
	"github.com/rflorenc/ng-migrator/internal/models"
)

// ErrRootNotFound is returned when the root (or every seed) cannot be discovered.
var ErrRootNotFound = errors.New("root entity could not be discovered")

// Seed is one root of a multi-root discovery.
type Seed struct {
	AppID string            `json:"app_id,omitempty"`
	Type  models.EntityType `json:"type"`
	ID    string            `json:"id"`
}

// EntityID returns the seed's entity id.
func (s Seed) EntityID() models.EntityID {
	return models.EntityID{Type: s.Type, ID: s.ID}
}

// Engine discovers entities through the registry's plugins.
type Engine struct {
	registry *entity.Registry
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewEngine creates an Engine. logger and m may be nil.
func NewEngine(registry *entity.Registry, logger *zap.Logger, m *metrics.Metrics) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{registry: registry, logger: logger, metrics: m}
}

// walk is the state of one discovery run.
type walk struct {
	*Engine
	ctx       context.Context
	accountID string
	entities  map[models.EntityID]*models.EntityNode
	graph     models.DependencyGraph
	failed    map[models.EntityID]error
	progress  func(string)
}

func (e *Engine) newWalk(ctx context.Context, accountID string, progress func(string)) *walk {
	if progress == nil {
		progress = func(string) {}
	}
	return &walk{
		Engine:    e,
		ctx:       ctx,
		accountID: accountID,
		entities:  make(map[models.EntityID]*models.EntityNode),
		graph:     make(models.DependencyGraph),
		failed:    make(map[models.EntityID]error),
		progress:  progress,
	}
}

// Discover builds the dependency closure of root. Failing to discover the
// root is fatal; failures below it only drop the failing subtree.
func (e *Engine) Discover(ctx context.Context, accountID, appID string, root models.EntityID, progress func(string)) (*models.DiscoveryResult, error) {
	w := e.newWalk(ctx, accountID, progress)
	if root.Type == models.Application {
		appID = root.ID
	}
	w.progress(fmt.Sprintf("Discovering %s", root))

	dn, err := w.fetch(appID, root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRootNotFound, root, err)
	}
	w.travel(appID, nil, dn)
	return w.finish(root)
}

// DiscoverMulti discovers several roots and hangs them under a synthetic
// DUMMY_HEAD node so the result always has one root. Seeds that fail to
// discover are logged and skipped.
func (e *Engine) DiscoverMulti(ctx context.Context, accountID string, seeds []Seed, progress func(string)) (*models.DiscoveryResult, error) {
	w := e.newWalk(ctx, accountID, progress)
	head := models.EntityID{Type: models.DummyHead, ID: uuid.NewString()}
	w.entities[head] = &models.EntityNode{EntityID: head, Name: "head"}
	w.graph.Ensure(head)
	w.progress(fmt.Sprintf("Discovering %d roots", len(seeds)))

	found := 0
	for _, seed := range seeds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		appID := seed.AppID
		if seed.Type == models.Application {
			appID = seed.ID
		}
		id := seed.EntityID()
		if _, seen := w.entities[id]; seen {
			w.graph.AddEdge(head, id)
			found++
			continue
		}
		dn, err := w.fetch(appID, id)
		if err != nil {
			w.skip(id, err)
			continue
		}
		found++
		w.travel(appID, &head, dn)
	}
	if len(seeds) > 0 && found == 0 {
		return nil, fmt.Errorf("%w: none of %d seeds", ErrRootNotFound, len(seeds))
	}
	return w.finish(head)
}

// travel records dn under parent and expands its children once per run.
func (w *walk) travel(appID string, parent *models.EntityID, dn *models.DiscoveryNode) {
	id := dn.Node.EntityID
	if _, seen := w.entities[id]; seen && parent != nil {
		w.graph.AddEdge(*parent, id)
		return
	}
	w.entities[id] = dn.Node
	w.graph.Ensure(id)
	if parent != nil {
		w.graph.AddEdge(*parent, id)
	}
	w.metrics.EntityDiscovered(string(id.Type))

	if id.Type == models.Application {
		appID = id.ID
	}
	for _, child := range dn.Children {
		if w.ctx.Err() != nil {
			return
		}
		if _, seen := w.entities[child]; seen {
			w.graph.AddEdge(id, child)
			continue
		}
		if _, failed := w.failed[child]; failed {
			continue
		}
		cdn, err := w.fetch(appID, child)
		if err != nil {
			w.skip(child, err)
			continue
		}
		w.travel(appID, &id, cdn)
	}
}

func (w *walk) fetch(appID string, id models.EntityID) (*models.DiscoveryNode, error) {
	plugin, err := w.registry.Get(id.Type)
	if err != nil {
		return nil, err
	}
	dn, err := plugin.Discover(w.ctx, w.accountID, appID, id.ID)
	if err != nil {
		return nil, err
	}
	if dn == nil || dn.Node == nil {
		return nil, fmt.Errorf("plugin returned no node for %s", id)
	}
	return dn, nil
}

func (w *walk) skip(id models.EntityID, err error) {
	w.failed[id] = err
	w.metrics.DiscoveryFailed(string(id.Type))
	w.logger.Warn("discovery failed, skipping subtree", zap.Stringer("entity", id), zap.Error(err))
	w.progress(fmt.Sprintf("  SKIP: %s: %v", id, err))
}

func (w *walk) finish(root models.EntityID) (*models.DiscoveryResult, error) {
	if err := w.ctx.Err(); err != nil {
		return nil, err
	}
	result := &models.DiscoveryResult{Entities: w.entities, Graph: w.graph, Root: root}
	if err := result.Validate(); err != nil {
		return nil, err
	}
	w.logger.Info("discovery finished",
		zap.Stringer("root", root),
		zap.Int("entities", len(w.entities)),
		zap.Int("failed", len(w.failed)))
	w.progress(fmt.Sprintf("Discovered %d entities (%d failed)", len(w.entities), len(w.failed)))
	return result, nil
}
