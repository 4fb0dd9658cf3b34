package models

import (
	"fmt"
	"sort"
	"strings"
)

// EntityType tags a kind of legacy (CG) entity.
type EntityType string

const (
	DummyHead             EntityType = "DUMMY_HEAD"
	Application           EntityType = "APPLICATION"
	SecretManagerTemplate EntityType = "SECRET_MANAGER_TEMPLATE"
	SecretManager         EntityType = "SECRET_MANAGER"
	Secret                EntityType = "SECRET"
	Connector             EntityType = "CONNECTOR"
	Environment           EntityType = "ENVIRONMENT"
	Infra                 EntityType = "INFRA"
	Service               EntityType = "SERVICE"
	Manifest              EntityType = "MANIFEST"
	ConfigFile            EntityType = "CONFIG_FILE"
	ServiceVariable       EntityType = "SERVICE_VARIABLE"
	Template              EntityType = "TEMPLATE"
	Workflow              EntityType = "WORKFLOW"
	Pipeline              EntityType = "PIPELINE"
	Trigger               EntityType = "TRIGGER"
	UserGroup             EntityType = "USER_GROUP"
	FileStore             EntityType = "FILE_STORE"
)

// EntityID identifies a legacy entity. It is comparable and used as a map key.
type EntityID struct {
	Type EntityType
	ID   string
}

func (e EntityID) String() string {
	return fmt.Sprintf("%s:%s", e.Type, e.ID)
}

// MarshalText renders the id as TYPE:id so it can key JSON and YAML maps.
func (e EntityID) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText parses the TYPE:id form.
func (e *EntityID) UnmarshalText(b []byte) error {
	typ, id, ok := strings.Cut(string(b), ":")
	if !ok || typ == "" {
		return fmt.Errorf("invalid entity id %q", string(b))
	}
	e.Type = EntityType(typ)
	e.ID = id
	return nil
}

// IsZero reports whether the id is unset.
func (e EntityID) IsZero() bool {
	return e.Type == "" && e.ID == ""
}

// EntityNode wraps one discovered legacy entity.
type EntityNode struct {
	EntityID EntityID `json:"entity_id"`
	AppID    string   `json:"app_id,omitempty"`
	Name     string   `json:"name"`
	Entity   Resource `json:"entity,omitempty"`
}

// BasicInfo returns the summary used in reports and the mapping store.
func (n *EntityNode) BasicInfo(accountID string) CGBasicInfo {
	return CGBasicInfo{
		AccountID: accountID,
		AppID:     n.AppID,
		ID:        n.EntityID.ID,
		Type:      n.EntityID.Type,
		Name:      n.Name,
	}
}

// DiscoveryNode is what a plugin returns for one entity: the node itself and
// the ids it depends on.
type DiscoveryNode struct {
	Node     *EntityNode
	Children []EntityID
}

// DependencyGraph maps an entity to the set of entities it depends on.
type DependencyGraph map[EntityID]map[EntityID]struct{}

// Ensure makes sure id has an adjacency entry.
func (g DependencyGraph) Ensure(id EntityID) {
	if _, ok := g[id]; !ok {
		g[id] = make(map[EntityID]struct{})
	}
}

// AddEdge records that from depends on to. Both get adjacency entries.
func (g DependencyGraph) AddEdge(from, to EntityID) {
	g.Ensure(from)
	g.Ensure(to)
	g[from][to] = struct{}{}
}

// Clone returns a deep copy whose sets can be mutated independently.
func (g DependencyGraph) Clone() DependencyGraph {
	out := make(DependencyGraph, len(g))
	for id, deps := range g {
		set := make(map[EntityID]struct{}, len(deps))
		for d := range deps {
			set[d] = struct{}{}
		}
		out[id] = set
	}
	return out
}

// Leaves returns every key with an empty dependency set, in a stable order.
func (g DependencyGraph) Leaves() []EntityID {
	var leaves []EntityID
	for id, deps := range g {
		if len(deps) == 0 {
			leaves = append(leaves, id)
		}
	}
	SortIDs(leaves)
	return leaves
}

// RemoveLeaves deletes the given ids from the graph and strips them from
// every remaining dependency set.
func (g DependencyGraph) RemoveLeaves(leaves []EntityID) {
	for _, id := range leaves {
		delete(g, id)
	}
	for _, deps := range g {
		for _, id := range leaves {
			delete(deps, id)
		}
	}
}

// Children returns the dependencies of id in a stable order.
func (g DependencyGraph) Children(id EntityID) []EntityID {
	deps := g[id]
	out := make([]EntityID, 0, len(deps))
	for d := range deps {
		out = append(out, d)
	}
	SortIDs(out)
	return out
}

// Keys returns every node id in a stable order.
func (g DependencyGraph) Keys() []EntityID {
	out := make([]EntityID, 0, len(g))
	for id := range g {
		out = append(out, id)
	}
	SortIDs(out)
	return out
}

// SortIDs orders ids by type then id.
func SortIDs(ids []EntityID) {
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Type != ids[j].Type {
			return ids[i].Type < ids[j].Type
		}
		return ids[i].ID < ids[j].ID
	})
}

// DiscoveryResult is the snapshot handed from discovery to migration.
type DiscoveryResult struct {
	Entities map[EntityID]*EntityNode `json:"entities"`
	Graph    DependencyGraph          `json:"graph"`
	Root     EntityID                 `json:"root"`
}

// Validate checks that every graph key and every dependency is a known entity.
func (r *DiscoveryResult) Validate() error {
	for id, deps := range r.Graph {
		if _, ok := r.Entities[id]; !ok {
			return fmt.Errorf("graph node %s has no entity", id)
		}
		for d := range deps {
			if _, ok := r.Entities[d]; !ok {
				return fmt.Errorf("edge %s -> %s points at an undiscovered entity", id, d)
			}
		}
	}
	return nil
}
