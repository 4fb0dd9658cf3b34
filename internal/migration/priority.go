package migration

import (
	"sort"

	"github.com/rflorenc/ng-migrator/internal/models"
)

// foundationalTypes are migrated before the leaf walk, in this order.
var foundationalTypes = []models.EntityType{
	models.SecretManagerTemplate,
	models.SecretManager,
	models.Secret,
	models.Connector,
	models.Environment,
}

func isFoundational(t models.EntityType) bool {
	for _, f := range foundationalTypes {
		if f == t {
			return true
		}
	}
	return false
}

// typePriority orders artifacts for the two-phase push and the bundle. A type
// never references a type that sorts after it.
var typePriority = map[models.EntityType]int{
	models.SecretManagerTemplate: 0,
	models.SecretManager:         1,
	models.Secret:                2,
	models.Connector:             3,
	models.UserGroup:             4,
	models.FileStore:             5,
	models.Manifest:              6,
	models.ConfigFile:            7,
	models.Service:               8,
	models.Environment:           9,
	models.Infra:                 10,
	models.Template:              11,
	models.Workflow:              12,
	models.Pipeline:              13,
	models.Trigger:               14,
}

func priority(t models.EntityType) int {
	if p, ok := typePriority[t]; ok {
		return p
	}
	return len(typePriority)
}

// SortArtifacts orders artifacts by type priority. Artifacts of the same type
// keep their generation order, which already respects same-type references.
func SortArtifacts(artifacts []*models.Artifact) {
	sort.SliceStable(artifacts, func(i, j int) bool {
		return priority(artifacts[i].Type) < priority(artifacts[j].Type)
	})
}

// sameTypeLayers splits the graph entries of typ into layers so that an entry
// referencing another entry of the same type comes in a later layer. Entries
// caught in a same-type cycle, self references included, are returned as
// stuck instead.
func sameTypeLayers(g models.DependencyGraph, typ models.EntityType) (layers [][]models.EntityID, stuck []models.EntityID) {
	pending := make(map[models.EntityID]bool)
	for id := range g {
		if id.Type == typ {
			pending[id] = true
		}
	}
	for len(pending) > 0 {
		var layer []models.EntityID
		for id := range pending {
			ready := true
			for dep := range g[id] {
				if pending[dep] {
					ready = false
					break
				}
			}
			if ready {
				layer = append(layer, id)
			}
		}
		if len(layer) == 0 {
			for id := range pending {
				stuck = append(stuck, id)
			}
			models.SortIDs(stuck)
			return layers, stuck
		}
		models.SortIDs(layer)
		for _, id := range layer {
			delete(pending, id)
		}
		layers = append(layers, layer)
	}
	return layers, nil
}
