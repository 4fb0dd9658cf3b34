package entity

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rflorenc/ng-migrator/internal/models"
)

// Registry maps an entity type to the plugin that handles it.
type Registry struct {
	mu      sync.RWMutex
	plugins map[models.EntityType]Plugin
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[models.EntityType]Plugin)}
}

// Register adds or replaces the plugin for t.
func (r *Registry) Register(t models.EntityType, p Plugin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins[t] = p
}

// Get returns the plugin for t.
func (r *Registry) Get(t models.EntityType) (Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[t]
	if !ok {
		return nil, fmt.Errorf("no plugin registered for entity type %s", t)
	}
	return p, nil
}

// Types lists the registered types in a stable order.
func (r *Registry) Types() []models.EntityType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.EntityType, 0, len(r.plugins))
	for t := range r.plugins {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
