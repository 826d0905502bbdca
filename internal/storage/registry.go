package storage

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps backend names to store factories.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory for a backend name.
func (r *Registry) Register(storeType string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[storeType] = factory
}

// Create builds a store of the given backend type.
func (r *Registry) Create(storeType string, config StoreConfig) (Store, error) {
	r.mu.RLock()
	factory, exists := r.factories[storeType]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("store type %s not registered", storeType)
	}
	return factory.Create(config)
}

// AvailableTypes returns the registered backend names, sorted.
func (r *Registry) AvailableTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

var defaultRegistry = NewRegistry()

// Register adds a factory to the default registry. Backends call this from
// init().
func Register(storeType string, factory Factory) {
	defaultRegistry.Register(storeType, factory)
}

// Create builds a store from the default registry.
func Create(storeType string, config StoreConfig) (Store, error) {
	return defaultRegistry.Create(storeType, config)
}
