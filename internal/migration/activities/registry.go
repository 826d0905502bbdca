// Package activities holds one transformer per leaf activity kind. Each
// transformer knows which parts of its own typeProperties need dataset
// inlining and which need raw expression unwrapping. Transformers register
// themselves in init().
package activities

import (
	"fmt"
	"sort"
	"sync"

	"fabric-migrator/internal/migration/core"
)

var (
	registry = make(map[string]core.Transformer)
	mu       sync.RWMutex
)

// Register adds a transformer for an activity kind.
func Register(kind string, transformer core.Transformer) error {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := registry[kind]; exists {
		return fmt.Errorf("activity kind already registered: %s", kind)
	}
	registry[kind] = transformer
	return nil
}

// Registry provides access to registered transformers.
type Registry struct{}

// NewRegistry creates a registry view over the registered transformers.
func NewRegistry() *Registry {
	return &Registry{}
}

// Get returns the transformer for an activity kind.
func (r *Registry) Get(kind string) (core.Transformer, bool) {
	mu.RLock()
	defer mu.RUnlock()
	transformer, found := registry[kind]
	return transformer, found
}

// Kinds returns all registered activity kinds, sorted.
func (r *Registry) Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()

	kinds := make([]string, 0, len(registry))
	for kind := range registry {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
