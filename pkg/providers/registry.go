package providers

import (
	"fmt"
	"sync"
)

// Factory is a function type that creates a Provider from shared deps
type Factory func(deps Deps) (Provider, error)

// Registry manages provider factories by source name
type Registry interface {
	// Register adds a new provider factory
	Register(source string, factory Factory) error
	// Create instantiates a provider for the source using the provided deps
	Create(source string, deps Deps) (Provider, error)
	// ListSources returns the registered source names
	ListSources() []string
}

type registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a new provider registry
func NewRegistry() Registry {
	return &registry{
		factories: make(map[string]Factory),
	}
}

func (r *registry) Register(source string, factory Factory) error {
	if source == "" {
		return fmt.Errorf("source name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[source]; exists {
		return fmt.Errorf("source %q is already registered", source)
	}

	r.factories[source] = factory
	return nil
}

func (r *registry) Create(source string, deps Deps) (Provider, error) {
	r.mu.RLock()
	factory, exists := r.factories[source]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("source %q is not registered", source)
	}

	return factory(deps)
}

func (r *registry) ListSources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sources := make([]string, 0, len(r.factories))
	for source := range r.factories {
		sources = append(sources, source)
	}
	return sources
}
