package ai

import (
	"fmt"

	"github.com/aethernet/internal/chat"
)

// Registry maps provider kinds to their adapters. Adding a provider means
// registering one implementation, not editing a central switch.
type Registry struct {
	adapters map[chat.ProviderKind]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[chat.ProviderKind]Adapter),
	}
}

// Register adds an adapter under its own kind, replacing any previous one.
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Kind()] = a
}

// Get returns the adapter for a provider kind.
func (r *Registry) Get(kind chat.ProviderKind) (Adapter, error) {
	a, ok := r.adapters[kind]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for provider %q", kind)
	}
	return a, nil
}

// Kinds lists the registered provider kinds.
func (r *Registry) Kinds() []chat.ProviderKind {
	kinds := make([]chat.ProviderKind, 0, len(r.adapters))
	for kind := range r.adapters {
		kinds = append(kinds, kind)
	}
	return kinds
}
