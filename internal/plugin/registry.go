package plugin

import (
	"sync"

	"toolvm/internal/errdefs"
)

// Registry is a concurrency-safe catalogue of tool plugins and their
// registration metadata. The two maps are always updated inside the same
// critical section so readers never observe one without the other.
type Registry struct {
	mu       sync.RWMutex
	plugins  map[string]ToolPlugin
	metadata map[string]PluginMetadata
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		plugins:  make(map[string]ToolPlugin),
		metadata: make(map[string]PluginMetadata),
	}
}

// Register adds a plugin under its reported tool id. It fails when the
// metadata id disagrees with the plugin's own id, or when the id is taken.
func (r *Registry) Register(p ToolPlugin, meta PluginMetadata) error {
	id := p.Info().ID
	if meta.ID != id {
		return &errdefs.PluginError{
			Plugin:  id,
			Message: "metadata id " + meta.ID + " does not match plugin id " + id,
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[id]; exists {
		return &errdefs.PluginError{Plugin: id, Message: "plugin already registered"}
	}

	r.plugins[id] = p
	r.metadata[id] = meta
	return nil
}

// Get returns the plugin registered under id.
func (r *Registry) Get(id string) (ToolPlugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plugins[id]
	if !ok {
		return nil, &errdefs.PluginNotFoundError{ID: id}
	}
	return p, nil
}

// GetMetadata returns the registration metadata for id.
func (r *Registry) GetMetadata(id string) (PluginMetadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.metadata[id]
	if !ok {
		return PluginMetadata{}, &errdefs.PluginNotFoundError{ID: id}
	}
	return m, nil
}

// ListPlugins returns the registered ids. Order is not guaranteed.
func (r *Registry) ListPlugins() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.plugins))
	for id := range r.plugins {
		ids = append(ids, id)
	}
	return ids
}

// ListMetadata returns a snapshot of all registration metadata.
func (r *Registry) ListMetadata() []PluginMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	metas := make([]PluginMetadata, 0, len(r.metadata))
	for _, m := range r.metadata {
		metas = append(metas, m)
	}
	return metas
}

// Has reports whether a plugin is registered under id.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.plugins[id]
	return ok
}

// Unregister removes a plugin. Removing an absent id is a no-op.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.plugins, id)
	delete(r.metadata, id)
}

// PluginsForPlatform returns ids whose declared metadata covers the pair.
// This is advisory relative to each plugin's own SupportsPlatform.
func (r *Registry) PluginsForPlatform(platform Platform, arch Architecture) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for id, m := range r.metadata {
		if m.SupportsHost(platform, arch) {
			ids = append(ids, id)
		}
	}
	return ids
}
