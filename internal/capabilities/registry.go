package capabilities

import (
	"embed"
	"fmt"
	"slices"
	"sync"

	"contentnav/internal/domain/models/content"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Registry exposes per-kind capabilities and viewer lifecycle vocabulary
type Registry struct {
	catalog Catalog
	kinds   map[content.ContentKind]*KindCapabilities
	mu      sync.RWMutex
}

// NewRegistry creates a new capability registry from the embedded YAML file
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile("config/kinds.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read config/kinds.yaml: %w", err)
	}
	return NewRegistryFromYAML(data)
}

// NewRegistryFromYAML creates a registry from raw YAML
func NewRegistryFromYAML(data []byte) (*Registry, error) {
	r := &Registry{}
	if err := r.load(data); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) load(data []byte) error {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return fmt.Errorf("failed to unmarshal capabilities: %w", err)
	}

	kinds := make(map[content.ContentKind]*KindCapabilities, len(catalog.Kinds))
	for i := range catalog.Kinds {
		k := &catalog.Kinds[i]
		if !k.Kind.Valid() {
			return fmt.Errorf("unknown content kind %q in capabilities", k.Kind)
		}
		kinds[k.Kind] = k
	}
	for _, kind := range content.Kinds {
		if _, ok := kinds[kind]; !ok {
			return fmt.Errorf("missing capabilities for kind %q", kind)
		}
	}
	if len(catalog.Events.Ready) == 0 {
		return fmt.Errorf("capabilities define no ready events")
	}

	r.mu.Lock()
	r.catalog = catalog
	r.kinds = kinds
	r.mu.Unlock()

	return nil
}

// Kind returns capabilities for a specific content kind
func (r *Registry) Kind(kind content.ContentKind) (*KindCapabilities, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	k, ok := r.kinds[kind]
	if !ok {
		return nil, fmt.Errorf("unknown content kind: %s", kind)
	}
	return k, nil
}

// Kinds returns all kinds (ordered as defined in YAML)
func (r *Registry) Kinds() []KindCapabilities {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.catalog.Kinds)
}

// Events returns the viewer lifecycle vocabulary
func (r *Registry) Events() ViewerEvents {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.catalog.Events
}

// Messages returns user-facing text
func (r *Registry) Messages() Messages {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.catalog.Messages
}

// IsReadyEvent reports whether name signals that a viewer finished loading
func (r *Registry) IsReadyEvent(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Contains(r.catalog.Events.Ready, name)
}

// IsErrorEvent reports whether name signals a viewer failure
func (r *Registry) IsErrorEvent(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Contains(r.catalog.Events.Error, name)
}
