package capabilities

import (
	"contentnav/internal/domain/models/content"

	"gopkg.in/yaml.v3"
)

// KindCapabilities describes how one content kind is listed, routed and embedded
type KindCapabilities struct {
	// Kind identifier (set during YAML unmarshaling)
	Kind content.ContentKind `yaml:"-" json:"kind"`

	// Display information
	Label    string `yaml:"label" json:"label"`       // group heading, e.g. "Dashboards"
	Singular string `yaml:"singular" json:"singular"` // e.g. "Dashboard"

	// Routing
	RouteSegment string `yaml:"route_segment" json:"route_segment"` // URL segment, e.g. "dashboards"
	EmbedPath    string `yaml:"embed_path" json:"embed_path"`       // path under the viewer host

	// Actions offered on content rows of this kind
	SupportsRelocate bool `yaml:"supports_relocate" json:"supports_relocate"`
}

// ViewerEvents lists the lifecycle events a viewer may report
type ViewerEvents struct {
	Ready     []string `yaml:"ready" json:"ready"`         // any of these moves the viewer to ready
	Error     []string `yaml:"error" json:"error"`         // any of these moves the viewer to error
	Connected string   `yaml:"connected" json:"connected"` // handshake succeeded
	Rejected  string   `yaml:"rejected" json:"rejected"`   // handshake failed
}

// Messages holds user-facing text
type Messages struct {
	Idle      string `yaml:"idle" json:"idle"`
	LoadError string `yaml:"load_error" json:"load_error"`
	NoResults string `yaml:"no_results" json:"no_results"`
}

// Catalog is the root of the capabilities YAML file
type Catalog struct {
	Kinds    []KindCapabilities `yaml:"-" json:"kinds"` // Ordered slice, populated by custom unmarshaler
	Events   ViewerEvents       `yaml:"events" json:"events"`
	Messages Messages           `yaml:"messages" json:"messages"`
}

// UnmarshalYAML implements custom YAML unmarshaling to preserve kind order from YAML file
func (c *Catalog) UnmarshalYAML(node *yaml.Node) error {
	type plain struct {
		Kinds    map[string]KindCapabilities `yaml:"kinds"`
		Events   ViewerEvents                `yaml:"events"`
		Messages Messages                    `yaml:"messages"`
	}
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	c.Events = p.Events
	c.Messages = p.Messages

	// Extract kind keys in YAML order and build the slice
	for i := 0; i < len(node.Content); i += 2 {
		if node.Content[i].Value != "kinds" {
			continue
		}
		kindsNode := node.Content[i+1]
		// kindsNode.Content alternates: key, value, key, value...
		for j := 0; j < len(kindsNode.Content); j += 2 {
			id := kindsNode.Content[j].Value
			if kind, ok := p.Kinds[id]; ok {
				kind.Kind = content.ContentKind(id)
				c.Kinds = append(c.Kinds, kind)
			}
		}
		break
	}

	return nil
}
