// Package viewer drives the embedded content viewer of a workspace.
//
// A Session owns the single live Viewer. Every selection tears the previous
// viewer down completely before the next one is constructed, and events from
// a torn-down viewer never reach the session state.
package viewer

import (
	"context"

	"contentnav/internal/domain/models/content"
)

// Event is a lifecycle signal reported by a viewer.
type Event struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// Config describes the viewer to construct.
type Config struct {
	HostURL   string
	Kind      content.ContentKind
	ContentID string
	Region    string
}

// Viewer is an embeddable renderer for one content item.
type Viewer interface {
	ID() string
	// Connect blocks until the viewer accepted or rejected the embed.
	Connect(ctx context.Context) error
	Events() <-chan Event
	Close() error
}

// Factory constructs a viewer.
type Factory func(cfg Config) (Viewer, error)

// Embedder is implemented by viewers that render from a URL.
type Embedder interface {
	EmbedURL() string
}

// Receiver is implemented by viewers whose events are reported from outside
// the process.
type Receiver interface {
	Deliver(ev Event) error
}

// EventClassifier maps event names to lifecycle transitions.
type EventClassifier interface {
	IsReadyEvent(name string) bool
	IsErrorEvent(name string) bool
}
