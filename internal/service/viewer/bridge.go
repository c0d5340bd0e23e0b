package viewer

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"contentnav/internal/capabilities"
	"contentnav/internal/domain"
	"contentnav/internal/domain/models/content"

	"github.com/google/uuid"
)

const bridgeEventBuffer = 32

// KindLookup resolves the embed settings of a content kind.
type KindLookup interface {
	Kind(kind content.ContentKind) (*capabilities.KindCapabilities, error)
}

// BridgeViewer is a viewer rendered by the browser. The server issues its id
// and embed URL; the browser reports the handshake and lifecycle events back
// through Deliver.
type BridgeViewer struct {
	id        string
	embedURL  string
	connected string
	rejected  string

	mu        sync.Mutex
	closed    bool
	handshook bool
	handshake chan error
	events    chan Event
}

// NewBridgeFactory returns a Factory building browser-bridged viewers.
func NewBridgeFactory(kinds KindLookup, vocabulary capabilities.ViewerEvents) Factory {
	return func(cfg Config) (Viewer, error) {
		kind, err := kinds.Kind(cfg.Kind)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		embedURL, err := EmbedURL(cfg.HostURL, kind.EmbedPath, cfg.ContentID)
		if err != nil {
			return nil, err
		}
		return &BridgeViewer{
			id:        uuid.NewString(),
			embedURL:  embedURL,
			connected: vocabulary.Connected,
			rejected:  vocabulary.Rejected,
			handshake: make(chan error, 1),
			events:    make(chan Event, bridgeEventBuffer),
		}, nil
	}
}

// EmbedURL builds the URL the browser loads for contentID, e.g.
// https://host/embed/dashboards/42?embed_domain=https%3A%2F%2Fhost.
func EmbedURL(hostURL, embedPath, contentID string) (string, error) {
	u, err := url.Parse(hostURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: invalid viewer host %q", domain.ErrUnavailable, hostURL)
	}
	u = u.JoinPath(embedPath, contentID)
	q := u.Query()
	q.Set("embed_domain", hostURL)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (b *BridgeViewer) ID() string {
	return b.id
}

func (b *BridgeViewer) EmbedURL() string {
	return b.embedURL
}

// Connect waits for the browser to report the embed handshake.
func (b *BridgeViewer) Connect(ctx context.Context) error {
	select {
	case err := <-b.handshake:
		return err
	case <-ctx.Done():
		return fmt.Errorf("waiting for viewer %s to connect: %w", b.id, ctx.Err())
	}
}

func (b *BridgeViewer) Events() <-chan Event {
	return b.events
}

// Deliver accepts an event reported by the browser. Handshake events settle
// Connect; everything else is queued on the event stream.
func (b *BridgeViewer) Deliver(ev Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return &domain.ConflictError{
			Message:      "viewer is closed",
			ResourceType: "viewer",
			ResourceID:   b.id,
		}
	}

	if ev.Type == b.connected || ev.Type == b.rejected {
		if b.handshook {
			return nil
		}
		b.handshook = true
		var err error
		if ev.Type == b.rejected {
			err = fmt.Errorf("%w: embed connection rejected: %s", domain.ErrUnavailable, ev.Message)
		}
		b.handshake <- err
		return nil
	}

	select {
	case b.events <- ev:
		return nil
	default:
		return fmt.Errorf("%w: viewer %s event buffer is full", domain.ErrUnavailable, b.id)
	}
}

// Close ends the event stream. Later deliveries are rejected.
func (b *BridgeViewer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	close(b.events)
	return nil
}
