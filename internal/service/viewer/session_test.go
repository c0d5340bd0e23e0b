package viewer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"contentnav/internal/capabilities"
	"contentnav/internal/domain"
	"contentnav/internal/domain/models/content"
)

const testHost = "https://looker.example.com"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRegistry(t *testing.T) *capabilities.Registry {
	t.Helper()
	reg, err := capabilities.NewRegistry()
	if err != nil {
		t.Fatalf("failed to load capabilities: %v", err)
	}
	return reg
}

// fakeViewer is a test double whose handshake and events are driven by the test.
type fakeViewer struct {
	id      string
	cfg     Config
	connect chan error
	events  chan Event

	mu     sync.Mutex
	closed bool
}

func (v *fakeViewer) ID() string { return v.id }

func (v *fakeViewer) Connect(ctx context.Context) error {
	select {
	case err := <-v.connect:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (v *fakeViewer) Events() <-chan Event { return v.events }

func (v *fakeViewer) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	return nil
}

func (v *fakeViewer) isClosed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

// fakeFactory records every viewer it builds and how many earlier viewers
// were still open at construction time.
type fakeFactory struct {
	mu          sync.Mutex
	viewers     []*fakeViewer
	liveAtBuild []int
}

func (f *fakeFactory) build(cfg Config) (Viewer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	live := 0
	for _, v := range f.viewers {
		if !v.isClosed() {
			live++
		}
	}
	f.liveAtBuild = append(f.liveAtBuild, live)

	v := &fakeViewer{
		id:      fmt.Sprintf("viewer-%d", len(f.viewers)+1),
		cfg:     cfg,
		connect: make(chan error, 1),
		events:  make(chan Event, 8),
	}
	f.viewers = append(f.viewers, v)
	return v, nil
}

func (f *fakeFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.viewers)
}

func waitForState(t *testing.T, s *Session, want State) Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		snap := s.Snapshot()
		if snap.State == want {
			return snap
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected state %s, got %s", want, snap.State)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSession_IdleBeforeSelection(t *testing.T) {
	s := NewSession(context.Background(), (&fakeFactory{}).build, testRegistry(t), SessionConfig{
		HostURL:     testHost,
		IdleMessage: "Select something",
	}, testLogger())

	snap := s.Snapshot()
	if snap.State != StateIdle {
		t.Errorf("expected idle, got %s", snap.State)
	}
	if snap.Selection != nil {
		t.Errorf("expected no selection, got %+v", snap.Selection)
	}
	if snap.Message != "Select something" {
		t.Errorf("expected idle message, got %q", snap.Message)
	}
}

func TestSession_SelectAThenBKeepsOneLiveViewer(t *testing.T) {
	f := &fakeFactory{}
	s := NewSession(context.Background(), f.build, testRegistry(t), SessionConfig{HostURL: testHost}, testLogger())
	defer s.Close()

	snapA := s.Select(content.Selection{Kind: content.KindDocument, ID: "42"})
	if snapA.State != StateLoading {
		t.Fatalf("expected loading after first select, got %s", snapA.State)
	}

	s.Select(content.Selection{Kind: content.KindView, ID: "7"})

	if got := f.count(); got != 2 {
		t.Fatalf("expected 2 viewers built, got %d", got)
	}
	if f.liveAtBuild[1] != 0 {
		t.Errorf("previous viewer still open when the next was built")
	}

	a, b := f.viewers[0], f.viewers[1]
	if !a.isClosed() {
		t.Error("expected viewer A to be closed")
	}

	// A's late events are rejected
	err := s.Deliver(a.ID(), Event{Type: "dashboard:loaded"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected conflict delivering to stale viewer, got %v", err)
	}

	b.connect <- nil
	b.events <- Event{Type: "look:ready"}

	snap := waitForState(t, s, StateReady)
	if snap.ViewerID != b.ID() {
		t.Errorf("expected live viewer %s, got %s", b.ID(), snap.ViewerID)
	}
	if snap.Selection == nil || snap.Selection.ID != "7" || snap.Selection.Kind != content.KindView {
		t.Errorf("unexpected selection %+v", snap.Selection)
	}
	if b.cfg.Kind != content.KindView || b.cfg.ContentID != "7" || b.cfg.HostURL != testHost {
		t.Errorf("viewer built with unexpected config %+v", b.cfg)
	}
}

func TestSession_MissingHostSkipsConstruction(t *testing.T) {
	f := &fakeFactory{}
	s := NewSession(context.Background(), f.build, testRegistry(t), SessionConfig{
		LoadErrorMessage: "Failed to load content.",
	}, testLogger())

	snap := s.Select(content.Selection{Kind: content.KindDocument, ID: "42"})

	if snap.State != StateError {
		t.Errorf("expected error, got %s", snap.State)
	}
	if snap.Message != "Failed to load content." {
		t.Errorf("unexpected message %q", snap.Message)
	}
	if got := f.count(); got != 0 {
		t.Errorf("expected no viewer to be built, got %d", got)
	}
}

func TestSession_EventTransitions(t *testing.T) {
	tests := []struct {
		name    string
		connect error
		events  []Event
		want    State
	}{
		{
			name:   "dashboard loaded",
			events: []Event{{Type: "dashboard:loaded"}},
			want:   StateReady,
		},
		{
			name:   "look run start",
			events: []Event{{Type: "dashboard:tile:start"}, {Type: "look:run:start"}},
			want:   StateReady,
		},
		{
			name:   "error event",
			events: []Event{{Type: "error", Message: "permission denied"}},
			want:   StateError,
		},
		{
			name:    "connect rejected",
			connect: errors.New("rejected"),
			want:    StateError,
		},
		{
			name:   "error sticks after ready-like event",
			events: []Event{{Type: "error"}, {Type: "dashboard:loaded"}},
			want:   StateError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFactory{}
			s := NewSession(context.Background(), f.build, testRegistry(t), SessionConfig{HostURL: testHost}, testLogger())
			defer s.Close()

			s.Select(content.Selection{Kind: content.KindDocument, ID: "42"})
			v := f.viewers[0]
			v.connect <- tt.connect
			for _, ev := range tt.events {
				v.events <- ev
			}

			waitForState(t, s, tt.want)
			if tt.want == StateError && len(tt.events) > 1 {
				// Give the pump time to apply the trailing event
				time.Sleep(20 * time.Millisecond)
				if got := s.Snapshot().State; got != StateError {
					t.Errorf("expected error to persist, got %s", got)
				}
			}
		})
	}
}

func TestSession_ConnectTimeout(t *testing.T) {
	f := &fakeFactory{}
	s := NewSession(context.Background(), f.build, testRegistry(t), SessionConfig{
		HostURL:        testHost,
		ConnectTimeout: 10 * time.Millisecond,
	}, testLogger())
	defer s.Close()

	s.Select(content.Selection{Kind: content.KindView, ID: "8"})
	waitForState(t, s, StateError)
}

func TestSession_BridgeViewerHandshake(t *testing.T) {
	reg := testRegistry(t)
	s := NewSession(context.Background(), NewBridgeFactory(reg, reg.Events()), reg, SessionConfig{
		HostURL: testHost,
	}, testLogger())
	defer s.Close()

	snap := s.Select(content.Selection{Kind: content.KindDocument, ID: "42"})
	if snap.ViewerID == "" {
		t.Fatal("expected a viewer id")
	}
	wantURL := "https://looker.example.com/embed/dashboards/42?embed_domain=https%3A%2F%2Flooker.example.com"
	if snap.EmbedURL != wantURL {
		t.Errorf("expected embed url %q, got %q", wantURL, snap.EmbedURL)
	}

	if err := s.Deliver(snap.ViewerID, Event{Type: "connect:resolved"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Deliver(snap.ViewerID, Event{Type: "dashboard:run:start"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	waitForState(t, s, StateReady)
}

func TestSession_BridgeViewerRejected(t *testing.T) {
	reg := testRegistry(t)
	s := NewSession(context.Background(), NewBridgeFactory(reg, reg.Events()), reg, SessionConfig{
		HostURL:          testHost,
		LoadErrorMessage: "Failed to load content.",
	}, testLogger())
	defer s.Close()

	snap := s.Select(content.Selection{Kind: content.KindView, ID: "9"})
	if err := s.Deliver(snap.ViewerID, Event{Type: "connect:rejected", Message: "no access"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := waitForState(t, s, StateError)
	if got.Message != "Failed to load content." {
		t.Errorf("unexpected message %q", got.Message)
	}
}

func TestEmbedURL(t *testing.T) {
	tests := []struct {
		name      string
		host      string
		embedPath string
		id        string
		want      string
		wantErr   bool
	}{
		{
			name:      "dashboard",
			host:      "https://looker.example.com",
			embedPath: "/embed/dashboards",
			id:        "42",
			want:      "https://looker.example.com/embed/dashboards/42?embed_domain=https%3A%2F%2Flooker.example.com",
		},
		{
			name:      "look on host with port",
			host:      "https://looker.example.com:9999",
			embedPath: "/embed/looks",
			id:        "7",
			want:      "https://looker.example.com:9999/embed/looks/7?embed_domain=https%3A%2F%2Flooker.example.com%3A9999",
		},
		{
			name:      "missing scheme",
			host:      "looker.example.com",
			embedPath: "/embed/looks",
			id:        "7",
			wantErr:   true,
		},
		{
			name:      "empty host",
			embedPath: "/embed/looks",
			id:        "7",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EmbedURL(tt.host, tt.embedPath, tt.id)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrUnavailable) {
					t.Errorf("expected ErrUnavailable, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestBridgeViewer_ClosedRejectsEvents(t *testing.T) {
	reg := testRegistry(t)
	v, err := NewBridgeFactory(reg, reg.Events())(Config{HostURL: testHost, Kind: content.KindView, ContentID: "7"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := v.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := v.(Receiver).Deliver(Event{Type: "look:ready"}); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected conflict after close, got %v", err)
	}
	if _, ok := <-v.Events(); ok {
		t.Error("expected closed event stream")
	}
}
