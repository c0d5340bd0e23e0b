package capabilities

import (
	"testing"

	"contentnav/internal/domain/models/content"
)

func TestNewRegistry_EmbeddedCatalog(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	kinds := r.Kinds()
	if len(kinds) != 2 {
		t.Fatalf("expected 2 kinds, got %d", len(kinds))
	}
	if kinds[0].Kind != content.KindDocument || kinds[1].Kind != content.KindView {
		t.Errorf("expected YAML order document, view; got %s, %s", kinds[0].Kind, kinds[1].Kind)
	}

	doc, err := r.Kind(content.KindDocument)
	if err != nil {
		t.Fatalf("Kind(document) failed: %v", err)
	}
	if doc.Label != "Dashboards" || doc.RouteSegment != "dashboards" {
		t.Errorf("unexpected document capabilities: %+v", doc)
	}

	if got := r.Messages().NoResults; got != "No folders found" {
		t.Errorf("unexpected no-results message %q", got)
	}
}

func TestRegistry_EventClassification(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	tests := []struct {
		event     string
		wantReady bool
		wantError bool
	}{
		{event: "dashboard:loaded", wantReady: true},
		{event: "dashboard:run:start", wantReady: true},
		{event: "look:run:start", wantReady: true},
		{event: "look:ready", wantReady: true},
		{event: "error", wantError: true},
		{event: "dashboard:filters:changed"},
		{event: "connect:resolved"},
	}

	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			if got := r.IsReadyEvent(tt.event); got != tt.wantReady {
				t.Errorf("IsReadyEvent(%q) = %v, want %v", tt.event, got, tt.wantReady)
			}
			if got := r.IsErrorEvent(tt.event); got != tt.wantError {
				t.Errorf("IsErrorEvent(%q) = %v, want %v", tt.event, got, tt.wantError)
			}
		})
	}
}

func TestNewRegistryFromYAML_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "unknown kind",
			yaml: "kinds:\n  chart: {label: Charts}\nevents:\n  ready: [x]\n",
		},
		{
			name: "missing view kind",
			yaml: "kinds:\n  document: {label: Dashboards}\nevents:\n  ready: [x]\n",
		},
		{
			name: "no ready events",
			yaml: "kinds:\n  document: {label: D}\n  view: {label: V}\n",
		},
		{
			name: "malformed",
			yaml: "kinds: [",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRegistryFromYAML([]byte(tt.yaml)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
