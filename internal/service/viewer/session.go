package viewer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"contentnav/internal/domain"
	"contentnav/internal/domain/models/content"
)

// State is the lifecycle state of the viewer session.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// Snapshot is a point-in-time copy of the session.
type Snapshot struct {
	State     State              `json:"state"`
	Selection *content.Selection `json:"selection,omitempty"`
	ViewerID  string             `json:"viewer_id,omitempty"`
	EmbedURL  string             `json:"embed_url,omitempty"`
	Message   string             `json:"message,omitempty"`
}

// SessionConfig configures a viewer session.
type SessionConfig struct {
	HostURL          string
	Region           string
	ConnectTimeout   time.Duration
	IdleMessage      string
	LoadErrorMessage string
	OnChange         func()
}

// Session holds the current selection and its single live viewer.
type Session struct {
	selectMu sync.Mutex
	mu       sync.Mutex
	ctx      context.Context
	factory  Factory
	events   EventClassifier
	config   SessionConfig
	onChange func()
	logger   *slog.Logger

	state     State
	selection *content.Selection
	viewer    Viewer
	embedURL  string
	message   string
	gen       uint64
	cancel    context.CancelFunc
	pumpDone  chan struct{}
}

// NewSession creates an idle session. Viewers live at most as long as ctx.
func NewSession(ctx context.Context, factory Factory, events EventClassifier, config SessionConfig, logger *slog.Logger) *Session {
	onChange := config.OnChange
	if onChange == nil {
		onChange = func() {}
	}
	return &Session{
		ctx:      ctx,
		factory:  factory,
		events:   events,
		config:   config,
		onChange: onChange,
		logger:   logger,
		state:    StateIdle,
	}
}

// Select makes sel the current selection. The previous viewer is closed and
// its event pump has exited before the next viewer is constructed.
//
// A missing host or a viewer that cannot be built leaves the session in
// StateError; that is reported through the snapshot, not as an error.
func (s *Session) Select(sel content.Selection) Snapshot {
	s.selectMu.Lock()
	defer s.selectMu.Unlock()

	s.teardown()

	log := s.logger.With("kind", sel.Kind, "content_id", sel.ID)

	s.mu.Lock()
	s.selection = &sel
	s.message = ""
	gen := s.gen
	if s.config.HostURL == "" {
		s.state = StateError
		s.message = s.config.LoadErrorMessage
		s.mu.Unlock()
		log.Error("viewer host is not configured")
		s.onChange()
		return s.Snapshot()
	}
	s.state = StateLoading
	s.mu.Unlock()

	v, err := s.factory(Config{
		HostURL:   s.config.HostURL,
		Kind:      sel.Kind,
		ContentID: sel.ID,
		Region:    s.config.Region,
	})
	if err != nil {
		log.Error("failed to construct viewer", "error", err)
		s.fail(gen)
		return s.Snapshot()
	}

	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan struct{})

	s.mu.Lock()
	s.viewer = v
	s.cancel = cancel
	s.pumpDone = done
	if e, ok := v.(Embedder); ok {
		s.embedURL = e.EmbedURL()
	}
	s.mu.Unlock()

	log.Info("viewer created", "viewer_id", v.ID())
	go s.pump(ctx, gen, v, done)

	s.onChange()
	return s.Snapshot()
}

// teardown retires the live viewer. Bumping gen first guarantees nothing the
// old viewer emits afterwards is applied.
func (s *Session) teardown() {
	s.mu.Lock()
	s.gen++
	v, cancel, done := s.viewer, s.cancel, s.pumpDone
	s.viewer, s.cancel, s.pumpDone = nil, nil, nil
	s.embedURL = ""
	s.mu.Unlock()

	if v == nil {
		return
	}
	cancel()
	if err := v.Close(); err != nil {
		s.logger.Warn("failed to close viewer", "viewer_id", v.ID(), "error", err)
	}
	<-done
	s.logger.Debug("viewer torn down", "viewer_id", v.ID())
}

func (s *Session) pump(ctx context.Context, gen uint64, v Viewer, done chan struct{}) {
	defer close(done)

	if err := s.connect(ctx, v); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("viewer connect failed", "viewer_id", v.ID(), "error", err)
		s.fail(gen)
		return
	}
	s.logger.Debug("viewer connected", "viewer_id", v.ID())

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-v.Events():
			if !ok {
				return
			}
			s.apply(gen, v.ID(), ev)
		}
	}
}

func (s *Session) connect(ctx context.Context, v Viewer) error {
	if s.config.ConnectTimeout <= 0 {
		return v.Connect(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, s.config.ConnectTimeout)
	defer cancel()
	return v.Connect(ctx)
}

func (s *Session) apply(gen uint64, viewerID string, ev Event) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.logger.Debug("dropping stale viewer event", "viewer_id", viewerID, "type", ev.Type)
		return
	}

	changed := false
	switch {
	case s.events.IsReadyEvent(ev.Type):
		if s.state == StateLoading {
			s.state = StateReady
			changed = true
		}
	case s.events.IsErrorEvent(ev.Type):
		if s.state != StateError {
			s.state = StateError
			s.message = s.config.LoadErrorMessage
			changed = true
		}
	}
	s.mu.Unlock()

	s.logger.Debug("viewer event", "viewer_id", viewerID, "type", ev.Type, "message", ev.Message)
	if changed {
		s.onChange()
	}
}

func (s *Session) fail(gen uint64) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.state = StateError
	s.message = s.config.LoadErrorMessage
	s.mu.Unlock()
	s.onChange()
}

// Deliver forwards an externally reported event to the live viewer.
func (s *Session) Deliver(viewerID string, ev Event) error {
	s.mu.Lock()
	v := s.viewer
	s.mu.Unlock()

	if v == nil || v.ID() != viewerID {
		return &domain.ConflictError{
			Message:      "viewer is no longer live",
			ResourceType: "viewer",
			ResourceID:   viewerID,
		}
	}
	r, ok := v.(Receiver)
	if !ok {
		return fmt.Errorf("%w: viewer %s does not accept reported events", domain.ErrValidation, viewerID)
	}
	return r.Deliver(ev)
}

// Snapshot returns the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:    s.state,
		EmbedURL: s.embedURL,
		Message:  s.message,
	}
	if s.selection != nil {
		sel := *s.selection
		snap.Selection = &sel
	}
	if s.viewer != nil {
		snap.ViewerID = s.viewer.ID()
	}
	if s.state == StateIdle {
		snap.Message = s.config.IdleMessage
	}
	return snap
}

// Close tears down the live viewer. The selection is kept.
func (s *Session) Close() {
	s.selectMu.Lock()
	defer s.selectMu.Unlock()
	s.teardown()
}
