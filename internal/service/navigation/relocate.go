package navigation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"contentnav/internal/cache"
	"contentnav/internal/domain"
	"contentnav/internal/domain/models/content"
	contentRepo "contentnav/internal/domain/repositories/content"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// RelocateState is a snapshot of the relocate dialog.
type RelocateState struct {
	Open       bool                `json:"open"`
	Target     *content.MoveTarget `json:"target,omitempty"`
	Search     SearchState         `json:"search"`
	Selected   *content.FolderNode `json:"selected,omitempty"`
	Moving     bool                `json:"moving"`
	CanConfirm bool                `json:"can_confirm"`
	LastError  string              `json:"last_error,omitempty"`
}

// Relocator drives the single relocate dialog of a workspace: pick a target
// item, search for a destination folder, confirm the move.
//
// A successful move invalidates the destination's child-folder listing and
// its listing for the moved kind. The source folder's listings are left as
// they are and keep showing the item until they are refreshed.
type Relocator struct {
	mu       sync.Mutex
	fetcher  *Fetcher
	overlay  *Overlay
	onChange func()
	logger   *slog.Logger

	open     bool
	target   *content.MoveTarget
	selected *content.FolderNode
	moving   bool
	lastErr  string
}

// NewRelocator creates a relocator with its own folder-only search overlay.
func NewRelocator(ctx context.Context, fetcher *Fetcher, search OverlayConfig, logger *slog.Logger) *Relocator {
	onChange := search.OnChange
	if onChange == nil {
		onChange = func() {}
	}
	search.IncludeContent = false
	return &Relocator{
		fetcher:  fetcher,
		overlay:  NewOverlay(ctx, fetcher, search, logger),
		onChange: onChange,
		logger:   logger,
	}
}

// Overlay returns the dialog's folder search.
func (r *Relocator) Overlay() *Overlay {
	return r.overlay
}

func errMoveInProgress(target *content.MoveTarget) error {
	id := ""
	if target != nil {
		id = target.ContentID
	}
	return &domain.ConflictError{
		Message:      "a move is in progress",
		ResourceType: "relocate",
		ResourceID:   id,
	}
}

var errDialogClosed = fmt.Errorf("no relocate dialog is open: %w", domain.ErrConflict)

// Open shows the dialog for target, replacing any idle dialog.
func (r *Relocator) Open(target content.MoveTarget) error {
	err := validation.ValidateStruct(&target,
		validation.Field(&target.ContentID, validation.Required),
		validation.Field(&target.Kind, validation.Required, validation.In(content.KindDocument, content.KindView)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	r.mu.Lock()
	if r.moving {
		r.mu.Unlock()
		return errMoveInProgress(r.target)
	}
	r.open = true
	r.target = &target
	r.selected = nil
	r.lastErr = ""
	r.mu.Unlock()

	r.overlay.Reset()
	r.onChange()
	return nil
}

// Close dismisses the dialog and clears its state.
func (r *Relocator) Close() error {
	r.mu.Lock()
	if r.moving {
		r.mu.Unlock()
		return errMoveInProgress(r.target)
	}
	r.resetLocked()
	r.mu.Unlock()

	r.overlay.Reset()
	r.onChange()
	return nil
}

func (r *Relocator) resetLocked() {
	r.open = false
	r.target = nil
	r.selected = nil
	r.moving = false
	r.lastErr = ""
}

// Search feeds destination search input.
func (r *Relocator) Search(text string) error {
	r.mu.Lock()
	open := r.open
	r.mu.Unlock()
	if !open {
		return errDialogClosed
	}
	r.overlay.Type(text)
	return nil
}

// SelectFolder picks a destination from the current search results.
func (r *Relocator) SelectFolder(id string) error {
	results := r.overlay.Snapshot().Folders

	var selected *content.FolderNode
	for _, f := range results {
		if f.ID == id {
			selected = &f
			break
		}
	}

	r.mu.Lock()
	if !r.open {
		r.mu.Unlock()
		return errDialogClosed
	}
	if r.moving {
		r.mu.Unlock()
		return errMoveInProgress(r.target)
	}
	if selected == nil {
		r.mu.Unlock()
		return fmt.Errorf("%w: folder %s is not in the search results", domain.ErrValidation, id)
	}
	r.selected = selected
	r.mu.Unlock()

	r.onChange()
	return nil
}

// Snapshot returns the dialog state.
func (r *Relocator) Snapshot() RelocateState {
	search := r.overlay.Snapshot()

	r.mu.Lock()
	defer r.mu.Unlock()

	s := RelocateState{
		Open:      r.open,
		Search:    search,
		Moving:    r.moving,
		LastError: r.lastErr,
	}
	if r.target != nil {
		t := *r.target
		s.Target = &t
	}
	if r.selected != nil {
		f := *r.selected
		s.Selected = &f
	}
	s.CanConfirm = r.open && r.selected != nil && !r.moving
	return s
}

// Confirm moves the target into the selected folder. On failure the dialog
// stays open with its selection so the user can retry.
func (r *Relocator) Confirm(ctx context.Context) error {
	r.mu.Lock()
	if !r.open {
		r.mu.Unlock()
		return errDialogClosed
	}
	if r.moving {
		r.mu.Unlock()
		return errMoveInProgress(r.target)
	}
	if r.selected == nil {
		r.mu.Unlock()
		return fmt.Errorf("%w: no destination folder selected", domain.ErrValidation)
	}
	req := content.MoveRequest{
		ContentID:           r.target.ContentID,
		Kind:                r.target.Kind,
		Title:               r.target.Title,
		DestinationFolderID: r.selected.ID,
	}
	r.moving = true
	r.lastErr = ""
	r.mu.Unlock()
	r.onChange()

	err := r.move(ctx, req)

	r.mu.Lock()
	r.moving = false
	if err != nil {
		r.lastErr = err.Error()
		r.mu.Unlock()
		r.logger.Error("failed to move content",
			"kind", req.Kind,
			"content_id", req.ContentID,
			"destination_folder_id", req.DestinationFolderID,
			"error", err,
		)
		r.onChange()
		return err
	}
	r.resetLocked()
	r.mu.Unlock()

	r.overlay.Reset()
	r.onChange()
	return nil
}

func (r *Relocator) move(ctx context.Context, req content.MoveRequest) error {
	if err := validateMoveRequest(&req); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := contentRepo.Move(ctx, r.fetcher.Repository(), req.Kind, req.ContentID, req.DestinationFolderID); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("move %s %s: %w", req.Kind, req.ContentID, err)
	}

	r.fetcher.Cache().Invalidate(
		cache.FolderChildrenKey(req.DestinationFolderID),
		listingKey(req.Kind, req.DestinationFolderID),
	)

	r.logger.Info("content relocated",
		"kind", req.Kind,
		"content_id", req.ContentID,
		"title", req.Title,
		"destination_folder_id", req.DestinationFolderID,
	)
	return nil
}

func validateMoveRequest(req *content.MoveRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.ContentID, validation.Required),
		validation.Field(&req.Kind,
			validation.Required,
			validation.In(content.KindDocument, content.KindView),
		),
		validation.Field(&req.DestinationFolderID, validation.Required),
	)
}
