package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Controller drives the note lifecycle: create, draft, save, cancel.
// Calls are serialized; a presentation layer sends intents and gets back
// notes or errors.
type Controller struct {
	store     *Store
	allocator *Allocator
	workspace *Workspace
	logger    *slog.Logger
	newID     func() string
	now       func() time.Time

	mu sync.Mutex
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithLogger sets the logger for the controller.
func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithIDGenerator replaces the ULID generator (useful for testing).
func WithIDGenerator(fn func() string) ControllerOption {
	return func(c *Controller) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// WithClock replaces time.Now (useful for testing).
func WithClock(fn func() time.Time) ControllerOption {
	return func(c *Controller) {
		if fn != nil {
			c.now = fn
		}
	}
}

// NewController wires a controller around a store, an allocator and the
// working set it owns. A nil workspace gets a fresh one.
func NewController(store *Store, allocator *Allocator, workspace *Workspace, opts ...ControllerOption) *Controller {
	if workspace == nil {
		workspace = NewWorkspace()
	}
	c := &Controller{
		store:     store,
		allocator: allocator,
		workspace: workspace,
		logger:    slog.Default(),
		newID:     NewID,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create starts a new uncommitted note at pos, or at the next free cell when
// pos is nil. A note already being edited is resolved first: saved when it
// has text, cancelled otherwise.
func (c *Controller) Create(ctx context.Context, pos *Position) (Note, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.resolvePending(ctx); err != nil {
		return Note{}, fmt.Errorf("resolve pending note: %w", err)
	}

	var p Position
	if pos != nil {
		if err := c.checkFree(ctx, *pos, ""); err != nil {
			return Note{}, err
		}
		p = *pos
	} else {
		next, err := c.nextPosition(ctx)
		if err != nil {
			return Note{}, err
		}
		p = next
	}

	n := Note{
		ID:        c.newID(),
		CreatedAt: c.now().UnixMilli(),
		Position:  p,
		IsEditing: true,
	}
	c.workspace.hold(n)
	c.logger.Debug("note created", "id", n.ID, "position", p.String())
	return n, nil
}

// Draft records in-progress text for the pending note. The text is used when
// the note is force-resolved by a later Create or Edit.
func (c *Controller) Draft(id, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.workspace.update(id, func(n *Note) { n.Text = text }) {
		return fmt.Errorf("%w: %s", ErrNotPending, id)
	}
	return nil
}

// Save validates, sanitizes and persists text for id. An existing note keeps
// its creation time and position; an unknown id gets both assigned now.
func (c *Controller) Save(ctx context.Context, id, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save(ctx, id, text)
}

func (c *Controller) save(ctx context.Context, id, text string) error {
	if err := ValidateText(text); err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrInvalidID)
	}
	clean := SanitizeText(text)
	if clean == "" {
		return ErrEmptyText
	}

	n, known, err := c.lookup(ctx, id)
	if err != nil {
		return err
	}
	if !known {
		pos, err := c.nextPosition(ctx)
		if err != nil {
			return err
		}
		n = Note{ID: id, CreatedAt: c.now().UnixMilli(), Position: pos}
	}
	n.Text = clean
	n.IsEditing = false

	if err := c.store.Put(ctx, n); err != nil {
		return err
	}
	c.workspace.release(id)
	c.logger.Debug("note saved", "id", id)
	return nil
}

// Cancel discards the pending note with this id without touching the store.
// It is a no-op for any other id.
func (c *Controller) Cancel(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.workspace.release(id) {
		c.logger.Debug("note edit cancelled", "id", id)
	}
}

// Edit reopens a saved note as the pending note.
func (c *Controller) Edit(ctx context.Context, id string) (Note, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.workspace.Pending(); ok && p.ID == id {
		return p, nil
	}
	if err := c.resolvePending(ctx); err != nil {
		return Note{}, fmt.Errorf("resolve pending note: %w", err)
	}

	n, ok, err := c.store.Get(ctx, id)
	if err != nil {
		return Note{}, err
	}
	if !ok {
		return Note{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	c.workspace.hold(n)
	n.IsEditing = true
	return n, nil
}

// Move repositions a pending or saved note.
func (c *Controller) Move(ctx context.Context, id string, pos Position) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkFree(ctx, pos, id); err != nil {
		return err
	}
	if c.workspace.update(id, func(n *Note) { n.Position = pos }) {
		return nil
	}

	n, ok, err := c.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	n.Position = pos
	return c.store.Put(ctx, n)
}

// Get returns the pending note when id is being edited, the stored note otherwise.
func (c *Controller) Get(ctx context.Context, id string) (Note, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.workspace.Pending(); ok && p.ID == id {
		return p, true, nil
	}
	return c.store.Get(ctx, id)
}

// LoadAll returns every stored note.
func (c *Controller) LoadAll(ctx context.Context) ([]Note, error) {
	return c.store.List(ctx)
}

// Watch streams changes made to the store, including those of other processes
// sharing the same backend.
func (c *Controller) Watch(ctx context.Context, pattern string) (<-chan Event, error) {
	return c.store.Watch(ctx, pattern)
}

// Clear deletes every stored note. The pending note, if any, is kept.
func (c *Controller) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Clear(ctx)
}

// Pending returns the note currently being edited.
func (c *Controller) Pending() (Note, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.workspace.Pending()
}

// ValidateText exposes the validator to presentation layers.
func (c *Controller) ValidateText(text string) error {
	return ValidateText(text)
}

// Layout returns the board layout used for allocation.
func (c *Controller) Layout() Layout {
	return c.allocator.Layout()
}

// resolvePending saves or cancels the pending note. Caller holds c.mu.
func (c *Controller) resolvePending(ctx context.Context) error {
	p, ok := c.workspace.Pending()
	if !ok {
		return nil
	}
	if strings.TrimSpace(p.Text) == "" {
		c.workspace.release(p.ID)
		c.logger.Debug("pending note discarded", "id", p.ID)
		return nil
	}
	return c.save(ctx, p.ID, p.Text)
}

// lookup finds id in the working set, then in the store.
func (c *Controller) lookup(ctx context.Context, id string) (Note, bool, error) {
	if p, ok := c.workspace.Pending(); ok && p.ID == id {
		return p, true, nil
	}
	return c.store.Get(ctx, id)
}

// occupied collects the positions of every known note except exclude.
func (c *Controller) occupied(ctx context.Context, exclude string) ([]Position, error) {
	notes, err := c.store.List(ctx)
	if err != nil {
		return nil, err
	}
	positions := make([]Position, 0, len(notes)+1)
	for _, n := range notes {
		if n.ID != exclude {
			positions = append(positions, n.Position)
		}
	}
	if p, ok := c.workspace.Pending(); ok && p.ID != exclude {
		positions = append(positions, p.Position)
	}
	return positions, nil
}

func (c *Controller) nextPosition(ctx context.Context) (Position, error) {
	occupied, err := c.occupied(ctx, "")
	if err != nil {
		return Position{}, err
	}
	return c.allocator.Next(occupied)
}

func (c *Controller) checkFree(ctx context.Context, pos Position, exclude string) error {
	if pos.X < 0 || pos.Y < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidPosition, pos)
	}
	if c.allocator.Layout().IsReserved(pos) {
		return fmt.Errorf("%w: %s is reserved", ErrPositionTaken, pos)
	}
	occupied, err := c.occupied(ctx, exclude)
	if err != nil {
		return err
	}
	for _, p := range occupied {
		if p == pos {
			return fmt.Errorf("%w: %s", ErrPositionTaken, pos)
		}
	}
	return nil
}
