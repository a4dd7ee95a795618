package core

import "fmt"

// Layout describes the board grid new notes are placed on.
type Layout struct {
	CellWidth   int        `yaml:"cell_width" json:"cell_width"`
	CellHeight  int        `yaml:"cell_height" json:"cell_height"`
	Spacing     int        `yaml:"spacing" json:"spacing"`
	CanvasWidth int        `yaml:"canvas_width" json:"canvas_width"`
	Origin      Position   `yaml:"origin" json:"origin"`
	Reserved    []Position `yaml:"reserved" json:"reserved"`
	// MaxScan caps the number of cells inspected before giving up.
	MaxScan int `yaml:"max_scan" json:"max_scan"`
}

// DefaultLayout matches the board rendered by the web client: three
// instruction notes on the first row and the new-note affordance below them.
func DefaultLayout() Layout {
	return Layout{
		CellWidth:   200,
		CellHeight:  150,
		Spacing:     20,
		CanvasWidth: 1200,
		Origin:      Position{X: 20, Y: 20},
		Reserved: []Position{
			{X: 20, Y: 20},
			{X: 240, Y: 20},
			{X: 460, Y: 20},
			{X: 20, Y: 190},
		},
		MaxScan: 10000,
	}
}

// Validate reports layouts the allocator cannot scan.
func (l Layout) Validate() error {
	switch {
	case l.CellWidth <= 0 || l.CellHeight <= 0:
		return fmt.Errorf("%w: cell size must be positive", ErrInvalidLayout)
	case l.Spacing < 0:
		return fmt.Errorf("%w: spacing must not be negative", ErrInvalidLayout)
	case l.Origin.X < 0 || l.Origin.Y < 0:
		return fmt.Errorf("%w: origin must not be negative", ErrInvalidLayout)
	case l.Origin.X+l.CellWidth > l.CanvasWidth:
		return fmt.Errorf("%w: canvas width %d cannot hold a single cell", ErrInvalidLayout, l.CanvasWidth)
	case l.MaxScan <= 0:
		return fmt.Errorf("%w: max scan must be positive", ErrInvalidLayout)
	}
	return nil
}

// IsReserved reports whether p is one of the layout's fixed cells.
func (l Layout) IsReserved(p Position) bool {
	for _, r := range l.Reserved {
		if r == p {
			return true
		}
	}
	return false
}

// Allocator hands out free grid cells. It holds no state between calls; the
// occupied set is supplied by the caller each time.
type Allocator struct {
	layout Layout
}

// NewAllocator creates an Allocator after validating the layout.
func NewAllocator(layout Layout) (*Allocator, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return &Allocator{layout: layout}, nil
}

// Layout returns the layout the allocator scans.
func (a *Allocator) Layout() Layout {
	return a.layout
}

// Next returns the first cell, scanning left to right then top to bottom,
// that is neither in occupied nor reserved.
func (a *Allocator) Next(occupied []Position) (Position, error) {
	l := a.layout
	taken := make(map[Position]struct{}, len(occupied)+len(l.Reserved))
	for _, p := range occupied {
		taken[p] = struct{}{}
	}
	for _, p := range l.Reserved {
		taken[p] = struct{}{}
	}

	stepX := l.CellWidth + l.Spacing
	stepY := l.CellHeight + l.Spacing
	p := l.Origin
	for i := 0; i < l.MaxScan; i++ {
		if _, ok := taken[p]; !ok {
			return p, nil
		}
		p.X += stepX
		if p.X+l.CellWidth > l.CanvasWidth {
			p.X = l.Origin.X
			p.Y += stepY
		}
	}
	return Position{}, fmt.Errorf("%w after %d cells", ErrLayoutExhausted, l.MaxScan)
}

// InstructionNotes returns the read-only notes shown on the reserved cells of
// the first row. They are never stored.
func InstructionNotes(l Layout) []Note {
	texts := []string{
		"Click \"+ New note\" to add a note",
		fmt.Sprintf("Type your message (up to %d characters)", MaxTextLength),
		"Clearing the browser cache removes all notes",
	}
	var notes []Note
	for i, text := range texts {
		if i >= len(l.Reserved) {
			break
		}
		notes = append(notes, Note{
			ID:        fmt.Sprintf("instruction-%d", i+1),
			Text:      text,
			CreatedAt: 1,
			Position:  l.Reserved[i],
		})
	}
	return notes
}
