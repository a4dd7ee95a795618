// Package core holds the sticky-note domain: the note record, its validation,
// the cache-backed store, the board layout and the controller driving the
// editing lifecycle.
package core

import "fmt"

// MaxTextLength is the maximum number of characters a note may hold.
const MaxTextLength = 200

// Position is a grid-aligned cell on the board, in pixels from the top-left corner.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Note is the persisted entity.
// IsEditing is only true while the note sits in the working set; the store never
// holds an editing note.
type Note struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	CreatedAt int64    `json:"createdAt"`
	Position  Position `json:"position"`
	IsEditing bool     `json:"isEditing"`
}
