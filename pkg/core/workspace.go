package core

// Workspace is the in-memory working set of the controller. It holds at most
// one uncommitted note; that note is never in the store in its edited form.
// A Workspace is owned by exactly one Controller and is not safe for
// concurrent use on its own.
type Workspace struct {
	pending *Note
}

// NewWorkspace returns an empty working set.
func NewWorkspace() *Workspace {
	return &Workspace{}
}

// Pending returns the uncommitted note, if any.
func (w *Workspace) Pending() (Note, bool) {
	if w.pending == nil {
		return Note{}, false
	}
	return *w.pending, true
}

func (w *Workspace) hold(n Note) {
	n.IsEditing = true
	w.pending = &n
}

// release drops the pending note if it has the given id.
func (w *Workspace) release(id string) bool {
	if w.pending == nil || w.pending.ID != id {
		return false
	}
	w.pending = nil
	return true
}

func (w *Workspace) update(id string, fn func(*Note)) bool {
	if w.pending == nil || w.pending.ID != id {
		return false
	}
	fn(w.pending)
	return true
}
