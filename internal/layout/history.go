// Package layout provides grid editing with bounded undo and redo for
// interactive roof editors.
package layout

import "github.com/piwi3910/SolarRack/internal/model"

// DefaultDepth is the number of undo steps kept by NewHistory.
const DefaultDepth = 50

// Snapshot is the editable state of a configuration: its grid and the
// mounting choices that change the bill of materials.
type Snapshot struct {
	Grid       model.OccupancyGrid
	Dimensions model.CellDimensions
	Options    model.AccessoryOptions
	Label      string // e.g. "toggle 3,2"
}

// History holds two bounded stacks of snapshots. The oldest undo step is
// discarded once the depth is exceeded.
type History struct {
	past, future []Snapshot
	depth        int
}

func NewHistory() *History {
	return NewHistoryWithDepth(DefaultDepth)
}

// NewHistoryWithDepth keeps at most depth undo steps, and at least one.
func NewHistoryWithDepth(depth int) *History {
	return &History{depth: max(depth, 1)}
}

// Push records the state before an edit. Any redo steps are lost.
func (h *History) Push(s Snapshot) {
	h.past = h.bounded(append(h.past, s))
	h.future = h.future[:0]
}

// Undo returns the state to go back to and keeps current for Redo.
func (h *History) Undo(current Snapshot) (Snapshot, bool) {
	prev, ok := pop(&h.past)
	if ok {
		h.future = h.bounded(append(h.future, current))
	}
	return prev, ok
}

// Redo reverses the last Undo, keeping current for another Undo.
func (h *History) Redo(current Snapshot) (Snapshot, bool) {
	next, ok := pop(&h.future)
	if ok {
		h.past = h.bounded(append(h.past, current))
	}
	return next, ok
}

func (h *History) CanUndo() bool { return len(h.past) > 0 }
func (h *History) CanRedo() bool { return len(h.future) > 0 }

// Depth returns the number of undo steps held.
func (h *History) Depth() int { return len(h.past) }

func (h *History) Clear() {
	h.past, h.future = nil, nil
}

func (h *History) bounded(stack []Snapshot) []Snapshot {
	if over := len(stack) - h.depth; over > 0 {
		return stack[over:]
	}
	return stack
}

func pop(stack *[]Snapshot) (Snapshot, bool) {
	n := len(*stack)
	if n == 0 {
		return Snapshot{}, false
	}
	s := (*stack)[n-1]
	*stack = (*stack)[:n-1]
	return s, true
}

// MakeSnapshot captures cfg. The grid is deep-copied so later edits do not
// leak into history.
func MakeSnapshot(cfg model.Configuration, label string) Snapshot {
	return Snapshot{
		Grid:       cfg.Grid.Clone(),
		Dimensions: cfg.Dimensions,
		Options:    cfg.Options,
		Label:      label,
	}
}

func (s Snapshot) restore(cfg *model.Configuration) {
	cfg.Grid = s.Grid.Clone()
	cfg.Dimensions = s.Dimensions
	cfg.Options = s.Options
}
