package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/piwi3910/SolarRack/internal/model"
)

// Editor applies grid edits to a configuration and records each one so it
// can be undone. It is not safe for concurrent use.
type Editor struct {
	cfg     model.Configuration
	history *History
}

// NewEditor starts editing a copy of cfg.
func NewEditor(cfg model.Configuration) *Editor {
	cfg = cfg.Clone()
	cfg.Grid.Normalize()
	return &Editor{cfg: cfg, history: NewHistory()}
}

// Configuration returns a copy of the edited configuration.
func (e *Editor) Configuration() model.Configuration {
	return e.cfg.Clone()
}

// History exposes the undo stack, e.g. to enable menu items.
func (e *Editor) History() *History {
	return e.history
}

func (e *Editor) record(label string) {
	e.history.Push(MakeSnapshot(e.cfg, label))
	e.cfg.Touch()
}

// Toggle flips one cell. Cells outside the grid are ignored.
func (e *Editor) Toggle(x, y int) {
	if x < 0 || y < 0 || x >= e.cfg.Grid.Cols || y >= e.cfg.Grid.Rows {
		return
	}
	e.record(fmt.Sprintf("Toggle %d,%d", x, y))
	e.cfg.Grid.Toggle(x, y)
}

// Fill selects a w×h block with its top-left cell at (x, y).
func (e *Editor) Fill(x, y, w, h int) {
	e.record(fmt.Sprintf("Fill %dx%d at %d,%d", w, h, x, y))
	e.cfg.Grid.Fill(x, y, w, h)
}

// Clear unselects every cell.
func (e *Editor) Clear() {
	e.record("Clear")
	e.cfg.Grid = model.NewGrid(e.cfg.Grid.Rows, e.cfg.Grid.Cols)
}

// Resize changes the grid size, keeping the overlapping selection.
func (e *Editor) Resize(rows, cols int) {
	e.record(fmt.Sprintf("Resize %dx%d", rows, cols))
	e.cfg.Grid = e.cfg.Grid.Resize(rows, cols)
}

// Rotate swaps the panel orientation.
func (e *Editor) Rotate() {
	e.record("Rotate panels")
	e.cfg.Dimensions.Orientation = e.cfg.Dimensions.Orientation.Rotated()
}

// SetOptions replaces the accessory choices.
func (e *Editor) SetOptions(opts model.AccessoryOptions) {
	e.record("Accessories")
	e.cfg.Options = opts
}

// Undo reverts the last edit and reports whether there was one.
func (e *Editor) Undo() bool {
	s, ok := e.history.Undo(MakeSnapshot(e.cfg, "current"))
	if ok {
		s.restore(&e.cfg)
	}
	return ok
}

// Redo reapplies the last undone edit and reports whether there was one.
func (e *Editor) Redo() bool {
	s, ok := e.history.Redo(MakeSnapshot(e.cfg, "current"))
	if ok {
		s.restore(&e.cfg)
	}
	return ok
}

// Apply runs a textual edit command as used on the command line:
//
//	toggle X,Y | fill X,Y,W,H | clear | resize ROWS,COLS | rotate | undo | redo
//
// Coordinates are zero-based with (0,0) at the top-left.
func (e *Editor) Apply(command string) error {
	verb, args, _ := strings.Cut(strings.TrimSpace(command), " ")
	nums, err := parseInts(args)
	if err != nil {
		return fmt.Errorf("edit %q: %w", command, err)
	}
	need := func(n int) error {
		if len(nums) != n {
			return fmt.Errorf("edit %q: expected %d numbers, got %d", command, n, len(nums))
		}
		return nil
	}

	switch strings.ToLower(verb) {
	case "toggle":
		if err := need(2); err != nil {
			return err
		}
		e.Toggle(nums[0], nums[1])
	case "fill":
		if err := need(4); err != nil {
			return err
		}
		e.Fill(nums[0], nums[1], nums[2], nums[3])
	case "clear":
		e.Clear()
	case "resize":
		if err := need(2); err != nil {
			return err
		}
		if nums[0] < 0 || nums[1] < 0 {
			return fmt.Errorf("edit %q: negative size", command)
		}
		if nums[0] > model.MaxGridSide || nums[1] > model.MaxGridSide {
			return fmt.Errorf("edit %q: at most %d per side", command, model.MaxGridSide)
		}
		e.Resize(nums[0], nums[1])
	case "rotate":
		e.Rotate()
	case "undo":
		e.Undo()
	case "redo":
		e.Redo()
	default:
		return fmt.Errorf("edit %q: unknown command %q", command, verb)
	}
	return nil
}

func parseInts(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
