package engine

import (
	"math"

	"github.com/piwi3910/SolarRack/internal/model"
)

const (
	// StrapGapCm is the strap allowance added for each assignment.
	StrapGapCm = 2.0
	// StrapRollCm is the length of one grounding strap roll.
	StrapRollCm = 600.0
)

// cellState is the tracer's private annotation of a grid cell.
type cellState uint8

const (
	cellEmpty cellState = iota
	cellOccupied
	cellStrapped
)

// StrapAssignment records one pair that received its own strap segment.
type StrapAssignment struct {
	X        int     `json:"x"`
	Y        int     `json:"y"` // Upper cell of the vertical pair
	LengthCm float64 `json:"length_cm"`
}

// StrapTrace is the outcome of a grounding strap scan.
type StrapTrace struct {
	TotalLengthCm float64           `json:"total_length_cm"`
	Packs         int               `json:"packs"`
	Assignments   []StrapAssignment `json:"assignments"`
}

// strapTracer holds the working copy of the grid for a single scan.
type strapTracer struct {
	rows, cols int
	height     float64
	cells      [][]cellState
}

func newStrapTracer(grid model.OccupancyGrid, rows, cols int, moduleHeightCm float64) *strapTracer {
	t := &strapTracer{rows: rows, cols: cols, height: moduleHeightCm}
	t.cells = make([][]cellState, rows)
	for y := range t.cells {
		t.cells[y] = make([]cellState, cols)
		for x := range t.cells[y] {
			if grid.At(x, y) {
				t.cells[y][x] = cellOccupied
			}
		}
	}
	return t
}

func (t *strapTracer) occupied(x, y int) bool {
	if x < 0 || y < 0 || x >= t.cols || y >= t.rows {
		return false
	}
	return t.cells[y][x] != cellEmpty
}

func (t *strapTracer) strapped(x, y int) bool {
	if x < 0 || y < 0 || x >= t.cols || y >= t.rows {
		return false
	}
	return t.cells[y][x] == cellStrapped
}

// paired reports whether column x holds a vertical pair starting at row y.
func (t *strapTracer) paired(x, y int) bool {
	return t.occupied(x, y) && t.occupied(x, y+1)
}

// resolve decides whether the pair at (x, y) needs its own strap by looking
// left along the row. It returns the strap length added, zero when the pair
// is already covered by a strap extended from the left.
func (t *strapTracer) resolve(x, y int) float64 {
	for lx := x - 1; lx >= 0; lx-- {
		if !t.paired(lx, y) {
			return t.assign(x, y)
		}
		upper, lower := t.strapped(lx, y), t.strapped(lx, y+1)
		switch {
		case upper && lower:
			return 0
		case upper:
			return t.assign(x, y)
		}
		// Paired but not yet strapped: keep looking further left.
	}
	return t.assign(x, y)
}

// assign marks the pair at (x, y) as strapped and returns the strap length.
// When the upper cell already carries a strap only the lower module is added.
func (t *strapTracer) assign(x, y int) float64 {
	if t.strapped(x, y) {
		t.cells[y+1][x] = cellStrapped
		return t.height + StrapGapCm
	}
	t.cells[y][x] = cellStrapped
	t.cells[y+1][x] = cellStrapped
	return 2*t.height + StrapGapCm
}

// TraceGroundingStrap scans the grid row by row, left to right, and totals the
// grounding strap needed to bond vertically adjacent modules. The caller's
// grid is never modified.
func TraceGroundingStrap(grid model.OccupancyGrid, rows, cols int, moduleHeightCm float64) StrapTrace {
	trace := StrapTrace{Assignments: []StrapAssignment{}}
	if rows <= 0 || cols <= 0 {
		return trace
	}

	t := newStrapTracer(grid, rows, cols, moduleHeightCm)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if !t.paired(x, y) {
				continue
			}
			length := t.resolve(x, y)
			if length > 0 {
				trace.TotalLengthCm += length
				trace.Assignments = append(trace.Assignments, StrapAssignment{X: x, Y: y, LengthCm: length})
			}
		}
	}

	trace.Packs = strapPacks(trace.TotalLengthCm)
	return trace
}

// GroundingStrapPacks returns the number of strap rolls needed for the grid.
func GroundingStrapPacks(grid model.OccupancyGrid, rows, cols int, moduleHeightCm float64) int {
	return TraceGroundingStrap(grid, rows, cols, moduleHeightCm).Packs
}

func strapPacks(totalCm float64) int {
	if totalCm <= 0 {
		return 0
	}
	return int(math.Ceil(totalCm/StrapRollCm - lengthEpsilon))
}
