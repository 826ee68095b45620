package model

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// MaxGridSide bounds the rows and columns of a grid read from outside.
const MaxGridSide = 1000

// checkGridSize rejects negative sizes and sides above MaxGridSide.
func checkGridSize(rows, cols int) error {
	if rows < 0 || cols < 0 || rows > MaxGridSide || cols > MaxGridSide {
		return fmt.Errorf("grid %dx%d outside 0..%d: %w", rows, cols, MaxGridSide, ErrInvalidDimension)
	}
	return nil
}

// Validate reports grids that are too large to compute.
func (g OccupancyGrid) Validate() error {
	rows, cols := max(g.Rows, len(g.Cells)), g.Cols
	for _, row := range g.Cells {
		cols = max(cols, len(row))
	}
	return checkGridSize(rows, cols)
}

// OccupancyGrid is a row-major matrix of selected module positions.
// Rows shorter than Cols (or missing entirely) are read as unselected for the
// missing cells.
type OccupancyGrid struct {
	Rows  int      `json:"rows"`
	Cols  int      `json:"cols"`
	Cells [][]bool `json:"cells"`
}

// NewGrid returns an empty grid with every cell unselected.
func NewGrid(rows, cols int) OccupancyGrid {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	cells := make([][]bool, rows)
	for y := range cells {
		cells[y] = make([]bool, cols)
	}
	return OccupancyGrid{Rows: rows, Cols: cols, Cells: cells}
}

// GridFromRows builds a grid from a literal matrix. Cols is the longest row.
func GridFromRows(rows [][]bool) OccupancyGrid {
	g := OccupancyGrid{Cells: rows}
	g.Normalize()
	return g
}

// Normalize fills in Rows and Cols when they were not declared.
func (g *OccupancyGrid) Normalize() {
	if g.Rows < len(g.Cells) {
		g.Rows = len(g.Cells)
	}
	if g.Cols == 0 {
		for _, row := range g.Cells {
			if len(row) > g.Cols {
				g.Cols = len(row)
			}
		}
	}
}

// At reports whether the cell at column x, row y is selected. Out-of-range
// coordinates and cells missing from short rows read as unselected.
func (g OccupancyGrid) At(x, y int) bool {
	if x < 0 || y < 0 || x >= g.Cols || y >= g.Rows || y >= len(g.Cells) {
		return false
	}
	row := g.Cells[y]
	if x >= len(row) {
		return false
	}
	return row[x]
}

// Row returns row y padded or truncated to exactly Cols entries.
// A missing row yields nil.
func (g OccupancyGrid) Row(y int) []bool {
	if y < 0 || y >= len(g.Cells) || g.Cells[y] == nil {
		return nil
	}
	row := make([]bool, g.Cols)
	copy(row, g.Cells[y])
	return row
}

// Set selects or clears a cell, growing short rows as needed.
// Coordinates outside the declared size are ignored.
func (g *OccupancyGrid) Set(x, y int, v bool) {
	if x < 0 || y < 0 || x >= g.Cols || y >= g.Rows {
		return
	}
	for len(g.Cells) <= y {
		g.Cells = append(g.Cells, nil)
	}
	if len(g.Cells[y]) < g.Cols {
		row := make([]bool, g.Cols)
		copy(row, g.Cells[y])
		g.Cells[y] = row
	}
	g.Cells[y][x] = v
}

// Toggle flips a cell.
func (g *OccupancyGrid) Toggle(x, y int) {
	g.Set(x, y, !g.At(x, y))
}

// Fill selects a rectangular block of cells.
func (g *OccupancyGrid) Fill(x0, y0, w, h int) {
	for y := y0; y < y0+h; y++ {
		for x := x0; x < x0+w; x++ {
			g.Set(x, y, true)
		}
	}
}

// SelectedCount returns the number of selected cells in the whole grid.
func (g OccupancyGrid) SelectedCount() int {
	n := 0
	for y := 0; y < g.Rows; y++ {
		for x := 0; x < g.Cols; x++ {
			if g.At(x, y) {
				n++
			}
		}
	}
	return n
}

// Clone returns a deep copy of the grid.
func (g OccupancyGrid) Clone() OccupancyGrid {
	cp := OccupancyGrid{Rows: g.Rows, Cols: g.Cols}
	if g.Cells != nil {
		cp.Cells = make([][]bool, len(g.Cells))
		for y, row := range g.Cells {
			if row != nil {
				cp.Cells[y] = make([]bool, len(row))
				copy(cp.Cells[y], row)
			}
		}
	}
	return cp
}

// Resize changes the declared size, keeping the selection that still fits.
func (g OccupancyGrid) Resize(rows, cols int) OccupancyGrid {
	out := NewGrid(rows, cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			out.Cells[y][x] = g.At(x, y)
		}
	}
	return out
}

// Equal reports whether two grids select the same cells over the same size.
func (g OccupancyGrid) Equal(o OccupancyGrid) bool {
	if g.Rows != o.Rows || g.Cols != o.Cols {
		return false
	}
	for y := 0; y < g.Rows; y++ {
		for x := 0; x < g.Cols; x++ {
			if g.At(x, y) != o.At(x, y) {
				return false
			}
		}
	}
	return true
}

// String renders the grid with '#' for selected and '.' for empty cells.
func (g OccupancyGrid) String() string {
	var b strings.Builder
	for y := 0; y < g.Rows; y++ {
		for x := 0; x < g.Cols; x++ {
			if g.At(x, y) {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		if y < g.Rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// UnmarshalJSON accepts either {"rows","cols","cells"} or a bare matrix.
// Rows that are not arrays decode as empty rows and any cell that is not
// the literal true decodes as unselected.
func (g *OccupancyGrid) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	var raw struct {
		Rows  int               `json:"rows"`
		Cols  int               `json:"cols"`
		Cells []json.RawMessage `json:"cells"`
	}
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &raw.Cells); err != nil {
			return fmt.Errorf("decode grid: %w", err)
		}
	} else if err := json.Unmarshal(trimmed, &raw); err != nil {
		return fmt.Errorf("decode grid: %w", err)
	}
	if err := checkGridSize(max(raw.Rows, 0), max(raw.Cols, 0)); err != nil {
		return fmt.Errorf("decode grid: %w", err)
	}
	if len(raw.Cells) > MaxGridSide {
		return fmt.Errorf("decode grid: %w", checkGridSize(len(raw.Cells), 0))
	}

	cells := make([][]bool, len(raw.Cells))
	for y, rawRow := range raw.Cells {
		var row []json.RawMessage
		if err := json.Unmarshal(rawRow, &row); err != nil || row == nil {
			continue
		}
		if len(row) > MaxGridSide {
			return fmt.Errorf("decode grid: row %d: %w", y, checkGridSize(0, len(row)))
		}
		cells[y] = make([]bool, len(row))
		for x, rawCell := range row {
			var v bool
			if json.Unmarshal(rawCell, &v) == nil {
				cells[y][x] = v
			}
		}
	}

	*g = OccupancyGrid{Rows: raw.Rows, Cols: raw.Cols, Cells: cells}
	if g.Rows < 0 {
		g.Rows = 0
	}
	if g.Cols < 0 {
		g.Cols = 0
	}
	g.Normalize()
	return nil
}

// Code returns a compact share code of the form "<rows>x<cols>:<bits>" where
// bits is the row-major selection packed into bytes and base64url-encoded.
func (g OccupancyGrid) Code() string {
	n := g.Rows * g.Cols
	packed := make([]byte, (n+7)/8)
	for i := 0; i < n; i++ {
		if g.At(i%g.Cols, i/g.Cols) {
			packed[i/8] |= 1 << (7 - uint(i%8))
		}
	}
	return fmt.Sprintf("%dx%d:%s", g.Rows, g.Cols, base64.RawURLEncoding.EncodeToString(packed))
}

// ParseGridCode decodes a share code produced by Code.
func ParseGridCode(code string) (OccupancyGrid, error) {
	size, bits, ok := strings.Cut(strings.TrimSpace(code), ":")
	if !ok {
		return OccupancyGrid{}, fmt.Errorf("grid code %q: missing ':' separator", code)
	}
	rs, cs, ok := strings.Cut(size, "x")
	if !ok {
		return OccupancyGrid{}, fmt.Errorf("grid code %q: size must be <rows>x<cols>", code)
	}
	rows, err := strconv.Atoi(rs)
	if err != nil || rows < 0 {
		return OccupancyGrid{}, fmt.Errorf("grid code %q: invalid rows", code)
	}
	cols, err := strconv.Atoi(cs)
	if err != nil || cols < 0 {
		return OccupancyGrid{}, fmt.Errorf("grid code %q: invalid cols", code)
	}
	if err := checkGridSize(rows, cols); err != nil {
		return OccupancyGrid{}, fmt.Errorf("grid code %q: %w", code, err)
	}
	packed, err := base64.RawURLEncoding.DecodeString(bits)
	if err != nil {
		return OccupancyGrid{}, fmt.Errorf("grid code %q: %w", code, err)
	}
	n := rows * cols
	if len(packed) != (n+7)/8 {
		return OccupancyGrid{}, fmt.Errorf("grid code %q: expected %d bytes, got %d", code, (n+7)/8, len(packed))
	}

	g := NewGrid(rows, cols)
	for i := 0; i < n; i++ {
		if packed[i/8]&(1<<(7-uint(i%8))) != 0 {
			g.Cells[i/cols][i%cols] = true
		}
	}
	return g, nil
}
