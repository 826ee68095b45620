package importer

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/piwi3910/SolarRack/internal/model"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"
)

// LayoutImport holds the configuration read from a roof plan.
type LayoutImport struct {
	Configuration model.Configuration
	Errors        []string
	Warnings      []string
}

// LayoutOptions controls how drawing units map to centimetres.
type LayoutOptions struct {
	// Scale converts one drawing unit to cm: 0.1 for mm drawings, 100 for m.
	// Zero means 1 (drawing already in cm).
	Scale float64
}

type point struct {
	X, Y float64
}

// segment is a LINE between two points, chained into closed outlines.
type segment struct {
	start point
	end   point
}

// rect is the axis-aligned bounding box of one module outline.
type rect struct {
	MinX, MinY, MaxX, MaxY float64
}

func (r rect) width() float64  { return r.MaxX - r.MinX }
func (r rect) height() float64 { return r.MaxY - r.MinY }
func (r rect) center() point   { return point{(r.MinX + r.MaxX) / 2, (r.MinY + r.MaxY) / 2} }

// ImportLayoutDXF reads a roof plan in which each module is drawn as a closed
// LWPOLYLINE (or four connected LINEs). Outlines are snapped to a grid whose
// pitch is taken from the module spacing; the first drawn row is the top.
func ImportLayoutDXF(path string, opts LayoutOptions) LayoutImport {
	result := LayoutImport{}

	drawing, err := dxf.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open DXF file: %v", err))
		return result
	}

	entities := drawing.Entities()
	if len(entities) == 0 {
		result.Errors = append(result.Errors, "DXF file contains no entities")
		return result
	}

	var rects []rect
	var segments []segment
	for _, ent := range entities {
		switch e := ent.(type) {
		case *entity.LwPolyline:
			if len(e.Vertices) < 3 {
				result.Warnings = append(result.Warnings, "Skipped LWPOLYLINE with fewer than 3 vertices")
				continue
			}
			rects = append(rects, boundsOf(lwPolylinePoints(e)))
		case *entity.Line:
			segments = append(segments, segment{
				start: point{X: e.Start[0], Y: e.Start[1]},
				end:   point{X: e.End[0], Y: e.End[1]},
			})
		default:
			// Hatches, text and dimensions carry no module positions.
		}
	}
	for _, outline := range chainSegments(segments, 0.01) {
		rects = append(rects, boundsOf(outline))
	}

	if len(rects) == 0 {
		result.Errors = append(result.Errors, "No closed module outlines found in DXF file")
		return result
	}

	cfg, warnings, err := layoutFromRects(rects, opts.Scale)
	result.Warnings = append(result.Warnings, warnings...)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	cfg.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	result.Configuration = cfg
	return result
}

func lwPolylinePoints(lw *entity.LwPolyline) []point {
	pts := make([]point, 0, len(lw.Vertices))
	for _, v := range lw.Vertices {
		if len(v) < 2 {
			continue
		}
		pts = append(pts, point{X: v[0], Y: v[1]})
	}
	return pts
}

func boundsOf(pts []point) rect {
	if len(pts) == 0 {
		return rect{}
	}
	r := rect{MinX: pts[0].X, MaxX: pts[0].X, MinY: pts[0].Y, MaxY: pts[0].Y}
	for _, p := range pts[1:] {
		r.MinX = math.Min(r.MinX, p.X)
		r.MaxX = math.Max(r.MaxX, p.X)
		r.MinY = math.Min(r.MinY, p.Y)
		r.MaxY = math.Max(r.MaxY, p.Y)
	}
	return r
}

// layoutFromRects snaps module bounding boxes onto an occupancy grid.
//
// The module size is the median outline size. The column pitch is the
// smallest distance between outline centres that is at least half a module
// wide, divided down when it spans several modules, falling back to the
// module width; rows work the same way. Missing modules leave unselected
// cells.
func layoutFromRects(rects []rect, scale float64) (model.Configuration, []string, error) {
	if scale == 0 {
		scale = 1
	}
	var warnings []string

	var usable []rect
	for _, r := range rects {
		if r.width() < 0.01 || r.height() < 0.01 {
			warnings = append(warnings, fmt.Sprintf("Skipped degenerate outline (%.2f x %.2f)", r.width(), r.height()))
			continue
		}
		usable = append(usable, r)
	}
	if len(usable) == 0 {
		return model.Configuration{}, warnings, fmt.Errorf("no usable module outlines: %w", model.ErrInvalidDimension)
	}

	widths := make([]float64, len(usable))
	heights := make([]float64, len(usable))
	xs := make([]float64, len(usable))
	ys := make([]float64, len(usable))
	for i, r := range usable {
		widths[i], heights[i] = r.width(), r.height()
		c := r.center()
		xs[i], ys[i] = c.X, c.Y
	}
	cellW, cellH := median(widths), median(heights)
	pitchX := pitch(xs, cellW)
	pitchY := pitch(ys, cellH)

	minX := minOf(xs)
	maxY := maxOf(ys)

	type pos struct{ row, col int }
	positions := make([]pos, len(usable))
	rows, cols := 0, 0
	for i := range usable {
		p := pos{
			col: int(math.Round((xs[i] - minX) / pitchX)),
			row: int(math.Round((maxY - ys[i]) / pitchY)),
		}
		positions[i] = p
		rows = max(rows, p.row+1)
		cols = max(cols, p.col+1)
	}

	if rows > model.MaxGridSide || cols > model.MaxGridSide {
		return model.Configuration{}, warnings, fmt.Errorf("outlines span %dx%d cells, at most %d per side: %w", rows, cols, model.MaxGridSide, model.ErrInvalidDimension)
	}

	grid := model.NewGrid(rows, cols)
	for _, p := range positions {
		if grid.At(p.col, p.row) {
			warnings = append(warnings, fmt.Sprintf("Overlapping outlines at row %d, column %d", p.row+1, p.col+1))
			continue
		}
		grid.Set(p.col, p.row, true)
	}

	dims := model.CellDimensions{
		Width:       math.Max(cellW, cellH) * scale,
		Height:      math.Min(cellW, cellH) * scale,
		Orientation: model.OrientationHorizontal,
	}
	if cellH > cellW {
		dims.Orientation = model.OrientationVertical
	}
	if err := dims.Validate(); err != nil {
		return model.Configuration{}, warnings, err
	}

	cfg := model.NewConfiguration("Imported layout", rows, cols, dims)
	cfg.Grid = grid
	return cfg, warnings, nil
}

func median(vs []float64) float64 {
	s := append([]float64(nil), vs...)
	sort.Float64s(s)
	return s[len(s)/2]
}

// pitch returns the smallest gap between sorted distinct coordinates that is
// at least half the module size, or size when every outline shares the axis.
func pitch(coords []float64, size float64) float64 {
	s := append([]float64(nil), coords...)
	sort.Float64s(s)
	best := 0.0
	for i := 1; i < len(s); i++ {
		d := s[i] - s[i-1]
		if d < size/2 {
			continue
		}
		if best == 0 || d < best {
			best = d
		}
	}
	if best == 0 {
		return size
	}
	// A fully empty column or row between two outlines doubles the gap.
	return best / math.Max(1, math.Round(best/size))
}

func minOf(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		m = math.Min(m, v)
	}
	return m
}

func maxOf(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		m = math.Max(m, v)
	}
	return m
}

// chainSegments connects individual segments into closed outlines.
// tolerance is the maximum distance between endpoints to consider them connected.
// Open chains are dropped.
func chainSegments(segs []segment, tolerance float64) [][]point {
	if len(segs) == 0 {
		return nil
	}

	used := make([]bool, len(segs))
	var outlines [][]point

	for {
		startIdx := -1
		for i, u := range used {
			if !u {
				startIdx = i
				break
			}
		}
		if startIdx == -1 {
			break
		}

		chain := []point{segs[startIdx].start, segs[startIdx].end}
		used[startIdx] = true

		changed := true
		for changed {
			changed = false
			tail := chain[len(chain)-1]

			for i, seg := range segs {
				if used[i] {
					continue
				}
				if pointsClose(tail, seg.start, tolerance) {
					chain = append(chain, seg.end)
					used[i] = true
					changed = true
					break
				}
				if pointsClose(tail, seg.end, tolerance) {
					chain = append(chain, seg.start)
					used[i] = true
					changed = true
					break
				}
			}
		}

		if len(chain) >= 4 && pointsClose(chain[0], chain[len(chain)-1], tolerance) {
			outlines = append(outlines, chain[:len(chain)-1])
		}
	}

	return outlines
}

func pointsClose(a, b point, tolerance float64) bool {
	return math.Hypot(a.X-b.X, a.Y-b.Y) <= tolerance
}
