// Package engine derives the mounting hardware for a roof layout: rails and
// their fittings per row run, grounding straps across rows, and accessories.
package engine

import (
	"math"

	"github.com/piwi3910/SolarRack/internal/model"
)

// Standard rail lengths in cm.
const (
	RailLong  = 360.0
	RailShort = 240.0
)

// lengthEpsilon absorbs floating point noise when a run is an exact multiple
// of a rail length (e.g. 3 * 120.0).
const lengthEpsilon = 1e-9

// RailVariant is one candidate way of covering a run with rails.
type RailVariant struct {
	Name     string `json:"name"`
	Count360 int    `json:"count_360"`
	Count240 int    `json:"count_240"`
}

// TotalRails returns the number of rail segments per side.
func (v RailVariant) TotalRails() int {
	return v.Count360 + v.Count240
}

// CoveredLength returns the rail length per side in cm.
func (v RailVariant) CoveredLength() float64 {
	return float64(v.Count360)*RailLong + float64(v.Count240)*RailShort
}

// WasteLength returns the rail length left over after covering runLength.
func (v RailVariant) WasteLength(runLength float64) float64 {
	return v.CoveredLength() - runLength
}

// RailCandidates returns the three candidate mixes in their fixed
// tie-break order: mixed, pure 360, pure 240.
func RailCandidates(runLength float64) []RailVariant {
	count360 := int(math.Floor(runLength/RailLong + lengthEpsilon))
	rem := runLength - float64(count360)*RailLong

	return []RailVariant{
		{Name: "mixed", Count360: count360, Count240: ceilDiv(rem, RailShort)},
		{Name: "pure-360", Count360: ceilDiv(runLength, RailLong)},
		{Name: "pure-240", Count240: ceilDiv(runLength, RailShort)},
	}
}

// SelectRailVariant picks the candidate with the fewest rails, then the least
// waste. Remaining ties go to the earliest candidate.
func SelectRailVariant(runLength float64) RailVariant {
	candidates := RailCandidates(runLength)
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.TotalRails() < best.TotalRails() {
			best = c
			continue
		}
		if c.TotalRails() == best.TotalRails() && c.WasteLength(runLength) < best.WasteLength(runLength)-lengthEpsilon {
			best = c
		}
	}
	return best
}

// ceilDiv returns ceil(length/unit), treating values within lengthEpsilon of
// an integer as that integer. Non-positive lengths need no rails.
func ceilDiv(length, unit float64) int {
	if length <= lengthEpsilon {
		return 0
	}
	return int(math.Ceil(length/unit - lengthEpsilon))
}

// RunPlan records how one run of modules was covered.
type RunPlan struct {
	Row       int         `json:"row"`
	Start     int         `json:"start"`   // Column of the first module
	Modules   int         `json:"modules"` // Number of modules in the run
	Length    float64     `json:"length"`  // cm
	Variant   RailVariant `json:"variant"`
	WasteCm   float64     `json:"waste_cm"`
	RoofHooks int         `json:"roof_hooks"`
}

// Run is a maximal sequence of selected cells within a row.
type Run struct {
	Start  int
	Length int
}

// FindRuns returns the maximal runs of true values in a row.
func FindRuns(row []bool) []Run {
	var runs []Run
	start := -1
	for x, selected := range row {
		switch {
		case selected && start < 0:
			start = x
		case !selected && start >= 0:
			runs = append(runs, Run{Start: start, Length: x - start})
			start = -1
		}
	}
	if start >= 0 {
		runs = append(runs, Run{Start: start, Length: len(row) - start})
	}
	return runs
}

// PartitionRow derives the rail and fitting counts for every run in one row.
// A nil row contributes nothing.
func PartitionRow(row []bool, cellLengthCm float64) model.PartsBundle {
	parts := make(model.PartsBundle)
	for _, run := range FindRuns(row) {
		addRun(parts, run.Length, cellLengthCm)
	}
	return parts
}

// PartitionGrid sums PartitionRow over every row of the grid.
// The result holds every base part except the grounding strap, zeros included.
func PartitionGrid(grid model.OccupancyGrid, cellLengthCm float64) model.PartsBundle {
	parts, _ := partitionGridPlan(grid, cellLengthCm)
	return parts
}

func partitionGridPlan(grid model.OccupancyGrid, cellLengthCm float64) (model.PartsBundle, []RunPlan) {
	parts := model.NewPartsBundle()
	delete(parts, model.PartGroundingStrap)

	var plans []RunPlan
	for y := 0; y < grid.Rows; y++ {
		row := grid.Row(y)
		if row == nil {
			continue
		}
		for _, run := range FindRuns(row) {
			plan := addRun(parts, run.Length, cellLengthCm)
			plan.Row = y
			plan.Start = run.Start
			plans = append(plans, plan)
		}
	}
	return parts, plans
}

// addRun adds the hardware for a single run of n modules.
func addRun(parts model.PartsBundle, n int, cellLengthCm float64) RunPlan {
	length := float64(n) * cellLengthCm
	v := SelectRailVariant(length)

	connectors := (v.TotalRails() - 1) * 4
	if connectors < 0 {
		connectors = 0
	}

	middleClamps := 0
	hooks := 4
	if n > 1 {
		middleClamps = (n - 1) * 2
		hooks = n * 3
	}

	// Two rails per segment, one on each side of the run.
	parts.Add(model.PartRail360, v.Count360*2)
	parts.Add(model.PartRail240, v.Count240*2)
	parts.Add(model.PartRailConnector, connectors)
	parts.Add(model.PartEndClamp, 4)
	parts.Add(model.PartMiddleClamp, middleClamps)
	parts.Add(model.PartRoofHook, hooks)
	parts.Add(model.PartEndCap, 4)
	parts.Add(model.PartModule, n)
	parts.Add(model.PartScrew, hooks)
	parts.Add(model.PartPanHeadScrew, hooks*2)

	return RunPlan{
		Modules:   n,
		Length:    length,
		Variant:   v,
		WasteCm:   v.WasteLength(length),
		RoofHooks: hooks,
	}
}
