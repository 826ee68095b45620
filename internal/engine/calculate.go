package engine

import (
	"fmt"

	"github.com/piwi3910/SolarRack/internal/model"
)

// Breakdown holds a full calculation together with the intermediate plans
// that produced it.
type Breakdown struct {
	Parts         model.PartsBundle `json:"parts"`
	Runs          []RunPlan         `json:"runs"`
	Strap         StrapTrace        `json:"strap"`
	SelectedCells int               `json:"selected_cells"`
}

// TotalWasteCm returns the rail waste summed over all runs, per side.
func (b Breakdown) TotalWasteCm() float64 {
	var total float64
	for _, r := range b.Runs {
		total += r.WasteCm
	}
	return total
}

// Calculate derives the complete bill of materials for a configuration.
// It returns model.ErrInvalidDimension when the cell dimensions are unusable
// or the grid is larger than model.MaxGridSide.
func Calculate(cfg model.Configuration) (model.PartsBundle, error) {
	b, err := CalculateDetailed(cfg)
	if err != nil {
		return nil, err
	}
	return b.Parts, nil
}

// CalculateDetailed is Calculate plus the per-run rail plans and strap trace.
func CalculateDetailed(cfg model.Configuration) (Breakdown, error) {
	if err := cfg.Dimensions.Validate(); err != nil {
		return Breakdown{}, fmt.Errorf("calculate %q: %w", cfg.Name, err)
	}
	if err := cfg.Grid.Validate(); err != nil {
		return Breakdown{}, fmt.Errorf("calculate %q: %w", cfg.Name, err)
	}

	grid := cfg.Grid
	grid.Normalize()

	parts, runs := partitionGridPlan(grid, cfg.Dimensions.AlongRow())
	strap := TraceGroundingStrap(grid, grid.Rows, grid.Cols, cfg.Dimensions.AlongColumn())
	parts[model.PartGroundingStrap] = strap.Packs

	selected := grid.SelectedCount()
	parts = ApplyAccessories(parts, cfg.Options, selected)

	if runs == nil {
		runs = []RunPlan{}
	}
	return Breakdown{
		Parts:         parts,
		Runs:          runs,
		Strap:         strap,
		SelectedCells: selected,
	}, nil
}
