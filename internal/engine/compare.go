package engine

import (
	"fmt"

	"github.com/piwi3910/SolarRack/internal/model"
)

// ComparisonScenario defines a named configuration variant to compare.
type ComparisonScenario struct {
	Name          string
	Configuration model.Configuration
}

// ComparisonResult holds the calculation and cost for a single scenario.
type ComparisonResult struct {
	Scenario   ComparisonScenario
	Breakdown  Breakdown
	Cost       model.CostResult
	RailPieces int
	WasteCm    float64
	Err        error
}

// CompareScenarios calculates and prices each scenario, preserving scenario
// order. A scenario with invalid dimensions carries its error instead of
// aborting the comparison.
func CompareScenarios(scenarios []ComparisonScenario, catalog model.PackCatalog) []ComparisonResult {
	results := make([]ComparisonResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		res := ComparisonResult{Scenario: scenario}

		b, err := CalculateDetailed(scenario.Configuration)
		if err != nil {
			res.Err = err
			results = append(results, res)
			continue
		}

		res.Breakdown = b
		res.Cost = model.CalculateCost(b.Parts, catalog)
		res.RailPieces = b.Parts.Get(model.PartRail240) + b.Parts.Get(model.PartRail360)
		res.WasteCm = b.TotalWasteCm()
		results = append(results, res)
	}

	return results
}

// BuildDefaultScenarios generates what-if variants of a configuration:
// the current settings, the rotated panel orientation, and the layout with
// or without the optional accessories.
func BuildDefaultScenarios(base model.Configuration) []ComparisonScenario {
	scenarios := []ComparisonScenario{
		{
			Name:          "Current Settings",
			Configuration: base,
		},
	}

	rotated := base.Clone()
	rotated.Dimensions.Orientation = base.Dimensions.Orientation.Rotated()
	scenarios = append(scenarios, ComparisonScenario{
		Name:          fmt.Sprintf("%s Panels", rotated.Dimensions.Orientation),
		Configuration: rotated,
	})

	if base.Options.Any() {
		bare := base.Clone()
		bare.Options = model.AccessoryOptions{ExcludeModules: base.Options.ExcludeModules}
		scenarios = append(scenarios, ComparisonScenario{
			Name:          "Without Accessories",
			Configuration: bare,
		})
	} else {
		full := base.Clone()
		full.Options.MC4Connectors = true
		full.Options.SolarCable = true
		full.Options.WoodUnderlay = true
		scenarios = append(scenarios, ComparisonScenario{
			Name:          "All Accessories",
			Configuration: full,
		})
	}

	return scenarios
}
