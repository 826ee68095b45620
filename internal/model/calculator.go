package model

import "math"

// CostLine holds the pricing of one part of a bill of materials.
type CostLine struct {
	Part         PartName `json:"part"`
	Label        string   `json:"label"`
	Quantity     int      `json:"quantity"`       // Items required
	UnitsPerPack int      `json:"units_per_pack"` // 1 for parts missing from the catalog
	Packs        int      `json:"packs"`          // Ceiling of quantity / units per pack
	PricePerPack float64  `json:"price_per_pack"`
	LineTotal    float64  `json:"line_total"`
	Unknown      bool     `json:"unknown,omitempty"` // Part has no catalog entry and is priced at zero
}

// CostResult holds the priced bill of materials.
type CostResult struct {
	TotalCost  float64    `json:"total_cost"`
	TotalPacks int        `json:"total_packs"`
	Lines      []CostLine `json:"lines"`
}

// Line returns the cost line for a part and whether it was priced.
func (r CostResult) Line(p PartName) (CostLine, bool) {
	for _, l := range r.Lines {
		if l.Part == p {
			return l, true
		}
	}
	return CostLine{}, false
}

// CalculateCost prices a bill of materials against a pack catalog.
// Every part with a positive quantity is rounded up to whole packs.
// Parts without a catalog entry are counted one item per pack at zero cost
// instead of failing the calculation.
func CalculateCost(parts PartsBundle, catalog PackCatalog) CostResult {
	result := CostResult{Lines: []CostLine{}}

	var total float64
	for _, p := range parts.Names() {
		qty := parts[p]
		if qty <= 0 {
			continue
		}

		entry, ok := catalog.Lookup(p)
		if !ok {
			entry = PackEntry{UnitsPerPack: 1}
		}
		units := entry.UnitsPerPack
		if units < 1 {
			units = 1
		}

		packs := (qty + units - 1) / units
		lineTotal := roundCents(float64(packs) * entry.PricePerPack)

		result.Lines = append(result.Lines, CostLine{
			Part:         p,
			Label:        p.Label(),
			Quantity:     qty,
			UnitsPerPack: units,
			Packs:        packs,
			PricePerPack: entry.PricePerPack,
			LineTotal:    lineTotal,
			Unknown:      !ok,
		})
		result.TotalPacks += packs
		total += lineTotal
	}

	result.TotalCost = roundCents(total)
	return result
}

// BatchCostResult aggregates several priced configurations.
type BatchCostResult struct {
	TotalCost  float64      `json:"total_cost"`
	TotalPacks int          `json:"total_packs"`
	Items      []CostResult `json:"items"`
}

// CalculateBatchCost sums independently priced results.
func CalculateBatchCost(results []CostResult) BatchCostResult {
	batch := BatchCostResult{Items: results}
	if batch.Items == nil {
		batch.Items = []CostResult{}
	}
	var total float64
	for _, r := range results {
		total += r.TotalCost
		batch.TotalPacks += r.TotalPacks
	}
	batch.TotalCost = roundCents(total)
	return batch
}

// roundCents rounds a currency amount to two decimal places.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
