package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/piwi3910/SolarRack/internal/engine"
	"github.com/piwi3910/SolarRack/internal/export"
	"github.com/piwi3910/SolarRack/internal/model"
)

func printQuote(w io.Writer, q export.Quote) error {
	cfg := q.Configuration
	fmt.Fprintf(w, "%s (%d rows x %d columns, %d modules, %s)\n",
		cfg.Name, cfg.Grid.Rows, cfg.Grid.Cols, q.Breakdown.SelectedCells, cfg.Dimensions.Orientation)
	fmt.Fprintf(w, "Share code: %s\n\n", cfg.Grid.Code())
	fmt.Fprintln(w, cfg.Grid.String())
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Article\tQty\tPack\tPacks\tPrice/pack\tTotal\t")
	for _, l := range q.Cost.Lines {
		name := string(l.Part)
		if l.Unknown {
			name += " *"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.2f\t%.2f\t\n", name, l.Quantity, l.UnitsPerPack, l.Packs, l.PricePerPack, l.LineTotal)
	}
	fmt.Fprintf(tw, "Total\t\t\t%d\t\t%.2f\t\n", q.Cost.TotalPacks, q.Cost.TotalCost)
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nRail waste %.0f cm per side, grounding strap %.0f cm\n",
		q.Breakdown.TotalWasteCm(), q.Breakdown.Strap.TotalLengthCm)
	return nil
}

func printComparison(w io.Writer, results []engine.ComparisonResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Scenario\tPacks\tCost\tRails\tWaste (cm)")
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t%v\n", r.Scenario.Name, r.Err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%d\t%.0f\n", r.Scenario.Name, r.Cost.TotalPacks, r.Cost.TotalCost, r.RailPieces, r.WasteCm)
	}
	return tw.Flush()
}

type jsonQuote struct {
	Name      string           `json:"name"`
	GridCode  string           `json:"grid_code"`
	Breakdown engine.Breakdown `json:"breakdown"`
	Cost      model.CostResult `json:"cost"`
}

func printJSON(w io.Writer, q export.Quote) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonQuote{
		Name:      q.Configuration.Name,
		GridCode:  q.Configuration.Grid.Code(),
		Breakdown: q.Breakdown,
		Cost:      q.Cost,
	})
}
