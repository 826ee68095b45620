package export

import (
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"
)

const (
	bomSheet  = "BOM"
	runsSheet = "Rails"
)

// ExportBOMXLSX writes the bill of materials workbook to path.
func ExportBOMXLSX(path string, q Quote) error {
	return writeFile(path, func(f *os.File) error { return WriteBOMXLSX(f, q) })
}

// WriteBOMXLSX writes a workbook with the priced parts on the first sheet and
// the rail plan of every run on the second. Line totals and the grand total
// are live formulas so the customer can adjust prices.
func WriteBOMXLSX(w io.Writer, q Quote) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), bomSheet); err != nil {
		return fmt.Errorf("bom sheet: %w", err)
	}
	if err := writeBOMSheet(f, q); err != nil {
		return err
	}
	if _, err := f.NewSheet(runsSheet); err != nil {
		return fmt.Errorf("rails sheet: %w", err)
	}
	if err := writeRunsSheet(f, q); err != nil {
		return err
	}
	f.SetActiveSheet(0)

	return f.Write(w)
}

func writeBOMSheet(f *excelize.File, q Quote) error {
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"E6E6E6"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	euroFmt := `#,##0.00 "€"`
	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: &euroFmt})
	if err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, CustomNumFmt: &euroFmt})
	if err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Configuration", q.title()},
		{"Share code", q.Configuration.Grid.Code()},
		{"Modules", q.Breakdown.SelectedCells},
		{},
		{"Article", "Description", "Quantity", "Units per pack", "Packs", "Price per pack", "Total"},
	}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(bomSheet, cell, &row); err != nil {
			return err
		}
	}
	headerRow := len(rows)
	if err := f.SetCellStyle(bomSheet, fmt.Sprintf("A%d", headerRow), fmt.Sprintf("G%d", headerRow), header); err != nil {
		return err
	}

	first := headerRow + 1
	for i, l := range q.Cost.Lines {
		r := first + i
		desc := l.Label
		if l.Unknown {
			desc += " (not in catalog)"
		}
		row := []interface{}{string(l.Part), desc, l.Quantity, l.UnitsPerPack, l.Packs, l.PricePerPack}
		if err := f.SetSheetRow(bomSheet, fmt.Sprintf("A%d", r), &row); err != nil {
			return err
		}
		if err := f.SetCellFormula(bomSheet, fmt.Sprintf("G%d", r), fmt.Sprintf("E%d*F%d", r, r)); err != nil {
			return err
		}
	}
	last := first + len(q.Cost.Lines) - 1
	if len(q.Cost.Lines) > 0 {
		if err := f.SetCellStyle(bomSheet, fmt.Sprintf("F%d", first), fmt.Sprintf("G%d", last), money); err != nil {
			return err
		}
	}

	totalRow := last + 2
	if err := f.SetCellValue(bomSheet, fmt.Sprintf("D%d", totalRow), "Total"); err != nil {
		return err
	}
	if err := f.SetCellValue(bomSheet, fmt.Sprintf("E%d", totalRow), q.Cost.TotalPacks); err != nil {
		return err
	}
	if len(q.Cost.Lines) > 0 {
		if err := f.SetCellFormula(bomSheet, fmt.Sprintf("G%d", totalRow), fmt.Sprintf("SUM(G%d:G%d)", first, last)); err != nil {
			return err
		}
	} else if err := f.SetCellValue(bomSheet, fmt.Sprintf("G%d", totalRow), 0); err != nil {
		return err
	}
	if err := f.SetCellStyle(bomSheet, fmt.Sprintf("G%d", totalRow), fmt.Sprintf("G%d", totalRow), bold); err != nil {
		return err
	}

	widths := map[string]float64{"A": 22, "B": 24, "C": 10, "D": 15, "E": 8, "F": 15, "G": 14}
	for col, width := range widths {
		if err := f.SetColWidth(bomSheet, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

func writeRunsSheet(f *excelize.File, q Quote) error {
	header := []interface{}{"Row", "First column", "Modules", "Length (cm)", "Variant", "Rails 360", "Rails 240", "Waste (cm)", "Roof hooks"}
	if err := f.SetSheetRow(runsSheet, "A1", &header); err != nil {
		return err
	}
	for i, run := range q.Breakdown.Runs {
		row := []interface{}{
			run.Row + 1, run.Start + 1, run.Modules, run.Length,
			run.Variant.Name, run.Variant.Count360, run.Variant.Count240,
			run.WasteCm, run.RoofHooks,
		}
		if err := f.SetSheetRow(runsSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
	}
	return f.SetColWidth(runsSheet, "A", "I", 13)
}
