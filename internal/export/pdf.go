package export

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-pdf/fpdf"
	"github.com/piwi3910/SolarRack/internal/model"
	qrcode "github.com/skip2/go-qrcode"
)

// rgb is a fill or stroke colour.
type rgb struct {
	R, G, B int
}

var (
	moduleColor = rgb{33, 150, 243}
	emptyColor  = rgb{238, 238, 238}
	railColor   = rgb{60, 60, 60}
	strapColor  = rgb{244, 67, 54}
)

// Page layout constants (A4 portrait in mm).
const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 10.0
	sketchHeight = 95.0
	qrSize       = 28.0
	contentWidth = pageWidth - marginLeft - marginRight
)

// ExportQuotePDF writes the quote PDF to path.
func ExportQuotePDF(path string, q Quote) error {
	return writeFile(path, func(f *os.File) error { return WriteQuotePDF(f, q) })
}

// WriteQuotePDF renders a one-page quote: header with QR share code, layout
// sketch with rails and grounding straps, parts table and totals.
func WriteQuotePDF(w io.Writer, q Quote) error {
	if q.Breakdown.SelectedCells == 0 {
		return ErrNothingToExport
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)
	pdf.SetTitle(q.title(), true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	if err := renderHeader(pdf, tr, q); err != nil {
		return err
	}
	y := marginTop + headerHeight + 22
	y = renderLayoutSketch(pdf, tr, q, y)
	y = renderPartsTable(pdf, tr, q.Cost, y+6)
	renderTotals(pdf, tr, q.Cost, y+2)

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(contentWidth, 4, "Generated by SolarRack - mounting system calculator", "", 0, "C", false, 0, "")

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render quote: %w", err)
	}
	return pdf.Output(w)
}

func renderHeader(pdf *fpdf.Fpdf, tr func(string) string, q Quote) error {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(contentWidth-qrSize-5, headerHeight, tr("Quote: "+q.title()), "", 0, "L", false, 0, "")

	dims := q.Configuration.Dimensions
	grid := q.Configuration.Grid
	lines := []string{
		fmt.Sprintf("Date: %s", q.GeneratedAt.Format("2006-01-02")),
		fmt.Sprintf("Grid: %d rows x %d columns, %d modules", grid.Rows, grid.Cols, q.Breakdown.SelectedCells),
		fmt.Sprintf("Module: %.0f x %.0f cm, %s", dims.Width, dims.Height, dims.Orientation),
		fmt.Sprintf("Share code: %s", grid.Code()),
	}
	pdf.SetFont("Helvetica", "", 9)
	for i, line := range lines {
		pdf.SetXY(marginLeft, marginTop+headerHeight+float64(i)*5)
		pdf.CellFormat(contentWidth-qrSize-5, 5, tr(line), "", 0, "L", false, 0, "")
	}

	png, err := qrcode.Encode(q.ShareCode(), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}
	pdf.RegisterImageOptionsReader("share_qr", fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
	pdf.ImageOptions("share_qr", pageWidth-marginRight-qrSize, marginTop, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	return nil
}

// renderLayoutSketch draws the grid to scale and returns the y below it.
func renderLayoutSketch(pdf *fpdf.Fpdf, tr func(string) string, q Quote, top float64) float64 {
	grid := q.Configuration.Grid
	dims := q.Configuration.Dimensions
	cellW, cellH := dims.AlongRow(), dims.AlongColumn()
	worldW := float64(grid.Cols) * cellW
	worldH := float64(grid.Rows) * cellH

	scale := math.Min(contentWidth/worldW, sketchHeight/worldH)
	canvasW, canvasH := worldW*scale, worldH*scale
	offsetX := marginLeft + (contentWidth-canvasW)/2
	offsetY := top

	pdf.SetLineWidth(0.2)
	for y := 0; y < grid.Rows; y++ {
		for x := 0; x < grid.Cols; x++ {
			c := emptyColor
			if grid.At(x, y) {
				c = moduleColor
			}
			pdf.SetFillColor(c.R, c.G, c.B)
			pdf.SetDrawColor(150, 150, 150)
			pdf.Rect(offsetX+float64(x)*cellW*scale, offsetY+float64(y)*cellH*scale, cellW*scale, cellH*scale, "FD")
		}
	}

	// Two rails per run, at a quarter and three quarters of the cell height.
	pdf.SetDrawColor(railColor.R, railColor.G, railColor.B)
	pdf.SetLineWidth(0.6)
	for _, run := range q.Breakdown.Runs {
		x1 := offsetX + float64(run.Start)*cellW*scale
		x2 := x1 + float64(run.Modules)*cellW*scale
		for _, f := range []float64{0.25, 0.75} {
			ry := offsetY + (float64(run.Row)+f)*cellH*scale
			pdf.Line(x1, ry, x2, ry)
		}
	}

	// Strap segments bridge the upper cell of each pair to the one below.
	pdf.SetDrawColor(strapColor.R, strapColor.G, strapColor.B)
	pdf.SetLineWidth(0.8)
	for _, a := range q.Breakdown.Strap.Assignments {
		sx := offsetX + (float64(a.X)+0.5)*cellW*scale
		sy := offsetY + (float64(a.Y)+1)*cellH*scale
		pdf.Line(sx, sy-cellH*scale*0.25, sx, sy+cellH*scale*0.25)
	}

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)
	widthLabel := fmt.Sprintf("%.0f cm", worldW)
	lw := pdf.GetStringWidth(widthLabel)
	pdf.SetXY(offsetX+(canvasW-lw)/2, offsetY+canvasH+1)
	pdf.CellFormat(lw, 4, widthLabel, "", 0, "C", false, 0, "")

	legend := fmt.Sprintf("Rail waste %.0f cm per side | Grounding strap %.0f cm", q.Breakdown.TotalWasteCm(), q.Breakdown.Strap.TotalLengthCm)
	pdf.SetXY(marginLeft, offsetY+canvasH+6)
	pdf.CellFormat(contentWidth, 4, tr(legend), "", 0, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	return offsetY + canvasH + 10
}

// renderPartsTable draws one row per priced part and returns the y below it.
func renderPartsTable(pdf *fpdf.Fpdf, tr func(string) string, cost model.CostResult, y float64) float64 {
	colWidths := []float64{45, 35, 15, 20, 15, 25, 25}
	headers := []string{"Article", "Description", "Qty", "Units/pack", "Packs", "Price/pack", "Total"}
	aligns := []string{"L", "L", "R", "R", "R", "R", "R"}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.SetDrawColor(120, 120, 120)
	pdf.SetLineWidth(0.2)
	x := marginLeft
	for i, h := range headers {
		pdf.SetXY(x, y)
		pdf.CellFormat(colWidths[i], 6, h, "1", 0, "C", true, 0, "")
		x += colWidths[i]
	}
	y += 6

	pdf.SetFont("Helvetica", "", 9)
	for i, line := range cost.Lines {
		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		label := line.Label
		if line.Unknown {
			label += " *"
		}
		cells := []string{
			string(line.Part),
			label,
			fmt.Sprintf("%d", line.Quantity),
			fmt.Sprintf("%d", line.UnitsPerPack),
			fmt.Sprintf("%d", line.Packs),
			formatEuro(line.PricePerPack),
			formatEuro(line.LineTotal),
		}
		x = marginLeft
		for j, c := range cells {
			pdf.SetXY(x, y)
			pdf.CellFormat(colWidths[j], 6, tr(c), "1", 0, aligns[j], true, 0, "")
			x += colWidths[j]
		}
		y += 6
	}
	return y
}

func renderTotals(pdf *fpdf.Fpdf, tr func(string) string, cost model.CostResult, y float64) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(contentWidth-25, 7, fmt.Sprintf("Total (%d packs)", cost.TotalPacks), "", 0, "R", false, 0, "")
	pdf.CellFormat(25, 7, tr(formatEuro(cost.TotalCost)), "", 0, "R", false, 0, "")

	for _, l := range cost.Lines {
		if l.Unknown {
			pdf.SetFont("Helvetica", "I", 8)
			pdf.SetXY(marginLeft, y+8)
			pdf.CellFormat(contentWidth, 4, "* not in catalog, priced at zero", "", 0, "L", false, 0, "")
			return
		}
	}
}

func formatEuro(v float64) string {
	return fmt.Sprintf("%.2f €", v)
}
