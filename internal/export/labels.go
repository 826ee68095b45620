package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// PickLabel is the data encoded into each warehouse pick label's QR code.
type PickLabel struct {
	Part          string `json:"part"`
	Description   string `json:"description"`
	Packs         int    `json:"packs"`
	UnitsPerPack  int    `json:"units_per_pack"`
	Configuration string `json:"configuration"`
	GridCode      string `json:"grid"`
}

// avery5160 is a US Letter sheet of 30 labels, 3 across and 10 down.
var avery5160 = labelSheet{
	top: 12.7, left: 4.8,
	w: 66.7, h: 25.4,
	cols: 3, rows: 10,
	qr: 20, pad: 2,
}

// labelSheet describes a label stock in millimetres.
type labelSheet struct {
	top, left  float64
	w, h       float64
	cols, rows int
	qr, pad    float64
}

func (s labelSheet) perPage() int { return s.cols * s.rows }

// origin returns the top-left corner of the n-th label on its page.
func (s labelSheet) origin(n int) (float64, float64) {
	n %= s.perPage()
	return s.left + float64(n%s.cols)*s.w, s.top + float64(n/s.cols)*s.h
}

// CollectPickLabels returns one label per priced part, skipping parts that
// are not in the catalog since the warehouse does not stock them.
func CollectPickLabels(q Quote) []PickLabel {
	var labels []PickLabel
	for _, l := range q.Cost.Lines {
		if l.Unknown || l.Packs == 0 {
			continue
		}
		labels = append(labels, PickLabel{
			Part:          string(l.Part),
			Description:   l.Label,
			Packs:         l.Packs,
			UnitsPerPack:  l.UnitsPerPack,
			Configuration: q.title(),
			GridCode:      q.Configuration.Grid.Code(),
		})
	}
	return labels
}

// ExportPickLabels writes the pick label sheet to path.
func ExportPickLabels(path string, q Quote) error {
	return writeFile(path, func(f *os.File) error { return WritePickLabels(f, q) })
}

// WritePickLabels renders QR-coded pick labels for every stocked part of a
// quote on Avery 5160 sheets.
func WritePickLabels(w io.Writer, q Quote) error {
	labels := CollectPickLabels(q)
	if len(labels) == 0 {
		return fmt.Errorf("pick labels: %w", ErrNothingToExport)
	}

	sheet := avery5160
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for i, label := range labels {
		if i%sheet.perPage() == 0 {
			pdf.AddPage()
		}
		x, y := sheet.origin(i)
		if err := drawLabel(pdf, tr, sheet, x, y, i, label); err != nil {
			return fmt.Errorf("pick label %s: %w", label.Part, err)
		}
	}
	return pdf.Output(w)
}

func drawLabel(pdf *fpdf.Fpdf, tr func(string) string, sheet labelSheet, x, y float64, idx int, l PickLabel) error {
	payload, err := json.Marshal(l)
	if err != nil {
		return err
	}
	png, err := qrcode.Encode(string(payload), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("qr code: %w", err)
	}

	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, sheet.w, sheet.h, "D")

	img := fmt.Sprintf("pick_%d", idx)
	pngOpts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(img, pngOpts, bytes.NewReader(png))
	pdf.ImageOptions(img, x+sheet.w-sheet.qr-sheet.pad, y+(sheet.h-sheet.qr)/2, sheet.qr, sheet.qr, false, pngOpts, 0, "")

	textW := sheet.w - sheet.qr - 3*sheet.pad
	lines := []struct {
		style  string
		size   float64
		grey   int
		height float64
		text   string
	}{
		{"B", 9, 0, 4.5, l.Part},
		{"", 7, 0, 3.5, fmt.Sprintf("%d x %d pcs", l.Packs, l.UnitsPerPack)},
		{"", 7, 0, 3.5, tr(l.Description)},
		{"", 6, 100, 3, tr(l.Configuration)},
	}
	pdf.SetXY(x+sheet.pad, y+sheet.pad)
	for _, ln := range lines {
		pdf.SetFont("Helvetica", ln.style, ln.size)
		pdf.SetTextColor(ln.grey, ln.grey, ln.grey)
		pdf.SetX(x + sheet.pad)
		pdf.CellFormat(textW, ln.height, truncate(pdf, ln.text, textW), "", 1, "L", false, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)
	return nil
}

// truncate cuts s down, with a trailing "...", until it fits width in the
// current font.
func truncate(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
