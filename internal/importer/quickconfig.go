package importer

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/piwi3910/SolarRack/internal/model"
)

// MaxQuickGridSide bounds either side of a grid typed as a sentence.
const MaxQuickGridSide = 100

// ErrNoGridSize is returned when a quick-config sentence names no grid size.
var ErrNoGridSize = errors.New("no grid size such as 5x3 found")

var (
	// "179x113cm" or "179 x 113 cm": module dimensions.
	moduleSizeRe = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*[×x*]\s*(\d+(?:[.,]\d+)?)\s*cm\b`)
	// "5x3", "5 × 3", "5 mal 3": columns by rows.
	gridSizeRe = regexp.MustCompile(`(\d+)\s*(?:[×x*]|mal|by)\s*(\d+)`)
)

var quickKeywords = []struct {
	words []string
	apply func(*model.Configuration)
}{
	{[]string{"vertikal", "vertical", "hochkant", "portrait"}, func(c *model.Configuration) {
		c.Dimensions.Orientation = model.OrientationVertical
	}},
	{[]string{"horizontal", "quer", "landscape"}, func(c *model.Configuration) {
		c.Dimensions.Orientation = model.OrientationHorizontal
	}},
	{[]string{"kabel", "cable"}, func(c *model.Configuration) { c.Options.SolarCable = true }},
	{[]string{"mc4", "stecker", "connector"}, func(c *model.Configuration) { c.Options.MC4Connectors = true }},
	{[]string{"holz", "wood", "unterlage", "underlay"}, func(c *model.Configuration) { c.Options.WoodUnderlay = true }},
	{[]string{"ohne module", "ohne modul", "without modules", "no modules", "own modules"}, func(c *model.Configuration) {
		c.Options.ExcludeModules = true
	}},
	{[]string{"zubehör", "zubehoer", "accessories"}, func(c *model.Configuration) {
		c.Options.MC4Connectors = true
		c.Options.SolarCable = true
		c.Options.WoodUnderlay = true
	}},
}

// ParseQuickConfig turns a short sentence like "5x3 vertikal mit Kabel" into
// a fully selected configuration of 5 columns by 3 rows. Module dimensions
// default to dims unless the sentence names them ("180x110cm").
func ParseQuickConfig(sentence string, dims model.CellDimensions) (model.Configuration, error) {
	text := strings.ToLower(strings.TrimSpace(sentence))

	if m := moduleSizeRe.FindStringSubmatchIndex(text); m != nil {
		w, errW := parseDecimal(text[m[2]:m[3]])
		h, errH := parseDecimal(text[m[4]:m[5]])
		if errW != nil || errH != nil {
			return model.Configuration{}, fmt.Errorf("module size %q: %w", text[m[0]:m[1]], model.ErrInvalidDimension)
		}
		dims.Width, dims.Height = max(w, h), min(w, h)
		text = text[:m[0]] + " " + text[m[1]:]
	}

	m := gridSizeRe.FindStringSubmatch(text)
	if m == nil {
		return model.Configuration{}, ErrNoGridSize
	}
	cols, _ := strconv.Atoi(m[1])
	rows, _ := strconv.Atoi(m[2])
	if cols < 1 || rows < 1 || cols > MaxQuickGridSide || rows > MaxQuickGridSide {
		return model.Configuration{}, fmt.Errorf("grid %dx%d outside 1..%d: %w", cols, rows, MaxQuickGridSide, model.ErrInvalidDimension)
	}

	cfg := model.NewConfiguration(fmt.Sprintf("Quick %dx%d", cols, rows), rows, cols, dims)
	cfg.Grid.Fill(0, 0, cols, rows)
	for _, kw := range quickKeywords {
		for _, w := range kw.words {
			if strings.Contains(text, w) {
				kw.apply(&cfg)
				break
			}
		}
	}
	if err := cfg.Dimensions.Validate(); err != nil {
		return model.Configuration{}, err
	}
	return cfg, nil
}

func parseDecimal(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
}
