// Package export renders calculated configurations as customer documents:
// a PDF quote, warehouse pick labels, a BOM workbook and a scenario
// comparison chart.
package export

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/piwi3910/SolarRack/internal/engine"
	"github.com/piwi3910/SolarRack/internal/model"
)

// ErrNothingToExport is returned for a configuration without modules.
var ErrNothingToExport = errors.New("configuration has no selected modules")

// Quote is everything a document needs about one priced configuration.
type Quote struct {
	Configuration model.Configuration
	Breakdown     engine.Breakdown
	Cost          model.CostResult
	GeneratedAt   time.Time

	// ShareURL, when set, is prefixed to the grid code in the QR code so a
	// phone opens the configurator directly. Otherwise the code alone is used.
	ShareURL string
}

// NewQuote calculates and prices a configuration.
func NewQuote(cfg model.Configuration, catalog model.PackCatalog) (Quote, error) {
	b, err := engine.CalculateDetailed(cfg)
	if err != nil {
		return Quote{}, err
	}
	if b.SelectedCells == 0 {
		return Quote{}, fmt.Errorf("quote %q: %w", cfg.Name, ErrNothingToExport)
	}
	return Quote{
		Configuration: cfg,
		Breakdown:     b,
		Cost:          model.CalculateCost(b.Parts, catalog),
		GeneratedAt:   time.Now(),
	}, nil
}

// ShareCode returns the grid code, or the share URL carrying it.
func (q Quote) ShareCode() string {
	code := q.Configuration.Grid.Code()
	if q.ShareURL == "" {
		return code
	}
	return q.ShareURL + "?grid=" + code
}

func (q Quote) title() string {
	if q.Configuration.Name != "" {
		return q.Configuration.Name
	}
	return "Unnamed configuration"
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
