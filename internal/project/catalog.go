package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/piwi3910/SolarRack/internal/importer"
	"github.com/piwi3910/SolarRack/internal/model"
)

// LoadCatalog reads a pack catalog from a .json, .csv or .xlsx file. An empty
// path yields the built-in catalog. Import warnings (unknown parts, detected
// delimiters) are returned alongside the catalog; row errors fail the load.
func LoadCatalog(path string) (model.PackCatalog, []string, error) {
	if path == "" {
		return model.DefaultCatalog(), nil, nil
	}

	var catalog model.PackCatalog
	var warnings []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, err
		}
		if err := json.Unmarshal(data, &catalog); err != nil {
			return nil, nil, fmt.Errorf("parse %s: %w", path, err)
		}
		for _, p := range catalog.Names() {
			if !p.Known() {
				warnings = append(warnings, fmt.Sprintf("Part '%s' is not used by the calculation", p))
			}
		}
	case ".csv", ".txt", ".xlsx", ".xlsm", ".xls":
		res := importer.ImportCatalog(path)
		if len(res.Errors) > 0 {
			return nil, res.Warnings, fmt.Errorf("import %s: %s: %w", path, strings.Join(res.Errors, "; "), model.ErrInvalidCatalog)
		}
		catalog, warnings = res.Catalog, res.Warnings
	default:
		return nil, nil, fmt.Errorf("catalog %s: unsupported file type", path)
	}

	if len(catalog) == 0 {
		return nil, warnings, fmt.Errorf("catalog %s is empty: %w", path, model.ErrInvalidCatalog)
	}
	if err := catalog.Validate(); err != nil {
		return nil, warnings, err
	}
	return catalog, warnings, nil
}

// SaveCatalog writes a catalog as JSON.
func SaveCatalog(path string, catalog model.PackCatalog) error {
	if err := catalog.Validate(); err != nil {
		return err
	}
	return writeJSON(path, catalog)
}

// MergeCatalog loads the catalog at path and overlays it on existing: prices
// and pack sizes from the file replace existing entries, other entries stay.
func MergeCatalog(path string, existing model.PackCatalog) (model.PackCatalog, []string, error) {
	imported, warnings, err := LoadCatalog(path)
	if err != nil {
		return existing, warnings, err
	}
	merged := existing.Clone()
	for p, e := range imported {
		merged[p] = e
	}
	return merged, warnings, nil
}
