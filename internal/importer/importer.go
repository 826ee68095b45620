// Package importer reads pack catalogs from CSV and Excel, roof layouts from
// DXF drawings, and quick-config sentences into configurations.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/piwi3910/SolarRack/internal/model"
	"github.com/xuri/excelize/v2"
)

// CatalogImport holds the outcome of a catalog import. Rows with errors are
// skipped; the remaining entries are still returned.
type CatalogImport struct {
	Catalog  model.PackCatalog
	Errors   []string
	Warnings []string
}

// OK reports whether at least one entry was read and no row failed.
func (r CatalogImport) OK() bool {
	return len(r.Errors) == 0 && len(r.Catalog) > 0
}

// ColumnMapping maps catalog columns to their indices in the data.
type ColumnMapping struct {
	Part  int
	Units int
	Price int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"part":  {"part", "name", "article", "artikel", "key", "sku", "item", "bezeichnung"},
	"units": {"units", "units per pack", "units_per_pack", "pack size", "pack", "vpe", "stück", "stueck", "menge", "qty"},
	"price": {"price", "price per pack", "price_per_pack", "preis", "cost", "eur", "€"},
}

// DetectCSVDelimiter determines the most likely delimiter of CSV data.
// It tries comma, semicolon, tab and pipe and picks the one that splits the
// most rows into the same number of columns as the first row.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}
		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}
		if weighted := score*10 + firstCols; weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row. It returns the mapping and true when
// the row is a header, or the positional mapping (part, units, price) and
// false otherwise.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{Part: -1, Units: -1, Price: -1}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				switch {
				case role == "part" && mapping.Part == -1:
					mapping.Part = i
				case role == "units" && mapping.Units == -1:
					mapping.Units = i
				case role == "price" && mapping.Price == -1:
					mapping.Price = i
				}
			}
		}
	}

	if !isHeader {
		return ColumnMapping{Part: 0, Units: 1, Price: 2}, false
	}
	return mapping, true
}

// ParsePrice accepts "20", "20.50", "20,50", "1.234,50" and an optional
// currency sign.
func ParsePrice(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "€"), "€")
	s = strings.TrimSpace(strings.TrimSuffix(s, "EUR"))
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	return strconv.ParseFloat(s, 64)
}

func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseRow extracts one catalog entry. It returns the part name, the entry,
// an error message and a warning message.
func parseRow(row []string, mapping ColumnMapping, rowLabel string) (model.PartName, model.PackEntry, string, string) {
	name := getCell(row, mapping.Part)
	if name == "" {
		return "", model.PackEntry{}, fmt.Sprintf("%s: Missing part name", rowLabel), ""
	}

	unitsStr := getCell(row, mapping.Units)
	if unitsStr == "" {
		return "", model.PackEntry{}, fmt.Sprintf("%s: Missing units per pack", rowLabel), ""
	}
	units, err := strconv.Atoi(unitsStr)
	if err != nil {
		return "", model.PackEntry{}, fmt.Sprintf("%s: Invalid units per pack '%s'", rowLabel, unitsStr), ""
	}

	priceStr := getCell(row, mapping.Price)
	if priceStr == "" {
		return "", model.PackEntry{}, fmt.Sprintf("%s: Missing price", rowLabel), ""
	}
	price, err := ParsePrice(priceStr)
	if err != nil {
		return "", model.PackEntry{}, fmt.Sprintf("%s: Invalid price '%s'", rowLabel, priceStr), ""
	}

	if units < 1 || price < 0 {
		return "", model.PackEntry{}, fmt.Sprintf("%s: Units must be at least 1 and price non-negative", rowLabel), ""
	}

	part := model.PartName(name)
	var warning string
	if !part.Known() {
		warning = fmt.Sprintf("%s: Part '%s' is not used by the calculation", rowLabel, name)
	}
	return part, model.PackEntry{UnitsPerPack: units, PricePerPack: price}, "", warning
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportCatalog reads a catalog from a .csv, .xlsx or .xls file.
func ImportCatalog(path string) CatalogImport {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xls":
		return ImportCatalogExcel(path)
	default:
		return ImportCatalogCSV(path)
	}
}

// ImportCatalogCSV reads a catalog from a CSV file with any common delimiter.
func ImportCatalogCSV(path string) CatalogImport {
	data, err := os.ReadFile(path)
	if err != nil {
		return CatalogImport{Errors: []string{fmt.Sprintf("Cannot open file: %v", err)}}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return CatalogImport{Errors: []string{"File is empty"}}
	}

	var warnings []string
	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		warnings = append(warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	result := ImportCatalogCSVFromReader(bytes.NewReader(data), delimiter)
	result.Warnings = append(warnings, result.Warnings...)
	return result
}

// ImportCatalogCSVFromReader reads a catalog from CSV with a known delimiter.
func ImportCatalogCSVFromReader(r io.Reader, delimiter rune) CatalogImport {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return CatalogImport{Errors: []string{fmt.Sprintf("Cannot read CSV: %v", err)}}
	}
	return importFromRows(records, "Line")
}

// ImportCatalogExcel reads a catalog from the first sheet of a workbook.
func ImportCatalogExcel(path string) CatalogImport {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return CatalogImport{Errors: []string{fmt.Sprintf("Cannot open Excel file: %v", err)}}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return CatalogImport{Errors: []string{"Excel file has no sheets"}}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return CatalogImport{Errors: []string{fmt.Sprintf("Cannot read Excel data: %v", err)}}
	}
	return importFromRows(rows, "Row")
}

// importFromRows is the shared logic for CSV and Excel data.
func importFromRows(rows [][]string, rowPrefix string) CatalogImport {
	result := CatalogImport{Catalog: model.PackCatalog{}}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		var missing []string
		if mapping.Part == -1 {
			missing = append(missing, "Part")
		}
		if mapping.Units == -1 {
			missing = append(missing, "Units")
		}
		if mapping.Price == -1 {
			missing = append(missing, "Price")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if len(rows[0]) >= 2 {
		// An unrecognized header: the second column is not a number.
		if _, err := strconv.Atoi(strings.TrimSpace(rows[0][1])); err != nil {
			startRow = 1
			result.Warnings = append(result.Warnings, "Skipped unrecognized header row")
		}
	}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}
		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		part, entry, errMsg, warning := parseRow(row, mapping, rowLabel)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}
		if _, dup := result.Catalog[part]; dup {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: Duplicate part '%s', later row wins", rowLabel, part))
		}
		result.Catalog[part] = entry
	}

	return result
}
