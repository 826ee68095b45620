package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/piwi3910/SolarRack/internal/model"
	"github.com/xuri/excelize/v2"
)

// ─── DetectCSVDelimiter Tests ──────────────────────────────

func TestDetectCSVDelimiter(t *testing.T) {
	tests := []struct {
		name string
		data string
		want rune
	}{
		{"comma", "Part,Units,Price\nSolarmodul,1,80\nEndklemmen,50,20\n", ','},
		{"semicolon", "Artikel;VPE;Preis\nSolarmodul;1;80,00\nEndklemmen;50;20,00\n", ';'},
		{"tab", "Part\tUnits\tPrice\nSolarmodul\t1\t80\n", '\t'},
		{"pipe", "Part|Units|Price\nSolarmodul|1|80\n", '|'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectCSVDelimiter([]byte(tt.data)); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

// ─── DetectColumns Tests ───────────────────────────────────

func TestDetectColumns_StandardHeaders(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"Part", "Units", "Price"})

	if !isHeader {
		t.Error("expected header to be detected")
	}
	if mapping.Part != 0 || mapping.Units != 1 || mapping.Price != 2 {
		t.Errorf("unexpected mapping %+v", mapping)
	}
}

func TestDetectColumns_GermanReordered(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"Preis", "Artikel", "VPE"})

	if !isHeader {
		t.Fatal("expected header to be detected")
	}
	if mapping.Part != 1 || mapping.Units != 2 || mapping.Price != 0 {
		t.Errorf("unexpected mapping %+v", mapping)
	}
}

func TestDetectColumns_NoHeader(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"Solarmodul", "1", "80"})

	if isHeader {
		t.Error("data row should not be taken for a header")
	}
	if mapping.Part != 0 || mapping.Units != 1 || mapping.Price != 2 {
		t.Errorf("expected positional mapping, got %+v", mapping)
	}
}

// ─── ParsePrice Tests ──────────────────────────────────────

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"20", 20},
		{"20.50", 20.5},
		{"20,50", 20.5},
		{"1.234,50", 1234.5},
		{"€ 12,99", 12.99},
		{"12.99 EUR", 12.99},
	}
	for _, tt := range tests {
		got, err := ParsePrice(tt.in)
		if err != nil {
			t.Errorf("ParsePrice(%q): unexpected error %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePrice(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParsePrice("free"); err == nil {
		t.Error("expected error for non-numeric price")
	}
}

// ─── CSV Import Tests ──────────────────────────────────────

func TestImportCatalogCSVFromReader_WithHeaders(t *testing.T) {
	data := "Part,Units,Price\nSolarmodul,1,80\nEndklemmen,50,20\n"
	result := ImportCatalogCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	if len(result.Catalog) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(result.Catalog))
	}
	entry := result.Catalog[model.PartEndClamp]
	if entry.UnitsPerPack != 50 || entry.PricePerPack != 20 {
		t.Errorf("unexpected Endklemmen entry %+v", entry)
	}
	if !result.OK() {
		t.Error("expected OK result")
	}
}

func TestImportCatalogCSVFromReader_WithoutHeaders(t *testing.T) {
	data := "Solarmodul,1,80\nDachhaken,1,5\n"
	result := ImportCatalogCSVFromReader(strings.NewReader(data), ',')

	if len(result.Catalog) != 2 {
		t.Fatalf("expected 2 entries, got %d (errors: %v)", len(result.Catalog), result.Errors)
	}
	if result.Catalog[model.PartRoofHook].PricePerPack != 5 {
		t.Errorf("unexpected Dachhaken entry %+v", result.Catalog[model.PartRoofHook])
	}
}

func TestImportCatalogCSVFromReader_GermanSemicolon(t *testing.T) {
	data := "Artikel;VPE;Preis\nSchiene_360cm;1;45,50\nSchienenverbinder;4;9,60\n"
	result := ImportCatalogCSVFromReader(strings.NewReader(data), ';')

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if got := result.Catalog[model.PartRail360].PricePerPack; got != 45.5 {
		t.Errorf("expected 45.5, got %v", got)
	}
	if got := result.Catalog[model.PartRailConnector].UnitsPerPack; got != 4 {
		t.Errorf("expected 4 units, got %d", got)
	}
}

func TestImportCatalogCSVFromReader_UnrecognizedHeader(t *testing.T) {
	data := "Produkt,Anzahl,Kosten\nSolarmodul,1,80\n"
	result := ImportCatalogCSVFromReader(strings.NewReader(data), ',')

	if len(result.Catalog) != 1 {
		t.Fatalf("expected 1 entry, got %d (errors: %v)", len(result.Catalog), result.Errors)
	}
	if len(result.Warnings) == 0 {
		t.Error("expected a warning about the skipped header")
	}
}

func TestImportCatalogCSVFromReader_InvalidRows(t *testing.T) {
	tests := []struct {
		name string
		row  string
		want string
	}{
		{"missing name", ",1,80", "Missing part name"},
		{"bad units", "Solarmodul,one,80", "Invalid units"},
		{"bad price", "Solarmodul,1,free", "Invalid price"},
		{"zero units", "Solarmodul,0,80", "at least 1"},
		{"negative price", "Solarmodul,1,-5", "non-negative"},
		{"missing price", "Solarmodul,1", "Missing price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ImportCatalogCSVFromReader(strings.NewReader("Part,Units,Price\n"+tt.row+"\n"), ',')
			if len(result.Errors) != 1 {
				t.Fatalf("expected 1 error, got %v", result.Errors)
			}
			if !strings.Contains(result.Errors[0], tt.want) {
				t.Errorf("expected error containing %q, got %q", tt.want, result.Errors[0])
			}
			if !strings.HasPrefix(result.Errors[0], "Line 2") {
				t.Errorf("expected line label, got %q", result.Errors[0])
			}
		})
	}
}

func TestImportCatalogCSVFromReader_MixedValidAndInvalid(t *testing.T) {
	data := "Part,Units,Price\nSolarmodul,1,80\nEndklemmen,x,20\n\nDachhaken,1,5\n"
	result := ImportCatalogCSVFromReader(strings.NewReader(data), ',')

	if len(result.Catalog) != 2 {
		t.Errorf("expected 2 valid entries, got %d", len(result.Catalog))
	}
	if len(result.Errors) != 1 {
		t.Errorf("expected 1 error, got %v", result.Errors)
	}
	if result.OK() {
		t.Error("result with row errors should not be OK")
	}
}

func TestImportCatalogCSVFromReader_UnknownPartWarns(t *testing.T) {
	data := "Part,Units,Price\nKabelbinder,100,3\n"
	result := ImportCatalogCSVFromReader(strings.NewReader(data), ',')

	if _, ok := result.Catalog["Kabelbinder"]; !ok {
		t.Error("unknown parts should still be imported")
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "Kabelbinder") {
		t.Errorf("expected a warning naming the part, got %v", result.Warnings)
	}
}

func TestImportCatalogCSVFromReader_DuplicateLaterWins(t *testing.T) {
	data := "Part,Units,Price\nSolarmodul,1,80\nSolarmodul,1,75\n"
	result := ImportCatalogCSVFromReader(strings.NewReader(data), ',')

	if got := result.Catalog[model.PartModule].PricePerPack; got != 75 {
		t.Errorf("expected later row to win, got %v", got)
	}
	if len(result.Warnings) != 1 {
		t.Errorf("expected a duplicate warning, got %v", result.Warnings)
	}
}

func TestImportCatalogCSVFromReader_MissingRequiredColumn(t *testing.T) {
	data := "Part,Price\nSolarmodul,80\n"
	result := ImportCatalogCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "Units") {
		t.Errorf("expected missing Units column error, got %v", result.Errors)
	}
}

// ─── CSV File Import Tests ──────────────────────────────────

func TestImportCatalogCSV_SemicolonFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "katalog.csv")
	content := "Artikel;VPE;Preis\nSolarmodul;1;80,00\nEndklemmen;50;20,00\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	result := ImportCatalog(path)

	if len(result.Catalog) != 2 {
		t.Errorf("expected 2 entries, got %d (errors: %v)", len(result.Catalog), result.Errors)
	}
	hasSemicolonWarning := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "semicolon") {
			hasSemicolonWarning = true
		}
	}
	if !hasSemicolonWarning {
		t.Error("expected warning about semicolon delimiter detection")
	}
}

func TestImportCatalogCSV_FileNotFound(t *testing.T) {
	result := ImportCatalogCSV("/nonexistent/path/catalog.csv")
	if len(result.Errors) == 0 {
		t.Error("expected error for nonexistent file")
	}
}

func TestImportCatalogCSV_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := os.WriteFile(path, []byte("  \n"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	if result := ImportCatalogCSV(path); len(result.Errors) == 0 {
		t.Error("expected error for empty file")
	}
}

// ─── Excel Import Tests ────────────────────────────────────

func createTestExcel(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for i, row := range rows {
		for j, cell := range row {
			cellRef, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("failed to create cell reference: %v", err)
			}
			if err := f.SetCellValue(sheet, cellRef, cell); err != nil {
				t.Fatalf("failed to set cell value: %v", err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save Excel file: %v", err)
	}
	return path
}

func TestImportCatalogExcel_WithHeaders(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"Artikel", "Stück", "Preis"},
		{"Solarmodul", 1, 80},
		{"Mittelklemmen", 50, 20},
		{"MC4Connector", 10, 15.5},
	})

	result := ImportCatalog(path)

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Catalog) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(result.Catalog))
	}
	if got := result.Catalog[model.PartMC4Connector].PricePerPack; got != 15.5 {
		t.Errorf("expected 15.5, got %v", got)
	}
}

func TestImportCatalogExcel_InvalidData(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"Part", "Units", "Price"},
		{"Solarmodul", "lots", 80},
	})

	result := ImportCatalogExcel(path)

	if len(result.Errors) != 1 || !strings.HasPrefix(result.Errors[0], "Row 2") {
		t.Errorf("expected one Row 2 error, got %v", result.Errors)
	}
}

func TestImportCatalogExcel_FileNotFound(t *testing.T) {
	if result := ImportCatalogExcel("/nonexistent/catalog.xlsx"); len(result.Errors) == 0 {
		t.Error("expected error for nonexistent file")
	}
}
