package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/SolarRack/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadCatalog_Default(t *testing.T) {
	catalog, warnings, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, model.DefaultCatalog(), catalog)
}

func TestLoadCatalog_JSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	want := model.DefaultCatalog()
	want[model.PartRail360] = model.PackEntry{UnitsPerPack: 1, PricePerPack: 47.5}
	require.NoError(t, SaveCatalog(path, want))

	got, warnings, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, want, got)
}

func TestLoadCatalog_JSONUnknownPartWarns(t *testing.T) {
	path := writeFile(t, "catalog.json", `{"Solarmodul":{"units_per_pack":1,"price_per_pack":60},"Kabelbinder":{"units_per_pack":100,"price_per_pack":3}}`)

	catalog, warnings, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Len(t, catalog, 2)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "Kabelbinder")
}

func TestLoadCatalog_CSV(t *testing.T) {
	path := writeFile(t, "katalog.csv", "Artikel;VPE;Preis\nSolarmodul;1;59,70\nEndklemmen;50;20,00\n")

	catalog, warnings, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, model.PackEntry{UnitsPerPack: 50, PricePerPack: 20}, catalog[model.PartEndClamp])
	assert.NotEmpty(t, warnings, "semicolon detection is reported")
}

func TestLoadCatalog_Errors(t *testing.T) {
	tests := []struct {
		name, file, content string
		sentinel            error
	}{
		{"csv row error", "bad.csv", "Part,Units,Price\nSolarmodul,none,1\n", model.ErrInvalidCatalog},
		{"invalid json entry", "bad.json", `{"Solarmodul":{"units_per_pack":0,"price_per_pack":1}}`, model.ErrInvalidCatalog},
		{"empty json", "empty.json", `{}`, model.ErrInvalidCatalog},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := LoadCatalog(writeFile(t, tt.file, tt.content))
			assert.True(t, errors.Is(err, tt.sentinel), "got %v", err)
		})
	}

	_, _, err := LoadCatalog(writeFile(t, "catalog.yaml", "x: 1"))
	assert.ErrorContains(t, err, "unsupported")
}

func TestMergeCatalog(t *testing.T) {
	path := writeFile(t, "prices.csv", "Part,Units,Price\nSolarmodul,1,55\n")

	merged, _, err := MergeCatalog(path, model.DefaultCatalog())
	require.NoError(t, err)
	assert.Equal(t, 55.0, merged[model.PartModule].PricePerPack)
	assert.Equal(t, model.DefaultCatalog()[model.PartEndClamp], merged[model.PartEndClamp])
	assert.Equal(t, 59.70, model.DefaultCatalog()[model.PartModule].PricePerPack, "input catalog untouched")
}
