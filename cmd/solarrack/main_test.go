package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/SolarRack/internal/model"
	"github.com/piwi3910/SolarRack/internal/project"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SOLARRACK_HOME", "")
	var stdout, stderr bytes.Buffer
	err := run(args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRun_QuickConfig(t *testing.T) {
	out, _, err := runCLI(t, "-quick", "5x3 vertikal mit Kabel")
	require.NoError(t, err)

	assert.Contains(t, out, "15 modules")
	assert.Contains(t, out, "Vertical")
	assert.Contains(t, out, string(model.PartSolarCable))
	assert.Contains(t, out, "Total")
}

func TestRun_ShareCodeWithEdits(t *testing.T) {
	grid := model.GridFromRows([][]bool{{true, true, true}, {true, true, true}})

	out, _, err := runCLI(t, "-code", grid.Code(), "-edit", "toggle 2,1; toggle 0,0", "-json")
	require.NoError(t, err)
	assert.Contains(t, out, `"selected_cells": 4`)
}

func TestRun_FileAndExports(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "garage.json")
	cfg := model.NewConfiguration("Garage", 2, 3, model.DefaultCellDimensions())
	cfg.Grid.Fill(0, 0, 3, 2)
	require.NoError(t, project.SaveConfiguration(cfgPath, cfg))

	pdf := filepath.Join(dir, "quote.pdf")
	xlsx := filepath.Join(dir, "bom.xlsx")
	labels := filepath.Join(dir, "labels.pdf")
	chart := filepath.Join(dir, "compare.html")
	out, _, err := runCLI(t, "-mc4", "-pdf", pdf, "-xlsx", xlsx, "-labels", labels, "-chart", chart, cfgPath)
	require.NoError(t, err)

	for _, p := range []string{pdf, xlsx, labels, chart} {
		info, err := os.Stat(p)
		require.NoError(t, err, p)
		assert.Positive(t, info.Size(), p)
	}
	assert.Contains(t, out, "Garage")
	assert.Contains(t, out, "Current Settings")
	assert.Contains(t, out, string(model.PartMC4Connector))
}

func TestRun_SaveRecordsRecent(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SOLARRACK_HOME", "")
	saved := filepath.Join(t.TempDir(), "out.json")

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"-quick", "2x2", "-save", saved}, &stdout, &stderr))

	cfg, err := project.LoadConfiguration(saved, model.DefaultCellDimensions())
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Grid.SelectedCount())

	app, err := project.LoadAppConfig(filepath.Join(home, ".solarrack", "config.json"))
	require.NoError(t, err)
	assert.Equal(t, []string{cfg.ID}, app.RecentConfigurations)
}

// runIn runs the CLI with dir as the data directory.
func runIn(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SOLARRACK_HOME", dir)
	var stdout, stderr bytes.Buffer
	err := run(args, &stdout, &stderr)
	return stdout.String(), err
}

func TestRun_StoreAndLoad(t *testing.T) {
	dir := t.TempDir()

	_, err := runIn(t, dir, "-quick", "4x2", "-store", "Garage")
	require.NoError(t, err)
	_, err = runIn(t, dir, "-quick", "3x1", "-store", "Garage", "-wood")
	require.NoError(t, err)

	lib, err := project.LoadLibrary(filepath.Join(dir, "configurations.json"))
	require.NoError(t, err)
	require.Len(t, lib.Configurations, 1, "storing under an existing name replaces it")
	stored := lib.Configurations[0]
	assert.Equal(t, "Garage", stored.Name)
	assert.Equal(t, 3, stored.Grid.SelectedCount())
	assert.True(t, stored.Options.WoodUnderlay)

	out, err := runIn(t, dir, "-load", "Garage")
	require.NoError(t, err)
	assert.Contains(t, out, "3 modules")

	out, err = runIn(t, dir, "-load", stored.ID, "-json")
	require.NoError(t, err)
	assert.Contains(t, out, `"selected_cells": 3`)

	out, err = runIn(t, dir, "-list")
	require.NoError(t, err)
	assert.Contains(t, out, "Garage")
	assert.Contains(t, out, stored.ID)

	_, err = runIn(t, dir, "-load", "Carport")
	assert.ErrorContains(t, err, `no saved configuration "Carport"`)

	app, err := project.LoadAppConfig(filepath.Join(dir, "config.json"))
	require.NoError(t, err)
	assert.Contains(t, app.RecentConfigurations, stored.ID)
}

func TestRun_BackupAndRestore(t *testing.T) {
	src := t.TempDir()
	catalog := model.DefaultCatalog()
	catalogPath := filepath.Join(src, "prices.json")
	require.NoError(t, project.SaveCatalog(catalogPath, catalog))
	app := model.DefaultAppConfig()
	app.CatalogPath = catalogPath
	require.NoError(t, project.SaveAppConfig(filepath.Join(src, "config.json"), app))

	_, err := runIn(t, src, "-quick", "2x2", "-store", "Shed")
	require.NoError(t, err)

	backup := filepath.Join(t.TempDir(), "backup.json")
	out, err := runIn(t, src, "-backup", backup)
	require.NoError(t, err)
	assert.Contains(t, out, "Backup written")

	dst := t.TempDir()
	out, err = runIn(t, dst, "-restore", backup, "-list")
	require.NoError(t, err)
	assert.Contains(t, out, "Shed")

	restored, err := project.LoadAppConfig(filepath.Join(dst, "config.json"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dst, "catalog.json"), restored.CatalogPath)
	_, err = os.Stat(restored.CatalogPath)
	assert.NoError(t, err)

	out, err = runIn(t, dst, "-load", "Shed")
	require.NoError(t, err)
	assert.Contains(t, out, "4 modules")
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no source", nil, "no configuration given"},
		{"two sources", []string{"-code", "1x1:gA==", "-quick", "2x2"}, "only one"},
		{"bad share code", []string{"-code", "nonsense"}, "parse share code"},
		{"bad edit", []string{"-quick", "2x2", "-edit", "paint 1,1"}, `edit "paint 1,1"`},
		{"empty layout", []string{"-quick", "2x2", "-edit", "clear"}, "calculate"},
		{"bad dims", []string{"-quick", "2x2", "-dims", "axb"}, "can't get width"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, err := runCLI(t, tt.args...)
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.want) || strings.Contains(stderr, tt.want),
				"error %q, stderr %q", err, stderr)
		})
	}
}

func TestDimensionsFlag(t *testing.T) {
	var d dimensions
	require.NoError(t, d.Set("113x176,v"))
	assert.Equal(t, model.OrientationVertical, d.Orientation)
	assert.Equal(t, "113x176", d.String())
	assert.True(t, d.set)

	assert.Error(t, d.Set("113"))
	assert.Error(t, d.Set("113x0"))
	assert.Error(t, d.Set("113x176,diagonal"))
}

func TestCommandsFlag(t *testing.T) {
	var c commands
	require.NoError(t, c.Set("toggle 1,1; ;rotate"))
	require.NoError(t, c.Set("undo"))
	assert.Equal(t, commands{"toggle 1,1", "rotate", "undo"}, c)
}
