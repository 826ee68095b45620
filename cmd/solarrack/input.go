package main

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/piwi3910/SolarRack/internal/importer"
	"github.com/piwi3910/SolarRack/internal/model"
	"github.com/piwi3910/SolarRack/internal/project"
)

// source describes where the configuration comes from. Exactly one of its
// fields is used.
type source struct {
	file  string
	code  string
	quick string
	dxf   string
	saved string
}

func (s source) count() int {
	n := 0
	for _, v := range []string{s.file, s.code, s.quick, s.dxf, s.saved} {
		if v != "" {
			n++
		}
	}
	return n
}

// loadConfiguration builds the configuration from its source. Warnings from
// lenient importers are returned instead of failing.
func loadConfiguration(src source, dims model.CellDimensions, dxfScale float64) (model.Configuration, []string, error) {
	switch n := src.count(); {
	case n == 0:
		return model.Configuration{}, nil, errors.New("no configuration given: pass a file, -code, -quick, -dxf or -load")
	case n > 1:
		return model.Configuration{}, nil, errors.New("pass only one of a file, -code, -quick, -dxf or -load")
	}

	switch {
	case src.file != "":
		cfg, err := project.LoadConfiguration(src.file, dims)
		return cfg, nil, errors.WithMessage(err, "load configuration")

	case src.code != "":
		grid, err := model.ParseGridCode(src.code)
		if err != nil {
			return model.Configuration{}, nil, errors.WithMessage(err, "parse share code")
		}
		cfg := model.NewConfiguration(fmt.Sprintf("Share %dx%d", grid.Cols, grid.Rows), grid.Rows, grid.Cols, dims)
		cfg.Grid = grid
		return cfg, nil, nil

	case src.saved != "":
		cfg, err := loadSaved(src.saved)
		return cfg, nil, err

	case src.quick != "":
		cfg, err := importer.ParseQuickConfig(src.quick, dims)
		return cfg, nil, errors.WithMessage(err, "quick config")

	default:
		res := importer.ImportLayoutDXF(src.dxf, importer.LayoutOptions{Scale: dxfScale})
		if len(res.Errors) > 0 {
			return model.Configuration{}, res.Warnings, errors.Errorf("import %s: %s", src.dxf, res.Errors[0])
		}
		return res.Configuration, res.Warnings, nil
	}
}
