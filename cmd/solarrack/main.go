// Command solarrack prints the bill of materials and price of a roof layout
// and renders customer documents for it.
//
//	solarrack garage.json
//	solarrack -quick "5x3 vertikal mit Kabel" -pdf quote.pdf
//	solarrack -code 2x3:Pw== -edit "toggle 2,1" -compare -chart compare.html
//	solarrack -quick 4x2 -store Garage && solarrack -load Garage -pdf garage.pdf
//	solarrack -backup solarrack-backup.json
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/piwi3910/SolarRack/internal/engine"
	"github.com/piwi3910/SolarRack/internal/export"
	"github.com/piwi3910/SolarRack/internal/layout"
	"github.com/piwi3910/SolarRack/internal/logging"
	"github.com/piwi3910/SolarRack/internal/project"
)

type options struct {
	src      source
	dims     dimensions
	dxfScale float64
	edits    commands

	mc4, cable, wood, noModules bool

	catalogPath string
	shareURL    string

	pdf, xlsx, labels, chart, save string
	compare, asJSON              bool

	store, backup, restore string
	list                   bool
}

// maintenance reports whether a library or backup flag was given.
func (o options) maintenance() bool {
	return o.list || o.backup != "" || o.restore != ""
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("solarrack", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&o.src.code, "code", "", "grid share code such as 2x3:Pw==")
	fs.StringVar(&o.src.quick, "quick", "", "quick configuration sentence, e.g. \"5x3 vertikal mit Kabel\"")
	fs.StringVar(&o.src.dxf, "dxf", "", "DXF roof plan with one closed outline per module")
	fs.StringVar(&o.src.saved, "load", "", "saved configuration by name or ID")
	fs.Float64Var(&o.dxfScale, "dxf-scale", 1, "drawing units to cm, 0.1 for plans in mm")
	fs.Var(&o.dims, "dims", "module size as WxH in cm, \",v\" suffix for vertical panels")
	fs.Var(&o.edits, "edit", "layout edit commands separated by ';' (toggle X,Y | fill X,Y,W,H | clear | resize R,C | rotate | undo | redo)")

	fs.BoolVar(&o.mc4, "mc4", false, "add MC4 connectors")
	fs.BoolVar(&o.cable, "cable", false, "add solar cable")
	fs.BoolVar(&o.wood, "wood", false, "add wood underlay")
	fs.BoolVar(&o.noModules, "no-modules", false, "leave the modules off the bill")

	fs.StringVar(&o.catalogPath, "catalog", "", "pack catalog (.json, .csv or .xlsx), defaults to the app config")
	fs.StringVar(&o.shareURL, "share-url", "", "configurator URL put in front of the QR share code")

	fs.StringVar(&o.pdf, "pdf", "", "write the quote PDF")
	fs.StringVar(&o.xlsx, "xlsx", "", "write the BOM workbook")
	fs.StringVar(&o.labels, "labels", "", "write warehouse pick labels")
	fs.StringVar(&o.save, "save", "", "save the resulting configuration as JSON")
	fs.StringVar(&o.store, "store", "", "store the resulting configuration in the library under this name")
	fs.BoolVar(&o.list, "list", false, "list the saved configurations")
	fs.StringVar(&o.backup, "backup", "", "write app config, library and catalog to one backup file")
	fs.StringVar(&o.restore, "restore", "", "replace app config and library from a backup file, before anything else")
	fs.BoolVar(&o.compare, "compare", false, "compare orientation and accessory scenarios")
	fs.StringVar(&o.chart, "chart", "", "write the scenario comparison chart (HTML), implies -compare")
	fs.BoolVar(&o.asJSON, "json", false, "print JSON instead of a table")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 1 {
		return o, errors.New("at most one configuration file")
	}
	o.src.file = fs.Arg(0)
	if o.chart != "" {
		o.compare = true
	}
	return o, nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		if _, debug := os.LookupEnv("SOLARRACK_DEBUG"); debug {
			fmt.Fprintf(os.Stderr, "%+v\n", err)
		} else {
			fmt.Fprintln(os.Stderr, "solarrack:", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	app, err := project.LoadAppConfig(project.DefaultConfigPath())
	if err != nil {
		return errors.WithMessage(err, "load app config")
	}
	log := logging.New(logging.Config{Level: app.LogLevel, Format: app.LogFormat, Output: stderr})

	if o.restore != "" {
		if app, err = restoreBackup(o.restore); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Restored %s\n", o.restore)
	}
	if o.list {
		if err := printLibrary(stdout); err != nil {
			return err
		}
	}
	if o.backup != "" {
		if err := writeBackup(o.backup, app); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Backup written to %s\n", o.backup)
	}
	if o.maintenance() && o.src.count() == 0 {
		return nil
	}

	dims := app.CellDimensions()
	if o.dims.set {
		dims = o.dims.CellDimensions
	}

	cfg, warnings, err := loadConfiguration(o.src, dims, o.dxfScale)
	for _, w := range warnings {
		fmt.Fprintln(stderr, "warning:", w)
	}
	if err != nil {
		return err
	}
	if o.dims.set {
		cfg.Dimensions = o.dims.CellDimensions
	}
	cfg.Options.MC4Connectors = cfg.Options.MC4Connectors || o.mc4
	cfg.Options.SolarCable = cfg.Options.SolarCable || o.cable
	cfg.Options.WoodUnderlay = cfg.Options.WoodUnderlay || o.wood
	cfg.Options.ExcludeModules = cfg.Options.ExcludeModules || o.noModules

	if len(o.edits) > 0 {
		ed := layout.NewEditor(cfg)
		for _, cmd := range o.edits {
			if err := ed.Apply(cmd); err != nil {
				return errors.WithMessagef(err, "edit %q", cmd)
			}
		}
		cfg = ed.Configuration()
	}

	catalogPath := o.catalogPath
	if catalogPath == "" {
		catalogPath = app.CatalogPath
	}
	catalog, catWarnings, err := project.LoadCatalog(catalogPath)
	if err != nil {
		return errors.WithMessage(err, "load catalog")
	}
	for _, w := range catWarnings {
		fmt.Fprintln(stderr, "warning:", w)
	}

	if o.store != "" {
		if cfg, err = storeSaved(o.store, cfg); err != nil {
			return err
		}
	}
	if o.save != "" {
		if err := project.SaveConfiguration(o.save, cfg); err != nil {
			return errors.Wrap(err, "save configuration")
		}
	}
	if o.save != "" || o.store != "" {
		app.AddRecent(cfg.ID)
		if err := project.SaveAppConfig(project.DefaultConfigPath(), app); err != nil {
			log.Warn(context.Background(), "could not update recent configurations", logging.Err(err))
		}
	}

	q, err := export.NewQuote(cfg, catalog)
	if err != nil {
		return errors.WithMessage(err, "calculate")
	}
	q.ShareURL = o.shareURL

	if o.asJSON {
		err = printJSON(stdout, q)
	} else {
		err = printQuote(stdout, q)
	}
	if err != nil {
		return err
	}

	if err := writeExports(o, q); err != nil {
		return err
	}

	if o.compare {
		results := engine.CompareScenarios(engine.BuildDefaultScenarios(cfg), catalog)
		fmt.Fprintln(stdout)
		if err := printComparison(stdout, results); err != nil {
			return err
		}
		if o.chart != "" {
			if err := export.ExportComparisonHTML(o.chart, results); err != nil {
				return errors.Wrap(err, "write chart")
			}
		}
	}
	return nil
}

func writeExports(o options, q export.Quote) error {
	exports := []struct {
		path  string
		what  string
		write func(string, export.Quote) error
	}{
		{o.pdf, "quote PDF", export.ExportQuotePDF},
		{o.xlsx, "BOM workbook", export.ExportBOMXLSX},
		{o.labels, "pick labels", export.ExportPickLabels},
	}
	for _, e := range exports {
		if e.path == "" {
			continue
		}
		if err := e.write(e.path, q); err != nil {
			return errors.Wrapf(err, "write %s", e.what)
		}
	}
	return nil
}
