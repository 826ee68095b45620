package main

import (
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/piwi3910/SolarRack/internal/model"
	"github.com/piwi3910/SolarRack/internal/project"
)

// loadSaved looks a configuration up in the library by name, then by ID.
func loadSaved(name string) (model.Configuration, error) {
	lib, err := project.LoadLibrary(project.DefaultLibraryPath())
	if err != nil {
		return model.Configuration{}, errors.WithMessage(err, "load library")
	}
	c := lib.FindByName(name)
	if c == nil {
		c = lib.FindByID(name)
	}
	if c == nil {
		return model.Configuration{}, errors.Errorf("no saved configuration %q", name)
	}
	return c.Clone(), nil
}

// storeSaved puts cfg into the library under name, replacing an entry of
// the same name. It returns the stored configuration.
func storeSaved(name string, cfg model.Configuration) (model.Configuration, error) {
	path := project.DefaultLibraryPath()
	lib, err := project.LoadLibrary(path)
	if err != nil {
		return cfg, errors.WithMessage(err, "load library")
	}
	cfg.Name = name
	if existing := lib.FindByName(name); existing != nil {
		cfg.ID = existing.ID
		cfg.CreatedAt = existing.CreatedAt
	} else if cfg.ID == "" {
		cfg.ID = uuid.NewString()[:8]
	}
	lib.Upsert(cfg)
	if err := project.SaveLibrary(path, lib); err != nil {
		return cfg, errors.Wrap(err, "save library")
	}
	return *lib.FindByID(cfg.ID), nil
}

func printLibrary(w io.Writer) error {
	lib, err := project.LoadLibrary(project.DefaultLibraryPath())
	if err != nil {
		return errors.WithMessage(err, "load library")
	}
	if len(lib.Configurations) == 0 {
		fmt.Fprintln(w, "No saved configurations.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Name\tID\tGrid\tModules\tUpdated")
	for _, c := range lib.Configurations {
		fmt.Fprintf(tw, "%s\t%s\t%dx%d\t%d\t%s\n", c.Name, c.ID, c.Grid.Rows, c.Grid.Cols, c.Grid.SelectedCount(), c.UpdatedAt)
	}
	return tw.Flush()
}

// writeBackup bundles the app config, the library and a custom catalog.
func writeBackup(path string, app model.AppConfig) error {
	lib, err := project.LoadLibrary(project.DefaultLibraryPath())
	if err != nil {
		return errors.WithMessage(err, "load library")
	}
	var catalog model.PackCatalog
	if app.CatalogPath != "" {
		if catalog, _, err = project.LoadCatalog(app.CatalogPath); err != nil {
			return errors.WithMessage(err, "load catalog")
		}
	}
	return errors.Wrap(project.ExportAllData(path, app, lib, catalog), "write backup")
}

// restoreBackup replaces the app config and library with those of the backup.
// A bundled catalog is written next to the app config and becomes the
// configured catalog.
func restoreBackup(path string) (model.AppConfig, error) {
	backup, err := project.ImportAllData(path)
	if err != nil {
		return model.AppConfig{}, errors.WithMessage(err, "restore")
	}
	if backup.Catalog != nil {
		catalogPath := filepath.Join(project.DefaultConfigDir(), "catalog.json")
		if err := project.SaveCatalog(catalogPath, backup.Catalog); err != nil {
			return model.AppConfig{}, errors.Wrap(err, "restore catalog")
		}
		backup.Config.CatalogPath = catalogPath
	}
	if err := project.SaveLibrary(project.DefaultLibraryPath(), backup.Library); err != nil {
		return model.AppConfig{}, errors.Wrap(err, "restore library")
	}
	if err := project.SaveAppConfig(project.DefaultConfigPath(), backup.Config); err != nil {
		return model.AppConfig{}, errors.Wrap(err, "restore app config")
	}
	return backup.Config, nil
}
