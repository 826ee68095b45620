package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/SolarRack/internal/model"
)

// DefaultLibraryPath returns the default file path for saved configurations.
// This is located at ~/.solarrack/configurations.json.
func DefaultLibraryPath() string {
	return filepath.Join(DefaultConfigDir(), "configurations.json")
}

// SaveLibrary writes the configuration library to a JSON file.
func SaveLibrary(path string, lib model.ConfigurationLibrary) error {
	return writeJSON(path, lib)
}

// LoadLibrary reads a configuration library from a JSON file.
// If the file does not exist, returns an empty library.
func LoadLibrary(path string) (model.ConfigurationLibrary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.NewConfigurationLibrary(), nil
		}
		return model.ConfigurationLibrary{}, err
	}
	var lib model.ConfigurationLibrary
	if err := json.Unmarshal(data, &lib); err != nil {
		return model.ConfigurationLibrary{}, err
	}
	if lib.Configurations == nil {
		lib.Configurations = []model.Configuration{}
	}
	return lib, nil
}

// SaveConfiguration writes a single configuration, e.g. for sharing.
func SaveConfiguration(path string, cfg model.Configuration) error {
	return writeJSON(path, cfg)
}

// LoadConfiguration reads a single configuration file. The grid may be a
// full object or a bare matrix; missing dimensions fall back to defaults.
func LoadConfiguration(path string, defaults model.CellDimensions) (model.Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Configuration{}, err
	}
	var cfg model.Configuration
	if err := json.Unmarshal(data, &cfg); err != nil {
		return model.Configuration{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Dimensions.Width == 0 && cfg.Dimensions.Height == 0 {
		orientation := cfg.Dimensions.Orientation
		cfg.Dimensions = defaults
		if orientation != "" {
			cfg.Dimensions.Orientation = orientation
		}
	}
	if cfg.Dimensions.Orientation == "" {
		cfg.Dimensions.Orientation = model.OrientationHorizontal
	}
	if cfg.Name == "" {
		cfg.Name = filepath.Base(path)
	}
	return cfg, nil
}
