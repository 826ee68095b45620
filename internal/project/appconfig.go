package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/SolarRack/internal/model"
)

// HomeEnv overrides the data directory.
const HomeEnv = "SOLARRACK_HOME"

// DefaultConfigDir is $SOLARRACK_HOME, or ~/.solarrack when it is unset.
func DefaultConfigDir() string {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".solarrack")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func SaveAppConfig(path string, app model.AppConfig) error {
	if err := writeJSON(path, app); err != nil {
		return fmt.Errorf("save app config: %w", err)
	}
	return nil
}

// LoadAppConfig returns the defaults when path does not exist. Settings an
// older file lacks keep their default values.
func LoadAppConfig(path string) (model.AppConfig, error) {
	app := model.DefaultAppConfig()
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return app, nil
	case err != nil:
		return model.AppConfig{}, fmt.Errorf("read app config: %w", err)
	}
	if err := json.Unmarshal(data, &app); err != nil {
		return model.AppConfig{}, fmt.Errorf("parse app config %s: %w", path, err)
	}
	if app.RecentConfigurations == nil {
		app.RecentConfigurations = []string{}
	}
	return app, nil
}

// writeJSON writes v as indented JSON, creating parent directories.
func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
