package project

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/piwi3910/SolarRack/internal/model"
)

// BackupVersion is written into every backup file.
const BackupVersion = "1.0.0"

// BackupData is the top-level structure for import/export of all application data.
type BackupData struct {
	Version   string                     `json:"version"`
	CreatedAt string                     `json:"created_at"`
	Config    model.AppConfig            `json:"config"`
	Library   model.ConfigurationLibrary `json:"library"`
	Catalog   model.PackCatalog          `json:"catalog,omitempty"` // Only when it differs from the built-in one
}

// ExportAllData exports the application config, saved configurations and an
// optional custom catalog to a single JSON file at the specified path.
func ExportAllData(exportPath string, config model.AppConfig, lib model.ConfigurationLibrary, catalog model.PackCatalog) error {
	backup := BackupData{
		Version:   BackupVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Config:    config,
		Library:   lib,
		Catalog:   catalog,
	}
	if err := writeJSON(exportPath, backup); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}
	return nil
}

// ImportAllData reads a backup JSON file and returns the contained data.
// The caller is responsible for applying it.
func ImportAllData(importPath string) (BackupData, error) {
	data, err := os.ReadFile(importPath)
	if err != nil {
		return BackupData{}, fmt.Errorf("failed to read backup file: %w", err)
	}
	backup := BackupData{Config: model.DefaultAppConfig()}
	if err := json.Unmarshal(data, &backup); err != nil {
		return BackupData{}, fmt.Errorf("failed to parse backup file: %w", err)
	}
	if backup.Version == "" {
		return BackupData{}, fmt.Errorf("invalid backup file: missing version field")
	}
	if backup.Config.RecentConfigurations == nil {
		backup.Config.RecentConfigurations = []string{}
	}
	if backup.Library.Configurations == nil {
		backup.Library.Configurations = []model.Configuration{}
	}
	if backup.Catalog != nil {
		if err := backup.Catalog.Validate(); err != nil {
			return BackupData{}, fmt.Errorf("invalid backup catalog: %w", err)
		}
	}
	return backup, nil
}
