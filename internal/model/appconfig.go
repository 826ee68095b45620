package model

// AppConfig holds application-wide preferences and default settings.
type AppConfig struct {
	// Defaults applied to new configurations
	DefaultCellWidth   float64     `json:"default_cell_width"`  // cm
	DefaultCellHeight  float64     `json:"default_cell_height"` // cm
	DefaultOrientation Orientation `json:"default_orientation"`
	DefaultRows        int         `json:"default_rows"`
	DefaultCols        int         `json:"default_cols"`

	// Calculation dispatch
	DispatchTimeoutSeconds int  `json:"dispatch_timeout_seconds"`
	Workers                int  `json:"workers"` // Background calculation workers, 0 = inline only
	FallbackOnFailure      bool `json:"fallback_on_failure"`

	// Catalog source: .json, .csv or .xlsx; empty uses the built-in catalog
	CatalogPath string `json:"catalog_path"`

	// Logging
	LogLevel  string `json:"log_level"`  // debug, info, warn, error
	LogFormat string `json:"log_format"` // text or json

	// Telemetry
	WebhookURL   string `json:"webhook_url"`
	DatabasePath string `json:"database_path"`

	RecentConfigurations []string `json:"recent_configurations"`
}

// DefaultAppConfig returns an AppConfig populated with sensible defaults
// matching DefaultCellDimensions().
func DefaultAppConfig() AppConfig {
	dims := DefaultCellDimensions()
	return AppConfig{
		DefaultCellWidth:       dims.Width,
		DefaultCellHeight:      dims.Height,
		DefaultOrientation:     dims.Orientation,
		DefaultRows:            5,
		DefaultCols:            10,
		DispatchTimeoutSeconds: 10,
		Workers:                2,
		FallbackOnFailure:      true,
		LogLevel:               "info",
		LogFormat:              "text",
		RecentConfigurations:   []string{},
	}
}

// CellDimensions returns the configured default dimensions.
func (c AppConfig) CellDimensions() CellDimensions {
	return CellDimensions{
		Width:       c.DefaultCellWidth,
		Height:      c.DefaultCellHeight,
		Orientation: c.DefaultOrientation,
	}
}

// ApplyToConfiguration copies the default dimensions into a configuration.
// This is used when creating a new configuration so it inherits the user's
// saved defaults.
func (c AppConfig) ApplyToConfiguration(cfg *Configuration) {
	cfg.Dimensions = c.CellDimensions()
	if cfg.Grid.Rows == 0 && cfg.Grid.Cols == 0 {
		cfg.Grid = NewGrid(c.DefaultRows, c.DefaultCols)
	}
}

// AddRecent records a configuration ID at the front of the recent list,
// keeping at most ten entries without duplicates.
func (c *AppConfig) AddRecent(id string) {
	out := []string{id}
	for _, r := range c.RecentConfigurations {
		if r != id && len(out) < 10 {
			out = append(out, r)
		}
	}
	c.RecentConfigurations = out
}
