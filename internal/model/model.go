package model

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidDimension is returned when a cell dimension is zero, negative or
// not a finite number.
var ErrInvalidDimension = errors.New("invalid dimension")

// Orientation represents how the panels are mounted on the roof.
type Orientation string

const (
	OrientationHorizontal Orientation = "horizontal" // Long side runs along the row
	OrientationVertical   Orientation = "vertical"   // Panel rotated 90°, short side along the row
)

func (o Orientation) String() string {
	if o == OrientationVertical {
		return "Vertical"
	}
	return "Horizontal"
}

// Rotated returns the opposite orientation.
func (o Orientation) Rotated() Orientation {
	if o == OrientationVertical {
		return OrientationHorizontal
	}
	return OrientationVertical
}

// ParseOrientation converts user input into an Orientation. It returns false
// if the value is not recognized.
func ParseOrientation(s string) (Orientation, bool) {
	switch s {
	case "horizontal", "Horizontal", "h", "H", "quer", "":
		return OrientationHorizontal, true
	case "vertical", "Vertical", "v", "V", "hochkant", "vertikal":
		return OrientationVertical, true
	default:
		return OrientationHorizontal, false
	}
}

// CellDimensions holds the physical size of one grid cell in cm.
type CellDimensions struct {
	Width       float64     `json:"width"`  // cm
	Height      float64     `json:"height"` // cm
	Orientation Orientation `json:"orientation"`
}

// DefaultCellDimensions returns the dimensions of the storefront's standard module.
func DefaultCellDimensions() CellDimensions {
	return CellDimensions{
		Width:       179,
		Height:      113,
		Orientation: OrientationHorizontal,
	}
}

// AlongRow returns the cell length used when laying rails along a row.
// Vertical panels are rotated, so their height runs along the row.
func (d CellDimensions) AlongRow() float64 {
	if d.Orientation == OrientationVertical {
		return d.Height
	}
	return d.Width
}

// AlongColumn returns the cell length perpendicular to the rails.
func (d CellDimensions) AlongColumn() float64 {
	if d.Orientation == OrientationVertical {
		return d.Width
	}
	return d.Height
}

// Validate checks that both sides are positive finite lengths.
func (d CellDimensions) Validate() error {
	if !validLength(d.Width) {
		return fmt.Errorf("cell width %v: %w", d.Width, ErrInvalidDimension)
	}
	if !validLength(d.Height) {
		return fmt.Errorf("cell height %v: %w", d.Height, ErrInvalidDimension)
	}
	if d.Orientation != "" && d.Orientation != OrientationHorizontal && d.Orientation != OrientationVertical {
		return fmt.Errorf("unknown orientation %q: %w", d.Orientation, ErrInvalidDimension)
	}
	return nil
}

func validLength(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// AccessoryOptions selects the optional additions to a bill of materials.
type AccessoryOptions struct {
	ExcludeModules bool `json:"exclude_modules"` // Customer brings their own panels
	MC4Connectors  bool `json:"mc4_connectors"`
	SolarCable     bool `json:"solar_cable"`
	WoodUnderlay   bool `json:"wood_underlay"`
}

// Any reports whether at least one accessory is requested.
func (o AccessoryOptions) Any() bool {
	return o.MC4Connectors || o.SolarCable || o.WoodUnderlay
}

// Configuration ties a grid, its dimensions and the accessory choices together.
// It is the unit that gets saved, shared and calculated.
type Configuration struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Grid       OccupancyGrid    `json:"grid"`
	Dimensions CellDimensions   `json:"dimensions"`
	Options    AccessoryOptions `json:"options"`
	CreatedAt  string           `json:"created_at,omitempty"`
	UpdatedAt  string           `json:"updated_at,omitempty"`
}

// NewConfiguration returns an empty rows x cols configuration with a fresh ID.
func NewConfiguration(name string, rows, cols int, dims CellDimensions) Configuration {
	now := time.Now().UTC().Format(time.RFC3339)
	return Configuration{
		ID:         uuid.New().String()[:8],
		Name:       name,
		Grid:       NewGrid(rows, cols),
		Dimensions: dims,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Clone returns a deep copy so callers can mutate the grid independently.
func (c Configuration) Clone() Configuration {
	cp := c
	cp.Grid = c.Grid.Clone()
	return cp
}

// Touch updates the modification timestamp.
func (c *Configuration) Touch() {
	c.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
}
