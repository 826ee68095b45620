package model

import (
	"errors"
	"math"
	"testing"
)

func TestParseOrientation(t *testing.T) {
	tests := []struct {
		in   string
		want Orientation
		ok   bool
	}{
		{"horizontal", OrientationHorizontal, true},
		{"", OrientationHorizontal, true},
		{"quer", OrientationHorizontal, true},
		{"V", OrientationVertical, true},
		{"hochkant", OrientationVertical, true},
		{"vertikal", OrientationVertical, true},
		{"diagonal", OrientationHorizontal, false},
	}
	for _, tt := range tests {
		got, ok := ParseOrientation(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseOrientation(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestOrientationRotated(t *testing.T) {
	if OrientationHorizontal.Rotated() != OrientationVertical {
		t.Error("horizontal should rotate to vertical")
	}
	if OrientationVertical.Rotated() != OrientationHorizontal {
		t.Error("vertical should rotate to horizontal")
	}
}

func TestCellDimensionsAxes(t *testing.T) {
	d := DefaultCellDimensions()
	if d.AlongRow() != 179 || d.AlongColumn() != 113 {
		t.Errorf("horizontal: expected 179/113, got %v/%v", d.AlongRow(), d.AlongColumn())
	}

	d.Orientation = OrientationVertical
	if d.AlongRow() != 113 || d.AlongColumn() != 179 {
		t.Errorf("vertical: expected 113/179, got %v/%v", d.AlongRow(), d.AlongColumn())
	}
}

func TestCellDimensionsValidate(t *testing.T) {
	if err := DefaultCellDimensions().Validate(); err != nil {
		t.Errorf("default dimensions should be valid: %v", err)
	}

	bad := []CellDimensions{
		{Width: 0, Height: 113},
		{Width: 179, Height: -2},
		{Width: math.Inf(1), Height: 113},
		{Width: 179, Height: math.NaN()},
		{Width: 179, Height: 113, Orientation: "sideways"},
	}
	for _, d := range bad {
		if err := d.Validate(); !errors.Is(err, ErrInvalidDimension) {
			t.Errorf("expected ErrInvalidDimension for %+v, got %v", d, err)
		}
	}
}

func TestNewConfiguration(t *testing.T) {
	cfg := NewConfiguration("Garage", 3, 4, DefaultCellDimensions())

	if cfg.ID == "" || len(cfg.ID) != 8 {
		t.Errorf("expected 8 character ID, got %q", cfg.ID)
	}
	if cfg.Grid.Rows != 3 || cfg.Grid.Cols != 4 {
		t.Errorf("expected 3x4 grid, got %dx%d", cfg.Grid.Rows, cfg.Grid.Cols)
	}
	if cfg.Grid.SelectedCount() != 0 {
		t.Error("new configuration should start empty")
	}
	if cfg.CreatedAt == "" || cfg.UpdatedAt == "" {
		t.Error("expected timestamps to be set")
	}
}

func TestConfigurationCloneIsDeep(t *testing.T) {
	cfg := NewConfiguration("Garage", 2, 2, DefaultCellDimensions())
	cp := cfg.Clone()
	cp.Grid.Set(0, 0, true)

	if cfg.Grid.At(0, 0) {
		t.Error("modifying the clone's grid should not affect the original")
	}
}

func TestAccessoryOptionsAny(t *testing.T) {
	if (AccessoryOptions{ExcludeModules: true}).Any() {
		t.Error("excluding modules is not an accessory")
	}
	if !(AccessoryOptions{WoodUnderlay: true}).Any() {
		t.Error("wood underlay is an accessory")
	}
}
