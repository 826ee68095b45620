package model

import (
	"errors"
	"math"
	"testing"
)

func TestDefaultCatalogCoversEveryKnownPart(t *testing.T) {
	c := DefaultCatalog()
	for _, p := range append(append([]PartName{}, BaseParts...), AccessoryParts...) {
		if _, ok := c.Lookup(p); !ok {
			t.Errorf("default catalog is missing %s", p)
		}
	}
	if err := c.Validate(); err != nil {
		t.Errorf("default catalog should validate: %v", err)
	}
}

func TestCatalogValidate(t *testing.T) {
	tests := []struct {
		name  string
		entry PackEntry
	}{
		{"zero units", PackEntry{UnitsPerPack: 0, PricePerPack: 1}},
		{"negative price", PackEntry{UnitsPerPack: 1, PricePerPack: -1}},
		{"NaN price", PackEntry{UnitsPerPack: 1, PricePerPack: math.NaN()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := PackCatalog{PartEndCap: tt.entry}.Validate()
			if !errors.Is(err, ErrInvalidCatalog) {
				t.Errorf("expected ErrInvalidCatalog, got %v", err)
			}
		})
	}
}

func TestCatalogClone(t *testing.T) {
	c := DefaultCatalog()
	cp := c.Clone()
	cp[PartEndCap] = PackEntry{UnitsPerPack: 1, PricePerPack: 1}

	if c[PartEndCap].UnitsPerPack != 50 {
		t.Error("modifying the clone should not affect the original")
	}
}
