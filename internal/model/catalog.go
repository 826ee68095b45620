package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidCatalog is returned when a catalog entry has impossible values.
var ErrInvalidCatalog = errors.New("invalid catalog")

// PackEntry describes how a part is sold.
type PackEntry struct {
	UnitsPerPack int     `json:"units_per_pack"` // Items contained in one pack, at least 1
	PricePerPack float64 `json:"price_per_pack"` // Net price of one pack
}

// PackCatalog maps part names to their pack size and price. It is loaded once
// and treated as read-only during calculations, so it can be shared between
// goroutines without locking.
type PackCatalog map[PartName]PackEntry

// DefaultCatalog returns the storefront's standard pack sizes and prices.
func DefaultCatalog() PackCatalog {
	return PackCatalog{
		PartModule:         {UnitsPerPack: 1, PricePerPack: 59.70},
		PartEndClamp:       {UnitsPerPack: 50, PricePerPack: 20.00},
		PartMiddleClamp:    {UnitsPerPack: 50, PricePerPack: 18.00},
		PartRoofHook:       {UnitsPerPack: 20, PricePerPack: 85.00},
		PartScrew:          {UnitsPerPack: 100, PricePerPack: 5.00},
		PartPanHeadScrew:   {UnitsPerPack: 100, PricePerPack: 10.00},
		PartEndCap:         {UnitsPerPack: 50, PricePerPack: 9.99},
		PartRailConnector:  {UnitsPerPack: 50, PricePerPack: 9.99},
		PartRail240:        {UnitsPerPack: 1, PricePerPack: 38.92},
		PartRail360:        {UnitsPerPack: 1, PricePerPack: 44.86},
		PartGroundingStrap: {UnitsPerPack: 1, PricePerPack: 11.99},
		PartMC4Connector:   {UnitsPerPack: 1, PricePerPack: 59.50},
		PartSolarCable:     {UnitsPerPack: 1, PricePerPack: 59.99},
		PartWoodUnderlay:   {UnitsPerPack: 50, PricePerPack: 17.50},
	}
}

// Lookup returns the entry for a part and whether it exists.
func (c PackCatalog) Lookup(p PartName) (PackEntry, bool) {
	e, ok := c[p]
	return e, ok
}

// Validate checks every entry: pack sizes must be at least one and prices
// must be finite and non-negative.
func (c PackCatalog) Validate() error {
	for _, p := range c.Names() {
		e := c[p]
		if e.UnitsPerPack < 1 {
			return fmt.Errorf("%s: units per pack %d: %w", p, e.UnitsPerPack, ErrInvalidCatalog)
		}
		if e.PricePerPack < 0 || math.IsNaN(e.PricePerPack) || math.IsInf(e.PricePerPack, 0) {
			return fmt.Errorf("%s: price per pack %v: %w", p, e.PricePerPack, ErrInvalidCatalog)
		}
	}
	return nil
}

// Names returns the catalog's part names in canonical order.
func (c PackCatalog) Names() []PartName {
	names := make([]PartName, 0, len(c))
	for p := range c {
		names = append(names, p)
	}
	SortPartNames(names)
	return names
}

// Clone returns an independent copy of the catalog.
func (c PackCatalog) Clone() PackCatalog {
	cp := make(PackCatalog, len(c))
	for p, e := range c {
		cp[p] = e
	}
	return cp
}
