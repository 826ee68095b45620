package model

import "sort"

// PartName identifies one line of the bill of materials. The values are the
// article keys used by the storefront catalog.
type PartName string

const (
	PartModule         PartName = "Solarmodul"
	PartEndClamp       PartName = "Endklemmen"
	PartMiddleClamp    PartName = "Mittelklemmen"
	PartRoofHook       PartName = "Dachhaken"
	PartScrew          PartName = "Schrauben"
	PartPanHeadScrew   PartName = "Tellerkopfschraube"
	PartEndCap         PartName = "Endkappen"
	PartRailConnector  PartName = "Schienenverbinder"
	PartRail240        PartName = "Schiene_240cm"
	PartRail360        PartName = "Schiene_360cm"
	PartGroundingStrap PartName = "GroundingStrap"

	// Accessories
	PartMC4Connector PartName = "MC4Connector"
	PartSolarCable   PartName = "SolarCable"
	PartWoodUnderlay PartName = "WoodUnderlay"
)

// BaseParts lists the parts every calculation produces, in display order.
var BaseParts = []PartName{
	PartModule,
	PartEndClamp,
	PartMiddleClamp,
	PartRoofHook,
	PartScrew,
	PartPanHeadScrew,
	PartEndCap,
	PartRailConnector,
	PartRail240,
	PartRail360,
	PartGroundingStrap,
}

// AccessoryParts lists the optional add-on parts in display order.
var AccessoryParts = []PartName{
	PartMC4Connector,
	PartSolarCable,
	PartWoodUnderlay,
}

var partLabels = map[PartName]string{
	PartModule:         "Solar module",
	PartEndClamp:       "End clamp",
	PartMiddleClamp:    "Middle clamp",
	PartRoofHook:       "Roof hook",
	PartScrew:          "Screw",
	PartPanHeadScrew:   "Pan head screw",
	PartEndCap:         "End cap",
	PartRailConnector:  "Rail connector",
	PartRail240:        "Rail 240 cm",
	PartRail360:        "Rail 360 cm",
	PartGroundingStrap: "Grounding strap (600 cm roll)",
	PartMC4Connector:   "MC4 connector set",
	PartSolarCable:     "Solar cable",
	PartWoodUnderlay:   "Wood underlay",
}

// Label returns a human-readable name for the part.
func (p PartName) Label() string {
	if l, ok := partLabels[p]; ok {
		return l
	}
	return string(p)
}

// Known reports whether the part belongs to the fixed enumeration.
func (p PartName) Known() bool {
	_, ok := partLabels[p]
	return ok
}

// partOrder maps each known part to its canonical position.
var partOrder = func() map[PartName]int {
	m := make(map[PartName]int)
	for i, p := range BaseParts {
		m[p] = i
	}
	for i, p := range AccessoryParts {
		m[p] = len(BaseParts) + i
	}
	return m
}()

// PartsBundle maps part names to required item counts. Quantities are always
// derived from a layout, never entered directly.
type PartsBundle map[PartName]int

// NewPartsBundle returns a bundle holding every base part at zero.
func NewPartsBundle() PartsBundle {
	b := make(PartsBundle, len(BaseParts)+len(AccessoryParts))
	for _, p := range BaseParts {
		b[p] = 0
	}
	return b
}

// Add increases the quantity of a part.
func (b PartsBundle) Add(p PartName, qty int) {
	b[p] += qty
}

// Get returns the quantity of a part, zero when absent.
func (b PartsBundle) Get(p PartName) int {
	return b[p]
}

// Has reports whether the part is present, even at zero.
func (b PartsBundle) Has(p PartName) bool {
	_, ok := b[p]
	return ok
}

// Merge adds every quantity of other into b.
func (b PartsBundle) Merge(other PartsBundle) {
	for p, q := range other {
		b[p] += q
	}
}

// Clone returns an independent copy.
func (b PartsBundle) Clone() PartsBundle {
	cp := make(PartsBundle, len(b))
	for p, q := range b {
		cp[p] = q
	}
	return cp
}

// Equal reports whether both bundles hold the same entries.
func (b PartsBundle) Equal(other PartsBundle) bool {
	if len(b) != len(other) {
		return false
	}
	for p, q := range b {
		oq, ok := other[p]
		if !ok || oq != q {
			return false
		}
	}
	return true
}

// Names returns the part names present in canonical order. Parts outside the
// enumeration follow, sorted alphabetically.
func (b PartsBundle) Names() []PartName {
	names := make([]PartName, 0, len(b))
	for p := range b {
		names = append(names, p)
	}
	SortPartNames(names)
	return names
}

// TotalItems returns the sum of all quantities.
func (b PartsBundle) TotalItems() int {
	total := 0
	for _, q := range b {
		total += q
	}
	return total
}

// SortPartNames orders names canonically in place.
func SortPartNames(names []PartName) {
	sort.Slice(names, func(i, j int) bool {
		oi, iKnown := partOrder[names[i]]
		oj, jKnown := partOrder[names[j]]
		switch {
		case iKnown && jKnown:
			return oi < oj
		case iKnown:
			return true
		case jKnown:
			return false
		default:
			return names[i] < names[j]
		}
	})
}
