package engine

import "github.com/piwi3910/SolarRack/internal/model"

// PanelsPerConnectorPack is the number of panels one MC4 connector set serves.
const PanelsPerConnectorPack = 30

// ApplyAccessories returns a copy of base extended with the requested
// accessories. Accessory quantities are set, not added, and accessories that
// are not requested are removed, so applying the same options twice gives the
// same bundle. selectedCells is the number of selected cells in the whole grid.
func ApplyAccessories(base model.PartsBundle, opts model.AccessoryOptions, selectedCells int) model.PartsBundle {
	parts := base.Clone()

	if opts.ExcludeModules {
		delete(parts, model.PartModule)
	}

	if opts.MC4Connectors {
		parts[model.PartMC4Connector] = (selectedCells + PanelsPerConnectorPack - 1) / PanelsPerConnectorPack
	} else {
		delete(parts, model.PartMC4Connector)
	}

	if opts.SolarCable {
		parts[model.PartSolarCable] = 1
	} else {
		delete(parts, model.PartSolarCable)
	}

	if opts.WoodUnderlay {
		parts[model.PartWoodUnderlay] = parts.Get(model.PartRail240) + parts.Get(model.PartRail360)
	} else {
		delete(parts, model.PartWoodUnderlay)
	}

	return parts
}
