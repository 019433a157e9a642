package geo

// Extrusion heights in meters per category policy. Airports and ports
// derive height from their class/subtype tags, warehouses from explicit
// height or floor count.
const (
	elevAirport        = 8
	elevTerminal       = 15
	elevHelipad        = 3
	elevAirportDefault = 5

	elevQuay        = 8
	elevPier        = 5
	elevPortDefault = 3

	elevWarehouseDefault = 8
	metersPerFloor       = 4
)

// FeatureElevation derives the renderer extrusion height for a feature.
func FeatureElevation(cat Category, f *Feature) float64 {
	switch cat {
	case CategoryAirport:
		switch f.Properties.Class() {
		case "airport", "international_airport":
			return elevAirport
		case "terminal":
			return elevTerminal
		case "helipad", "heliport":
			return elevHelipad
		}
		return elevAirportDefault

	case CategoryPort:
		switch f.Properties.Subtype() {
		case "quay":
			return elevQuay
		case "pier":
			return elevPier
		}
		return elevPortDefault

	case CategoryWarehouse:
		if h := f.Properties.Height(); h > 0 {
			return h
		}
		if n := f.Properties.NumFloors(); n > 0 {
			return n * metersPerFloor
		}
		return elevWarehouseDefault
	}

	return 0
}
