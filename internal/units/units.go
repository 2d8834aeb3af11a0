// Package units provides shared constants and validation for area units
package units

// Unit constants
const (
	M2  = "m2"
	HA  = "ha"
	KM2 = "km2"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{M2, HA, KM2}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "m2, ha, km2"
}

// ConvertArea converts an area from square metres to the target units.
// Aggregation and the results database always store areas in m2.
func ConvertArea(areaM2 float64, targetUnits string) float64 {
	switch targetUnits {
	case HA:
		return areaM2 / 10000 // m2 to hectares
	case KM2:
		return areaM2 / 1e6 // m2 to square kilometres
	case M2:
		return areaM2 // no conversion needed
	default:
		return areaM2 // default to m2 if unknown unit
	}
}
