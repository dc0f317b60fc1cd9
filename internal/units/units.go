// Package units provides shared constants and validation for
// acceleration units used by ingest adapters.
package units

// Unit constants
const (
	G   = "g"   // standard gravity
	MG  = "mg"  // milli-g
	MS2 = "ms2" // metres per second squared
)

// StandardGravity is one g in m/s².
const StandardGravity = 9.80665

// ValidUnits contains all valid unit values
var ValidUnits = []string{G, MG, MS2}

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
	return "g, mg, ms2"
}

// ConvertToG converts an acceleration in the source units to g.
// The pipeline operates on g throughout.
func ConvertToG(value float64, sourceUnits string) float64 {
	switch sourceUnits {
	case G:
		return value
	case MG:
		return value / 1000
	case MS2:
		return value / StandardGravity
	default:
		return value
	}
}
