// Package units provides aviation unit constants and conversions shared
// across the risk engine.
package units

// Conversion constants. The nautical mile is exactly 1852 m by ICAO
// definition.
const (
	MetersPerNauticalMile = 1852.0
	MinutesPerHour        = 60.0
)

// MetersToNauticalMiles converts a distance in metres to nautical miles.
func MetersToNauticalMiles(m float64) float64 {
	return m / MetersPerNauticalMile
}

// NauticalMilesPerMinuteToKnots converts a speed expressed in NM per
// minute to knots (NM per hour).
func NauticalMilesPerMinuteToKnots(v float64) float64 {
	return v * MinutesPerHour
}

// KnotsToNauticalMilesPerMinute converts a speed in knots to NM per
// minute.
func KnotsToNauticalMilesPerMinute(v float64) float64 {
	return v / MinutesPerHour
}
