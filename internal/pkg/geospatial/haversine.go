// Package geospatial holds the pure great-circle math the simulation
// core is built on. All functions take decimal degrees, convert to
// radians internally, and never round mid-computation; rounding happens
// only at the serialization boundary.
package geospatial

import "math"

// earthRadiusM is the mean Earth radius of the spherical model.
const earthRadiusM = 6371000.0

// Haversine calculates the great-circle distance in meters between two
// points. Symmetric in its arguments; zero for identical points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}

// Bearing returns the initial compass bearing in degrees [0, 360) from
// the first point toward the second along the great circle. Identical
// points have no defined bearing; 0 is returned.
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	if lat1 == lat2 && lon1 == lon2 {
		return 0
	}
	phi1 := toRad(lat1)
	phi2 := toRad(lat2)
	dLon := toRad(lon2 - lon1)

	y := math.Sin(dLon) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLon)

	return math.Mod(toDeg(math.Atan2(y, x))+360, 360)
}

// Destination projects a point forward along a great circle by the given
// bearing (degrees) and distance (meters), using the spherical forward
// formula. Longitude is normalized to [-180, 180].
func Destination(lat, lon, bearingDeg, distanceM float64) (float64, float64) {
	phi1 := toRad(lat)
	lambda1 := toRad(lon)
	theta := toRad(bearingDeg)
	delta := distanceM / earthRadiusM

	phi2 := math.Asin(math.Sin(phi1)*math.Cos(delta) +
		math.Cos(phi1)*math.Sin(delta)*math.Cos(theta))
	lambda2 := lambda1 + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(phi1),
		math.Cos(delta)-math.Sin(phi1)*math.Sin(phi2))

	lon2 := math.Mod(toDeg(lambda2)+540, 360) - 180
	return toDeg(phi2), lon2
}

// compassNames are the 8-wind directions, clockwise from north.
var compassNames = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// Heading maps a bearing in degrees to its 8-wind compass name.
func Heading(bearingDeg float64) string {
	idx := int(math.Mod(bearingDeg+22.5, 360) / 45)
	return compassNames[idx&7]
}

// Round6 rounds a coordinate component to 6 decimal places (~0.1 m),
// the stable output precision.
func Round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
