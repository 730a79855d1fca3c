package usecases

import (
	"time"

	"github.com/routepulse/routepulse/internal/core/domain"
	"github.com/routepulse/routepulse/internal/pkg/geospatial"
)

// Interpolation is the reconstructed state at one instant inside a
// bracketing waypoint pair.
type Interpolation struct {
	Location   domain.Coordinate
	Fraction   float64
	SpeedMps   float64
	BearingDeg float64
	Degenerate bool
	Source     domain.PositionSource
}

// Interpolate computes the position at t between w0 and w1, with
// w0.Time ≤ t ≤ w1.Time expected. The path follows the great circle
// between the two samples rather than a degree-linear blend, which
// diverges from the true path over long segments and near the poles or
// the antimeridian. Speed and bearing are constant across a segment:
// the model assumes linear speed between consecutive samples.
//
// A zero-duration pair never raises: it degrades to w0's position with
// fraction 0 and Degenerate set, and the analyzer reports the pair
// separately if asked.
func Interpolate(w0, w1 domain.Waypoint, t time.Time) Interpolation {
	total := w1.Time.Sub(w0.Time)
	if total <= 0 {
		return Interpolation{
			Location:   w0.Location,
			Fraction:   0,
			Degenerate: true,
			Source:     domain.SourceExactMatch,
		}
	}

	fraction := float64(t.Sub(w0.Time)) / float64(total)
	if fraction < 0 {
		fraction = 0
	} else if fraction > 1 {
		fraction = 1
	}

	dist := geospatial.Haversine(w0.Location.Lat, w0.Location.Lon, w1.Location.Lat, w1.Location.Lon)
	bearing := geospatial.Bearing(w0.Location.Lat, w0.Location.Lon, w1.Location.Lat, w1.Location.Lon)
	speed := dist / total.Seconds()

	out := Interpolation{
		Fraction:   fraction,
		SpeedMps:   speed,
		BearingDeg: bearing,
	}

	switch fraction {
	case 0:
		out.Location = w0.Location
		out.Source = domain.SourceExactMatch
	case 1:
		out.Location = w1.Location
		out.Source = domain.SourceExactMatch
	default:
		lat, lon := geospatial.Destination(w0.Location.Lat, w0.Location.Lon, bearing, dist*fraction)
		out.Location = domain.Coordinate{Lat: lat, Lon: lon}
		out.Source = domain.SourceInterpolated
	}
	return out
}
