package usecases

import (
	"sort"
	"time"

	"github.com/routepulse/routepulse/internal/core/domain"
	"github.com/routepulse/routepulse/internal/pkg/geospatial"
)

// SimulationService answers point-in-time position queries against a
// timestamp-ordered route. It holds no state between calls: every
// result is a pure function of the route and the query timestamps.
type SimulationService struct{}

// NewSimulationService creates a new SimulationService.
func NewSimulationService() *SimulationService {
	return &SimulationService{}
}

// SimulateAt returns the object's position at t. Queries before the
// first waypoint or after the last are extrapolated: the boundary
// waypoint's coordinate with the adjacent segment's speed and bearing
// held constant.
func (s *SimulationService) SimulateAt(route *domain.Route, t time.Time) (*domain.SimulatedPosition, error) {
	if route == nil || len(route.Waypoints) == 0 {
		return nil, domain.ErrEmptyRoute
	}
	pos := s.at(route, t, 0)
	return &pos, nil
}

// SimulateBatch answers one query per timestamp, preserving input
// order. Each query is computed independently; when the input
// timestamps are themselves sorted the bracket search advances a
// cursor instead of restarting, otherwise every query falls back to a
// full binary search.
func (s *SimulationService) SimulateBatch(route *domain.Route, ts []time.Time) ([]domain.SimulatedPosition, error) {
	if route == nil || len(route.Waypoints) == 0 {
		return nil, domain.ErrEmptyRoute
	}

	sorted := true
	for i := 1; i < len(ts); i++ {
		if ts[i].Before(ts[i-1]) {
			sorted = false
			break
		}
	}

	out := make([]domain.SimulatedPosition, 0, len(ts))
	cursor := 0
	for _, t := range ts {
		if !sorted {
			cursor = 0
		}
		pos := s.at(route, t, cursor)
		if pos.Progress != nil {
			cursor = pos.Progress.SegmentIndex
		}
		out = append(out, pos)
	}
	return out, nil
}

// at computes one position. hint is a segment index known to start at
// or before t; 0 is always safe.
func (s *SimulationService) at(route *domain.Route, t time.Time, hint int) domain.SimulatedPosition {
	wps := route.Waypoints
	n := len(wps)
	first, last := wps[0], wps[n-1]

	if t.Before(first.Time) {
		return extrapolated(wps, t, domain.SourceExtrapolatedBefore)
	}
	if t.After(last.Time) {
		return extrapolated(wps, t, domain.SourceExtrapolatedAfter)
	}

	if n == 1 {
		// Single waypoint and t equals its timestamp.
		return domain.SimulatedPosition{
			Location: roundedLocation(first.Location),
			Time:     t,
			Heading:  geospatial.Heading(0),
			Source:   domain.SourceExactMatch,
			Status:   domain.StatusParked,
		}
	}

	seg := bracket(wps, t, hint)
	w0, w1 := wps[seg], wps[seg+1]
	itp := Interpolate(w0, w1, t)

	status := domain.StatusMoving
	if itp.SpeedMps == 0 {
		status = domain.StatusParked
	}

	return domain.SimulatedPosition{
		Location:     roundedLocation(itp.Location),
		Time:         t,
		Interpolated: itp.Source == domain.SourceInterpolated,
		BearingDeg:   itp.BearingDeg,
		SpeedMps:     itp.SpeedMps,
		Heading:      geospatial.Heading(itp.BearingDeg),
		Source:       itp.Source,
		Status:       status,
		Progress: &domain.RouteProgress{
			SegmentIndex:       seg,
			SegmentFraction:    itp.Fraction,
			OverallPercent:     (float64(seg) + itp.Fraction) / float64(n-1) * 100,
			CompletedWaypoints: seg,
			TotalWaypoints:     n,
			RemainingWaypoints: n - seg,
		},
		ETA: &domain.ETA{
			NextWaypoint:     w1.Time,
			FinalDestination: last.Time,
		},
	}
}

// roundedLocation clamps a coordinate to the stable output precision.
// Geodesic math upstream runs at full double precision; rounding happens
// once, here, when the position is assembled.
func roundedLocation(c domain.Coordinate) domain.Coordinate {
	return domain.Coordinate{
		Lat: geospatial.Round6(c.Lat),
		Lon: geospatial.Round6(c.Lon),
	}
}

// bracket locates the segment whose time span contains t, assuming the
// route is timestamp-ordered and first.Time ≤ t ≤ last.Time. The
// search is binary over the waypoints after hint.
func bracket(wps []domain.Waypoint, t time.Time, hint int) int {
	if hint < 0 || hint >= len(wps)-1 {
		hint = 0
	}
	tail := wps[hint:]
	// First waypoint strictly after t; the segment starts one before it.
	i := sort.Search(len(tail), func(k int) bool {
		return tail[k].Time.After(t)
	})
	seg := hint + i - 1
	if seg < 0 {
		seg = 0
	}
	if seg > len(wps)-2 {
		seg = len(wps) - 2
	}
	return seg
}

// extrapolated builds an out-of-range result: the boundary waypoint's
// coordinate with the adjacent segment's motion held constant.
func extrapolated(wps []domain.Waypoint, t time.Time, source domain.PositionSource) domain.SimulatedPosition {
	n := len(wps)

	var anchor, other domain.Waypoint
	status := domain.StatusNotStarted
	if source == domain.SourceExtrapolatedBefore {
		anchor = wps[0]
		if n > 1 {
			other = wps[1]
		}
	} else {
		anchor = wps[n-1]
		if n > 1 {
			other = wps[n-2]
		}
		status = domain.StatusCompleted
	}

	var speed, bearing float64
	if n > 1 {
		w0, w1 := anchor, other
		if source == domain.SourceExtrapolatedAfter {
			w0, w1 = other, anchor
		}
		if d := w1.Time.Sub(w0.Time); d > 0 {
			speed = geospatial.Haversine(w0.Location.Lat, w0.Location.Lon, w1.Location.Lat, w1.Location.Lon) / d.Seconds()
		}
		bearing = geospatial.Bearing(w0.Location.Lat, w0.Location.Lon, w1.Location.Lat, w1.Location.Lon)
	}

	return domain.SimulatedPosition{
		Location:   roundedLocation(anchor.Location),
		Time:       t,
		BearingDeg: bearing,
		SpeedMps:   speed,
		Heading:    geospatial.Heading(bearing),
		Source:     source,
		Status:     status,
	}
}
