package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrEmptyRoute is returned when an operation that needs at least one
// waypoint receives a route with none.
var ErrEmptyRoute = errors.New("route has no waypoints")

// ErrInvalidCoordinate is returned when a coordinate outside the valid
// latitude/longitude range is supplied directly to an operation.
var ErrInvalidCoordinate = errors.New("coordinate out of range")

// Waypoint is a timestamped sample of the tracked object's state.
// Altitude and Speed are optional; Speed may be derived downstream.
type Waypoint struct {
	ID       string     `json:"id,omitempty"`
	Location Coordinate `json:"location"`
	Time     time.Time  `json:"time"`
	Altitude *float64   `json:"altitude,omitempty"` // meters
	Speed    *float64   `json:"speed,omitempty"`    // m/s
}

// Route is an ordered sequence of waypoints for one tracked object.
// Ordering by ascending timestamp is expected but not enforced here;
// the analyzer reports violations instead of assuming them away.
type Route struct {
	ID        string     `json:"id,omitempty"`
	Waypoints []Waypoint `json:"waypoints"`
}

// NewRoute builds a Route after boundary validation: the route must be
// non-empty and every waypoint coordinate must be in range. Malformed
// input is rejected here rather than failing deep inside the math.
func NewRoute(id string, waypoints []Waypoint) (*Route, error) {
	if len(waypoints) == 0 {
		return nil, ErrEmptyRoute
	}
	for i, w := range waypoints {
		if !w.Location.Valid() {
			return nil, fmt.Errorf("waypoint %d (%.6f, %.6f): %w",
				i, w.Location.Lat, w.Location.Lon, ErrInvalidCoordinate)
		}
	}
	return &Route{ID: id, Waypoints: waypoints}, nil
}

// Start returns the first waypoint's timestamp.
func (r *Route) Start() time.Time { return r.Waypoints[0].Time }

// End returns the last waypoint's timestamp.
func (r *Route) End() time.Time { return r.Waypoints[len(r.Waypoints)-1].Time }

// Duration returns End − Start; zero for a single-waypoint route.
func (r *Route) Duration() time.Duration {
	if len(r.Waypoints) < 2 {
		return 0
	}
	return r.End().Sub(r.Start())
}
