package domain

import "time"

// PositionSource describes how a simulated position was obtained.
type PositionSource string

const (
	SourceExactMatch         PositionSource = "exact_match"
	SourceInterpolated       PositionSource = "interpolated"
	SourceExtrapolatedBefore PositionSource = "extrapolated_before"
	SourceExtrapolatedAfter  PositionSource = "extrapolated_after"
)

// MotionStatus is a coarse activity label for a simulated position.
type MotionStatus string

const (
	StatusNotStarted MotionStatus = "not_started"
	StatusMoving     MotionStatus = "moving"
	StatusParked     MotionStatus = "parked"
	StatusCompleted  MotionStatus = "completed"
)

// RouteProgress locates a simulated position within the route.
type RouteProgress struct {
	SegmentIndex       int     `json:"segment_index"`
	SegmentFraction    float64 `json:"segment_fraction"`
	OverallPercent     float64 `json:"overall_percent"`
	CompletedWaypoints int     `json:"completed_waypoints"`
	TotalWaypoints     int     `json:"total_waypoints"`
	RemainingWaypoints int     `json:"remaining_waypoints"`
}

// ETA estimates arrival at the next waypoint and the final destination.
type ETA struct {
	NextWaypoint     time.Time `json:"next_waypoint"`
	FinalDestination time.Time `json:"final_destination"`
}

// SimulatedPosition is the answer to one point-in-time query.
// Time echoes the query timestamp, never a clamped value.
type SimulatedPosition struct {
	Location     Coordinate     `json:"location"`
	Time         time.Time      `json:"time"`
	Interpolated bool           `json:"interpolated"`
	BearingDeg   float64        `json:"bearing_deg"`
	SpeedMps     float64        `json:"speed_mps"`
	Heading      string         `json:"heading"`
	Source       PositionSource `json:"source"`
	Status       MotionStatus   `json:"status"`
	Progress     *RouteProgress `json:"progress,omitempty"`
	ETA          *ETA           `json:"eta,omitempty"`
}
