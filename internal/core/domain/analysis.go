package domain

import "time"

// AnomalyKind classifies a physical implausibility found during analysis.
type AnomalyKind string

const (
	AnomalyNonMonotonicTime   AnomalyKind = "NON_MONOTONIC_TIME"
	AnomalyDuplicateTimestamp AnomalyKind = "DUPLICATE_TIMESTAMP"
	AnomalyTeleport           AnomalyKind = "TELEPORT"
	AnomalyStationaryGap      AnomalyKind = "STATIONARY_GAP"
	AnomalyOutOfBounds        AnomalyKind = "OUT_OF_BOUNDS"
)

// AnomalySeverity separates findings that invalidate a route from
// informational ones.
type AnomalySeverity string

const (
	SeverityWarning AnomalySeverity = "warning"
	SeverityError   AnomalySeverity = "error"
)

// Anomaly is a flagged finding. Anomalies are data, not errors: the
// analyzer accumulates all of them in one pass so a reviewer sees every
// problem at once instead of failing fast on the first.
type Anomaly struct {
	Kind            AnomalyKind     `json:"kind"`
	Severity        AnomalySeverity `json:"severity"`
	WaypointIndexes []int           `json:"waypoint_indexes"`
	Message         string          `json:"message"`
}

// Segment is the per-pair breakdown of a route.
type Segment struct {
	Index           int     `json:"index"`
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds float64 `json:"duration_seconds"`
	SpeedMps        float64 `json:"speed_mps"`
	BearingDeg      float64 `json:"bearing_deg"`
}

// SpeedDistribution buckets segment speeds in m/s.
type SpeedDistribution struct {
	Under5     int `json:"under_5"`
	From5To15  int `json:"from_5_to_15"`
	From15To30 int `json:"from_15_to_30"`
	Over30     int `json:"over_30"`
}

// AnalysisReport is the result of one read-only pass over a route.
// Valid is false iff any anomaly has severity error.
type AnalysisReport struct {
	TotalDistanceMeters float64           `json:"total_distance_meters"`
	DurationSeconds     float64           `json:"duration_seconds"`
	AverageSpeedMps     float64           `json:"average_speed_mps"`
	MaxSpeedMps         float64           `json:"max_speed_mps"`
	Bounds              *Bounds           `json:"bounds,omitempty"`
	Segments            []Segment         `json:"segments"`
	SpeedDistribution   SpeedDistribution `json:"speed_distribution"`
	Anomalies           []Anomaly         `json:"anomalies"`
	Valid               bool              `json:"valid"`
}

// Thresholds configures anomaly detection per call, so a vehicle route
// and a flight route can be judged by different limits.
type Thresholds struct {
	MaxPlausibleSpeedMps float64       `json:"max_plausible_speed_mps"`
	MinMovementMeters    float64       `json:"min_movement_meters"`
	StationaryGap        time.Duration `json:"stationary_gap"`
}

// DefaultThresholds returns the stock limits: max plausible speed near
// the speed of sound, one meter of minimum movement, and stationary-gap
// reporting for any positive duration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxPlausibleSpeedMps: 340,
		MinMovementMeters:    1,
		StationaryGap:        0,
	}
}
