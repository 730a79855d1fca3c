package usecases

import (
	"fmt"

	"github.com/routepulse/routepulse/internal/core/domain"
	"github.com/routepulse/routepulse/internal/pkg/geospatial"
)

// AnalysisService walks a route once, computing aggregate statistics
// and accumulating anomalies. Analysis is read-only and always returns
// a full report; anomalies are findings in the report, never errors.
type AnalysisService struct{}

// NewAnalysisService creates a new AnalysisService.
func NewAnalysisService() *AnalysisService {
	return &AnalysisService{}
}

// Analyze validates a route for physical plausibility against the given
// thresholds and returns the complete report. The route is never
// mutated. An empty route is the only failure mode.
func (s *AnalysisService) Analyze(route *domain.Route, th domain.Thresholds) (*domain.AnalysisReport, error) {
	if route == nil || len(route.Waypoints) == 0 {
		return nil, domain.ErrEmptyRoute
	}

	wps := route.Waypoints
	n := len(wps)

	report := &domain.AnalysisReport{
		Segments:  []domain.Segment{},
		Anomalies: []domain.Anomaly{},
		Bounds:    routeBounds(wps),
	}

	// Coordinate range findings are per waypoint, so a bad point is
	// flagged once even though it belongs to two segments.
	invalid := make([]bool, n)
	for i, w := range wps {
		if !w.Location.Valid() {
			invalid[i] = true
			report.Anomalies = append(report.Anomalies, domain.Anomaly{
				Kind:            domain.AnomalyOutOfBounds,
				Severity:        domain.SeverityError,
				WaypointIndexes: []int{i},
				Message:         fmt.Sprintf("waypoint %d coordinate (%.6f, %.6f) out of range", i, w.Location.Lat, w.Location.Lon),
			})
		}
	}

	for i := 0; i < n-1; i++ {
		w0, w1 := wps[i], wps[i+1]
		pair := []int{i, i + 1}

		segDuration := w1.Time.Sub(w0.Time).Seconds()
		if segDuration < 0 {
			report.Anomalies = append(report.Anomalies, domain.Anomaly{
				Kind:            domain.AnomalyNonMonotonicTime,
				Severity:        domain.SeverityError,
				WaypointIndexes: pair,
				Message:         fmt.Sprintf("waypoint %d is %.0fs earlier than waypoint %d", i+1, -segDuration, i),
			})
		}

		// Distance between out-of-range points is meaningless; skip the
		// motion checks for such pairs.
		if invalid[i] || invalid[i+1] {
			continue
		}

		segDistance := geospatial.Haversine(w0.Location.Lat, w0.Location.Lon, w1.Location.Lat, w1.Location.Lon)
		bearing := geospatial.Bearing(w0.Location.Lat, w0.Location.Lon, w1.Location.Lat, w1.Location.Lon)
		report.TotalDistanceMeters += segDistance

		var segSpeed float64
		switch {
		case segDuration > 0:
			segSpeed = segDistance / segDuration
			if segSpeed > th.MaxPlausibleSpeedMps {
				report.Anomalies = append(report.Anomalies, domain.Anomaly{
					Kind:            domain.AnomalyTeleport,
					Severity:        domain.SeverityError,
					WaypointIndexes: pair,
					Message:         fmt.Sprintf("segment speed %.1f m/s exceeds plausible maximum %.1f m/s", segSpeed, th.MaxPlausibleSpeedMps),
				})
			}
		case segDuration == 0 && segDistance > th.MinMovementMeters:
			// Division-by-zero guard: instantaneous displacement.
			report.Anomalies = append(report.Anomalies, domain.Anomaly{
				Kind:            domain.AnomalyTeleport,
				Severity:        domain.SeverityError,
				WaypointIndexes: pair,
				Message:         fmt.Sprintf("%.0f m traveled in zero time", segDistance),
			})
		case segDuration == 0:
			report.Anomalies = append(report.Anomalies, domain.Anomaly{
				Kind:            domain.AnomalyDuplicateTimestamp,
				Severity:        domain.SeverityError,
				WaypointIndexes: pair,
				Message:         fmt.Sprintf("waypoints %d and %d share the same timestamp", i, i+1),
			})
		}

		if segDuration > 0 && segDistance < th.MinMovementMeters && segDuration >= th.StationaryGap.Seconds() {
			report.Anomalies = append(report.Anomalies, domain.Anomaly{
				Kind:            domain.AnomalyStationaryGap,
				Severity:        domain.SeverityWarning,
				WaypointIndexes: pair,
				Message:         fmt.Sprintf("under %.0f m of movement over %.0fs", th.MinMovementMeters, segDuration),
			})
		}

		if segSpeed > report.MaxSpeedMps {
			report.MaxSpeedMps = segSpeed
		}

		report.Segments = append(report.Segments, domain.Segment{
			Index:           i,
			DistanceMeters:  segDistance,
			DurationSeconds: segDuration,
			SpeedMps:        segSpeed,
			BearingDeg:      bearing,
		})

		switch {
		case segSpeed < 5:
			report.SpeedDistribution.Under5++
		case segSpeed < 15:
			report.SpeedDistribution.From5To15++
		case segSpeed < 30:
			report.SpeedDistribution.From15To30++
		default:
			report.SpeedDistribution.Over30++
		}
	}

	if n >= 2 {
		report.DurationSeconds = wps[n-1].Time.Sub(wps[0].Time).Seconds()
		if report.DurationSeconds > 0 {
			report.AverageSpeedMps = report.TotalDistanceMeters / report.DurationSeconds
		}
	}

	report.Valid = true
	for _, a := range report.Anomalies {
		if a.Severity == domain.SeverityError {
			report.Valid = false
			break
		}
	}
	return report, nil
}

// routeBounds computes the NE/SW corners and center over the in-range
// waypoints. Nil when no waypoint has a usable coordinate.
func routeBounds(wps []domain.Waypoint) *domain.Bounds {
	var (
		found                          bool
		minLat, minLon, maxLat, maxLon float64
	)
	for _, w := range wps {
		if !w.Location.Valid() {
			continue
		}
		if !found {
			minLat, maxLat = w.Location.Lat, w.Location.Lat
			minLon, maxLon = w.Location.Lon, w.Location.Lon
			found = true
			continue
		}
		if w.Location.Lat < minLat {
			minLat = w.Location.Lat
		}
		if w.Location.Lat > maxLat {
			maxLat = w.Location.Lat
		}
		if w.Location.Lon < minLon {
			minLon = w.Location.Lon
		}
		if w.Location.Lon > maxLon {
			maxLon = w.Location.Lon
		}
	}
	if !found {
		return nil
	}
	return &domain.Bounds{
		Northeast: domain.Coordinate{Lat: maxLat, Lon: maxLon},
		Southwest: domain.Coordinate{Lat: minLat, Lon: minLon},
		Center:    domain.Coordinate{Lat: (minLat + maxLat) / 2, Lon: (minLon + maxLon) / 2},
	}
}
