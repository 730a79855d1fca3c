package usecases_test

import (
	"math"
	"testing"
	"time"

	"github.com/routepulse/routepulse/internal/core/domain"
	"github.com/routepulse/routepulse/internal/core/usecases"
)

var segmentStart = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func wp(lat, lon float64, offset time.Duration) domain.Waypoint {
	return domain.Waypoint{
		Location: domain.Coordinate{Lat: lat, Lon: lon},
		Time:     segmentStart.Add(offset),
	}
}

func TestInterpolate_ExactMatchEndpoints(t *testing.T) {
	w0 := wp(33.6844, 73.0479, 0)
	w1 := wp(33.6938, 73.0651, 10*time.Minute)

	at0 := usecases.Interpolate(w0, w1, w0.Time)
	if at0.Source != domain.SourceExactMatch {
		t.Errorf("expected exact match at segment start, got %s", at0.Source)
	}
	if at0.Location != w0.Location {
		t.Errorf("expected w0 location, got %+v", at0.Location)
	}
	if at0.Fraction != 0 {
		t.Errorf("expected fraction 0, got %f", at0.Fraction)
	}

	at1 := usecases.Interpolate(w0, w1, w1.Time)
	if at1.Source != domain.SourceExactMatch {
		t.Errorf("expected exact match at segment end, got %s", at1.Source)
	}
	if at1.Location != w1.Location {
		t.Errorf("expected w1 location, got %+v", at1.Location)
	}
	if at1.Fraction != 1 {
		t.Errorf("expected fraction 1, got %f", at1.Fraction)
	}
}

func TestInterpolate_Midpoint(t *testing.T) {
	w0 := wp(33.6844, 73.0479, 0)
	w1 := wp(33.6938, 73.0651, 10*time.Minute)

	mid := usecases.Interpolate(w0, w1, segmentStart.Add(5*time.Minute))
	if mid.Source != domain.SourceInterpolated {
		t.Errorf("expected interpolated, got %s", mid.Source)
	}
	if mid.Fraction != 0.5 {
		t.Errorf("expected fraction 0.5, got %f", mid.Fraction)
	}

	// Roughly midway between the endpoints; the great-circle midpoint
	// of a 2 km segment is within a few meters of the coordinate mean.
	wantLat := (w0.Location.Lat + w1.Location.Lat) / 2
	wantLon := (w0.Location.Lon + w1.Location.Lon) / 2
	if math.Abs(mid.Location.Lat-wantLat) > 0.001 {
		t.Errorf("midpoint lat %f too far from %f", mid.Location.Lat, wantLat)
	}
	if math.Abs(mid.Location.Lon-wantLon) > 0.001 {
		t.Errorf("midpoint lon %f too far from %f", mid.Location.Lon, wantLon)
	}

	// ~1.9 km over 600 s
	if mid.SpeedMps < 3.0 || mid.SpeedMps > 3.5 {
		t.Errorf("expected speed near 3.2 m/s, got %f", mid.SpeedMps)
	}
}

func TestInterpolate_FractionClamped(t *testing.T) {
	w0 := wp(10, 10, 0)
	w1 := wp(11, 10, time.Hour)

	before := usecases.Interpolate(w0, w1, segmentStart.Add(-time.Minute))
	if before.Fraction != 0 {
		t.Errorf("expected clamped fraction 0, got %f", before.Fraction)
	}
	if before.Location != w0.Location {
		t.Errorf("expected w0 location, got %+v", before.Location)
	}

	after := usecases.Interpolate(w0, w1, segmentStart.Add(2*time.Hour))
	if after.Fraction != 1 {
		t.Errorf("expected clamped fraction 1, got %f", after.Fraction)
	}
	if after.Location != w1.Location {
		t.Errorf("expected w1 location, got %+v", after.Location)
	}
}

func TestInterpolate_ZeroDurationDegenerate(t *testing.T) {
	w0 := wp(10, 10, 0)
	w1 := wp(11, 11, 0)

	got := usecases.Interpolate(w0, w1, segmentStart)
	if !got.Degenerate {
		t.Error("expected degenerate interpolation for zero-duration pair")
	}
	if got.Location != w0.Location {
		t.Errorf("expected w0 location, got %+v", got.Location)
	}
	if got.SpeedMps != 0 {
		t.Errorf("expected zero speed, got %f", got.SpeedMps)
	}
}

func TestInterpolate_StationarySegment(t *testing.T) {
	w0 := wp(10, 10, 0)
	w1 := wp(10, 10, time.Hour)

	got := usecases.Interpolate(w0, w1, segmentStart.Add(30*time.Minute))
	if got.SpeedMps != 0 {
		t.Errorf("expected zero speed for stationary segment, got %f", got.SpeedMps)
	}
	if math.Abs(got.Location.Lat-10) > 1e-9 || math.Abs(got.Location.Lon-10) > 1e-9 {
		t.Errorf("expected the parked coordinate, got %+v", got.Location)
	}
}
