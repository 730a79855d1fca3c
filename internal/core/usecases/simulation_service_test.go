package usecases_test

import (
	"math"
	"testing"
	"time"

	"github.com/routepulse/routepulse/internal/core/domain"
	"github.com/routepulse/routepulse/internal/core/usecases"
)

func testRoute(t *testing.T, waypoints ...domain.Waypoint) *domain.Route {
	t.Helper()
	route, err := domain.NewRoute("test-route", waypoints)
	if err != nil {
		t.Fatalf("build route: %v", err)
	}
	return route
}

func TestSimulateAt_EmptyRoute(t *testing.T) {
	svc := usecases.NewSimulationService()

	if _, err := svc.SimulateAt(nil, time.Now()); err != domain.ErrEmptyRoute {
		t.Errorf("expected ErrEmptyRoute for nil route, got %v", err)
	}
	if _, err := svc.SimulateBatch(&domain.Route{}, []time.Time{time.Now()}); err != domain.ErrEmptyRoute {
		t.Errorf("expected ErrEmptyRoute for empty route, got %v", err)
	}
}

func TestSimulateAt_MidSegment(t *testing.T) {
	svc := usecases.NewSimulationService()
	route := testRoute(t,
		wp(33.6844, 73.0479, 0),
		wp(33.6938, 73.0651, 10*time.Minute),
	)

	pos, err := svc.SimulateAt(route, segmentStart.Add(5*time.Minute))
	if err != nil {
		t.Fatal(err)
	}

	if pos.Source != domain.SourceInterpolated {
		t.Errorf("expected interpolated source, got %s", pos.Source)
	}
	if !pos.Interpolated {
		t.Error("expected Interpolated flag set")
	}
	if pos.Status != domain.StatusMoving {
		t.Errorf("expected moving status, got %s", pos.Status)
	}
	if pos.SpeedMps < 3.0 || pos.SpeedMps > 3.5 {
		t.Errorf("expected speed near 3.2 m/s, got %f", pos.SpeedMps)
	}
	if math.Abs(pos.Location.Lat-33.6891) > 0.001 {
		t.Errorf("expected roughly the segment midpoint, got lat %f", pos.Location.Lat)
	}
	if pos.Progress == nil {
		t.Fatal("expected progress")
	}
	if pos.Progress.SegmentIndex != 0 {
		t.Errorf("expected segment 0, got %d", pos.Progress.SegmentIndex)
	}
	if math.Abs(pos.Progress.OverallPercent-50) > 0.1 {
		t.Errorf("expected ~50%% progress, got %f", pos.Progress.OverallPercent)
	}
}

func TestSimulateAt_ExactWaypointMatch(t *testing.T) {
	svc := usecases.NewSimulationService()
	route := testRoute(t,
		wp(33.6844, 73.0479, 0),
		wp(33.6938, 73.0651, 10*time.Minute),
		wp(33.7050, 73.0800, 20*time.Minute),
	)

	pos, err := svc.SimulateAt(route, segmentStart.Add(10*time.Minute))
	if err != nil {
		t.Fatal(err)
	}

	if pos.Source != domain.SourceExactMatch {
		t.Errorf("expected exact match, got %s", pos.Source)
	}
	if pos.Interpolated {
		t.Error("exact match must not be flagged interpolated")
	}
	if pos.Location.Lat != 33.6938 || pos.Location.Lon != 73.0651 {
		t.Errorf("expected the waypoint coordinate verbatim, got %+v", pos.Location)
	}
}

func TestSimulateAt_BeforeRouteStart(t *testing.T) {
	svc := usecases.NewSimulationService()
	route := testRoute(t,
		wp(33.6844, 73.0479, 0),
		wp(33.6938, 73.0651, 10*time.Minute),
	)

	pos, err := svc.SimulateAt(route, segmentStart.Add(-100*time.Second))
	if err != nil {
		t.Fatal(err)
	}

	if pos.Source != domain.SourceExtrapolatedBefore {
		t.Errorf("expected extrapolated_before, got %s", pos.Source)
	}
	if pos.Status != domain.StatusNotStarted {
		t.Errorf("expected not_started, got %s", pos.Status)
	}
	if pos.Location != route.Waypoints[0].Location {
		t.Errorf("expected first waypoint coordinate, got %+v", pos.Location)
	}
	// Motion fields carry the first segment's values
	if pos.SpeedMps < 3.0 || pos.SpeedMps > 3.5 {
		t.Errorf("expected adjacent segment speed, got %f", pos.SpeedMps)
	}
}

func TestSimulateAt_AfterRouteEnd(t *testing.T) {
	svc := usecases.NewSimulationService()
	route := testRoute(t,
		wp(33.6844, 73.0479, 0),
		wp(33.6938, 73.0651, 10*time.Minute),
	)

	pos, err := svc.SimulateAt(route, segmentStart.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}

	if pos.Source != domain.SourceExtrapolatedAfter {
		t.Errorf("expected extrapolated_after, got %s", pos.Source)
	}
	if pos.Status != domain.StatusCompleted {
		t.Errorf("expected completed, got %s", pos.Status)
	}
	if pos.Location != route.Waypoints[1].Location {
		t.Errorf("expected last waypoint coordinate, got %+v", pos.Location)
	}
}

func TestSimulateAt_SingleWaypoint(t *testing.T) {
	svc := usecases.NewSimulationService()
	route := testRoute(t, wp(33.6844, 73.0479, 0))

	pos, err := svc.SimulateAt(route, segmentStart)
	if err != nil {
		t.Fatal(err)
	}
	if pos.Source != domain.SourceExactMatch {
		t.Errorf("expected exact match, got %s", pos.Source)
	}
	if pos.Status != domain.StatusParked {
		t.Errorf("expected parked, got %s", pos.Status)
	}

	before, _ := svc.SimulateAt(route, segmentStart.Add(-time.Minute))
	if before.Source != domain.SourceExtrapolatedBefore {
		t.Errorf("expected extrapolated_before, got %s", before.Source)
	}
	if before.SpeedMps != 0 {
		t.Errorf("single waypoint has no motion, got speed %f", before.SpeedMps)
	}
}

func TestSimulateAt_SegmentBoundaryContinuity(t *testing.T) {
	svc := usecases.NewSimulationService()
	route := testRoute(t,
		wp(33.6844, 73.0479, 0),
		wp(33.6938, 73.0651, 10*time.Minute),
		wp(33.7050, 73.0800, 20*time.Minute),
	)

	boundary := segmentStart.Add(10 * time.Minute)
	justBefore, _ := svc.SimulateAt(route, boundary.Add(-time.Millisecond))
	atBoundary, _ := svc.SimulateAt(route, boundary)

	d := haversineBetween(justBefore.Location, atBoundary.Location)
	if d > 1.0 {
		t.Errorf("position jumped %f m across segment boundary", d)
	}
}

func TestSimulateBatch_PreservesOrderAndValues(t *testing.T) {
	svc := usecases.NewSimulationService()
	route := testRoute(t,
		wp(33.6844, 73.0479, 0),
		wp(33.6938, 73.0651, 10*time.Minute),
		wp(33.7050, 73.0800, 20*time.Minute),
	)

	// Deliberately unsorted
	ts := []time.Time{
		segmentStart.Add(15 * time.Minute),
		segmentStart.Add(5 * time.Minute),
		segmentStart.Add(19 * time.Minute),
		segmentStart.Add(-time.Minute),
	}

	batch, err := svc.SimulateBatch(route, ts)
	if err != nil {
		t.Fatal(err)
	}
	if len(batch) != len(ts) {
		t.Fatalf("expected %d positions, got %d", len(ts), len(batch))
	}

	// Batch answers must equal individual queries, in request order
	for i, at := range ts {
		single, _ := svc.SimulateAt(route, at)
		if batch[i].Location != single.Location {
			t.Errorf("batch[%d] location %+v != single %+v", i, batch[i].Location, single.Location)
		}
		if batch[i].Source != single.Source {
			t.Errorf("batch[%d] source %s != single %s", i, batch[i].Source, single.Source)
		}
		if !batch[i].Time.Equal(at) {
			t.Errorf("batch[%d] echoes time %v, want %v", i, batch[i].Time, at)
		}
	}
}

func TestSimulateBatch_SortedInput(t *testing.T) {
	svc := usecases.NewSimulationService()
	route := testRoute(t,
		wp(33.6844, 73.0479, 0),
		wp(33.6938, 73.0651, 10*time.Minute),
		wp(33.7050, 73.0800, 20*time.Minute),
		wp(33.7120, 73.0950, 30*time.Minute),
	)

	// Sorted queries walk the cursor forward through all segments
	var ts []time.Time
	for m := 0; m <= 30; m += 2 {
		ts = append(ts, segmentStart.Add(time.Duration(m)*time.Minute))
	}

	batch, err := svc.SimulateBatch(route, ts)
	if err != nil {
		t.Fatal(err)
	}

	for i, at := range ts {
		single, _ := svc.SimulateAt(route, at)
		if batch[i].Location != single.Location {
			t.Errorf("batch[%d] diverged from single query: %+v vs %+v",
				i, batch[i].Location, single.Location)
		}
	}

	// Progress is monotonically non-decreasing over sorted queries
	prev := -1.0
	for i, pos := range batch {
		if pos.Progress == nil {
			t.Fatalf("batch[%d]: missing progress", i)
		}
		if pos.Progress.OverallPercent < prev {
			t.Errorf("batch[%d]: progress went backwards: %f < %f",
				i, pos.Progress.OverallPercent, prev)
		}
		prev = pos.Progress.OverallPercent
	}
}

func haversineBetween(a, b domain.Coordinate) float64 {
	// Small-distance approximation is fine for a continuity check
	dLat := (a.Lat - b.Lat) * 111_000
	dLon := (a.Lon - b.Lon) * 111_000 * math.Cos(a.Lat*math.Pi/180)
	return math.Sqrt(dLat*dLat + dLon*dLon)
}

func TestSimulateAt_CoordinatePrecision(t *testing.T) {
	svc := usecases.NewSimulationService()
	// High-precision inputs and an off-center query time so the
	// interpolated point carries raw geodesic-math decimals
	route := testRoute(t,
		wp(33.68441234567, 73.04791234567, 0),
		wp(33.69381234567, 73.06511234567, 10*time.Minute),
	)

	queries := []time.Duration{-time.Minute, 0, 3*time.Minute + 17*time.Second, 10 * time.Minute, 11 * time.Minute}
	for _, offset := range queries {
		pos, err := svc.SimulateAt(route, segmentStart.Add(offset))
		if err != nil {
			t.Fatal(err)
		}
		for _, v := range []float64{pos.Location.Lat, pos.Location.Lon} {
			if v != math.Round(v*1e6)/1e6 {
				t.Errorf("offset %v: coordinate %.12f not rounded to 6 decimal places", offset, v)
			}
		}
	}
}
