package http

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/routepulse/routepulse/internal/core/domain"
)

// validate is the shared request validator. Struct tags describe the
// schema-level rules; semantic checks stay in the core.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Timestamp accepts either an RFC 3339 string or epoch seconds, the two
// formats the front-end sends.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		return fmt.Errorf("timestamp must not be empty")
	}
	if strings.HasPrefix(s, `"`) {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fmt.Errorf("timestamp %q is not RFC 3339", raw)
		}
		t.Time = parsed.UTC()
		return nil
	}
	epoch, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("timestamp %s is neither RFC 3339 nor epoch seconds", s)
	}
	sec := int64(epoch)
	nsec := int64((epoch - float64(sec)) * float64(time.Second))
	t.Time = time.Unix(sec, nsec).UTC()
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.UTC().Format(time.RFC3339))
}

// WaypointInput is one waypoint as uploaded by the front-end.
type WaypointInput struct {
	ID        string    `json:"id"`
	Latitude  float64   `json:"latitude" validate:"min=-90,max=90"`
	Longitude float64   `json:"longitude" validate:"min=-180,max=180"`
	Timestamp Timestamp `json:"timestamp" validate:"required"`
	Altitude  *float64  `json:"altitude"`
	Speed     *float64  `json:"speed" validate:"omitempty,min=0"`
}

// RouteInput is the uploaded route shared by simulation and analysis
// requests.
type RouteInput struct {
	RouteID   string          `json:"route_id"`
	Waypoints []WaypointInput `json:"waypoints" validate:"required,min=1,dive"`
}

// ToDomain converts the payload into a validated domain route.
func (r RouteInput) ToDomain() (*domain.Route, error) {
	waypoints := make([]domain.Waypoint, 0, len(r.Waypoints))
	for _, w := range r.Waypoints {
		waypoints = append(waypoints, domain.Waypoint{
			ID:       w.ID,
			Location: domain.Coordinate{Lat: w.Latitude, Lon: w.Longitude},
			Time:     w.Timestamp.Time,
			Altitude: w.Altitude,
			Speed:    w.Speed,
		})
	}
	return domain.NewRoute(r.RouteID, waypoints)
}

// SimulatePositionRequest asks where the object was at one instant.
type SimulatePositionRequest struct {
	Route RouteInput `json:"route" validate:"required"`
	At    Timestamp  `json:"at" validate:"required"`
}

// SimulateBatchRequest asks for many instants in one call.
type SimulateBatchRequest struct {
	Route      RouteInput  `json:"route" validate:"required"`
	Timestamps []Timestamp `json:"timestamps" validate:"required,min=1,max=10000"`
}

// ThresholdsInput optionally overrides the analyzer defaults per call.
type ThresholdsInput struct {
	MaxPlausibleSpeedMps *float64 `json:"max_plausible_speed_mps" validate:"omitempty,gt=0"`
	MinMovementMeters    *float64 `json:"min_movement_meters" validate:"omitempty,min=0"`
	StationaryGapSeconds *float64 `json:"stationary_gap_seconds" validate:"omitempty,min=0"`
}

// Apply merges the overrides onto the defaults.
func (t *ThresholdsInput) Apply(defaults domain.Thresholds) domain.Thresholds {
	if t == nil {
		return defaults
	}
	out := defaults
	if t.MaxPlausibleSpeedMps != nil {
		out.MaxPlausibleSpeedMps = *t.MaxPlausibleSpeedMps
	}
	if t.MinMovementMeters != nil {
		out.MinMovementMeters = *t.MinMovementMeters
	}
	if t.StationaryGapSeconds != nil {
		out.StationaryGap = time.Duration(*t.StationaryGapSeconds * float64(time.Second))
	}
	return out
}

// AnalyzeRouteRequest submits a route for plausibility analysis.
type AnalyzeRouteRequest struct {
	Route      RouteInput       `json:"route" validate:"required"`
	Thresholds *ThresholdsInput `json:"thresholds"`
}

// GeocodeRequest resolves one address.
type GeocodeRequest struct {
	Address string `json:"address" validate:"required,max=500"`
}

// BatchGeocodeItem is one address in a batch lookup.
type BatchGeocodeItem struct {
	ID      string `json:"id"`
	Address string `json:"address" validate:"required,max=500"`
}

// BatchGeocodeRequest resolves several addresses in one call.
type BatchGeocodeRequest struct {
	Addresses []BatchGeocodeItem `json:"addresses" validate:"required,min=1,max=100,dive"`
}

// IngestWorkbookRequest uploads a base64-encoded xlsx workbook.
type IngestWorkbookRequest struct {
	FileName    string `json:"file_name" validate:"required,max=255"`
	FileContent string `json:"file_content" validate:"required"`
}

// ChecksumRequest computes a digest over a base64 payload.
type ChecksumRequest struct {
	FileContent string `json:"file_content" validate:"required"`
	Algorithm   string `json:"algorithm" validate:"omitempty,oneof=md5 sha1 sha256"`
}

// parseBody unmarshals and validates a JSON request body.
func parseBody(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := validate.Struct(out); err != nil {
		return err
	}
	return nil
}
