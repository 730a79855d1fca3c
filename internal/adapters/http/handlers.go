package http

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/routepulse/routepulse/internal/adapters/geocode"
	"github.com/routepulse/routepulse/internal/core/domain"
	"github.com/routepulse/routepulse/internal/core/ports"
	"github.com/routepulse/routepulse/internal/pkg/checksum"
	"github.com/routepulse/routepulse/internal/pkg/metrics"
)

// SimulatePositionResponse wraps one simulated position with its route.
type SimulatePositionResponse struct {
	RouteID  string                    `json:"route_id"`
	Position *domain.SimulatedPosition `json:"position"`
}

// SimulatePositionHandler computes where the object was at one instant.
func SimulatePositionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req SimulatePositionRequest
		if err := parseBody(c.Body(), &req); err != nil {
			return errBadRequest(c, err.Error())
		}

		route, err := req.Route.ToDomain()
		if err != nil {
			return errUnprocessable(c, err.Error())
		}

		pos, err := deps.Simulator.SimulateAt(route, req.At.Time)
		if err != nil {
			return errUnprocessable(c, err.Error())
		}

		metrics.PositionsSimulated.WithLabelValues(string(pos.Source)).Inc()
		return c.JSON(SimulatePositionResponse{RouteID: route.ID, Position: pos})
	}
}

// SimulateBatchResponse carries one position per requested timestamp,
// in request order.
type SimulateBatchResponse struct {
	RouteID   string                     `json:"route_id"`
	Count     int                        `json:"count"`
	Positions []domain.SimulatedPosition `json:"positions"`
}

// SimulateBatchHandler computes positions for many instants in one call.
func SimulateBatchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req SimulateBatchRequest
		if err := parseBody(c.Body(), &req); err != nil {
			return errBadRequest(c, err.Error())
		}

		route, err := req.Route.ToDomain()
		if err != nil {
			return errUnprocessable(c, err.Error())
		}

		ts := make([]time.Time, len(req.Timestamps))
		for i, t := range req.Timestamps {
			ts[i] = t.Time
		}

		positions, err := deps.Simulator.SimulateBatch(route, ts)
		if err != nil {
			return errUnprocessable(c, err.Error())
		}

		metrics.BatchSize.Observe(float64(len(ts)))
		for i := range positions {
			metrics.PositionsSimulated.WithLabelValues(string(positions[i].Source)).Inc()
		}

		return c.JSON(SimulateBatchResponse{
			RouteID:   route.ID,
			Count:     len(positions),
			Positions: positions,
		})
	}
}

// AnalyzeRouteResponse pairs the report with the route it describes.
type AnalyzeRouteResponse struct {
	RouteID string                 `json:"route_id"`
	Report  *domain.AnalysisReport `json:"report"`
}

// AnalyzeRouteHandler runs the full plausibility analysis over a route.
func AnalyzeRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req AnalyzeRouteRequest
		if err := parseBody(c.Body(), &req); err != nil {
			return errBadRequest(c, err.Error())
		}

		route, err := req.Route.ToDomain()
		if err != nil {
			return errUnprocessable(c, err.Error())
		}

		report, err := deps.Analyzer.Analyze(route, req.Thresholds.Apply(deps.Thresholds))
		if err != nil {
			return errUnprocessable(c, err.Error())
		}

		recordAnalysis(report)

		// Only error-severity findings go on the wire; warning-grade
		// routes are still valid and get no anomaly event.
		if deps.Events != nil && !report.Valid {
			if err := deps.Events.PublishRouteAnomalies(c.Context(), route.ID, report.Anomalies); err != nil {
				slog.Warn("anomaly event publish failed", "route_id", route.ID, "error", err)
			}
		}

		return c.JSON(AnalyzeRouteResponse{RouteID: route.ID, Report: report})
	}
}

// ValidateRouteResponse is the cut-down analysis result: just the
// verdict and what's wrong.
type ValidateRouteResponse struct {
	RouteID   string           `json:"route_id"`
	Valid     bool             `json:"valid"`
	Anomalies []domain.Anomaly `json:"anomalies"`
}

// ValidateRouteHandler runs the analyzer but returns only the verdict
// and the anomaly list.
func ValidateRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req AnalyzeRouteRequest
		if err := parseBody(c.Body(), &req); err != nil {
			return errBadRequest(c, err.Error())
		}

		route, err := req.Route.ToDomain()
		if err != nil {
			return errUnprocessable(c, err.Error())
		}

		report, err := deps.Analyzer.Analyze(route, req.Thresholds.Apply(deps.Thresholds))
		if err != nil {
			return errUnprocessable(c, err.Error())
		}

		recordAnalysis(report)

		return c.JSON(ValidateRouteResponse{
			RouteID:   route.ID,
			Valid:     report.Valid,
			Anomalies: report.Anomalies,
		})
	}
}

func recordAnalysis(report *domain.AnalysisReport) {
	metrics.RoutesAnalyzed.WithLabelValues(boolLabel(report.Valid)).Inc()
	for _, a := range report.Anomalies {
		metrics.AnomaliesDetected.WithLabelValues(string(a.Kind)).Inc()
	}
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// GeocodeHandler resolves a single address to coordinates.
func GeocodeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Geocoder == nil {
			return errInternal(c, "geocoding not configured")
		}

		var req GeocodeRequest
		if err := parseBody(c.Body(), &req); err != nil {
			return errBadRequest(c, err.Error())
		}

		result, err := deps.Geocoder.Geocode(c.Context(), req.Address)
		if err != nil {
			switch {
			case errors.Is(err, geocode.ErrAddressNotFound):
				return errNotFound(c, "address not found: "+req.Address)
			case errors.Is(err, geocode.ErrNoAPIKey):
				return errInternal(c, "geocoding not configured")
			default:
				return errBadGateway(c, "geocoding lookup failed: "+err.Error())
			}
		}

		return c.JSON(result)
	}
}

// BatchGeocodeEntry is the outcome for one address in a batch lookup.
// Result is nil when Error is set.
type BatchGeocodeEntry struct {
	ID      string               `json:"id,omitempty"`
	Address string               `json:"address"`
	Result  *ports.GeocodeResult `json:"result,omitempty"`
	Error   string               `json:"error,omitempty"`
}

// BatchGeocodeResponse reports per-address outcomes; one bad address
// does not fail the batch.
type BatchGeocodeResponse struct {
	Results  []BatchGeocodeEntry `json:"results"`
	Resolved int                 `json:"resolved"`
	Failed   int                 `json:"failed"`
}

// BatchGeocodeHandler resolves several addresses in one call.
func BatchGeocodeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Geocoder == nil {
			return errInternal(c, "geocoding not configured")
		}

		var req BatchGeocodeRequest
		if err := parseBody(c.Body(), &req); err != nil {
			return errBadRequest(c, err.Error())
		}

		resp := BatchGeocodeResponse{Results: make([]BatchGeocodeEntry, 0, len(req.Addresses))}
		for _, item := range req.Addresses {
			entry := BatchGeocodeEntry{ID: item.ID, Address: item.Address}
			result, err := deps.Geocoder.Geocode(c.Context(), item.Address)
			if err != nil {
				entry.Error = err.Error()
				resp.Failed++
			} else {
				entry.Result = result
				resp.Resolved++
			}
			resp.Results = append(resp.Results, entry)
		}

		return c.JSON(resp)
	}
}

// IngestWorkbookHandler turns an uploaded xlsx workbook into a route,
// analyzes it, and emits ingest events.
func IngestWorkbookHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Workbooks == nil {
			return errInternal(c, "workbook ingestion not configured")
		}

		var req IngestWorkbookRequest
		if err := parseBody(c.Body(), &req); err != nil {
			return errBadRequest(c, err.Error())
		}

		result, err := deps.Workbooks.Process(c.Context(), req.FileContent, req.FileName)
		if err != nil {
			return errUnprocessable(c, err.Error())
		}

		report, err := deps.Analyzer.Analyze(result.Route, deps.Thresholds)
		if err != nil {
			return errInternal(c, err.Error())
		}
		recordAnalysis(report)
		metrics.WorkbooksIngested.Inc()

		if deps.Events != nil {
			if err := deps.Events.PublishRouteIngested(c.Context(), result.Route); err != nil {
				slog.Warn("ingest event publish failed", "route_id", result.Route.ID, "error", err)
			}
			if !report.Valid {
				if err := deps.Events.PublishRouteAnomalies(c.Context(), result.Route.ID, report.Anomalies); err != nil {
					slog.Warn("anomaly event publish failed", "route_id", result.Route.ID, "error", err)
				}
			}
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"ingest": result,
			"report": report,
		})
	}
}

// ValidateWorkbookHandler runs the cheap structural check without
// building a route.
func ValidateWorkbookHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Workbooks == nil {
			return errInternal(c, "workbook ingestion not configured")
		}

		var req IngestWorkbookRequest
		if err := parseBody(c.Body(), &req); err != nil {
			return errBadRequest(c, err.Error())
		}

		return c.JSON(deps.Workbooks.QuickValidate(req.FileContent))
	}
}

// ChecksumHandler computes a digest over a base64 payload. Defaults
// to md5 for parity with workbook checksums.
func ChecksumHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req ChecksumRequest
		if err := parseBody(c.Body(), &req); err != nil {
			return errBadRequest(c, err.Error())
		}

		algorithm := req.Algorithm
		if algorithm == "" {
			algorithm = "md5"
		}

		sum, err := checksum.FromBase64(req.FileContent, algorithm)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		return c.JSON(fiber.Map{
			"checksum":  sum,
			"algorithm": algorithm,
		})
	}
}
