// Package excel turns uploaded workbooks of waypoint rows into routes.
// Rows carry either coordinates directly or an address that is resolved
// through the geocoder.
package excel

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/routepulse/routepulse/internal/core/domain"
	"github.com/routepulse/routepulse/internal/core/ports"
	"github.com/routepulse/routepulse/internal/pkg/checksum"
)

// Required columns: a timestamp plus either an address (geocoded) or a
// coordinate pair.
var (
	requiredAlways = []string{"timestamp"}
	coordinateCols = []string{"latitude", "longitude"}
)

// anchorWeekStart anchors all weekly routes to a synthetic, never-changing
// week so that playback is date-independent (Monday = 2024-01-01).
var anchorWeekStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Result is the outcome of processing one workbook.
type Result struct {
	Route          *domain.Route `json:"route"`
	FileName       string        `json:"file_name"`
	FileSizeBytes  int           `json:"file_size_bytes"`
	Checksum       string        `json:"checksum"`
	RowsProcessed  int           `json:"rows_processed"`
	RowsSkipped    int           `json:"rows_skipped"`
	RowsGeocoded   int           `json:"rows_geocoded"`
	SkippedDetails []string      `json:"skipped_details,omitempty"`
}

// Validation is a quick structural check of a workbook.
type Validation struct {
	Valid        bool     `json:"valid"`
	Message      string   `json:"message"`
	RowCount     int      `json:"row_count"`
	ColumnsFound []string `json:"columns_found"`
}

// Processor reads xlsx payloads and assembles routes.
type Processor struct {
	geocoder ports.Geocoder
}

// NewProcessor creates a Processor. geocoder may be nil, in which case
// rows without coordinates are skipped.
func NewProcessor(geocoder ports.Geocoder) *Processor {
	return &Processor{geocoder: geocoder}
}

// QuickValidate opens the workbook and checks the header row without
// parsing data rows.
func (p *Processor) QuickValidate(contentB64 string) Validation {
	rows, err := readRows(contentB64)
	if err != nil {
		return Validation{Valid: false, Message: fmt.Sprintf("unable to read workbook: %v", err)}
	}
	if len(rows) == 0 {
		return Validation{Valid: false, Message: "workbook is empty"}
	}

	header := normalizeHeader(rows[0])
	missing := missingColumns(header)
	if len(missing) > 0 {
		return Validation{
			Valid:        false,
			Message:      "missing required columns: " + strings.Join(missing, ", "),
			RowCount:     len(rows) - 1,
			ColumnsFound: header,
		}
	}
	return Validation{Valid: true, Message: "OK", RowCount: len(rows) - 1, ColumnsFound: header}
}

// Process parses the workbook into a route. Rows that cannot be parsed
// are skipped and reported, not fatal: one bad cell should not reject a
// five-hundred-row upload.
func (p *Processor) Process(ctx context.Context, contentB64, fileName string) (*Result, error) {
	data, err := base64.StdEncoding.DecodeString(contentB64)
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	sum, _ := checksum.Sum(data, "md5")
	result := &Result{
		FileName:      fileName,
		FileSizeBytes: len(data),
		Checksum:      sum,
	}

	rows, err := rowsFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("workbook has no data rows")
	}

	header := normalizeHeader(rows[0])
	if missing := missingColumns(header); len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}

	var waypoints []domain.Waypoint
	for i, row := range rows[1:] {
		w, err := p.parseRow(ctx, col, row)
		if err != nil {
			result.RowsSkipped++
			result.SkippedDetails = append(result.SkippedDetails, fmt.Sprintf("row %d: %v", i+2, err))
			continue
		}
		if w.geocoded {
			result.RowsGeocoded++
		}
		waypoints = append(waypoints, w.waypoint)
		result.RowsProcessed++
	}

	route, err := domain.NewRoute(uuid.NewString(), waypoints)
	if err != nil {
		return nil, fmt.Errorf("assemble route: %w", err)
	}
	result.Route = route
	return result, nil
}

type parsedRow struct {
	waypoint domain.Waypoint
	geocoded bool
}

func (p *Processor) parseRow(ctx context.Context, col map[string]int, row []string) (parsedRow, error) {
	ts, err := parseTimestamp(cell(row, col, "timestamp"))
	if err != nil {
		return parsedRow{}, err
	}
	if dayRaw := cell(row, col, "day_of_week"); dayRaw != "" {
		day, err := strconv.Atoi(dayRaw)
		if err != nil || day < 0 || day > 6 {
			return parsedRow{}, fmt.Errorf("day_of_week %q not in 0-6", dayRaw)
		}
		ts = anchorTimestamp(ts, day)
	}

	w := domain.Waypoint{ID: uuid.NewString(), Time: ts}

	latRaw, lonRaw := cell(row, col, "latitude"), cell(row, col, "longitude")
	if latRaw != "" && lonRaw != "" {
		lat, errLat := strconv.ParseFloat(latRaw, 64)
		lon, errLon := strconv.ParseFloat(lonRaw, 64)
		if errLat != nil || errLon != nil {
			return parsedRow{}, fmt.Errorf("unparseable coordinates %q, %q", latRaw, lonRaw)
		}
		w.Location = domain.Coordinate{Lat: lat, Lon: lon}
		if !w.Location.Valid() {
			return parsedRow{}, fmt.Errorf("coordinate (%s, %s) out of range", latRaw, lonRaw)
		}
		return parsedRow{waypoint: w}, nil
	}

	address := cell(row, col, "address")
	if address == "" {
		return parsedRow{}, fmt.Errorf("row has neither coordinates nor address")
	}
	if p.geocoder == nil {
		return parsedRow{}, fmt.Errorf("address %q requires geocoding, which is not configured", address)
	}
	res, err := p.geocoder.Geocode(ctx, address)
	if err != nil {
		return parsedRow{}, fmt.Errorf("geocode %q: %w", address, err)
	}
	w.Location = res.Location
	return parsedRow{waypoint: w, geocoded: true}, nil
}

// anchorTimestamp replaces the date portion with the synthetic anchor
// week, keeping the time of day, so weekly routes repeat without
// depending on real calendar dates.
func anchorTimestamp(ts time.Time, dayOfWeek int) time.Time {
	base := anchorWeekStart.AddDate(0, 0, dayOfWeek)
	return time.Date(base.Year(), base.Month(), base.Day(),
		ts.Hour(), ts.Minute(), ts.Second(), ts.Nanosecond(), time.UTC)
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"01-02-06 15:04",
	"15:04:05",
	"15:04",
}

func parseTimestamp(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("missing timestamp")
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", raw)
}

func readRows(contentB64 string) ([][]string, error) {
	data, err := base64.StdEncoding.DecodeString(contentB64)
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return rowsFromBytes(data)
}

func rowsFromBytes(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.GetRows(f.GetSheetName(0))
}

func normalizeHeader(row []string) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = strings.ToLower(strings.TrimSpace(c))
	}
	return out
}

// missingColumns returns the required columns absent from the header.
// A workbook needs a timestamp plus either an address column or both
// coordinate columns.
func missingColumns(header []string) []string {
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[h] = true
	}

	var missing []string
	for _, c := range requiredAlways {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	if !have["address"] {
		for _, c := range coordinateCols {
			if !have[c] {
				missing = append(missing, c)
			}
		}
	}
	return missing
}

func cell(row []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
