// Package geocode resolves postal addresses to coordinates through a
// Google-style geocoding HTTP API, memoizing results in the cache so
// repeated uploads of the same workbook do not re-spend API quota.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/routepulse/routepulse/internal/core/domain"
	"github.com/routepulse/routepulse/internal/core/ports"
	"github.com/routepulse/routepulse/internal/pkg/checksum"
	"github.com/routepulse/routepulse/internal/pkg/metrics"
)

// ErrAddressNotFound is returned when the lookup service has no result
// for an address.
var ErrAddressNotFound = errors.New("address not found")

// ErrNoAPIKey is returned when no geocoding API key is configured.
var ErrNoAPIKey = errors.New("geocoding api key not configured")

// Client is an HTTP geocoding client with an optional response cache.
type Client struct {
	endpoint string
	apiKey   string
	ttl      int
	http     *http.Client
	cache    ports.CacheService
}

// New creates a geocoding client. cache may be nil.
func New(endpoint, apiKey string, timeout time.Duration, cacheTTLSeconds int, cache ports.CacheService) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		ttl:      cacheTTLSeconds,
		http:     &http.Client{Timeout: timeout},
		cache:    cache,
	}
}

// apiResponse mirrors the subset of the lookup service's payload we use.
type apiResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		PlaceID          string `json:"place_id"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode resolves one address. Cached results are returned without an
// API call and marked Cached.
func (c *Client) Geocode(ctx context.Context, address string) (*ports.GeocodeResult, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	key := "geocode:" + checksum.MustMD5(address)
	if c.cache != nil {
		if data, err := c.cache.Get(ctx, key); err == nil {
			var cached ports.GeocodeResult
			if json.Unmarshal(data, &cached) == nil {
				metrics.CacheHits.WithLabelValues("geocode").Inc()
				cached.Cached = true
				return &cached, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("geocode").Inc()
	}

	q := url.Values{}
	q.Set("address", address)
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.GeocodeLookups.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.GeocodeLookups.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("geocode request: unexpected status %d", resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		metrics.GeocodeLookups.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("geocode decode: %w", err)
	}
	if body.Status == "ZERO_RESULTS" || len(body.Results) == 0 {
		metrics.GeocodeLookups.WithLabelValues("not_found").Inc()
		return nil, fmt.Errorf("%q: %w", address, ErrAddressNotFound)
	}

	r0 := body.Results[0]
	result := &ports.GeocodeResult{
		Location:         domain.Coordinate{Lat: r0.Geometry.Location.Lat, Lon: r0.Geometry.Location.Lng},
		FormattedAddress: r0.FormattedAddress,
		PlaceID:          r0.PlaceID,
	}
	metrics.GeocodeLookups.WithLabelValues("ok").Inc()

	if c.cache != nil {
		if data, err := json.Marshal(result); err == nil {
			_ = c.cache.Set(ctx, key, data, c.ttl)
		}
	}
	return result, nil
}
