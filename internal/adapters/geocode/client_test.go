package geocode_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/routepulse/routepulse/internal/adapters/geocode"
)

// memCache is an in-process stand-in for the valkey cache.
type memCache struct {
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}}
}

func (m *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, errors.New("miss")
}

func (m *memCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.data[key] = value
	return nil
}

func (m *memCache) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func geocodeServer(t *testing.T, calls *atomic.Int64, status string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Query().Get("address") == "" {
			t.Error("missing address query parameter")
		}
		if r.URL.Query().Get("key") == "" {
			t.Error("missing key query parameter")
		}
		w.Header().Set("Content-Type", "application/json")
		if status == "ZERO_RESULTS" {
			fmt.Fprint(w, `{"status":"ZERO_RESULTS","results":[]}`)
			return
		}
		fmt.Fprint(w, `{
			"status": "OK",
			"results": [{
				"formatted_address": "Blue Area, Islamabad, Pakistan",
				"place_id": "pid-123",
				"geometry": {"location": {"lat": 33.7077, "lng": 73.0563}}
			}]
		}`)
	}))
}

func TestGeocode_Success(t *testing.T) {
	var calls atomic.Int64
	srv := geocodeServer(t, &calls, "OK")
	defer srv.Close()

	client := geocode.New(srv.URL, "test-key", 2*time.Second, 60, nil)
	result, err := client.Geocode(context.Background(), "Blue Area, Islamabad")
	if err != nil {
		t.Fatal(err)
	}

	if result.Location.Lat != 33.7077 || result.Location.Lon != 73.0563 {
		t.Errorf("unexpected location: %+v", result.Location)
	}
	if result.FormattedAddress != "Blue Area, Islamabad, Pakistan" {
		t.Errorf("unexpected formatted address %q", result.FormattedAddress)
	}
	if result.PlaceID != "pid-123" {
		t.Errorf("unexpected place id %q", result.PlaceID)
	}
	if result.Cached {
		t.Error("fresh lookup must not be marked cached")
	}
}

func TestGeocode_CacheHitSkipsAPI(t *testing.T) {
	var calls atomic.Int64
	srv := geocodeServer(t, &calls, "OK")
	defer srv.Close()

	client := geocode.New(srv.URL, "test-key", 2*time.Second, 60, newMemCache())

	first, err := client.Geocode(context.Background(), "Blue Area, Islamabad")
	if err != nil {
		t.Fatal(err)
	}
	if first.Cached {
		t.Error("first lookup must not be cached")
	}

	second, err := client.Geocode(context.Background(), "Blue Area, Islamabad")
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached {
		t.Error("second lookup should come from cache")
	}
	if second.Location != first.Location {
		t.Errorf("cached result diverged: %+v vs %+v", second.Location, first.Location)
	}
	if calls.Load() != 1 {
		t.Errorf("expected exactly 1 API call, got %d", calls.Load())
	}
}

func TestGeocode_ZeroResults(t *testing.T) {
	var calls atomic.Int64
	srv := geocodeServer(t, &calls, "ZERO_RESULTS")
	defer srv.Close()

	client := geocode.New(srv.URL, "test-key", 2*time.Second, 60, nil)
	_, err := client.Geocode(context.Background(), "nowhere at all")
	if !errors.Is(err, geocode.ErrAddressNotFound) {
		t.Errorf("expected ErrAddressNotFound, got %v", err)
	}
}

func TestGeocode_NoAPIKey(t *testing.T) {
	client := geocode.New("http://unused", "", time.Second, 0, nil)
	_, err := client.Geocode(context.Background(), "anywhere")
	if !errors.Is(err, geocode.ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestGeocode_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := geocode.New(srv.URL, "test-key", 2*time.Second, 0, nil)
	_, err := client.Geocode(context.Background(), "anywhere")
	if err == nil {
		t.Error("expected error for upstream failure")
	}
}
