package ports

import (
	"context"

	"github.com/routepulse/routepulse/internal/core/domain"
)

// GeocodeResult is one resolved address.
type GeocodeResult struct {
	Location         domain.Coordinate `json:"location"`
	FormattedAddress string            `json:"formatted_address,omitempty"`
	PlaceID          string            `json:"place_id,omitempty"`
	Cached           bool              `json:"cached"`
}

// Geocoder resolves postal addresses to coordinates through a
// third-party lookup service.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*GeocodeResult, error)
}

// CacheService abstracts a TTL key-value cache.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// EventPublisher emits route lifecycle events for downstream consumers.
type EventPublisher interface {
	PublishRouteIngested(ctx context.Context, route *domain.Route) error
	PublishRouteAnomalies(ctx context.Context, routeID string, anomalies []domain.Anomaly) error
}
