package nominatim

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/historic-weather-service/internal/domain"
	"github.com/couchcryptid/historic-weather-service/internal/observability"
)

// Geocoder implements domain.ReverseGeocoder with graceful degradation:
// any resolver failure yields domain.FallbackLocation.
type Geocoder struct {
	resolver Resolver
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewGeocoder wraps resolver. metrics may be nil.
func NewGeocoder(resolver Resolver, metrics *observability.Metrics, logger *slog.Logger) *Geocoder {
	return &Geocoder{resolver: resolver, metrics: metrics, logger: logger}
}

// GetLocationData never returns an error.
func (g *Geocoder) GetLocationData(ctx context.Context, lat, lon float64) domain.Location {
	loc, err := g.resolver.Resolve(ctx, lat, lon)
	if err != nil {
		g.logger.Warn("reverse geocoding failed, using coordinates",
			"lat", lat,
			"lon", lon,
			"error", err,
		)
		g.count("fallback")
		return domain.FallbackLocation(lat, lon)
	}
	g.count("resolved")
	return loc
}

func (g *Geocoder) count(outcome string) {
	if g.metrics != nil {
		g.metrics.GeocodeRequests.WithLabelValues(outcome).Inc()
	}
}
