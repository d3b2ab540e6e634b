// Package provider maps provider names to configured adapters.
package provider

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/historic-weather-service/internal/adapter/httpclient"
	"github.com/couchcryptid/historic-weather-service/internal/adapter/openmeteo"
	"github.com/couchcryptid/historic-weather-service/internal/adapter/openweathermap"
	"github.com/couchcryptid/historic-weather-service/internal/adapter/visualcrossing"
	"github.com/couchcryptid/historic-weather-service/internal/adapter/weatherapi"
	"github.com/couchcryptid/historic-weather-service/internal/config"
	"github.com/couchcryptid/historic-weather-service/internal/domain"
	"github.com/couchcryptid/historic-weather-service/internal/observability"
)

// ErrNotSupported is returned for provider names the factory does not know.
var ErrNotSupported = errors.New("provider not supported")

// Factory resolves provider names to adapters by exact match.
type Factory struct {
	providers map[string]domain.Provider
	order     []string
}

// NewFactory builds a factory over the given adapters, keyed by their names.
func NewFactory(providers ...domain.Provider) *Factory {
	f := &Factory{providers: make(map[string]domain.Provider, len(providers))}
	for _, p := range providers {
		if _, dup := f.providers[p.Name()]; !dup {
			f.order = append(f.order, p.Name())
		}
		f.providers[p.Name()] = p
	}
	return f
}

// NewDefaultFactory wires the four built-in adapters from configuration. Each
// adapter gets its own transport so breakers and rate limits stay per provider.
func NewDefaultFactory(cfg *config.Config, geocoder domain.ReverseGeocoder, apiLog *observability.APILog, metrics *observability.Metrics, logger *slog.Logger) *Factory {
	opts := httpclient.Options{
		Timeout:            cfg.ProviderTimeout,
		RateLimit:          cfg.ProviderRateLimit,
		RateBurst:          cfg.ProviderRateBurst,
		BreakerMaxFailures: cfg.BreakerMaxFailures,
		BreakerOpenTimeout: cfg.BreakerOpenTimeout,
	}
	client := func(name string) *httpclient.Client {
		return httpclient.New(name, opts, apiLog, metrics, logger)
	}

	return NewFactory(
		openmeteo.New(client(openmeteo.Name), geocoder, cfg.OpenMeteoURL, logger),
		visualcrossing.New(client(visualcrossing.Name), cfg.VisualCrossingURL, logger),
		openweathermap.New(client(openweathermap.Name), cfg.OpenWeatherMapURL, logger),
		weatherapi.New(client(weatherapi.Name), cfg.WeatherAPIURL, logger),
	)
}

// Get returns the adapter registered under name.
func (f *Factory) Get(name string) (domain.Provider, error) {
	p, ok := f.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: weather provider %q", ErrNotSupported, name)
	}
	return p, nil
}

// Names lists the registered provider names in registration order.
func (f *Factory) Names() []string {
	return append([]string(nil), f.order...)
}
