package domain

import "context"

// ReverseGeocoder resolves coordinates to a place name. It never fails: when
// resolution is impossible it returns FallbackLocation.
type ReverseGeocoder interface {
	GetLocationData(ctx context.Context, lat, lon float64) Location
}

// SettingsStore persists provider API keys keyed by provider name.
type SettingsStore interface {
	// GetAPIKey returns "" when no key is stored for provider.
	GetAPIKey(provider string) (string, error)
	SaveAPIKey(provider, key string) error
	Clear() error
}

// RecordSink receives the records of a successful query.
type RecordSink interface {
	Publish(ctx context.Context, q QueryParameters, records []WeatherRecord) error
}
