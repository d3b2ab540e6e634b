package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/historic-weather-service/internal/domain"
	"github.com/couchcryptid/historic-weather-service/internal/observability"
)

// ErrEmptyAPIKey is returned when saving a blank API key.
var ErrEmptyAPIKey = errors.New("api key must not be empty")

// ProviderResolver looks up a provider adapter by name.
type ProviderResolver interface {
	Get(name string) (domain.Provider, error)
	Names() []string
}

// Sink is a named record sink.
type Sink struct {
	Name string
	domain.RecordSink
}

// Service resolves the provider for a query, drives it and fans successful
// results out to the configured sinks.
type Service struct {
	providers ProviderResolver
	driver    *Driver
	settings  domain.SettingsStore
	sinks     []Sink
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewService creates a query service. sinks may be empty.
func NewService(providers ProviderResolver, settings domain.SettingsStore, logger *slog.Logger, metrics *observability.Metrics, sinks ...Sink) *Service {
	return &Service{
		providers: providers,
		driver:    NewDriver(settings, logger, metrics),
		settings:  settings,
		sinks:     sinks,
		logger:    logger,
		metrics:   metrics,
	}
}

// Query runs q against the provider it names. The error is non-nil only when
// the provider name is not supported; every other failure is reported in the
// response.
func (s *Service) Query(ctx context.Context, q domain.QueryParameters) (domain.Response, error) {
	p, err := s.providers.Get(q.ProviderName)
	if err != nil {
		return domain.Response{}, err
	}

	resp := s.driver.Run(ctx, p, q)
	if resp.Success && len(resp.Data) > 0 {
		s.publish(ctx, q, resp.Data)
	}
	return resp, nil
}

// Providers lists the supported provider names and whether each needs a key.
func (s *Service) Providers() []ProviderInfo {
	names := s.providers.Names()
	infos := make([]ProviderInfo, 0, len(names))
	for _, name := range names {
		p, err := s.providers.Get(name)
		if err != nil {
			continue
		}
		infos = append(infos, ProviderInfo{Name: name, RequiresAPIKey: p.RequiresAPIKey()})
	}
	return infos
}

// ProviderInfo describes a supported provider.
type ProviderInfo struct {
	Name           string `json:"name"`
	RequiresAPIKey bool   `json:"requires_api_key"`
}

// SaveAPIKey stores key for a supported provider.
func (s *Service) SaveAPIKey(provider, key string) error {
	if _, err := s.providers.Get(provider); err != nil {
		return err
	}
	if key == "" {
		return ErrEmptyAPIKey
	}
	return s.settings.SaveAPIKey(provider, key)
}

// ClearSettings removes all stored API keys.
func (s *Service) ClearSettings() error {
	return s.settings.Clear()
}

// CheckReadiness reports an error when no providers are registered or the
// settings store cannot be read.
func (s *Service) CheckReadiness(_ context.Context) error {
	names := s.providers.Names()
	if len(names) == 0 {
		return errors.New("no weather providers registered")
	}
	if _, err := s.settings.GetAPIKey(names[0]); err != nil {
		return fmt.Errorf("settings store unavailable: %w", err)
	}
	return nil
}

// publish hands records to every sink. Sink failures are logged and counted
// but never change the query response.
func (s *Service) publish(ctx context.Context, q domain.QueryParameters, records []domain.WeatherRecord) {
	for _, sink := range s.sinks {
		if err := sink.Publish(ctx, q, records); err != nil {
			s.logger.Error("publish records failed",
				"sink", sink.Name,
				"provider", q.ProviderName,
				"records", len(records),
				"error", err,
			)
			s.metrics.RecordsPublished.WithLabelValues(sink.Name, "error").Add(float64(len(records)))
			continue
		}
		s.metrics.RecordsPublished.WithLabelValues(sink.Name, "success").Add(float64(len(records)))
	}
}
