// Package weatherapi adapts the WeatherAPI.com history endpoint, one request per day.
package weatherapi

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/couchcryptid/historic-weather-service/internal/adapter/httpclient"
	"github.com/couchcryptid/historic-weather-service/internal/domain"
)

// Name is the provider name used by the factory and the settings store.
const Name = "WeatherAPI"

// DefaultBaseURL is the public WeatherAPI.com endpoint.
const DefaultBaseURL = "https://api.weatherapi.com"

// Provider implements domain.Provider for WeatherAPI.com.
type Provider struct {
	client  *httpclient.Client
	baseURL string
	logger  *slog.Logger
}

// New creates a WeatherAPI provider. An empty baseURL selects DefaultBaseURL.
func New(client *httpclient.Client, baseURL string, logger *slog.Logger) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Provider{client: client, baseURL: strings.TrimRight(baseURL, "/"), logger: logger}
}

func (p *Provider) Name() string               { return Name }
func (p *Provider) RequiresAPIKey() bool       { return true }
func (p *Provider) Iteration() domain.UnitKind { return domain.UnitDay }

// FetchUnit requests the history for one day.
func (p *Provider) FetchUnit(ctx context.Context, q domain.QueryParameters, unit domain.Unit, apiKey string, diag *domain.Diagnostics) domain.UnitResult {
	params := url.Values{
		"key": {apiKey},
		"q":   {httpclient.FormatCoord(q.Location.Latitude) + "," + httpclient.FormatCoord(q.Location.Longitude)},
		"dt":  {unit.Date.Format(domain.DateLayout)},
	}

	var body historyResponse
	if res, ok := p.client.FetchJSON(ctx, p.baseURL+"/v1/history.json", params, diag, p.logger, &body); !ok {
		return res
	}

	if len(body.Forecast.ForecastDay) == 0 {
		p.logger.Warn("weatherapi response has no forecast day", "date", unit.String())
		return domain.NoData("no forecast day in response")
	}
	day := body.Forecast.ForecastDay[0].Day
	if day.MinTempC == nil || day.MaxTempC == nil {
		p.logger.Warn("weatherapi response missing temperatures", "date", unit.String())
		return domain.NoData("missing temperature fields")
	}

	var precip float64
	if day.TotalPrecipMM != nil {
		precip = *day.TotalPrecipMM
	}

	return domain.Records([]domain.WeatherRecord{{
		Date:           unit.Date,
		TemperatureMin: *day.MinTempC,
		TemperatureMax: *day.MaxTempC,
		Precipitation:  precip,
		Provider:       Name,
	}})
}

// WeatherAPI response types.

type historyResponse struct {
	Forecast struct {
		ForecastDay []forecastDay `json:"forecastday"`
	} `json:"forecast"`
}

type forecastDay struct {
	Day struct {
		MaxTempC      *float64 `json:"maxtemp_c"`
		MinTempC      *float64 `json:"mintemp_c"`
		TotalPrecipMM *float64 `json:"totalprecip_mm"`
	} `json:"day"`
}
