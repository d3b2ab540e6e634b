// Package openweathermap adapts the One Call 3.0 timemachine endpoint. Each
// day is one request; the hourly samples it returns are folded into a daily record.
package openweathermap

import (
	"context"
	"log/slog"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/historic-weather-service/internal/adapter/httpclient"
	"github.com/couchcryptid/historic-weather-service/internal/domain"
)

const (
	Name           = "OpenWeatherMap"
	DefaultBaseURL = "https://api.openweathermap.org"
)

// Provider implements domain.Provider for OpenWeatherMap.
type Provider struct {
	client  *httpclient.Client
	baseURL string
	logger  *slog.Logger
}

// New creates an OpenWeatherMap provider. An empty baseURL selects DefaultBaseURL.
func New(client *httpclient.Client, baseURL string, logger *slog.Logger) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Provider{client: client, baseURL: strings.TrimRight(baseURL, "/"), logger: logger}
}

func (p *Provider) Name() string               { return Name }
func (p *Provider) RequiresAPIKey() bool       { return true }
func (p *Provider) Iteration() domain.UnitKind { return domain.UnitDay }

// FetchUnit requests the hourly samples for one day and folds them into a
// single record: min and max of the hourly temperatures, summed precipitation.
func (p *Provider) FetchUnit(ctx context.Context, q domain.QueryParameters, unit domain.Unit, apiKey string, diag *domain.Diagnostics) domain.UnitResult {
	params := url.Values{
		"lat":   {httpclient.FormatCoord(q.Location.Latitude)},
		"lon":   {httpclient.FormatCoord(q.Location.Longitude)},
		"dt":    {strconv.FormatInt(unit.Date.Unix(), 10)},
		"appid": {apiKey},
		"units": {"metric"},
	}

	var body timemachineResponse
	if res, ok := p.client.FetchJSON(ctx, p.baseURL+"/data/3.0/onecall/timemachine", params, diag, p.logger, &body); !ok {
		return res
	}

	if len(body.Data) == 0 {
		p.logger.Warn("openweathermap response has no data points", "date", unit.String())
		return domain.NoData("no data points in response")
	}

	minTemp, maxTemp := math.Inf(1), math.Inf(-1)
	var precip float64
	var samples int
	for _, point := range body.Data {
		precip += point.Rain.amount() + point.Snow.amount()
		if point.Temp == nil {
			continue
		}
		samples++
		minTemp = math.Min(minTemp, *point.Temp)
		maxTemp = math.Max(maxTemp, *point.Temp)
	}
	if samples == 0 {
		p.logger.Warn("openweathermap data points carry no temperature", "date", unit.String())
		return domain.NoData("no temperature samples in response")
	}

	return domain.Records([]domain.WeatherRecord{{
		Date:           unit.Date,
		TemperatureMin: minTemp,
		TemperatureMax: maxTemp,
		Precipitation:  precip,
		Provider:       Name,
	}})
}

// OpenWeatherMap response types.

type timemachineResponse struct {
	Data []dataPoint `json:"data"`
}

type dataPoint struct {
	Dt   int64         `json:"dt"`
	Temp *float64      `json:"temp"`
	Rain *precipVolume `json:"rain"`
	Snow *precipVolume `json:"snow"`
}

// precipVolume is the hourly volume in mm. The API has used both "1h" and "h".
type precipVolume struct {
	OneHour *float64 `json:"1h"`
	Hour    *float64 `json:"h"`
}

func (v *precipVolume) amount() float64 {
	switch {
	case v == nil:
		return 0
	case v.OneHour != nil:
		return *v.OneHour
	case v.Hour != nil:
		return *v.Hour
	default:
		return 0
	}
}
