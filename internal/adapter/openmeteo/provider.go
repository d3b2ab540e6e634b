// Package openmeteo adapts the Open-Meteo historical archive API. It needs no
// API key; each unit is one year and its records carry the reverse-geocoded
// location of the query point, resolved once per query.
package openmeteo

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/historic-weather-service/internal/adapter/httpclient"
	"github.com/couchcryptid/historic-weather-service/internal/domain"
)

const (
	Name           = "OpenMeteo"
	DefaultBaseURL = "https://archive-api.open-meteo.com"

	dailyFields = "temperature_2m_max,temperature_2m_min,precipitation_sum"
)

// Provider implements domain.Provider for Open-Meteo.
type Provider struct {
	client   *httpclient.Client
	geocoder domain.ReverseGeocoder
	baseURL  string
	logger   *slog.Logger
}

// New creates an Open-Meteo provider. geocoder may be nil, in which case
// records carry the query's own location.
func New(client *httpclient.Client, geocoder domain.ReverseGeocoder, baseURL string, logger *slog.Logger) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Provider{
		client:   client,
		geocoder: geocoder,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger,
	}
}

func (p *Provider) Name() string               { return Name }
func (p *Provider) RequiresAPIKey() bool       { return false }
func (p *Provider) Iteration() domain.UnitKind { return domain.UnitYear }

// ResolveLocation reverse-geocodes the query point. Without a geocoder it
// returns the query location unchanged.
func (p *Provider) ResolveLocation(ctx context.Context, q domain.QueryParameters) domain.Location {
	if p.geocoder == nil {
		return q.Location
	}
	return p.geocoder.GetLocationData(ctx, q.Location.Latitude, q.Location.Longitude)
}

// FetchUnit requests the daily archive for one year of the query window,
// clamped to today. Entries with an unparsable date or a missing temperature
// are recorded in diag and skipped; a year left with no entries is NoData.
// Records carry no location; the driver attaches the resolved one.
func (p *Provider) FetchUnit(ctx context.Context, q domain.QueryParameters, unit domain.Unit, _ string, diag *domain.Diagnostics) domain.UnitResult {
	start, end, ok := q.YearRange(unit.Year, domain.Now())
	if !ok {
		return domain.NoData(fmt.Sprintf("window for %d starts in the future", unit.Year))
	}

	params := url.Values{
		"latitude":   {httpclient.FormatCoord(q.Location.Latitude)},
		"longitude":  {httpclient.FormatCoord(q.Location.Longitude)},
		"start_date": {start.Format(domain.DateLayout)},
		"end_date":   {end.Format(domain.DateLayout)},
		"daily":      {dailyFields},
		"timezone":   {"auto"},
	}

	var body archiveResponse
	if res, ok := p.client.FetchJSON(ctx, p.baseURL+"/v1/archive", params, diag, p.logger, &body); !ok {
		return res
	}

	daily := body.Daily
	if daily == nil || daily.Time == nil || daily.TempMax == nil || daily.TempMin == nil || daily.PrecipSum == nil {
		p.logger.Warn("openmeteo response missing daily arrays", "year", unit.Year)
		return domain.NoData("missing daily arrays")
	}

	records := make([]domain.WeatherRecord, 0, len(daily.Time))
	for i, raw := range daily.Time {
		date, err := time.Parse(domain.DateLayout, raw)
		if err != nil {
			diag.AddError(fmt.Sprintf("index %d: unparsable date %q", i, raw))
			continue
		}
		tmax, okMax := at(daily.TempMax, i)
		tmin, okMin := at(daily.TempMin, i)
		if !okMax || !okMin {
			diag.AddError(fmt.Sprintf("%s: missing temperature", raw))
			continue
		}
		precip, _ := at(daily.PrecipSum, i)
		records = append(records, domain.WeatherRecord{
			Date:           date,
			TemperatureMin: tmin,
			TemperatureMax: tmax,
			Precipitation:  precip,
			Provider:       Name,
		})
	}
	if len(records) == 0 {
		return domain.NoData("no usable daily entries")
	}
	return domain.Records(records)
}

// at returns values[i] when present and non-null.
func at(values []*float64, i int) (float64, bool) {
	if i >= len(values) || values[i] == nil {
		return 0, false
	}
	return *values[i], true
}

// Open-Meteo response types.

type archiveResponse struct {
	Daily *dailyData `json:"daily"`
}

type dailyData struct {
	Time      []string   `json:"time"`
	TempMax   []*float64 `json:"temperature_2m_max"`
	TempMin   []*float64 `json:"temperature_2m_min"`
	PrecipSum []*float64 `json:"precipitation_sum"`
}
