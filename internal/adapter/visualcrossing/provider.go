// Package visualcrossing adapts the Visual Crossing Timeline API. Each unit is
// one year; the request covers the query's month/day window within that year.
package visualcrossing

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
	Name           = "Visual Crossing"
	DefaultBaseURL = "https://weather.visualcrossing.com"
)

// Provider implements domain.Provider for Visual Crossing.
type Provider struct {
	client  *httpclient.Client
	baseURL string
	logger  *slog.Logger
}

// New creates a Visual Crossing provider. An empty baseURL selects DefaultBaseURL.
func New(client *httpclient.Client, baseURL string, logger *slog.Logger) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Provider{client: client, baseURL: strings.TrimRight(baseURL, "/"), logger: logger}
}

func (p *Provider) Name() string               { return Name }
func (p *Provider) RequiresAPIKey() bool       { return true }
func (p *Provider) Iteration() domain.UnitKind { return domain.UnitYear }

// FetchUnit requests the timeline for one year of the query window, clamped
// to today. Days without both temperatures are skipped; a year left with no
// days is NoData.
func (p *Provider) FetchUnit(ctx context.Context, q domain.QueryParameters, unit domain.Unit, apiKey string, diag *domain.Diagnostics) domain.UnitResult {
	start, end, ok := q.YearRange(unit.Year, domain.Now())
	if !ok {
		return domain.NoData(fmt.Sprintf("window for %d starts in the future", unit.Year))
	}

	endpoint := fmt.Sprintf("%s/VisualCrossingWebServices/rest/services/timeline/%s,%s/%s/%s",
		p.baseURL,
		httpclient.FormatCoord(q.Location.Latitude),
		httpclient.FormatCoord(q.Location.Longitude),
		start.Format(domain.DateLayout),
		end.Format(domain.DateLayout),
	)
	params := url.Values{
		"unitGroup": {"metric"},
		"key":       {apiKey},
		"include":   {"days"},
	}

	var body timelineResponse
	if res, ok := p.client.FetchJSON(ctx, endpoint, params, diag, p.logger, &body); !ok {
		return res
	}

	if len(body.Days) == 0 {
		p.logger.Warn("visual crossing response has no days", "year", unit.Year)
		return domain.NoData("no days in response")
	}

	records := make([]domain.WeatherRecord, 0, len(body.Days))
	for _, d := range body.Days {
		date, err := time.Parse(domain.DateLayout, d.Datetime)
		if err != nil {
			diag.AddError(fmt.Sprintf("unparsable date %q: %v", d.Datetime, err))
			continue
		}
		if d.TempMin == nil || d.TempMax == nil {
			diag.AddError(fmt.Sprintf("%s: missing temperature", d.Datetime))
			continue
		}
		var precip float64
		if d.Precip != nil {
			precip = *d.Precip
		}
		records = append(records, domain.WeatherRecord{
			Date:           date,
			TemperatureMin: *d.TempMin,
			TemperatureMax: *d.TempMax,
			Precipitation:  precip,
			Provider:       Name,
		})
	}
	if len(records) == 0 {
		return domain.NoData("no usable days in response")
	}
	return domain.Records(records)
}

// Visual Crossing response types.

type timelineResponse struct {
	Days []day `json:"days"`
}

type day struct {
	Datetime string   `json:"datetime"`
	TempMin  *float64 `json:"tempmin"`
	TempMax  *float64 `json:"tempmax"`
	Precip   *float64 `json:"precip"`
}
