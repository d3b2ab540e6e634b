package openmeteo

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/historic-weather-service/internal/adapter/httpclient"
	"github.com/couchcryptid/historic-weather-service/internal/domain"
)

type mockGeocoder struct {
	location domain.Location
	calls    int
}

func (m *mockGeocoder) GetLocationData(_ context.Context, lat, lon float64) domain.Location {
	m.calls++
	loc := m.location
	loc.Latitude, loc.Longitude = lat, lon
	return loc
}

func testProvider(baseURL string, geocoder domain.ReverseGeocoder) *Provider {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := httpclient.New(Name, httpclient.Options{Timeout: 5 * time.Second}, nil, nil, logger)
	return New(client, geocoder, baseURL, logger)
}

func testQuery() domain.QueryParameters {
	end := time.Date(2024, 7, 3, 0, 0, 0, 0, time.UTC)
	return domain.QueryParameters{
		Location:     domain.Location{Latitude: 52.52, Longitude: 13.41},
		StartDate:    time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      &end,
		YearsBack:    3,
		ProviderName: Name,
	}
}

func TestProvider_Metadata(t *testing.T) {
	p := testProvider("", nil)
	assert.Equal(t, "OpenMeteo", p.Name())
	assert.False(t, p.RequiresAPIKey())
	assert.Equal(t, domain.UnitYear, p.Iteration())
	assert.Equal(t, DefaultBaseURL, p.baseURL)
}

func TestProvider_FetchUnit_Success(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/archive", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "52.520000", q.Get("latitude"))
		assert.Equal(t, "13.410000", q.Get("longitude"))
		assert.Equal(t, "2021-07-01", q.Get("start_date"))
		assert.Equal(t, "2021-07-03", q.Get("end_date"))
		assert.Equal(t, dailyFields, q.Get("daily"))
		assert.Equal(t, "auto", q.Get("timezone"))
		assert.Empty(t, q.Get("key"))
		_, _ = w.Write([]byte(`{"daily":{
			"time":["2021-07-01","2021-07-02","2021-07-03"],
			"temperature_2m_max":[25.1,27.4,22.0],
			"temperature_2m_min":[14.2,15.0,12.3],
			"precipitation_sum":[0.0,3.2,null]
		}}`))
	}))
	defer srv.Close()

	geo := &mockGeocoder{location: domain.Location{CityName: "Berlin", Country: "Germany", State: "Berlin"}}
	diag := domain.NewDiagnostics(Name, "FetchUnit 2021")
	res := testProvider(srv.URL, geo).FetchUnit(context.Background(), testQuery(), domain.YearUnit(2021), "", diag)

	require.Equal(t, domain.OutcomeRecords, res.Outcome)
	require.Len(t, res.Records, 3)
	assert.Equal(t, time.Date(2021, 7, 1, 0, 0, 0, 0, time.UTC), res.Records[0].Date)
	assert.InDelta(t, 27.4, res.Records[1].TemperatureMax, 1e-9)
	assert.InDelta(t, 3.2, res.Records[1].Precipitation, 1e-9)
	assert.Zero(t, res.Records[2].Precipitation)
	assert.Nil(t, res.Records[0].Location)
	assert.Zero(t, geo.calls, "geocoding happens once per query, not per year")
}

func TestProvider_ResolveLocation(t *testing.T) {
	q := testQuery()

	geo := &mockGeocoder{location: domain.Location{CityName: "Berlin", Country: "Germany", State: "Berlin"}}
	loc := testProvider("", geo).ResolveLocation(context.Background(), q)
	assert.Equal(t, 1, geo.calls)
	assert.Equal(t, domain.Location{Latitude: 52.52, Longitude: 13.41, CityName: "Berlin", Country: "Germany", State: "Berlin"}, loc)

	assert.Equal(t, q.Location, testProvider("", nil).ResolveLocation(context.Background(), q))
}

func TestProvider_FetchUnit_MissingArrays(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	bodies := map[string]string{
		"no daily":        `{}`,
		"no max array":    `{"daily":{"time":["2021-07-01"],"temperature_2m_min":[1],"precipitation_sum":[0]}}`,
		"no precip array": `{"daily":{"time":["2021-07-01"],"temperature_2m_max":[2],"temperature_2m_min":[1]}}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			diag := domain.NewDiagnostics(Name, "FetchUnit 2021")
			res := testProvider(srv.URL, nil).FetchUnit(context.Background(), testQuery(), domain.YearUnit(2021), "", diag)
			assert.Equal(t, domain.OutcomeNoData, res.Outcome)
		})
	}
}

func TestProvider_FetchUnit_SkipsNullEntries(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"daily":{
			"time":["2021-07-01","bogus","2021-07-03"],
			"temperature_2m_max":[null,20,21],
			"temperature_2m_min":[10,11],
			"precipitation_sum":[0,0,0]
		}}`))
	}))
	defer srv.Close()

	diag := domain.NewDiagnostics(Name, "FetchUnit 2021")
	res := testProvider(srv.URL, nil).FetchUnit(context.Background(), testQuery(), domain.YearUnit(2021), "", diag)

	assert.Equal(t, domain.OutcomeNoData, res.Outcome)
	assert.Empty(t, res.Records)
	assert.Equal(t, 3, diag.ErrorCount())
}

func TestProvider_FetchUnit_ServerError(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":true,"reason":"overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	diag := domain.NewDiagnostics(Name, "FetchUnit 2021")
	res := testProvider(srv.URL, nil).FetchUnit(context.Background(), testQuery(), domain.YearUnit(2021), "", diag)

	assert.Equal(t, domain.OutcomeFailure, res.Outcome)
	assert.Equal(t, http.StatusServiceUnavailable, diag.StatusCode())
	assert.Contains(t, res.Reason, "overloaded")
}
