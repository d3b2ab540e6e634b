package nominatim

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/historic-weather-service/internal/domain"
)

const testUserAgent = "historic-weather-test/1.0"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient(baseURL string) *Client {
	return NewClient(baseURL, testUserAgent, 5*time.Second, discardLogger())
}

func serveJSON(t *testing.T, v any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(v))
	}))
}

func TestClient_Resolve_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, testUserAgent, r.Header.Get("User-Agent"))
		q := r.URL.Query()
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "51.507400", q.Get("lat"))
		assert.Equal(t, "-0.127800", q.Get("lon"))
		assert.Equal(t, "1", q.Get("addressdetails"))
		_, _ = w.Write([]byte(`{"display_name":"London, Greater London, England, United Kingdom",
			"address":{"city":"London","state":"England","country":"United Kingdom"}}`))
	}))
	defer srv.Close()

	loc, err := testClient(srv.URL).Resolve(context.Background(), 51.5074, -0.1278)
	require.NoError(t, err)
	assert.Equal(t, "London", loc.CityName)
	assert.Equal(t, "England", loc.State)
	assert.Equal(t, "United Kingdom", loc.Country)
	assert.Equal(t, 51.5074, loc.Latitude)
}

func TestClient_Resolve_CityFallbackChain(t *testing.T) {
	tests := []struct {
		name  string
		resp  response
		city  string
		state string
	}{
		{"town", response{DisplayName: "x", Address: address{Town: "Hebden Bridge", Region: "Yorkshire"}}, "Hebden Bridge", "Yorkshire"},
		{"village", response{DisplayName: "x", Address: address{Village: "Grasmere"}}, "Grasmere", domain.Unknown},
		{"display name", response{DisplayName: "Lake District National Park, Cumbria, England"}, "Lake District National Park", domain.Unknown},
		{"city wins", response{DisplayName: "x", Address: address{City: "Leeds", Town: "Otley", State: "England"}}, "Leeds", "England"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serveJSON(t, tt.resp)
			defer srv.Close()

			loc, err := testClient(srv.URL).Resolve(context.Background(), 54, -3)
			require.NoError(t, err)
			assert.Equal(t, tt.city, loc.CityName)
			assert.Equal(t, tt.state, loc.State)
		})
	}
}

func TestClient_Resolve_Errors(t *testing.T) {
	t.Run("api error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		_, err := testClient(srv.URL).Resolve(context.Background(), 1, 2)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
	})

	t.Run("unable to geocode", func(t *testing.T) {
		srv := serveJSON(t, map[string]string{"error": "Unable to geocode"})
		defer srv.Close()

		_, err := testClient(srv.URL).Resolve(context.Background(), 0, -30)
		assert.True(t, errors.Is(err, ErrNoResult))
	})

	t.Run("empty body object", func(t *testing.T) {
		srv := serveJSON(t, map[string]string{})
		defer srv.Close()

		_, err := testClient(srv.URL).Resolve(context.Background(), 0, -30)
		assert.True(t, errors.Is(err, ErrNoResult))
	})

	t.Run("malformed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}))
		defer srv.Close()

		_, err := testClient(srv.URL).Resolve(context.Background(), 1, 2)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode response")
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(2 * time.Second):
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()

		c := NewClient(srv.URL, testUserAgent, 50*time.Millisecond, discardLogger())
		_, err := c.Resolve(context.Background(), 1, 2)
		require.Error(t, err)
	})
}
