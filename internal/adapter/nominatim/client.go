// Package nominatim resolves coordinates to place names through the
// OpenStreetMap Nominatim reverse geocoding API.
package nominatim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/historic-weather-service/internal/domain"
)

// DefaultBaseURL is the public Nominatim instance.
const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// ErrNoResult is returned when Nominatim has no place for the coordinates.
var ErrNoResult = errors.New("nominatim: no result")

// Resolver turns coordinates into a resolved location or an error.
type Resolver interface {
	Resolve(ctx context.Context, lat, lon float64) (domain.Location, error)
}

// Client calls the Nominatim /reverse endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	logger     *slog.Logger
}

// NewClient creates a Nominatim client. Nominatim's usage policy requires an
// identifying User-Agent.
func NewClient(baseURL, userAgent string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		logger:     logger,
	}
}

// Resolve looks up the place at lat/lon. City falls back through
// city, town, village and the first segment of display_name; state falls
// back to region. Unresolved fields are domain.Unknown.
func (c *Client) Resolve(ctx context.Context, lat, lon float64) (domain.Location, error) {
	params := url.Values{
		"format":         {"json"},
		"lat":            {fmt.Sprintf("%.6f", lat)},
		"lon":            {fmt.Sprintf("%.6f", lon)},
		"zoom":           {"10"},
		"addressdetails": {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+params.Encode(), nil)
	if err != nil {
		return domain.Location{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Location{}, fmt.Errorf("reverse geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.Location{}, fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return domain.Location{}, fmt.Errorf("decode response: %w", err)
	}
	if r.Error != "" {
		return domain.Location{}, fmt.Errorf("%w: %s", ErrNoResult, r.Error)
	}
	if r.DisplayName == "" && r.Address == (address{}) {
		return domain.Location{}, ErrNoResult
	}

	return domain.Location{
		Latitude:  lat,
		Longitude: lon,
		CityName:  firstNonEmpty(r.Address.City, r.Address.Town, r.Address.Village, firstSegment(r.DisplayName)),
		State:     firstNonEmpty(r.Address.State, r.Address.Region),
		Country:   firstNonEmpty(r.Address.Country),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return domain.Unknown
}

func firstSegment(displayName string) string {
	head, _, _ := strings.Cut(displayName, ",")
	return head
}

// Nominatim API response types.

type response struct {
	DisplayName string  `json:"display_name"`
	Address     address `json:"address"`
	Error       string  `json:"error"`
}

type address struct {
	City    string `json:"city"`
	Town    string `json:"town"`
	Village string `json:"village"`
	State   string `json:"state"`
	Region  string `json:"region"`
	Country string `json:"country"`
}
