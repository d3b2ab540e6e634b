package domain

import (
	"fmt"
	"time"
)

// Unknown is the placeholder for unresolved location text fields.
const Unknown = "Unknown"

// Location is a geographic point with an optional resolved place name.
type Location struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	CityName  string  `json:"city_name"`
	Country   string  `json:"country"`
	State     string  `json:"state"`
}

// FallbackLocation is the location reported when reverse geocoding fails:
// the coordinates to four decimals as the city, everything else Unknown.
func FallbackLocation(lat, lon float64) Location {
	return Location{
		Latitude:  lat,
		Longitude: lon,
		CityName:  fmt.Sprintf("%.4f, %.4f", lat, lon),
		Country:   Unknown,
		State:     Unknown,
	}
}

// DisplayName is the label used for export file names.
func (l Location) DisplayName() string {
	if l.CityName == "" || l.CityName == Unknown {
		return fmt.Sprintf("%.4f, %.4f", l.Latitude, l.Longitude)
	}
	return l.CityName
}

// WeatherRecord is one day of observations in metric units.
type WeatherRecord struct {
	Date           time.Time `json:"date"`
	TemperatureMin float64   `json:"temperature_min"`
	TemperatureMax float64   `json:"temperature_max"`
	Precipitation  float64   `json:"precipitation"`
	Provider       string    `json:"provider"`
	Location       *Location `json:"location,omitempty"`
}

// Response is the aggregated result of one historical query.
type Response struct {
	Success      bool            `json:"success"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Data         []WeatherRecord `json:"data"`
}

// FailedResponse builds a response that carries no data.
func FailedResponse(msg string) Response {
	return Response{Success: false, ErrorMessage: msg}
}

// TruncateDay returns t's calendar day as a UTC midnight.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
