package export

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/couchcryptid/historic-weather-service/internal/domain"
)

// Document is the JSON export envelope.
type Document struct {
	ExportDate  time.Time    `json:"exportDate"`
	RecordCount int          `json:"recordCount"`
	Data        []jsonRecord `json:"data"`
}

type jsonRecord struct {
	Date           string           `json:"date"`
	TemperatureMin float64          `json:"temperatureMin"`
	TemperatureMax float64          `json:"temperatureMax"`
	Precipitation  float64          `json:"precipitation"`
	Provider       string           `json:"weatherProvider"`
	Location       *domain.Location `json:"location,omitempty"`
}

// NewDocument wraps records in an export envelope stamped with the current time.
func NewDocument(records []domain.WeatherRecord) Document {
	data := make([]jsonRecord, 0, len(records))
	for _, r := range records {
		data = append(data, jsonRecord{
			Date:           r.Date.Format(domain.DateLayout),
			TemperatureMin: r.TemperatureMin,
			TemperatureMax: r.TemperatureMax,
			Precipitation:  r.Precipitation,
			Provider:       r.Provider,
			Location:       r.Location,
		})
	}
	return Document{ExportDate: domain.Now().UTC(), RecordCount: len(records), Data: data}
}

// EncodeJSON writes the export document for records as indented JSON.
func EncodeJSON(w io.Writer, records []domain.WeatherRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(records))
}

// WriteJSON writes "{location}.json".
func (e *Exporter) WriteJSON(location string, records []domain.WeatherRecord) (_ string, err error) {
	dir, err := e.locationDir(location)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, sanitizeFileName(location)+".json")
	f, err := e.fs.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer closeWritten(f, path, &err)
	if err := EncodeJSON(f, records); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
