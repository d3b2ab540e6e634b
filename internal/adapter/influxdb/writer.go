// Package influxdb writes weather records as daily points to InfluxDB v2.
package influxdb

import (
	"context"
	"fmt"
	"log/slog"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/couchcryptid/historic-weather-service/internal/config"
	"github.com/couchcryptid/historic-weather-service/internal/domain"
)

// Measurement is the InfluxDB measurement records are written to.
const Measurement = "daily_weather"

type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// Writer implements domain.RecordSink with a blocking InfluxDB write API.
type Writer struct {
	client   influxdb2.Client
	writeAPI pointWriter
	logger   *slog.Logger
}

// NewWriter connects to InfluxDB and verifies it is healthy.
func NewWriter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Writer, error) {
	client := influxdb2.NewClient(cfg.InfluxURL, cfg.InfluxToken)

	if _, err := client.Health(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to influxdb: %w", err)
	}

	return &Writer{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket),
		logger:   logger,
	}, nil
}

// Publish writes one point per record, timestamped at the record's date.
func (w *Writer) Publish(ctx context.Context, q domain.QueryParameters, records []domain.WeatherRecord) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]*write.Point, len(records))
	for i, r := range records {
		points[i] = recordToPoint(q.Location, r)
	}
	if err := w.writeAPI.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("write %d points: %w", len(points), err)
	}
	w.logger.Debug("records written to influxdb", "provider", q.ProviderName, "count", len(points))
	return nil
}

func (w *Writer) Close() {
	if w.client != nil {
		w.client.Close()
	}
}

func recordToPoint(point domain.Location, r domain.WeatherRecord) *write.Point {
	tags := map[string]string{"provider": r.Provider}
	if r.Location != nil {
		if r.Location.CityName != "" {
			tags["city"] = r.Location.CityName
		}
		if r.Location.Country != "" {
			tags["country"] = r.Location.Country
		}
	}
	return write.NewPoint(
		Measurement,
		tags,
		map[string]any{
			"temperature_min": r.TemperatureMin,
			"temperature_max": r.TemperatureMax,
			"precipitation":   r.Precipitation,
			"latitude":        point.Latitude,
			"longitude":       point.Longitude,
		},
		r.Date,
	)
}
