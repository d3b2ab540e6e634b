// Command history runs one historical weather query and exports the result.
//
// Usage:
//
//	go run ./cmd/history \
//	  -provider OpenMeteo -lat 51.5074 -lon -0.1278 \
//	  -start 2024-01-01 -end 2024-01-31 -years 5 \
//	  -format csv -averages -out exports
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/historic-weather-service/internal/adapter/nominatim"
	"github.com/couchcryptid/historic-weather-service/internal/adapter/settings"
	"github.com/couchcryptid/historic-weather-service/internal/config"
	"github.com/couchcryptid/historic-weather-service/internal/domain"
	"github.com/couchcryptid/historic-weather-service/internal/export"
	"github.com/couchcryptid/historic-weather-service/internal/observability"
	"github.com/couchcryptid/historic-weather-service/internal/pipeline"
	"github.com/couchcryptid/historic-weather-service/internal/provider"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	providerName := flag.String("provider", "OpenMeteo", "weather provider name")
	lat := flag.Float64("lat", 0, "latitude")
	lon := flag.Float64("lon", 0, "longitude")
	start := flag.String("start", "", "start date (YYYY-MM-DD)")
	end := flag.String("end", "", "end date (YYYY-MM-DD), defaults to today")
	years := flag.Int("years", cfg.DefaultYears, "number of years back for year-based providers")
	format := flag.String("format", "csv", "export format: csv, xlsx or json")
	averages := flag.Bool("averages", false, "also export per-day averages (csv and xlsx)")
	outDir := flag.String("out", cfg.ExportDir, "export directory")
	flag.Parse()

	logger := observability.NewLogger(cfg)

	q, err := buildQuery(*providerName, *lat, *lon, *start, *end, *years)
	if err != nil {
		logger.Error("invalid arguments", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.QueryTimeout)
	defer cancel()

	metrics := observability.NewMetrics()
	apiLog := observability.NewAPILog(logger)
	resolver := nominatim.NewClient(cfg.NominatimURL, cfg.NominatimUserAgent, cfg.GeocodeTimeout, logger)
	geocoder := nominatim.NewGeocoder(nominatim.NewCachedResolver(resolver, cfg.GeocodeCacheTTL, metrics), metrics, logger)

	svc := pipeline.NewService(
		provider.NewDefaultFactory(cfg, geocoder, apiLog, metrics, logger),
		settings.NewOSFileStore(cfg.SettingsFile, cfg.APIKeys),
		logger,
		metrics,
	)

	resp, err := svc.Query(ctx, q)
	if err != nil {
		logger.Error("query rejected", "error", err)
		os.Exit(2)
	}
	if !resp.Success {
		logger.Error("query failed", "error", resp.ErrorMessage)
		os.Exit(1)
	}

	location := exportName(ctx, geocoder, q)
	paths, err := write(export.NewOSExporter(*outDir), *format, location, resp.Data, *averages)
	if err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}
	for _, p := range paths {
		fmt.Println(p)
	}
	logger.Info("export complete", "records", len(resp.Data), "files", len(paths))
}

func buildQuery(providerName string, lat, lon float64, start, end string, years int) (domain.QueryParameters, error) {
	q := domain.QueryParameters{
		Location:     domain.Location{Latitude: lat, Longitude: lon},
		YearsBack:    years,
		ProviderName: providerName,
	}
	s, err := time.Parse(domain.DateLayout, start)
	if err != nil {
		return q, fmt.Errorf("start: %w", err)
	}
	q.StartDate = s
	if end != "" {
		e, err := time.Parse(domain.DateLayout, end)
		if err != nil {
			return q, fmt.Errorf("end: %w", err)
		}
		q.EndDate = &e
	}
	return q, q.Validate(domain.Now())
}

// exportName labels the export files with the resolved place name, falling
// back to the coordinates.
func exportName(ctx context.Context, geocoder domain.ReverseGeocoder, q domain.QueryParameters) string {
	return geocoder.GetLocationData(ctx, q.Location.Latitude, q.Location.Longitude).DisplayName()
}

func write(e *export.Exporter, format, location string, records []domain.WeatherRecord, averages bool) ([]string, error) {
	switch format {
	case "csv":
		return e.WriteCSV(location, records, averages)
	case "xlsx":
		path, err := e.WriteExcel(location, records, averages)
		if err != nil {
			return nil, err
		}
		return []string{path}, nil
	case "json":
		path, err := e.WriteJSON(location, records)
		if err != nil {
			return nil, err
		}
		return []string{path}, nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}
