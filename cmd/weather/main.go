package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/historic-weather-service/internal/adapter/http"
	"github.com/couchcryptid/historic-weather-service/internal/adapter/influxdb"
	kafkaadapter "github.com/couchcryptid/historic-weather-service/internal/adapter/kafka"
	"github.com/couchcryptid/historic-weather-service/internal/adapter/nominatim"
	"github.com/couchcryptid/historic-weather-service/internal/adapter/settings"
	"github.com/couchcryptid/historic-weather-service/internal/config"
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

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	apiLog := observability.NewAPILog(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resolver := nominatim.NewClient(cfg.NominatimURL, cfg.NominatimUserAgent, cfg.GeocodeTimeout, logger)
	geocoder := nominatim.NewGeocoder(nominatim.NewCachedResolver(resolver, cfg.GeocodeCacheTTL, metrics), metrics, logger)

	providers := provider.NewDefaultFactory(cfg, geocoder, apiLog, metrics, logger)
	store := settings.NewOSFileStore(cfg.SettingsFile, cfg.APIKeys)

	var sinks []pipeline.Sink
	var kafkaWriter *kafkaadapter.Writer
	if cfg.KafkaEnabled() {
		kafkaWriter = kafkaadapter.NewWriter(cfg, logger)
		sinks = append(sinks, pipeline.Sink{Name: "kafka", RecordSink: kafkaWriter})
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	var influxWriter *influxdb.Writer
	if cfg.InfluxEnabled() {
		influxWriter, err = influxdb.NewWriter(ctx, cfg, logger)
		if err != nil {
			logger.Error("influxdb sink disabled", "error", err)
		} else {
			sinks = append(sinks, pipeline.Sink{Name: "influxdb", RecordSink: influxWriter})
			logger.Info("influxdb sink enabled", "url", cfg.InfluxURL, "bucket", cfg.InfluxBucket)
		}
	}

	svc := pipeline.NewService(providers, store, logger, metrics, sinks...)

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, httpadapter.Options{
		QueryTimeout: cfg.QueryTimeout,
		DefaultYears: cfg.DefaultYears,
	}, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaWriter != nil {
		if err := kafkaWriter.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if influxWriter != nil {
		influxWriter.Close()
	}

	logger.Info("shutdown complete")
}
