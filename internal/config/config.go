package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Provider transport.
	ProviderTimeout    time.Duration
	ProviderRateLimit  float64 // requests per second per provider, 0 disables
	ProviderRateBurst  int
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration

	// Provider base URLs, overridable for proxies and tests.
	OpenMeteoURL      string
	OpenWeatherMapURL string
	WeatherAPIURL     string
	VisualCrossingURL string

	// API keys from the environment. Keys saved in the settings file take precedence.
	APIKeys      map[string]string
	SettingsFile string

	// Nominatim reverse geocoding.
	NominatimURL       string
	NominatimUserAgent string
	GeocodeTimeout     time.Duration
	GeocodeCacheTTL    time.Duration

	// Optional record sinks, enabled when their address is set.
	KafkaBrokers []string
	KafkaTopic   string
	InfluxURL    string
	InfluxToken  string
	InfluxOrg    string
	InfluxBucket string

	ExportDir    string
	DefaultYears int
	QueryTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory is loaded first when present;
// variables already set in the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	providerTimeout, err := parseDuration("PROVIDER_TIMEOUT", "300s")
	if err != nil {
		return nil, err
	}
	breakerOpen, err := parseDuration("BREAKER_OPEN_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	geocodeTimeout, err := parseDuration("GEOCODE_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	geocodeTTL, err := parseDuration("GEOCODE_CACHE_TTL", "24h")
	if err != nil {
		return nil, err
	}
	queryTimeout, err := parseDuration("QUERY_TIMEOUT", "15m")
	if err != nil {
		return nil, err
	}

	rateLimit, err := strconv.ParseFloat(envOrDefault("PROVIDER_RATE_LIMIT", "5"), 64)
	if err != nil || rateLimit < 0 {
		return nil, errors.New("invalid PROVIDER_RATE_LIMIT")
	}
	rateBurst, err := parsePositiveInt("PROVIDER_RATE_BURST", "1")
	if err != nil {
		return nil, err
	}
	maxFailures, err := parsePositiveInt("BREAKER_MAX_FAILURES", "5")
	if err != nil {
		return nil, err
	}
	defaultYears, err := parsePositiveInt("DEFAULT_YEARS_BACK", "5")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ProviderTimeout:    providerTimeout,
		ProviderRateLimit:  rateLimit,
		ProviderRateBurst:  rateBurst,
		BreakerMaxFailures: uint32(maxFailures),
		BreakerOpenTimeout: breakerOpen,

		OpenMeteoURL:      envOrDefault("OPENMETEO_URL", "https://archive-api.open-meteo.com"),
		OpenWeatherMapURL: envOrDefault("OPENWEATHERMAP_URL", "https://api.openweathermap.org"),
		WeatherAPIURL:     envOrDefault("WEATHERAPI_URL", "https://api.weatherapi.com"),
		VisualCrossingURL: envOrDefault("VISUALCROSSING_URL", "https://weather.visualcrossing.com"),

		APIKeys:      envAPIKeys(),
		SettingsFile: envOrDefault("SETTINGS_FILE", defaultSettingsFile()),

		NominatimURL:       envOrDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		NominatimUserAgent: envOrDefault("NOMINATIM_USER_AGENT", "historic-weather-service/1.0"),
		GeocodeTimeout:     geocodeTimeout,
		GeocodeCacheTTL:    geocodeTTL,

		KafkaBrokers: parseList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "historic-weather-records"),
		InfluxURL:    os.Getenv("INFLUXDB_URL"),
		InfluxToken:  os.Getenv("INFLUXDB_TOKEN"),
		InfluxOrg:    os.Getenv("INFLUXDB_ORG"),
		InfluxBucket: envOrDefault("INFLUXDB_BUCKET", "weather"),
		ExportDir:    envOrDefault("EXPORT_DIR", "."),
		DefaultYears: defaultYears,
		QueryTimeout: queryTimeout,
	}

	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	if cfg.InfluxURL != "" && cfg.InfluxOrg == "" {
		return nil, errors.New("INFLUXDB_ORG is required when INFLUXDB_URL is set")
	}

	return cfg, nil
}

// KafkaEnabled reports whether records are published to Kafka.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// InfluxEnabled reports whether records are written to InfluxDB.
func (c *Config) InfluxEnabled() bool { return c.InfluxURL != "" }

// envAPIKeys maps provider names to keys provided through the environment.
func envAPIKeys() map[string]string {
	keys := make(map[string]string)
	for provider, env := range map[string]string{
		"OpenWeatherMap":  "OPENWEATHERMAP_API_KEY",
		"WeatherAPI":      "WEATHERAPI_API_KEY",
		"Visual Crossing": "VISUALCROSSING_API_KEY",
	} {
		if v := os.Getenv(env); v != "" {
			keys[provider] = v
		}
	}
	return keys
}

func defaultSettingsFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "HistoricWeatherData", "settings.json")
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key, fallback string) (int, error) {
	n, err := strconv.Atoi(envOrDefault(key, fallback))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
