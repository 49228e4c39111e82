package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/go-playground/validator/v10"

	"github.com/couchcryptid/traffic-weather-etl/internal/domain"
)

const (
	DefaultTrafficURL = "https://data.cityofnewyork.us/api/views/btm5-ppia/rows.csv"
	DefaultWeatherURL = "https://bulk.meteostat.net/v2/hourly/72502.csv.gz"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	StorePath  string `env:"STORE_PATH" validate:"required"`
	WriteMode  string `env:"WRITE_MODE" validate:"oneof=replace append"`
	TrafficURL string `env:"TRAFFIC_URL" validate:"required,url"`
	WeatherURL string `env:"WEATHER_URL" validate:"required,url"`
	TargetYear int    `env:"TARGET_YEAR" validate:"min=1900,max=2100"`
	CacheDir   string `env:"CACHE_DIR"`

	SeasonSpec    string `env:"SEASON_MAPPING" validate:"required"`
	SeasonMapping domain.SeasonMapping

	HTTPTimeout     time.Duration
	HTTPAddr        string `env:"HTTP_ADDR" validate:"required"`
	LogLevel        string `env:"LOG_LEVEL" validate:"oneof=debug info warn warning error"`
	LogFormat       string `env:"LOG_FORMAT" validate:"oneof=json text"`
	ShutdownTimeout time.Duration
	RefreshInterval time.Duration

	// Optional delivery of the enriched table.
	KafkaEnabled    bool
	KafkaBrokers    []string
	KafkaTopic      string `env:"KAFKA_TOPIC" validate:"required_if=KafkaEnabled true"`
	ExportCSV       string `env:"EXPORT_CSV"`
	ExportParquet   string `env:"EXPORT_PARQUET"`
	S3Bucket        string `env:"S3_BUCKET"`
	S3Prefix        string `env:"S3_PREFIX"`
	AWSRegion       string `env:"AWS_REGION" validate:"required_with=S3Bucket"`
	MetricsTextfile string `env:"METRICS_TEXTFILE"`
}

// LogSettings satisfies observability.LogConfig.
func (c *Config) LogSettings() (level, format string) {
	return c.LogLevel, c.LogFormat
}

// SinksEnabled reports whether any consumer of the enriched table is configured.
func (c *Config) SinksEnabled() bool {
	return c.KafkaEnabled || c.ExportCSV != "" || c.ExportParquet != ""
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	httpTimeout, err := parseDuration("HTTP_TIMEOUT", "5m", true)
	if err != nil {
		return nil, err
	}
	refreshInterval, err := parseDuration("REFRESH_INTERVAL", "24h", false)
	if err != nil {
		return nil, err
	}

	year, err := strconv.Atoi(sharedcfg.EnvOrDefault("TARGET_YEAR", "2012"))
	if err != nil {
		return nil, errors.New("invalid TARGET_YEAR")
	}

	cfg := &Config{
		StorePath:  sharedcfg.EnvOrDefault("STORE_PATH", "data/MADE.sqlite"),
		WriteMode:  sharedcfg.EnvOrDefault("WRITE_MODE", "replace"),
		TrafficURL: sharedcfg.EnvOrDefault("TRAFFIC_URL", DefaultTrafficURL),
		WeatherURL: sharedcfg.EnvOrDefault("WEATHER_URL", DefaultWeatherURL),
		TargetYear: year,
		CacheDir:   os.Getenv("CACHE_DIR"),
		SeasonSpec: sharedcfg.EnvOrDefault("SEASON_MAPPING", "meteorological"),

		HTTPTimeout:     httpTimeout,
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        strings.ToLower(sharedcfg.EnvOrDefault("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(sharedcfg.EnvOrDefault("LOG_FORMAT", "json")),
		ShutdownTimeout: shutdownTimeout,
		RefreshInterval: refreshInterval,

		KafkaEnabled:    os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:    sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:      sharedcfg.EnvOrDefault("KAFKA_TOPIC", "traffic-weather-monthly"),
		ExportCSV:       os.Getenv("EXPORT_CSV"),
		ExportParquet:   os.Getenv("EXPORT_PARQUET"),
		S3Bucket:        os.Getenv("S3_BUCKET"),
		S3Prefix:        os.Getenv("S3_PREFIX"),
		AWSRegion:       os.Getenv("AWS_REGION"),
		MetricsTextfile: os.Getenv("METRICS_TEXTFILE"),
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, describe(err)
	}

	cfg.SeasonMapping, err = domain.ParseSeasonMapping(cfg.SeasonSpec)
	if err != nil {
		return nil, fmt.Errorf("invalid SEASON_MAPPING: %w", err)
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	if cfg.S3Bucket != "" && cfg.ExportCSV == "" && cfg.ExportParquet == "" {
		return nil, errors.New("S3_BUCKET is set but neither EXPORT_CSV nor EXPORT_PARQUET is")
	}

	return cfg, nil
}

// describe turns the first validation failure into an error naming the variable.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	if fe.Param() != "" {
		return fmt.Errorf("invalid %s: %q fails %s=%s", fe.Field(), fe.Value(), fe.Tag(), fe.Param())
	}
	return fmt.Errorf("invalid %s: %q fails %s", fe.Field(), fe.Value(), fe.Tag())
}

func parseDuration(key, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}
