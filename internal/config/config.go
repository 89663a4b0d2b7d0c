package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/phuslu/log"
	"github.com/robfig/cron/v3"

	"github.com/i474232898/weather-etl/internal/common"
	"github.com/i474232898/weather-etl/internal/warehouse"
	"github.com/i474232898/weather-etl/internal/weather/providers"
)

// DefaultCities is the city list used when ETL_CITIES is unset.
var DefaultCities = []string{"Montreal", "New York", "Chicago"}

var validate = validator.New()

type AppConfig struct {
	OpenWeatherAPIKey string `validate:"required"`
	GeocoderURL       string `validate:"required,url"`
	WeatherURL        string `validate:"required,url"`
	Units             string `validate:"oneof=standard metric imperial"`

	// HTTPTimeout bounds each outbound request; zero keeps the client default.
	HTTPTimeout time.Duration `validate:"gte=0"`

	// Cities to geocode and fetch, in load order.
	Cities []string `validate:"required,min=1,dive,required"`

	// Schedule is a 5-field cron expression. Empty means run once and exit.
	Schedule string

	// In-memory run store retention.
	StoreMaxHistory int           // max number of runs kept (0 = unlimited)
	StoreMaxAge     time.Duration // max age of runs (0 = unlimited)

	Port     string
	LogLevel string

	Warehouse warehouse.Config `validate:"-"`
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Info().Err(err).Msg("no .env file found or error loading it")
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPEN_WEATHER_API_KEY")
	cfg.GeocoderURL = getenvDefault("OPEN_WEATHER_GEOCODER_URL", providers.DefaultGeocoderURL)
	cfg.WeatherURL = getenvDefault("OPEN_WEATHER_WEATHER_URL", providers.DefaultWeatherURL)
	cfg.Units = getenvDefault("OPEN_WEATHER_UNITS", providers.UnitsStandard)

	timeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.Cities = DefaultCities
	if v := os.Getenv("ETL_CITIES"); v != "" {
		cfg.Cities = common.SplitList(v)
	}

	cfg.Schedule = strings.TrimSpace(os.Getenv("ETL_SCHEDULE"))
	if cfg.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			return nil, fmt.Errorf("invalid ETL_SCHEDULE: %w", err)
		}
	}

	// Run store retention.
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 96) // a day of 15-minute runs

	maxAge, err := time.ParseDuration(getenvDefault("STORE_MAX_AGE", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_MAX_AGE: %w", err)
	}
	cfg.StoreMaxAge = maxAge
	cfg.Port = getenvDefault("PORT", "8080")
	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")

	wh, err := loadWarehouse()
	if err != nil {
		return nil, err
	}
	cfg.Warehouse = wh

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadWarehouse builds the warehouse target. Credentials are not checked here;
// an incomplete set surfaces when the connection is opened.
func loadWarehouse() (warehouse.Config, error) {
	auth, err := loadAuth()
	if err != nil {
		return warehouse.Config{}, err
	}

	return warehouse.Config{
		Account:   os.Getenv("SNOWFLAKE_ACCOUNT"),
		Host:      os.Getenv("SNOWFLAKE_HOST"),
		Database:  getenvDefault("SNOWFLAKE_DATABASE", "ORCA_TRACKER"),
		Schema:    getenvDefault("SNOWFLAKE_SCHEMA", "WEATHER"),
		Warehouse: getenvDefault("SNOWFLAKE_WAREHOUSE", "SPCS_ETL"),
		Role:      getenvDefault("SNOWFLAKE_ROLE", "ORCA_TRACKER_DEV"),
		Table:     getenvDefault("SNOWFLAKE_TABLE", warehouse.DefaultTable),
		Auth:      auth,
	}, nil
}

// loadAuth picks the auth strategy. SNOWFLAKE_AUTH wins; when it is unset the
// presence of the session token file selects oauth.
func loadAuth() (warehouse.Auth, error) {
	tokenFile := getenvDefault("SNOWFLAKE_TOKEN_FILE", warehouse.DefaultTokenFile)

	mode := strings.ToLower(strings.TrimSpace(os.Getenv("SNOWFLAKE_AUTH")))
	if mode == "" {
		mode = warehouse.AuthModePassword
		if _, err := os.Stat(tokenFile); err == nil {
			mode = warehouse.AuthModeOAuth
		}
	}

	switch mode {
	case warehouse.AuthModeOAuth:
		return warehouse.TokenFileAuth{Path: tokenFile}, nil
	case warehouse.AuthModePassword:
		return warehouse.CredentialAuth{
			Username: os.Getenv("SNOWFLAKE_USERNAME"),
			Password: os.Getenv("SNOWFLAKE_PASSWORD"),
		}, nil
	default:
		return nil, errors.New("invalid SNOWFLAKE_AUTH: must be oauth or password")
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
