package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/cityweather/internal/cities"
)

var validate = validator.New()

type AppConfig struct {
	Port        string        `validate:"required,numeric"`
	HTTPTimeout time.Duration `validate:"gt=0"`

	LogLevel string
	LogFile  string

	CitiesBaseURL     string `validate:"required,url"`
	WeatherBaseURL    string `validate:"required,url"`
	OpenWeatherAPIKey string

	// FetchDelay is the simulated latency applied before every upstream call.
	FetchDelay time.Duration `validate:"gte=0"`

	// Variant selects the list preset; the individual settings below
	// override it when set.
	Variant string `validate:"oneof=table list"`
	List    cities.Options

	// Outbound throttling per upstream (0 = unlimited).
	UpstreamRateLimit float64 `validate:"gte=0"`
	UpstreamRateBurst int     `validate:"gte=0"`

	// HTTP surface cache and warmer.
	CacheTTL     time.Duration `validate:"gte=0"`
	WarmInterval time.Duration `validate:"gte=0"`
	WarmCities   []string
}

// Load reads configuration from environment with sensible defaults.
// A .env file in the working directory is honoured when present.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.Port = getenvDefault("PORT", "8080")
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.LogFile = os.Getenv("LOG_FILE")

	cfg.CitiesBaseURL = getenvDefault("CITIES_BASE_URL", cities.DefaultBaseURL)
	cfg.WeatherBaseURL = getenvDefault("WEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5/weather")
	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")

	if cfg.FetchDelay, err = getenvDuration("FETCH_DELAY", time.Second); err != nil {
		return nil, err
	}

	cfg.Variant = getenvDefault("LIST_VARIANT", cities.VariantTable)
	if err := cfg.applyVariant(cfg.Variant); err != nil {
		return nil, err
	}

	if cfg.UpstreamRateLimit, err = getenvFloat("UPSTREAM_RATE_LIMIT", 5); err != nil {
		return nil, err
	}
	cfg.UpstreamRateBurst = getenvInt("UPSTREAM_RATE_BURST", 5)

	if cfg.CacheTTL, err = getenvDuration("CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.WarmInterval, err = getenvDuration("WARM_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}
	cfg.WarmCities = splitList(os.Getenv("WARM_CITIES"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyVariant switches the list preset and re-applies env overrides.
func (c *AppConfig) ApplyVariant(name string) error {
	if err := c.applyVariant(name); err != nil {
		return err
	}
	c.Variant = name
	return c.Validate()
}

func (c *AppConfig) applyVariant(name string) error {
	opts, err := cities.VariantOptions(name)
	if err != nil {
		return err
	}

	opts.PageSize = getenvInt("PAGE_SIZE", opts.PageSize)
	opts.Threshold = getenvInt("SCROLL_THRESHOLD", opts.Threshold)
	if opts.Debounce, err = getenvDuration("SCROLL_DEBOUNCE", opts.Debounce); err != nil {
		return err
	}
	opts.ResetOnEmptySearch = getenvBool("RESET_ON_EMPTY_SEARCH", opts.ResetOnEmptySearch)
	opts.IncludeTimezone = getenvBool("INCLUDE_TIMEZONE", opts.IncludeTimezone)

	c.List = opts
	return nil
}

// Validate checks the struct tags of the config and the list options.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
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

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
