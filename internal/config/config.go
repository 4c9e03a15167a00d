package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	envBaseURL         = "PP_BASE_URL"
	envAPIKey          = "PP_API_KEY"
	envLogLevel        = "PP_LOG_LEVEL"
	envRequestTimeout  = "PP_REQUEST_TIMEOUT"
	envRateLimit       = "PP_RATE_LIMIT"
	envRateBurst       = "PP_RATE_BURST"
	envConcurrency     = "PP_CONCURRENCY"
	envMetricsPort     = "PP_METRICS_PORT"
	envSlackWebhookURL = "PP_SLACK_WEBHOOK_URL"
	envWebhookURL      = "PP_WEBHOOK_URL"
	envWebhookTemplate = "PP_WEBHOOK_TEMPLATE"
	envDryRun          = "PP_DRY_RUN"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultConcurrency    = 4
	defaultRateBurst      = 1
)

// Config describes runtime configuration loaded from the environment.
type Config struct {
	BaseURL         string
	APIKey          string
	LogLevel        string
	RequestTimeout  time.Duration
	RateLimit       float64 // requests per second; zero disables limiting
	RateBurst       int
	Concurrency     int
	MetricsPort     int // zero disables the metrics server
	SlackWebhookURL string
	WebhookURL      string
	WebhookTemplate string
	DryRun          bool
}

// Load reads configuration from environment variables and a local .env file
// if present. Existing environment variables take precedence over .env values.
func Load() (Config, error) {
	if err := loadDotEnvIfPresent(".env"); err != nil {
		return Config{}, err
	}

	cfg := Config{
		RequestTimeout: defaultRequestTimeout,
		Concurrency:    defaultConcurrency,
		RateBurst:      defaultRateBurst,
	}

	if value, ok := lookupTrimmed(envBaseURL); ok {
		cfg.BaseURL = value
	}
	if value, ok := lookupTrimmed(envAPIKey); ok {
		cfg.APIKey = value
	}
	if value, ok := lookupTrimmed(envLogLevel); ok {
		cfg.LogLevel = value
	}

	if value, ok := lookupTrimmed(envRequestTimeout); ok {
		timeout, err := time.ParseDuration(value)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envRequestTimeout, err)
		}
		if timeout <= 0 {
			return Config{}, fmt.Errorf("%s must be greater than zero", envRequestTimeout)
		}
		cfg.RequestTimeout = timeout
	}

	if value, ok := lookupTrimmed(envRateLimit); ok {
		limit, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envRateLimit, err)
		}
		if limit < 0 {
			return Config{}, fmt.Errorf("%s must not be negative", envRateLimit)
		}
		cfg.RateLimit = limit
	}

	if value, ok := lookupTrimmed(envRateBurst); ok {
		burst, err := strconv.Atoi(value)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envRateBurst, err)
		}
		if burst < 1 {
			return Config{}, fmt.Errorf("%s must be at least 1", envRateBurst)
		}
		cfg.RateBurst = burst
	}

	if value, ok := lookupTrimmed(envConcurrency); ok {
		concurrency, err := strconv.Atoi(value)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envConcurrency, err)
		}
		if concurrency < 1 {
			return Config{}, fmt.Errorf("%s must be at least 1", envConcurrency)
		}
		cfg.Concurrency = concurrency
	}

	if value, ok := lookupTrimmed(envMetricsPort); ok {
		port, err := strconv.Atoi(value)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envMetricsPort, err)
		}
		if port < 0 || port > 65535 {
			return Config{}, fmt.Errorf("%s must be a valid port", envMetricsPort)
		}
		cfg.MetricsPort = port
	}

	if value, ok := lookupTrimmed(envSlackWebhookURL); ok {
		cfg.SlackWebhookURL = value
	}
	if value, ok := lookupTrimmed(envWebhookURL); ok {
		cfg.WebhookURL = value
	}
	if value, ok := lookupTrimmed(envWebhookTemplate); ok {
		cfg.WebhookTemplate = value
	}

	if value, ok := lookupTrimmed(envDryRun); ok {
		dryRun, err := strconv.ParseBool(value)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envDryRun, err)
		}
		cfg.DryRun = dryRun
	}

	if cfg.BaseURL == "" {
		return Config{}, errors.New("PP_BASE_URL is required")
	}
	if err := validateURL(cfg.BaseURL, envBaseURL); err != nil {
		return Config{}, err
	}
	if cfg.SlackWebhookURL != "" {
		if err := validateURL(cfg.SlackWebhookURL, envSlackWebhookURL); err != nil {
			return Config{}, err
		}
	}
	if cfg.WebhookURL != "" {
		if err := validateURL(cfg.WebhookURL, envWebhookURL); err != nil {
			return Config{}, err
		}
	}

	return cfg, nil
}

func lookupTrimmed(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(value), true
}

func loadDotEnvIfPresent(path string) error {
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, os.ErrNotExist) {
		return nil
	}

	return err
}

func validateURL(value, name string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid %s: must include scheme and host", name)
	}
	return nil
}
