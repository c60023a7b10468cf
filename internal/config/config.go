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
	envWebhooksFile         = "DS_WEBHOOKS_FILE"
	envNodeAPIURL           = "DS_NODE_API_URL"
	envHostID               = "DS_HOST_ID"
	envActiveDelegates      = "DS_ACTIVE_DELEGATES"
	envDelegatePollInterval = "DS_DELEGATE_POLL_INTERVAL"
	envEventsPort           = "DS_EVENTS_PORT"
	envEventsToken          = "DS_EVENTS_TOKEN"
	envHealthPort           = "DS_HEALTH_PORT"
	envMetricsPort          = "DS_METRICS_PORT"
	envLogLevel             = "DS_LOG_LEVEL"
	envDryRun               = "DS_DRY_RUN"
	envTokenSymbol          = "DS_TOKEN_SYMBOL"
)

const (
	defaultNodeAPIURL      = "http://localhost:4003"
	defaultActiveDelegates = 51
	defaultEventsPort      = 8090
	defaultLogLevel        = "info"
	defaultTokenSymbol     = "ARK"
)

// Config describes runtime configuration loaded from the environment.
type Config struct {
	WebhooksFile         string
	NodeAPIURL           string
	HostID               string
	ActiveDelegates      int
	DelegatePollInterval time.Duration
	EventsPort           int
	EventsToken          string
	HealthPort           int
	MetricsPort          int
	LogLevel             string
	DryRun               bool
	TokenSymbol          string
}

// Load reads configuration from environment variables and a local .env file if present.
// Existing environment variables take precedence over values in .env.
func Load() (Config, error) {
	if err := loadDotEnvIfPresent(".env"); err != nil {
		return Config{}, err
	}

	cfg := Config{
		NodeAPIURL:      defaultNodeAPIURL,
		ActiveDelegates: defaultActiveDelegates,
		EventsPort:      defaultEventsPort,
		LogLevel:        defaultLogLevel,
		TokenSymbol:     defaultTokenSymbol,
	}

	if value, ok := lookupTrimmed(envWebhooksFile); ok {
		cfg.WebhooksFile = value
	}
	if value, ok := lookupTrimmed(envNodeAPIURL); ok {
		cfg.NodeAPIURL = value
	}
	if value, ok := lookupTrimmed(envHostID); ok {
		cfg.HostID = value
	}
	if value, ok := lookupTrimmed(envEventsToken); ok {
		cfg.EventsToken = value
	}
	if value, ok := lookupTrimmed(envLogLevel); ok && value != "" {
		cfg.LogLevel = value
	}
	if value, ok := lookupTrimmed(envTokenSymbol); ok && value != "" {
		cfg.TokenSymbol = value
	}

	if value, ok := lookupTrimmed(envActiveDelegates); ok {
		count, err := strconv.Atoi(value)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envActiveDelegates, err)
		}
		if count <= 0 {
			return Config{}, fmt.Errorf("%s must be greater than zero", envActiveDelegates)
		}
		cfg.ActiveDelegates = count
	}

	if value, ok := lookupTrimmed(envDelegatePollInterval); ok {
		interval, err := time.ParseDuration(value)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envDelegatePollInterval, err)
		}
		if interval < 0 {
			return Config{}, fmt.Errorf("%s cannot be negative", envDelegatePollInterval)
		}
		cfg.DelegatePollInterval = interval
	}

	if value, ok := lookupTrimmed(envDryRun); ok {
		dryRun, err := strconv.ParseBool(value)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envDryRun, err)
		}
		cfg.DryRun = dryRun
	}

	ports := []struct {
		name   string
		target *int
	}{
		{envEventsPort, &cfg.EventsPort},
		{envHealthPort, &cfg.HealthPort},
		{envMetricsPort, &cfg.MetricsPort},
	}
	for _, port := range ports {
		value, ok := lookupTrimmed(port.name)
		if !ok {
			continue
		}
		parsed, err := parsePort(value, port.name)
		if err != nil {
			return Config{}, err
		}
		*port.target = parsed
	}

	if cfg.HostID == "" {
		if hostname, err := os.Hostname(); err == nil {
			cfg.HostID = hostname
		}
	}

	if cfg.WebhooksFile == "" {
		return Config{}, errors.New("DS_WEBHOOKS_FILE is required")
	}

	if err := validateURL(cfg.NodeAPIURL, envNodeAPIURL); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func parsePort(value, name string) (int, error) {
	port, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if port < 0 || port > 65535 {
		return 0, fmt.Errorf("%s must be between 0 and 65535", name)
	}
	return port, nil
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
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid %s: scheme must be http or https", name)
	}
	if parsed.Host == "" {
		return fmt.Errorf("invalid %s: must include scheme and host", name)
	}
	return nil
}
