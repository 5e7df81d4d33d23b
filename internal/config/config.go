// Package config loads storefront settings from an optional YAML file, an
// optional .env file and the process environment, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variable names.
const (
	EnvDB            = "STOREFRONT_DB"
	EnvHTTPAddr      = "STOREFRONT_HTTP_ADDR"
	EnvUserID        = "STOREFRONT_USER_ID"
	EnvPickupAddress = "STOREFRONT_PICKUP_ADDRESS"
	EnvRateLimit     = "STOREFRONT_RATE_LIMIT"
	EnvRateBurst     = "STOREFRONT_RATE_BURST"
	EnvToastDuration = "STOREFRONT_TOAST_DURATION"
	EnvSupabaseURL   = "SUPABASE_URL"
	EnvSupabaseKey   = "SUPABASE_ANON_KEY"
)

// Supabase is the remote order service endpoint.
type Supabase struct {
	URL     string `yaml:"url"`
	AnonKey string `yaml:"anon_key"`
}

// Config is the resolved configuration.
type Config struct {
	DBPath        string        `yaml:"db"`
	HTTPAddr      string        `yaml:"http_addr"`
	UserID        string        `yaml:"user_id"`
	PickupAddress string        `yaml:"pickup_address"`
	RateLimit     float64       `yaml:"rate_limit"`
	RateBurst     int           `yaml:"rate_burst"`
	ToastDuration time.Duration `yaml:"toast_duration"`
	Supabase      Supabase      `yaml:"supabase"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		DBPath:        "storefront.db",
		HTTPAddr:      ":8080",
		PickupAddress: "Storefront Flagship, MG Road, Pune 411001",
		RateLimit:     10,
		RateBurst:     5,
		ToastDuration: 4 * time.Second,
	}
}

// Load resolves the configuration. An empty path skips the YAML file; an
// envFile that does not exist is ignored.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	dotenv := map[string]string{}
	if envFile != "" {
		m, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			dotenv = m
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read %s: %w", envFile, err)
		}
	}

	lookup := func(k string) (string, bool) {
		if v, ok := os.LookupEnv(k); ok && v != "" {
			return v, true
		}
		v, ok := dotenv[k]
		return v, ok && v != ""
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(k string, dst *string) {
		if v, ok := lookup(k); ok {
			*dst = v
		}
	}
	str(EnvDB, &c.DBPath)
	str(EnvHTTPAddr, &c.HTTPAddr)
	str(EnvUserID, &c.UserID)
	str(EnvPickupAddress, &c.PickupAddress)
	str(EnvSupabaseURL, &c.Supabase.URL)
	str(EnvSupabaseKey, &c.Supabase.AnonKey)

	if v, ok := lookup(EnvRateLimit); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRateLimit, err)
		}
		c.RateLimit = f
	}
	if v, ok := lookup(EnvRateBurst); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRateBurst, err)
		}
		c.RateBurst = n
	}
	if v, ok := lookup(EnvToastDuration); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvToastDuration, err)
		}
		c.ToastDuration = d
	}
	return nil
}

// Validate checks the settings every command needs.
func (c Config) Validate() error {
	var problems []string
	if c.DBPath == "" {
		problems = append(problems, "db path is empty")
	}
	if c.RateLimit < 0 {
		problems = append(problems, "rate_limit must not be negative")
	}
	if c.ToastDuration <= 0 {
		problems = append(problems, "toast_duration must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// RequireRemote reports the settings missing for order commands.
func (c Config) RequireRemote() error {
	var missing []string
	if c.Supabase.URL == "" {
		missing = append(missing, EnvSupabaseURL)
	}
	if c.Supabase.AnonKey == "" {
		missing = append(missing, EnvSupabaseKey)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing remote settings: %s", strings.Join(missing, ", "))
	}
	return nil
}
