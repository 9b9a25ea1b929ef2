// Package config loads the order-API configuration from the `orderapi:`
// section of config.yaml (the `server:` key is ignored by the orderapi
// binary).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the order-API configuration.
const (
	DefaultHTTPPort       = 3000
	DefaultGatewayURL     = "http://localhost:8080"
	DefaultGatewayTimeout = 3 * time.Second
)

// Config holds the order-API configuration.
type Config struct {
	OrderAPI OrderAPIConfig `yaml:"orderapi"`
}

// OrderAPIConfig holds all order-API settings.
type OrderAPIConfig struct {
	// HTTPPort is the port the REST API listens on (default 3000).
	HTTPPort int `yaml:"http_port"`

	// Gateway configures the connection to the notification gateway.
	Gateway GatewayConfig `yaml:"gateway"`
}

// GatewayConfig points at the connection server's internal notify endpoint.
type GatewayConfig struct {
	// URL is the connection server's base URL (default http://localhost:8080).
	URL string `yaml:"url"`

	// KeyEnv is the name of the environment variable that holds the shared
	// secret. Empty means no credential is sent.
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header the secret travels in.
	// Defaults to "x-internal-key" if empty.
	Header string `yaml:"header"`

	// Timeout bounds the gateway round trip (default 3s). Kept short so a
	// slow or unreachable gateway cannot stall order handling.
	Timeout time.Duration `yaml:"timeout"`
}

// Key returns the shared secret resolved from the environment.
func (g GatewayConfig) Key() string {
	if g.KeyEnv == "" {
		return ""
	}
	return os.Getenv(g.KeyEnv)
}

// Load reads and parses the config file at path.
// Missing fields are filled with sensible defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("orderapi config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("orderapi config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("orderapi config: %w", err)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		OrderAPI: OrderAPIConfig{
			HTTPPort: DefaultHTTPPort,
			Gateway: GatewayConfig{
				URL:     DefaultGatewayURL,
				Timeout: DefaultGatewayTimeout,
			},
		},
	}
}

func validate(cfg *Config) error {
	if cfg.OrderAPI.HTTPPort <= 0 || cfg.OrderAPI.HTTPPort > 65535 {
		return fmt.Errorf("orderapi.http_port %d is out of range [1, 65535]", cfg.OrderAPI.HTTPPort)
	}
	if cfg.OrderAPI.Gateway.URL == "" {
		return fmt.Errorf("orderapi.gateway.url is required")
	}
	if cfg.OrderAPI.Gateway.Timeout <= 0 {
		return fmt.Errorf("orderapi.gateway.timeout must be positive")
	}
	return nil
}
