package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the server configuration.
const (
	DefaultHTTPPort     = 8080
	DefaultPingInterval = 25 * time.Second
	DefaultPongTimeout  = 60 * time.Second
	DefaultSendBuffer   = 32
)

// Config holds the connection-server configuration parsed from the `server:`
// section of config.yaml.
type Config struct {
	Server ServerConfig `yaml:"server"`
}

// ServerConfig holds all connection-server settings.
type ServerConfig struct {
	// HTTPPort is the port the WebSocket endpoint, the internal notification
	// gateway and /metrics listen on (default 8080).
	HTTPPort int `yaml:"http_port"`

	// Auth configures how the gateway authenticates the stateless tier.
	Auth AuthConfig `yaml:"auth"`

	// Heartbeat controls dead-connection detection.
	Heartbeat HeartbeatConfig `yaml:"heartbeat"`

	// SendBuffer is the per-connection outgoing message buffer depth
	// (default 32). Messages to a member whose buffer is full are dropped
	// rather than allowed to stall delivery to other members.
	SendBuffer int `yaml:"send_buffer"`
}

// AuthConfig controls the gateway's shared-secret check.
type AuthConfig struct {
	// Mode is one of: apikey | none. "none" disables the check and is meant
	// for local development only.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable that holds the expected
	// shared secret. Used when Mode == "apikey".
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header the secret is read from.
	// Defaults to "x-internal-key" if empty.
	Header string `yaml:"header"`
}

// Key returns the expected shared secret resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default
// "x-internal-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "x-internal-key"
}

// HeartbeatConfig controls WebSocket liveness probing. A connection that does
// not answer a ping within PongTimeout is torn down, which releases all of
// its room memberships. Silently dead transports never leak membership.
type HeartbeatConfig struct {
	// PingInterval is how often the server pings each connection (default 25s).
	PingInterval time.Duration `yaml:"ping_interval"`

	// PongTimeout is how long to wait for any read (pong included) before
	// treating the connection as dead (default 60s). Must exceed PingInterval.
	PongTimeout time.Duration `yaml:"pong_timeout"`
}

// Load reads and parses the config file at path.
// Missing fields are filled with sensible defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("server config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("server config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
			Heartbeat: HeartbeatConfig{
				PingInterval: DefaultPingInterval,
				PongTimeout:  DefaultPongTimeout,
			},
			SendBuffer: DefaultSendBuffer,
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	switch cfg.Server.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", cfg.Server.Auth.Mode)
	}
	hb := cfg.Server.Heartbeat
	if hb.PingInterval <= 0 {
		return fmt.Errorf("server.heartbeat.ping_interval must be positive")
	}
	if hb.PongTimeout <= hb.PingInterval {
		return fmt.Errorf("server.heartbeat.pong_timeout (%s) must exceed ping_interval (%s)",
			hb.PongTimeout, hb.PingInterval)
	}
	if cfg.Server.SendBuffer <= 0 {
		return fmt.Errorf("server.send_buffer must be positive")
	}
	return nil
}
