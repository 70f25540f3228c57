package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for home-control.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Home      HomeConfig      `yaml:"home"`
	GPIO      GPIOConfig      `yaml:"gpio"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	UI        UIConfig        `yaml:"ui"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig contains HTTP API server settings.
type ServerConfig struct {
	Host     string              `yaml:"host"`
	Port     int                 `yaml:"port"`
	Timeouts ServerTimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig          `yaml:"cors"`
}

// ServerTimeoutConfig contains HTTP timeout settings in seconds.
type ServerTimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// UpstreamConfig contains the connection settings for the Home Assistant
// instance this gateway mirrors.
type UpstreamConfig struct {
	// Endpoint is the host[:port] of the Home Assistant instance,
	// without scheme (e.g. "hass.local:8123").
	Endpoint string `yaml:"endpoint"`

	// AccessToken is the long-lived bearer token used to authenticate
	// on the websocket API.
	AccessToken string `yaml:"access_token"`

	// TLS selects wss:// (true) or ws:// (false) for the websocket dial.
	TLS bool `yaml:"tls"`

	Reconnect ReconnectConfig `yaml:"reconnect"`

	// HeartbeatTimeout is the idle window in seconds with no inbound
	// traffic after which the connection is considered dead.
	HeartbeatTimeout int `yaml:"heartbeat_timeout"`

	// CommandTimeout bounds the wait for a call_service result, in seconds.
	CommandTimeout int `yaml:"command_timeout"`

	// ConfirmTimeout bounds the wait for a commanded state change to be
	// reflected in the entity cache, in seconds.
	ConfirmTimeout int `yaml:"confirm_timeout"`
}

// ReconnectConfig contains reconnection backoff settings in seconds.
type ReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`

	// StableReset is how long a connection must stay subscribed before
	// the backoff resets to its initial delay.
	StableReset int `yaml:"stable_reset"`
}

// HomeConfig contains the well-known entities the status view is built from.
type HomeConfig struct {
	// Location is the display name reported in the status view.
	Location string `yaml:"location"`

	// WeatherEntity is the upstream entity id providing current weather
	// and the forecast attribute (e.g. "weather.home").
	WeatherEntity string `yaml:"weather_entity"`

	// AlarmEntity is the upstream entity id reported on the alarm
	// endpoint. Optional; when empty the alarm reads as unknown.
	AlarmEntity string `yaml:"alarm_entity"`
}

// GPIOConfig maps hardware output channels to BCM pin numbers.
type GPIOConfig struct {
	RedLedPin   int `yaml:"red_led_pin"`
	GreenLedPin int `yaml:"green_led_pin"`
	BuzzerPin   int `yaml:"buzzer_pin"`
	TriggerPin  int `yaml:"trigger_pin"`
	EchoPin     int `yaml:"echo_pin"`
}

// WebSocketConfig contains settings for the UI-facing push websocket.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
}

// UIConfig contains settings for serving the touchscreen UI bundle.
type UIConfig struct {
	// Dir serves UI assets from the filesystem when set (dev mode).
	// When empty, the embedded bundle is used.
	Dir string `yaml:"dir"`

	// ReverseProxyURL, when set, relays all unmodeled paths to this base
	// URL instead of serving the embedded UI.
	ReverseProxyURL string `yaml:"reverse_proxy_url"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: HOMECONTROL_SECTION_KEY
// For example: HOMECONTROL_UPSTREAM_ENDPOINT, HOMECONTROL_SERVER_PORT
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with sensible defaults.
// The pin defaults match the reference wiring of the touchscreen enclosure.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8000,
			Timeouts: ServerTimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Upstream: UpstreamConfig{
			TLS: true,
			Reconnect: ReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				StableReset:  30,
			},
			HeartbeatTimeout: 90,
			CommandTimeout:   10,
			ConfirmTimeout:   5,
		},
		Home: HomeConfig{
			Location:      "Home",
			WeatherEntity: "weather.home",
		},
		GPIO: GPIOConfig{
			RedLedPin:   17,
			GreenLedPin: 27,
			BuzzerPin:   18,
			TriggerPin:  24,
			EchoPin:     23,
		},
		WebSocket: WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: HOMECONTROL_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("HOMECONTROL_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("HOMECONTROL_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	// Upstream. The access token should never live in the config file on
	// shared machines, so the environment override is the primary path.
	if v := os.Getenv("HOMECONTROL_UPSTREAM_ENDPOINT"); v != "" {
		cfg.Upstream.Endpoint = v
	}
	if v := os.Getenv("HOMECONTROL_UPSTREAM_TOKEN"); v != "" {
		cfg.Upstream.AccessToken = v
	}

	// UI
	if v := os.Getenv("HOMECONTROL_UI_DIR"); v != "" {
		cfg.UI.Dir = v
	}
	if v := os.Getenv("HOMECONTROL_UI_REVERSE_PROXY_URL"); v != "" {
		cfg.UI.ReverseProxyURL = v
	}

	// Logging
	if v := os.Getenv("HOMECONTROL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	if c.Upstream.Endpoint == "" {
		errs = append(errs, "upstream.endpoint is required")
	}
	if c.Upstream.AccessToken == "" {
		errs = append(errs, "upstream.access_token is required (set HOMECONTROL_UPSTREAM_TOKEN environment variable)")
	}
	if c.Upstream.Reconnect.InitialDelay < 1 {
		errs = append(errs, "upstream.reconnect.initial_delay must be at least 1 second")
	}
	if c.Upstream.Reconnect.MaxDelay < c.Upstream.Reconnect.InitialDelay {
		errs = append(errs, "upstream.reconnect.max_delay must not be lower than initial_delay")
	}
	if c.Upstream.ConfirmTimeout < 1 {
		errs = append(errs, "upstream.confirm_timeout must be at least 1 second")
	}

	if c.Home.WeatherEntity == "" {
		errs = append(errs, "home.weather_entity is required")
	}

	for name, pin := range map[string]int{
		"gpio.red_led_pin":   c.GPIO.RedLedPin,
		"gpio.green_led_pin": c.GPIO.GreenLedPin,
		"gpio.buzzer_pin":    c.GPIO.BuzzerPin,
		"gpio.trigger_pin":   c.GPIO.TriggerPin,
		"gpio.echo_pin":      c.GPIO.EchoPin,
	} {
		if pin < 0 || pin > 53 {
			errs = append(errs, name+" must be a valid BCM pin number")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// ListenAddr returns the host:port the API server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Idle) * time.Second
}

// InitialDelayDuration returns the reconnect initial delay as a Duration.
func (r ReconnectConfig) InitialDelayDuration() time.Duration {
	return time.Duration(r.InitialDelay) * time.Second
}

// MaxDelayDuration returns the reconnect maximum delay as a Duration.
func (r ReconnectConfig) MaxDelayDuration() time.Duration {
	return time.Duration(r.MaxDelay) * time.Second
}

// StableResetDuration returns the stable-connection reset window as a Duration.
func (r ReconnectConfig) StableResetDuration() time.Duration {
	return time.Duration(r.StableReset) * time.Second
}

// HeartbeatTimeoutDuration returns the idle heartbeat window as a Duration.
func (u UpstreamConfig) HeartbeatTimeoutDuration() time.Duration {
	return time.Duration(u.HeartbeatTimeout) * time.Second
}

// CommandTimeoutDuration returns the command acknowledgment timeout as a Duration.
func (u UpstreamConfig) CommandTimeoutDuration() time.Duration {
	return time.Duration(u.CommandTimeout) * time.Second
}

// ConfirmTimeoutDuration returns the state confirmation timeout as a Duration.
func (u UpstreamConfig) ConfirmTimeoutDuration() time.Duration {
	return time.Duration(u.ConfirmTimeout) * time.Second
}
