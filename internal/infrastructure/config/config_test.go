package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
server:
  host: "0.0.0.0"
  port: 8000
upstream:
  endpoint: "hass.local:8123"
  access_token: "test-token"
home:
  location: "Seattle"
  weather_entity: "weather.seattle"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Upstream.Endpoint != "hass.local:8123" {
		t.Errorf("Upstream.Endpoint = %q, want %q", cfg.Upstream.Endpoint, "hass.local:8123")
	}

	if cfg.Home.Location != "Seattle" {
		t.Errorf("Home.Location = %q, want %q", cfg.Home.Location, "Seattle")
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}

	// Defaults must survive a partial file.
	if cfg.GPIO.RedLedPin != 17 {
		t.Errorf("GPIO.RedLedPin = %d, want 17", cfg.GPIO.RedLedPin)
	}
	if !cfg.Upstream.TLS {
		t.Error("Upstream.TLS = false, want true by default")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
upstream:
  endpoint: ""
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for empty upstream.endpoint, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	content := `
upstream:
  endpoint: "file.local:8123"
  access_token: "file-token"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("HOMECONTROL_UPSTREAM_ENDPOINT", "env.local:8123")
	t.Setenv("HOMECONTROL_UPSTREAM_TOKEN", "env-token")
	t.Setenv("HOMECONTROL_SERVER_PORT", "9000")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Upstream.Endpoint != "env.local:8123" {
		t.Errorf("Upstream.Endpoint = %q, want env override", cfg.Upstream.Endpoint)
	}
	if cfg.Upstream.AccessToken != "env-token" {
		t.Errorf("Upstream.AccessToken = %q, want env override", cfg.Upstream.AccessToken)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Upstream.Endpoint = "hass.local:8123"
		cfg.Upstream.AccessToken = "token"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:    "missing endpoint",
			mutate:  func(c *Config) { c.Upstream.Endpoint = "" },
			wantErr: "upstream.endpoint",
		},
		{
			name:    "missing token",
			mutate:  func(c *Config) { c.Upstream.AccessToken = "" },
			wantErr: "upstream.access_token",
		},
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "max delay below initial delay",
			mutate:  func(c *Config) { c.Upstream.Reconnect.MaxDelay = 0 },
			wantErr: "max_delay",
		},
		{
			name:    "missing weather entity",
			mutate:  func(c *Config) { c.Home.WeatherEntity = "" },
			wantErr: "home.weather_entity",
		},
		{
			name:    "invalid pin",
			mutate:  func(c *Config) { c.GPIO.BuzzerPin = 99 },
			wantErr: "gpio.buzzer_pin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Durations(t *testing.T) {
	cfg := Default()

	if got := cfg.Upstream.Reconnect.InitialDelayDuration().Seconds(); got != 1 {
		t.Errorf("InitialDelayDuration() = %vs, want 1s", got)
	}
	if got := cfg.Upstream.Reconnect.MaxDelayDuration().Seconds(); got != 60 {
		t.Errorf("MaxDelayDuration() = %vs, want 60s", got)
	}
	if got := cfg.Upstream.ConfirmTimeoutDuration().Seconds(); got != 5 {
		t.Errorf("ConfirmTimeoutDuration() = %vs, want 5s", got)
	}
	if got := cfg.ListenAddr(); got != "127.0.0.1:8000" {
		t.Errorf("ListenAddr() = %q, want %q", got, "127.0.0.1:8000")
	}
}
