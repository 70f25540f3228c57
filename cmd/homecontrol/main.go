// home-control - Touchscreen Home Gateway
//
// This is the main entry point for the home-control gateway daemon.
// It mirrors entity state from a Home Assistant instance into an
// in-memory cache, drives a handful of local GPIO outputs, and serves
// the touchscreen UI with its HTTP API and push websocket.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ereOn/home-control/internal/api"
	"github.com/ereOn/home-control/internal/dispatch"
	"github.com/ereOn/home-control/internal/entity"
	"github.com/ereOn/home-control/internal/gpio"
	"github.com/ereOn/home-control/internal/hass"
	"github.com/ereOn/home-control/internal/infrastructure/config"
	"github.com/ereOn/home-control/internal/infrastructure/logging"
	"github.com/ereOn/home-control/internal/status"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting home-control",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Entity cache: the in-memory mirror everything reads from
	cache := entity.NewCache()

	// Hardware driver (sysfs on gpio builds, simulated otherwise)
	driver, err := gpio.New(gpio.PinsFromConfig(cfg.GPIO))
	if err != nil {
		return fmt.Errorf("initialising hardware driver: %w", err)
	}
	if l, ok := driver.(interface{ SetLogger(gpio.Logger) }); ok {
		l.SetLogger(log.With("component", "gpio"))
	}
	defer func() {
		log.Info("closing hardware driver")
		if closeErr := driver.Close(); closeErr != nil {
			log.Error("error closing hardware driver", "error", closeErr)
		}
	}()

	// Upstream sync client: owns the websocket and writes the cache
	upstream := hass.New(cfg.Upstream, cache)
	upstream.SetLogger(log.With("component", "hass"))
	upstream.Start(ctx)
	defer func() {
		log.Info("closing upstream client")
		if closeErr := upstream.Close(); closeErr != nil {
			log.Error("error closing upstream client", "error", closeErr)
		}
	}()
	log.Info("upstream client started", "endpoint", cfg.Upstream.Endpoint, "tls", cfg.Upstream.TLS)

	// Command dispatcher
	dispatcher := dispatch.New(cache, upstream, driver, cfg.Upstream.ConfirmTimeoutDuration())
	dispatcher.SetLogger(log.With("component", "dispatch"))

	// Status view builder
	builder := status.NewBuilder(cfg.Home, cache, upstream.Connected, driver)

	// API server (also serves the touchscreen UI)
	server, err := api.New(api.Deps{
		Config:     cfg,
		Logger:     log.With("component", "api"),
		Status:     builder,
		Dispatcher: dispatcher,
		Source:     upstream,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("closing API server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "address", cfg.ListenAddr())

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. Upstream client
	// 3. Hardware driver

	log.Info("home-control stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses HOMECONTROL_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("HOMECONTROL_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
