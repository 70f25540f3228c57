package status

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/ereOn/home-control/internal/entity"
	"github.com/ereOn/home-control/internal/gpio"
	"github.com/ereOn/home-control/internal/infrastructure/config"
)

func testHomeConfig() config.HomeConfig {
	return config.HomeConfig{
		Location:      "Test Home",
		WeatherEntity: "weather.home",
		AlarmEntity:   "binary_sensor.alarm",
	}
}

func testDriver() gpio.Driver {
	return gpio.NewSim(gpio.Pins{
		gpio.ChannelRedLed:   17,
		gpio.ChannelGreenLed: 27,
		gpio.ChannelBuzzer:   18,
	})
}

func applyWeather(cache *entity.Cache) {
	cache.Apply(entity.State{
		ID:    "weather.home",
		Value: entity.CompositeValue("cloudy"),
		Attributes: map[string]any{
			"temperature": 14.2,
			"humidity":    78.0,
			"wind_speed":  12.5,
			"forecast": []any{
				map[string]any{
					"datetime":    "2024-03-02T00:00:00Z",
					"condition":   "rainy",
					"temperature": 11.0,
					"humidity":    85.0,
				},
			},
		},
		LastUpdated: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	})
}

func TestBuild_DisconnectedServesLastKnown(t *testing.T) {
	cache := entity.NewCache()
	applyWeather(cache)

	// Only the status discriminator reflects the outage; everything else
	// keeps the pre-drop values from the cache.
	b := NewBuilder(testHomeConfig(), cache, func() bool { return false }, testDriver())
	view := b.Build()

	if view.Status != StatusDisconnected {
		t.Errorf("Status = %q, want %q", view.Status, StatusDisconnected)
	}
	if view.Location != "Test Home" {
		t.Errorf("Location = %q while disconnected, want last-known %q", view.Location, "Test Home")
	}
	if view.WeatherCurrent == nil {
		t.Fatal("WeatherCurrent missing while disconnected, want last-known observation")
	}
	if view.WeatherCurrent.State != "cloudy" {
		t.Errorf("WeatherCurrent.State = %q, want cloudy", view.WeatherCurrent.State)
	}
	if len(view.WeatherForecast) != 1 {
		t.Errorf("WeatherForecast length = %d, want 1", len(view.WeatherForecast))
	}
	if view.Hardware == nil {
		t.Error("Hardware missing while disconnected")
	}
	if view.Generation == 0 {
		t.Error("Generation = 0, want cache generation")
	}
}

func TestBuild_Connected(t *testing.T) {
	cache := entity.NewCache()
	applyWeather(cache)
	cache.Apply(entity.State{
		ID:          "binary_sensor.alarm",
		Value:       entity.BoolValue(true),
		LastUpdated: time.Now(),
	})

	driver := testDriver()
	if err := driver.Write(gpio.ChannelGreenLed, true); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	b := NewBuilder(testHomeConfig(), cache, func() bool { return true }, driver)
	view := b.Build()

	if view.Status != StatusConnected {
		t.Fatalf("Status = %q, want %q", view.Status, StatusConnected)
	}
	if view.Location != "Test Home" {
		t.Errorf("Location = %q, want %q", view.Location, "Test Home")
	}

	if view.WeatherCurrent == nil {
		t.Fatal("WeatherCurrent missing while connected")
	}
	if view.WeatherCurrent.State != "cloudy" {
		t.Errorf("WeatherCurrent.State = %q, want cloudy", view.WeatherCurrent.State)
	}
	if view.WeatherCurrent.Temperature != 14.2 {
		t.Errorf("WeatherCurrent.Temperature = %v, want 14.2", view.WeatherCurrent.Temperature)
	}
	if view.WeatherCurrent.Humidity == nil || *view.WeatherCurrent.Humidity != 78.0 {
		t.Errorf("WeatherCurrent.Humidity = %v, want 78", view.WeatherCurrent.Humidity)
	}
	if view.WeatherCurrent.Pressure != nil {
		t.Error("WeatherCurrent.Pressure present, want null for unreported slot")
	}

	if len(view.WeatherForecast) != 1 {
		t.Fatalf("WeatherForecast length = %d, want 1", len(view.WeatherForecast))
	}
	if view.WeatherForecast[0].State != "rainy" {
		t.Errorf("forecast State = %q, want rainy", view.WeatherForecast[0].State)
	}

	if !view.Hardware[gpio.ChannelGreenLed] {
		t.Error("Hardware[green_led] = false after write")
	}
	if view.Hardware[gpio.ChannelRedLed] {
		t.Error("Hardware[red_led] = true, never written")
	}

	if view.Alarm == nil || !*view.Alarm {
		t.Errorf("Alarm = %v, want true", view.Alarm)
	}
}

func TestBuild_AlarmUnknown(t *testing.T) {
	cfg := testHomeConfig()

	// Configured but absent from the cache.
	b := NewBuilder(cfg, entity.NewCache(), func() bool { return true }, testDriver())
	if view := b.Build(); view.Alarm != nil {
		t.Errorf("Alarm = %v for unknown entity, want nil", view.Alarm)
	}

	// Unconfigured.
	cfg.AlarmEntity = ""
	b = NewBuilder(cfg, entity.NewCache(), func() bool { return true }, testDriver())
	if view := b.Build(); view.Alarm != nil {
		t.Errorf("Alarm = %v when unconfigured, want nil", view.Alarm)
	}
}

func TestBuild_WeatherEntityMissing(t *testing.T) {
	b := NewBuilder(testHomeConfig(), entity.NewCache(), func() bool { return true }, testDriver())
	view := b.Build()

	if view.Status != StatusConnected {
		t.Errorf("Status = %q, want connected despite missing weather", view.Status)
	}
	if view.WeatherCurrent != nil {
		t.Error("WeatherCurrent present for missing entity")
	}
}

func TestView_JSONShape(t *testing.T) {
	cache := entity.NewCache()
	applyWeather(cache)

	b := NewBuilder(testHomeConfig(), cache, func() bool { return true }, testDriver())
	data, err := json.Marshal(b.Build())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	body := string(data)
	for _, want := range []string{
		`"status":"connected"`,
		`"weatherCurrent"`,
		`"weatherForecast"`,
		`"windSpeed"`,
		`"pressure":null`,
		`"alarm":null`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("JSON missing %s in %s", want, body)
		}
	}
}
