package status

import (
	"time"

	"github.com/ereOn/home-control/internal/entity"
	"github.com/ereOn/home-control/internal/gpio"
	"github.com/ereOn/home-control/internal/infrastructure/config"
)

// Status values for the discriminator field.
const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
)

// Weather is one weather observation or forecast slot.
// Humidity and pressure are null when the source does not report them.
type Weather struct {
	Timestamp   time.Time `json:"timestamp"`
	State       string    `json:"state"`
	Humidity    *float64  `json:"humidity"`
	Pressure    *float64  `json:"pressure"`
	Temperature float64   `json:"temperature"`
	WindSpeed   float64   `json:"windSpeed"`
	WindBearing float64   `json:"windBearing"`
}

// View is the aggregate read model served on the status endpoint.
//
// Every field is served from local knowledge and survives upstream
// disconnections: during an outage the view keeps reporting the
// last-known cached values, with Status flipped to disconnected so the
// reader knows they may be stale.
type View struct {
	Status          string          `json:"status"`
	Location        string          `json:"location,omitempty"`
	WeatherCurrent  *Weather        `json:"weatherCurrent,omitempty"`
	WeatherForecast []Weather       `json:"weatherForecast,omitempty"`
	Hardware        map[string]bool `json:"hardware"`
	Alarm           *bool           `json:"alarm"`
	Generation      uint64          `json:"generation"`
}

// Builder computes status views on demand.
type Builder struct {
	cfg       config.HomeConfig
	cache     *entity.Cache
	connected func() bool
	driver    gpio.Driver
}

// NewBuilder creates a status builder.
//
// Parameters:
//   - cfg: Well-known entity configuration
//   - cache: Entity state mirror
//   - connected: Reports whether the upstream link is subscribed
//   - driver: Hardware driver for channel levels
func NewBuilder(cfg config.HomeConfig, cache *entity.Cache, connected func() bool, driver gpio.Driver) *Builder {
	return &Builder{
		cfg:       cfg,
		cache:     cache,
		connected: connected,
		driver:    driver,
	}
}

// Build assembles the current view. It never fails: missing inputs
// degrade to null or absent fields.
func (b *Builder) Build() View {
	view := View{
		Status:     StatusDisconnected,
		Location:   b.cfg.Location,
		Hardware:   b.hardware(),
		Alarm:      b.alarm(),
		Generation: b.cache.Generation(),
	}
	if b.connected() {
		view.Status = StatusConnected
	}

	if state, ok := b.cache.Get(b.cfg.WeatherEntity); ok && !state.Value.Removed() {
		current := weatherFromState(state)
		view.WeatherCurrent = &current
		view.WeatherForecast = forecastFromAttributes(state.Attributes)
	}

	return view
}

// hardware reads every channel's last written level. A channel that
// cannot be read reports false rather than breaking the whole view.
func (b *Builder) hardware() map[string]bool {
	out := make(map[string]bool)
	for _, channel := range b.driver.Channels() {
		on, err := b.driver.Read(channel)
		if err != nil {
			on = false
		}
		out[channel] = on
	}
	return out
}

// alarm resolves the configured alarm entity to a tri-state: nil when the
// entity is unconfigured, unknown or removed.
func (b *Builder) alarm() *bool {
	if b.cfg.AlarmEntity == "" {
		return nil
	}
	state, ok := b.cache.Get(b.cfg.AlarmEntity)
	if !ok || state.Value.Removed() {
		return nil
	}
	on := state.Value.On()
	return &on
}

// weatherFromState maps a weather entity state to the current observation.
func weatherFromState(state entity.State) Weather {
	return Weather{
		Timestamp:   state.LastUpdated,
		State:       state.Value.Str,
		Humidity:    numAttr(state.Attributes, "humidity"),
		Pressure:    numAttr(state.Attributes, "pressure"),
		Temperature: numAttrOrZero(state.Attributes, "temperature"),
		WindSpeed:   numAttrOrZero(state.Attributes, "wind_speed"),
		WindBearing: numAttrOrZero(state.Attributes, "wind_bearing"),
	}
}

// forecastFromAttributes maps the entity's forecast attribute to view
// slots. Entries that do not look like forecast objects are skipped.
func forecastFromAttributes(attrs map[string]any) []Weather {
	raw, ok := attrs["forecast"].([]any)
	if !ok {
		return nil
	}

	out := make([]Weather, 0, len(raw))
	for _, item := range raw {
		slot, ok := item.(map[string]any)
		if !ok {
			continue
		}

		var ts time.Time
		if s, ok := slot["datetime"].(string); ok {
			if parsed, err := time.Parse(time.RFC3339, s); err == nil {
				ts = parsed.UTC()
			}
		}
		condition, _ := slot["condition"].(string)

		out = append(out, Weather{
			Timestamp:   ts,
			State:       condition,
			Humidity:    numAttr(slot, "humidity"),
			Pressure:    numAttr(slot, "pressure"),
			Temperature: numAttrOrZero(slot, "temperature"),
			WindSpeed:   numAttrOrZero(slot, "wind_speed"),
			WindBearing: numAttrOrZero(slot, "wind_bearing"),
		})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// numAttr extracts a numeric attribute, nil when absent or non-numeric.
func numAttr(attrs map[string]any, key string) *float64 {
	v, ok := attrs[key]
	if !ok {
		return nil
	}
	switch n := v.(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	}
	return nil
}

// numAttrOrZero extracts a numeric attribute, zero when absent.
func numAttrOrZero(attrs map[string]any, key string) float64 {
	if p := numAttr(attrs, key); p != nil {
		return *p
	}
	return 0
}
