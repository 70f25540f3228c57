package gpio

import (
	"github.com/ereOn/home-control/internal/infrastructure/config"
)

// Well-known hardware output channels.
const (
	ChannelRedLed   = "red_led"
	ChannelGreenLed = "green_led"
	ChannelBuzzer   = "buzzer"
	ChannelTrigger  = "trigger"
	ChannelEcho     = "echo"
)

// Driver is the hardware output contract the command dispatcher is
// written against.
//
// Implementations must be safe for concurrent use; the dispatcher
// additionally serializes writes per channel so a single physical pin
// never sees interleaved flips.
type Driver interface {
	// Write sets the output level of a channel.
	Write(channel string, on bool) error

	// Read returns the last written level of a channel.
	// Channels that were never written read as false.
	Read(channel string) (bool, error)

	// Channels returns the known channel names in stable order.
	Channels() []string

	// Close releases any underlying pin resources.
	Close() error
}

// Pins maps channel names to BCM pin numbers.
type Pins map[string]int

// PinsFromConfig builds the channel-to-pin mapping from configuration.
func PinsFromConfig(cfg config.GPIOConfig) Pins {
	return Pins{
		ChannelRedLed:   cfg.RedLedPin,
		ChannelGreenLed: cfg.GreenLedPin,
		ChannelBuzzer:   cfg.BuzzerPin,
		ChannelTrigger:  cfg.TriggerPin,
		ChannelEcho:     cfg.EchoPin,
	}
}

// channelOrder is the stable ordering used by Channels().
var channelOrder = []string{
	ChannelRedLed,
	ChannelGreenLed,
	ChannelBuzzer,
	ChannelTrigger,
	ChannelEcho,
}

// orderedChannels returns the channels of pins in stable order.
func orderedChannels(pins Pins) []string {
	out := make([]string, 0, len(pins))
	for _, name := range channelOrder {
		if _, ok := pins[name]; ok {
			out = append(out, name)
		}
	}
	return out
}
