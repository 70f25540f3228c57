package gpio

import (
	"errors"
	"sync"
	"testing"

	"github.com/ereOn/home-control/internal/infrastructure/config"
)

func testPins() Pins {
	return PinsFromConfig(config.GPIOConfig{
		RedLedPin:   17,
		GreenLedPin: 27,
		BuzzerPin:   18,
		TriggerPin:  24,
		EchoPin:     23,
	})
}

func TestSim_WriteAndRead(t *testing.T) {
	driver := NewSim(testPins())

	if err := driver.Write(ChannelRedLed, true); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	on, err := driver.Read(ChannelRedLed)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !on {
		t.Error("Read() = false after Write(true)")
	}
}

func TestSim_UnwrittenChannelReadsFalse(t *testing.T) {
	driver := NewSim(testPins())

	on, err := driver.Read(ChannelBuzzer)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if on {
		t.Error("Read() = true for never-written channel, want false")
	}
}

func TestSim_UnknownChannel(t *testing.T) {
	driver := NewSim(testPins())

	if err := driver.Write("laser", true); !errors.Is(err, ErrUnknownChannel) {
		t.Errorf("Write(unknown) error = %v, want ErrUnknownChannel", err)
	}
	if _, err := driver.Read("laser"); !errors.Is(err, ErrUnknownChannel) {
		t.Errorf("Read(unknown) error = %v, want ErrUnknownChannel", err)
	}
}

func TestSim_Channels(t *testing.T) {
	driver := NewSim(testPins())

	channels := driver.Channels()
	want := []string{ChannelRedLed, ChannelGreenLed, ChannelBuzzer, ChannelTrigger, ChannelEcho}

	if len(channels) != len(want) {
		t.Fatalf("Channels() length = %d, want %d", len(channels), len(want))
	}
	for i, name := range want {
		if channels[i] != name {
			t.Errorf("Channels()[%d] = %q, want %q", i, channels[i], name)
		}
	}
}

func TestSim_Closed(t *testing.T) {
	driver := NewSim(testPins())

	if err := driver.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if err := driver.Write(ChannelRedLed, true); !errors.Is(err, ErrClosed) {
		t.Errorf("Write() after Close error = %v, want ErrClosed", err)
	}
	if _, err := driver.Read(ChannelRedLed); !errors.Is(err, ErrClosed) {
		t.Errorf("Read() after Close error = %v, want ErrClosed", err)
	}
}

func TestSim_ConcurrentWrites(t *testing.T) {
	driver := NewSim(testPins())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(on bool) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if err := driver.Write(ChannelGreenLed, on); err != nil {
					t.Errorf("Write() error = %v", err)
					return
				}
				if _, err := driver.Read(ChannelGreenLed); err != nil {
					t.Errorf("Read() error = %v", err)
					return
				}
			}
		}(i%2 == 0)
	}
	wg.Wait()
}
