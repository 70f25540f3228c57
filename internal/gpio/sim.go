package gpio

import (
	"sync"
)

// Sim is an in-memory Driver for machines without attached hardware.
//
// It remembers the last written level per channel; channels that were
// never written read as false.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Sim struct {
	pins   Pins
	mu     sync.Mutex
	levels map[string]bool
	closed bool

	logger Logger
}

// Logger is the optional logging interface used by the drivers.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}

// NewSim creates a simulated driver for the given pin mapping.
func NewSim(pins Pins) *Sim {
	return &Sim{
		pins:   pins,
		levels: make(map[string]bool, len(pins)),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the driver.
func (s *Sim) SetLogger(logger Logger) {
	s.logger = logger
}

// Write sets the simulated level of a channel.
func (s *Sim) Write(channel string, on bool) error {
	pin, ok := s.pins[channel]
	if !ok {
		return ErrUnknownChannel
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.levels[channel] = on

	s.logger.Debug("simulated pin write", "channel", channel, "pin", pin, "on", on)
	return nil
}

// Read returns the last written level of a channel.
func (s *Sim) Read(channel string) (bool, error) {
	if _, ok := s.pins[channel]; !ok {
		return false, ErrUnknownChannel
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	return s.levels[channel], nil
}

// Channels returns the known channel names in stable order.
func (s *Sim) Channels() []string {
	return orderedChannels(s.pins)
}

// Close marks the driver closed. Safe to call multiple times.
func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
