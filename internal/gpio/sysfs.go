//go:build gpio

package gpio

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// sysfsRoot is the kernel GPIO interface mount point.
const sysfsRoot = "/sys/class/gpio"

// exportSettleDelay is how long to wait after exporting a pin before its
// attribute files become writable (udev applies permissions asynchronously).
const exportSettleDelay = 100 * time.Millisecond

// Sysfs drives real pins through the kernel's /sys/class/gpio interface.
//
// Pins are exported and set to output direction lazily on first write.
// Levels are tracked locally so Read never touches the filesystem on the
// hot path; the pins are output-only, so the local mirror is authoritative.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Sysfs struct {
	pins Pins

	mu       sync.Mutex
	exported map[string]bool
	levels   map[string]bool
	closed   bool

	logger Logger
}

// NewSysfs creates a sysfs-backed driver for the given pin mapping.
//
// It verifies the sysfs interface exists but does not export any pin
// until the first write, so construction is safe even when some channels
// are never used.
func NewSysfs(pins Pins) (*Sysfs, error) {
	if _, err := os.Stat(sysfsRoot); err != nil {
		return nil, fmt.Errorf("%w: %s not available: %w", ErrWriteFailed, sysfsRoot, err)
	}

	return &Sysfs{
		pins:     pins,
		exported: make(map[string]bool, len(pins)),
		levels:   make(map[string]bool, len(pins)),
		logger:   noopLogger{},
	}, nil
}

// SetLogger sets the logger for the driver.
func (s *Sysfs) SetLogger(logger Logger) {
	s.logger = logger
}

// Write sets the output level of a channel, exporting the pin on first use.
func (s *Sysfs) Write(channel string, on bool) error {
	pin, ok := s.pins[channel]
	if !ok {
		return ErrUnknownChannel
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if !s.exported[channel] {
		if err := exportOutput(pin); err != nil {
			return fmt.Errorf("%w: channel %s: %w", ErrWriteFailed, channel, err)
		}
		s.exported[channel] = true
	}

	level := "0"
	if on {
		level = "1"
	}
	valuePath := filepath.Join(sysfsRoot, "gpio"+strconv.Itoa(pin), "value")
	if err := os.WriteFile(valuePath, []byte(level), 0o644); err != nil {
		return fmt.Errorf("%w: channel %s: %w", ErrWriteFailed, channel, err)
	}

	s.levels[channel] = on
	s.logger.Info("pin written", "channel", channel, "pin", pin, "on", on)
	return nil
}

// Read returns the last written level of a channel.
func (s *Sysfs) Read(channel string) (bool, error) {
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
func (s *Sysfs) Channels() []string {
	return orderedChannels(s.pins)
}

// Close unexports every exported pin. Safe to call multiple times.
func (s *Sysfs) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	for channel := range s.exported {
		pin := s.pins[channel]
		unexport := filepath.Join(sysfsRoot, "unexport")
		if err := os.WriteFile(unexport, []byte(strconv.Itoa(pin)), 0o644); err != nil {
			s.logger.Info("pin unexport failed", "channel", channel, "pin", pin, "error", err)
		}
	}
	return nil
}

// exportOutput exports a pin and configures it as an output.
func exportOutput(pin int) error {
	pinDir := filepath.Join(sysfsRoot, "gpio"+strconv.Itoa(pin))

	if _, err := os.Stat(pinDir); os.IsNotExist(err) {
		exportPath := filepath.Join(sysfsRoot, "export")
		if err := os.WriteFile(exportPath, []byte(strconv.Itoa(pin)), 0o644); err != nil {
			return fmt.Errorf("export pin %d: %w", pin, err)
		}
		time.Sleep(exportSettleDelay)
	}

	directionPath := filepath.Join(pinDir, "direction")
	if err := os.WriteFile(directionPath, []byte("out"), 0o644); err != nil {
		return fmt.Errorf("set pin %d direction: %w", pin, err)
	}
	return nil
}
