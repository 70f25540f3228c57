package gpio

import "errors"

// Domain-specific errors for GPIO operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrUnknownChannel is returned for a channel name outside the
	// configured mapping.
	ErrUnknownChannel = errors.New("gpio: unknown channel")

	// ErrWriteFailed is returned when the underlying pin write fails.
	ErrWriteFailed = errors.New("gpio: pin write failed")

	// ErrClosed is returned for operations on a closed driver.
	ErrClosed = errors.New("gpio: driver closed")
)
