package hass

import "errors"

// Domain-specific errors for the upstream client.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned when a command is issued while the
	// client is not subscribed to the source.
	ErrNotConnected = errors.New("hass: not connected")

	// ErrAuthFailed is returned internally when the source rejects the
	// access token. The client still retries with backoff, since tokens
	// can become valid again (e.g. after a source restore).
	ErrAuthFailed = errors.New("hass: authentication failed")

	// ErrCommandRejected is returned when the source answers a
	// call_service request with a failure result.
	ErrCommandRejected = errors.New("hass: command rejected")

	// ErrCommandTimeout is returned when no result frame arrives for a
	// call_service request within the command timeout.
	ErrCommandTimeout = errors.New("hass: command timed out")

	// ErrProtocolError is returned internally for frames that cannot be
	// decoded; it tears down the connection.
	ErrProtocolError = errors.New("hass: protocol error")

	// ErrClosed is returned for operations on a closed client.
	ErrClosed = errors.New("hass: client closed")
)
