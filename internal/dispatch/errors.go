package dispatch

import "errors"

// Domain-specific errors for command dispatch.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrUnknownEntity is returned when the target entity is not present
	// in the cache (or was removed upstream).
	ErrUnknownEntity = errors.New("dispatch: unknown entity")

	// ErrUnreachable is returned without waiting when a command targets
	// an upstream entity while the link is down.
	ErrUnreachable = errors.New("dispatch: upstream unreachable")

	// ErrRejected is returned when the source refused the command.
	ErrRejected = errors.New("dispatch: command rejected")

	// ErrTimeout is returned when an accepted command produced no
	// confirming state change within the confirmation window.
	ErrTimeout = errors.New("dispatch: confirmation timed out")

	// ErrHardwareFault is returned when a local channel write failed.
	ErrHardwareFault = errors.New("dispatch: hardware fault")
)
