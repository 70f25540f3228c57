package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ereOn/home-control/internal/entity"
	"github.com/ereOn/home-control/internal/gpio"
	"github.com/ereOn/home-control/internal/hass"
)

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Upstream is the slice of the sync client the dispatcher needs.
type Upstream interface {
	Connected() bool
	CallService(ctx context.Context, domain, service string, data map[string]any, entityID string) error
}

// Intent is one actuation request.
type Intent struct {
	// Target is a hardware channel name or an upstream entity id.
	Target string

	// Desired is the requested on/off state.
	Desired bool
}

// Result reports the observed outcome of a command or read.
type Result struct {
	Target string

	// On is the state of the target after the operation.
	On bool

	// Confirmed is true when On reflects an observed state, not an
	// assumption: a completed hardware write, a cache entry carrying the
	// commanded state, or a no-op against an already-matching state.
	Confirmed bool
}

// Stats holds operational statistics.
type Stats struct {
	Dispatched uint64
	Failed     uint64
	NoOps      uint64
}

// Dispatcher routes intents to the hardware driver or the upstream
// command API and confirms their effect.
//
// Thread Safety: all methods are safe for concurrent use. Hardware writes
// are serialized per dispatcher so interleaved requests cannot race on a
// channel.
type Dispatcher struct {
	cache    *entity.Cache
	upstream Upstream
	driver   gpio.Driver

	confirmTimeout time.Duration

	hwMu sync.Mutex

	logger Logger

	dispatched atomic.Uint64
	failed     atomic.Uint64
	noOps      atomic.Uint64
}

// New creates a dispatcher.
//
// Parameters:
//   - cache: Entity state mirror used for lookups and confirmation
//   - upstream: Command client for entity targets
//   - driver: Hardware driver for channel targets
//   - confirmTimeout: Wait bound for the confirming state change
func New(cache *entity.Cache, upstream Upstream, driver gpio.Driver, confirmTimeout time.Duration) *Dispatcher {
	return &Dispatcher{
		cache:          cache,
		upstream:       upstream,
		driver:         driver,
		confirmTimeout: confirmTimeout,
		logger:         noopLogger{},
	}
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.logger = logger
}

// Stats returns current operational statistics.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Dispatched: d.dispatched.Load(),
		Failed:     d.failed.Load(),
		NoOps:      d.noOps.Load(),
	}
}

// isEntityTarget reports whether a target names an upstream entity.
// Entity ids always carry a domain prefix; hardware channels never do.
func isEntityTarget(target string) bool {
	return strings.Contains(target, ".")
}

// Dispatch executes one intent and waits for its outcome.
//
// Returns:
//   - Result: Observed state of the target (valid when error is nil or ErrTimeout)
//   - error: nil on confirmed success; see package doc for the error taxonomy
func (d *Dispatcher) Dispatch(ctx context.Context, intent Intent) (Result, error) {
	d.dispatched.Add(1)

	var res Result
	var err error
	if isEntityTarget(intent.Target) {
		res, err = d.dispatchEntity(ctx, intent)
	} else {
		res, err = d.dispatchHardware(intent)
	}

	if err != nil {
		d.failed.Add(1)
		d.logger.Warn("command failed",
			"target", intent.Target,
			"desired", intent.Desired,
			"error", err,
		)
		return res, err
	}

	d.logger.Info("command completed",
		"target", intent.Target,
		"desired", intent.Desired,
		"confirmed", res.Confirmed,
	)
	return res, nil
}

// Read returns the current state of a target without actuating it.
func (d *Dispatcher) Read(target string) (Result, error) {
	if isEntityTarget(target) {
		state, ok := d.cache.Get(target)
		if !ok || state.Value.Removed() {
			return Result{}, fmt.Errorf("%w: %s", ErrUnknownEntity, target)
		}
		return Result{Target: target, On: state.Value.On(), Confirmed: true}, nil
	}

	on, err := d.driver.Read(target)
	if err != nil {
		if errors.Is(err, gpio.ErrUnknownChannel) {
			return Result{}, fmt.Errorf("%w: %s", ErrUnknownEntity, target)
		}
		return Result{}, fmt.Errorf("%w: %w", ErrHardwareFault, err)
	}
	return Result{Target: target, On: on, Confirmed: true}, nil
}

// dispatchHardware writes a local channel. The write is synchronous, so a
// successful write is its own confirmation.
func (d *Dispatcher) dispatchHardware(intent Intent) (Result, error) {
	d.hwMu.Lock()
	defer d.hwMu.Unlock()

	if err := d.driver.Write(intent.Target, intent.Desired); err != nil {
		if errors.Is(err, gpio.ErrUnknownChannel) {
			return Result{}, fmt.Errorf("%w: %s", ErrUnknownEntity, intent.Target)
		}
		return Result{}, fmt.Errorf("%w: %w", ErrHardwareFault, err)
	}
	return Result{Target: intent.Target, On: intent.Desired, Confirmed: true}, nil
}

// dispatchEntity commands an upstream entity and waits for the cache to
// observe the commanded state.
func (d *Dispatcher) dispatchEntity(ctx context.Context, intent Intent) (Result, error) {
	if !d.upstream.Connected() {
		return Result{}, fmt.Errorf("%w: %s", ErrUnreachable, intent.Target)
	}

	state, ok := d.cache.Get(intent.Target)
	if !ok || state.Value.Removed() {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownEntity, intent.Target)
	}

	if state.Value.On() == intent.Desired {
		d.noOps.Add(1)
		d.logger.Debug("command is a no-op", "target", intent.Target, "desired", intent.Desired)
		return Result{Target: intent.Target, On: intent.Desired, Confirmed: true}, nil
	}

	domain := intent.Target[:strings.IndexByte(intent.Target, '.')]
	service := "turn_off"
	if intent.Desired {
		service = "turn_on"
	}

	if err := d.upstream.CallService(ctx, domain, service, nil, intent.Target); err != nil {
		switch {
		case errors.Is(err, hass.ErrNotConnected):
			return Result{}, fmt.Errorf("%w: %s", ErrUnreachable, intent.Target)
		case errors.Is(err, hass.ErrCommandRejected):
			return Result{}, fmt.Errorf("%w: %w", ErrRejected, err)
		case errors.Is(err, hass.ErrCommandTimeout):
			return Result{}, fmt.Errorf("%w: no acknowledgment for %s", ErrTimeout, intent.Target)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return Result{}, err
		default:
			return Result{}, fmt.Errorf("%w: %w", ErrRejected, err)
		}
	}

	if !d.awaitConfirmation(ctx, intent.Target, intent.Desired) {
		// Accepted but unconfirmed: report the last observed state so the
		// caller can distinguish "probably off" from "unknown".
		last, _ := d.cache.Get(intent.Target)
		return Result{Target: intent.Target, On: last.Value.On(), Confirmed: false},
			fmt.Errorf("%w: %s did not reach desired state", ErrTimeout, intent.Target)
	}

	return Result{Target: intent.Target, On: intent.Desired, Confirmed: true}, nil
}

// awaitConfirmation blocks until the cache reflects the desired state, the
// confirmation window elapses, or the context is canceled.
//
// The generation channel is grabbed before each re-check so an update that
// lands between the check and the wait is never missed.
func (d *Dispatcher) awaitConfirmation(ctx context.Context, target string, desired bool) bool {
	deadline := time.NewTimer(d.confirmTimeout)
	defer deadline.Stop()

	for {
		updated := d.cache.Updated()

		if state, ok := d.cache.Get(target); ok && !state.Value.Removed() && state.Value.On() == desired {
			return true
		}

		select {
		case <-updated:
		case <-deadline.C:
			return false
		case <-ctx.Done():
			return false
		}
	}
}
