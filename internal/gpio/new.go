//go:build !gpio

package gpio

// New returns the Driver for this build.
//
// Without the "gpio" build tag the simulated driver is used, matching
// development machines and CI. The device build (-tags gpio) swaps in the
// sysfs driver; the dispatcher never knows the difference.
func New(pins Pins) (Driver, error) {
	return NewSim(pins), nil
}
