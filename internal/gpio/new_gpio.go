//go:build gpio

package gpio

// New returns the Driver for this build.
//
// With the "gpio" build tag pins are driven through /sys/class/gpio.
func New(pins Pins) (Driver, error) {
	return NewSysfs(pins)
}
