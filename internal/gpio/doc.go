// Package gpio provides the hardware output driver for locally attached
// indicators (LEDs, buzzer).
//
// The Driver interface is the only thing the command dispatcher sees;
// which implementation backs it is decided at build/wiring time:
//
//   - Sim: in-memory simulation, the default build. Used on development
//     machines and in tests.
//   - Sysfs: writes real pin levels through the kernel's /sys/class/gpio
//     interface. Compiled only with the "gpio" build tag, on the device.
//
// Channels are named ("red_led", "green_led", "buzzer", ...) and mapped to
// BCM pin numbers by configuration. Hardware channel state is local to
// this process: it is not mirrored from upstream and deliberately survives
// upstream reconnections and full state dumps.
package gpio
