// Package dispatch routes actuation intents to the right backend and
// reports whether the commanded state actually took effect.
//
// A target is either a local hardware channel (leds, buzzer) or an upstream
// entity id; entity ids are recognized by their domain prefix ("light.desk").
// Hardware writes are synchronous and their result is authoritative.
// Upstream commands are two-phase: the command API's accept/reject first,
// then confirmation that the entity cache observed the commanded state
// within the confirmation window.
//
// # Outcomes
//
//   - ErrUnknownEntity: the target names no cached entity.
//   - ErrUnreachable: the upstream link is down, reported immediately.
//   - ErrRejected: the source refused the command.
//   - ErrTimeout: the command was accepted but no confirming state change
//     arrived in time.
//   - ErrHardwareFault: a local channel write failed.
//
// A command whose target already holds the desired state succeeds without
// touching the backend.
package dispatch
