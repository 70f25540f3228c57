// Package hass implements the upstream sync client for the Home Assistant
// websocket API.
//
// The client owns the persistent connection to the source: it
// authenticates with a bearer token, subscribes to the state_changed event
// feed, requests a full state dump, and applies every received state to
// the entity cache. It is the cache's only writer.
//
// # Connection lifecycle
//
//	Disconnected → Connecting → Authenticating → Subscribed
//
// Any failure in any state drops back to Disconnected, which is published
// immediately so the status view reflects staleness without waiting for
// the backoff to elapse. Reconnection uses exponential backoff capped at a
// configured maximum; the backoff resets to its initial value once a
// connection has stayed subscribed for the configured stable window.
//
// On entering Subscribed the client requests a full state dump before
// trusting incremental events, so the cache is never missing an entity the
// source currently knows about. All state is in-memory: every reconnection
// rebuilds the mirror from a fresh dump.
//
// # Failure semantics
//
//   - Undecodable frame (not JSON, binary frame): connection failure,
//     triggers reconnection.
//   - Well-formed frame carrying an event that fails validation: logged
//     and skipped, connection stays up.
//   - Idle timeout with no inbound traffic: connection failure.
//
// # Commands
//
// CallService issues a call_service request and waits for the correlated
// result frame, so callers get the source's synchronous accept/reject.
// Confirmation that the commanded state actually changed is the command
// dispatcher's job, built on the cache's generation signal.
package hass
