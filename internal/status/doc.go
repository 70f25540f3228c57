// Package status assembles the read model served to the touchscreen UI.
//
// The view is computed on demand from the entity cache, the upstream
// connection state and the hardware driver; nothing is stored. Its JSON
// shape is discriminated by the "status" field. An upstream outage only
// flips the discriminator to "disconnected": location, weather and alarm
// keep reporting the last-known cached values so the touchscreen does
// not blank out while the link recovers.
//
// Weather slots that the upstream entity does not provide are serialized
// as null rather than omitted, so the UI can distinguish "unknown" from
// "zero".
package status
