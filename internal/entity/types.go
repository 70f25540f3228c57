package entity

import (
	"strconv"
	"time"
)

// Kind discriminates the variants of a Value.
type Kind string

// Value kinds.
const (
	KindBool      Kind = "bool"
	KindNumber    Kind = "number"
	KindString    Kind = "string"
	KindComposite Kind = "composite"

	// KindRemoved marks a tombstone: the upstream source no longer knows
	// this entity. The entry stays in the cache so reads keep working.
	KindRemoved Kind = "removed"
)

// Value is the discriminated state value of an entity.
// Exactly one of the payload fields is meaningful, selected by Kind.
type Value struct {
	Kind   Kind
	Bool   bool
	Number float64
	Str    string
}

// BoolValue returns an on/off Value.
func BoolValue(on bool) Value {
	return Value{Kind: KindBool, Bool: on}
}

// NumberValue returns a numeric Value.
func NumberValue(n float64) Value {
	return Value{Kind: KindNumber, Number: n}
}

// StringValue returns a string Value.
func StringValue(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// CompositeValue returns a Value whose payload lives entirely in the
// entity's attributes (weather entities, for example). The raw state
// string is preserved for display.
func CompositeValue(s string) Value {
	return Value{Kind: KindComposite, Str: s}
}

// Tombstone returns the Value marking a removed entity.
func Tombstone() Value {
	return Value{Kind: KindRemoved}
}

// ParseState maps an upstream state string to a Value.
//
// "on"/"off" become bool values, parseable numbers become numeric values,
// and everything else is kept as a string value. Callers that know the
// entity carries composite attributes should use CompositeValue instead.
func ParseState(s string) Value {
	switch s {
	case "on":
		return BoolValue(true)
	case "off":
		return BoolValue(false)
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return NumberValue(n)
	}
	return StringValue(s)
}

// On reports whether the value represents an active/on state.
// Only bool values can be on; any other kind reports false.
func (v Value) On() bool {
	return v.Kind == KindBool && v.Bool
}

// Removed reports whether the value is a tombstone.
func (v Value) Removed() bool {
	return v.Kind == KindRemoved
}

// State is the full current state of one entity.
//
// States are immutable once constructed: updates replace the whole record
// in the cache, they never mutate it in place. Attributes must not be
// modified after construction; use Clone when a mutable copy is needed.
type State struct {
	// ID is the opaque entity id assigned by the upstream source.
	ID string

	// Value is the discriminated current value.
	Value Value

	// Attributes carries the upstream attribute map as-is.
	Attributes map[string]any

	// LastUpdated is the upstream timestamp of this state. It decides
	// which of two competing updates for the same entity wins.
	LastUpdated time.Time
}

// Clone returns a deep copy of the state with its own attribute map.
func (s State) Clone() State {
	out := s
	if s.Attributes != nil {
		out.Attributes = make(map[string]any, len(s.Attributes))
		for k, v := range s.Attributes {
			out.Attributes[k] = v
		}
	}
	return out
}
