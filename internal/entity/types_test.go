package entity

import (
	"testing"
	"time"
)

func TestParseState(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Value
	}{
		{name: "on", input: "on", want: BoolValue(true)},
		{name: "off", input: "off", want: BoolValue(false)},
		{name: "integer", input: "42", want: NumberValue(42)},
		{name: "float", input: "21.5", want: NumberValue(21.5)},
		{name: "negative", input: "-3.2", want: NumberValue(-3.2)},
		{name: "plain string", input: "cloudy", want: StringValue("cloudy")},
		{name: "unavailable", input: "unavailable", want: StringValue("unavailable")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseState(tt.input)
			if got != tt.want {
				t.Errorf("ParseState(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestValue_On(t *testing.T) {
	if !BoolValue(true).On() {
		t.Error("BoolValue(true).On() = false, want true")
	}
	if BoolValue(false).On() {
		t.Error("BoolValue(false).On() = true, want false")
	}
	// Non-bool kinds never report on, even with a truthy payload.
	if NumberValue(1).On() {
		t.Error("NumberValue(1).On() = true, want false")
	}
	if Tombstone().On() {
		t.Error("Tombstone().On() = true, want false")
	}
}

func TestState_Clone(t *testing.T) {
	orig := State{
		ID:          "weather.home",
		Value:       CompositeValue("sunny"),
		Attributes:  map[string]any{"temperature": 21.5},
		LastUpdated: time.Now().UTC(),
	}

	clone := orig.Clone()
	clone.Attributes["temperature"] = 0.0

	if orig.Attributes["temperature"] != 21.5 {
		t.Error("Clone() shares the attribute map with the original")
	}
	if clone.ID != orig.ID || clone.Value != orig.Value || !clone.LastUpdated.Equal(orig.LastUpdated) {
		t.Error("Clone() did not copy scalar fields")
	}
}

func TestState_CloneNilAttributes(t *testing.T) {
	orig := State{ID: "light.a", Value: BoolValue(true)}

	clone := orig.Clone()
	if clone.Attributes != nil {
		t.Error("Clone() invented an attribute map for nil attributes")
	}
}
