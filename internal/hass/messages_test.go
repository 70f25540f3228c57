package hass

import (
	"testing"
	"time"

	"github.com/ereOn/home-control/internal/entity"
)

func TestWireState_ToEntityState(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		wire     wireState
		wantKind entity.Kind
		wantErr  bool
	}{
		{
			name:     "switch state parses to bool",
			wire:     wireState{EntityID: "light.kitchen", State: "on", LastUpdated: now},
			wantKind: entity.KindBool,
		},
		{
			name:     "numeric state parses to number",
			wire:     wireState{EntityID: "sensor.temp", State: "21.5", LastUpdated: now},
			wantKind: entity.KindNumber,
		},
		{
			name:     "bare string state stays string",
			wire:     wireState{EntityID: "sensor.mode", State: "eco", LastUpdated: now},
			wantKind: entity.KindString,
		},
		{
			name: "string state with attributes is composite",
			wire: wireState{
				EntityID:    "weather.home",
				State:       "cloudy",
				Attributes:  map[string]any{"temperature": 14.2},
				LastUpdated: now,
			},
			wantKind: entity.KindComposite,
		},
		{
			name:    "missing entity_id",
			wire:    wireState{State: "on", LastUpdated: now},
			wantErr: true,
		},
		{
			name:    "missing last_updated",
			wire:    wireState{EntityID: "light.kitchen", State: "on"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, err := tt.wire.toEntityState()
			if tt.wantErr {
				if err == nil {
					t.Fatal("toEntityState() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("toEntityState() error = %v", err)
			}
			if state.ID != tt.wire.EntityID {
				t.Errorf("ID = %q, want %q", state.ID, tt.wire.EntityID)
			}
			if state.Value.Kind != tt.wantKind {
				t.Errorf("Value.Kind = %v, want %v", state.Value.Kind, tt.wantKind)
			}
			if !state.LastUpdated.Equal(now) {
				t.Errorf("LastUpdated = %v, want %v", state.LastUpdated, now)
			}
		})
	}
}

func TestTombstoneState(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	state := tombstoneState("light.gone", at)
	if state.ID != "light.gone" {
		t.Errorf("ID = %q, want %q", state.ID, "light.gone")
	}
	if !state.Value.Removed() {
		t.Error("Value.Removed() = false, want true")
	}
	if !state.LastUpdated.Equal(at) {
		t.Errorf("LastUpdated = %v, want %v", state.LastUpdated, at)
	}
}
