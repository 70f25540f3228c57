package hass

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ereOn/home-control/internal/entity"
)

// Websocket message types used by the Home Assistant API.
const (
	msgTypeAuthRequired    = "auth_required"
	msgTypeAuth            = "auth"
	msgTypeAuthOk          = "auth_ok"
	msgTypeAuthInvalid     = "auth_invalid"
	msgTypeSubscribeEvents = "subscribe_events"
	msgTypeGetStates       = "get_states"
	msgTypeCallService     = "call_service"
	msgTypeEvent           = "event"
	msgTypeResult          = "result"
	msgTypePing            = "ping"
	msgTypePong            = "pong"
)

// eventStateChanged is the only event type the client subscribes to.
const eventStateChanged = "state_changed"

// serverMessage is the envelope of every frame received from the source.
// Only the fields relevant to the frame's type are populated.
type serverMessage struct {
	ID        uint64          `json:"id,omitempty"`
	Type      string          `json:"type"`
	HAVersion string          `json:"ha_version,omitempty"`
	Message   string          `json:"message,omitempty"`
	Success   *bool           `json:"success,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     *resultError    `json:"error,omitempty"`
	Event     *eventPayload   `json:"event,omitempty"`
}

// resultError carries the source's rejection details on a failed result.
type resultError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// eventPayload is the body of an event frame.
type eventPayload struct {
	EventType string           `json:"event_type"`
	Data      stateChangedData `json:"data"`
}

// stateChangedData is the payload of a state_changed event.
// NewState is null when the entity was removed from the source.
type stateChangedData struct {
	EntityID string     `json:"entity_id"`
	NewState *wireState `json:"new_state"`
}

// wireState is an entity state as the source serializes it, both in
// state_changed events and in the get_states full dump.
type wireState struct {
	EntityID    string         `json:"entity_id"`
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes"`
	LastUpdated time.Time      `json:"last_updated"`
}

// authMessage authenticates the client after auth_required.
type authMessage struct {
	Type        string `json:"type"`
	AccessToken string `json:"access_token"`
}

// subscribeEventsMessage subscribes to a single event type.
type subscribeEventsMessage struct {
	ID        uint64 `json:"id"`
	Type      string `json:"type"`
	EventType string `json:"event_type"`
}

// getStatesMessage requests the full state dump.
type getStatesMessage struct {
	ID   uint64 `json:"id"`
	Type string `json:"type"`
}

// pingMessage is the application-level heartbeat request.
type pingMessage struct {
	ID   uint64 `json:"id"`
	Type string `json:"type"`
}

// callServiceMessage issues a command to the source's command API.
type callServiceMessage struct {
	ID          uint64         `json:"id"`
	Type        string         `json:"type"`
	Domain      string         `json:"domain"`
	Service     string         `json:"service"`
	ServiceData map[string]any `json:"service_data,omitempty"`
	Target      *serviceTarget `json:"target,omitempty"`
}

// serviceTarget addresses a command at one entity.
type serviceTarget struct {
	EntityID string `json:"entity_id"`
}

// toEntityState validates a wire state and converts it to the cache's
// representation.
//
// State strings parse to bool/number/string values; a string-valued state
// carrying attributes is classified as composite (weather entities and the
// like), since its payload lives in the attribute map.
func (w *wireState) toEntityState() (entity.State, error) {
	if w.EntityID == "" {
		return entity.State{}, fmt.Errorf("missing entity_id")
	}
	if w.LastUpdated.IsZero() {
		return entity.State{}, fmt.Errorf("entity %s: missing last_updated", w.EntityID)
	}

	value := entity.ParseState(w.State)
	if value.Kind == entity.KindString && len(w.Attributes) > 0 {
		value = entity.CompositeValue(w.State)
	}

	return entity.State{
		ID:          w.EntityID,
		Value:       value,
		Attributes:  w.Attributes,
		LastUpdated: w.LastUpdated.UTC(),
	}, nil
}

// tombstoneState builds the cache record for a removed entity.
// The removal wins over any state the source reported earlier.
func tombstoneState(entityID string, at time.Time) entity.State {
	return entity.State{
		ID:          entityID,
		Value:       entity.Tombstone(),
		LastUpdated: at.UTC(),
	}
}
