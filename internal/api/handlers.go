package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ereOn/home-control/internal/dispatch"
	"github.com/ereOn/home-control/internal/entity"
	"github.com/ereOn/home-control/internal/gpio"
)

// apiBool is the request payload of the actuation endpoints. Touchscreen
// clients historically send either a JSON boolean or 0/1, so both decode.
type apiBool bool

// UnmarshalJSON accepts true/false and 0/1.
func (b *apiBool) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch n := v.(type) {
	case bool:
		*b = apiBool(n)
		return nil
	case float64:
		switch n {
		case 0:
			*b = false
			return nil
		case 1:
			*b = true
			return nil
		}
	}
	return fmt.Errorf("expected boolean or 0/1")
}

// commandResponse reports the outcome of an actuation request.
type commandResponse struct {
	Target    string `json:"target"`
	On        bool   `json:"on"`
	Confirmed bool   `json:"confirmed"`
}

// ledChannels maps URL colors to hardware channels.
var ledChannels = map[string]string{
	"red":   gpio.ChannelRedLed,
	"green": gpio.ChannelGreenLed,
}

// decodeBool reads the request body as an apiBool.
func decodeBool(r *http.Request) (bool, error) {
	var b apiBool
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		return false, err
	}
	return bool(b), nil
}

// handleStatus returns the aggregate status view.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.statusView.Build())
}

// handleGetLed returns the current level of a led channel.
func (s *Server) handleGetLed(w http.ResponseWriter, r *http.Request) {
	channel, ok := ledChannels[chi.URLParam(r, "color")]
	if !ok {
		writeNotFound(w, "unknown led color")
		return
	}
	s.readTarget(w, channel)
}

// handleSetLed sets a led channel.
func (s *Server) handleSetLed(w http.ResponseWriter, r *http.Request) {
	channel, ok := ledChannels[chi.URLParam(r, "color")]
	if !ok {
		writeNotFound(w, "unknown led color")
		return
	}
	s.dispatchTarget(w, r, channel)
}

// handleGetBuzzer returns the current buzzer level.
func (s *Server) handleGetBuzzer(w http.ResponseWriter, _ *http.Request) {
	s.readTarget(w, gpio.ChannelBuzzer)
}

// handleSetBuzzer sets the buzzer.
func (s *Server) handleSetBuzzer(w http.ResponseWriter, r *http.Request) {
	s.dispatchTarget(w, r, gpio.ChannelBuzzer)
}

// handleGetLight returns the cached state of an upstream light.
func (s *Server) handleGetLight(w http.ResponseWriter, r *http.Request) {
	entityID, err := lightEntityID(chi.URLParam(r, "name"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	s.readTarget(w, entityID)
}

// handleSetLight commands an upstream light and waits for confirmation.
func (s *Server) handleSetLight(w http.ResponseWriter, r *http.Request) {
	entityID, err := lightEntityID(chi.URLParam(r, "name"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	s.dispatchTarget(w, r, entityID)
}

// handleGetAlarm returns the alarm entity's state, null when unknown.
func (s *Server) handleGetAlarm(w http.ResponseWriter, _ *http.Request) {
	var on *bool
	if id := s.cfg.Home.AlarmEntity; id != "" {
		if res, err := s.dispatcher.Read(id); err == nil {
			on = &res.On
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"on": on})
}

// readTarget resolves a target's current state.
func (s *Server) readTarget(w http.ResponseWriter, target string) {
	res, err := s.dispatcher.Read(target)
	if err != nil {
		writeDispatchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, commandResponse{
		Target:    res.Target,
		On:        res.On,
		Confirmed: res.Confirmed,
	})
}

// dispatchTarget decodes the desired level and runs one command to
// completion within the request.
func (s *Server) dispatchTarget(w http.ResponseWriter, r *http.Request, target string) {
	desired, err := decodeBool(r)
	if err != nil {
		writeBadRequest(w, "request body must be a boolean or 0/1")
		return
	}

	res, err := s.dispatcher.Dispatch(r.Context(), dispatch.Intent{
		Target:  target,
		Desired: desired,
	})
	if err != nil {
		writeDispatchError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, commandResponse{
		Target:    res.Target,
		On:        res.On,
		Confirmed: res.Confirmed,
	})
}

// lightEntityID maps a URL light name to its upstream entity id.
func lightEntityID(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, "./") {
		return "", fmt.Errorf("invalid light name")
	}
	return "light." + name, nil
}

// stateEventPayload shapes one entity state for websocket broadcast.
func stateEventPayload(state entity.State) map[string]any {
	payload := map[string]any{
		"entity_id":    state.ID,
		"kind":         string(state.Value.Kind),
		"on":           state.Value.On(),
		"last_updated": state.LastUpdated.Format(time.RFC3339),
	}
	switch state.Value.Kind {
	case entity.KindNumber:
		payload["value"] = state.Value.Number
	case entity.KindString, entity.KindComposite:
		payload["value"] = state.Value.Str
	}
	return payload
}
