package types

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/toniosim/pbbg-client/pkg/errors"
)

// Inbound push-channel events.
const (
	EventConnect           = "connect"
	EventDisconnect        = "disconnect"
	EventConnectError      = "connect_error"
	EventError             = "error"
	EventMessage           = "message"
	EventCharacterUpdate   = "character_update"
	EventMapUpdate         = "map_update"
	EventLocationUpdate    = "location_update"
	EventActionsUpdate     = "actions_update"
	EventLogsUpdate        = "logs_update"
	EventChatMessage       = "chat_message"
	EventPlayerEntered     = "player_entered"
	EventPlayerLeft        = "player_left"
	EventPlayersInLocation = "players_in_location"
)

// Outbound push-channel events.
const (
	EventAction                   = "action"
	EventChat                     = "chat"
	EventRequestPlayersInLocation = "request_players_in_location"
)

// MapUpdate is the payload of a map_update event.
type MapUpdate struct {
	Map GameMap `json:"map"`
}

// ServerMessage is the payload of a message event.
type ServerMessage struct {
	Text string `json:"text"`
}

// ServerError is the payload of an error event.
type ServerError struct {
	Message string `json:"message"`
}

// PlayersInLocation is the payload of a players_in_location event.
type PlayersInLocation struct {
	Players []PlayerPresence `json:"players"`
}

// ActionRequest is the payload of an outbound action event and the body
// of the request-channel action fallback. RequestID identifies a single
// dispatch so its effect can be correlated with later updates.
type ActionRequest struct {
	ActionType string                 `json:"action_type"`
	ActionData map[string]interface{} `json:"action_data"`
	RequestID  string                 `json:"request_id,omitempty"`
}

// ChatRequest is the payload of an outbound chat event.
type ChatRequest struct {
	Message string `json:"message"`
	Channel string `json:"channel"`
}

// DecodeInbound decodes the payload of a known inbound event into its
// typed form. Unknown events and malformed payloads are validation
// failures; they are never silently accepted.
func DecodeInbound(event string, data json.RawMessage) (interface{}, error) {
	var payload interface{}
	switch event {
	case EventConnect, EventDisconnect, EventConnectError:
		return nil, nil
	case EventError:
		payload = &ServerError{}
	case EventMessage:
		payload = &ServerMessage{}
	case EventCharacterUpdate:
		payload = &Character{}
	case EventMapUpdate:
		payload = &MapUpdate{}
	case EventLocationUpdate:
		payload = &Location{}
	case EventActionsUpdate:
		payload = &[]Action{}
	case EventLogsUpdate:
		payload = &[]LogEntry{}
	case EventChatMessage:
		payload = &ChatMessage{}
	case EventPlayerEntered, EventPlayerLeft:
		payload = &PlayerPresence{}
	case EventPlayersInLocation:
		payload = &PlayersInLocation{}
	default:
		return nil, apperrors.Validation(fmt.Sprintf("unknown event: %s", event))
	}

	if err := json.Unmarshal(data, payload); err != nil {
		return nil, apperrors.Validation(fmt.Sprintf("malformed %s payload: %v", event, err))
	}
	return payload, nil
}
