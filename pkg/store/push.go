package store

import (
	"encoding/json"
	"fmt"

	"github.com/toniosim/pbbg-client/pkg/game/types"
	"github.com/toniosim/pbbg-client/pkg/log"
)

// subscribe registers all push-event handlers. It is idempotent; the
// handlers stay registered until Dispose.
func (s *Store) subscribe() {
	s.mu.Lock()
	if s.subscribed {
		s.mu.Unlock()
		return
	}
	s.subscribed = true
	s.mu.Unlock()

	cancels := []func(){
		s.channel.Subscribe(types.EventConnect, func(json.RawMessage) {
			s.mu.Lock()
			s.channelConnected = true
			s.mu.Unlock()
		}),
		s.channel.Subscribe(types.EventDisconnect, func(json.RawMessage) {
			s.mu.Lock()
			s.channelConnected = false
			s.mu.Unlock()
		}),
		s.channel.Subscribe(types.EventCharacterUpdate, s.onCharacterUpdate),
		s.channel.Subscribe(types.EventMapUpdate, s.onMapUpdate),
		s.channel.Subscribe(types.EventLocationUpdate, s.onLocationUpdate),
		s.channel.Subscribe(types.EventActionsUpdate, s.onActionsUpdate),
		s.channel.Subscribe(types.EventLogsUpdate, s.onLogsUpdate),
		s.channel.Subscribe(types.EventChatMessage, s.onChatMessage),
		s.channel.Subscribe(types.EventPlayersInLocation, s.onPlayersInLocation),
		s.channel.Subscribe(types.EventMessage, func(data json.RawMessage) {
			var msg types.ServerMessage
			if !decode(types.EventMessage, data, &msg) {
				return
			}
			s.notifier.Info(msg.Text)
		}),
		s.channel.Subscribe(types.EventError, func(data json.RawMessage) {
			var serverErr types.ServerError
			if !decode(types.EventError, data, &serverErr) {
				return
			}
			s.notifier.Negative(serverErr.Message)
		}),
		s.channel.Subscribe(types.EventPlayerEntered, func(data json.RawMessage) {
			var p types.PlayerPresence
			if !decode(types.EventPlayerEntered, data, &p) {
				return
			}
			s.notifier.Info(fmt.Sprintf("%s entered the area", p.CharacterName))
		}),
		s.channel.Subscribe(types.EventPlayerLeft, func(data json.RawMessage) {
			var p types.PlayerPresence
			if !decode(types.EventPlayerLeft, data, &p) {
				return
			}
			s.notifier.Info(fmt.Sprintf("%s left the area", p.CharacterName))
		}),
	}

	s.mu.Lock()
	s.cancels = append(s.cancels, cancels...)
	s.mu.Unlock()
}

func (s *Store) onCharacterUpdate(data json.RawMessage) {
	var c types.Character
	if !decode(types.EventCharacterUpdate, data, &c) {
		return
	}
	s.mu.Lock()
	s.character = &c
	s.mu.Unlock()
}

func (s *Store) onMapUpdate(data json.RawMessage) {
	var update types.MapUpdate
	if !decode(types.EventMapUpdate, data, &update) {
		return
	}
	s.mu.Lock()
	s.gameMap = update.Map
	s.mu.Unlock()
}

func (s *Store) onLocationUpdate(data json.RawMessage) {
	var l types.Location
	if !decode(types.EventLocationUpdate, data, &l) {
		return
	}
	s.mu.Lock()
	s.location = &l
	s.mu.Unlock()
}

func (s *Store) onActionsUpdate(data json.RawMessage) {
	var actions []types.Action
	if !decode(types.EventActionsUpdate, data, &actions) {
		return
	}
	s.mu.Lock()
	s.actions = actions
	s.mu.Unlock()
}

func (s *Store) onLogsUpdate(data json.RawMessage) {
	var logs []types.LogEntry
	if !decode(types.EventLogsUpdate, data, &logs) {
		return
	}
	s.mu.Lock()
	s.logs = dedupLogs(logs)
	s.mu.Unlock()
}

// onChatMessage appends to the chat feed and truncates it to the most
// recent maxChatMessages entries, dropping the oldest.
func (s *Store) onChatMessage(data json.RawMessage) {
	var msg types.ChatMessage
	if !decode(types.EventChatMessage, data, &msg) {
		return
	}
	s.mu.Lock()
	s.chatMessages = append(s.chatMessages, msg)
	if overflow := len(s.chatMessages) - maxChatMessages; overflow > 0 {
		s.chatMessages = append(s.chatMessages[:0:0], s.chatMessages[overflow:]...)
	}
	s.mu.Unlock()
}

func (s *Store) onPlayersInLocation(data json.RawMessage) {
	var payload types.PlayersInLocation
	if !decode(types.EventPlayersInLocation, data, &payload) {
		return
	}
	s.mu.Lock()
	s.players = payload.Players
	s.mu.Unlock()
}

// decode unmarshals a push payload. The channel validates payloads at
// its boundary, so a failure here indicates a handler wired to the
// wrong event.
func decode(event string, data json.RawMessage, out interface{}) bool {
	if err := json.Unmarshal(data, out); err != nil {
		log.Warn("Failed to decode %s payload: %v", event, err)
		return false
	}
	return true
}
