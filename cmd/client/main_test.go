package main

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/toniosim/pbbg-client/pkg/channel"
	"github.com/toniosim/pbbg-client/pkg/game/types"
	"github.com/toniosim/pbbg-client/pkg/store"
)

type fakeSubscriber struct {
	id      uint64
	handler channel.Handler
}

// fakePresenceChannel answers a presence request with a scripted reply.
type fakePresenceChannel struct {
	mu        sync.Mutex
	connected bool
	reply     *types.PlayersInLocation
	handlers  map[string][]fakeSubscriber
	nextID    uint64
}

func newFakePresenceChannel() *fakePresenceChannel {
	return &fakePresenceChannel{
		connected: true,
		handlers:  make(map[string][]fakeSubscriber),
	}
}

func (f *fakePresenceChannel) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakePresenceChannel) Publish(event string, payload interface{}) error {
	f.mu.Lock()
	connected := f.connected
	reply := f.reply
	f.mu.Unlock()

	if !connected {
		return errors.New("push channel is not connected")
	}
	if event == types.EventRequestPlayersInLocation && reply != nil {
		go f.emit(types.EventPlayersInLocation, *reply)
	}
	return nil
}

func (f *fakePresenceChannel) Subscribe(event string, handler channel.Handler) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := f.nextID
	f.handlers[event] = append(f.handlers[event], fakeSubscriber{id: id, handler: handler})

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		handlers := f.handlers[event]
		for i := range handlers {
			if handlers[i].id == id {
				f.handlers[event] = append(handlers[:i:i], handlers[i+1:]...)
				return
			}
		}
	}
}

func (f *fakePresenceChannel) emit(event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	f.mu.Lock()
	handlers := append([]fakeSubscriber(nil), f.handlers[event]...)
	f.mu.Unlock()
	for _, h := range handlers {
		h.handler(data)
	}
}

func TestAwaitPlayers(t *testing.T) {
	tests := []struct {
		name      string
		connected bool
		reply     *types.PlayersInLocation
		want      bool
	}{
		{
			name:      "returns once the reply arrives",
			connected: true,
			reply: &types.PlayersInLocation{
				Players: []types.PlayerPresence{{CharacterID: 2, CharacterName: "Rando"}},
			},
			want: true,
		},
		{
			name:      "times out when the server never replies",
			connected: true,
			want:      false,
		},
		{
			name: "fails fast when the push channel is down",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pushChannel := newFakePresenceChannel()
			pushChannel.connected = tt.connected
			pushChannel.reply = tt.reply
			gameStore := store.NewStore(store.NewStoreOptions{Channel: pushChannel})

			got := awaitPlayers(pushChannel, gameStore, 100*time.Millisecond)

			assert.Equal(t, tt.want, got)
		})
	}
}
