// Package store implements the game state store: the single
// authoritative client-side snapshot of the character, world view and
// social feed, reconciled from the request and push channels.
//
// Both channels carry full snapshots, never diffs, so every merge is a
// whole-slice replacement: last write wins, regardless of arrival order.
// Applying the same update twice, or two updates out of generation
// order, never corrupts the snapshot.
package store

import (
	"context"
	"sync"

	"github.com/toniosim/pbbg-client/pkg/channel"
	"github.com/toniosim/pbbg-client/pkg/game/types"
	"github.com/toniosim/pbbg-client/pkg/notify"
)

// maxChatMessages bounds the chat feed; the oldest entries are dropped.
const maxChatMessages = 100

// apiClient is the request-channel surface the store pulls from.
type apiClient interface {
	Get(ctx context.Context, path string, out interface{}) error
	Post(ctx context.Context, path string, body, out interface{}) error
}

// pushChannel is the push-channel surface the store subscribes to and
// dispatches actions on.
type pushChannel interface {
	IsConnected() bool
	Publish(event string, payload interface{}) error
	Subscribe(event string, handler channel.Handler) func()
}

// Store holds the authoritative snapshot. Create one per session:
// NewStore, Initialize, then Dispose when the session ends.
type Store struct {
	api      apiClient
	channel  pushChannel
	notifier notify.Notifier

	mu               sync.RWMutex
	character        *types.Character
	gameMap          types.GameMap
	location         *types.Location
	actions          []types.Action
	logs             []types.LogEntry
	chatMessages     []types.ChatMessage
	inventory        []types.InventoryItem
	equipment        types.Equipment
	players          []types.PlayerPresence
	loading          bool
	errMsg           string
	channelConnected bool
	ready            bool

	cancels    []func()
	subscribed bool
}

// NewStoreOptions are the options for creating a new Store.
type NewStoreOptions struct {
	API      apiClient
	Channel  pushChannel
	Notifier notify.Notifier
}

// NewStore creates a new Store.
func NewStore(opts NewStoreOptions) *Store {
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Store{
		api:       opts.API,
		channel:   opts.Channel,
		notifier:  notifier,
		equipment: types.Equipment{},
	}
}

// Character returns the live character, or nil before the first update.
func (s *Store) Character() *types.Character {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.character
}

// Map returns the current map slice.
func (s *Store) Map() types.GameMap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gameMap
}

// Location returns the current location, or nil before the first update.
func (s *Store) Location() *types.Location {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.location
}

// Actions returns the actions the server currently offers.
func (s *Store) Actions() []types.Action {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.actions
}

// Logs returns the action log feed.
func (s *Store) Logs() []types.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logs
}

// ChatMessages returns the bounded chat feed, oldest first.
func (s *Store) ChatMessages() []types.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chatMessages
}

// Inventory returns the character's inventory.
func (s *Store) Inventory() []types.InventoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inventory
}

// Equipment returns the character's equipped items by slot.
func (s *Store) Equipment() types.Equipment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.equipment
}

// Players returns the last received presence list for the current location.
func (s *Store) Players() []types.PlayerPresence {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.players
}

// IsLoading reports whether a load or dispatch is in flight.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// ChannelConnected reports whether the push channel is connected, as
// last observed through its connect/disconnect events.
func (s *Store) ChannelConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channelConnected
}

// Ready reports whether Initialize has completed successfully.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Err returns the recorded error message from the last failure.
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// ClearError clears the recorded error message.
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = ""
}

// Dispose cancels all push subscriptions. The store can be initialized
// again afterwards.
func (s *Store) Dispose() {
	s.mu.Lock()
	cancels := s.cancels
	s.cancels = nil
	s.subscribed = false
	s.ready = false
	s.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

func (s *Store) setLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
}

func (s *Store) setError(msg string) {
	s.mu.Lock()
	s.errMsg = msg
	s.mu.Unlock()
}
