package store

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/toniosim/pbbg-client/pkg/errors"
	"github.com/toniosim/pbbg-client/pkg/game/types"
)

type characterResponse struct {
	Success   bool             `json:"success"`
	Message   string           `json:"message,omitempty"`
	Character *types.Character `json:"character"`
}

type mapResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	Map     types.GameMap `json:"map"`
}

type locationResponse struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message,omitempty"`
	Location *types.Location `json:"location"`
}

type actionsResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Actions []types.Action `json:"actions"`
}

type logsResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
	Logs    []types.LogEntry `json:"logs"`
}

type inventoryResponse struct {
	Success   bool                  `json:"success"`
	Message   string                `json:"message,omitempty"`
	Inventory []types.InventoryItem `json:"inventory"`
}

type equipmentResponse struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message,omitempty"`
	Equipment types.Equipment `json:"equipment"`
}

// LoadCharacter replaces the character from the request channel.
func (s *Store) LoadCharacter(ctx context.Context) error {
	var resp characterResponse
	if err := s.api.Get(ctx, "/api/game/character", &resp); err != nil {
		return fmt.Errorf("failed to load character: %v", err)
	}
	if !resp.Success {
		return apperrors.Application(firstNonEmpty(resp.Message, "Failed to load character"))
	}
	s.mu.Lock()
	s.character = resp.Character
	s.mu.Unlock()
	return nil
}

// LoadMap replaces the map slice from the request channel.
func (s *Store) LoadMap(ctx context.Context) error {
	var resp mapResponse
	if err := s.api.Get(ctx, "/api/game/map", &resp); err != nil {
		return fmt.Errorf("failed to load map: %v", err)
	}
	if !resp.Success {
		return apperrors.Application(firstNonEmpty(resp.Message, "Failed to load map"))
	}
	s.mu.Lock()
	s.gameMap = resp.Map
	s.mu.Unlock()
	return nil
}

// LoadLocation replaces the current location from the request channel.
func (s *Store) LoadLocation(ctx context.Context) error {
	var resp locationResponse
	if err := s.api.Get(ctx, "/api/game/location", &resp); err != nil {
		return fmt.Errorf("failed to load location: %v", err)
	}
	if !resp.Success {
		return apperrors.Application(firstNonEmpty(resp.Message, "Failed to load location"))
	}
	s.mu.Lock()
	s.location = resp.Location
	s.mu.Unlock()
	return nil
}

// LoadActions replaces the available actions from the request channel.
func (s *Store) LoadActions(ctx context.Context) error {
	var resp actionsResponse
	if err := s.api.Get(ctx, "/api/game/actions", &resp); err != nil {
		return fmt.Errorf("failed to load actions: %v", err)
	}
	if !resp.Success {
		return apperrors.Application(firstNonEmpty(resp.Message, "Failed to load actions"))
	}
	s.mu.Lock()
	s.actions = resp.Actions
	s.mu.Unlock()
	return nil
}

// LoadLogs replaces the action log feed from the request channel.
func (s *Store) LoadLogs(ctx context.Context) error {
	var resp logsResponse
	if err := s.api.Get(ctx, "/api/game/logs", &resp); err != nil {
		return fmt.Errorf("failed to load logs: %v", err)
	}
	if !resp.Success {
		return apperrors.Application(firstNonEmpty(resp.Message, "Failed to load logs"))
	}
	s.mu.Lock()
	s.logs = dedupLogs(resp.Logs)
	s.mu.Unlock()
	return nil
}

// LoadInventory replaces the inventory from the request channel.
func (s *Store) LoadInventory(ctx context.Context) error {
	var resp inventoryResponse
	if err := s.api.Get(ctx, "/api/game/inventory", &resp); err != nil {
		return fmt.Errorf("failed to load inventory: %v", err)
	}
	if !resp.Success {
		return apperrors.Application(firstNonEmpty(resp.Message, "Failed to load inventory"))
	}
	s.mu.Lock()
	s.inventory = resp.Inventory
	s.mu.Unlock()
	return nil
}

// LoadEquipment replaces the equipped items from the request channel.
func (s *Store) LoadEquipment(ctx context.Context) error {
	var resp equipmentResponse
	if err := s.api.Get(ctx, "/api/game/equipment", &resp); err != nil {
		return fmt.Errorf("failed to load equipment: %v", err)
	}
	if !resp.Success {
		return apperrors.Application(firstNonEmpty(resp.Message, "Failed to load equipment"))
	}
	s.mu.Lock()
	s.equipment = resp.Equipment
	s.mu.Unlock()
	return nil
}

// Initialize registers the push subscriptions, then runs all pull
// operations concurrently. Subscriptions are registered before any pull
// completes so no update is missed during the initial load race. If any
// pull fails the initialization fails as a whole, but slices that loaded
// successfully are retained: staleness is preferred over a blank state.
func (s *Store) Initialize(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	s.subscribe()

	var g errgroup.Group
	g.Go(func() error { return s.LoadCharacter(ctx) })
	g.Go(func() error { return s.LoadMap(ctx) })
	g.Go(func() error { return s.LoadLocation(ctx) })
	g.Go(func() error { return s.LoadActions(ctx) })
	g.Go(func() error { return s.LoadLogs(ctx) })
	g.Go(func() error { return s.LoadInventory(ctx) })
	g.Go(func() error { return s.LoadEquipment(ctx) })

	if err := g.Wait(); err != nil {
		msg := apperrors.Message(err, "Failed to initialize game")
		s.setError(msg)
		s.notifier.Negative(msg)
		return err
	}

	s.mu.Lock()
	s.ready = true
	s.errMsg = ""
	s.mu.Unlock()
	return nil
}

// dedupLogs drops entries repeating a previously seen server-assigned
// id, preserving order.
func dedupLogs(logs []types.LogEntry) []types.LogEntry {
	seen := make(map[int]struct{}, len(logs))
	var out []types.LogEntry
	for _, entry := range logs {
		if _, ok := seen[entry.ID]; ok {
			continue
		}
		seen[entry.ID] = struct{}{}
		out = append(out, entry)
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
