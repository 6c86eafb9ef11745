// Package types defines the client-side read models of the game world.
// Every entity is volatile and rebuilt each session; updates from either
// channel replace a whole entity, never patch fields within one.
package types

import "encoding/json"

// User represents an authenticated account.
type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	IsActive  bool   `json:"is_active"`
	IsAdmin   bool   `json:"is_admin"`
	LastLogin string `json:"last_login,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Effect represents an active effect on a character.
type Effect struct {
	Type      string          `json:"type"`
	Name      string          `json:"name,omitempty"`
	ExpiresAt string          `json:"expires_at,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// ItemDefinition describes an item kind.
type ItemDefinition struct {
	Code        string `json:"code,omitempty"`
	Name        string `json:"name,omitempty"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	Slot        string `json:"slot,omitempty"`
}

// InventoryItem is an inventory entry expanded with its item definition.
type InventoryItem struct {
	ID         string          `json:"id"`
	ItemCode   string          `json:"item_code"`
	Quantity   int             `json:"quantity"`
	Definition *ItemDefinition `json:"definition,omitempty"`
	CustomData json.RawMessage `json:"custom_data,omitempty"`
}

// Equipment maps equipment slots to the items equipped in them.
type Equipment map[string]InventoryItem

// Character represents the player's character. Exactly one is live per
// session. Current values never exceed their paired maximums; the server
// enforces this and the client never corrects violations locally.
type Character struct {
	ID             int                `json:"id"`
	UserID         int                `json:"user_id"`
	Name           string             `json:"name"`
	Health         int                `json:"health"`
	MaxHealth      int                `json:"max_health"`
	Stamina        int                `json:"stamina"`
	MaxStamina     int                `json:"max_stamina"`
	AP             int                `json:"ap"`
	MaxAP          int                `json:"max_ap"`
	Money          int                `json:"money"`
	Experience     int                `json:"experience"`
	Level          int                `json:"level"`
	X              int                `json:"x"`
	Y              int                `json:"y"`
	InsideBuilding bool               `json:"inside_building"`
	BuildingID     string             `json:"building_id,omitempty"`
	Stats          map[string]int     `json:"stats,omitempty"`
	Skills         map[string]int     `json:"skills,omitempty"`
	Attributes     map[string]int     `json:"attributes,omitempty"`
	Effects        []Effect           `json:"effects,omitempty"`
	Equipment      map[string]string  `json:"equipment,omitempty"`
	Inventory      []InventoryItem    `json:"inventory,omitempty"`
	CreatedAt      string             `json:"created_at,omitempty"`
}

// HealthPercentage returns current health as a percentage of the maximum.
func (c *Character) HealthPercentage() float64 {
	if c == nil || c.MaxHealth == 0 {
		return 0
	}
	return float64(c.Health) / float64(c.MaxHealth) * 100
}

// StaminaPercentage returns current stamina as a percentage of the maximum.
func (c *Character) StaminaPercentage() float64 {
	if c == nil || c.MaxStamina == 0 {
		return 0
	}
	return float64(c.Stamina) / float64(c.MaxStamina) * 100
}

// APPercentage returns current action points as a percentage of the maximum.
func (c *Character) APPercentage() float64 {
	if c == nil || c.MaxAP == 0 {
		return 0
	}
	return float64(c.AP) / float64(c.MaxAP) * 100
}

// MapTile is one cell of the visible map slice.
type MapTile struct {
	X            int    `json:"x"`
	Y            int    `json:"y"`
	Name         string `json:"name"`
	TileType     string `json:"tile_type"`
	HasBuildings bool   `json:"has_buildings"`
}

// GameMap is a two-dimensional slice of the world centered on the
// character. A nil tile is out of world bounds.
type GameMap [][]*MapTile

// Building represents a structure present at a location.
type Building struct {
	ID           string `json:"id"`
	X            int    `json:"x"`
	Y            int    `json:"y"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	BuildingType string `json:"building_type,omitempty"`
}

// WorldObject represents an interactable object present at a location.
type WorldObject struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ObjectType  string `json:"object_type,omitempty"`
}

// Location describes where the character currently is.
type Location struct {
	Name           string        `json:"name"`
	Description    string        `json:"description,omitempty"`
	X              int           `json:"x"`
	Y              int           `json:"y"`
	InsideBuilding bool          `json:"inside_building"`
	Buildings      []Building    `json:"buildings,omitempty"`
	Objects        []WorldObject `json:"objects,omitempty"`
}

// Action is an action the server currently offers. Availability is
// recomputed server-side after every state-changing event; the client
// never infers it locally.
type Action struct {
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	APCost      int             `json:"ap_cost"`
	Description string          `json:"description,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// LogEntry is one entry of the append-only action log. Identity is
// server-assigned and used to deduplicate the push and pull feeds.
type LogEntry struct {
	ID          int             `json:"id"`
	CharacterID int             `json:"character_id"`
	ActionType  string          `json:"action_type"`
	Message     string          `json:"message"`
	Data        json.RawMessage `json:"data,omitempty"`
	Timestamp   string          `json:"timestamp"`
}

// Chat channels.
const (
	ChatChannelLocation = "location"
	ChatChannelBuilding = "building"
	ChatChannelGlobal   = "global"
)

// ChatMessage is one chat feed entry. There is no server-assigned
// identity; order is arrival order at the client.
type ChatMessage struct {
	CharacterID   int    `json:"character_id"`
	CharacterName string `json:"character_name"`
	Message       string `json:"message"`
	Channel       string `json:"channel"`
	Timestamp     string `json:"timestamp"`
}

// PlayerPresence identifies another character sharing the current location.
type PlayerPresence struct {
	CharacterID   int    `json:"character_id,omitempty"`
	CharacterName string `json:"character_name"`
}
