package service

import (
	"time"

	"github.com/wricardo/pairs-game/game/engine"
)

// NewGameRequest selects the board for a new game. An explicit TotalCards
// wins over ConfigID; an empty request uses the default preset.
type NewGameRequest struct {
	ConfigID   string `json:"config_id,omitempty"`
	TotalCards int    `json:"total_cards,omitempty"`
	Rows       int    `json:"rows,omitempty"`
	Cols       int    `json:"cols,omitempty"`
	Seed       int64  `json:"seed,omitempty"`
}

// IsCustom reports whether the request asks for an explicit board size
func (r NewGameRequest) IsCustom() bool {
	return r.TotalCards != 0
}

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// RevealResult contains the result of a reveal operation
type RevealResult struct {
	Position     int                  `json:"position"`
	Icon         string               `json:"icon,omitempty"`
	Outcome      engine.Outcome       `json:"outcome"`
	Reason       string               `json:"reason,omitempty"`
	Pair         []int                `json:"pair,omitempty"`
	Celebrations []engine.Celebration `json:"celebrations,omitempty"`
	ClearsInMS   int64                `json:"clears_in_ms,omitempty"` // set on mismatch
	GameState    *engine.GameState    `json:"game_state"`
	Message      string               `json:"message"`
	Events       []GameEvent          `json:"events,omitempty"`
}

// Event types carried by GameEvent
const (
	EventReveal   = "reveal"
	EventMatch    = "match"
	EventMismatch = "mismatch"
	EventComplete = "complete"
	EventIgnored  = "ignored"
	EventReset    = "reset"
	EventNewGame  = "new_game"
)

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Positions []int     `json:"positions,omitempty"`
}

// HistoryOptions configures reveal history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated reveal history
type HistoryResponse struct {
	Reveals      []engine.RevealHistoryEntry `json:"reveals"`
	TotalReveals int                         `json:"total_reveals"`
	Page         int                         `json:"page"`
	PageSize     int                         `json:"page_size"`
	TotalPages   int                         `json:"total_pages"`
	HasNext      bool                        `json:"has_next"`
	HasPrevious  bool                        `json:"has_previous"`
}

// ConfigInfo provides information about a game preset
type ConfigInfo struct {
	Filename    string `json:"filename,omitempty"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	TotalCards  int    `json:"total_cards"`
	Pairs       int    `json:"pairs"`
	Rows        int    `json:"rows"`
	Cols        int    `json:"cols"`
	Builtin     bool   `json:"builtin"`
}
