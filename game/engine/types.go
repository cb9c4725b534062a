package engine

import "time"

// Outcome describes what a reveal request did to the game
type Outcome string

const (
	OutcomeRevealed Outcome = "revealed" // first card of a pair turned face-up
	OutcomeMatch    Outcome = "match"
	OutcomeMismatch Outcome = "mismatch"
	OutcomeIgnored  Outcome = "ignored"
)

// Reasons attached to ignored reveals
const (
	ReasonAlreadyMatched    = "already_matched"
	ReasonAlreadyRevealed   = "already_revealed"
	ReasonPendingResolution = "pending_resolution"
)

// CelebrationKind identifies why a celebration fired
type CelebrationKind string

const (
	CelebrateMatch    CelebrationKind = "match"
	CelebrateComplete CelebrationKind = "complete"
)

const (
	// DefaultMismatchDelay is how long a mismatched pair stays face-up.
	DefaultMismatchDelay = 800 * time.Millisecond

	// Validation constants
	MinTotalCards   = 2
	MaxLayoutSide   = 12
	MaxHistoryLimit = 100
)

// Card is one tile of the board. Position is both its index and identity.
type Card struct {
	Position int    `json:"position"`
	Icon     string `json:"icon"`
}

// Board is the immutable, randomly ordered card sequence of one game
type Board []Card

// Icons returns the icon identifiers in board order
func (b Board) Icons() []string {
	out := make([]string, len(b))
	for i, c := range b {
		out[i] = c.Icon
	}
	return out
}

// Pairs returns the number of pairs the board holds
func (b Board) Pairs() int {
	return len(b) / 2
}

// Layout carries the render hints of a new-game request. Zero means auto-fit.
type Layout struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// GameConfig is a named new-game preset loaded from JSON
type GameConfig struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	TotalCards      int    `json:"total_cards"`
	Rows            int    `json:"rows"`
	Cols            int    `json:"cols"`
	MismatchDelayMS int    `json:"mismatch_delay_ms,omitempty"`
	Seed            int64  `json:"seed,omitempty"` // 0 means a fresh random board every game
}

// PairCount returns the number of pairs the preset asks for
func (c *GameConfig) PairCount() int {
	return c.TotalCards / 2
}

// Layout returns the preset's layout hint
func (c *GameConfig) Layout() Layout {
	return Layout{Rows: c.Rows, Cols: c.Cols}
}

// MismatchDelay returns the configured delay, or fallback when unset
func (c *GameConfig) MismatchDelay(fallback time.Duration) time.Duration {
	if c == nil || c.MismatchDelayMS <= 0 {
		return fallback
	}
	return time.Duration(c.MismatchDelayMS) * time.Millisecond
}

// MismatchToken identifies a pending mismatch. It is only honoured by the game
// generation that issued it.
type MismatchToken struct {
	Generation uint64 `json:"generation"`
	Positions  [2]int `json:"positions"`
}

// Celebration is emitted on every match and once more when the game completes
type Celebration struct {
	Kind         CelebrationKind `json:"kind"`
	MatchedPairs int             `json:"matched_pairs"`
	TotalPairs   int             `json:"total_pairs"`
}

// CardView is the client-facing view of a card. Icon is empty while face-down.
type CardView struct {
	Position int    `json:"position"`
	Icon     string `json:"icon,omitempty"`
	FaceUp   bool   `json:"face_up"`
	Matched  bool   `json:"matched"`
}

// GameState is a snapshot of a game suitable for rendering
type GameState struct {
	GameID          string     `json:"game_id"`
	Generation      uint64     `json:"generation"`
	ConfigName      string     `json:"config_name,omitempty"`
	Layout          Layout     `json:"layout"`
	TotalCards      int        `json:"total_cards"`
	TotalPairs      int        `json:"total_pairs"`
	MatchedPairs    int        `json:"matched_pairs"`
	Revealed        []int      `json:"revealed"`
	Cards           []CardView `json:"cards"`
	MismatchPending bool       `json:"mismatch_pending"`
	Complete        bool       `json:"complete"`
	Message         string     `json:"message"`
	TotalReveals    int        `json:"total_reveals"`
	StartedAt       time.Time  `json:"started_at"`
}

// RevealResult reports the effect of a single reveal request
type RevealResult struct {
	Position     int            `json:"position"`
	Icon         string         `json:"icon,omitempty"`
	Outcome      Outcome        `json:"outcome"`
	Reason       string         `json:"reason,omitempty"`
	Pair         []int          `json:"pair,omitempty"`
	Celebrations []Celebration  `json:"celebrations,omitempty"`
	Mismatch     *MismatchToken `json:"mismatch,omitempty"`
}

// RevealHistoryEntry records one accepted reveal
type RevealHistoryEntry struct {
	Number       int     `json:"number"`
	Position     int     `json:"position"`
	Icon         string  `json:"icon"`
	Outcome      Outcome `json:"outcome"`
	MatchedPairs int     `json:"matched_pairs"`
	Timestamp    int64   `json:"timestamp"`
}
