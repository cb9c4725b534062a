package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game lifecycle
	NewGame(board Board, layout Layout)
	Reset()
	GetState() *GameState
	IsComplete() bool

	// Match operations
	Reveal(position int) (*RevealResult, error)
	ClearMismatch(token MismatchToken) bool

	// Introspection
	Board() Board
	Generation() uint64
	MatchedPairs() int
	TotalPairs() int
	Revealed() []int
	GetRevealHistory() []RevealHistoryEntry
}

// GameEngine implements the Engine interface. It is not safe for concurrent
// use; the owner serialises calls.
type GameEngine struct {
	gameID       string
	board        Board
	layout       Layout
	configName   string
	generation   uint64
	revealed     []int
	matched      []bool
	matchedPairs int
	startedAt    time.Time
	message      string
	history      []RevealHistoryEntry
}

// NewEngine creates an engine playing the given board
func NewEngine(board Board, layout Layout) *GameEngine {
	e := &GameEngine{}
	e.NewGame(board, layout)
	return e
}

// NewEngineFromConfig generates a board for the preset and starts a game on it
func NewEngineFromConfig(config *GameConfig, icons []string, rng RNG) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}
	board, err := GenerateBoard(icons, config.PairCount(), rng)
	if err != nil {
		return nil, err
	}
	e := NewEngine(board, config.Layout())
	e.configName = config.Name
	return e, nil
}

// SetConfigName labels the current game with the preset it came from
func (e *GameEngine) SetConfigName(name string) {
	e.configName = name
}

// NewGame replaces the board and starts over. Any outstanding mismatch token
// becomes stale.
func (e *GameEngine) NewGame(board Board, layout Layout) {
	e.board = board
	e.layout = layout
	e.gameID = uuid.NewString()
	e.Reset()
}

// Reset restarts the current board: no matches, nothing revealed
func (e *GameEngine) Reset() {
	e.generation++
	e.revealed = e.revealed[:0]
	e.matched = make([]bool, len(e.board))
	e.matchedPairs = 0
	e.history = nil
	e.startedAt = time.Now()
	e.message = fmt.Sprintf("Find all %d pairs!", e.board.Pairs())
}

// Reveal turns the card at position face-up and resolves the pair once two
// cards are showing.
func (e *GameEngine) Reveal(position int) (*RevealResult, error) {
	if position < 0 || position >= len(e.board) {
		return nil, fmt.Errorf("%w: %d (board has %d cards)", ErrInvalidPosition, position, len(e.board))
	}

	result := &RevealResult{Position: position}

	switch {
	case e.matched[position]:
		result.Outcome, result.Reason = OutcomeIgnored, ReasonAlreadyMatched
		return result, nil
	case e.isRevealed(position):
		result.Outcome, result.Reason = OutcomeIgnored, ReasonAlreadyRevealed
		return result, nil
	case len(e.revealed) >= 2:
		result.Outcome, result.Reason = OutcomeIgnored, ReasonPendingResolution
		return result, nil
	}

	e.revealed = append(e.revealed, position)
	result.Icon = e.board[position].Icon
	result.Outcome = OutcomeRevealed
	e.message = "Pick another card"

	if len(e.revealed) == 2 {
		e.resolve(result)
	}

	e.history = append(e.history, RevealHistoryEntry{
		Number:       len(e.history) + 1,
		Position:     position,
		Icon:         result.Icon,
		Outcome:      result.Outcome,
		MatchedPairs: e.matchedPairs,
		Timestamp:    time.Now().Unix(),
	})

	return result, nil
}

// resolve compares the two revealed cards
func (e *GameEngine) resolve(result *RevealResult) {
	first, second := e.revealed[0], e.revealed[1]
	result.Pair = []int{first, second}

	if e.board[first].Icon != e.board[second].Icon {
		result.Outcome = OutcomeMismatch
		result.Mismatch = &MismatchToken{Generation: e.generation, Positions: [2]int{first, second}}
		e.message = "No match"
		return
	}

	e.matched[first] = true
	e.matched[second] = true
	e.matchedPairs++
	e.revealed = e.revealed[:0]

	result.Outcome = OutcomeMatch
	result.Celebrations = append(result.Celebrations, e.celebration(CelebrateMatch))
	e.message = fmt.Sprintf("Match! %d / %d", e.matchedPairs, e.board.Pairs())

	if e.IsComplete() {
		result.Celebrations = append(result.Celebrations, e.celebration(CelebrateComplete))
		e.message = fmt.Sprintf("All %d pairs found!", e.board.Pairs())
	}
}

func (e *GameEngine) celebration(kind CelebrationKind) Celebration {
	return Celebration{Kind: kind, MatchedPairs: e.matchedPairs, TotalPairs: e.board.Pairs()}
}

// ClearMismatch flips a mismatched pair face-down again. It reports false and
// leaves the state alone when the token belongs to an older game or the pair
// is no longer showing.
func (e *GameEngine) ClearMismatch(token MismatchToken) bool {
	if token.Generation != e.generation || len(e.revealed) != 2 {
		return false
	}
	if e.revealed[0] != token.Positions[0] || e.revealed[1] != token.Positions[1] {
		return false
	}
	e.revealed = e.revealed[:0]
	e.message = "Pick a card"
	return true
}

func (e *GameEngine) isRevealed(position int) bool {
	for _, p := range e.revealed {
		if p == position {
			return true
		}
	}
	return false
}

// IsComplete reports whether every pair has been matched
func (e *GameEngine) IsComplete() bool {
	return len(e.board) > 0 && e.matchedPairs == e.board.Pairs()
}

// Board returns the board being played
func (e *GameEngine) Board() Board {
	return e.board
}

// Generation returns the identifier of the current game instance
func (e *GameEngine) Generation() uint64 {
	return e.generation
}

// MatchedPairs returns the number of pairs found so far
func (e *GameEngine) MatchedPairs() int {
	return e.matchedPairs
}

// TotalPairs returns the number of pairs on the board
func (e *GameEngine) TotalPairs() int {
	return e.board.Pairs()
}

// Revealed returns a copy of the positions awaiting resolution
func (e *GameEngine) Revealed() []int {
	out := make([]int, len(e.revealed))
	copy(out, e.revealed)
	return out
}

// GetRevealHistory returns the accepted reveals of the current game
func (e *GameEngine) GetRevealHistory() []RevealHistoryEntry {
	return e.history
}

// GetState returns a snapshot of the game. Face-down icons are withheld.
func (e *GameEngine) GetState() *GameState {
	cards := make([]CardView, len(e.board))
	for i, card := range e.board {
		view := CardView{Position: i, Matched: e.matched[i]}
		view.FaceUp = view.Matched || e.isRevealed(i)
		if view.FaceUp {
			view.Icon = card.Icon
		}
		cards[i] = view
	}

	return &GameState{
		GameID:          e.gameID,
		Generation:      e.generation,
		ConfigName:      e.configName,
		Layout:          e.layout,
		TotalCards:      len(e.board),
		TotalPairs:      e.board.Pairs(),
		MatchedPairs:    e.matchedPairs,
		Revealed:        e.Revealed(),
		Cards:           cards,
		MismatchPending: len(e.revealed) == 2,
		Complete:        e.IsComplete(),
		Message:         e.message,
		TotalReveals:    len(e.history),
		StartedAt:       e.startedAt,
	}
}
