package service

import (
	"github.com/rs/zerolog/log"

	"github.com/wricardo/pairs-game/game/engine"
)

// Notifier receives game changes as they happen. Calls are made outside the
// service lock and must not block for long.
type Notifier interface {
	StateChanged(sessionID string, state *engine.GameState)
	Celebrate(sessionID string, celebration engine.Celebration)
}

// MultiNotifier fans every notification out to each member in order
type MultiNotifier []Notifier

// StateChanged implements Notifier
func (m MultiNotifier) StateChanged(sessionID string, state *engine.GameState) {
	for _, n := range m {
		n.StateChanged(sessionID, state)
	}
}

// Celebrate implements Notifier
func (m MultiNotifier) Celebrate(sessionID string, celebration engine.Celebration) {
	for _, n := range m {
		n.Celebrate(sessionID, celebration)
	}
}

// LogNotifier writes celebrations as structured log lines
type LogNotifier struct{}

// StateChanged implements Notifier
func (LogNotifier) StateChanged(sessionID string, state *engine.GameState) {
	log.Debug().
		Str("session", sessionID).
		Uint64("generation", state.Generation).
		Int("matched", state.MatchedPairs).
		Int("total", state.TotalPairs).
		Ints("revealed", state.Revealed).
		Msg("state changed")
}

// Celebrate implements Notifier
func (LogNotifier) Celebrate(sessionID string, celebration engine.Celebration) {
	log.Info().
		Str("session", sessionID).
		Str("kind", string(celebration.Kind)).
		Int("matched", celebration.MatchedPairs).
		Int("total", celebration.TotalPairs).
		Msg("celebration")
}

type nopNotifier struct{}

func (nopNotifier) StateChanged(string, *engine.GameState) {}
func (nopNotifier) Celebrate(string, engine.Celebration) {}
