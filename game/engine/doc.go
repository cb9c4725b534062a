// Package engine provides the core game logic for the pairs memory game.
//
// The engine package implements:
//   - Board generation from an icon catalog (Fisher-Yates, twice)
//   - The match state machine over face-down, revealed and matched cards
//   - Mismatch tokens tagged with a game generation
//   - Preset validation and loading
//
// Core Types:
//
// GenerateBoard builds a Board: every chosen icon appears exactly twice in a
// random order. GameEngine plays one board at a time; GameState is the
// snapshot handed to renderers, with face-down icons withheld.
//
// Usage:
//
//	board, err := engine.GenerateBoard(catalog.Icons(), 8, engine.NewRNG(0))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	game := engine.NewEngine(board, engine.Layout{Rows: 4, Cols: 4})
//	game.Reveal(0)
//	second, _ := game.Reveal(5)
//	if second.Outcome == engine.OutcomeMismatch {
//		time.AfterFunc(engine.DefaultMismatchDelay, func() {
//			game.ClearMismatch(*second.Mismatch)
//		})
//	}
//
// Game Rules:
//
// At most two cards are face-up awaiting comparison. Equal icons are matched
// and stay face-up; different icons flip back once the mismatch delay has
// passed. While a mismatch is pending no further card can be revealed. The
// game is complete when every pair is matched.
//
// The engine is not safe for concurrent use. The mismatch clear usually runs
// from a timer, so callers must route it through the same lock as Reveal.
// Starting a new game bumps the generation, which turns any mismatch token
// from the previous game into a no-op.
package engine
