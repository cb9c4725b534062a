package engine

import (
	"errors"
	"testing"
)

// newScenarioEngine plays the fixed board a,b,a,b.
func newScenarioEngine(t *testing.T) *GameEngine {
	t.Helper()
	board, err := BoardFromIcons([]string{"a", "b", "a", "b"})
	if err != nil {
		t.Fatalf("Failed to build board: %v", err)
	}
	return NewEngine(board, Layout{Rows: 2, Cols: 2})
}

func mustReveal(t *testing.T, e *GameEngine, position int) *RevealResult {
	t.Helper()
	result, err := e.Reveal(position)
	if err != nil {
		t.Fatalf("Reveal(%d) failed: %v", position, err)
	}
	return result
}

func assertRevealed(t *testing.T, e *GameEngine, expected ...int) {
	t.Helper()
	got := e.Revealed()
	if len(got) != len(expected) {
		t.Fatalf("Expected revealed %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("Expected revealed %v, got %v", expected, got)
		}
	}
}

func TestNewEngine(t *testing.T) {
	e := newScenarioEngine(t)

	if e.TotalPairs() != 2 {
		t.Errorf("Expected 2 pairs, got %d", e.TotalPairs())
	}
	if e.MatchedPairs() != 0 {
		t.Errorf("Expected 0 matched pairs, got %d", e.MatchedPairs())
	}
	if e.IsComplete() {
		t.Error("New game should not be complete")
	}
	if e.Generation() != 1 {
		t.Errorf("Expected generation 1, got %d", e.Generation())
	}
	assertRevealed(t, e)
}

func TestNewEngineFromConfig(t *testing.T) {
	config := createValidConfig()
	e, err := NewEngineFromConfig(config, testIcons(10), identityRNG{})
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	if len(e.Board()) != 16 {
		t.Errorf("Expected 16 cards, got %d", len(e.Board()))
	}
	if e.GetState().ConfigName != config.Name {
		t.Errorf("Expected config name %q, got %q", config.Name, e.GetState().ConfigName)
	}

	if _, err := NewEngineFromConfig(config, testIcons(3), identityRNG{}); !errors.Is(err, ErrCatalogExhausted) {
		t.Errorf("Expected ErrCatalogExhausted, got %v", err)
	}
}

func TestReveal_MatchScenario(t *testing.T) {
	e := newScenarioEngine(t)

	r := mustReveal(t, e, 0)
	if r.Outcome != OutcomeRevealed || r.Icon != "a" {
		t.Errorf("Expected revealed a, got %+v", r)
	}
	assertRevealed(t, e, 0)

	r = mustReveal(t, e, 2)
	if r.Outcome != OutcomeMatch {
		t.Fatalf("Expected match, got %+v", r)
	}
	if e.MatchedPairs() != 1 {
		t.Errorf("Expected 1 matched pair, got %d", e.MatchedPairs())
	}
	assertRevealed(t, e)
	if len(r.Celebrations) != 1 || r.Celebrations[0].Kind != CelebrateMatch {
		t.Errorf("Expected one match celebration, got %+v", r.Celebrations)
	}
	if r.Mismatch != nil {
		t.Error("Match should not carry a mismatch token")
	}

	mustReveal(t, e, 1)
	assertRevealed(t, e, 1)

	r = mustReveal(t, e, 3)
	if r.Outcome != OutcomeMatch {
		t.Fatalf("Expected match, got %+v", r)
	}
	if e.MatchedPairs() != 2 || !e.IsComplete() {
		t.Errorf("Expected terminal state, matched=%d complete=%v", e.MatchedPairs(), e.IsComplete())
	}
	if len(r.Celebrations) != 2 {
		t.Fatalf("Expected match and complete celebrations, got %+v", r.Celebrations)
	}
	if r.Celebrations[0].Kind != CelebrateMatch || r.Celebrations[1].Kind != CelebrateComplete {
		t.Errorf("Unexpected celebration order: %+v", r.Celebrations)
	}
	if r.Celebrations[1].MatchedPairs != 2 || r.Celebrations[1].TotalPairs != 2 {
		t.Errorf("Unexpected completion payload: %+v", r.Celebrations[1])
	}

	state := e.GetState()
	if !state.Complete {
		t.Error("State should report completion")
	}
	for _, card := range state.Cards {
		if !card.Matched || !card.FaceUp || card.Icon == "" {
			t.Errorf("Expected every card matched and visible, got %+v", card)
		}
	}
}

func TestReveal_MismatchScenario(t *testing.T) {
	e := newScenarioEngine(t)

	mustReveal(t, e, 0)
	r := mustReveal(t, e, 1)
	if r.Outcome != OutcomeMismatch {
		t.Fatalf("Expected mismatch, got %+v", r)
	}
	if r.Mismatch == nil {
		t.Fatal("Expected a mismatch token")
	}
	if r.Mismatch.Generation != e.Generation() || r.Mismatch.Positions != [2]int{0, 1} {
		t.Errorf("Unexpected token: %+v", r.Mismatch)
	}
	if len(r.Celebrations) != 0 {
		t.Errorf("Mismatch should not celebrate, got %+v", r.Celebrations)
	}

	// Both stay face-up until the delay elapses
	assertRevealed(t, e, 0, 1)
	state := e.GetState()
	if !state.MismatchPending || !state.Cards[0].FaceUp || !state.Cards[1].FaceUp {
		t.Errorf("Expected pending mismatch with both cards visible: %+v", state)
	}

	if !e.ClearMismatch(*r.Mismatch) {
		t.Fatal("Expected ClearMismatch to apply")
	}
	assertRevealed(t, e)
	if e.MatchedPairs() != 0 {
		t.Errorf("Expected matched count unchanged, got %d", e.MatchedPairs())
	}
	state = e.GetState()
	if state.Cards[0].FaceUp || state.Cards[1].FaceUp || state.Cards[0].Icon != "" {
		t.Errorf("Expected both cards face-down, got %+v %+v", state.Cards[0], state.Cards[1])
	}

	// A second clear with the same token is a no-op
	if e.ClearMismatch(*r.Mismatch) {
		t.Error("Expected repeated ClearMismatch to be ignored")
	}
}

func TestReveal_IgnoredRequests(t *testing.T) {
	t.Run("same position twice", func(t *testing.T) {
		e := newScenarioEngine(t)
		mustReveal(t, e, 0)
		before := e.GetState()

		r := mustReveal(t, e, 0)
		if r.Outcome != OutcomeIgnored || r.Reason != ReasonAlreadyRevealed {
			t.Errorf("Expected ignored/already_revealed, got %+v", r)
		}
		assertRevealed(t, e, 0)
		if e.GetState().TotalReveals != before.TotalReveals {
			t.Error("Ignored reveal should not be recorded")
		}
	})

	t.Run("matched position", func(t *testing.T) {
		e := newScenarioEngine(t)
		mustReveal(t, e, 0)
		mustReveal(t, e, 2)

		r := mustReveal(t, e, 2)
		if r.Outcome != OutcomeIgnored || r.Reason != ReasonAlreadyMatched {
			t.Errorf("Expected ignored/already_matched, got %+v", r)
		}
		assertRevealed(t, e)
		if e.MatchedPairs() != 1 {
			t.Errorf("Expected matched count 1, got %d", e.MatchedPairs())
		}
	})

	t.Run("third card while mismatch pending", func(t *testing.T) {
		e := newScenarioEngine(t)
		mustReveal(t, e, 0)
		mustReveal(t, e, 1)

		r := mustReveal(t, e, 2)
		if r.Outcome != OutcomeIgnored || r.Reason != ReasonPendingResolution {
			t.Errorf("Expected ignored/pending_resolution, got %+v", r)
		}
		assertRevealed(t, e, 0, 1)

		r = mustReveal(t, e, 1)
		if r.Outcome != OutcomeIgnored || r.Reason != ReasonAlreadyRevealed {
			t.Errorf("Expected ignored/already_revealed, got %+v", r)
		}
	})
}

func TestReveal_InvalidPosition(t *testing.T) {
	e := newScenarioEngine(t)

	for _, position := range []int{-1, 4, 100} {
		if _, err := e.Reveal(position); !errors.Is(err, ErrInvalidPosition) {
			t.Errorf("Reveal(%d): expected ErrInvalidPosition, got %v", position, err)
		}
	}
	assertRevealed(t, e)
}

func TestNewGame_StaleMismatchIsNoop(t *testing.T) {
	e := newScenarioEngine(t)
	mustReveal(t, e, 0)
	stale := mustReveal(t, e, 1).Mismatch
	oldGameID := e.GetState().GameID

	board, _ := BoardFromIcons([]string{"x", "y", "y", "x"})
	e.NewGame(board, Layout{})
	if e.GetState().GameID == oldGameID {
		t.Error("Expected a fresh game id")
	}

	// Recreate the same revealed positions on the new board
	mustReveal(t, e, 0)
	mustReveal(t, e, 1)
	assertRevealed(t, e, 0, 1)

	if e.ClearMismatch(*stale) {
		t.Fatal("Stale token must not clear the new game")
	}
	assertRevealed(t, e, 0, 1)
	if e.MatchedPairs() != 0 {
		t.Errorf("Expected matched count 0, got %d", e.MatchedPairs())
	}
}

func TestReset(t *testing.T) {
	e := newScenarioEngine(t)
	mustReveal(t, e, 0)
	mustReveal(t, e, 2)
	mustReveal(t, e, 1)
	gen := e.Generation()
	boardBefore := e.Board()

	e.Reset()

	if e.Generation() != gen+1 {
		t.Errorf("Expected generation %d, got %d", gen+1, e.Generation())
	}
	if e.MatchedPairs() != 0 {
		t.Errorf("Expected matched count reset, got %d", e.MatchedPairs())
	}
	assertRevealed(t, e)
	if len(e.GetRevealHistory()) != 0 {
		t.Error("Expected history cleared")
	}
	for i := range boardBefore {
		if e.Board()[i] != boardBefore[i] {
			t.Fatal("Reset must keep the board")
		}
	}
}

func TestGetState_HidesFaceDownIcons(t *testing.T) {
	e := newScenarioEngine(t)
	mustReveal(t, e, 1)

	state := e.GetState()
	if state.TotalCards != 4 || state.TotalPairs != 2 {
		t.Errorf("Unexpected totals: %+v", state)
	}
	if state.Layout != (Layout{Rows: 2, Cols: 2}) {
		t.Errorf("Unexpected layout: %+v", state.Layout)
	}
	for _, card := range state.Cards {
		if card.Position == 1 {
			if card.Icon != "b" || !card.FaceUp {
				t.Errorf("Expected card 1 visible as b, got %+v", card)
			}
			continue
		}
		if card.Icon != "" || card.FaceUp {
			t.Errorf("Expected card %d hidden, got %+v", card.Position, card)
		}
	}
}

func TestRevealHistory(t *testing.T) {
	e := newScenarioEngine(t)
	mustReveal(t, e, 0)
	mustReveal(t, e, 0) // ignored
	mustReveal(t, e, 2)

	history := e.GetRevealHistory()
	if len(history) != 2 {
		t.Fatalf("Expected 2 history entries, got %d", len(history))
	}
	if history[0].Number != 1 || history[0].Outcome != OutcomeRevealed {
		t.Errorf("Unexpected first entry: %+v", history[0])
	}
	if history[1].Number != 2 || history[1].Outcome != OutcomeMatch || history[1].MatchedPairs != 1 {
		t.Errorf("Unexpected second entry: %+v", history[1])
	}
}
