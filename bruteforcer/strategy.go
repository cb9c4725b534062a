package main

import (
	"github.com/wricardo/pairs-game/game/engine"
	"github.com/wricardo/pairs-game/game/service"
)

// MemoryStrategy picks cards like a player who remembers every icon it has
// seen. It never needs more than one mismatch per pair.
type MemoryStrategy struct {
	seen    map[int]string // position -> icon
	matched map[int]bool
}

func NewMemoryStrategy() *MemoryStrategy {
	s := &MemoryStrategy{}
	s.Reset()
	return s
}

// Reset forgets everything, for a fresh board
func (s *MemoryStrategy) Reset() {
	s.seen = make(map[int]string)
	s.matched = make(map[int]bool)
}

// Observe records the icon a reveal uncovered
func (s *MemoryStrategy) Observe(result *service.RevealResult) {
	if result.Outcome == engine.OutcomeIgnored || result.Icon == "" {
		return
	}
	s.seen[result.Position] = result.Icon
	if result.Outcome == engine.OutcomeMatch {
		for _, pos := range result.Pair {
			s.matched[pos] = true
		}
	}
}

// Sync picks up whatever the state shows: matched cards and face-up icons.
// A resumed session starts from here.
func (s *MemoryStrategy) Sync(state *engine.GameState) {
	for _, card := range state.Cards {
		if card.Matched {
			s.matched[card.Position] = true
		}
		if card.Icon != "" {
			s.seen[card.Position] = card.Icon
		}
	}
}

// NextMove returns the position to reveal, or -1 while a mismatch is still
// showing or nothing is left to turn.
func (s *MemoryStrategy) NextMove(state *engine.GameState) int {
	switch len(state.Revealed) {
	case 0:
		if a, ok := s.knownPair(state.TotalCards); ok {
			return a
		}
	case 1:
		first := state.Revealed[0]
		if icon, ok := s.seen[first]; ok {
			if partner, ok := s.partner(icon, first); ok {
				return partner
			}
		}
	default:
		return -1
	}

	for pos := 0; pos < state.TotalCards; pos++ {
		if _, ok := s.seen[pos]; !ok && !s.revealed(state, pos) {
			return pos
		}
	}
	return -1
}

func (s *MemoryStrategy) revealed(state *engine.GameState, pos int) bool {
	for _, p := range state.Revealed {
		if p == pos {
			return true
		}
	}
	return false
}

// knownPair returns the first card of a pair whose two positions are known
func (s *MemoryStrategy) knownPair(total int) (int, bool) {
	first := make(map[string]bool)
	for pos := 0; pos < total; pos++ {
		icon, ok := s.seen[pos]
		if !ok || s.matched[pos] {
			continue
		}
		if first[icon] {
			p, _ := s.partner(icon, pos)
			return p, true
		}
		first[icon] = true
	}
	return 0, false
}

func (s *MemoryStrategy) partner(icon string, pos int) (int, bool) {
	for other, seenIcon := range s.seen {
		if other != pos && seenIcon == icon && !s.matched[other] {
			return other, true
		}
	}
	return 0, false
}
