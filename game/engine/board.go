package engine

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

var (
	ErrCatalogExhausted = errors.New("insufficient icons in catalog")
	ErrInvalidPairCount = errors.New("pair count must be positive")
	ErrOddCardCount     = errors.New("total cards must be an even positive number")
	ErrInvalidPosition  = errors.New("invalid card position")
	ErrInvalidLayout    = errors.New("invalid layout")
)

// RNG is the randomness source used for shuffling. Intn returns a value in [0, n).
type RNG interface {
	Intn(n int) int
}

type stdRNG struct {
	r *rand.Rand
}

func (s stdRNG) Intn(n int) int {
	if s.r == nil {
		return rand.IntN(n)
	}
	return s.r.IntN(n)
}

// NewRNG returns the default randomness source. A zero seed draws from the
// auto-seeded global generator; any other seed gives a reproducible sequence.
func NewRNG(seed int64) RNG {
	if seed == 0 {
		return stdRNG{}
	}
	return stdRNG{r: rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))}
}

// Shuffle permutes items in place with Fisher-Yates.
func Shuffle[T any](items []T, rng RNG) {
	for i := len(items) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

// GenerateBoard picks pairCount distinct icons, duplicates them and shuffles
// the result. icons is not modified.
func GenerateBoard(icons []string, pairCount int, rng RNG) (Board, error) {
	if pairCount <= 0 {
		return nil, ErrInvalidPairCount
	}
	if pairCount > len(icons) {
		return nil, fmt.Errorf("%w: need %d, catalog has %d", ErrCatalogExhausted, pairCount, len(icons))
	}

	pool := make([]string, len(icons))
	copy(pool, icons)
	Shuffle(pool, rng)
	chosen := pool[:pairCount]

	doubled := make([]string, 0, 2*pairCount)
	doubled = append(doubled, chosen...)
	doubled = append(doubled, chosen...)
	Shuffle(doubled, rng)

	board := make(Board, len(doubled))
	for i, icon := range doubled {
		board[i] = Card{Position: i, Icon: icon}
	}
	return board, nil
}

// BoardFromIcons builds a board in the given order, for fixed layouts.
func BoardFromIcons(icons []string) (Board, error) {
	if len(icons) < MinTotalCards || len(icons)%2 != 0 {
		return nil, ErrOddCardCount
	}
	counts := make(map[string]int, len(icons)/2)
	for _, icon := range icons {
		counts[icon]++
	}
	for icon, n := range counts {
		if n != 2 {
			return nil, fmt.Errorf("icon %q appears %d times, want 2", icon, n)
		}
	}

	board := make(Board, len(icons))
	for i, icon := range icons {
		board[i] = Card{Position: i, Icon: icon}
	}
	return board, nil
}

// PairsForTotal converts a card total into a pair count.
func PairsForTotal(totalCards int) (int, error) {
	if totalCards < MinTotalCards || totalCards%2 != 0 {
		return 0, fmt.Errorf("%w: got %d", ErrOddCardCount, totalCards)
	}
	return totalCards / 2, nil
}
