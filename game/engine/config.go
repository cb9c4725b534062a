package engine

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/wricardo/pairs-game/game/catalog"
)

// ValidateGameConfig validates a preset for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}

	if config.TotalCards < MinTotalCards {
		return fmt.Errorf("config validation: total_cards must be an even number >= %d, got %d: %w", MinTotalCards, config.TotalCards, ErrInvalidPairCount)
	}
	if config.TotalCards%2 != 0 {
		return fmt.Errorf("config validation: total_cards must be an even number, got %d: %w", config.TotalCards, ErrOddCardCount)
	}
	if config.PairCount() > catalog.Size() {
		return fmt.Errorf("config validation: total_cards %d needs %d icons but the catalog has %d: %w",
			config.TotalCards, config.PairCount(), catalog.Size(), ErrCatalogExhausted)
	}

	if err := ValidateLayout(config.Layout(), config.TotalCards); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	if config.MismatchDelayMS < 0 {
		return fmt.Errorf("config validation: mismatch_delay_ms must not be negative, got %d", config.MismatchDelayMS)
	}

	return nil
}

// ValidateLayout checks a rows/cols hint against the card total. Zero on
// either side means the renderer auto-fits that dimension.
func ValidateLayout(layout Layout, totalCards int) error {
	if layout.Rows < 0 || layout.Cols < 0 {
		return fmt.Errorf("%w: rows and cols must not be negative, got %dx%d", ErrInvalidLayout, layout.Rows, layout.Cols)
	}
	if layout.Rows > MaxLayoutSide || layout.Cols > MaxLayoutSide {
		return fmt.Errorf("%w: rows and cols must be at most %d, got %dx%d", ErrInvalidLayout, MaxLayoutSide, layout.Rows, layout.Cols)
	}
	if layout.Rows > 0 && layout.Cols > 0 && layout.Rows*layout.Cols < totalCards {
		return fmt.Errorf("%w: %dx%d cannot hold %d cards", ErrInvalidLayout, layout.Rows, layout.Cols, totalCards)
	}
	return nil
}

// LoadGameConfig loads a preset from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseGameConfig(data)
}

// ParseGameConfig decodes and validates a JSON preset
func ParseGameConfig(data []byte) (*GameConfig, error) {
	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
