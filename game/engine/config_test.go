package engine

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func createValidConfig() *GameConfig {
	return &GameConfig{
		Name:        "Test Config",
		Description: "A valid test configuration",
		TotalCards:  16,
		Rows:        4,
		Cols:        4,
	}
}

func TestValidateGameConfig_ValidConfig(t *testing.T) {
	config := createValidConfig()
	if err := ValidateGameConfig(config); err != nil {
		t.Errorf("Expected valid config to pass validation, got: %v", err)
	}
}

func TestValidateGameConfig_MissingName(t *testing.T) {
	config := createValidConfig()
	config.Name = ""
	err := ValidateGameConfig(config)
	if err == nil {
		t.Fatal("Expected error for missing name")
	}
	if !strings.Contains(err.Error(), "name is required") {
		t.Errorf("Expected name validation error, got: %v", err)
	}
}

func TestValidateGameConfig_Sizes(t *testing.T) {
	tests := []struct {
		name       string
		totalCards int
		rows, cols int
		wantErr    string
	}{
		{"odd total", 15, 0, 0, "even number"},
		{"zero total", 0, 0, 0, "even number"},
		{"too many for catalog", 200, 0, 0, "catalog"},
		{"layout too small", 16, 3, 3, "cannot hold"},
		{"negative rows", 16, -1, 4, "must not be negative"},
		{"layout side too large", 16, 13, 1, "at most"},
		{"auto-fit rows", 16, 0, 4, ""},
		{"auto-fit both", 20, 0, 0, ""},
		{"roomy layout", 12, 4, 4, ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			config := createValidConfig()
			config.TotalCards = test.totalCards
			config.Rows, config.Cols = test.rows, test.cols

			err := ValidateGameConfig(config)
			if test.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error containing %q", test.wantErr)
			}
			if !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", test.wantErr, err)
			}
		})
	}
}

func TestValidateGameConfig_CatalogExhaustedIsClassified(t *testing.T) {
	config := createValidConfig()
	config.TotalCards = 1000
	config.Rows, config.Cols = 0, 0

	err := ValidateGameConfig(config)
	if !errors.Is(err, ErrCatalogExhausted) {
		t.Errorf("Expected ErrCatalogExhausted, got: %v", err)
	}
}

func TestValidateGameConfig_NegativeDelay(t *testing.T) {
	config := createValidConfig()
	config.MismatchDelayMS = -5
	if err := ValidateGameConfig(config); err == nil {
		t.Error("Expected error for negative mismatch delay")
	}
}

func TestGameConfig_MismatchDelay(t *testing.T) {
	config := createValidConfig()
	if got := config.MismatchDelay(DefaultMismatchDelay); got != 800*time.Millisecond {
		t.Errorf("Expected default 800ms, got %v", got)
	}

	config.MismatchDelayMS = 250
	if got := config.MismatchDelay(DefaultMismatchDelay); got != 250*time.Millisecond {
		t.Errorf("Expected 250ms, got %v", got)
	}

	var nilConfig *GameConfig
	if got := nilConfig.MismatchDelay(time.Second); got != time.Second {
		t.Errorf("Expected fallback for nil config, got %v", got)
	}
}

func TestLoadGameConfig(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "valid.json")
	if err := os.WriteFile(valid, []byte(`{"name":"Quick","description":"d","total_cards":12,"rows":4,"cols":3,"mismatch_delay_ms":500}`), 0644); err != nil {
		t.Fatal(err)
	}
	invalid := filepath.Join(dir, "invalid.json")
	if err := os.WriteFile(invalid, []byte(`{"name":"Odd","total_cards":7}`), 0644); err != nil {
		t.Fatal(err)
	}
	broken := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(broken, []byte(`{not json`), 0644); err != nil {
		t.Fatal(err)
	}

	t.Run("valid file", func(t *testing.T) {
		config, err := LoadGameConfig(valid)
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}
		if config.Name != "Quick" || config.TotalCards != 12 || config.MismatchDelayMS != 500 {
			t.Errorf("Unexpected config: %+v", config)
		}
		if config.Layout() != (Layout{Rows: 4, Cols: 3}) {
			t.Errorf("Unexpected layout: %+v", config.Layout())
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		if _, err := LoadGameConfig(invalid); err == nil {
			t.Error("Expected validation error")
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		if _, err := LoadGameConfig(broken); err == nil {
			t.Error("Expected parse error")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadGameConfig(filepath.Join(dir, "nope.json")); !os.IsNotExist(err) {
			t.Errorf("Expected not-exist error, got: %v", err)
		}
	})
}

func TestValidateGameConfig_SentinelErrors(t *testing.T) {
	tests := []struct {
		name       string
		totalCards int
		rows, cols int
		want       error
	}{
		{"zero total", 0, 0, 0, ErrInvalidPairCount},
		{"negative total", -4, 0, 0, ErrInvalidPairCount},
		{"odd total", 7, 0, 0, ErrOddCardCount},
		{"catalog exhausted", 1000, 0, 0, ErrCatalogExhausted},
		{"layout too small", 16, 2, 2, ErrInvalidLayout},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			config := createValidConfig()
			config.TotalCards = test.totalCards
			config.Rows, config.Cols = test.rows, test.cols
			if err := ValidateGameConfig(config); !errors.Is(err, test.want) {
				t.Errorf("Expected %v, got %v", test.want, err)
			}
		})
	}
}
