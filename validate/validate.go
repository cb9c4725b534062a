// Command validate checks board preset JSON files in a directory. It checks:
//   - JSON structure and required fields
//   - An even card total the icon catalog can fill
//   - Layout hints that can hold every card
//   - A preset id that the config manager can address
//
// It also reports informational notes such as unused layout cells and
// presets that override the mismatch delay.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/pairs-game/game/catalog"
	"github.com/wricardo/pairs-game/game/config"
	"github.com/wricardo/pairs-game/game/engine"
)

// maxMismatchDelayMS is the longest delay that still feels responsive
const maxMismatchDelayMS = 5000

// ValidationResult captures the outcome of validating a single file.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
	Notes  []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) note(format string, args ...interface{}) {
	r.Notes = append(r.Notes, fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single preset file.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(filePath),
		Valid: true,
	}

	id := config.NormalizeID(result.File)
	if id != strings.TrimSuffix(result.File, ".json") {
		result.note("Preset id will be %q; consider renaming the file", id)
	}

	cfg, err := engine.LoadGameConfig(filePath)
	if err != nil {
		result.fail("%v", err)
		return result
	}

	if cfg.Description == "" {
		result.note("Description is empty")
	}

	switch layout := cfg.Layout(); {
	case layout.Rows == 0 && layout.Cols == 0:
		result.note("No layout hint; clients will auto-fit %d cards", cfg.TotalCards)
	case layout.Rows == 0 || layout.Cols == 0:
		result.note("Partial layout %dx%d; the other side is auto-fit", layout.Rows, layout.Cols)
	case layout.Rows*layout.Cols > cfg.TotalCards:
		result.note("Layout %dx%d leaves %d empty cells", layout.Rows, layout.Cols, layout.Rows*layout.Cols-cfg.TotalCards)
	}

	if cfg.MismatchDelayMS > maxMismatchDelayMS {
		result.fail("mismatch_delay_ms %d is longer than %dms", cfg.MismatchDelayMS, maxMismatchDelayMS)
	} else if cfg.MismatchDelayMS > 0 {
		result.note("Mismatch delay overridden to %dms", cfg.MismatchDelayMS)
	}

	if cfg.Seed != 0 {
		result.note("Seeded with %d: every game deals the same board", cfg.Seed)
	}

	result.note("✓ %d cards, %d of %d catalog icons", cfg.TotalCards, cfg.PairCount(), catalog.Size())
	return result
}

// validateDir validates every *.json file in dir, writes a report to out and
// reports whether all of them are valid.
func validateDir(dir string, out io.Writer) (bool, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return false, fmt.Errorf("finding preset files: %w", err)
	}
	if len(files) == 0 {
		return false, fmt.Errorf("no preset files in %s", dir)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Fprintf(out, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(out, "✅ VALID")
		} else {
			fmt.Fprintln(out, "❌ INVALID")
			allValid = false
			for _, e := range result.Errors {
				fmt.Fprintln(out, "  ❌ "+e)
			}
		}
		for _, n := range result.Notes {
			fmt.Fprintln(out, "  "+n)
		}
	}

	fmt.Fprintf(out, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(out, "✅ All presets are valid!")
	} else {
		fmt.Fprintln(out, "❌ Some presets have errors")
	}
	return allValid, nil
}

func main() {
	cmd := &cli.Command{
		Name:      "validate",
		Usage:     "Validate board preset files",
		ArgsUsage: "[dir]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory of preset files", Sources: cli.EnvVars("CONFIG_DIR")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := cmd.String("config-dir")
			if cmd.Args().Present() {
				dir = cmd.Args().First()
			}
			ok, err := validateDir(dir, os.Stdout)
			if err != nil {
				return err
			}
			if !ok {
				return cli.Exit("", 1)
			}
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
