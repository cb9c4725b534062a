// Command analyze plays every board preset many times with a perfect-memory
// strategy and prints how many reveals and mismatches a flawless player needs.
// It is a quick way to judge how long a preset takes before shipping it.
package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/pairs-game/game/catalog"
	"github.com/wricardo/pairs-game/game/config"
	"github.com/wricardo/pairs-game/game/engine"
)

// Stats summarises the simulated games of one preset.
type Stats struct {
	ConfigID       string
	Name           string
	Pairs          int
	Games          int
	MinReveals     int
	MaxReveals     int
	MeanReveals    float64
	MeanMismatches float64
}

// player remembers every icon it has seen, like a player who never forgets.
type player struct {
	eng        *engine.GameEngine
	seen       map[int]string
	matched    map[int]bool
	reveals    int
	mismatches int
}

func newPlayer(eng *engine.GameEngine) *player {
	return &player{
		eng:     eng,
		seen:    make(map[int]string),
		matched: make(map[int]bool),
	}
}

// reveal turns a card and clears a mismatch straight away
func (p *player) reveal(position int) (*engine.RevealResult, error) {
	result, err := p.eng.Reveal(position)
	if err != nil {
		return nil, err
	}
	if result.Outcome == engine.OutcomeIgnored {
		return nil, fmt.Errorf("reveal of %d ignored: %s", position, result.Reason)
	}

	p.reveals++
	p.seen[position] = result.Icon
	if result.Outcome == engine.OutcomeMatch {
		for _, pos := range result.Pair {
			p.matched[pos] = true
		}
	}
	if result.Mismatch != nil {
		p.mismatches++
		p.eng.ClearMismatch(*result.Mismatch)
	}
	return result, nil
}

// knownPair returns two unmatched positions already seen to share an icon
func (p *player) knownPair() (int, int, bool) {
	first := make(map[string]int)
	for pos := 0; pos < len(p.eng.Board()); pos++ {
		icon, ok := p.seen[pos]
		if !ok || p.matched[pos] {
			continue
		}
		if other, ok := first[icon]; ok {
			return other, pos, true
		}
		first[icon] = pos
	}
	return 0, 0, false
}

// partner returns the seen, unmatched position holding icon other than pos
func (p *player) partner(icon string, pos int) (int, bool) {
	for other, seenIcon := range p.seen {
		if other != pos && seenIcon == icon && !p.matched[other] {
			return other, true
		}
	}
	return 0, false
}

func (p *player) nextUnseen() (int, bool) {
	for pos := 0; pos < len(p.eng.Board()); pos++ {
		if _, ok := p.seen[pos]; !ok {
			return pos, true
		}
	}
	return 0, false
}

// play finishes the game and returns the reveal and mismatch counts
func (p *player) play() (int, int, error) {
	for !p.eng.IsComplete() {
		if a, b, ok := p.knownPair(); ok {
			if _, err := p.reveal(a); err != nil {
				return 0, 0, err
			}
			if _, err := p.reveal(b); err != nil {
				return 0, 0, err
			}
			continue
		}

		first, ok := p.nextUnseen()
		if !ok {
			return 0, 0, fmt.Errorf("no unseen cards left with %d/%d pairs matched", p.eng.MatchedPairs(), p.eng.TotalPairs())
		}
		result, err := p.reveal(first)
		if err != nil {
			return 0, 0, err
		}

		second, ok := p.partner(result.Icon, first)
		if !ok {
			if second, ok = p.nextUnseen(); !ok {
				return 0, 0, fmt.Errorf("card %d has no partner", first)
			}
		}
		if _, err := p.reveal(second); err != nil {
			return 0, 0, err
		}
	}
	return p.reveals, p.mismatches, nil
}

// analyzePreset simulates games of cfg. Presets without a seed get seeds
// baseSeed, baseSeed+1, ... so runs are reproducible.
func analyzePreset(configID string, cfg *engine.GameConfig, games int, baseSeed int64) (Stats, error) {
	stats := Stats{
		ConfigID:   configID,
		Name:       cfg.Name,
		Pairs:      cfg.PairCount(),
		Games:      games,
		MinReveals: math.MaxInt,
	}

	totalReveals, totalMismatches := 0, 0
	for i := 0; i < games; i++ {
		seed := cfg.Seed
		if seed == 0 {
			seed = baseSeed + int64(i)
		}
		eng, err := engine.NewEngineFromConfig(cfg, catalog.Icons(), engine.NewRNG(seed))
		if err != nil {
			return stats, err
		}
		reveals, mismatches, err := newPlayer(eng).play()
		if err != nil {
			return stats, fmt.Errorf("%s game %d: %w", configID, i, err)
		}
		totalReveals += reveals
		totalMismatches += mismatches
		stats.MinReveals = min(stats.MinReveals, reveals)
		stats.MaxReveals = max(stats.MaxReveals, reveals)
	}

	if games > 0 {
		stats.MeanReveals = float64(totalReveals) / float64(games)
		stats.MeanMismatches = float64(totalMismatches) / float64(games)
	} else {
		stats.MinReveals = 0
	}
	return stats, nil
}

func analyzeAll(manager *config.Manager, games int, baseSeed int64, out io.Writer) error {
	infos, err := manager.ListConfigs()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tPAIRS\tGAMES\tMIN\tMEAN\tMAX\tMISMATCHES")
	for _, info := range infos {
		cfg, err := manager.LoadConfig(info.ConfigID)
		if err != nil {
			return err
		}
		stats, err := analyzePreset(info.ConfigID, cfg, games, baseSeed)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.1f\t%d\t%.1f\n",
			stats.ConfigID, stats.Pairs, stats.Games,
			stats.MinReveals, stats.MeanReveals, stats.MaxReveals, stats.MeanMismatches)
	}
	return w.Flush()
}

func main() {
	cmd := &cli.Command{
		Name:  "analyze",
		Usage: "Simulate perfect-memory play on every board preset",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Usage: "Directory of preset overrides", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.IntFlag{Name: "games", Value: 200, Usage: "Games per preset"},
			&cli.IntFlag{Name: "seed", Value: 1, Usage: "Seed of the first game"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			manager, err := config.NewManager(cmd.String("config-dir"))
			if err != nil {
				return err
			}
			return analyzeAll(manager, int(cmd.Int("games")), int64(cmd.Int("seed")), os.Stdout)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
