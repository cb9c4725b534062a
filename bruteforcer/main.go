// Command bruteforcer plays pairs games against a running server through the
// REST API with a perfect-memory strategy. It is handy for smoke testing a
// deployment and for watching a game finish in the browser.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/pairs-game/game/engine"
	"github.com/wricardo/pairs-game/game/service"
)

const sessionFile = ".session"

// Client talks to the game server's REST API for one session
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// do sends body as JSON and decodes a 2xx response into out
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s failed: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("%s %s failed: %s", method, path, resp.Status)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func (c *Client) sessionPath(suffix string) string {
	return "/api/sessions/" + c.sessionID + suffix
}

func (c *Client) CreateSession(ctx context.Context, configID string) (*engine.GameState, error) {
	var info service.SessionInfo
	if err := c.do(ctx, http.MethodPost, "/api/sessions", service.NewGameRequest{ConfigID: configID}, &info); err != nil {
		return nil, err
	}
	c.sessionID = info.ID
	return info.GameState, nil
}

func (c *Client) GetState(ctx context.Context) (*engine.GameState, error) {
	var state engine.GameState
	if err := c.do(ctx, http.MethodGet, c.sessionPath("/state"), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

type stateResponse struct {
	Message string            `json:"message"`
	State   *engine.GameState `json:"state"`
}

// NewGame deals a fresh board with the session's preset
func (c *Client) NewGame(ctx context.Context) (*engine.GameState, error) {
	var resp stateResponse
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/new-game"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.State, nil
}

// Reset restarts the current board
func (c *Client) Reset(ctx context.Context) (*engine.GameState, error) {
	var resp stateResponse
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/reset"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.State, nil
}

func (c *Client) Reveal(ctx context.Context, position int) (*service.RevealResult, error) {
	var result service.RevealResult
	body := map[string]int{"position": position}
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/reveal"), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// player drives one session with a strategy
type player struct {
	client       *Client
	strategy     *MemoryStrategy
	maxReveals   int
	pollInterval time.Duration
	delay        time.Duration
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// play reveals cards until state is complete and returns the number of
// accepted reveals
func (p *player) play(ctx context.Context, state *engine.GameState) (int, error) {
	p.strategy.Sync(state)
	reveals := 0

	for !state.Complete {
		if reveals >= p.maxReveals {
			return reveals, fmt.Errorf("gave up after %d reveals with %d/%d pairs", reveals, state.MatchedPairs, state.TotalPairs)
		}

		pos := p.strategy.NextMove(state)
		if pos < 0 {
			if !state.MismatchPending {
				return reveals, fmt.Errorf("no card left to reveal with %d/%d pairs", state.MatchedPairs, state.TotalPairs)
			}
			if err := p.wait(ctx, p.pollInterval, &state); err != nil {
				return reveals, err
			}
			continue
		}

		result, err := p.client.Reveal(ctx, pos)
		if err != nil {
			return reveals, err
		}
		p.strategy.Observe(result)
		state = result.GameState

		switch result.Outcome {
		case engine.OutcomeIgnored:
			log.Debug().Int("position", pos).Str("reason", result.Reason).Msg("reveal ignored")
			if err := p.wait(ctx, p.pollInterval, &state); err != nil {
				return reveals, err
			}
			continue
		case engine.OutcomeMismatch:
			reveals++
			log.Debug().Ints("pair", result.Pair).Int64("clears_in_ms", result.ClearsInMS).Msg("mismatch")
			if err := p.wait(ctx, time.Duration(result.ClearsInMS)*time.Millisecond, &state); err != nil {
				return reveals, err
			}
			continue
		case engine.OutcomeMatch:
			reveals++
			log.Info().Int("matched", state.MatchedPairs).Int("total", state.TotalPairs).Msg("✅ match")
		default:
			reveals++
		}

		if p.delay > 0 {
			if err := sleep(ctx, p.delay); err != nil {
				return reveals, err
			}
		}
	}
	return reveals, nil
}

// wait sleeps for d and then refreshes state from the server
func (p *player) wait(ctx context.Context, d time.Duration, state **engine.GameState) error {
	if err := sleep(ctx, d); err != nil {
		return err
	}
	fresh, err := p.client.GetState(ctx)
	if err != nil {
		return err
	}
	*state = fresh
	return nil
}

// openSession resumes sessionID when it is still alive, otherwise creates a
// new session with configID
func openSession(ctx context.Context, client *Client, sessionID, configID string) (*engine.GameState, error) {
	if sessionID != "" {
		client.sessionID = sessionID
		state, err := client.GetState(ctx)
		if err == nil {
			log.Info().Str("session", sessionID).Msg("🔄 resumed session")
			return state, nil
		}
		log.Warn().Err(err).Str("session", sessionID).Msg("failed to resume session, creating a new one")
	}

	state, err := client.CreateSession(ctx, configID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	log.Info().Str("session", client.sessionID).Int("cards", state.TotalCards).Msg("✨ session created")
	return state, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	client := NewClient(cmd.String("url"))
	log.Info().Str("url", client.baseURL).Msg("connecting to game server")

	sessionID := cmd.String("continue")
	if sessionID == "" {
		if data, err := os.ReadFile(sessionFile); err == nil {
			sessionID = string(bytes.TrimSpace(data))
		}
	}

	state, err := openSession(ctx, client, sessionID, cmd.String("config"))
	if err != nil {
		return err
	}
	if err := os.WriteFile(sessionFile, []byte(client.sessionID), 0644); err != nil {
		log.Warn().Err(err).Msg("failed to save session id")
	}

	if cmd.Bool("reset") {
		if state, err = client.Reset(ctx); err != nil {
			return fmt.Errorf("failed to reset game: %w", err)
		}
	}

	p := &player{
		client:       client,
		strategy:     NewMemoryStrategy(),
		maxReveals:   int(cmd.Int("max-reveals")),
		pollInterval: 100 * time.Millisecond,
		delay:        cmd.Duration("delay"),
	}

	games := int(cmd.Int("games"))
	for game := 1; game <= games; game++ {
		if game > 1 {
			if state, err = client.NewGame(ctx); err != nil {
				return fmt.Errorf("failed to start game %d: %w", game, err)
			}
			p.strategy.Reset()
		}

		reveals, err := p.play(ctx, state)
		if err != nil {
			return fmt.Errorf("game %d: %w", game, err)
		}
		log.Info().
			Int("game", game).
			Int("reveals", reveals).
			Str("session", client.sessionID).
			Msg("🎉 game complete")
	}
	return nil
}

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()

	cmd := &cli.Command{
		Name:  "bruteforcer",
		Usage: "Play pairs games against a running server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "Game server URL"},
			&cli.StringFlag{Name: "config", Usage: "Preset for a new session (server default when empty)"},
			&cli.StringFlag{Name: "continue", Usage: "Resume playing an existing session by ID"},
			&cli.BoolFlag{Name: "reset", Usage: "Restart the current board before playing"},
			&cli.IntFlag{Name: "games", Value: 1, Usage: "Number of games to play"},
			&cli.IntFlag{Name: "max-reveals", Value: 1000, Usage: "Maximum reveals per game"},
			&cli.DurationFlag{Name: "delay", Usage: "Pause between reveals"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Verbose output"},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if cmd.Bool("verbose") {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			return ctx, nil
		},
		Action: run,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Error().Err(err).Msg("❌ bruteforcer failed")
		os.Exit(1)
	}
}
