package main

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/pairs-game/api"
	"github.com/wricardo/pairs-game/game/config"
	"github.com/wricardo/pairs-game/game/engine"
	"github.com/wricardo/pairs-game/game/service"
	"github.com/wricardo/pairs-game/game/session"
	"github.com/wricardo/pairs-game/transport/websocket"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	configs, err := config.NewManager("")
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}
	svc := service.NewGameService(session.NewManager(), configs,
		service.WithMismatchDelay(5*time.Millisecond),
	)
	ts := httptest.NewServer(api.NewServer(svc, websocket.NewHub()))
	t.Cleanup(ts.Close)
	return ts
}

func newTestPlayer(client *Client) *player {
	return &player{
		client:       client,
		strategy:     NewMemoryStrategy(),
		maxReveals:   200,
		pollInterval: 5 * time.Millisecond,
	}
}

func stateWith(total int, revealed ...int) *engine.GameState {
	return &engine.GameState{TotalCards: total, TotalPairs: total / 2, Revealed: revealed}
}

func TestMemoryStrategy_NextMove(t *testing.T) {
	s := NewMemoryStrategy()

	if got := s.NextMove(stateWith(4)); got != 0 {
		t.Errorf("Expected the first unseen card, got %d", got)
	}

	s.Observe(&service.RevealResult{Position: 0, Icon: "apple", Outcome: engine.OutcomeRevealed})
	if got := s.NextMove(stateWith(4, 0)); got != 1 {
		t.Errorf("Expected the next unseen card, got %d", got)
	}

	s.Observe(&service.RevealResult{Position: 1, Icon: "pear", Outcome: engine.OutcomeMismatch, Pair: []int{0, 1}})
	if got := s.NextMove(stateWith(4, 0, 1)); got != -1 {
		t.Errorf("Expected to wait while a mismatch shows, got %d", got)
	}

	s.Observe(&service.RevealResult{Position: 2, Icon: "pear", Outcome: engine.OutcomeRevealed})
	if got := s.NextMove(stateWith(4, 2)); got != 1 {
		t.Errorf("Expected the remembered partner 1, got %d", got)
	}

	s.Observe(&service.RevealResult{Position: 1, Icon: "pear", Outcome: engine.OutcomeMatch, Pair: []int{2, 1}})
	if got := s.NextMove(stateWith(4)); got != 3 {
		t.Errorf("Expected the last unseen card, got %d", got)
	}
}

func TestMemoryStrategy_KnownPair(t *testing.T) {
	s := NewMemoryStrategy()
	s.Observe(&service.RevealResult{Position: 0, Icon: "apple", Outcome: engine.OutcomeRevealed})
	s.Observe(&service.RevealResult{Position: 3, Icon: "apple", Outcome: engine.OutcomeRevealed})

	got := s.NextMove(stateWith(6))
	if got != 0 && got != 3 {
		t.Errorf("Expected a card of the known pair, got %d", got)
	}
}

func TestMemoryStrategy_Sync(t *testing.T) {
	s := NewMemoryStrategy()
	state := stateWith(4)
	state.Cards = []engine.CardView{
		{Position: 0, Icon: "apple", FaceUp: true, Matched: true},
		{Position: 1},
		{Position: 2, Icon: "apple", FaceUp: true, Matched: true},
		{Position: 3},
	}
	s.Sync(state)

	if got := s.NextMove(state); got != 1 {
		t.Errorf("Expected matched cards to be skipped, got %d", got)
	}
}

func TestMemoryStrategy_IgnoredReveal(t *testing.T) {
	s := NewMemoryStrategy()
	s.Observe(&service.RevealResult{Position: 0, Outcome: engine.OutcomeIgnored, Reason: engine.ReasonPendingResolution})
	if got := s.NextMove(stateWith(2)); got != 0 {
		t.Errorf("An ignored reveal should teach nothing, got %d", got)
	}
}

func TestClient_Errors(t *testing.T) {
	ts := newTestServer(t)
	client := NewClient(ts.URL + "/")

	if _, err := client.CreateSession(context.Background(), "nope"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("Expected a config not found error, got %v", err)
	}

	client.sessionID = "ZZZZ"
	if _, err := client.GetState(context.Background()); err == nil {
		t.Error("Expected error for an unknown session")
	}
}

func TestPlay_CompletesGame(t *testing.T) {
	ts := newTestServer(t)
	client := NewClient(ts.URL)
	ctx := context.Background()

	state, err := client.CreateSession(ctx, "small")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	reveals, err := newTestPlayer(client).play(ctx, state)
	if err != nil {
		t.Fatalf("play failed: %v", err)
	}
	if reveals < state.TotalCards || reveals > 2*state.TotalCards {
		t.Errorf("Unexpected reveal count %d for %d cards", reveals, state.TotalCards)
	}

	final, err := client.GetState(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !final.Complete || final.MatchedPairs != final.TotalPairs {
		t.Errorf("Expected a complete game, got %+v", final)
	}
}

func TestPlay_ResetReplaysFromMemory(t *testing.T) {
	ts := newTestServer(t)
	client := NewClient(ts.URL)
	ctx := context.Background()

	state, err := client.CreateSession(ctx, "small")
	if err != nil {
		t.Fatal(err)
	}
	p := newTestPlayer(client)
	if _, err := p.play(ctx, state); err != nil {
		t.Fatalf("first game failed: %v", err)
	}

	state, err = client.Reset(ctx)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	p.strategy.matched = make(map[int]bool)

	reveals, err := p.play(ctx, state)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if reveals != state.TotalCards {
		t.Errorf("A remembered board needs exactly %d reveals, got %d", state.TotalCards, reveals)
	}
}

func TestPlay_GivesUp(t *testing.T) {
	ts := newTestServer(t)
	client := NewClient(ts.URL)
	ctx := context.Background()

	state, err := client.CreateSession(ctx, "classic")
	if err != nil {
		t.Fatal(err)
	}
	p := newTestPlayer(client)
	p.maxReveals = 3

	if _, err := p.play(ctx, state); err == nil || !strings.Contains(err.Error(), "gave up") {
		t.Errorf("Expected to give up, got %v", err)
	}
}

func TestOpenSession(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	client := NewClient(ts.URL)
	state, err := openSession(ctx, client, "", "small")
	if err != nil {
		t.Fatalf("openSession failed: %v", err)
	}
	created := client.sessionID
	if state.TotalCards != 12 {
		t.Errorf("Expected the small preset, got %d cards", state.TotalCards)
	}

	resumed := NewClient(ts.URL)
	if _, err := openSession(ctx, resumed, created, "small"); err != nil {
		t.Fatal(err)
	}
	if resumed.sessionID != created {
		t.Errorf("Expected to resume %s, got %s", created, resumed.sessionID)
	}

	fresh := NewClient(ts.URL)
	if _, err := openSession(ctx, fresh, "GONE", "small"); err != nil {
		t.Fatal(err)
	}
	if fresh.sessionID == "GONE" || fresh.sessionID == "" {
		t.Errorf("Expected a new session, got %q", fresh.sessionID)
	}
}

func TestSleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleep(ctx, time.Hour); err == nil {
		t.Error("Expected cancellation error")
	}
}
