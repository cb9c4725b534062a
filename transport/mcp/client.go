package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/pairs-game/game/engine"
	"github.com/wricardo/pairs-game/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Pairs",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Pairs - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Find every pair of matching icons. Cards start face-down; reveal two at a time.
A matching pair stays face-up. A mismatched pair flips back after a short delay.

AVAILABLE TOOLS:
- create_session: Create a new game session (preset or explicit size)
- list_sessions: List all active sessions
- get_session: Get session details
- game_state: Show the board
- reveal_card: Turn one card face-up - requires intent explanation
- new_game: Deal a new board
- reset_game: Restart the current board
- reveal_history: View past reveals
- list_configs: List board presets
- game_instructions: Get the full rules

NOTE: The 'intent' parameter on reveal_card serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

var sessionIDProperty = map[string]interface{}{
	"type":        "string",
	"description": "Session ID",
}

func newGameProperties() map[string]interface{} {
	return map[string]interface{}{
		"config_id": map[string]interface{}{
			"type":        "string",
			"description": "Preset to use, e.g. small, classic, large (optional)",
		},
		"total_cards": map[string]interface{}{
			"type":        "integer",
			"description": "Explicit number of cards; must be even. Overrides config_id",
		},
		"rows": map[string]interface{}{
			"type":        "integer",
			"description": "Layout rows hint (0 = auto)",
		},
		"cols": map[string]interface{}{
			"type":        "integer",
			"description": "Layout columns hint (0 = auto)",
		},
		"seed": map[string]interface{}{
			"type":        "integer",
			"description": "Seed for a reproducible board (optional)",
		},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with an optional preset or board size",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: newGameProperties(),
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty,
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board. Face-down cards hide their icon",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty,
			},
			Required: []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reveal_card",
		Description: "Turn the card at a position face-up. The second reveal of a turn resolves the pair",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty,
				"position": map[string]interface{}{
					"type":        "integer",
					"description": "0-based card position",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of why you picked this card (serves as a rubber duck to help explain your reasoning)",
				},
			},
			Required: []string{"session_id", "position"},
		},
	}, c.handleReveal)

	newGameProps := newGameProperties()
	newGameProps["session_id"] = sessionIDProperty
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "new_game",
		Description: "Deal a new board. Without arguments the session keeps its preset",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: newGameProps,
			Required:   []string{"session_id"},
		},
	}, c.handleNewGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Restart the current board: every card face-down, no pairs found",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty,
			},
			Required: []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reveal_history",
		Description: "Get the reveal history of the current game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty,
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Sort order (default desc)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleRevealHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available board presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get comprehensive game instructions and rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		if json.NewDecoder(resp.Body).Decode(&errResp) == nil {
			if msg, ok := errResp["error"]; ok {
				return fmt.Errorf("%s", msg)
			}
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// newGameRequest reads the new-game arguments shared by create_session and new_game
func newGameRequest(request mcp.CallToolRequest) service.NewGameRequest {
	return service.NewGameRequest{
		ConfigID:   request.GetString("config_id", ""),
		TotalCards: request.GetInt("total_cards", 0),
		Rows:       request.GetInt("rows", 0),
		Cols:       request.GetInt("cols", 0),
		Seed:       int64(request.GetInt("seed", 0)),
	}
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", newGameRequest(request), &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s", session.ID, session.ConfigName, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		progress := ""
		if s.GameState != nil {
			progress = fmt.Sprintf(", Pairs: %d/%d", s.GameState.MatchedPairs, s.GameState.TotalPairs)
		}
		fmt.Fprintf(&b, "- %s (Config: %s%s, Created: %s)\n",
			s.ID, s.ConfigName, progress, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleReveal(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	position, err := request.RequireInt("position")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.RevealResult
	body := map[string]int{"position": position}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reveal"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRevealResult(&result)), nil
}

func (c *Client) handleNewGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/new-game"), newGameRequest(request), &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))), nil
}

func (c *Client) handleRevealHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	params := url.Values{}
	if page := request.GetInt("page", 0); page > 0 {
		params.Set("page", fmt.Sprint(page))
	}
	if limit := request.GetInt("limit", 0); limit > 0 {
		params.Set("limit", fmt.Sprint(limit))
	}
	if order := request.GetString("order", ""); order != "" {
		params.Set("order", order)
	}
	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Presets:\n\n")
	for _, cfg := range configs {
		fmt.Fprintf(&b, "• %s (config_id: %s)\n  %s\n  Cards: %d (%d pairs), Layout: %dx%d\n\n",
			cfg.Name, cfg.ConfigID, cfg.Description, cfg.TotalCards, cfg.Pairs, cfg.Rows, cfg.Cols)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Pairs - Complete Instructions

GAME OBJECTIVE:
Find every pair of identical icons on the board.

GAME MECHANICS:
• The board holds an even number of cards; every icon appears exactly twice
• Cards are identified by their 0-based position, counted row by row
• Reveal one card, then a second one
• Match: both cards stay face-up for the rest of the game
• Mismatch: both cards stay visible for a short delay, then flip face-down
• While a mismatched pair is showing, further reveals are ignored
• Revealing a card that is already face-up or matched is ignored
• The game is complete when every pair is matched

BOARD LEGEND (game_state):
  ·     face-down card
  (cat) face-up card waiting for its partner
  [cat] matched card

STARTING A GAME:
• create_session with a preset (list_configs) or total_cards/rows/cols
• new_game deals a fresh board; reset_game replays the current one
• seed makes a board reproducible

STRATEGY TIPS:
1. Remember every icon you have seen and where
2. When the first card of a turn shows an icon you have seen before, reveal its partner
3. Otherwise reveal an unseen card to learn more of the board
4. After a mismatch, wait for the cards to flip back before revealing again
5. Use reveal_history to recall icons you have uncovered`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

// boardColumns picks the number of columns to render, honouring the layout hint
func boardColumns(state *engine.GameState) int {
	if state.Layout.Cols > 0 {
		return state.Layout.Cols
	}
	if state.Layout.Rows > 0 {
		return (state.TotalCards + state.Layout.Rows - 1) / state.Layout.Rows
	}
	cols := int(math.Ceil(math.Sqrt(float64(state.TotalCards))))
	if cols < 1 {
		cols = 1
	}
	return cols
}

func cardLabel(card engine.CardView) string {
	switch {
	case card.Matched:
		return "[" + card.Icon + "]"
	case card.FaceUp:
		return "(" + card.Icon + ")"
	default:
		return "·"
	}
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Pairs: %d/%d | Reveals: %d | Cards: %d\n",
		state.MatchedPairs, state.TotalPairs, state.TotalReveals, state.TotalCards)
	if state.Message != "" {
		fmt.Fprintf(&b, "%s\n", state.Message)
	}
	b.WriteString("\n")

	cols := boardColumns(state)
	width := 1
	for _, card := range state.Cards {
		if l := len([]rune(cardLabel(card))); l > width {
			width = l
		}
	}
	for i, card := range state.Cards {
		fmt.Fprintf(&b, "%2d:%-*s", card.Position, width, cardLabel(card))
		if (i+1)%cols == 0 || i == len(state.Cards)-1 {
			b.WriteString("\n")
		} else {
			b.WriteString("  ")
		}
	}

	switch {
	case state.Complete:
		b.WriteString("\n🎉 COMPLETE! Every pair has been found.\n")
	case state.MismatchPending:
		fmt.Fprintf(&b, "\nMismatch showing at %v; it will flip back shortly.\n", state.Revealed)
	case len(state.Revealed) == 1:
		fmt.Fprintf(&b, "\nCard %d is waiting for its partner.\n", state.Revealed[0])
	}

	return b.String()
}

func formatRevealResult(result *service.RevealResult) string {
	var b strings.Builder

	switch result.Outcome {
	case engine.OutcomeIgnored:
		fmt.Fprintf(&b, "Reveal of %d ignored (%s)\n", result.Position, result.Reason)
	case engine.OutcomeRevealed:
		fmt.Fprintf(&b, "Card %d is %s\n", result.Position, result.Icon)
	case engine.OutcomeMatch:
		fmt.Fprintf(&b, "Card %d is %s: MATCH %v\n", result.Position, result.Icon, result.Pair)
	case engine.OutcomeMismatch:
		fmt.Fprintf(&b, "Card %d is %s: no match %v, flipping back in %dms\n",
			result.Position, result.Icon, result.Pair, result.ClearsInMS)
	}

	for _, celebration := range result.Celebrations {
		if celebration.Kind == engine.CelebrateComplete {
			fmt.Fprintf(&b, "🎉 All %d pairs found!\n", celebration.TotalPairs)
		}
	}

	b.WriteString("\n" + formatGameState(result.GameState))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reveal History (Page %d/%d) - Total: %d\n\n",
		history.Page, history.TotalPages, history.TotalReveals)

	for _, reveal := range history.Reveals {
		fmt.Fprintf(&b, "%d. card %d = %s [%s, pairs: %d]\n",
			reveal.Number, reveal.Position, reveal.Icon, reveal.Outcome, reveal.MatchedPairs)
	}

	return b.String()
}
