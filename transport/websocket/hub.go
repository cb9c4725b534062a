package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/pairs-game/game/engine"
	"github.com/wricardo/pairs-game/game/service"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Time allowed for an inbound action to complete.
	actionTimeout = 5 * time.Second
)

// Outbound event names
const (
	EventStateUpdate  = "state_update"
	EventCelebration  = "celebration"
	EventRevealResult = "reveal_result"
	EventError        = "error"
)

// Inbound actions
const (
	ActionReveal  = "reveal"
	ActionNewGame = "new_game"
	ActionReset   = "reset"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message represents an outbound WebSocket message
type Message struct {
	SessionID string            `json:"session_id"`
	GameState *engine.GameState `json:"game_state,omitempty"`
	Event     string            `json:"event,omitempty"`
	Data      interface{}       `json:"data,omitempty"`
}

// ClientMessage is an action sent by a client, e.g.
// {"action":"reveal","position":3} or {"action":"new_game","total_cards":20}
type ClientMessage struct {
	Action   string `json:"action"`
	Position *int   `json:"position,omitempty"`
	service.NewGameRequest
}

// GameActions is the part of the game service the hub drives from client
// messages
type GameActions interface {
	Reveal(ctx context.Context, sessionID string, position int) (*service.RevealResult, error)
	NewGame(ctx context.Context, sessionID string, req service.NewGameRequest) (*engine.GameState, error)
	Reset(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
}

// Client represents a WebSocket client
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
}

type directMessage struct {
	client *Client
	data   []byte
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	// Registered clients by lower-cased session ID
	sessions map[string]map[*Client]bool
	mu       sync.RWMutex

	// Outbound messages for every client of a session
	broadcast chan *Message

	// Outbound messages for a single client
	direct chan directMessage

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	game GameActions
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, 256),
		direct:     make(chan directMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// SetGame wires the service that handles inbound client actions. Without it
// clients only receive broadcasts.
func (h *Hub) SetGame(game GameActions) {
	h.game = game
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case dm := <-h.direct:
			h.sendDirect(dm)
		}
	}
}

func sessionKey(sessionID string) string {
	return strings.ToLower(sessionID)
}

// ServeWS handles WebSocket requests from clients
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("session", sessionID).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, 256),
		sessionID: sessionID,
	}

	client.hub.register <- client

	// Start client goroutines
	go client.writePump()
	go client.readPump()

	if h.game != nil {
		if state, err := h.game.GetGameState(r.Context(), sessionID); err == nil {
			h.sendTo(client, &Message{SessionID: sessionID, GameState: state, Event: EventStateUpdate})
		}
	}
}

// BroadcastToSession sends a game state update to all clients in a session
func (h *Hub) BroadcastToSession(sessionID string, state *engine.GameState) {
	h.broadcast <- &Message{
		SessionID: sessionID,
		GameState: state,
		Event:     EventStateUpdate,
	}
}

// BroadcastEvent sends a custom event to all clients in a session
func (h *Hub) BroadcastEvent(sessionID string, event string, data interface{}) {
	h.broadcast <- &Message{
		SessionID: sessionID,
		Event:     event,
		Data:      data,
	}
}

// StateChanged implements service.Notifier
func (h *Hub) StateChanged(sessionID string, state *engine.GameState) {
	h.BroadcastToSession(sessionID, state)
}

// Celebrate implements service.Notifier
func (h *Hub) Celebrate(sessionID string, celebration engine.Celebration) {
	h.BroadcastEvent(sessionID, EventCelebration, celebration)
}

// ClientCount returns the number of clients connected to a session
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionKey(sessionID)])
}

func (h *Hub) sendTo(client *Client, message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal websocket message")
		return
	}
	h.direct <- directMessage{client: client, data: data}
}

// registerClient adds a client to a session
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := sessionKey(client.sessionID)
	if h.sessions[key] == nil {
		h.sessions[key] = make(map[*Client]bool)
	}
	h.sessions[key][client] = true

	log.Debug().
		Str("session", client.sessionID).
		Int("clients", len(h.sessions[key])).
		Msg("websocket client registered")
}

// unregisterClient removes a client from a session
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	key := sessionKey(client.sessionID)
	clients, ok := h.sessions[key]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}

	delete(clients, client)
	close(client.send)

	// Clean up empty sessions
	if len(clients) == 0 {
		delete(h.sessions, key)
	}

	log.Debug().
		Str("session", client.sessionID).
		Int("clients", len(clients)).
		Msg("websocket client unregistered")
}

// broadcastMessage sends a message to all clients in a session
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal broadcast message")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.sessions[sessionKey(message.SessionID)] {
		select {
		case client.send <- data:
		default:
			// Client's send channel is full, drop it
			h.removeLocked(client)
		}
	}
}

// sendDirect delivers to one client if it is still registered
func (h *Hub) sendDirect(dm directMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.sessions[sessionKey(dm.client.sessionID)][dm.client] {
		return
	}
	select {
	case dm.client.send <- dm.data:
	default:
		h.removeLocked(dm.client)
	}
}

// handleAction runs one client action against the game service. State
// changes reach every client through the notifier; the direct reply carries
// the per-request result or error.
func (h *Hub) handleAction(c *Client, raw []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.replyError(c, errors.New("invalid message"))
		return
	}
	if h.game == nil {
		h.replyError(c, errors.New("actions are not supported"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	switch msg.Action {
	case ActionReveal:
		if msg.Position == nil {
			h.replyError(c, errors.New("position is required"))
			return
		}
		result, err := h.game.Reveal(ctx, c.sessionID, *msg.Position)
		if err != nil {
			h.replyError(c, err)
			return
		}
		h.sendTo(c, &Message{SessionID: c.sessionID, Event: EventRevealResult, Data: result})

	case ActionNewGame:
		if _, err := h.game.NewGame(ctx, c.sessionID, msg.NewGameRequest); err != nil {
			h.replyError(c, err)
		}

	case ActionReset:
		if _, err := h.game.Reset(ctx, c.sessionID); err != nil {
			h.replyError(c, err)
		}

	default:
		h.replyError(c, errors.New("unknown action: "+msg.Action))
	}
}

func (h *Hub) replyError(c *Client, err error) {
	h.sendTo(c, &Message{
		SessionID: c.sessionID,
		Event:     EventError,
		Data:      map[string]string{"error": err.Error()},
	})
}

// readPump pumps actions from the WebSocket connection to the game service
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("session", c.sessionID).Msg("websocket read error")
			}
			break
		}
		c.hub.handleAction(c, data)
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One JSON document per frame
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
