// Package websocket provides the realtime transport for the pairs game.
//
// A central Hub keeps the connected clients of every session. Each connection
// runs a read pump and a write pump; the hub's event loop owns registration
// and fan-out.
//
// Message Protocol:
//
// Outgoing messages are JSON objects with an event name:
//   - state_update: the full game state after any change, including the
//     automatic flip-back of a mismatched pair
//   - celebration: a match, or completion of the board
//   - reveal_result: the outcome of this client's reveal
//   - error: a rejected action, sent only to the client that sent it
//
// Incoming messages carry an action:
//   - {"action":"reveal","position":3}
//   - {"action":"new_game","config_id":"large"} or {"action":"new_game","total_cards":20,"rows":4,"cols":5}
//   - {"action":"reset"}
//
// Clients join a session with the ?session=<id> query parameter and receive
// the current state as soon as they connect.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//
//	gameService := service.NewGameService(sessions, configs, service.WithNotifier(hub))
//	hub.SetGame(gameService)
//
// The Hub implements service.Notifier, so the service pushes every state change
// and celebration through it.
package websocket
