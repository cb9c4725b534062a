// Package api provides the HTTP REST API for the pairs game.
//
// Endpoints:
//
// Health:
//   - GET /health
//
// Session Management:
//   - POST /api/sessions - Create a session; body is an optional new-game request
//   - GET /api/sessions?sort=created|accessed&order=asc|desc&limit=n
//   - GET /api/sessions/{id}
//   - DELETE /api/sessions/{id}
//
// Game Operations:
//   - GET /api/sessions/{id}/state
//   - POST /api/sessions/{id}/new-game - Replace the board
//   - POST /api/sessions/{id}/reset - Restart the current board
//   - POST /api/sessions/{id}/reveal - Body {"position": n}
//   - GET /api/sessions/{id}/history?page=1&limit=20&order=desc
//
// Configuration:
//   - GET /api/configs
//   - POST /api/configs - Save a preset; its id is the normalized name
//   - GET /api/configs/{name}
//   - GET /api/icons - Icon catalog with asset paths
//
// WebSocket:
//   - GET /ws?session={id}
//
// A new-game request names a preset or an explicit size:
//
//	{"config_id": "large"}
//	{"total_cards": 20, "rows": 4, "cols": 5, "seed": 42}
//
// Errors are returned as JSON with a status derived from the wrapped sentinel
// error (404 unknown session or preset, 400 bad position or body, 422 a board
// that cannot be built):
//
//	{"error": "error message"}
//
// Every request passes through chi's request id, real ip and panic recovery
// middleware and is logged with zerolog.
package api
