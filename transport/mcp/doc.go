// Package mcp exposes the pairs game to AI agents over the Model Context
// Protocol.
//
// The Client is a thin proxy: every tool call becomes a request against the
// REST API, so agents see exactly what browser and WebSocket clients see.
//
// MCP Tools:
//   - create_session: New session from a preset (config_id) or an explicit size
//   - list_sessions, get_session
//   - game_state: Board rendered as text; face-down cards hide their icon
//   - reveal_card: Reveal one position; requires an intent explanation
//   - new_game: Deal a new board
//   - reset_game: Restart the current board
//   - reveal_history: Paginated reveal history
//   - list_configs: Board presets
//   - game_instructions: Rules and strategy tips
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: the main server mounts the MCP server at /mcp
package mcp
