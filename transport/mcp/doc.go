// Package mcp exposes the Sokoban REST API as Model Context Protocol tools.
//
// Client registers one tool per game operation and forwards each call to the
// HTTP API, rendering the JSON answer as text an agent can read: the board
// rows, hero position, crates on goal and the step count.
//
// Tools:
//   - create_session, list_sessions, get_session
//   - game_state, move, bulk_move, undo, restart
//   - next_level, select_level, hint, move_history
//   - list_packs, leaderboard, game_instructions
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
//
// The same MCP server can be mounted over HTTP with server.NewStreamableHTTPServer.
package mcp
