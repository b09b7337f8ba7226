// Package api provides the HTTP REST API for the Sokoban server.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session {"pack":"classic","level":1}
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get a session
//   - DELETE /api/sessions/{id} - Delete a session
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current snapshot
//   - POST /api/sessions/{id}/move - {"direction":"up"}
//   - POST /api/sessions/{id}/bulk-move - {"moves":["up","left"]}, at most 100
//   - POST /api/sessions/{id}/undo - Undo the last step or push
//   - POST /api/sessions/{id}/restart - Reload the current level
//   - POST /api/sessions/{id}/next - Advance after a win
//   - POST /api/sessions/{id}/level - Jump to {"level":N}
//   - GET /api/sessions/{id}/history - Paginated journal (?page&limit&order)
//   - GET /api/sessions/{id}/hint - Solver hint for the current position
//
// Level Packs:
//   - GET /api/packs - List packs
//   - GET /api/packs/{name} - Pack with level summaries
//   - GET /api/packs/{name}/records - Best results per level
//
// Other:
//   - GET /ws?session={id} - WebSocket stream of state updates
//   - GET /healthz - Liveness probe
//
// Errors are returned as {"error":"..."}. Unknown sessions and packs map to
// 404, malformed input to 400, and actions that are not allowed in the
// current state (undo with empty history, next before winning) to 409.
//
// Every handler that changes state broadcasts the new snapshot to the
// session's WebSocket clients.
package api
