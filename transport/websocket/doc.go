// Package websocket pushes live Sokoban state to browser clients.
//
// A Hub groups connections by session ID. Every state change made through
// the HTTP API or by a connected client is broadcast as a Message carrying
// the full engine.Snapshot to all clients of that session.
//
// Message Protocol:
//
//   - Incoming: {"intent":"up"} where intent is up, down, left, right,
//     advance, undo or restart
//   - Outgoing: {"session_id":"ab12","event":"state_update","game_state":{...}}
//   - Errors are sent only to the client that caused them, with event "error"
//   - Deleting a session sends event "session_deleted" to its clients
//
// Usage:
//
//	hub := websocket.NewHub()
//	hub.OnIntent(gameService.HandleIntent)
//	go hub.Run(ctx)
//
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"), nil)
//	})
//
// Each client runs a read pump and a write pump goroutine. A client whose
// outbound queue fills up is dropped. When the context given to Run is done
// every connection is closed and later calls into the hub return immediately.
package websocket
