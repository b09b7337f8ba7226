// Package session provides session management for the Sokoban server.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Session lifecycle management
//   - Concurrent access control
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// A service.Session owns one engine playing a level pack, plus creation and
// last access times.
//
// Session Identifiers:
//
// Generated IDs are 4 hex characters taken from crypto/rand; a collision is
// retried. Caller-chosen IDs are accepted as long as they hold no whitespace
// or slashes. Lookups ignore case.
//
// Concurrency:
//
// The manager's map is guarded by a RWMutex. The engines it hands out are
// not; the service layer serializes engine access.
//
// Usage:
//
//	manager := session.NewManager()
//
//	// Create a new session
//	sess, err := manager.Create("", "classic", pack, 1)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Retrieve existing session
//	sess, err = manager.Get(sessionID)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// List all active sessions
//	sessions := manager.List()
//
// Cleanup:
//
// Sessions live in memory only. They are deleted explicitly or dropped by
// CleanupExpiredSessions after a period of inactivity.
package session
