// Package service provides the business logic layer for the Sokoban server.
//
// The service package implements:
//   - Multi-session game management
//   - Move processing, bulk moves and undo
//   - Level progression within a pack
//   - Solver hints and best-solution records
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// PackManager supplies the level catalogs sessions play through.
//
// Architecture:
//
// The service layer sits between the transports (HTTP, WebSocket, MCP) and the
// engine. The engine is not safe for concurrent use, so every call that touches
// a session's engine runs under the service mutex.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	packMgr, _ := levels.NewManager("levels")
//	gameService := service.NewGameService(sessionMgr, packMgr, records.NewMemoryStore())
//
//	info, err := gameService.CreateSession(ctx, "classic", 1)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Move(ctx, info.ID, "right")
package service
