package service

import (
	"context"
	"time"

	"github.com/wricardo/sokoban-game/game/engine"
	"github.com/wricardo/sokoban-game/game/records"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, pack string, level int) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Move(ctx context.Context, sessionID, direction string) (*MoveResult, error)
	BulkMove(ctx context.Context, sessionID string, moves []string) (*BulkMoveResult, error)
	Undo(ctx context.Context, sessionID string) (*engine.Snapshot, error)
	Restart(ctx context.Context, sessionID string) (*engine.Snapshot, error)
	NextLevel(ctx context.Context, sessionID string) (*engine.Snapshot, error)
	SelectLevel(ctx context.Context, sessionID string, level int) (*engine.Snapshot, error)
	HandleIntent(ctx context.Context, sessionID string, intent string) (*engine.Snapshot, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.Snapshot, error)
	GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)
	Hint(ctx context.Context, sessionID string) (*HintResult, error)

	// Packs and records
	ListPacks(ctx context.Context) ([]*PackInfo, error)
	LoadPack(ctx context.Context, pack string) (*PackDetail, error)
	Leaderboard(ctx context.Context, pack string) ([]records.Result, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, pack string, catalog engine.Catalog, level int) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// PackManager provides the level packs sessions are created from
type PackManager interface {
	LoadCatalog(name string) (engine.Catalog, error)
	DescribePack(name string) (*PackDetail, error)
	ListPacks() ([]*PackInfo, error)
	DefaultPackName() string
}

// Session represents an active game session
type Session struct {
	ID             string
	Pack           string
	Catalog        engine.Catalog
	Engine         *engine.GameEngine
	CreatedAt      time.Time
	LastAccessedAt time.Time

	// solved marks levels already written to the records store
	solved map[int]bool
}
