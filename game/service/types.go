package service

import (
	"time"

	"github.com/wricardo/sokoban-game/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string           `json:"id"`
	Pack           string           `json:"pack"`
	Level          int              `json:"level"`
	LevelTitle     string           `json:"level_title,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	LastAccessedAt time.Time        `json:"last_accessed_at"`
	GameState      *engine.Snapshot `json:"game_state"`
}

// MoveResult contains the result of a single move
type MoveResult struct {
	Direction string             `json:"direction"`
	Outcome   engine.MoveOutcome `json:"outcome"`
	Success   bool               `json:"success"`
	GameState *engine.Snapshot   `json:"game_state"`
	Message   string             `json:"message"`
	Events    []GameEvent        `json:"events,omitempty"`
	NewRecord bool               `json:"new_record,omitempty"`
}

// BulkMoveResult contains the result of multiple moves
type BulkMoveResult struct {
	MovesExecuted  int                  `json:"moves_executed"`
	RequestedMoves int                  `json:"requested_moves"`
	Outcomes       []engine.MoveOutcome `json:"outcomes"`
	Pushes         int                  `json:"pushes"`
	Success        bool                 `json:"success"`
	GameState      *engine.Snapshot     `json:"game_state"`
	Events         []GameEvent          `json:"events"`
	StoppedReason  string               `json:"stopped_reason,omitempty"`
	StopReasonCode string               `json:"stop_reason_code,omitempty"` // blocked|invalid_direction|victory
	StoppedOnMove  int                  `json:"stopped_on_move,omitempty"`  // 1-based
	Truncated      bool                 `json:"truncated,omitempty"`
	Limit          int                  `json:"limit,omitempty"`
	StartPos       engine.Position      `json:"start_pos"`
	EndPos         engine.Position      `json:"end_pos"`
	PossibleMoves  []string             `json:"possible_moves,omitempty"`
	Message        string               `json:"message,omitempty"`
	NewRecord      bool                 `json:"new_record,omitempty"`
}

// GameEvent represents an event that occurred during play
type GameEvent struct {
	Type      string          `json:"type"` // "move", "push", "crate_on_goal", "victory", "undo", "restart", "level_changed"
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Position  engine.Position `json:"position,omitempty"`
}

// HistoryOptions configures journal retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains a page of the session journal
type HistoryResponse struct {
	Moves       []engine.JournalEntry `json:"moves"`
	TotalMoves  int                   `json:"total_moves"`
	Page        int                   `json:"page"`
	PageSize    int                   `json:"page_size"`
	TotalPages  int                   `json:"total_pages"`
	HasNext     bool                  `json:"has_next"`
	HasPrevious bool                  `json:"has_previous"`
}

// HintResult is a solver answer for the current position
type HintResult struct {
	Next     string   `json:"next,omitempty"`
	Moves    []string `json:"moves"`
	Length   int      `json:"length"`
	Pushes   int      `json:"pushes"`
	Explored int      `json:"explored"`
	Solvable bool     `json:"solvable"`
	Message  string   `json:"message"`
}

// PackInfo summarizes a level pack
type PackInfo struct {
	PackID      string `json:"pack_id"` // identifier used for session creation
	Filename    string `json:"filename,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
	LevelCount  int    `json:"level_count"`
	Source      string `json:"source"` // "embedded" or "file"
}

// LevelSummary describes one level of a pack
type LevelSummary struct {
	Number int      `json:"number"`
	Title  string   `json:"title"`
	Rows   []string `json:"rows"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Crates int      `json:"crates"`
	Goals  int      `json:"goals"`
}

// PackDetail is a pack with its levels
type PackDetail struct {
	PackInfo
	Levels []LevelSummary `json:"levels"`
}
