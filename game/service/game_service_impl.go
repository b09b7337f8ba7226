package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wricardo/sokoban-game/game/engine"
	"github.com/wricardo/sokoban-game/game/records"
	"github.com/wricardo/sokoban-game/game/solver"
)

var (
	ErrNoMoves       = errors.New("no moves provided")
	ErrLevelNotWon   = errors.New("current level is not solved yet")
	ErrNoMoreLevels  = errors.New("no more levels in this pack")
	ErrInvalidIntent = errors.New("invalid intent")
)

// Stop reason codes reported by BulkMove
const (
	StopBlocked          = "blocked"
	StopInvalidDirection = "invalid_direction"
	StopVictory          = "victory"
)

// titledCatalog is implemented by catalogs that name their levels
type titledCatalog interface {
	Title(n int) string
}

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	packs    PackManager
	records  records.Store
	mu       sync.Mutex
}

// NewGameService creates a new game service instance. store may be nil, in
// which case solved levels are not recorded.
func NewGameService(sessions SessionManager, packs PackManager, store records.Store) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		packs:    packs,
		records:  store,
	}
}

// CreateSession creates a new game session on the given pack and level
func (s *gameServiceImpl) CreateSession(ctx context.Context, pack string, level int) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pack == "" {
		pack = s.packs.DefaultPackName()
	}
	if level < 1 {
		level = 1
	}

	catalog, err := s.packs.LoadCatalog(pack)
	if err != nil {
		return nil, fmt.Errorf("failed to load pack %q: %w", pack, err)
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", pack, catalog, level)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	log.Info().Str("session", sess.ID).Str("pack", pack).Int("level", level).Msg("session created")
	return s.sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	log.Info().Str("session", sessionID).Msg("session deleted")
	return nil
}

// Move executes a single move for a session
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := engine.ParseDirection(direction); err != nil {
		return nil, err
	}

	eng := sess.Engine
	before := eng.GetState()
	outcome := eng.Move(direction)
	state := eng.GetState()

	result := &MoveResult{
		Direction: direction,
		Outcome:   outcome,
		Success:   outcome.Accepted(),
		GameState: state,
		Events:    moveEvents(before, state, outcome),
	}

	if !before.Victory && state.Victory {
		result.NewRecord = s.recordWin(ctx, sess)
	}
	result.Message = describeMove(outcome, state)

	log.Debug().Str("session", sess.ID).Str("direction", direction).Stringer("outcome", outcome).
		Int("steps", state.StepCount).Msg("move")
	return result, nil
}

// BulkMove executes moves in order, stopping at the first blocked move or when
// the level is won
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []string) (*BulkMoveResult, error) {
	if len(moves) == 0 {
		return nil, ErrNoMoves
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	result := &BulkMoveResult{RequestedMoves: len(moves)}
	if len(moves) > engine.MaxBulkMoves {
		moves = moves[:engine.MaxBulkMoves]
		result.Truncated = true
		result.Limit = engine.MaxBulkMoves
	}

	eng := sess.Engine
	before := eng.GetState()
	result.StartPos = before.Hero

	outcomes := eng.BulkMove(moves)
	state := eng.GetState()

	result.Outcomes = outcomes
	result.GameState = state
	result.EndPos = state.Hero
	for _, o := range outcomes {
		if o.Accepted() {
			result.MovesExecuted++
		}
		if o == engine.MovedWithPush {
			result.Pushes++
		}
	}

	switch {
	case before.Victory:
		result.StopReasonCode = StopVictory
		result.StoppedReason = "level was already solved"
	case len(outcomes) > 0 && outcomes[len(outcomes)-1] == engine.Blocked:
		last := len(outcomes) - 1
		result.StoppedOnMove = last + 1
		if _, err := engine.ParseDirection(moves[last]); err != nil {
			result.StopReasonCode = StopInvalidDirection
			result.StoppedReason = fmt.Sprintf("move %d: invalid direction %q", last+1, moves[last])
		} else {
			result.StopReasonCode = StopBlocked
			result.StoppedReason = fmt.Sprintf("move %d (%s) is blocked", last+1, moves[last])
		}
	case state.Victory && len(outcomes) < len(moves):
		result.StoppedOnMove = len(outcomes)
		result.StopReasonCode = StopVictory
		result.StoppedReason = fmt.Sprintf("level solved on move %d", len(outcomes))
	}
	result.Success = result.MovesExecuted > 0 &&
		result.StopReasonCode != StopBlocked && result.StopReasonCode != StopInvalidDirection

	result.Events = moveEvents(before, state, engine.Moved)
	if !before.Victory && state.Victory {
		result.NewRecord = s.recordWin(ctx, sess)
	}

	for _, dir := range eng.GetPossibleMoves() {
		result.PossibleMoves = append(result.PossibleMoves, string(dir))
	}
	result.Message = fmt.Sprintf("%d of %d moves executed", result.MovesExecuted, len(moves))
	if state.Victory {
		result.Message += "; " + describeMove(engine.Moved, state)
	}

	log.Debug().Str("session", sess.ID).Int("requested", result.RequestedMoves).
		Int("executed", result.MovesExecuted).Str("stop", result.StopReasonCode).Msg("bulk move")
	return result, nil
}

// Undo reverses the last hero step or push
func (s *gameServiceImpl) Undo(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Engine.Undo(); err != nil {
		return nil, err
	}
	return sess.Engine.GetState(), nil
}

// Restart reloads the current level
func (s *gameServiceImpl) Restart(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Engine.Restart(); err != nil {
		return nil, fmt.Errorf("failed to restart level: %w", err)
	}
	return sess.Engine.GetState(), nil
}

// NextLevel advances a solved session to the following level
func (s *gameServiceImpl) NextLevel(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	eng := sess.Engine
	if !eng.IsVictory() {
		return nil, ErrLevelNotWon
	}
	if !eng.HasMoreLevels() || !eng.TryAdvance() {
		return nil, ErrNoMoreLevels
	}

	log.Info().Str("session", sess.ID).Str("pack", sess.Pack).Int("level", eng.CurrentLevel()).Msg("advanced to next level")
	return eng.GetState(), nil
}

// SelectLevel jumps to any level of the session's pack
func (s *gameServiceImpl) SelectLevel(ctx context.Context, sessionID string, level int) (*engine.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Engine.LoadLevel(level); err != nil {
		return nil, err
	}
	return sess.Engine.GetState(), nil
}

// HandleIntent applies one discrete input, as sent by interactive clients
func (s *gameServiceImpl) HandleIntent(ctx context.Context, sessionID string, intent string) (*engine.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	eng := sess.Engine
	switch intent {
	case "undo":
		if err := eng.Undo(); err != nil {
			return nil, err
		}
	case "restart":
		if err := eng.Restart(); err != nil {
			return nil, err
		}
	default:
		in := engine.Intent(intent)
		if _, err := engine.ParseDirection(intent); err != nil && in != engine.IntentAdvance {
			return nil, fmt.Errorf("%w: %q", ErrInvalidIntent, intent)
		}
		wasWon := eng.IsVictory()
		eng.HandleIntent(in)
		if !wasWon && eng.IsVictory() {
			s.recordWin(ctx, sess)
		}
	}

	return eng.GetState(), nil
}

// GetGameState returns the current snapshot of a session
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.GetState(), nil
}

// GetMoveHistory returns a page of the session journal
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.Engine.GetJournal()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	moves := []engine.JournalEntry{}
	if opts.Order == "desc" {
		// most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = append(moves, history[start:end]...)
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// Hint solves the session's current position. The search runs on a copy of
// the position outside the service lock.
func (s *gameServiceImpl) Hint(ctx context.Context, sessionID string) (*HintResult, error) {
	s.mu.Lock()
	sess, err := s.touch(sessionID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	text := engine.RenderText(sess.Engine.State())
	s.mu.Unlock()

	level, err := engine.ParseLevel(text)
	if err != nil {
		return nil, fmt.Errorf("failed to copy position: %w", err)
	}

	sol, err := solver.Solve(engine.NewGameState(level), solver.Options{})
	switch {
	case errors.Is(err, solver.ErrUnsolvable):
		return &HintResult{Moves: []string{}, Message: "no solution from here; undo or restart"}, nil
	case errors.Is(err, solver.ErrSearchLimit):
		return &HintResult{Moves: []string{}, Message: "position too complex to solve quickly"}, nil
	case err != nil:
		return nil, err
	}

	hint := &HintResult{
		Moves:    sol.Strings(),
		Length:   len(sol.Moves),
		Pushes:   sol.Pushes,
		Explored: sol.Explored,
		Solvable: true,
	}
	if len(sol.Moves) == 0 {
		hint.Message = "level already solved"
	} else {
		hint.Next = hint.Moves[0]
		hint.Message = fmt.Sprintf("solvable in %d moves (%d pushes); try %s", hint.Length, hint.Pushes, hint.Next)
	}
	return hint, nil
}

// ListPacks returns all available level packs
func (s *gameServiceImpl) ListPacks(ctx context.Context) ([]*PackInfo, error) {
	return s.packs.ListPacks()
}

// LoadPack returns a pack with its levels
func (s *gameServiceImpl) LoadPack(ctx context.Context, pack string) (*PackDetail, error) {
	return s.packs.DescribePack(pack)
}

// Leaderboard returns the recorded results of a pack, best first per level
func (s *gameServiceImpl) Leaderboard(ctx context.Context, pack string) ([]records.Result, error) {
	if _, err := s.packs.DescribePack(pack); err != nil {
		return nil, err
	}
	if s.records == nil {
		return []records.Result{}, nil
	}
	return s.records.List(ctx, pack)
}

// touch looks up a session and refreshes its last access time
func (s *gameServiceImpl) touch(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

// recordWin stores the first win of each level per session and reports
// whether it set a new best
func (s *gameServiceImpl) recordWin(ctx context.Context, sess *Session) bool {
	level := sess.Engine.CurrentLevel()
	steps := sess.Engine.StepCount()
	log.Info().Str("session", sess.ID).Str("pack", sess.Pack).Int("level", level).Int("steps", steps).Msg("level solved")

	if s.records == nil || level < 1 {
		return false
	}
	if sess.solved == nil {
		sess.solved = make(map[int]bool)
	}
	if sess.solved[level] {
		return false
	}
	sess.solved[level] = true

	isBest, err := s.records.Record(ctx, records.NewResult(sess.Pack, level, steps, sess.ID))
	if err != nil {
		log.Error().Err(err).Str("session", sess.ID).Msg("failed to record result")
		return false
	}
	if isBest {
		log.Info().Str("pack", sess.Pack).Int("level", level).Int("steps", steps).Msg("new best solution")
	}
	return isBest
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	info := &SessionInfo{
		ID:             sess.ID,
		Pack:           sess.Pack,
		Level:          sess.Engine.CurrentLevel(),
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState(),
	}
	if titled, ok := sess.Catalog.(titledCatalog); ok {
		info.LevelTitle = titled.Title(info.Level)
	}
	return info
}

// moveEvents compares two snapshots and reports what happened between them
func moveEvents(before, after *engine.Snapshot, outcome engine.MoveOutcome) []GameEvent {
	now := time.Now()
	var events []GameEvent

	switch outcome {
	case engine.Moved:
		if after.Hero != before.Hero {
			events = append(events, GameEvent{Type: "move", Message: "hero moved", Timestamp: now, Position: after.Hero})
		}
	case engine.MovedWithPush:
		events = append(events, GameEvent{Type: "push", Message: "crate pushed", Timestamp: now, Position: after.Hero})
	}

	if after.CratesOnGoal > before.CratesOnGoal {
		events = append(events, GameEvent{
			Type:      "crate_on_goal",
			Message:   fmt.Sprintf("%d of %d crates on goals", after.CratesOnGoal, len(after.Crates)),
			Timestamp: now,
			Position:  after.Hero,
		})
	}
	if !before.Victory && after.Victory {
		events = append(events, GameEvent{Type: "victory", Message: "level solved", Timestamp: now, Position: after.Hero})
	}
	return events
}

func describeMove(outcome engine.MoveOutcome, state *engine.Snapshot) string {
	if state.Victory {
		if state.HasMoreLevels {
			return fmt.Sprintf("Level %d solved in %d steps! Advance to level %d.", state.Level, state.StepCount, state.Level+1)
		}
		return fmt.Sprintf("Level %d solved in %d steps! That was the last level.", state.Level, state.StepCount)
	}
	switch outcome {
	case engine.MovedWithPush:
		return fmt.Sprintf("Pushed a crate. %d/%d crates on goals.", state.CratesOnGoal, len(state.Crates))
	case engine.Moved:
		return "Moved."
	default:
		return "Blocked: a wall or an immovable crate is in the way."
	}
}
