package engine

import (
	"fmt"
	"time"
)

// Catalog supplies level texts by 1-based level number
type Catalog interface {
	LevelText(n int) (string, error)
	Count() int
}

// StaticCatalog is an ordered list of level texts; level 1 is the first entry
type StaticCatalog []string

// LevelText returns the text of level n
func (c StaticCatalog) LevelText(n int) (string, error) {
	if n < 1 || n > len(c) {
		return "", fmt.Errorf("%w: %d", ErrNoSuchLevel, n)
	}
	return c[n-1], nil
}

// Count returns the number of levels
func (c StaticCatalog) Count() int {
	return len(c)
}

// Engine provides the main interface for game operations
type Engine interface {
	// Level management
	Load(text string) error
	LoadLevel(n int) error
	TryAdvance() bool
	Restart() error
	CurrentLevel() int
	HasMoreLevels() bool

	// Movement operations
	Move(direction string) MoveOutcome
	HandleIntent(intent Intent) (MoveOutcome, bool)
	CanMove(direction string) bool
	GetPossibleMoves() []Direction

	// Undo
	Undo() error
	CanUndo() bool

	// State
	GetState() *Snapshot
	IsVictory() bool
	StepCount() int
	GetJournal() []JournalEntry
}

// GameEngine implements the Engine interface. It is not safe for concurrent use.
type GameEngine struct {
	catalog Catalog
	level   int
	text    string
	state   *GameState

	journal    []JournalEntry
	totalMoves int
}

// NewEngine creates an engine and loads level n from the catalog
func NewEngine(catalog Catalog, n int) (*GameEngine, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog cannot be nil")
	}
	e := &GameEngine{catalog: catalog}
	if err := e.LoadLevel(n); err != nil {
		return nil, err
	}
	return e, nil
}

// NewEngineFromText creates an engine for a single level text with no catalog
func NewEngineFromText(text string) (*GameEngine, error) {
	e := &GameEngine{catalog: StaticCatalog{}}
	if err := e.Load(text); err != nil {
		return nil, err
	}
	return e, nil
}

// Load parses text and replaces the current level state. On error the
// previous state is kept.
func (e *GameEngine) Load(text string) error {
	level, err := ParseLevel(text)
	if err != nil {
		return err
	}
	e.state = NewGameState(level)
	e.text = text
	return nil
}

// LoadLevel loads level n from the catalog
func (e *GameEngine) LoadLevel(n int) error {
	text, err := e.catalog.LevelText(n)
	if err != nil {
		return err
	}
	if err := e.Load(text); err != nil {
		return fmt.Errorf("level %d: %w", n, err)
	}
	e.level = n
	return nil
}

// TryAdvance loads the next level. Running out of levels is a normal false.
func (e *GameEngine) TryAdvance() bool {
	from := e.heroPosition()
	if err := e.LoadLevel(e.level + 1); err != nil {
		return false
	}
	e.record("advance", Blocked, from)
	return true
}

// Restart reloads the current level
func (e *GameEngine) Restart() error {
	from := e.heroPosition()
	var err error
	if e.level > 0 {
		err = e.LoadLevel(e.level)
	} else {
		err = e.Load(e.text)
	}
	if err != nil {
		return err
	}
	e.record("restart", Blocked, from)
	return nil
}

// CurrentLevel returns the 1-based number of the loaded level, 0 for raw text
func (e *GameEngine) CurrentLevel() int {
	return e.level
}

// LevelCount returns the number of levels in the catalog
func (e *GameEngine) LevelCount() int {
	return e.catalog.Count()
}

// HasMoreLevels reports whether a level follows the current one
func (e *GameEngine) HasMoreLevels() bool {
	return e.level < e.catalog.Count()
}

// Move attempts to move the hero in the given direction
func (e *GameEngine) Move(direction string) MoveOutcome {
	if e.state == nil {
		return Blocked
	}
	from := e.heroPosition()

	outcome := Blocked
	if dir, err := ParseDirection(direction); err == nil {
		outcome = e.state.AttemptMove(dir)
	}

	e.record(direction, outcome, from)
	return outcome
}

// HandleIntent applies a single input. While the level is won only an
// advance intent is honoured; the bool reports whether the level changed.
func (e *GameEngine) HandleIntent(intent Intent) (MoveOutcome, bool) {
	if e.IsVictory() {
		if intent == IntentAdvance && e.HasMoreLevels() {
			return Blocked, e.TryAdvance()
		}
		return Blocked, false
	}
	if intent == IntentAdvance {
		return Blocked, false
	}
	return e.Move(string(intent)), false
}

// CanMove checks if the hero can move in the specified direction
func (e *GameEngine) CanMove(direction string) bool {
	dir, err := ParseDirection(direction)
	if err != nil || e.state == nil {
		return false
	}
	return e.state.CanMove(dir)
}

// GetPossibleMoves returns all directions that would be accepted
func (e *GameEngine) GetPossibleMoves() []Direction {
	var possible []Direction
	for _, dir := range Directions {
		if e.CanMove(string(dir)) {
			possible = append(possible, dir)
		}
	}
	return possible
}

// BulkMove executes moves in sequence until one is blocked or the level is won
func (e *GameEngine) BulkMove(moves []string) []MoveOutcome {
	results := make([]MoveOutcome, 0, len(moves))

	for _, direction := range moves {
		if e.IsVictory() {
			break
		}

		outcome := e.Move(direction)
		results = append(results, outcome)
		if outcome == Blocked {
			break
		}
	}

	return results
}

// Undo reverses the last player action
func (e *GameEngine) Undo() error {
	if e.state == nil {
		return ErrNoLevelLoaded
	}
	from := e.heroPosition()
	if err := e.state.Undo(); err != nil {
		return err
	}
	e.record("undo", Moved, from)
	return nil
}

// CanUndo reports whether the history holds anything to undo
func (e *GameEngine) CanUndo() bool {
	return e.state != nil && e.state.History.CanUndo()
}

// IsVictory returns whether every crate is on a goal
func (e *GameEngine) IsVictory() bool {
	return e.state != nil && e.state.IsWinning()
}

// StepCount returns the accepted hero moves on the current level
func (e *GameEngine) StepCount() int {
	if e.state == nil {
		return 0
	}
	return e.state.StepCount
}

// State returns the live level state
func (e *GameEngine) State() *GameState {
	return e.state
}

// GetState returns a read-only snapshot of the current level
func (e *GameEngine) GetState() *Snapshot {
	gs := e.state
	if gs == nil {
		return &Snapshot{}
	}

	crates := make([]CrateView, 0, len(gs.Crates))
	onGoal := 0
	for _, c := range gs.Crates {
		crates = append(crates, CrateView{X: c.X, Y: c.Y, OnGoal: c.OnGoal})
		if c.OnGoal {
			onGoal++
		}
	}

	return &Snapshot{
		Level:         e.level,
		LevelCount:    e.catalog.Count(),
		Hero:          gs.Hero.Position(),
		Crates:        crates,
		Tiles:         gs.Grid.Tiles(),
		Rows:          RenderRows(gs),
		GridWidth:     gs.Grid.Width,
		GridHeight:    gs.Grid.Height,
		DisplayWidth:  gs.Grid.DisplayWidth(),
		DisplayHeight: gs.Grid.DisplayHeight(),
		StepCount:     gs.StepCount,
		HistoryLen:    gs.History.Len(),
		Victory:       gs.IsWinning(),
		CanUndo:       gs.History.CanUndo(),
		HasMoreLevels: e.HasMoreLevels(),
		CratesOnGoal:  onGoal,
	}
}

// GetJournal returns the most recent player actions, oldest first. At most
// MaxJournalEntries are kept; MoveNumber keeps counting across dropped entries.
func (e *GameEngine) GetJournal() []JournalEntry {
	return e.journal
}

func (e *GameEngine) heroPosition() Position {
	if e.state == nil {
		return Position{}
	}
	return e.state.Hero.Position()
}

// record appends an action to the journal, dropping the oldest past the cap
func (e *GameEngine) record(action string, outcome MoveOutcome, from Position) {
	e.totalMoves++
	if len(e.journal) >= MaxJournalEntries {
		kept := make([]JournalEntry, MaxJournalEntries-1, MaxJournalEntries)
		copy(kept, e.journal[len(e.journal)-MaxJournalEntries+1:])
		e.journal = kept
	}
	e.journal = append(e.journal, JournalEntry{
		Action:     action,
		Outcome:    outcome,
		From:       from,
		To:         e.heroPosition(),
		Level:      e.level,
		StepCount:  e.StepCount(),
		Timestamp:  time.Now().Unix(),
		MoveNumber: e.totalMoves,
	})
}
