package engine

import (
	"errors"
	"fmt"
)

// TileKind represents the static kind of a map cell
type TileKind string

const (
	Wall  TileKind = "wall"
	Space TileKind = "space"
	Goal  TileKind = "goal"
)

// EntityKind discriminates the movable objects of a level
type EntityKind string

const (
	Hero  EntityKind = "hero"
	Crate EntityKind = "crate"
)

const (
	// CellSize is the display size of one grid cell
	CellSize = 50

	// Level symbols
	SymbolWall      = '#'
	SymbolGoal      = '.'
	SymbolHero      = '@'
	SymbolCrate     = '$'
	SymbolCrateGoal = '*'
	SymbolHeroGoal  = '+'
	SymbolFloor     = ' '

	// MaxBulkMoves caps the number of directions accepted in one bulk request
	MaxBulkMoves = 100

	// MaxJournalEntries bounds the per-engine action journal; older entries are dropped
	MaxJournalEntries = 1000
)

var (
	ErrInvalidDirection = errors.New("invalid direction")
	ErrNothingToUndo    = errors.New("nothing to undo")
	ErrCorruptHistory   = errors.New("undo history does not end with a hero move")
	ErrNoSuchLevel      = errors.New("no such level")
	ErrNoLevelLoaded    = errors.New("no level loaded")
)

// Position represents x,y grid coordinates
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns the position shifted by the given offset
func (p Position) Add(dx, dy int) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// Tile represents a single map cell
type Tile struct {
	Kind TileKind `json:"kind"`
	X    int      `json:"x"`
	Y    int      `json:"y"`
}

// Entity is either the hero or a crate
type Entity struct {
	Kind   EntityKind `json:"kind"`
	X      int        `json:"x"`
	Y      int        `json:"y"`
	OnGoal bool       `json:"on_goal"`
}

// NewEntity creates an entity at the given coordinates
func NewEntity(kind EntityKind, x, y int) *Entity {
	return &Entity{Kind: kind, X: x, Y: y}
}

// Position returns the entity's current coordinates
func (e *Entity) Position() Position {
	return Position{X: e.X, Y: e.Y}
}

func (e *Entity) move(dx, dy int) {
	e.X += dx
	e.Y += dy
}

func (e *Entity) reverse(dx, dy int) {
	e.move(-dx, -dy)
}

// CheckOnGoal recomputes the on-goal flag. The hero never sits "on goal".
func (e *Entity) CheckOnGoal(grid *Grid) {
	if e.Kind == Hero {
		return
	}
	e.OnGoal = grid.HasGoalAt(e.X, e.Y)
}

// Direction is one of the four cardinal moves
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// Directions lists the legal directions in a stable order
var Directions = []Direction{Up, Down, Left, Right}

// Offset returns the grid delta for the direction; ok is false for anything
// that is not a cardinal direction.
func (d Direction) Offset() (dx, dy int, ok bool) {
	switch d {
	case Up:
		return 0, -1, true
	case Down:
		return 0, 1, true
	case Left:
		return -1, 0, true
	case Right:
		return 1, 0, true
	}
	return 0, 0, false
}

// ParseDirection converts user input into a Direction
func ParseDirection(s string) (Direction, error) {
	d := Direction(s)
	if _, _, ok := d.Offset(); !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
	return d, nil
}

// Intent is a single discrete input from the presentation layer
type Intent string

const (
	IntentUp      Intent = "up"
	IntentDown    Intent = "down"
	IntentLeft    Intent = "left"
	IntentRight   Intent = "right"
	IntentAdvance Intent = "advance"
)

// MoveOutcome is the result of a move attempt
type MoveOutcome int

const (
	Blocked MoveOutcome = iota
	Moved
	MovedWithPush
)

func (o MoveOutcome) String() string {
	switch o {
	case Moved:
		return "moved"
	case MovedWithPush:
		return "moved_with_push"
	default:
		return "blocked"
	}
}

// MarshalText encodes the outcome by name
func (o MoveOutcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes an outcome name
func (o *MoveOutcome) UnmarshalText(text []byte) error {
	switch string(text) {
	case "blocked":
		*o = Blocked
	case "moved":
		*o = Moved
	case "moved_with_push":
		*o = MovedWithPush
	default:
		return fmt.Errorf("unknown move outcome %q", text)
	}
	return nil
}

// Accepted reports whether the hero actually moved
func (o MoveOutcome) Accepted() bool {
	return o == Moved || o == MovedWithPush
}

// CrateView is the read-only view of a crate
type CrateView struct {
	X      int  `json:"x"`
	Y      int  `json:"y"`
	OnGoal bool `json:"on_goal"`
}

// Snapshot is the read-only state exposed to presentation layers
type Snapshot struct {
	Level         int         `json:"level"`
	LevelCount    int         `json:"level_count"`
	Hero          Position    `json:"hero"`
	Crates        []CrateView `json:"crates"`
	Tiles         []Tile      `json:"tiles"`
	Rows          []string    `json:"rows"`
	GridWidth     int         `json:"grid_width"`
	GridHeight    int         `json:"grid_height"`
	DisplayWidth  int         `json:"display_width"`
	DisplayHeight int         `json:"display_height"`
	StepCount     int         `json:"step_count"`
	HistoryLen    int         `json:"history_len"`
	Victory       bool        `json:"victory"`
	CanUndo       bool        `json:"can_undo"`
	HasMoreLevels bool        `json:"has_more_levels"`
	CratesOnGoal  int         `json:"crates_on_goal"`
}

// JournalEntry is one player action in the session journal
type JournalEntry struct {
	Action     string      `json:"action"`
	Outcome    MoveOutcome `json:"outcome"`
	From       Position    `json:"from"`
	To         Position    `json:"to"`
	Level      int         `json:"level"`
	StepCount  int         `json:"step_count"`
	Timestamp  int64       `json:"timestamp"`
	MoveNumber int         `json:"move_number"`
}
