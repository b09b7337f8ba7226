package engine

// GameState is the mutable state of one loaded level
type GameState struct {
	Grid      *Grid
	Hero      *Entity
	Crates    []*Entity
	History   History
	StepCount int
}

// NewGameState builds a fresh state from a parsed level
func NewGameState(level *Level) *GameState {
	return &GameState{
		Grid:   level.Grid,
		Hero:   level.Hero,
		Crates: level.Crates,
	}
}

// CrateAt returns the crate occupying (x, y), or nil
func (gs *GameState) CrateAt(x, y int) *Entity {
	for _, crate := range gs.Crates {
		if crate.X == x && crate.Y == y {
			return crate
		}
	}
	return nil
}

// IsWinning reports whether every crate rests on a goal.
// A level without crates is vacuously won.
func (gs *GameState) IsWinning() bool {
	for _, crate := range gs.Crates {
		if !crate.OnGoal {
			return false
		}
	}
	return true
}

// CanMove reports whether a move in the given direction would be accepted
func (gs *GameState) CanMove(dir Direction) bool {
	_, ok := gs.resolve(dir)
	return ok
}

// AttemptMove resolves a move of the hero. Either every affected entity moves
// and its record is pushed, or nothing changes at all.
func (gs *GameState) AttemptMove(dir Direction) MoveOutcome {
	crate, ok := gs.resolve(dir)
	if !ok {
		return Blocked
	}
	dx, dy, _ := dir.Offset()

	outcome := Moved
	if crate != nil {
		crate.move(dx, dy)
		crate.CheckOnGoal(gs.Grid)
		gs.History.Push(MoveRecord{Entity: crate, DX: dx, DY: dy})
		outcome = MovedWithPush
	}

	gs.Hero.move(dx, dy)
	gs.History.Push(MoveRecord{Entity: gs.Hero, DX: dx, DY: dy})
	gs.StepCount++

	return outcome
}

// resolve checks legality without mutating anything. It returns the crate
// that would be pushed (nil for a plain step) and whether the move is legal.
func (gs *GameState) resolve(dir Direction) (*Entity, bool) {
	if gs.IsWinning() {
		return nil, false
	}

	dx, dy, ok := dir.Offset()
	if !ok {
		return nil, false
	}

	target := gs.Hero.Position().Add(dx, dy)
	if gs.Grid.HasWallAt(target.X, target.Y) {
		return nil, false
	}

	crate := gs.CrateAt(target.X, target.Y)
	if crate == nil {
		return nil, true
	}

	beyond := crate.Position().Add(dx, dy)
	if gs.Grid.HasWallAt(beyond.X, beyond.Y) || gs.CrateAt(beyond.X, beyond.Y) != nil {
		return nil, false
	}

	return crate, true
}
