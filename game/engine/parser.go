package engine

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	ErrNoHero         = errors.New("level has no hero")
	ErrMultipleHeroes = errors.New("level has more than one hero")
)

// ParseError describes why a level text could not be loaded
type ParseError struct {
	Err  error
	X, Y int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("parse level: %v: %s", e.Err, e.Msg)
	}
	return fmt.Sprintf("parse level: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Level is the parsed form of a level text
type Level struct {
	Grid   *Grid
	Hero   *Entity
	Crates []*Entity
}

// ParseLevel converts level text into a grid and its entities.
//
// Symbols:
//
//	#  wall
//	.  goal
//	@  hero on floor
//	$  crate on floor
//	*  crate on goal
//	+  hero on goal
//
// Any other character produces neither a tile nor an entity.
func ParseLevel(text string) (*Level, error) {
	level := &Level{Grid: NewGrid()}
	var heroes []Position

	lines := strings.Split(text, "\n")
	for y, raw := range lines {
		line := strings.TrimRightFunc(raw, unicode.IsSpace)
		for x, ch := range []rune(line) {
			// Extent covers every character on the line
			if x > level.Grid.Width {
				level.Grid.Width = x
			}
			if y > level.Grid.Height {
				level.Grid.Height = y
			}

			switch ch {
			case SymbolWall:
				level.Grid.add(Wall, x, y)
			case SymbolGoal:
				level.Grid.add(Goal, x, y)
			case SymbolHero:
				level.Grid.add(Space, x, y)
				heroes = append(heroes, Position{X: x, Y: y})
			case SymbolCrate:
				level.Grid.add(Space, x, y)
				level.Crates = append(level.Crates, NewEntity(Crate, x, y))
			case SymbolCrateGoal:
				level.Grid.add(Goal, x, y)
				level.Crates = append(level.Crates, NewEntity(Crate, x, y))
			case SymbolHeroGoal:
				level.Grid.add(Goal, x, y)
				heroes = append(heroes, Position{X: x, Y: y})
			}
		}
	}

	switch len(heroes) {
	case 0:
		return nil, &ParseError{Err: ErrNoHero}
	case 1:
		level.Hero = NewEntity(Hero, heroes[0].X, heroes[0].Y)
	default:
		return nil, &ParseError{
			Err: ErrMultipleHeroes,
			X:   heroes[1].X,
			Y:   heroes[1].Y,
			Msg: fmt.Sprintf("first at (%d,%d), another at (%d,%d)", heroes[0].X, heroes[0].Y, heroes[1].X, heroes[1].Y),
		}
	}

	for _, crate := range level.Crates {
		crate.CheckOnGoal(level.Grid)
	}

	return level, nil
}
