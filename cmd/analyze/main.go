// Command analyze prints quick, human-readable heuristics about level packs.
// For every level it summarizes dimensions, crates and goals, the floor area
// the hero can reach, crates that start wedged in a corner, and the length of
// the shortest solution.
//
// Usage:
//
//	analyze                    # embedded packs
//	analyze levels/*.yaml      # pack files
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/sokoban-game/game/engine"
	"github.com/wricardo/sokoban-game/game/levels"
	"github.com/wricardo/sokoban-game/game/solver"
)

// maxStates keeps one analysis run short; harder levels report "unknown"
const maxStates = 100000

// LevelAnalysis holds the heuristics for one level
type LevelAnalysis struct {
	Number    int
	Title     string
	Width     int
	Height    int
	Crates    int
	Goals     int
	Reachable int

	UnreachableGoals []engine.Position
	CorneredCrates   []engine.Position

	Solved   bool
	Moves    int
	Pushes   int
	Explored int
	SolveErr error
	ParseErr error
}

func main() {
	packs, err := loadPacks(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for _, pack := range packs {
		fmt.Printf("\n=== Analyzing %s (%s) ===\n", pack.Name, pack.ID)
		for i, def := range pack.Levels {
			printAnalysis(os.Stdout, analyzeLevel(i+1, def.Title, def.Map))
		}
	}
}

// loadPacks reads pack files, or every embedded pack when no paths are given
func loadPacks(paths []string) ([]*levels.Pack, error) {
	if len(paths) == 0 {
		manager, err := levels.NewManager("")
		if err != nil {
			return nil, err
		}
		names, err := manager.PackNames()
		if err != nil {
			return nil, err
		}
		packs := make([]*levels.Pack, 0, len(names))
		for _, name := range names {
			pack, err := manager.InspectPack(name)
			if err != nil {
				return nil, err
			}
			packs = append(packs, pack)
		}
		return packs, nil
	}

	packs := make([]*levels.Pack, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading file: %w", err)
		}
		id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		pack, err := levels.ParsePack(id, data)
		if err != nil {
			return nil, err
		}
		packs = append(packs, pack)
	}
	return packs, nil
}

func analyzeLevel(number int, title, text string) LevelAnalysis {
	a := LevelAnalysis{Number: number, Title: title}

	level, err := engine.ParseLevel(text)
	if err != nil {
		a.ParseErr = err
		return a
	}

	grid := level.Grid
	a.Width, a.Height = grid.Width+1, grid.Height+1
	a.Crates = len(level.Crates)
	a.Goals = engine.CountTiles(grid, engine.Goal)

	reachable := reachableCells(grid, level.Hero.Position())
	a.Reachable = len(reachable)

	for _, tile := range grid.Tiles() {
		pos := engine.Position{X: tile.X, Y: tile.Y}
		if tile.Kind == engine.Goal && !reachable[pos] {
			a.UnreachableGoals = append(a.UnreachableGoals, pos)
		}
	}
	for _, crate := range level.Crates {
		if !crate.OnGoal && isCorner(grid, crate.X, crate.Y) {
			a.CorneredCrates = append(a.CorneredCrates, crate.Position())
		}
	}

	sol, err := solver.Solve(engine.NewGameState(level), solver.Options{MaxStates: maxStates})
	if err != nil {
		a.SolveErr = err
		return a
	}
	a.Solved = true
	a.Moves, a.Pushes, a.Explored = len(sol.Moves), sol.Pushes, sol.Explored
	return a
}

// reachableCells floods the non-wall cells connected to start, ignoring crates
func reachableCells(grid *engine.Grid, start engine.Position) map[engine.Position]bool {
	seen := map[engine.Position]bool{start: true}
	queue := []engine.Position{start}

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, dir := range engine.Directions {
			dx, dy, _ := dir.Offset()
			next := p.Add(dx, dy)
			if next.X < 0 || next.Y < 0 || next.X > grid.Width || next.Y > grid.Height {
				continue
			}
			if seen[next] || grid.HasWallAt(next.X, next.Y) {
				continue
			}
			seen[next] = true
			queue = append(queue, next)
		}
	}
	return seen
}

func isCorner(grid *engine.Grid, x, y int) bool {
	vertical := grid.HasWallAt(x, y-1) || grid.HasWallAt(x, y+1)
	horizontal := grid.HasWallAt(x-1, y) || grid.HasWallAt(x+1, y)
	return vertical && horizontal
}

func printAnalysis(w io.Writer, a LevelAnalysis) {
	fmt.Fprintf(w, "\nLevel %d: %s\n", a.Number, a.Title)
	if a.ParseErr != nil {
		fmt.Fprintf(w, "❌ Parse error: %v\n", a.ParseErr)
		return
	}

	fmt.Fprintf(w, "Size: %d x %d\n", a.Width, a.Height)
	fmt.Fprintf(w, "Crates: %d, Goals: %d\n", a.Crates, a.Goals)
	fmt.Fprintf(w, "Reachable floor cells: %d\n", a.Reachable)

	if a.Crates > a.Goals {
		fmt.Fprintf(w, "⚠️  CRITICAL: more crates than goals\n")
	}
	if len(a.UnreachableGoals) > 0 {
		fmt.Fprintf(w, "⚠️  WARNING: %d goals are outside the hero's area\n", len(a.UnreachableGoals))
		for _, p := range a.UnreachableGoals {
			fmt.Fprintf(w, "   Unreachable goal: (%d, %d)\n", p.X, p.Y)
		}
	}
	if len(a.CorneredCrates) > 0 {
		fmt.Fprintf(w, "⚠️  CRITICAL: %d crates start in a corner off-goal\n", len(a.CorneredCrates))
	}

	switch {
	case a.Solved:
		fmt.Fprintf(w, "✅ Solvable in %d moves (%d pushes, %d states explored)\n", a.Moves, a.Pushes, a.Explored)
	case errors.Is(a.SolveErr, solver.ErrSearchLimit):
		fmt.Fprintf(w, "❔ Unknown: no solution within %d states\n", maxStates)
	default:
		fmt.Fprintf(w, "❌ Unsolvable: %v\n", a.SolveErr)
	}
}
