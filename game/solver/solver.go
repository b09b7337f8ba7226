// Package solver finds the shortest move sequence that wins a level.
//
// The search is breadth-first over (hero, crate set) states using the same
// legality rules as the engine's move resolver, so every returned sequence can
// be replayed through engine.GameEngine.Move without a blocked move.
package solver

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/wricardo/sokoban-game/game/engine"
)

// DefaultMaxStates bounds the search when Options.MaxStates is zero
const DefaultMaxStates = 200000

var (
	ErrSearchLimit = errors.New("search limit reached before a solution was found")
	ErrUnsolvable  = errors.New("level cannot be solved from this position")
)

// Options tunes a search
type Options struct {
	MaxStates int
}

// Solution is a winning move sequence
type Solution struct {
	Moves    []engine.Direction `json:"moves"`
	Pushes   int                `json:"pushes"`
	Explored int                `json:"explored"`
}

// Strings returns the moves as plain direction names
func (s *Solution) Strings() []string {
	out := make([]string, len(s.Moves))
	for i, m := range s.Moves {
		out[i] = string(m)
	}
	return out
}

type node struct {
	hero   engine.Position
	crates []engine.Position
	parent int
	move   engine.Direction
	push   bool
}

type searcher struct {
	grid  *engine.Grid
	dead  map[engine.Position]bool
	goals int
	minX  int
	minY  int
	maxX  int
	maxY  int
}

// Solve searches from the given state without modifying it
func Solve(gs *engine.GameState, opts Options) (*Solution, error) {
	if gs.IsWinning() {
		return &Solution{Moves: []engine.Direction{}}, nil
	}

	limit := opts.MaxStates
	if limit <= 0 {
		limit = DefaultMaxStates
	}

	s := &searcher{
		grid: gs.Grid,
		minX: -1,
		minY: -1,
		maxX: gs.Grid.Width + 1,
		maxY: gs.Grid.Height + 1,
	}
	s.dead = s.deadSquares()

	start := node{hero: gs.Hero.Position(), parent: -1}
	for _, c := range gs.Crates {
		start.crates = append(start.crates, c.Position())
	}
	sortPositions(start.crates)

	nodes := []node{start}
	visited := map[string]struct{}{key(start): {}}

	for head := 0; head < len(nodes); head++ {
		current := nodes[head]

		for _, dir := range engine.Directions {
			next, ok := s.step(current, dir)
			if !ok {
				continue
			}
			k := key(next)
			if _, seen := visited[k]; seen {
				continue
			}
			visited[k] = struct{}{}

			next.parent = head
			nodes = append(nodes, next)

			if s.solved(next.crates) {
				return trace(nodes, len(nodes)-1, len(visited)), nil
			}
			if len(visited) >= limit {
				return nil, ErrSearchLimit
			}
		}
	}

	return nil, ErrUnsolvable
}

// step applies the resolver rules to a search node
func (s *searcher) step(n node, dir engine.Direction) (node, bool) {
	dx, dy, ok := dir.Offset()
	if !ok {
		return node{}, false
	}

	target := n.hero.Add(dx, dy)
	if s.grid.HasWallAt(target.X, target.Y) || !s.inBounds(target) {
		return node{}, false
	}

	idx := indexOf(n.crates, target)
	if idx < 0 {
		return node{hero: target, crates: n.crates, move: dir}, true
	}

	beyond := target.Add(dx, dy)
	if s.grid.HasWallAt(beyond.X, beyond.Y) || indexOf(n.crates, beyond) >= 0 {
		return node{}, false
	}
	if s.dead[beyond] || !s.inBounds(beyond) {
		return node{}, false
	}

	crates := make([]engine.Position, len(n.crates))
	copy(crates, n.crates)
	crates[idx] = beyond
	sortPositions(crates)

	return node{hero: target, crates: crates, move: dir, push: true}, true
}

func (s *searcher) solved(crates []engine.Position) bool {
	for _, c := range crates {
		if !s.grid.HasGoalAt(c.X, c.Y) {
			return false
		}
	}
	return true
}

func (s *searcher) inBounds(p engine.Position) bool {
	return p.X >= s.minX && p.Y >= s.minY && p.X <= s.maxX && p.Y <= s.maxY
}

// deadSquares marks non-goal cells boxed in by two orthogonal walls.
// A crate pushed there can never move again.
func (s *searcher) deadSquares() map[engine.Position]bool {
	dead := make(map[engine.Position]bool)
	for y := s.minY; y <= s.maxY; y++ {
		for x := s.minX; x <= s.maxX; x++ {
			if s.grid.HasWallAt(x, y) || s.grid.HasGoalAt(x, y) {
				continue
			}
			up := s.grid.HasWallAt(x, y-1)
			down := s.grid.HasWallAt(x, y+1)
			left := s.grid.HasWallAt(x-1, y)
			right := s.grid.HasWallAt(x+1, y)
			if (up || down) && (left || right) {
				dead[engine.Position{X: x, Y: y}] = true
			}
		}
	}
	return dead
}

func trace(nodes []node, last, explored int) *Solution {
	sol := &Solution{Explored: explored}
	for i := last; nodes[i].parent >= 0; i = nodes[i].parent {
		sol.Moves = append(sol.Moves, nodes[i].move)
		if nodes[i].push {
			sol.Pushes++
		}
	}
	for i, j := 0, len(sol.Moves)-1; i < j; i, j = i+1, j-1 {
		sol.Moves[i], sol.Moves[j] = sol.Moves[j], sol.Moves[i]
	}
	return sol
}

func key(n node) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(n.hero.X))
	b.WriteByte(',')
	b.WriteString(strconv.Itoa(n.hero.Y))
	for _, c := range n.crates {
		b.WriteByte('|')
		b.WriteString(strconv.Itoa(c.X))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(c.Y))
	}
	return b.String()
}

func indexOf(list []engine.Position, p engine.Position) int {
	for i, q := range list {
		if q == p {
			return i
		}
	}
	return -1
}

func sortPositions(list []engine.Position) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Y != list[j].Y {
			return list[i].Y < list[j].Y
		}
		return list[i].X < list[j].X
	})
}
