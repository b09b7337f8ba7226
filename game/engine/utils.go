package engine

import "strings"

// RenderRows writes the current state back into level symbols, one string per row
func RenderRows(gs *GameState) []string {
	width, height := gs.Grid.Width+1, gs.Grid.Height+1
	cells := make([][]rune, height)
	for y := range cells {
		cells[y] = []rune(strings.Repeat(string(SymbolFloor), width))
	}

	for _, tile := range gs.Grid.tiles {
		switch tile.Kind {
		case Wall:
			cells[tile.Y][tile.X] = SymbolWall
		case Goal:
			cells[tile.Y][tile.X] = SymbolGoal
		}
	}

	for _, crate := range gs.Crates {
		if !inBounds(crate.X, crate.Y, width, height) {
			continue
		}
		if crate.OnGoal {
			cells[crate.Y][crate.X] = SymbolCrateGoal
		} else {
			cells[crate.Y][crate.X] = SymbolCrate
		}
	}

	if h := gs.Hero; h != nil && inBounds(h.X, h.Y, width, height) {
		if gs.Grid.HasGoalAt(h.X, h.Y) {
			cells[h.Y][h.X] = SymbolHeroGoal
		} else {
			cells[h.Y][h.X] = SymbolHero
		}
	}

	rows := make([]string, height)
	for y, row := range cells {
		rows[y] = strings.TrimRight(string(row), string(SymbolFloor))
	}
	return rows
}

// RenderText joins RenderRows with newlines; parsing the result yields the same entities
func RenderText(gs *GameState) string {
	return strings.Join(RenderRows(gs), "\n")
}

// CountTiles counts the tiles of a given kind
func CountTiles(grid *Grid, kind TileKind) int {
	count := 0
	for _, tile := range grid.tiles {
		if tile.Kind == kind {
			count++
		}
	}
	return count
}

func inBounds(x, y, width, height int) bool {
	return x >= 0 && y >= 0 && x < width && y < height
}
